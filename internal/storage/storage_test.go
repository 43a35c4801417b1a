package storage

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo *Repository
	ctx  context.Context
	user core.User
}

func (s *RepositoryTestSuite) SetupTest() {
	repo, err := New(":memory:")
	require.NoError(s.T(), err, "failed to open test database")
	s.repo = repo
	s.ctx = context.Background()

	user, err := repo.CreateUser(s.ctx, "alice", "alice@example.com", "hash")
	require.NoError(s.T(), err)
	s.user = user
}

func (s *RepositoryTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *RepositoryTestSuite) addTx(typ core.TransactionType, category string, cents int64, d core.Date) int64 {
	id, err := s.repo.CreateTransaction(s.ctx, core.Transaction{
		UserID:   s.user.ID,
		Type:     typ,
		Category: category,
		Amount:   core.Money{Cents: cents},
		Date:     d,
	})
	require.NoError(s.T(), err)
	return id
}

func (s *RepositoryTestSuite) TestCreateUserDuplicate() {
	_, err := s.repo.CreateUser(s.ctx, "alice", "other@example.com", "hash")
	assert.ErrorIs(s.T(), err, core.ErrDuplicate, "duplicate username")

	_, err = s.repo.CreateUser(s.ctx, "bob", "alice@example.com", "hash")
	assert.ErrorIs(s.T(), err, core.ErrDuplicate, "duplicate email")
}

func (s *RepositoryTestSuite) TestSumByTypeMatchesInserts() {
	s.addTx(core.Income, "Salary", 300000, core.NewDate(2024, 3, 1))
	s.addTx(core.Income, "Freelance", 50000, core.NewDate(2024, 3, 10))
	s.addTx(core.Expense, "Food", 12345, core.NewDate(2024, 3, 12))

	income, err := s.repo.SumByType(s.ctx, s.user.ID, core.Income, core.DateRange{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(350000), income.Cents)

	expense, err := s.repo.SumByType(s.ctx, s.user.ID, core.Expense, core.DateRange{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(12345), expense.Cents)
}

func (s *RepositoryTestSuite) TestSumByTypeEmptyIsZero() {
	total, err := s.repo.SumByType(s.ctx, s.user.ID, core.Income, core.DateRange{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(0), total.Cents)
}

func (s *RepositoryTestSuite) TestListTransactionsFilterAndOrder() {
	s.addTx(core.Expense, "Food", 1000, core.NewDate(2024, 3, 5))
	s.addTx(core.Expense, "Transport", 2000, core.NewDate(2024, 3, 10))
	s.addTx(core.Income, "Salary", 300000, core.NewDate(2024, 3, 1))
	s.addTx(core.Expense, "Food", 3000, core.NewDate(2024, 4, 2))

	// no restriction: everything, date descending
	all, err := s.repo.ListTransactions(s.ctx, s.user.ID, core.Filter{})
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 4)
	assert.Equal(s.T(), "2024-04-02", all[0].Date.String())
	assert.Equal(s.T(), "2024-03-01", all[3].Date.String())

	// by type and category
	food, err := s.repo.ListTransactions(s.ctx, s.user.ID, core.Filter{Type: core.Expense, Category: "Food"})
	require.NoError(s.T(), err)
	assert.Len(s.T(), food, 2)

	// inclusive date bounds on both ends
	march, err := s.repo.ListTransactions(s.ctx, s.user.ID, core.Filter{
		From: core.NewDate(2024, 3, 1),
		To:   core.NewDate(2024, 3, 10),
	})
	require.NoError(s.T(), err)
	assert.Len(s.T(), march, 3)
}

func (s *RepositoryTestSuite) TestTransactionsAreScopedToOwner() {
	other, err := s.repo.CreateUser(s.ctx, "bob", "bob@example.com", "hash")
	require.NoError(s.T(), err)

	id := s.addTx(core.Expense, "Food", 1000, core.NewDate(2024, 3, 5))

	_, err = s.repo.GetTransaction(s.ctx, other.ID, id)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	err = s.repo.DeleteTransaction(s.ctx, other.ID, id)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	// still there for the real owner
	_, err = s.repo.GetTransaction(s.ctx, s.user.ID, id)
	assert.NoError(s.T(), err)
}

func (s *RepositoryTestSuite) TestDeleteTransactionStrict() {
	err := s.repo.DeleteTransaction(s.ctx, s.user.ID, 9999)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *RepositoryTestSuite) TestSumByCategoryOnlyMatching() {
	s.addTx(core.Expense, "Food", 1000, core.NewDate(2024, 3, 5))
	s.addTx(core.Expense, "Food", 500, core.NewDate(2024, 3, 6))
	s.addTx(core.Expense, "Transport", 2000, core.NewDate(2024, 3, 7))
	s.addTx(core.Income, "Salary", 300000, core.NewDate(2024, 3, 1))

	sums, err := s.repo.SumByCategory(s.ctx, s.user.ID, core.Expense, core.DateRange{})
	require.NoError(s.T(), err)
	require.Len(s.T(), sums, 2, "only expense categories with rows appear")
	assert.Equal(s.T(), "Food", sums[0].Name)
	assert.Equal(s.T(), int64(1500), sums[0].Amount.Cents)
	assert.Equal(s.T(), "Transport", sums[1].Name)
}

func (s *RepositoryTestSuite) TestBudgetDuplicateRejected() {
	b := core.Budget{UserID: s.user.ID, Category: "Food", Amount: core.Money{Cents: 100000}, Month: 3, Year: 2024}

	_, err := s.repo.CreateBudget(s.ctx, b)
	require.NoError(s.T(), err)

	_, err = s.repo.CreateBudget(s.ctx, b)
	assert.ErrorIs(s.T(), err, core.ErrDuplicate)

	rows, err := s.repo.ListBudgets(s.ctx, s.user.ID, 3, 2024)
	require.NoError(s.T(), err)
	assert.Len(s.T(), rows, 1, "store must still contain exactly one row")
}

func (s *RepositoryTestSuite) TestListBudgetsOrderedByCategory() {
	for _, cat := range []string{"Transport", "Food", "Leisure"} {
		_, err := s.repo.CreateBudget(s.ctx, core.Budget{
			UserID: s.user.ID, Category: cat, Amount: core.Money{Cents: 1000}, Month: 3, Year: 2024,
		})
		require.NoError(s.T(), err)
	}
	rows, err := s.repo.ListBudgets(s.ctx, s.user.ID, 3, 2024)
	require.NoError(s.T(), err)
	require.Len(s.T(), rows, 3)
	assert.Equal(s.T(), []string{"Food", "Leisure", "Transport"},
		[]string{rows[0].Category, rows[1].Category, rows[2].Category})
}

func (s *RepositoryTestSuite) TestGoalsOrderedByDeadline() {
	for _, g := range []core.Goal{
		{UserID: s.user.ID, Title: "Later", Target: core.Money{Cents: 1000}, Deadline: core.NewDate(2026, 6, 1)},
		{UserID: s.user.ID, Title: "Sooner", Target: core.Money{Cents: 1000}, Deadline: core.NewDate(2025, 1, 1)},
	} {
		_, err := s.repo.CreateGoal(s.ctx, g)
		require.NoError(s.T(), err)
	}
	goals, err := s.repo.ListGoals(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), goals, 2)
	assert.Equal(s.T(), "Sooner", goals[0].Title)
}

func (s *RepositoryTestSuite) TestContribute() {
	goalID, err := s.repo.CreateGoal(s.ctx, core.Goal{
		UserID:   s.user.ID,
		Title:    "Vacation",
		Target:   core.Money{Cents: 50000},
		Current:  core.Money{Cents: 10000},
		Deadline: core.NewDate(2025, 12, 31),
	})
	require.NoError(s.T(), err)

	err = s.repo.Contribute(s.ctx, s.user.ID, goalID, core.Money{Cents: 5000}, core.NewDate(2024, 3, 15))
	require.NoError(s.T(), err)

	goal, err := s.repo.GetGoal(s.ctx, s.user.ID, goalID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(15000), goal.Current.Cents)

	mirrored, err := s.repo.ListTransactions(s.ctx, s.user.ID, core.Filter{Category: core.GoalCategory})
	require.NoError(s.T(), err)
	require.Len(s.T(), mirrored, 1, "exactly one mirrored expense")
	assert.Equal(s.T(), core.Expense, mirrored[0].Type)
	assert.Equal(s.T(), int64(5000), mirrored[0].Amount.Cents)
	assert.Equal(s.T(), core.GoalNote, mirrored[0].Description)
}

func (s *RepositoryTestSuite) TestContributeAtomicOnInsertFailure() {
	goalID, err := s.repo.CreateGoal(s.ctx, core.Goal{
		UserID:   s.user.ID,
		Title:    "Vacation",
		Target:   core.Money{Cents: 50000},
		Current:  core.Money{Cents: 10000},
		Deadline: core.NewDate(2025, 12, 31),
	})
	require.NoError(s.T(), err)

	// Force the mirrored insert to fail so the goal update must roll back.
	_, err = s.repo.DB().Exec(`CREATE TRIGGER reject_tx BEFORE INSERT ON transactions
		BEGIN SELECT RAISE(ABORT, 'forced failure'); END`)
	require.NoError(s.T(), err)

	err = s.repo.Contribute(s.ctx, s.user.ID, goalID, core.Money{Cents: 5000}, core.NewDate(2024, 3, 15))
	require.Error(s.T(), err)

	_, err = s.repo.DB().Exec("DROP TRIGGER reject_tx")
	require.NoError(s.T(), err)

	goal, err := s.repo.GetGoal(s.ctx, s.user.ID, goalID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(10000), goal.Current.Cents, "goal increment must not persist")

	txs, err := s.repo.ListTransactions(s.ctx, s.user.ID, core.Filter{})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), txs)
}

func (s *RepositoryTestSuite) TestContributeUnknownGoal() {
	err := s.repo.Contribute(s.ctx, s.user.ID, 4242, core.Money{Cents: 100}, core.NewDate(2024, 3, 15))
	assert.True(s.T(), errors.Is(err, core.ErrNotFound))
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
