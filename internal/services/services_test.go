package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// recordingPublisher captures published events in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type EngineTestSuite struct {
	suite.Suite
	ctx      context.Context
	repo     *storage.Repository
	events   *recordingPublisher
	accounts *AccountService
	ledger   *LedgerService
	budgets  *BudgetService
	goals    *GoalService
	reports  *ReportService
	user     core.User
}

func (s *EngineTestSuite) SetupTest() {
	repo, err := storage.New(":memory:")
	require.NoError(s.T(), err)
	s.repo = repo
	s.ctx = context.Background()
	s.events = &recordingPublisher{}

	s.accounts = NewAccountService(repo)
	s.ledger = NewLedgerService(repo, s.events)
	s.budgets = NewBudgetService(repo, s.events)
	s.goals = NewGoalService(repo, s.events)
	s.reports = NewReportService(repo, s.budgets)
	// pin "now" inside March 2024 so current-month alerts are deterministic
	s.reports.now = func() time.Time {
		return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	}

	user, err := s.accounts.Register(s.ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(s.T(), err)
	s.user = user
}

func (s *EngineTestSuite) TearDownTest() {
	if s.repo != nil {
		s.repo.Close()
	}
}

func (s *EngineTestSuite) addExpense(category string, cents int64, d core.Date) {
	_, err := s.ledger.Add(s.ctx, core.Transaction{
		UserID:   s.user.ID,
		Type:     core.Expense,
		Category: category,
		Amount:   core.Money{Cents: cents},
		Date:     d,
	})
	require.NoError(s.T(), err)
}

func (s *EngineTestSuite) TestRegisterAndLogin() {
	u, err := s.accounts.Login(s.ctx, "alice", "s3cret")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.user.ID, u.ID)

	_, err = s.accounts.Login(s.ctx, "alice", "wrong")
	assert.ErrorIs(s.T(), err, core.ErrInvalidCredentials)

	_, err = s.accounts.Login(s.ctx, "nobody", "s3cret")
	assert.ErrorIs(s.T(), err, core.ErrInvalidCredentials, "unknown user looks identical to bad password")

	_, err = s.accounts.Register(s.ctx, "alice", "second@example.com", "pw")
	assert.ErrorIs(s.T(), err, core.ErrDuplicate)
}

func (s *EngineTestSuite) TestAddTransactionValidation() {
	_, err := s.ledger.Add(s.ctx, core.Transaction{
		UserID: s.user.ID, Type: core.Expense, Category: "Food",
		Amount: core.Money{Cents: 0}, Date: core.NewDate(2024, 3, 1),
	})
	assert.ErrorIs(s.T(), err, core.ErrInvalidAmount)

	_, err = s.ledger.Add(s.ctx, core.Transaction{
		UserID: s.user.ID, Type: "transfer", Category: "Food",
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 3, 1),
	})
	assert.ErrorIs(s.T(), err, core.ErrInvalidType)

	assert.Zero(s.T(), s.events.count(), "rejected writes publish nothing")
}

func (s *EngineTestSuite) TestSumByTypeEqualsArithmeticSum() {
	amounts := []int64{1250, 999, 30000, 1}
	var want int64
	for i, c := range amounts {
		s.addExpense("Food", c, core.NewDate(2024, 3, i+1))
		want += c
	}
	got, err := s.ledger.SumByType(s.ctx, s.user.ID, core.Expense, core.DateRange{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), want, got.Cents)
}

func (s *EngineTestSuite) TestMutationsPublishEvents() {
	id, err := s.ledger.Add(s.ctx, core.Transaction{
		UserID: s.user.ID, Type: core.Income, Category: "Salary",
		Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 3, 1),
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.ledger.Delete(s.ctx, s.user.ID, id))

	require.Equal(s.T(), 2, s.events.count())
	assert.Equal(s.T(), amqp.OpCreate, s.events.events[0].Op)
	assert.Equal(s.T(), amqp.OpDelete, s.events.events[1].Op)
}

func (s *EngineTestSuite) TestBudgetDuplicate() {
	b := core.Budget{UserID: s.user.ID, Category: "Food", Amount: core.Money{Cents: 300000}, Month: 3, Year: 2024}
	_, err := s.budgets.Set(s.ctx, b)
	require.NoError(s.T(), err)
	_, err = s.budgets.Set(s.ctx, b)
	assert.ErrorIs(s.T(), err, core.ErrDuplicate)
}

func (s *EngineTestSuite) TestAlertThresholds() {
	_, err := s.budgets.Set(s.ctx, core.Budget{
		UserID: s.user.ID, Category: "Food", Amount: core.Money{Cents: 100000}, Month: 3, Year: 2024,
	})
	require.NoError(s.T(), err)

	// 700.00 spent: below threshold, no alert
	s.addExpense("Food", 70000, core.NewDate(2024, 3, 10))
	alerts, err := s.budgets.Alerts(s.ctx, s.user.ID, 3, 2024)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), alerts)

	// 850.00 spent: warning at 85.0
	s.addExpense("Food", 15000, core.NewDate(2024, 3, 12))
	alerts, err = s.budgets.Alerts(s.ctx, s.user.ID, 3, 2024)
	require.NoError(s.T(), err)
	require.Len(s.T(), alerts, 1)
	assert.Equal(s.T(), 85.0, alerts[0].Percentage)
	assert.Equal(s.T(), core.SeverityWarning, alerts[0].Severity)

	// 1000.00 spent: critical at exactly 100.0
	s.addExpense("Food", 15000, core.NewDate(2024, 3, 13))
	alerts, err = s.budgets.Alerts(s.ctx, s.user.ID, 3, 2024)
	require.NoError(s.T(), err)
	require.Len(s.T(), alerts, 1)
	assert.Equal(s.T(), 100.0, alerts[0].Percentage)
	assert.Equal(s.T(), core.SeverityCritical, alerts[0].Severity)
}

func (s *EngineTestSuite) TestAlertWindowIgnoresOtherMonths() {
	_, err := s.budgets.Set(s.ctx, core.Budget{
		UserID: s.user.ID, Category: "Food", Amount: core.Money{Cents: 100000}, Month: 3, Year: 2024,
	})
	require.NoError(s.T(), err)

	// spending outside March must not count
	s.addExpense("Food", 90000, core.NewDate(2024, 2, 29))
	s.addExpense("Food", 90000, core.NewDate(2024, 4, 1))

	alerts, err := s.budgets.Alerts(s.ctx, s.user.ID, 3, 2024)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), alerts)
}

func (s *EngineTestSuite) TestDecemberAlertWindow() {
	_, err := s.budgets.Set(s.ctx, core.Budget{
		UserID: s.user.ID, Category: "Leisure", Amount: core.Money{Cents: 100000}, Month: 12, Year: 2024,
	})
	require.NoError(s.T(), err)

	s.addExpense("Leisure", 50000, core.NewDate(2024, 12, 1))
	s.addExpense("Leisure", 50000, core.NewDate(2024, 12, 31))
	s.addExpense("Leisure", 50000, core.NewDate(2025, 1, 1)) // outside

	alerts, err := s.budgets.Alerts(s.ctx, s.user.ID, 12, 2024)
	require.NoError(s.T(), err)
	require.Len(s.T(), alerts, 1, "Dec 1 through Dec 31 inclusive")
	assert.Equal(s.T(), 100.0, alerts[0].Percentage)
}

func (s *EngineTestSuite) TestNoBudgetsYieldsEmptyAlerts() {
	alerts, err := s.budgets.Alerts(s.ctx, s.user.ID, 3, 2024)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), alerts)
	assert.Empty(s.T(), alerts)
}

func (s *EngineTestSuite) TestContributeMirrorsExpense() {
	goalID, err := s.goals.Set(s.ctx, core.Goal{
		UserID: s.user.ID, Title: "Vacation",
		Target:  core.Money{Cents: 50000},
		Current: core.Money{Cents: 10000},
		Deadline: core.NewDate(2025, 12, 31),
	})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.goals.Contribute(s.ctx, s.user.ID, goalID, core.Money{Cents: 5000}))

	goal, err := s.goals.Get(s.ctx, s.user.ID, goalID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(15000), goal.Current.Cents)

	mirrored, err := s.ledger.List(s.ctx, s.user.ID, core.Filter{Category: core.GoalCategory})
	require.NoError(s.T(), err)
	require.Len(s.T(), mirrored, 1)
	assert.Equal(s.T(), core.Expense, mirrored[0].Type)
	assert.Equal(s.T(), int64(5000), mirrored[0].Amount.Cents)

	err = s.goals.Contribute(s.ctx, s.user.ID, goalID, core.Money{Cents: 0})
	assert.ErrorIs(s.T(), err, core.ErrInvalidAmount)

	// engine permits overshoot past the target
	require.NoError(s.T(), s.goals.Contribute(s.ctx, s.user.ID, goalID, core.Money{Cents: 40000}))
	goal, err = s.goals.Get(s.ctx, s.user.ID, goalID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(55000), goal.Current.Cents)
	assert.InDelta(s.T(), 110.0, goal.Progress(), 0.001)
}

func (s *EngineTestSuite) TestSummaryBalanceMayBeNegative() {
	s.addExpense("Food", 50000, core.NewDate(2024, 3, 1))
	summary, err := s.reports.Summary(s.ctx, s.user.ID, core.DateRange{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(-50000), summary.Balance.Cents)
}

func (s *EngineTestSuite) TestBuildReportReflectsInserts() {
	// 12 entries so the recent list truncates at 10
	for day := 1; day <= 12; day++ {
		s.addExpense("Food", 1000, core.NewDate(2024, 3, day))
	}
	_, err := s.ledger.Add(s.ctx, core.Transaction{
		UserID: s.user.ID, Type: core.Income, Category: "Salary",
		Amount: core.Money{Cents: 300000}, Date: core.NewDate(2024, 3, 1),
	})
	require.NoError(s.T(), err)

	_, err = s.budgets.Set(s.ctx, core.Budget{
		UserID: s.user.ID, Category: "Food", Amount: core.Money{Cents: 12000}, Month: 3, Year: 2024,
	})
	require.NoError(s.T(), err)

	_, err = s.goals.Set(s.ctx, core.Goal{
		UserID: s.user.ID, Title: "Vacation",
		Target: core.Money{Cents: 500000}, Current: core.Money{Cents: 600000},
		Deadline: core.NewDate(2025, 6, 1),
	})
	require.NoError(s.T(), err)

	report, err := s.reports.Build(s.ctx, s.user.ID)
	require.NoError(s.T(), err)

	assert.Equal(s.T(), int64(300000), report.Summary.TotalIncome.Cents)
	assert.Equal(s.T(), int64(12000), report.Summary.TotalExpense.Cents)
	assert.Len(s.T(), report.Recent, RecentTransactionCount)

	require.Len(s.T(), report.Alerts, 1, "12000/12000 spent in current month")
	assert.Equal(s.T(), core.SeverityCritical, report.Alerts[0].Severity)

	require.Len(s.T(), report.Goals, 1)
	assert.Equal(s.T(), 120.0, report.Goals[0].Progress)

	// building again without writes yields the same figures
	again, err := s.reports.Build(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), report.Summary, again.Summary)
	assert.Len(s.T(), again.Recent, len(report.Recent))
}

func (s *EngineTestSuite) TestWorkbookDumpsAllThreeTables() {
	s.addExpense("Food", 1000, core.NewDate(2024, 3, 1))
	_, err := s.budgets.Set(s.ctx, core.Budget{
		UserID: s.user.ID, Category: "Food", Amount: core.Money{Cents: 1000}, Month: 3, Year: 2024,
	})
	require.NoError(s.T(), err)
	_, err = s.goals.Set(s.ctx, core.Goal{
		UserID: s.user.ID, Title: "Vacation",
		Target: core.Money{Cents: 1000}, Deadline: core.NewDate(2025, 6, 1),
	})
	require.NoError(s.T(), err)

	wb, err := s.reports.Workbook(s.ctx, s.user.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), wb.Sheets, 3)
	for _, sheet := range wb.Sheets {
		assert.Len(s.T(), sheet.Rows, 1, "sheet %s", sheet.Name)
	}
}

func (s *EngineTestSuite) TestOwnershipAcrossUsers() {
	bob, err := s.accounts.Register(s.ctx, "bob", "bob@example.com", "pw")
	require.NoError(s.T(), err)

	goalID, err := s.goals.Set(s.ctx, core.Goal{
		UserID: s.user.ID, Title: "Vacation",
		Target: core.Money{Cents: 1000}, Deadline: core.NewDate(2025, 6, 1),
	})
	require.NoError(s.T(), err)

	err = s.goals.Contribute(s.ctx, bob.ID, goalID, core.Money{Cents: 100})
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	err = s.goals.Delete(s.ctx, bob.ID, goalID)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}
