package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/storage"
)

// RecentTransactionCount is how many latest entries a report includes.
const RecentTransactionCount = 10

// ReportService aggregates ledger, budget and goal state into the report
// structure fed to every renderer. It only reads.
type ReportService struct {
	storage *storage.Repository
	budgets *BudgetService

	// now is swappable for tests; the current month's alerts depend on it.
	now func() time.Time
}

func NewReportService(storage *storage.Repository, budgets *BudgetService) *ReportService {
	return &ReportService{
		storage: storage,
		budgets: budgets,
		now:     time.Now,
	}
}

// Summary returns the headline totals over an optional date range.
func (s *ReportService) Summary(ctx context.Context, userID int64, dr core.DateRange) (core.Summary, error) {
	income, err := s.storage.SumByType(ctx, userID, core.Income, dr)
	if err != nil {
		return core.Summary{}, err
	}
	expense, err := s.storage.SumByType(ctx, userID, core.Expense, dr)
	if err != nil {
		return core.Summary{}, err
	}
	return core.NewSummary(income, expense), nil
}

// Build assembles the full report: all-time summary, the ten most recent
// transactions, budget alerts for the current month and goal progress.
// The sections are independent reads and are fetched concurrently.
func (s *ReportService) Build(ctx context.Context, userID int64) (core.Report, error) {
	var report core.Report

	now := s.now()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.Summary(ctx, userID, core.DateRange{})
		if err != nil {
			return err
		}
		report.Summary = summary
		return nil
	})

	g.Go(func() error {
		recent, err := s.storage.RecentTransactions(ctx, userID, RecentTransactionCount)
		if err != nil {
			return err
		}
		report.Recent = recent
		return nil
	})

	g.Go(func() error {
		alerts, err := s.budgets.Alerts(ctx, userID, int(now.Month()), now.Year())
		if err != nil {
			return err
		}
		report.Alerts = alerts
		return nil
	})

	g.Go(func() error {
		goals, err := s.storage.ListGoals(ctx, userID)
		if err != nil {
			return err
		}
		statuses := make([]core.GoalStatus, len(goals))
		for i, goal := range goals {
			statuses[i] = core.GoalStatus{Goal: goal, Progress: goal.Progress()}
		}
		report.Goals = statuses
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.Report{}, err
	}
	return report, nil
}

// Workbook builds the three-sheet flat dump of the user's data for the
// spreadsheet renderers and the cloud sync artifact.
func (s *ReportService) Workbook(ctx context.Context, userID int64) (export.Workbook, error) {
	txs, err := s.storage.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return export.Workbook{}, err
	}
	budgets, err := s.storage.ListAllBudgets(ctx, userID)
	if err != nil {
		return export.Workbook{}, err
	}
	goals, err := s.storage.ListGoals(ctx, userID)
	if err != nil {
		return export.Workbook{}, err
	}
	return export.NewWorkbook(txs, budgets, goals), nil
}

// Document formats the report for the PDF renderer.
func (s *ReportService) Document(ctx context.Context, user core.User) (export.Document, error) {
	report, err := s.Build(ctx, user.ID)
	if err != nil {
		return export.Document{}, err
	}
	return export.NewDocument(user.Username, report, s.now()), nil
}
