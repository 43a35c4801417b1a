package export

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Document is the PDF renderer's input: title and tables already formatted
// as strings. It is built only from a core.Report, so the PDF and the
// spreadsheet export of the same report always carry identical figures.
type Document struct {
	Title       string
	Username    string
	GeneratedAt time.Time

	SummaryHeader []string
	SummaryRows   [][]string

	TransactionsHeader []string
	TransactionsRows   [][]string

	GoalsHeader []string
	GoalsRows   [][]string

	AlertLines []string
}

// NewDocument formats a report for rendering.
func NewDocument(username string, report core.Report, now time.Time) Document {
	doc := Document{
		Title:       "Personal Finance Report",
		Username:    username,
		GeneratedAt: now,

		SummaryHeader: []string{"", "Amount"},
		SummaryRows: [][]string{
			{"Income", report.Summary.TotalIncome.String()},
			{"Expenses", report.Summary.TotalExpense.String()},
			{"Balance", report.Summary.Balance.String()},
		},

		TransactionsHeader: []string{"Type", "Category", "Amount", "Description", "Date"},
		GoalsHeader:        []string{"Title", "Target", "Current", "Progress", "Deadline"},
	}

	for _, t := range report.Recent {
		doc.TransactionsRows = append(doc.TransactionsRows, []string{
			string(t.Type), t.Category, t.Amount.String(), t.Description, t.Date.String(),
		})
	}

	for _, gs := range report.Goals {
		doc.GoalsRows = append(doc.GoalsRows, []string{
			gs.Goal.Title,
			gs.Goal.Target.String(),
			gs.Goal.Current.String(),
			fmt.Sprintf("%.1f%%", gs.Progress),
			gs.Goal.Deadline.String(),
		})
	}

	for _, a := range report.Alerts {
		doc.AlertLines = append(doc.AlertLines, fmt.Sprintf(
			"%s: %s - %.1f%% of budget used (%s / %s)",
			a.Severity, a.Category, a.Percentage, a.Spent.String(), a.Budget.String(),
		))
	}

	return doc
}
