// Package export builds the export-ready structures consumed by the
// renderers: a multi-sheet workbook for spreadsheet output and a document
// for the PDF renderer. Figures are taken verbatim from the report and the
// store rows; nothing is recomputed here.
package export

import (
	"strconv"

	"fintrack/internal/core"
)

// Sheet names of the standard workbook.
const (
	SheetTransactions = "Transactions"
	SheetBudgets      = "Budgets"
	SheetGoals        = "Goals"
)

type (
	// Sheet is one named tab: a header row plus flat data rows.
	Sheet struct {
		Name   string
		Header []string
		Rows   [][]string
	}

	// Workbook is the three-sheet per-user dump fed to every spreadsheet
	// renderer (Google Sheets, local archive).
	Workbook struct {
		Sheets []Sheet
	}
)

// NewWorkbook assembles the standard three sheets from store rows.
func NewWorkbook(txs []core.Transaction, budgets []core.Budget, goals []core.Goal) Workbook {
	return Workbook{Sheets: []Sheet{
		TransactionsSheet(txs),
		BudgetsSheet(budgets),
		GoalsSheet(goals),
	}}
}

func TransactionsSheet(txs []core.Transaction) Sheet {
	s := Sheet{
		Name:   SheetTransactions,
		Header: []string{"Type", "Category", "Amount", "Description", "Date"},
	}
	for _, t := range txs {
		s.Rows = append(s.Rows, []string{
			string(t.Type), t.Category, t.Amount.String(), t.Description, t.Date.String(),
		})
	}
	return s
}

func BudgetsSheet(budgets []core.Budget) Sheet {
	s := Sheet{
		Name:   SheetBudgets,
		Header: []string{"Category", "Amount", "Month", "Year"},
	}
	for _, b := range budgets {
		s.Rows = append(s.Rows, []string{
			b.Category, b.Amount.String(), strconv.Itoa(b.Month), strconv.Itoa(b.Year),
		})
	}
	return s
}

func GoalsSheet(goals []core.Goal) Sheet {
	s := Sheet{
		Name:   SheetGoals,
		Header: []string{"Title", "Target", "Current", "Deadline"},
	}
	for _, g := range goals {
		s.Rows = append(s.Rows, []string{
			g.Title, g.Target.String(), g.Current.String(), g.Deadline.String(),
		})
	}
	return s
}
