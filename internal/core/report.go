package core

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"

	// AlertThreshold is the utilization percentage past which a budget
	// starts raising alerts; CriticalThreshold marks the budget as blown.
	AlertThreshold    = 80.0
	CriticalThreshold = 100.0
)

type (
	AlertSeverity string

	// CategoryAmount is an amount aggregated under one category name.
	CategoryAmount struct {
		Name   string
		Amount Money
	}

	// Summary holds the headline totals of a ledger slice. Balance is
	// income minus expense and may be negative.
	Summary struct {
		TotalIncome  Money
		TotalExpense Money
		Balance      Money
	}

	// BudgetAlert reports utilization of one monthly category budget.
	BudgetAlert struct {
		Category   string
		Budget     Money
		Spent      Money
		Percentage float64
		Severity   AlertSeverity
	}

	// GoalStatus pairs a goal with its computed progress percentage.
	GoalStatus struct {
		Goal     Goal
		Progress float64
	}

	// Report is the single aggregation fed to every renderer. Both the PDF
	// document and the spreadsheet export read from the same instance, so
	// identical inputs always yield identical figures.
	Report struct {
		Summary Summary
		Recent  []Transaction
		Alerts  []BudgetAlert
		Goals   []GoalStatus
	}
)

// NewSummary derives the balance from the two totals.
func NewSummary(income, expense Money) Summary {
	return Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      Money{Cents: income.Cents - expense.Cents},
	}
}

// Utilization returns spent as a percentage of the budget limit.
// A non-positive limit yields 0, mirroring how the totals are rendered.
func Utilization(limit, spent Money) float64 {
	if limit.Cents <= 0 {
		return 0
	}
	return float64(spent.Cents) / float64(limit.Cents) * 100
}

// EvaluateAlert returns the alert raised by a budget's spending, if any.
// No alert is emitted below AlertThreshold.
func EvaluateAlert(category string, limit, spent Money) (BudgetAlert, bool) {
	pct := Utilization(limit, spent)
	if pct < AlertThreshold {
		return BudgetAlert{}, false
	}
	severity := SeverityWarning
	if pct >= CriticalThreshold {
		severity = SeverityCritical
	}
	return BudgetAlert{
		Category:   category,
		Budget:     limit,
		Spent:      spent,
		Percentage: pct,
		Severity:   severity,
	}, true
}
