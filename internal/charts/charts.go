// Package charts renders report figures as PNG images.
package charts

import (
	"bytes"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"fintrack/internal/core"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// ExpensePie renders the expense split by category as a pie chart.
// Returns nil bytes when there is nothing to draw.
func (g *Generator) ExpensePie(byCategory []core.CategoryAmount) ([]byte, error) {
	var total int64
	for _, c := range byCategory {
		if c.Amount.Cents > 0 {
			total += c.Amount.Cents
		}
	}
	if total == 0 {
		return nil, nil
	}

	values := make([]chart.Value, 0, len(byCategory))
	for _, c := range byCategory {
		if c.Amount.Cents <= 0 {
			continue
		}
		share := float64(c.Amount.Cents) / float64(total) * 100
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", c.Name, c.Amount, share),
			Value: c.Amount.Units(),
		})
	}

	pie := chart.PieChart{
		Title:  "Expenses by category",
		Width:  800,
		Height: 800,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render expense pie: %w", err)
	}
	return buf.Bytes(), nil
}

// BalanceBars renders total income, total expenses and the balance as a bar
// chart. Returns nil bytes when the summary is empty.
func (g *Generator) BalanceBars(summary core.Summary) ([]byte, error) {
	if summary.TotalIncome.Cents == 0 && summary.TotalExpense.Cents == 0 {
		return nil, nil
	}

	bars := []chart.Value{
		{
			Label: fmt.Sprintf("Income: %s", summary.TotalIncome),
			Value: summary.TotalIncome.Units(),
			Style: chart.Style{
				StrokeColor: chart.ColorGreen,
				FillColor:   chart.ColorGreen,
			},
		},
		{
			Label: fmt.Sprintf("Expenses: %s", summary.TotalExpense),
			Value: summary.TotalExpense.Units(),
			Style: chart.Style{
				StrokeColor: chart.ColorRed,
				FillColor:   chart.ColorRed,
			},
		},
		{
			Label: fmt.Sprintf("Balance: %s", summary.Balance),
			Value: summary.Balance.Units(),
			Style: chart.Style{
				StrokeColor: chart.ColorBlue,
				FillColor:   chart.ColorBlue,
			},
		},
	}

	graph := chart.BarChart{
		Title:    "Income vs expenses",
		Width:    800,
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    50,
				Left:   50,
				Right:  50,
				Bottom: 50,
			},
			FillColor: chart.ColorWhite,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render balance bars: %w", err)
	}
	return buf.Bytes(), nil
}
