package charts

import (
	"bytes"
	"testing"

	"fintrack/internal/core"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestExpensePie(t *testing.T) {
	g := NewGenerator()

	png, err := g.ExpensePie([]core.CategoryAmount{
		{Name: "Food", Amount: core.Money{Cents: 30000}},
		{Name: "Transport", Amount: core.Money{Cents: 12050}},
	})
	if err != nil {
		t.Fatalf("ExpensePie: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("expected PNG output, got %d bytes", len(png))
	}
}

func TestExpensePieNoData(t *testing.T) {
	g := NewGenerator()

	png, err := g.ExpensePie(nil)
	if err != nil {
		t.Fatalf("ExpensePie: %v", err)
	}
	if png != nil {
		t.Fatalf("expected nil image for empty input, got %d bytes", len(png))
	}
}

func TestBalanceBars(t *testing.T) {
	g := NewGenerator()

	summary := core.NewSummary(core.Money{Cents: 500000}, core.Money{Cents: 320000})
	png, err := g.BalanceBars(summary)
	if err != nil {
		t.Fatalf("BalanceBars: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatalf("expected PNG output, got %d bytes", len(png))
	}
}

func TestBalanceBarsNoData(t *testing.T) {
	g := NewGenerator()

	png, err := g.BalanceBars(core.Summary{})
	if err != nil {
		t.Fatalf("BalanceBars: %v", err)
	}
	if png != nil {
		t.Fatalf("expected nil image for empty summary, got %d bytes", len(png))
	}
}
