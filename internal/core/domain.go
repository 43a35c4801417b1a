package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// GoalCategory and GoalNote tag the expense row mirrored by a goal
// contribution so it stays distinguishable from manual entries.
const (
	GoalCategory = "Financial Goal"
	GoalNote     = "Goal contribution"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Transaction struct {
		ID          int64
		UserID      int64
		Type        TransactionType
		Category    string
		Amount      Money
		Description string // optional
		Date        Date
	}

	Budget struct {
		ID       int64
		UserID   int64
		Category string
		Amount   Money
		Month    int // 1-12
		Year     int
	}

	Goal struct {
		ID       int64
		UserID   int64
		Title    string
		Target   Money
		Current  Money
		Deadline Date
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidYear        = errors.New("invalid year")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyTitle         = errors.New("empty title")
	ErrInvalidDeadline    = errors.New("invalid deadline")
	ErrNotFound           = errors.New("not found")
	ErrDuplicate          = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SuggestedCategories is the default taxonomy offered for new transactions.
// It is advisory only; the store accepts any non-empty category string.
var SuggestedCategories = []string{
	"Food", "Transport", "Housing", "Health", "Education",
	"Leisure", "Salary", "Freelance", "Investments", "Other",
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewDate creates a calendar date in UTC with no time component.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in UTC.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String renders the date as YYYY-MM-DD, the storage and export format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return t.Date.Validate()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 2000 || b.Year > 2100 {
		return ErrInvalidYear
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.Deadline.IsZero() {
		return ErrInvalidDeadline
	}
	return nil
}

// Progress returns the completion percentage of the goal. The value is not
// clamped: a goal funded past its target reports more than 100.
func (g Goal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	return float64(g.Current.Cents) / float64(g.Target.Cents) * 100
}
