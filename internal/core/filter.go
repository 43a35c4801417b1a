package core

// Filter restricts a transaction listing. Zero values mean "no restriction":
// an empty Type matches both kinds, an empty Category matches every category
// and zero dates leave the corresponding bound open. Date bounds are
// inclusive on both ends.
type Filter struct {
	Type     TransactionType
	Category string
	From     Date
	To       Date
}

// DateRange is an optional inclusive calendar interval used by the
// aggregation queries. The zero value spans everything.
type DateRange struct {
	From Date
	To   Date
}

// Range returns the filter's date bounds as a DateRange.
func (f Filter) Range() DateRange {
	return DateRange{From: f.From, To: f.To}
}

// MonthRange returns the inclusive [first day, last day] window of a
// calendar month. Month-end is derived by calendar arithmetic, so December
// ends on Dec 31 and February follows the leap-year rule.
func MonthRange(year, month int) DateRange {
	first := NewDate(year, month, 1)
	last := Date{Time: first.AddDate(0, 1, -1)}
	return DateRange{From: first, To: last}
}
