package market

import (
	"fmt"
	"time"
)

// Table is a date-indexed feature table: one Row per trading day, in
// ascending date order with no duplicates. The table is read-only during
// backtesting and safe to share across concurrent trader runs.
type Table struct {
	dates []time.Time
	rows  map[time.Time]Row
}

// NewTable creates an empty feature table.
func NewTable() *Table {
	return &Table{
		rows: make(map[time.Time]Row),
	}
}

// normalizeDate truncates a timestamp to UTC midnight so that rows built
// from different sources index identically.
func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Append adds a row for a date. Dates must arrive in strictly ascending
// order; the provider is responsible for deduplication before handoff.
func (t *Table) Append(date time.Time, row Row) error {
	date = normalizeDate(date)
	if len(t.dates) > 0 && !date.After(t.dates[len(t.dates)-1]) {
		return fmt.Errorf("row for %s is not after last date %s",
			date.Format("2006-01-02"), t.dates[len(t.dates)-1].Format("2006-01-02"))
	}
	t.dates = append(t.dates, date)
	t.rows[date] = row
	return nil
}

// Len returns the number of trading days in the table.
func (t *Table) Len() int {
	return len(t.dates)
}

// Dates returns the ascending date index. Callers must not mutate it.
func (t *Table) Dates() []time.Time {
	return t.dates
}

// Row returns the feature row for a date.
func (t *Table) Row(date time.Time) (Row, bool) {
	row, ok := t.rows[normalizeDate(date)]
	return row, ok
}

// Latest returns the most recent date and its row.
func (t *Table) Latest() (time.Time, Row, bool) {
	if len(t.dates) == 0 {
		return time.Time{}, nil, false
	}
	date := t.dates[len(t.dates)-1]
	return date, t.rows[date], true
}
