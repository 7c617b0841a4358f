package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAppendOrdering(t *testing.T) {
	table := NewTable()
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, table.Append(d1, Row{"AAPL_Close": 180}))
	require.NoError(t, table.Append(d2, Row{"AAPL_Close": 181}))

	assert.Error(t, table.Append(d2, Row{}), "duplicate date rejected")
	assert.Error(t, table.Append(d1, Row{}), "out of order date rejected")
	assert.Equal(t, 2, table.Len())
}

func TestTableNormalizesDates(t *testing.T) {
	table := NewTable()
	loc := time.FixedZone("CST", 8*3600)
	noon := time.Date(2024, 1, 2, 12, 30, 0, 0, loc)

	require.NoError(t, table.Append(noon, Row{"AAPL_Close": 180}))

	// Lookup by any timestamp on the same UTC day.
	row, ok := table.Row(time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC))
	require.True(t, ok)
	close, ok := row.Close("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 180.0, close, 1e-9)
}

func TestTableLatest(t *testing.T) {
	table := NewTable()

	_, _, ok := table.Latest()
	assert.False(t, ok)

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, table.Append(d1, Row{"AAPL_Close": 180}))
	require.NoError(t, table.Append(d2, Row{"AAPL_Close": 181}))

	date, row, ok := table.Latest()
	require.True(t, ok)
	assert.Equal(t, d2, date)
	close, ok := row.Close("AAPL")
	require.True(t, ok)
	assert.InDelta(t, 181.0, close, 1e-9)
}

func TestRowValueTreatsNaNAsAbsent(t *testing.T) {
	row := Row{
		"AAPL_Close":  180.0,
		"AAPL_Sharpe": math.NaN(),
	}

	_, ok := row.Value("AAPL_Close")
	assert.True(t, ok)

	_, ok = row.Value("AAPL_Sharpe")
	assert.False(t, ok, "NaN reads as absent")

	_, ok = row.Value("MSFT_Close")
	assert.False(t, ok, "missing key reads as absent")
}
