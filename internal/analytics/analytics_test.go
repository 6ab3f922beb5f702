package analytics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeBounds(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		since time.Time
	}{
		{"week", now.AddDate(0, 0, -7)},
		{"month", now.AddDate(0, -1, 0)},
		{"quarter", now.AddDate(0, -3, 0)},
		{"year", now.AddDate(-1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			since, until, err := RangeBounds(tt.name, now)
			require.NoError(t, err)
			assert.Equal(t, tt.since, since)
			assert.Equal(t, now, until)
		})
	}

	// Empty defaults to month.
	since, _, err := RangeBounds("", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, -1, 0), since)

	_, _, err = RangeBounds("decade", now)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestWriteCSV(t *testing.T) {
	d := Dashboard{
		Since: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Until: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Statuses: []StatusShare{
			{Status: "F0", Count: 3, Percent: 75},
			{Status: "F1", Count: 1, Percent: 25},
		},
		Orders: OrderSummary{Count: 2, TotalAmount: 500000, AverageAmount: 250000},
		Locations: []LocationUtilization{
			{Name: "Bệnh viện dã chiến số 1", Capacity: 100, CurrentCount: 40, Percent: 40},
		},
		Payments: PaymentSummary{Deposits: 900000, Payments: 500000},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, d))

	out := buf.String()
	assert.Contains(t, out, "2026-05-01")
	assert.Contains(t, out, "F0,3,75.0")
	assert.Contains(t, out, "500000,250000")
	assert.Contains(t, out, "Bệnh viện dã chiến số 1,100,40,40.0")
	assert.Contains(t, out, "900000,500000")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Greater(t, len(lines), 8)
}
