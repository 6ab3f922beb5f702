package pack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowStart(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		pkg  Package
		want time.Time
	}{
		{
			"three days",
			Package{TimeLimitType: WindowDay, TimeLimitValue: 3},
			time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC),
		},
		{
			"two weeks",
			Package{TimeLimitType: WindowWeek, TimeLimitValue: 2},
			time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			"one month",
			Package{TimeLimitType: WindowMonth, TimeLimitValue: 1},
			time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			"zero value defaults to one",
			Package{TimeLimitType: WindowDay, TimeLimitValue: 0},
			time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		},
		{
			"unknown type falls back to months",
			Package{TimeLimitType: "", TimeLimitValue: 2},
			time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pkg.WindowStart(now))
		})
	}
}
