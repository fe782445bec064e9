package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		daysAgo  int
		want     Status
		wantDays int
	}{
		{"serviced recently", 30, StatusGood, 30},
		{"at due threshold", 90, StatusGood, 90},
		{"just past due threshold", 91, StatusDue, 91},
		{"inside due window", 100, StatusDue, 100},
		{"at overdue threshold", 120, StatusDue, 120},
		{"just past overdue threshold", 121, StatusOverdue, 121},
		{"long overdue", 365, StatusOverdue, 365},
		{"serviced today", 0, StatusGood, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.AddDate(0, 0, -tt.daysAgo)
			got := Classify(last, now)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.wantDays, got.DaysSince)
		})
	}
}

func TestClassifyPartialDaysFloor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// 91 days minus one hour is still 90 whole days
	last := now.Add(-(91*24 - 1) * time.Hour)
	got := Classify(last, now)
	assert.Equal(t, 90, got.DaysSince)
	assert.Equal(t, StatusGood, got.Status)
}

func TestClassifyFutureDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// future last-service dates give a negative count and classify good
	got := Classify(now.AddDate(0, 0, 10), now)
	assert.Negative(t, got.DaysSince)
	assert.Equal(t, StatusGood, got.Status)
}
