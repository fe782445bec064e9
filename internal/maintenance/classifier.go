// Package maintenance classifies how recently a vehicle was serviced.
package maintenance

import (
	"math"
	"time"
)

// Status is the tri-state maintenance classification
type Status string

const (
	StatusGood    Status = "good"
	StatusDue     Status = "due"
	StatusOverdue Status = "overdue"
)

// Day-count thresholds, strict greater-than on both: exactly 120 days since
// the last service is still "due". Fixed constants; the tenant's configurable
// reminder lead time affects when reminder notifications go out, not this
// classification.
const (
	DueAfterDays     = 90
	OverdueAfterDays = 120
)

// Result pairs the classification with the day count that produced it
type Result struct {
	Status    Status `json:"status"`
	DaysSince int    `json:"days_since"`
}

// Classify converts a last-service date into a maintenance status.
// daysSince is floor((now - lastService) / 24h); a last-service date in the
// future yields a negative count and classifies as good.
func Classify(lastService, now time.Time) Result {
	daysSince := int(math.Floor(now.Sub(lastService).Hours() / 24))

	status := StatusGood
	switch {
	case daysSince > OverdueAfterDays:
		status = StatusOverdue
	case daysSince > DueAfterDays:
		status = StatusDue
	}

	return Result{Status: status, DaysSince: daysSince}
}
