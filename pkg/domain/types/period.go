package types

import (
	"regexp"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// PeriodKey is a coarse calendar bucket used to scope attempt counting and
// thread selection for recurring charges. Monthly periods are "YYYY-MM";
// cancel threads use daily keys "YYYY-MM-DD".
type PeriodKey string

var periodKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}(-\d{2})?$`)

// MonthlyPeriodKey returns the billing period bucket for the given time in UTC
func MonthlyPeriodKey(t time.Time) PeriodKey {
	return PeriodKey(t.UTC().Format("2006-01"))
}

// DailyPeriodKey returns a per-day bucket, used for cancellation threads
func DailyPeriodKey(t time.Time) PeriodKey {
	return PeriodKey(t.UTC().Format("2006-01-02"))
}

// Validate checks that the key is a well-formed calendar bucket
func (p PeriodKey) Validate() error {
	if !periodKeyPattern.MatchString(string(p)) {
		return goerr.New("invalid period key", goerr.V("period_key", string(p)))
	}
	return nil
}

// String returns the string representation of the period key
func (p PeriodKey) String() string {
	return string(p)
}
