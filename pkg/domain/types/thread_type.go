package types

import "fmt"

// ThreadType identifies the purpose of a member conversation thread
type ThreadType string

const (
	// ThreadTypeMonthlyBounce tracks failed/recovered charges within one billing period
	ThreadTypeMonthlyBounce ThreadType = "monthly_bounce"
	// ThreadTypeCancel tracks a member cancellation, keyed by cancellation date
	ThreadTypeCancel ThreadType = "cancel"
	// ThreadTypeYearlyRenewal tracks annual renewal conversations
	ThreadTypeYearlyRenewal ThreadType = "yearly_renewal"
)

// AllThreadTypes returns all valid thread types
func AllThreadTypes() []ThreadType {
	return []ThreadType{
		ThreadTypeMonthlyBounce,
		ThreadTypeCancel,
		ThreadTypeYearlyRenewal,
	}
}

// IsValid checks if the thread type is valid
func (t ThreadType) IsValid() bool {
	switch t {
	case ThreadTypeMonthlyBounce, ThreadTypeCancel, ThreadTypeYearlyRenewal:
		return true
	default:
		return false
	}
}

// String returns the string representation of the thread type
func (t ThreadType) String() string {
	return string(t)
}

// ParseThreadType parses a string into a ThreadType
func ParseThreadType(s string) (ThreadType, error) {
	tt := ThreadType(s)
	if !tt.IsValid() {
		return "", fmt.Errorf("invalid thread type: %s", s)
	}
	return tt, nil
}
