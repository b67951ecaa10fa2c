package model

import (
	"fmt"
	"strings"
	"time"
)

// OffboardLeg aggregates the outcome of one independent offboarding operation
type OffboardLeg struct {
	Name      string
	Succeeded int
	Failed    int
	Errors    []string
}

// Fail records one failed operation on the leg
func (l *OffboardLeg) Fail(err error) {
	l.Failed++
	if err != nil {
		l.Errors = append(l.Errors, err.Error())
	}
}

// OffboardReport aggregates partial failures across the offboarding fan-out.
// A failed leg never aborts its siblings; the report is what surfaces.
type OffboardReport struct {
	MemberEmail string
	Reason      string
	At          time.Time
	Legs        []*OffboardLeg
	// SkippedContacts lists contacts that could not be processed for benign
	// reasons (e.g. no usable phone number); not counted as failures.
	SkippedContacts []string
}

// AddLeg registers a new leg on the report and returns it for accumulation
func (r *OffboardReport) AddLeg(name string) *OffboardLeg {
	leg := &OffboardLeg{Name: name}
	r.Legs = append(r.Legs, leg)
	return leg
}

// HasFailures reports whether any leg recorded a failure
func (r *OffboardReport) HasFailures() bool {
	for _, leg := range r.Legs {
		if leg.Failed > 0 {
			return true
		}
	}
	return false
}

// Summary renders the human-readable thread reply describing the fan-out
func (r *OffboardReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Offboarding completed for %s (reason: %s)\n", r.MemberEmail, r.Reason)
	for _, leg := range r.Legs {
		fmt.Fprintf(&b, "• %s: %d ok, %d failed", leg.Name, leg.Succeeded, leg.Failed)
		if len(leg.Errors) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(leg.Errors, "; "))
		}
		b.WriteString("\n")
	}
	if len(r.SkippedContacts) > 0 {
		fmt.Fprintf(&b, "Skipped (no usable phone): %s\n", strings.Join(r.SkippedContacts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
