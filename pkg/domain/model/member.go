package model

// Contact is a minimal person record used for roster and group operations
type Contact struct {
	Name  string
	Email string
	Phone string
}

// MemberContext is the flat view of a member gathered from external lookups.
// It is resolved fresh on each escalation, never persisted by this core.
type MemberContext struct {
	Name  string
	Email string
	Phone string

	TeamMembers []Contact
	Partners    []Contact
}

// Merge fills empty fields from a lower-priority partial result. Resolution
// order is a contract: callers merge in resolver priority order, so the first
// non-empty value per field wins.
func (m *MemberContext) Merge(partial *MemberContext) {
	if partial == nil {
		return
	}
	if m.Name == "" {
		m.Name = partial.Name
	}
	if m.Email == "" {
		m.Email = NormalizeEmail(partial.Email)
	}
	if m.Phone == "" {
		m.Phone = partial.Phone
	}
	if len(m.TeamMembers) == 0 {
		m.TeamMembers = partial.TeamMembers
	}
	if len(m.Partners) == 0 {
		m.Partners = partial.Partners
	}
}
