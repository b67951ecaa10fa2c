package model

import "time"

// Cancellation is one recorded member cancellation for back-office reporting.
// Rows are de-duplicated by MemberThreadID so repeated cancellation
// notifications never create duplicates.
type Cancellation struct {
	ID             string    `firestore:"id" json:"id"`
	MemberThreadID string    `firestore:"member_thread_id" json:"member_thread_id"`
	MemberEmail    string    `firestore:"member_email" json:"member_email"`
	Reason         string    `firestore:"reason" json:"reason"`
	CanceledAt     time.Time `firestore:"canceled_at" json:"canceled_at"`
	CreatedAt      time.Time `firestore:"created_at" json:"created_at"`
}
