package profile

import "time"

// Record is the per-user profile document, keyed by the identity uid.
type Record struct {
	Username     string
	Email        string
	Phone        string
	DOB          string
	ReferralCode string
	Role         string
	CreatedAt    time.Time
}

// Status classifies profile completeness. It is derived, never stored.
type Status string

const (
	StatusUnknown    Status = "unknown"
	StatusChecking   Status = "checking"
	StatusComplete   Status = "complete"
	StatusIncomplete Status = "incomplete"
	StatusError      Status = "error"
)

// RoleUser is the role assigned to every self-registered account.
const RoleUser = "user"
