package domain

// Identity is who the current session belongs to. Email is nil for the
// master-password identity, which carries admin rights instead.
type Identity struct {
	Email   *string `json:"email,omitempty"`
	IsAdmin bool    `json:"is_admin"`
}

// RequestStatus is the review state of a permission request. A request
// moves from pending to approved or rejected exactly once.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// PermissionRequest is an access petition awaiting admin review.
type PermissionRequest struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	Reason          string        `json:"reason"`
	Timestamp       string        `json:"timestamp"`
	Status          RequestStatus `json:"status"`
	ReviewedAt      *string       `json:"reviewed_at,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
}

// User is a provisioned account. The service never returns password
// material, only the address.
type User struct {
	Email string `json:"email"`
}
