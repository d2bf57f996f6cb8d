package model

import "time"

// Invitation statuses. Acceptance and decline transitions are performed by
// the backend when the invited account responds; the SDK only creates,
// re-addresses and revokes invitations.
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// Invitation is a pending grant of membership in an organization.
type Invitation struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// InviteDetails is the payload for creating an invitation.
type InviteDetails struct {
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
}

// InviteUpdate is the payload for re-addressing an invitation. Status is
// deliberately absent: no SDK operation transitions an invitation's status.
type InviteUpdate struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
