package model

import "time"

// MemberAccount is the account snapshot joined onto a membership row.
// Only the columns the member list needs are selected.
type MemberAccount struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Image *Image `json:"image,omitempty"`
}

// Member represents the association between an account and an organization.
// It is created by accepting an invitation or by direct admin action.
type Member struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	Role           string         `json:"role"`
	JobTitle       string         `json:"job_title,omitempty"`
	Account        *MemberAccount `json:"account,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
