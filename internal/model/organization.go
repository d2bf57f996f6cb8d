package model

import "time"

// Organization represents a tenant/workspace row as returned by the backend.
// Slug uniqueness is enforced by the backend, not here.
type Organization struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Website     *string   `json:"website"`
	Image       *Image    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
