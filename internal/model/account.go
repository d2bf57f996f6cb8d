package model

import "time"

// Image is a reference to an object in a private storage bucket.
// Rendering it requires a signed URL issued by the storage endpoint.
type Image struct {
	Path   string `json:"path"`
	Bucket string `json:"bucket"`
}

// Account represents the identity of a signed-in principal. It is owned by
// the authentication subsystem; the SDK only ever holds read-only snapshots
// of it, refreshed from the session token.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     *Image    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
