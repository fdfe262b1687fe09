package models

// User is the authenticated platform identity attached to a request.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
