// Package model defines the data structures shared by the client packages
// and the dev server.
package model

import "time"

// User represents a registered account as the API returns it.
//
// WHY Email string (not *string)?
// The profile endpoint always returns an email for a registered account, and
// an empty string is a perfectly safe zero value to display. Pointers would
// only add nil checks everywhere.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
