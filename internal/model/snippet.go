// Package model defines the data structures shared by the client packages
// and the dev server. In Go, we use structs to represent our data — similar
// to classes in other languages, but without inheritance.
package model

import "time"

// Snippet represents a saved code snippet.
//
// The `json:"..."` tags mirror the API's wire format exactly, which is
// snake_case for entity fields. The client never renames or re-maps fields;
// what the server sends is what gets stored and displayed.
//
// ShareToken is issued by the server when the snippet is created. The client
// never invents one locally — a snippet without a token simply cannot be
// shared yet. Note that possession of the token is what grants read access;
// IsPublic is a separate flag and does not revoke an already-issued token.
type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Code        string    `json:"code"`
	IsPublic    bool      `json:"is_public"`
	ShareToken  string    `json:"share_token,omitempty"`
	Username    string    `json:"username,omitempty"` // owner; set on shared-view responses
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
