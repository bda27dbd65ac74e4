// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// Accounts are created on first login — either through the Google OAuth flow
// or through the demo username login. They are never deleted, and the only
// permitted mutation is attaching a ProviderID when an account that was
// created via demo login (or matched by email) later authenticates through
// Google.
//
// WHY ID int64 (not a string xid)?
// User ids are assigned sequentially starting at 1, and the sequence itself
// is part of the contract: the identity store owns the counter and two
// concurrent first-logins must never mint the same id. A monotonically
// increasing integer makes that invariant cheap to enforce in both the
// in-memory store (a counter under the store mutex) and SQLite
// (INTEGER PRIMARY KEY AUTOINCREMENT).
//
// WHY ProviderID string (not *string)?
// Demo accounts have no provider identity. We use the empty string as the
// zero value rather than a nullable pointer — simpler to work with, and the
// JSON tag omits it when empty.
type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`                // unique, compared case-insensitively
	Username   string    `json:"username"`             // display name, not unique
	ProviderID string    `json:"providerId,omitempty"` // Google's subject id (empty for demo accounts)
	CreatedAt  time.Time `json:"createdAt"`
}
