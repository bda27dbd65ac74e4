// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Creature represents one generated creature in a user's collection.
//
// ImageURL is a derived URL pointing at the external image-generation
// endpoint — the image bytes are never fetched or stored by this backend.
// Fetching and rendering is the browser's job.
//
// Creatures are owned exclusively by the user who generated them: OwnerID is
// set once at creation and every read/delete is scoped to it. There is no
// update operation — a creature is created, listed, optionally shared, and
// deleted.
type Creature struct {
	ID        string    `json:"id"` // xid: time-ordered, collision-resistant
	OwnerID   int64     `json:"ownerId"`
	Prompt    string    `json:"prompt"`
	ImageURL  string    `json:"imageUrl"`
	Animals   []string  `json:"animals"`
	Abilities []string  `json:"abilities"`
	CreatedAt time.Time `json:"createdAt"`
}
