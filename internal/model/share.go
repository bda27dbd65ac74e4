package model

import "time"

// Share is a public snapshot of a creature, minted when its owner shares it.
//
// It embeds the creature's fields BY VALUE: the snapshot is copied at share
// time and is fully decoupled from the source creature's lifecycle. Deleting
// or (hypothetically) editing the original afterwards must not change what a
// share link shows — that decoupling is deliberate, not an oversight.
//
// The embedded Creature flattens into the JSON output, so a share resolves to
// the same shape as a creature plus shareId and sharedAt.
type Share struct {
	ShareID string `json:"shareId"`
	Creature
	SharedAt time.Time `json:"sharedAt"`
}
