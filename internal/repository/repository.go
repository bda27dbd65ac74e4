// Package repository defines the storage interfaces the service layer
// programs against. Two backends implement them: repository/memory (the
// default, process-lifetime only) and repository/sqlite (optional, selected
// by DB_PATH).
//
// Each interface exposes ONLY the operations the domain needs — never raw
// collection access — so uniqueness and ownership invariants are enforced at
// one choke point per backend.
package repository

import (
	"context"

	"github.com/sameen/creature-forge/internal/model"
)

// UserRepository is the identity store: an append-only set of user records
// with sequential int64 ids starting at 1.
//
// Create must enforce case-insensitive email uniqueness and provider-id
// uniqueness atomically with the id assignment, returning
// apperror.ErrConflict on a duplicate. That makes concurrent find-or-create
// sequences in the service safe: the loser of a race gets a conflict and
// re-reads the winner's record.
//
// AttachProviderID is the single permitted mutation: linking a provider
// identity to an account that was first created via demo login (or matched
// by email). Users are never deleted.
type UserRepository interface {
	FindByProviderID(ctx context.Context, providerID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	AttachProviderID(ctx context.Context, userID int64, providerID string) error
}

// CreatureRepository is the ownership-scoped item store.
//
// Every read and delete takes the owner id: an id that exists but belongs to
// another user behaves exactly like one that does not exist
// (apperror.ErrNotFound) so callers cannot probe for foreign creatures.
// DeleteByOwner's read-then-remove must be atomic with respect to concurrent
// deletes of the same id.
// NOTE ON METHOD NAMES:
// One backend type implements all three interfaces, so method names must be
// distinct across them (Go has no overloading) — hence CreateCreature rather
// than a second Create.
type CreatureRepository interface {
	CreateCreature(ctx context.Context, creature *model.Creature) error
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Creature, error)
	GetByOwnerAndID(ctx context.Context, ownerID int64, id string) (*model.Creature, error)
	DeleteByOwner(ctx context.Context, ownerID int64, id string) error
}

// ShareRepository is the public share registry: shareID → snapshot.
// Records are written once and never updated or expired; Get requires no
// authentication context.
type ShareRepository interface {
	CreateShare(ctx context.Context, share *model.Share) error
	GetShare(ctx context.Context, shareID string) (*model.Share, error)
}
