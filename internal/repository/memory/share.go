package memory

import (
	"context"

	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/model"
)

// CreateShare stores a share snapshot under its ShareID. The id and SharedAt are
// minted by the service; the store's only job is to keep the snapshot
// immutable and resolvable forever (no expiry, no revocation).
func (s *Store) CreateShare(_ context.Context, share *model.Share) error {
	s.sharesMu.Lock()
	defer s.sharesMu.Unlock()

	if _, exists := s.shares[share.ShareID]; exists {
		// xid's random component makes this practically unreachable
		return apperror.Conflict("share", share.ShareID)
	}

	stored := *share
	stored.Creature = cloneCreature(share.Creature)
	s.shares[share.ShareID] = stored
	return nil
}

// GetShare resolves a share id. No authentication context is required — shares
// are public by construction.
func (s *Store) GetShare(_ context.Context, shareID string) (*model.Share, error) {
	s.sharesMu.Lock()
	defer s.sharesMu.Unlock()

	stored, ok := s.shares[shareID]
	if !ok {
		return nil, apperror.NotFound("share", shareID)
	}
	out := stored
	out.Creature = cloneCreature(stored.Creature)
	return &out, nil
}
