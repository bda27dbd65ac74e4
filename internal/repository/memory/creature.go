package memory

import (
	"context"
	"slices"
	"time"

	"github.com/rs/xid"
	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/model"
)

// cloneCreature deep-copies a creature so stored state and handed-out values
// never share the Animals/Abilities backing arrays.
func cloneCreature(c model.Creature) model.Creature {
	c.Animals = slices.Clone(c.Animals)
	c.Abilities = slices.Clone(c.Abilities)
	return c
}

// CreateCreature appends a creature, assigning a fresh xid and stamping CreatedAt.
// xids are time-ordered with a random component, so ids are unique and
// insertion order matches id order.
func (s *Store) CreateCreature(_ context.Context, creature *model.Creature) error {
	s.creaturesMu.Lock()
	defer s.creaturesMu.Unlock()

	creature.ID = xid.New().String()
	creature.CreatedAt = time.Now()
	s.creatures = append(s.creatures, cloneCreature(*creature))
	return nil
}

// ListByOwner returns the creatures owned by ownerID, in insertion order.
// Always returns a non-nil slice so the handler serializes [] rather than
// null when the collection is empty.
func (s *Store) ListByOwner(_ context.Context, ownerID int64) ([]model.Creature, error) {
	s.creaturesMu.Lock()
	defer s.creaturesMu.Unlock()

	result := []model.Creature{}
	for _, c := range s.creatures {
		if c.OwnerID == ownerID {
			result = append(result, cloneCreature(c))
		}
	}
	return result, nil
}

// GetByOwnerAndID returns the creature with the given id IF it is owned by
// ownerID. A foreign owner and a missing id are the same ErrNotFound — the
// caller must not be able to tell whether somebody else's creature exists.
func (s *Store) GetByOwnerAndID(_ context.Context, ownerID int64, id string) (*model.Creature, error) {
	s.creaturesMu.Lock()
	defer s.creaturesMu.Unlock()

	for _, c := range s.creatures {
		if c.ID == id && c.OwnerID == ownerID {
			out := cloneCreature(c)
			return &out, nil
		}
	}
	return nil, apperror.NotFound("creature", id)
}

// DeleteByOwner removes the creature matching BOTH predicates. The find and
// the remove happen under one lock acquisition, so two concurrent deletes of
// the same id cannot both succeed.
func (s *Store) DeleteByOwner(_ context.Context, ownerID int64, id string) error {
	s.creaturesMu.Lock()
	defer s.creaturesMu.Unlock()

	for i, c := range s.creatures {
		if c.ID == id && c.OwnerID == ownerID {
			s.creatures = slices.Delete(s.creatures, i, i+1)
			return nil
		}
	}
	return apperror.NotFound("creature", id)
}
