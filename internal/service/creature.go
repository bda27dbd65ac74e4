package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/imagegen"
	"github.com/sameen/creature-forge/internal/model"
	"github.com/sameen/creature-forge/internal/repository"
)

// Validation constants.
const (
	MaxPromptLength = 500
	MaxTraits       = 5 // cap on animals and on abilities, each
)

// CreatureService handles generation, collection management, and sharing.
//
// "Generation" here means URL construction only: the service composes the
// prompt into an image URL via imagegen and persists the record. The
// external endpoint is never contacted — rendering is the browser's job.
type CreatureService struct {
	creatures repository.CreatureRepository
	shares    repository.ShareRepository
	urls      *imagegen.Builder
	logger    *slog.Logger
}

// NewCreatureService creates a CreatureService.
func NewCreatureService(
	creatures repository.CreatureRepository,
	shares repository.ShareRepository,
	urls *imagegen.Builder,
	logger *slog.Logger,
) *CreatureService {
	return &CreatureService{
		creatures: creatures,
		shares:    shares,
		urls:      urls,
		logger:    logger,
	}
}

// Generate validates the input, builds the image URL, and persists the new
// creature under ownerID.
//
// Two calls with an identical prompt produce different URLs: the builder
// attaches a randomized seed, so each generation is a distinct image.
func (s *CreatureService) Generate(ctx context.Context, ownerID int64, prompt string, animals, abilities []string) (*model.Creature, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperror.ValidationFailed("prompt", "prompt is required")
	}
	if len(prompt) > MaxPromptLength {
		return nil, apperror.ValidationFailed("prompt",
			fmt.Sprintf("prompt must be %d characters or less", MaxPromptLength))
	}
	if len(animals) > MaxTraits {
		return nil, apperror.ValidationFailed("animals",
			fmt.Sprintf("at most %d animals allowed", MaxTraits))
	}
	if len(abilities) > MaxTraits {
		return nil, apperror.ValidationFailed("abilities",
			fmt.Sprintf("at most %d abilities allowed", MaxTraits))
	}
	if animals == nil {
		animals = []string{}
	}
	if abilities == nil {
		abilities = []string{}
	}

	creature := &model.Creature{
		OwnerID:   ownerID,
		Prompt:    prompt,
		ImageURL:  s.urls.ImageURL(prompt, animals, abilities),
		Animals:   animals,
		Abilities: abilities,
	}

	if err := s.creatures.CreateCreature(ctx, creature); err != nil {
		s.logger.Error("failed to create creature",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating creature: %w", err)
	}

	s.logger.Info("creature generated",
		slog.String("id", creature.ID),
		slog.Int64("ownerID", ownerID),
	)

	return creature, nil
}

// ListByOwner returns the caller's collection in creation order.
func (s *CreatureService) ListByOwner(ctx context.Context, ownerID int64) ([]model.Creature, error) {
	creatures, err := s.creatures.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list creatures",
			slog.Int64("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing creatures: %w", err)
	}
	return creatures, nil
}

// Delete removes the creature only if it exists AND belongs to ownerID.
// Both failure modes come back as the same not-found — a caller probing a
// foreign id learns nothing about whether it exists.
func (s *CreatureService) Delete(ctx context.Context, ownerID int64, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "creature ID is required")
	}

	if err := s.creatures.DeleteByOwner(ctx, ownerID, id); err != nil {
		return err
	}

	s.logger.Info("creature deleted",
		slog.String("id", id),
		slog.Int64("ownerID", ownerID),
	)
	return nil
}

// Share snapshots one of the caller's creatures into the public registry and
// returns the stored snapshot, share id included.
//
// The snapshot is a copy taken NOW: deleting the source creature afterwards
// does not invalidate the share. That decoupling is the point of sharing by
// value — a shared link keeps showing what was shared.
func (s *CreatureService) Share(ctx context.Context, ownerID int64, creatureID string) (*model.Share, error) {
	creatureID = strings.TrimSpace(creatureID)
	if creatureID == "" {
		return nil, apperror.ValidationFailed("creatureId", "creature ID is required")
	}

	// Ownership-scoped lookup: sharing somebody else's creature fails with
	// the same not-found as a missing id.
	creature, err := s.creatures.GetByOwnerAndID(ctx, ownerID, creatureID)
	if err != nil {
		return nil, err
	}

	share := &model.Share{
		ShareID:  newShareID(),
		Creature: *creature,
		SharedAt: time.Now(),
	}

	if err := s.shares.CreateShare(ctx, share); err != nil {
		s.logger.Error("failed to store share",
			slog.String("creatureID", creatureID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("storing share: %w", err)
	}

	s.logger.Info("creature shared",
		slog.String("creatureID", creatureID),
		slog.String("shareID", share.ShareID),
	)

	return share, nil
}

// ResolveShare looks up a public share snapshot. No authentication — this is
// the one read path that bypasses the gate entirely.
func (s *CreatureService) ResolveShare(ctx context.Context, shareID string) (*model.Share, error) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" {
		return nil, apperror.ValidationFailed("shareId", "share ID is required")
	}

	return s.shares.GetShare(ctx, shareID)
}

// newShareID mints a share id from a time-derived component and a randomized
// component, concatenated. Guessing one is impractical (xid carries 5 bytes
// of machine/pid entropy plus a counter) without being a cryptographic
// guarantee — which matches what a public share link needs.
func newShareID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + xid.New().String()
}
