package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/model"
	"github.com/sameen/creature-forge/internal/repository"
)

// compile-time check that *DB implements repository.ShareRepository
var _ repository.ShareRepository = (*DB)(nil)

// CreateShare stores a snapshot row. The snapshot's creature fields are
// copied into the shares table, NOT referenced — deleting the source
// creature later leaves this row untouched, which is exactly the
// share-by-value contract.
func (db *DB) CreateShare(ctx context.Context, share *model.Share) error {
	animals, err := encodeList(share.Animals)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	abilities, err := encodeList(share.Abilities)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO shares (share_id, source_id, owner_id, prompt, image_url, animals, abilities, created_at, shared_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		share.ShareID, share.Creature.ID, share.OwnerID, share.Prompt,
		share.ImageURL, animals, abilities, share.CreatedAt, share.SharedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("share", share.ShareID)
		}
		return fmt.Errorf("sqlite: inserting share: %w", err)
	}
	return nil
}

// GetShare resolves a share id to its snapshot.
func (db *DB) GetShare(ctx context.Context, shareID string) (*model.Share, error) {
	var (
		s                  model.Share
		animals, abilities string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT share_id, source_id, owner_id, prompt, image_url, animals, abilities, created_at, shared_at
		 FROM shares WHERE share_id = ?`, shareID,
	).Scan(&s.ShareID, &s.Creature.ID, &s.OwnerID, &s.Prompt, &s.ImageURL,
		&animals, &abilities, &s.CreatedAt, &s.SharedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("share", shareID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: looking up share %s: %w", shareID, err)
	}

	if s.Animals, err = decodeList(animals); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if s.Abilities, err = decodeList(abilities); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return &s, nil
}
