package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/model"
	"github.com/sameen/creature-forge/internal/repository"
)

// compile-time check that *DB implements repository.CreatureRepository
var _ repository.CreatureRepository = (*DB)(nil)

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite doesn't export a typed error for this, so we match the
// SQLite error text, which is stable across versions.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// encodeList / decodeList store the animals/abilities string lists as JSON
// text. The lists are tiny (at most 5 entries) and never queried by element,
// so a serialized column beats a join table.
func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encoding list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	return list, nil
}

// CreateCreature inserts a creature, assigning a fresh xid and stamping CreatedAt.
func (db *DB) CreateCreature(ctx context.Context, creature *model.Creature) error {
	creature.ID = xid.New().String()
	creature.CreatedAt = time.Now()

	animals, err := encodeList(creature.Animals)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	abilities, err := encodeList(creature.Abilities)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO creatures (id, owner_id, prompt, image_url, animals, abilities, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		creature.ID, creature.OwnerID, creature.Prompt, creature.ImageURL,
		animals, abilities, creature.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting creature: %w", err)
	}
	return nil
}

// ListByOwner returns the creatures owned by ownerID in insertion order.
// xids sort chronologically, so ordering by id matches creation order.
func (db *DB) ListByOwner(ctx context.Context, ownerID int64) ([]model.Creature, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, owner_id, prompt, image_url, animals, abilities, created_at
		 FROM creatures WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing creatures: %w", err)
	}
	defer rows.Close()

	creatures := []model.Creature{}
	for rows.Next() {
		var (
			c                 model.Creature
			animals, abilties string
		)
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Prompt, &c.ImageURL,
			&animals, &abilties, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning creature: %w", err)
		}
		if c.Animals, err = decodeList(animals); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		if c.Abilities, err = decodeList(abilties); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		creatures = append(creatures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating creatures: %w", err)
	}
	return creatures, nil
}

// GetByOwnerAndID returns the creature only if BOTH predicates match.
// A foreign owner and a missing id are the same ErrNotFound.
func (db *DB) GetByOwnerAndID(ctx context.Context, ownerID int64, id string) (*model.Creature, error) {
	var (
		c                  model.Creature
		animals, abilities string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, prompt, image_url, animals, abilities, created_at
		 FROM creatures WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&c.ID, &c.OwnerID, &c.Prompt, &c.ImageURL, &animals, &abilities, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("creature", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: looking up creature %s: %w", id, err)
	}

	if c.Animals, err = decodeList(animals); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if c.Abilities, err = decodeList(abilities); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return &c, nil
}

// DeleteByOwner removes the creature matching both predicates. The DELETE is
// a single statement, so check-and-remove is atomic at the database level.
func (db *DB) DeleteByOwner(ctx context.Context, ownerID int64, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM creatures WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting creature %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading affected rows: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("creature", id)
	}
	return nil
}
