package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/model"
	"github.com/sameen/creature-forge/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// scanUser reads one user row. provider_id is nullable (demo accounts), so
// it goes through sql.NullString and collapses to "" in the model.
func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u          model.User
		providerID sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &providerID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.ProviderID = providerID.String
	return &u, nil
}

// FindByProviderID returns the user linked to the given provider id.
func (db *DB) FindByProviderID(ctx context.Context, providerID string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, provider_id, created_at
		 FROM users WHERE provider_id = ?`, providerID)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", providerID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: looking up user by provider id: %w", err)
	}
	return u, nil
}

// FindByEmail returns the user with the given email. The email column is
// declared COLLATE NOCASE, so a plain equality comparison is already
// case-insensitive.
func (db *DB) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, provider_id, created_at
		 FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: looking up user by email: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new user. The UNIQUE constraints on email and provider_id
// are the single enforcement point for identity uniqueness — a duplicate
// surfaces as ErrConflict, and the service re-reads the winning record.
//
// The id comes from AUTOINCREMENT, read back with last_insert_rowid inside
// the same transaction so the assignment is atomic.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tx: %w", err)
	}
	defer tx.Rollback()

	user.CreatedAt = time.Now()

	providerID := sql.NullString{String: user.ProviderID, Valid: user.ProviderID != ""}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (email, username, provider_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		user.Email, user.Username, providerID, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	if err := tx.QueryRowContext(ctx, `SELECT last_insert_rowid()`).Scan(&user.ID); err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing user insert: %w", err)
	}
	return nil
}

// AttachProviderID links a provider identity to an existing account.
func (db *DB) AttachProviderID(ctx context.Context, userID int64, providerID string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET provider_id = ? WHERE id = ? AND provider_id IS NULL`,
		providerID, userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", providerID)
		}
		return fmt.Errorf("sqlite: attaching provider id: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading affected rows: %w", err)
	}
	if affected == 0 {
		// Either the user doesn't exist, or a provider id is already
		// attached. Distinguish so the caller gets the right error.
		var already sql.NullString
		err := db.conn.QueryRowContext(ctx,
			`SELECT provider_id FROM users WHERE id = ?`, userID).Scan(&already)
		if err == sql.ErrNoRows {
			return apperror.NotFound("user", strconv.FormatInt(userID, 10))
		}
		if err != nil {
			return fmt.Errorf("sqlite: checking user %d: %w", userID, err)
		}
		if already.String == providerID {
			return nil // already linked to this identity
		}
		return apperror.Conflict("user", providerID)
	}
	return nil
}
