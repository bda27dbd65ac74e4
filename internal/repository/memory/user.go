package memory

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sameen/creature-forge/internal/apperror"
	"github.com/sameen/creature-forge/internal/model"
)

// FindByProviderID returns the user linked to the given provider id.
func (s *Store) FindByProviderID(_ context.Context, providerID string) (*model.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	idx, ok := s.byProviderID[providerID]
	if !ok {
		return nil, apperror.NotFound("user", providerID)
	}
	u := s.users[idx]
	return &u, nil
}

// FindByEmail returns the user with the given email, compared
// case-insensitively. "Ash@Demo.Test" and "ash@demo.test" are the same
// account.
func (s *Store) FindByEmail(_ context.Context, email string) (*model.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	idx, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	u := s.users[idx]
	return &u, nil
}

// CreateUser appends a new user, assigning the next sequential id and stamping
// CreatedAt.
//
// Uniqueness is enforced HERE, under the same lock that assigns the id —
// not in the service layer. Two concurrent creates with the same email
// serialize on usersMu: the first wins, the second gets ErrConflict and the
// service re-reads the winner's record.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	emailKey := strings.ToLower(user.Email)
	if _, exists := s.byEmail[emailKey]; exists {
		return apperror.Conflict("user", user.Email)
	}
	if user.ProviderID != "" {
		if _, exists := s.byProviderID[user.ProviderID]; exists {
			return apperror.Conflict("user", user.ProviderID)
		}
	}

	user.ID = s.nextUserID
	s.nextUserID++
	user.CreatedAt = time.Now()

	s.users = append(s.users, *user)
	idx := len(s.users) - 1
	s.byEmail[emailKey] = idx
	if user.ProviderID != "" {
		s.byProviderID[user.ProviderID] = idx
	}

	return nil
}

// AttachProviderID links a provider identity to an existing account.
// This happens when a user who first logged in via demo (or whose email
// matched) later authenticates through the provider.
func (s *Store) AttachProviderID(_ context.Context, userID int64, providerID string) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if existing, ok := s.byProviderID[providerID]; ok {
		if s.users[existing].ID == userID {
			return nil // already linked
		}
		return apperror.Conflict("user", providerID)
	}

	for i := range s.users {
		if s.users[i].ID == userID {
			s.users[i].ProviderID = providerID
			s.byProviderID[providerID] = i
			return nil
		}
	}

	return apperror.NotFound("user", strconv.FormatInt(userID, 10))
}
