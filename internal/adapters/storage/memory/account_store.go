package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/PabloGalante/advocate/internal/domain"
)

type account struct {
	profile domain.UserProfile
	hash    []byte
}

// AccountStore is an in-memory domain.AccountProvider for local mode.
// Tokens are opaque random strings that never expire.
type AccountStore struct {
	mu       sync.RWMutex
	byEmail  map[string]*account
	byToken  map[string]*account
	hashCost int
}

func NewAccountStore() *AccountStore {
	return &AccountStore{
		byEmail:  make(map[string]*account),
		byToken:  make(map[string]*account),
		hashCost: bcrypt.DefaultCost,
	}
}

func (s *AccountStore) CreateAccount(_ context.Context, email, password string) (*domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, fmt.Errorf("%w: an account for %s already exists", domain.ErrConflict, email)
	}

	a := &account{
		profile: domain.UserProfile{
			UserID: domain.UserID(uuid.NewString()),
			Email:  email,
		},
		hash: hash,
	}
	token := uuid.NewString()
	s.byEmail[email] = a
	s.byToken[token] = a

	return &domain.Account{Profile: a.profile, Token: token}, nil
}

func (s *AccountStore) Authenticate(_ context.Context, token string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byToken[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	p := a.profile
	return &p, nil
}

// UpdateProfile replaces the profile fields of an account, keeping its id
// and email.
func (s *AccountStore) UpdateProfile(_ context.Context, p domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.byEmail {
		if a.profile.UserID == p.UserID {
			p.Email = a.profile.Email
			a.profile = p
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", p.UserID, domain.ErrNotFound)
}
