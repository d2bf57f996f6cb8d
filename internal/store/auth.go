// Package store holds the session-scoped state containers shared across
// the UI tree. A store guards its fields with one mutex; concurrent
// mutation from multiple UI triggers is last-write-wins, and no store
// refreshes itself in the background.
package store

import (
	"sync"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/pkg/backend"
	"github.com/suteetoe/orgdesk/pkg/jwtutil"
)

// AuthStore holds the signed-in identity, the session token and the
// organization the session is acting in. The user field is a snapshot of
// externally-owned session identity; the only way to change it is
// SetSession, never local mutation.
type AuthStore struct {
	mu           sync.RWMutex
	user         *model.Account
	token        string
	organization *model.Organization
}

// NewAuthStore creates an empty auth store.
func NewAuthStore() *AuthStore {
	return &AuthStore{}
}

// SetSession stores the bearer token and refreshes the identity snapshot
// from its claims.
func (s *AuthStore) SetSession(token string) error {
	claims, err := jwtutil.DecodeClaims(token)
	if err != nil {
		return err
	}
	account := claims.Account()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = &account
	return nil
}

// Clear wipes the session on logout.
func (s *AuthStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = nil
	s.organization = nil
}

// Token returns the current session token, or "" when signed out.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// TokenProvider adapts the store for clients that need the token at call
// time. Handing out this provider rather than the token value keeps
// transports current across token rotation.
func (s *AuthStore) TokenProvider() backend.TokenProvider {
	return s.Token
}

// User returns a copy of the identity snapshot, or nil when signed out.
func (s *AuthStore) User() *model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Organization returns the organization the session is acting in.
func (s *AuthStore) Organization() *model.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.organization == nil {
		return nil
	}
	org := *s.organization
	return &org
}

// SetOrganization records the organization the session is acting in.
func (s *AuthStore) SetOrganization(org model.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organization = &org
}
