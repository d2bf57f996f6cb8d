package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/prometheus"
)

// State is the lifecycle of a store's initialization.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// OrganizationLister is the slice of the repository this store depends on.
type OrganizationLister interface {
	GetOrganizations(ctx context.Context) ([]model.Organization, error)
}

// OrganizationStore caches the session's organization list and tracks the
// currently active organization. Init selects the first fetched
// organization as current; an account with zero organizations leaves
// current nil, which is a valid state callers must check for, not an
// error.
type OrganizationStore struct {
	mu      sync.RWMutex
	api     OrganizationLister
	log     *zap.Logger
	state   State
	orgs    []model.Organization
	current *model.Organization
}

// NewOrganizationStore creates an uninitialized store.
func NewOrganizationStore(api OrganizationLister, log *zap.Logger) *OrganizationStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrganizationStore{
		api:   api,
		log:   log,
		state: StateUninitialized,
	}
}

// Init fetches the organization list and selects the first entry as the
// current organization. On failure both fields keep their prior values,
// the state moves to Failed and the adapter's error is returned; calling
// Init again retries.
func (s *OrganizationStore) Init(ctx context.Context) ([]model.Organization, error) {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	data, err := s.api.GetOrganizations(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateFailed
		s.mu.Unlock()
		prometheus.RecordStoreInit("organization", "failed")
		s.log.Error("Error fetching organizations", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.orgs = data
	if len(data) > 0 {
		first := data[0]
		s.current = &first
	} else {
		s.current = nil
	}
	s.state = StateReady
	s.mu.Unlock()

	prometheus.RecordStoreInit("organization", "ready")
	s.log.Info("Organizations loaded", zap.Int("count", len(data)))
	return data, nil
}

// State returns the store's lifecycle state.
func (s *OrganizationStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Organizations returns a copy of the cached list; nil before a
// successful Init.
func (s *OrganizationStore) Organizations() []model.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.orgs == nil {
		return nil
	}
	return append([]model.Organization(nil), s.orgs...)
}

// CurrentOrganization returns the active organization, or nil when the
// account has none or Init has not succeeded yet.
func (s *OrganizationStore) CurrentOrganization() *model.Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	org := *s.current
	return &org
}

// SetCurrentOrganization switches the active organization.
func (s *OrganizationStore) SetCurrentOrganization(org model.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &org
}
