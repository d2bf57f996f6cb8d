// Package api contains the per-resource adapters over the backend query
// interface and the repository that aggregates them. Adapters normalize
// results and errors but perform no recovery: every failure propagates to
// the caller, and every read re-queries the backend.
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/internal/schema"
	"github.com/suteetoe/orgdesk/pkg/backend"
	"github.com/suteetoe/orgdesk/pkg/config"
	"github.com/suteetoe/orgdesk/pkg/funcs"
)

const (
	membersTable     = "organization_members"
	invitationsTable = "invitations"
)

// MemberAPI exposes membership and invitation operations for the current
// organization scope. With DataSourceFixture it serves canned in-memory
// data after an artificial delay so UI work can proceed without a live
// backend.
type MemberAPI struct {
	backend *backend.Client
	schemas *schema.Schemas
	source  string
	delay   time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	fixture *fixtureState
}

func newMemberAPI(b *backend.Client, s *schema.Schemas, cfg *config.Config, log *zap.Logger) *MemberAPI {
	m := &MemberAPI{
		backend: b,
		schemas: s,
		source:  cfg.Data.Source,
		delay:   cfg.Data.FixtureDelay,
		log:     log,
	}
	if m.source == config.DataSourceFixture {
		m.fixture = newFixtureState()
	}
	return m
}

// GetMembers returns the organization's members ascending by creation
// time, each joined with its account's image reference.
func (m *MemberAPI) GetMembers(ctx context.Context) ([]model.Member, error) {
	if m.source == config.DataSourceFixture {
		return awaitFixture(ctx, m, func(f *fixtureState) []model.Member {
			return f.listMembers()
		})
	}

	var members []model.Member
	err := m.backend.From(membersTable).
		Select("*, account:accounts(id,name,email,image)").
		Order("created_at", true).
		Get(ctx, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

// DeleteMember removes a membership by id. The backend does not report
// whether the id existed; a delete of an unknown id looks like success.
func (m *MemberAPI) DeleteMember(ctx context.Context, id string) (bool, error) {
	if m.source == config.DataSourceFixture {
		_, err := awaitFixture(ctx, m, func(f *fixtureState) bool {
			return f.deleteMember(id)
		})
		return err == nil, err
	}

	err := m.backend.From(membersTable).Eq("id", id).Delete(ctx)
	if err != nil {
		return false, err
	}

	m.log.Info("Member deleted", zap.String("member_id", id))
	return true, nil
}

// GetInvitations returns the organization's invitations ascending by
// creation time.
func (m *MemberAPI) GetInvitations(ctx context.Context) ([]model.Invitation, error) {
	if m.source == config.DataSourceFixture {
		return awaitFixture(ctx, m, func(f *fixtureState) []model.Invitation {
			return f.listInvitations()
		})
	}

	var invitations []model.Invitation
	err := m.backend.From(invitationsTable).
		Select("*").
		Order("created_at", true).
		Get(ctx, &invitations)
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// SendInvite creates an invitation. The payload is validated against the
// configured invite schema before anything reaches the backend; the query
// interface itself performs no shape checking.
func (m *MemberAPI) SendInvite(ctx context.Context, details model.InviteDetails) ([]model.Invitation, error) {
	if err := m.schemas.ValidateInvite(schema.Invite{Email: details.Email, Role: details.Role}); err != nil {
		return nil, err
	}
	if details.OrganizationID == "" {
		return nil, &backend.PreconditionError{Message: "organization_id must be provided"}
	}

	if m.source == config.DataSourceFixture {
		return awaitFixture(ctx, m, func(f *fixtureState) []model.Invitation {
			return f.addInvitation(details)
		})
	}

	var created []model.Invitation
	err := m.backend.From(invitationsTable).Insert(ctx, []model.InviteDetails{details}, &created)
	if err != nil {
		return nil, err
	}

	m.log.Info("Invitation sent",
		zap.String("email", details.Email),
		zap.String("role", details.Role),
		zap.String("organization_id", details.OrganizationID))
	return created, nil
}

// UpdateInvite re-addresses a pending invitation (email and role only;
// status transitions are the backend's, not ours). The patch is validated
// like SendInvite's payload.
func (m *MemberAPI) UpdateInvite(ctx context.Context, id string, details model.InviteUpdate) ([]model.Invitation, error) {
	if err := m.schemas.ValidateInvite(schema.Invite{Email: details.Email, Role: details.Role}); err != nil {
		return nil, err
	}

	if m.source == config.DataSourceFixture {
		return awaitFixture(ctx, m, func(f *fixtureState) []model.Invitation {
			return f.updateInvitation(id, details)
		})
	}

	var updated []model.Invitation
	err := m.backend.From(invitationsTable).Eq("id", id).Update(ctx, details, &updated)
	if err != nil {
		return nil, err
	}

	m.log.Info("Invitation updated", zap.String("invitation_id", id))
	return updated, nil
}

// RevokeInvite deletes an invitation by id.
func (m *MemberAPI) RevokeInvite(ctx context.Context, id string) (bool, error) {
	if m.source == config.DataSourceFixture {
		_, err := awaitFixture(ctx, m, func(f *fixtureState) bool {
			return f.deleteInvitation(id)
		})
		return err == nil, err
	}

	err := m.backend.From(invitationsTable).Eq("id", id).Delete(ctx)
	if err != nil {
		return false, err
	}

	m.log.Info("Invitation revoked", zap.String("invitation_id", id))
	return true, nil
}

// awaitFixture runs fn against the fixture state and delivers its result
// after the configured artificial delay, honoring cancellation.
func awaitFixture[T any](ctx context.Context, m *MemberAPI, fn func(*fixtureState) T) (T, error) {
	m.mu.Lock()
	result := fn(m.fixture)
	m.mu.Unlock()

	select {
	case v := <-funcs.Promisify(result, m.delay):
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
