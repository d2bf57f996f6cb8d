package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/internal/schema"
	"github.com/suteetoe/orgdesk/pkg/backend"
	"github.com/suteetoe/orgdesk/pkg/config"
)

const testFixtureDelay = 20 * time.Millisecond

func fixtureConfig() *config.Config {
	return &config.Config{
		Data: config.DataConfig{
			Source:       config.DataSourceFixture,
			FixtureDelay: testFixtureDelay,
		},
	}
}

// newFixtureRepository builds a repository in fixture mode. The backend
// client is nil on purpose: fixture mode must never reach it.
func newFixtureRepository(t *testing.T) *Repository {
	t.Helper()
	cfg := fixtureConfig()
	schemas, err := schema.FromConfig(cfg)
	if err != nil {
		t.Fatalf("failed to build schemas: %v", err)
	}
	return NewRepository(nil, schemas, cfg, zap.NewNop())
}

func TestFixtureMembersServedAfterDelay(t *testing.T) {
	repo := newFixtureRepository(t)

	start := time.Now()
	members, err := repo.Members.GetMembers(context.Background())
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < testFixtureDelay {
		t.Fatalf("fixture answered after %v, want at least %v", elapsed, testFixtureDelay)
	}

	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
	if members[0].Name != "Bob Jones" || members[0].Role != model.RoleEditor {
		t.Fatalf("members[0] = %s/%s, want Bob Jones/editor", members[0].Name, members[0].Role)
	}
	if members[1].Name != "Alice Smith" || members[1].Role != model.RoleAdmin {
		t.Fatalf("members[1] = %s/%s, want Alice Smith/admin", members[1].Name, members[1].Role)
	}
	if members[0].Account == nil || members[0].Account.Image == nil {
		t.Fatal("members[0] missing account image reference")
	}
}

func TestFixtureDeleteMember(t *testing.T) {
	repo := newFixtureRepository(t)
	ctx := context.Background()

	ok, err := repo.Members.DeleteMember(ctx, "member-1")
	if err != nil || !ok {
		t.Fatalf("DeleteMember = (%v, %v), want success", ok, err)
	}

	members, err := repo.Members.GetMembers(ctx)
	if err != nil {
		t.Fatalf("GetMembers failed: %v", err)
	}
	if len(members) != 1 || members[0].ID != "member-2" {
		t.Fatalf("got %v, want only member-2 left", members)
	}

	// Deleting an id that no longer exists still reports success, matching
	// the live interface.
	ok, err = repo.Members.DeleteMember(ctx, "member-1")
	if err != nil || !ok {
		t.Fatalf("repeat DeleteMember = (%v, %v), want success", ok, err)
	}
}

func TestFixtureInviteLifecycle(t *testing.T) {
	repo := newFixtureRepository(t)
	ctx := context.Background()

	created, err := repo.Members.SendInvite(ctx, model.InviteDetails{
		Email:          "carol.wu@example.com",
		Role:           model.RoleViewer,
		OrganizationID: "org-fixture-1",
	})
	if err != nil {
		t.Fatalf("SendInvite failed: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("SendInvite returned %d rows, want 1", len(created))
	}
	inv := created[0]
	if inv.ID == "" {
		t.Fatal("created invitation has no id")
	}
	if inv.Status != model.InviteStatusPending {
		t.Fatalf("created invitation status = %q, want pending", inv.Status)
	}

	pending, err := repo.Members.GetInvitations(ctx)
	if err != nil {
		t.Fatalf("GetInvitations failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != inv.ID {
		t.Fatalf("got %v, want the sent invitation", pending)
	}

	updated, err := repo.Members.UpdateInvite(ctx, inv.ID, model.InviteUpdate{
		Email: "carol.wu@example.com",
		Role:  model.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("UpdateInvite failed: %v", err)
	}
	if len(updated) != 1 || updated[0].Role != model.RoleAdmin {
		t.Fatalf("UpdateInvite returned %v, want role admin", updated)
	}
	if updated[0].Status != model.InviteStatusPending {
		t.Fatalf("UpdateInvite changed status to %q", updated[0].Status)
	}

	ok, err := repo.Members.RevokeInvite(ctx, inv.ID)
	if err != nil || !ok {
		t.Fatalf("RevokeInvite = (%v, %v), want success", ok, err)
	}
	remaining, err := repo.Members.GetInvitations(ctx)
	if err != nil {
		t.Fatalf("GetInvitations failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("got %d invitations after revoke, want 0", len(remaining))
	}
}

func TestSendInviteValidatesBeforeAnyRequest(t *testing.T) {
	// Live mode with a nil backend client: the validation failure must
	// short-circuit before the query interface is touched at all.
	cfg := fixtureConfig()
	cfg.Data.Source = config.DataSourceLive
	schemas, err := schema.FromConfig(cfg)
	if err != nil {
		t.Fatalf("failed to build schemas: %v", err)
	}
	repo := NewRepository(nil, schemas, cfg, zap.NewNop())
	ctx := context.Background()

	_, err = repo.Members.SendInvite(ctx, model.InviteDetails{
		Email:          "carol.wu@example.com",
		Role:           "superadmin",
		OrganizationID: "org-1",
	})
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("SendInvite error = %v, want *schema.ValidationError", err)
	}

	_, err = repo.Members.SendInvite(ctx, model.InviteDetails{
		Email: "carol.wu@example.com",
		Role:  model.RoleViewer,
	})
	var perr *backend.PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("SendInvite without organization = %v, want *backend.PreconditionError", err)
	}

	_, err = repo.Members.UpdateInvite(ctx, "inv-1", model.InviteUpdate{
		Email: "not-an-email",
		Role:  model.RoleViewer,
	})
	if !errors.As(err, &verr) {
		t.Fatalf("UpdateInvite error = %v, want *schema.ValidationError", err)
	}
}

func TestFixtureHonorsCancellation(t *testing.T) {
	repo := newFixtureRepository(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Members.GetMembers(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("GetMembers with cancelled context = %v, want context.Canceled", err)
	}
}

func TestFixtureOrganizations(t *testing.T) {
	repo := newFixtureRepository(t)

	orgs, err := repo.Organizations.GetOrganizations(context.Background())
	if err != nil {
		t.Fatalf("GetOrganizations failed: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("got %d organizations, want 2", len(orgs))
	}
	if orgs[0].Name != "Acme Workshop" {
		t.Fatalf("orgs[0].Name = %q, want the oldest organization first", orgs[0].Name)
	}
}
