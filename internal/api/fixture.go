package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/suteetoe/orgdesk/internal/model"
)

// fixtureState is the canned data served in fixture mode. It is mutable so
// that delete/invite flows behave like a real backend during UI work, but
// it never leaves the process.
type fixtureState struct {
	members     []model.Member
	invitations []model.Invitation
}

const fixtureOrgID = "org-fixture-1"

func newFixtureState() *fixtureState {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fixtureState{
		members: []model.Member{
			{
				ID:             "member-1",
				OrganizationID: fixtureOrgID,
				Name:           "Bob Jones",
				Email:          "bob.jones@example.com",
				Role:           model.RoleEditor,
				CreatedAt:      base,
				Account: &model.MemberAccount{
					ID:    "account-1",
					Name:  "Bob Jones",
					Email: "bob.jones@example.com",
					Image: &model.Image{Path: "avatars/bob.png", Bucket: "profiles"},
				},
			},
			{
				ID:             "member-2",
				OrganizationID: fixtureOrgID,
				Name:           "Alice Smith",
				Email:          "alice.smith@example.com",
				Role:           model.RoleAdmin,
				CreatedAt:      base.Add(time.Minute),
				Account: &model.MemberAccount{
					ID:    "account-2",
					Name:  "Alice Smith",
					Email: "alice.smith@example.com",
					Image: &model.Image{Path: "avatars/alice.png", Bucket: "profiles"},
				},
			},
		},
	}
}

func (f *fixtureState) listMembers() []model.Member {
	return append([]model.Member(nil), f.members...)
}

func (f *fixtureState) deleteMember(id string) bool {
	for i, m := range f.members {
		if m.ID == id {
			f.members = append(f.members[:i], f.members[i+1:]...)
			return true
		}
	}
	return true // backend-compatible: deleting an unknown id is a no-op success
}

func (f *fixtureState) listInvitations() []model.Invitation {
	return append([]model.Invitation(nil), f.invitations...)
}

func (f *fixtureState) addInvitation(details model.InviteDetails) []model.Invitation {
	now := time.Now().UTC()
	inv := model.Invitation{
		ID:             uuid.New().String(),
		OrganizationID: details.OrganizationID,
		Email:          details.Email,
		Role:           details.Role,
		Status:         model.InviteStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.invitations = append(f.invitations, inv)
	return []model.Invitation{inv}
}

func (f *fixtureState) updateInvitation(id string, details model.InviteUpdate) []model.Invitation {
	for i := range f.invitations {
		if f.invitations[i].ID == id {
			f.invitations[i].Email = details.Email
			f.invitations[i].Role = details.Role
			f.invitations[i].UpdatedAt = time.Now().UTC()
			return []model.Invitation{f.invitations[i]}
		}
	}
	return nil
}

func (f *fixtureState) deleteInvitation(id string) bool {
	for i, inv := range f.invitations {
		if inv.ID == id {
			f.invitations = append(f.invitations[:i], f.invitations[i+1:]...)
			return true
		}
	}
	return true
}

func fixtureOrganizations() []model.Organization {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	return []model.Organization{
		{
			ID:          fixtureOrgID,
			OwnerID:     "account-2",
			Name:        "Acme Workshop",
			Slug:        "acme-workshop",
			Description: "Demo workspace served from fixture data",
			CreatedAt:   base,
			UpdatedAt:   base,
		},
		{
			ID:          "org-fixture-2",
			OwnerID:     "account-2",
			Name:        "Acme Labs",
			Slug:        "acme-labs",
			Description: "Second demo workspace",
			CreatedAt:   base.Add(time.Hour),
			UpdatedAt:   base.Add(time.Hour),
		},
	}
}
