package api

import (
	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/internal/schema"
	"github.com/suteetoe/orgdesk/pkg/backend"
	"github.com/suteetoe/orgdesk/pkg/config"
)

// Repository is the single aggregation point for all resource adapters.
// It is constructed once per session and injected wherever data access is
// needed. Pure composition: it adds no behavior and no error handling of
// its own; adding a resource means adding one more field here.
type Repository struct {
	Members       *MemberAPI
	Organizations *OrganizationAPI
}

// NewRepository wires every adapter to the shared backend client.
func NewRepository(b *backend.Client, s *schema.Schemas, cfg *config.Config, log *zap.Logger) *Repository {
	return &Repository{
		Members:       newMemberAPI(b, s, cfg, log),
		Organizations: newOrganizationAPI(b, cfg, log),
	}
}
