package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/pkg/backend"
	"github.com/suteetoe/orgdesk/pkg/config"
	"github.com/suteetoe/orgdesk/pkg/funcs"
)

const organizationsTable = "organizations"

// OrganizationAPI exposes organization operations for the signed-in
// account. Row-level policies on the backend scope the result to the
// organizations the account belongs to.
type OrganizationAPI struct {
	backend *backend.Client
	source  string
	delay   time.Duration
	log     *zap.Logger
}

func newOrganizationAPI(b *backend.Client, cfg *config.Config, log *zap.Logger) *OrganizationAPI {
	return &OrganizationAPI{
		backend: b,
		source:  cfg.Data.Source,
		delay:   cfg.Data.FixtureDelay,
		log:     log,
	}
}

// GetOrganizations returns the account's organizations ascending by
// creation time.
func (o *OrganizationAPI) GetOrganizations(ctx context.Context) ([]model.Organization, error) {
	if o.source == config.DataSourceFixture {
		select {
		case orgs := <-funcs.Promisify(fixtureOrganizations(), o.delay):
			return orgs, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var organizations []model.Organization
	err := o.backend.From(organizationsTable).
		Select("*").
		Order("created_at", true).
		Get(ctx, &organizations)
	if err != nil {
		return nil, err
	}
	return organizations, nil
}
