// Package stub is an in-memory stand-in for the hosted backend. It serves
// the subset of the query interface the SDK uses, plus token issuance and
// signed-URL endpoints, so local development and integration tests need no
// live backend. State is canned and process-local.
package stub

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/internal/model"
	"github.com/suteetoe/orgdesk/pkg/config"
	"github.com/suteetoe/orgdesk/pkg/jwtutil"
	"github.com/suteetoe/orgdesk/pkg/logger"
	"github.com/suteetoe/orgdesk/prometheus"
)

// Server is the stub backend.
type Server struct {
	echo *echo.Echo
	jwt  *jwtutil.JWTUtil
	log  *zap.Logger

	mu     sync.RWMutex
	tables map[string][]row
}

type row = map[string]any

// NewServer builds the stub with seeded demo data and all routes wired.
func NewServer(cfg *config.Config, log *zap.Logger) *Server {
	s := &Server{
		echo:   echo.New(),
		jwt:    jwtutil.NewJWTUtil(&cfg.JWT),
		log:    log,
		tables: seedTables(),
	}

	e := s.echo
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(RequestIDMiddleware())
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	e.GET("/health", s.health)
	e.GET("/metrics", prometheus.MetricsHandler)

	e.POST("/auth/v1/token", s.issueToken)

	rest := e.Group("/rest/v1")
	rest.GET("/:table", s.selectRows)
	rest.POST("/:table", s.insertRows)
	rest.PATCH("/:table", s.updateRows)
	rest.DELETE("/:table", s.deleteRows)

	e.POST("/storage/v1/object/sign/:bucket/*", s.signObject)

	return s
}

// Start runs the stub on the given port.
func (s *Server) Start(port string) error {
	s.log.Info("Starting stub backend", zap.String("port", port))
	return s.echo.Start(":" + port)
}

// Handler exposes the echo handler, for httptest servers.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func seedTables() map[string][]row {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	ts := func(d time.Duration) string { return base.Add(d).Format(time.RFC3339) }

	return map[string][]row{
		"accounts": {
			{
				"id": "account-1", "name": "Bob Jones", "email": "bob.jones@example.com",
				"password": "password",
				"image":    row{"path": "avatars/bob.png", "bucket": "profiles"},
				"created_at": ts(0), "updated_at": ts(0),
			},
			{
				"id": "account-2", "name": "Alice Smith", "email": "alice.smith@example.com",
				"password": "password",
				"image":    row{"path": "avatars/alice.png", "bucket": "profiles"},
				"created_at": ts(time.Minute), "updated_at": ts(time.Minute),
			},
		},
		"organizations": {
			{
				"id": "org-1", "owner_id": "account-2", "name": "Acme Workshop",
				"slug": "acme-workshop", "description": "Primary demo workspace",
				"website":    nil,
				"created_at": ts(time.Hour), "updated_at": ts(time.Hour),
			},
			{
				"id": "org-2", "owner_id": "account-2", "name": "Acme Labs",
				"slug": "acme-labs", "description": "Second demo workspace",
				"website":    nil,
				"created_at": ts(2 * time.Hour), "updated_at": ts(2 * time.Hour),
			},
		},
		"organization_members": {
			{
				"id": "member-1", "organization_id": "org-1",
				"name": "Bob Jones", "email": "bob.jones@example.com",
				"role":       model.RoleEditor,
				"account_id": "account-1",
				"created_at": ts(3 * time.Hour),
			},
			{
				"id": "member-2", "organization_id": "org-1",
				"name": "Alice Smith", "email": "alice.smith@example.com",
				"role":       model.RoleAdmin,
				"account_id": "account-2",
				"created_at": ts(3*time.Hour + time.Minute),
			},
		},
		"invitations": {},
	}
}
