package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/orgdesk/internal/api"
	"github.com/suteetoe/orgdesk/internal/schema"
	"github.com/suteetoe/orgdesk/internal/store"
	"github.com/suteetoe/orgdesk/pkg/backend"
	"github.com/suteetoe/orgdesk/pkg/config"
	"github.com/suteetoe/orgdesk/pkg/funcs"
	"github.com/suteetoe/orgdesk/pkg/gateway"
	"github.com/suteetoe/orgdesk/pkg/logger"
	"github.com/suteetoe/orgdesk/prometheus"
)

// orgdesk is a small console walkthrough of the SDK: sign in, initialize
// the stores and print the current organization's members.
func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("orgdesk")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting orgdesk demo...", cfg.LogConfig()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	authStore := store.NewAuthStore()

	// The backend client reads the session token from the auth store on
	// every call, so sign-in below is picked up without reconstruction.
	backendClient, err := backend.New(backend.Config{
		URL:     cfg.Backend.URL,
		APIKey:  cfg.Backend.APIKey,
		Token:   authStore.TokenProvider(),
		Timeout: cfg.Backend.Timeout,
		Logger:  log,
	})
	if err != nil {
		log.Fatal("Failed to create backend client", zap.Error(err))
	}

	if cfg.Data.Source == config.DataSourceLive {
		if err := signIn(ctx, cfg, authStore); err != nil {
			log.Fatal("Sign-in failed", zap.Error(err))
		}
	}

	schemas, err := schema.FromConfig(cfg)
	if err != nil {
		log.Fatal("Failed to build validation schemas", zap.Error(err))
	}

	repo := api.NewRepository(backendClient, schemas, cfg, log)

	orgStore := store.NewOrganizationStore(repo.Organizations, log)
	if _, err := orgStore.Init(ctx); err != nil {
		log.Fatal("Failed to initialize organization store", zap.Error(err))
	}

	current := orgStore.CurrentOrganization()
	if current == nil {
		fmt.Println("This account belongs to no organizations")
		return
	}
	authStore.SetOrganization(*current)

	fmt.Printf("Current organization: %s (%s)\n", current.Name, current.Slug)
	for _, org := range orgStore.Organizations() {
		fmt.Printf("  - %s (%s)\n", org.Name, org.Slug)
	}

	members, err := repo.Members.GetMembers(ctx)
	if err != nil {
		log.Fatal("Failed to fetch members", zap.Error(err))
	}
	fmt.Printf("Members (%d):\n", len(members))
	for _, m := range members {
		fmt.Printf("  [%s] %s <%s> %s\n", funcs.GetInitials(m.Name), m.Name, m.Email, m.Role)
	}

	invitations, err := repo.Members.GetInvitations(ctx)
	if err != nil {
		log.Fatal("Failed to fetch invitations", zap.Error(err))
	}
	fmt.Printf("Pending invitations: %d\n", len(invitations))

	if cfg.Data.Source == config.DataSourceLive && os.Getenv("WATCH_INVITATIONS") == "true" {
		watchInvitations(ctx, backendClient)
	}
}

// watchInvitations subscribes to invitation changes and prints them until
// the context expires. Opt-in: the stub backend has no realtime endpoint.
func watchInvitations(ctx context.Context, client *backend.Client) {
	log := logger.FromContext(ctx)
	rt := client.Realtime()
	if err := rt.Connect(ctx); err != nil {
		log.Error("Realtime connection failed", zap.Error(err))
		return
	}
	defer rt.Close()

	err := rt.Subscribe("invitations", func(event backend.ChangeEvent) {
		fmt.Printf("invitation %s: %s\n", event.Type, event.Record)
	})
	if err != nil {
		log.Error("Realtime subscribe failed", zap.Error(err))
		return
	}

	fmt.Println("Watching invitations (ctrl-c to stop)...")
	<-ctx.Done()
}

// signIn exchanges the demo credentials for a session token via the
// gateway and stores the resulting session.
func signIn(ctx context.Context, cfg *config.Config, authStore *store.AuthStore) error {
	log := logger.FromContext(ctx)
	email := os.Getenv("DEMO_EMAIL")
	password := os.Getenv("DEMO_PASSWORD")
	if email == "" {
		log.Info("DEMO_EMAIL not set, continuing unauthenticated")
		return nil
	}

	gw := gateway.NewClient(cfg.Backend.URL, authStore.TokenProvider())

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}

	resp, err := gw.CallAPI(ctx, http.MethodPost, "/auth/v1/token", bytes.NewReader(body))
	if err != nil {
		return err
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp, &tokenResp); err != nil {
		return err
	}

	if err := authStore.SetSession(tokenResp.AccessToken); err != nil {
		return err
	}

	if user := authStore.User(); user != nil {
		log.Info("Signed in", zap.String("email", user.Email), zap.String("account_id", user.ID))
	}
	return nil
}
