package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/linesmerrill/league-invite-api/api"
	"github.com/linesmerrill/league-invite-api/api/scheduler"
	"github.com/linesmerrill/league-invite-api/config"
	"github.com/linesmerrill/league-invite-api/databases"
	"github.com/linesmerrill/league-invite-api/databases/sqlitestore"
	"github.com/linesmerrill/league-invite-api/invites"
	"github.com/linesmerrill/league-invite-api/models"
	"github.com/linesmerrill/league-invite-api/notifications"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Invite    Invite
	Auth      *api.Authenticator
	Metrics   *api.MetricsCollector
	Scheduler *scheduler.Scheduler

	dbHelper databases.DatabaseHelper
	closers  []func(context.Context) error
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()
	if a.Metrics != nil {
		r.Use(a.Metrics.MetricsMiddleware)
	}

	// healthchex
	r.HandleFunc("/health", a.healthCheckHandler).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	if a.Metrics != nil {
		apiCreate.Handle("/metrics", MetricsHandler(a.Metrics)).Methods("GET")
	}

	apiCreate.Handle("/leagues/{leagueId}/invites", a.Auth.Middleware(http.HandlerFunc(a.Invite.IssueInviteHandler))).Methods("POST")
	apiCreate.Handle("/invites/{code}/redeem", a.Auth.Middleware(http.HandlerFunc(a.Invite.RedeemInviteHandler))).Methods("POST")
	apiCreate.Handle("/invites", a.Auth.Middleware(http.HandlerFunc(a.Invite.InviteByCodeHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database, build the invite services
// and create a router
func (a *App) Initialize(ctx context.Context) error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	if err := client.Connect(ctx); err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	a.closers = append(a.closers, client.Disconnect)
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Infow("league-invite-api has connected to the database", "database", a.Config.DatabaseName)

	leagues := databases.NewLeagueDatabase(a.dbHelper)

	var (
		store invites.Store
		queue invites.GrantQueue
		locks scheduler.Locker
	)
	switch a.Config.StoreBackend {
	case config.StoreSQLite:
		sqlStore, err := sqlitestore.Open(ctx, a.Config.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite invite store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return sqlStore.Close() })
		store, queue, locks = sqlStore, sqlStore, sqlStore
	default:
		inviteCodes := databases.NewInviteCodeDatabase(a.dbHelper)
		if err := inviteCodes.EnsureIndexes(ctx); err != nil {
			return err
		}
		store = inviteCodes
		queue = databases.NewMembershipGrantDatabase(a.dbHelper)
		locks = databases.NewSchedulerLockDatabase(a.dbHelper)
	}
	zap.S().Infow("invite store ready", "backend", a.Config.StoreBackend)

	generator, err := invites.NewGenerator()
	if err != nil {
		return err
	}
	policy := invites.Policy{
		DefaultMaxUses:     a.Config.DefaultMaxUses,
		MaxUsesCeiling:     a.Config.MaxUsesCeiling,
		GenerationAttempts: a.Config.GenerationAttempts,
	}
	enrollment := invites.NewEnrollment(invites.NewRedeemer(store), leagues, queue)

	notifier := notifications.NewSendGridNotifier(a.Config.SendgridAPIKey, a.Config.FromName, a.Config.FromEmail,
		func(ctx context.Context, leagueID string) string {
			league, err := leagues.FindOne(ctx, leagueID)
			if err != nil {
				return ""
			}
			return league.Details.Name
		})
	if !notifier.Enabled() {
		zap.S().Warn("SENDGRID_API_KEY is not set, invite emails are disabled")
	}

	a.Metrics = api.NewMetricsCollector()
	a.Auth = api.NewAuthenticator(ctx, a.Config.JWTSecret, a.Config.JWTIssuer)
	if a.Config.JWTSecret == "" {
		zap.S().Warn("JWT_SECRET is not set, every authenticated route will return 401")
	}
	a.Invite = Invite{
		Authority:  invites.NewAuthority(store, leagues, generator, policy),
		Enrollment: enrollment,
		Store:      store,
		Checker:    leagues,
		BaseURL:    a.Config.BaseURL,
		Metrics:    a.Metrics,
	}
	if notifier.Enabled() {
		a.Invite.Notifier = notifier
	}
	a.Scheduler = scheduler.NewScheduler(enrollment, locks,
		a.Config.ReconcileSchedule, a.Config.ReconcileBatch, a.Config.ReconcileMaxAttempts)

	// initialize api router
	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// Close releases the stores opened by Initialize, most recent first
func (a *App) Close(ctx context.Context) {
	if a.Metrics != nil {
		a.Metrics.Stop()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			zap.S().Warnw("failed to close store", "error", err)
		}
	}
	a.closers = nil
}

// healthCheckHandler reports alive, and 503 when the mongo primary does not answer a ping
func (a *App) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if a.dbHelper != nil {
		ctx, cancel := api.WithQueryTimeout(r.Context())
		defer cancel()
		if err := a.dbHelper.Client().Ping(ctx); err != nil {
			config.ErrorStatus("database unreachable", http.StatusServiceUnavailable, w, err)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
