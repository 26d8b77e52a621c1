package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/linesmerrill/league-invite-api/logging"
)

// Store backends selectable with INVITE_STORE
const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// Config holds the project config values
type Config struct {
	Env          string `env:"ENV" envDefault:"production"`
	Port         string `env:"PORT" envDefault:"8080"`
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	URL          string `env:"DB_URI"`
	DatabaseName string `env:"DB_NAME" envDefault:"leagues"`

	StoreBackend string `env:"INVITE_STORE" envDefault:"mongo"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"invites.db"`

	DefaultMaxUses     int `env:"INVITE_DEFAULT_MAX_USES" envDefault:"100"`
	MaxUsesCeiling     int `env:"INVITE_MAX_USES_CEILING" envDefault:"1000"`
	GenerationAttempts int `env:"INVITE_GENERATION_ATTEMPTS" envDefault:"5"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER"`

	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	FromEmail      string `env:"INVITE_FROM_EMAIL" envDefault:"no-reply@draftqueen.app"`
	FromName       string `env:"INVITE_FROM_NAME" envDefault:"DraftQueen Invites"`

	ReconcileSchedule    string `env:"RECONCILE_SCHEDULE" envDefault:"*/5 * * * *"`
	ReconcileBatch       int    `env:"RECONCILE_BATCH" envDefault:"50"`
	ReconcileMaxAttempts int    `env:"RECONCILE_MAX_ATTEMPTS" envDefault:"10"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
}

// New parses the environment, sets up the zap logger and replaces the default logger
func New() (*Config, error) {
	conf := &Config{}
	if err := env.Parse(conf); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	logger, err := setLogger(conf.Env)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func setLogger(env string) (*zap.Logger, error) {
	return logging.New(env)
}

func (c *Config) validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	if c.StoreBackend != StoreMongo && c.StoreBackend != StoreSQLite {
		return fmt.Errorf("INVITE_STORE must be %q or %q, got %q", StoreMongo, StoreSQLite, c.StoreBackend)
	}
	if c.DefaultMaxUses < 1 {
		return fmt.Errorf("INVITE_DEFAULT_MAX_USES must be positive")
	}
	if c.MaxUsesCeiling < c.DefaultMaxUses {
		return fmt.Errorf("INVITE_MAX_USES_CEILING must be at least INVITE_DEFAULT_MAX_USES")
	}
	if c.GenerationAttempts < 1 {
		return fmt.Errorf("INVITE_GENERATION_ATTEMPTS must be positive")
	}
	if c.ReconcileBatch < 1 || c.ReconcileMaxAttempts < 1 {
		return fmt.Errorf("RECONCILE_BATCH and RECONCILE_MAX_ATTEMPTS must be positive")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	ErrorKindStatus(message, "", httpStatusCode, w, err)
}

// ErrorKindStatus behaves like ErrorStatus and also reports a machine readable error kind
// so clients can tell a bad code from an expired or full one
func ErrorKindStatus(message, kind string, httpStatusCode int, w http.ResponseWriter, err error) {
	if httpStatusCode >= http.StatusInternalServerError {
		zap.S().Errorw(message, "kind", kind, "error", err)
	} else {
		zap.S().Infow(message, "kind", kind, "error", err)
	}
	body := map[string]string{"error": message}
	if kind != "" {
		body["kind"] = kind
	}
	if err != nil {
		body["detail"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_ = json.NewEncoder(w).Encode(body)
}
