package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/consolidador-t25/tarifas-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for consolidation runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, result *model.ConsolidationResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Extraction output
	InsertServices(ctx context.Context, runID string, records []model.ServiceRecord) (int, error)
	InsertAlerts(ctx context.Context, runID string, alerts []model.Alert) error
	ServicesByContract(ctx context.Context, runID, contract string) ([]model.ServiceRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and configures the storage backend.
type Config struct {
	Driver   string      `yaml:"driver" mapstructure:"driver"`
	DSN      string      `yaml:"dsn" mapstructure:"dsn"`
	Postgres *PoolConfig `yaml:"postgres" mapstructure:"postgres"`
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "consolidador.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN, cfg.Postgres)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
