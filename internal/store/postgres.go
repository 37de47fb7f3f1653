package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/consolidador-t25/tarifas-cli/internal/db"
	"github.com/consolidador-t25/tarifas-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":   `INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
	"finish_run":   `UPDATE runs SET status = $1, processed = $2, succeeded = $3, failed = $4, no_annex = $5, finished_at = $6 WHERE id = $7`,
	"get_run":      `SELECT id, status, processed, succeeded, failed, no_annex, started_at, finished_at FROM runs WHERE id = $1`,
	"insert_alert": `INSERT INTO alerts (id, run_id, kind, message, file, contract, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
}

// serviceColumns is the column order used by the COPY bulk insert.
var serviceColumns = []string{
	"id", "run_id", "contract", "year", "service_code", "description",
	"homologous_code", "unit_tariff", "tariff_manual", "tariff_percentage",
	"registration_code", "site_number", "origin", "observations",
	"source_file", "source_sheet",
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	status      TEXT NOT NULL DEFAULT 'running',
	processed   INTEGER NOT NULL DEFAULT 0,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	no_annex    INTEGER NOT NULL DEFAULT 0,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS services (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id            TEXT NOT NULL REFERENCES runs(id),
	contract          TEXT NOT NULL,
	year              TEXT NOT NULL,
	service_code      TEXT NOT NULL,
	description       TEXT,
	homologous_code   TEXT,
	unit_tariff       DOUBLE PRECISION,
	tariff_manual     TEXT,
	tariff_percentage TEXT,
	registration_code TEXT,
	site_number       TEXT,
	origin            TEXT,
	observations      TEXT,
	source_file       TEXT,
	source_sheet      TEXT
);

CREATE TABLE IF NOT EXISTS alerts (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	kind       TEXT NOT NULL,
	message    TEXT NOT NULL,
	file       TEXT,
	contract   TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_services_run_id ON services(run_id);
CREATE INDEX IF NOT EXISTS idx_services_contract ON services(run_id, contract);
CREATE INDEX IF NOT EXISTS idx_alerts_run_id ON alerts(run_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, result *model.ConsolidationResult) error {
	status := model.RunStatusComplete
	if !result.Success {
		status = model.RunStatusFailed
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, processed = $2, succeeded = $3, failed = $4, no_annex = $5, finished_at = $6 WHERE id = $7`,
		string(status), result.Processed, result.Succeeded, result.Failed, result.NoAnnex, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var finished *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, status, processed, succeeded, failed, no_annex, started_at, finished_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Status, &r.Processed, &r.Succeeded, &r.Failed, &r.NoAnnex, &r.StartedAt, &finished)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	r.FinishedAt = finished
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, processed, succeeded, failed, no_annex, started_at, finished_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var finished *time.Time
		if err := rows.Scan(&r.ID, &r.Status, &r.Processed, &r.Succeeded, &r.Failed, &r.NoAnnex, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.FinishedAt = finished
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) InsertServices(ctx context.Context, runID string, records []model.ServiceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		var tariff any
		if rec.UnitTariff != nil {
			tariff = *rec.UnitTariff
		}
		rows = append(rows, []any{
			uuid.New().String(), runID, rec.ContractID, rec.Year, rec.ServiceCode,
			rec.Description, rec.HomologousCode, tariff, rec.TariffManual,
			rec.TariffPercentage, rec.RegistrationCode, rec.SiteNumber, rec.Origin,
			rec.Observations, rec.SourceFile, rec.SourceSheet,
		})
	}

	n, err := db.CopyFrom(ctx, s.pool, "services", serviceColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert services")
	}
	return int(n), nil
}

func (s *PostgresStore) InsertAlerts(ctx context.Context, runID string, alerts []model.Alert) error {
	for _, a := range alerts {
		ts := a.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO alerts (id, run_id, kind, message, file, contract, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New().String(), runID, string(a.Kind), a.Message, a.File, a.Contract, ts,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert alert %s", a.Kind)
		}
	}
	return nil
}

func (s *PostgresStore) ServicesByContract(ctx context.Context, runID, contract string) ([]model.ServiceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT contract, year, service_code, description, homologous_code, unit_tariff,
		        tariff_manual, tariff_percentage, registration_code, site_number, origin,
		        observations, source_file, source_sheet
		 FROM services WHERE run_id = $1 AND contract = $2
		 ORDER BY source_sheet, service_code`,
		runID, contract,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: services by contract")
	}
	defer rows.Close()

	var records []model.ServiceRecord
	for rows.Next() {
		var rec model.ServiceRecord
		var tariff *float64
		if err := rows.Scan(&rec.ContractID, &rec.Year, &rec.ServiceCode, &rec.Description,
			&rec.HomologousCode, &tariff, &rec.TariffManual, &rec.TariffPercentage,
			&rec.RegistrationCode, &rec.SiteNumber, &rec.Origin, &rec.Observations,
			&rec.SourceFile, &rec.SourceSheet); err != nil {
			return nil, eris.Wrap(err, "postgres: scan service")
		}
		rec.UnitTariff = tariff
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: services iterate")
}
