package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/consolidador-t25/tarifas-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	processed   INTEGER NOT NULL DEFAULT 0,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	no_annex    INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS services (
	id                TEXT PRIMARY KEY,
	run_id            TEXT NOT NULL REFERENCES runs(id),
	contract          TEXT NOT NULL,
	year              TEXT NOT NULL,
	service_code      TEXT NOT NULL,
	description       TEXT,
	homologous_code   TEXT,
	unit_tariff       REAL,
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
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	kind       TEXT NOT NULL,
	message    TEXT NOT NULL,
	file       TEXT,
	contract   TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_services_run_id ON services(run_id);
CREATE INDEX IF NOT EXISTS idx_services_contract ON services(run_id, contract);
CREATE INDEX IF NOT EXISTS idx_alerts_run_id ON alerts(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		id, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, result *model.ConsolidationResult) error {
	status := model.RunStatusComplete
	if !result.Success {
		status = model.RunStatusFailed
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, processed = ?, succeeded = ?, failed = ?, no_annex = ?, finished_at = ? WHERE id = ?`,
		string(status), result.Processed, result.Succeeded, result.Failed, result.NoAnnex, now, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, processed, succeeded, failed, no_annex, started_at, finished_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, processed, succeeded, failed, no_annex, started_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) InsertServices(ctx context.Context, runID string, records []model.ServiceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert services")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO services
		 (id, run_id, contract, year, service_code, description, homologous_code, unit_tariff,
		  tariff_manual, tariff_percentage, registration_code, site_number, origin, observations,
		  source_file, source_sheet)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert services")
	}
	defer stmt.Close()

	for _, rec := range records {
		var tariff any
		if rec.UnitTariff != nil {
			tariff = *rec.UnitTariff
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, rec.ContractID, rec.Year, rec.ServiceCode,
			rec.Description, rec.HomologousCode, tariff, rec.TariffManual,
			rec.TariffPercentage, rec.RegistrationCode, rec.SiteNumber, rec.Origin,
			rec.Observations, rec.SourceFile, rec.SourceSheet,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert service %s", rec.ServiceCode)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert services")
	}
	return len(records), nil
}

func (s *SQLiteStore) InsertAlerts(ctx context.Context, runID string, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert alerts")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO alerts (id, run_id, kind, message, file, contract, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert alerts")
	}
	defer stmt.Close()

	for _, a := range alerts {
		ts := a.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, string(a.Kind), a.Message, a.File, a.Contract, ts,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert alert %s", a.Kind)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert alerts")
}

func (s *SQLiteStore) ServicesByContract(ctx context.Context, runID, contract string) ([]model.ServiceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contract, year, service_code, description, homologous_code, unit_tariff,
		        tariff_manual, tariff_percentage, registration_code, site_number, origin,
		        observations, source_file, source_sheet
		 FROM services WHERE run_id = ? AND contract = ?
		 ORDER BY source_sheet, service_code`,
		runID, contract,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: services by contract")
	}
	defer rows.Close()

	var records []model.ServiceRecord
	for rows.Next() {
		rec, err := scanService(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan service")
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: services iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var finished sql.NullTime

	err := row.Scan(&r.ID, &r.Status, &r.Processed, &r.Succeeded, &r.Failed, &r.NoAnnex, &r.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return &r, nil
}

func scanService(row scannable) (*model.ServiceRecord, error) {
	var rec model.ServiceRecord
	var tariff sql.NullFloat64

	err := row.Scan(&rec.ContractID, &rec.Year, &rec.ServiceCode, &rec.Description,
		&rec.HomologousCode, &tariff, &rec.TariffManual, &rec.TariffPercentage,
		&rec.RegistrationCode, &rec.SiteNumber, &rec.Origin, &rec.Observations,
		&rec.SourceFile, &rec.SourceSheet)
	if err != nil {
		return nil, err
	}
	if tariff.Valid {
		v := tariff.Float64
		rec.UnitTariff = &v
	}
	return &rec, nil
}
