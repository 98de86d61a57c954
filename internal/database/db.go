package database

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/matchminer/internal/model"
)

// DB represents a database connection
type DB struct {
	*sqlx.DB
	logger zerolog.Logger
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the lib/pq connection string.
func (p ConnectionParams) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

// New creates a new database connection, retrying the first ping with
// exponential backoff, and creates the tables if needed.
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	return connect(ctx, "postgres", params.DSN(), b)
}

func connect(ctx context.Context, driverName, dsn string, b backoff.BackOff) (*DB, error) {
	conn, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := Wrap(conn)
	attempt := 0
	operation := func() error {
		attempt++
		if err := conn.PingContext(ctx); err != nil {
			db.logger.Warn().Err(err).Int("attempt", attempt).Msg("Database ping failed")
			return err
		}
		return nil
	}
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
	}

	if err := db.createTables(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Wrap adopts an open connection.
func Wrap(conn *sqlx.DB) *DB {
	return &DB{DB: conn, logger: log.With().Str("component", "database").Logger()}
}

// createTables creates the necessary tables if they don't exist
func (db *DB) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id TEXT PRIMARY KEY,
			generated_at TIMESTAMPTZ NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			total_records INTEGER NOT NULL,
			total_findings INTEGER NOT NULL,
			excellent INTEGER NOT NULL,
			good INTEGER NOT NULL,
			acceptable INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS findings (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
			analysis TEXT NOT NULL,
			rank INTEGER NOT NULL,
			group_name TEXT NOT NULL DEFAULT '',
			segment TEXT NOT NULL,
			outcome TEXT NOT NULL,
			label TEXT NOT NULL,
			precision_pct DOUBLE PRECISION NOT NULL,
			sample_size INTEGER NOT NULL,
			hit_count INTEGER NOT NULL,
			mean_value DOUBLE PRECISION,
			tier TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS findings_run_id_idx ON findings (run_id)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

type findingRow struct {
	RunID    string `db:"run_id"`
	Analysis string `db:"analysis"`
	Rank     int    `db:"rank"`
	model.Finding
}

const insertRun = `
	INSERT INTO analysis_runs
		(run_id, generated_at, source, total_records, total_findings, excellent, good, acceptable)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertFinding = `
	INSERT INTO findings
		(run_id, analysis, rank, group_name, segment, outcome, label,
		 precision_pct, sample_size, hit_count, mean_value, tier)
	VALUES
		(:run_id, :analysis, :rank, :group_name, :segment, :outcome, :label,
		 :precision_pct, :sample_size, :hit_count, :mean_value, :tier)`

// SaveReport stores a run and all of its findings in one transaction.
func (db *DB) SaveReport(ctx context.Context, report *model.Report) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	s := report.Summary
	if _, err = tx.ExecContext(ctx, insertRun,
		report.RunID, report.GeneratedAt, report.Source, report.TotalRecords,
		s.Total, s.Excellent, s.Good, s.Acceptable,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	saved := 0
	for _, a := range report.Analyses {
		for i, f := range a.Findings {
			row := findingRow{RunID: report.RunID, Analysis: a.Name, Rank: i + 1, Finding: f}
			if _, err = tx.NamedExecContext(ctx, insertFinding, row); err != nil {
				return fmt.Errorf("failed to insert finding %d of %s: %w", i+1, a.Name, err)
			}
			saved++
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit report: %w", err)
	}
	db.logger.Info().Str("run_id", report.RunID).Int("findings", saved).Msg("Report saved")
	return nil
}

const selectLatest = `
	SELECT group_name, segment, outcome, label, precision_pct, sample_size, hit_count, mean_value, tier
	FROM findings
	WHERE run_id = (SELECT run_id FROM analysis_runs ORDER BY generated_at DESC LIMIT 1)
	ORDER BY precision_pct DESC, sample_size DESC, analysis, rank
	LIMIT $1`

// LatestFindings returns the best findings of the most recent run.
func (db *DB) LatestFindings(ctx context.Context, limit int) ([]model.Finding, error) {
	var findings []model.Finding
	if err := db.SelectContext(ctx, &findings, selectLatest, limit); err != nil {
		return nil, fmt.Errorf("failed to load latest findings: %w", err)
	}
	return findings, nil
}
