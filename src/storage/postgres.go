package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"bitcoin-abm/src/helpers"
	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresRunStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresRunStore(cfg *models.MConfig) (*PostgresRunStore, error) {
	// Executable name doubles as the schema so several deployments can
	// share one database
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresRunStore{
		Config: cfg,
		Schema: name,
		Logger: logger.NewLogger("PostgresStore"),
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresRunStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	// The database may still be coming up when the service starts
	if _, err := helpers.RetryWithBackoff("postgres ping", 3, 500*time.Millisecond, func() (interface{}, error) {
		return nil, db.Ping()
	}); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresRunStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresRunStore) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."runs" (
			id TEXT PRIMARY KEY,
			scenario_id TEXT,
			params TEXT,
			started_at BIGINT
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create runs: %w", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."snapshots" (
			run_id TEXT,
			step BIGINT,
			block_height BIGINT,
			hashrate DOUBLE PRECISION,
			difficulty DOUBLE PRECISION,
			mempool_size BIGINT,
			avg_fee DOUBLE PRECISION,
			blocks_mined BIGINT,
			transactions_processed BIGINT,
			bips_proposed BIGINT,
			PRIMARY KEY (run_id, step)
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create snapshots: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresRunStore) BeginRun(scenarioID string, params models.MParams) (string, error) {
	if params == nil {
		params = models.MParams{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}

	id := uuid.NewString()
	query := fmt.Sprintf(`
		INSERT INTO "%s"."runs" (id, scenario_id, params, started_at)
		VALUES ($1, $2, $3, $4)
	`, d.Schema)
	if _, err := d.DB.Exec(query, id, scenarioID, string(encoded), time.Now().UTC().Unix()); err != nil {
		return "", err
	}

	return id, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresRunStore) AppendSnapshots(runID string, snaps []models.MSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO "%s"."snapshots" (run_id, step, block_height, hashrate, difficulty, mempool_size, avg_fee, blocks_mined, transactions_processed, bips_proposed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, d.Schema))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range snaps {
		_, err := stmt.Exec(runID, s.Step, s.Metrics.BlockHeight, s.Metrics.Hashrate, s.Metrics.Difficulty,
			s.Metrics.MempoolSize, s.Metrics.AvgFee, s.Activity.BlocksMined, s.Activity.TransactionsProcessed, s.Activity.BipsProposed)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresRunStore) ListRuns(limit int) ([]models.MRunRecord, error) {
	limitClause := "ALL"
	if limit > 0 {
		limitClause = fmt.Sprintf("%d", limit)
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.scenario_id, r.params, r.started_at, COUNT(s.step)
		FROM "%s"."runs" r
		LEFT JOIN "%s"."snapshots" s ON s.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id
		LIMIT %s
	`, d.Schema, d.Schema, limitClause)

	rows, err := d.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresRunStore) PruneRuns(keep int) error {
	if keep < 0 {
		keep = 0
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		DELETE FROM "%s"."snapshots" WHERE run_id IN (
			SELECT id FROM "%s"."runs" ORDER BY started_at DESC, id OFFSET $1
		)
	`, d.Schema, d.Schema)
	if _, err := tx.Exec(query, keep); err != nil {
		return err
	}

	query = fmt.Sprintf(`
		DELETE FROM "%s"."runs" WHERE id IN (
			SELECT id FROM "%s"."runs" ORDER BY started_at DESC, id OFFSET $1
		)
	`, d.Schema, d.Schema)
	if _, err := tx.Exec(query, keep); err != nil {
		return err
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresRunStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
