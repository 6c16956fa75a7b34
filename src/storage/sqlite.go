package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bitcoin-abm/src/logger"
	"bitcoin-abm/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteRunStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteRunStore(cfg *models.MConfig) *SQLiteRunStore {
	return &SQLiteRunStore{
		Config: cfg,
		Logger: logger.NewLogger("SQLiteStore"),
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteRunStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables builds the run and snapshot tables. Runs survive restarts,
// so existing tables are kept, not recreated.
func (d *SQLiteRunStore) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			scenario_id TEXT,
			params TEXT,
			started_at INTEGER
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create runs: %w", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT,
			step INTEGER,
			block_height INTEGER,
			hashrate REAL,
			difficulty REAL,
			mempool_size INTEGER,
			avg_fee REAL,
			blocks_mined INTEGER,
			transactions_processed INTEGER,
			bips_proposed INTEGER,
			PRIMARY KEY (run_id, step)
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create snapshots: %w", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteRunStore) BeginRun(scenarioID string, params models.MParams) (string, error) {
	if params == nil {
		params = models.MParams{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode params: %w", err)
	}

	id := uuid.NewString()
	_, err = d.DB.Exec(`
		INSERT INTO runs (id, scenario_id, params, started_at)
		VALUES (?, ?, ?, ?)
	`, id, scenarioID, string(encoded), time.Now().UTC().Unix())
	if err != nil {
		return "", err
	}

	return id, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteRunStore) AppendSnapshots(runID string, snaps []models.MSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO snapshots (run_id, step, block_height, hashrate, difficulty, mempool_size, avg_fee, blocks_mined, transactions_processed, bips_proposed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
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

func (d *SQLiteRunStore) ListRuns(limit int) ([]models.MRunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := d.DB.Query(`
		SELECT r.id, r.scenario_id, r.params, r.started_at, COUNT(s.step)
		FROM runs r
		LEFT JOIN snapshots s ON s.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteRunStore) PruneRuns(keep int) error {
	if keep < 0 {
		keep = 0
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM snapshots WHERE run_id IN (
			SELECT id FROM runs ORDER BY started_at DESC, id LIMIT -1 OFFSET ?
		)
	`, keep)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM runs WHERE id IN (
			SELECT id FROM runs ORDER BY started_at DESC, id LIMIT -1 OFFSET ?
		)
	`, keep)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *SQLiteRunStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------

// scanRuns decodes run rows shared by both backends.
func scanRuns(rows *sql.Rows) ([]models.MRunRecord, error) {
	records := make([]models.MRunRecord, 0)

	for rows.Next() {
		var rec models.MRunRecord
		var encoded string
		var startedAt int64

		if err := rows.Scan(&rec.ID, &rec.ScenarioID, &encoded, &startedAt, &rec.Snapshots); err != nil {
			return nil, err
		}

		rec.StartedAt = time.Unix(startedAt, 0).UTC()
		rec.Params = models.MParams{}
		if encoded != "" {
			if err := json.Unmarshal([]byte(encoded), &rec.Params); err != nil {
				return nil, fmt.Errorf("failed to decode params for run %s: %w", rec.ID, err)
			}
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}
