package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hyperifyio/gopricing/internal/batch"
)

const dbName = "results.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    run_id          INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at      TEXT NOT NULL,
    elapsed_seconds REAL NOT NULL,
    item_count      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    item_id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id          INTEGER NOT NULL REFERENCES runs(run_id),
    target          TEXT NOT NULL,
    region          TEXT NOT NULL,
    url             TEXT,
    status          TEXT NOT NULL,
    tier            TEXT NOT NULL,
    confidence      TEXT NOT NULL,
    plan_count      INTEGER NOT NULL,
    error           TEXT,
    extraction_json TEXT,
    elapsed_seconds REAL NOT NULL,
    record_path     TEXT
);

CREATE INDEX IF NOT EXISTS idx_items_target_region ON items(target, region);
`

// Store persists batch outcomes twice over: one JSON record file per work
// item for downstream consumers, and a sqlite index for querying across
// runs.
type Store struct {
	db  *sql.DB
	dir string
}

// Open creates the results directory if needed and opens (or initializes)
// the sqlite index inside it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, dbName))
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, dir: dir}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch writes one JSON record per item plus the sqlite rows for the
// run, and returns the record file paths in item order.
func (s *Store) SaveBatch(ctx context.Context, started time.Time, res batch.Result) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runRow, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, elapsed_seconds, item_count) VALUES (?, ?, ?)`,
		started.UTC().Format(time.RFC3339), res.Elapsed.Seconds(), len(res.Items))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	runID, err := runRow.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}

	stamp := started.UTC().Format("20060102_150405")
	paths := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		record, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal record %s/%s: %w", item.Target, item.Region, err)
		}
		name := fmt.Sprintf("%s_%s_%s.json", item.Target, item.Region, stamp)
		path := filepath.Join(s.dir, name)
		if err := os.WriteFile(path, record, 0o644); err != nil {
			return nil, fmt.Errorf("write record %s: %w", name, err)
		}
		paths = append(paths, path)

		var extJSON any
		if item.Extraction != nil {
			b, err := json.Marshal(item.Extraction)
			if err != nil {
				return nil, fmt.Errorf("marshal extraction %s/%s: %w", item.Target, item.Region, err)
			}
			extJSON = string(b)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (run_id, target, region, url, status, tier, confidence, plan_count, error, extraction_json, elapsed_seconds, record_path)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, item.Target, item.Region, item.URL, string(item.Status), item.Tier,
			string(item.Confidence), item.PlanCount, nullable(item.Error), extJSON,
			item.ElapsedSeconds, path); err != nil {
			return nil, fmt.Errorf("insert item %s/%s: %w", item.Target, item.Region, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return paths, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
