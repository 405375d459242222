// Package db persists forecast run history in SQLite.
package db

import (
	"database/sql"
	"fmt"

	"stock-forecaster/internal/logger"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite history database.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the history database at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS forecast_history (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp       TEXT NOT NULL,
				start_date      TEXT NOT NULL,
				end_date        TEXT NOT NULL,
				products_json   TEXT NOT NULL,
				product_count   INTEGER NOT NULL,
				total_sales     REAL NOT NULL,
				total_sales_excluding_lost REAL NOT NULL,
				total_costs     REAL NOT NULL,
				total_profit    REAL NOT NULL,
				highest_selling TEXT NOT NULL,
				highest_profit  TEXT NOT NULL,
				highest_loss    TEXT NOT NULL,
				duration_ms     INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_forecast_history_ts ON forecast_history(timestamp);

			CREATE TABLE IF NOT EXISTS analysis_results (
				id                    INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id                INTEGER NOT NULL REFERENCES forecast_history(id),
				product               TEXT NOT NULL,
				end_selling_price     REAL NOT NULL,
				end_cost_price        REAL NOT NULL,
				avg_selling_price     REAL NOT NULL,
				avg_cost_price        REAL NOT NULL,
				total_sales           REAL NOT NULL,
				total_costs           REAL NOT NULL,
				profit_percentage     REAL NOT NULL,
				sales_excluding_lost  REAL NOT NULL,
				profit_excluding_lost REAL NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_analysis_run ON analysis_results(run_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return err
		}
	}
	return nil
}
