// Package store loads pre-fitted forecasting models and per-product series
// statistics from a SQLite model artifact. The store is read-only after
// load and safe for concurrent use.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"stock-forecaster/internal/logger"
	"stock-forecaster/internal/model"

	_ "modernc.org/sqlite"
)

// Price types a model can be fitted for.
const (
	PriceCost    = "cost"
	PriceSelling = "selling"
)

// NotFoundError reports a model or its series statistics missing for a
// product/price-type pair. For catalog-valid products this signals a
// corrupted or mismatched model artifact, not a caller mistake.
type NotFoundError struct {
	Product   string
	PriceType string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no fitted %s model for product %s", e.PriceType, e.Product)
}

type storeKey struct {
	Product   string
	PriceType string
}

// entry pairs a loaded model's parameters with the last observed absolute
// value of its series before differencing.
type entry struct {
	Coefficients      []float64
	Intercept         float64
	DriverCoefficient float64
	Lags              []float64
	LastValue         float64
}

// Store holds every fitted model in memory, keyed by product and price type.
type Store struct {
	entries map[storeKey]entry
}

// Open reads the model artifact at path, creating and seeding it with the
// reference deployment models when empty, and loads everything into memory.
// The database handle is released before Open returns.
func Open(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open model artifact: %w", err)
	}
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping model artifact: %w", err)
	}
	if err := migrate(sqlDB); err != nil {
		return nil, fmt.Errorf("migrate model artifact: %w", err)
	}
	if err := seedIfEmpty(sqlDB); err != nil {
		return nil, fmt.Errorf("seed model artifact: %w", err)
	}

	s := &Store{entries: make(map[storeKey]entry)}
	if err := s.load(sqlDB); err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	logger.Success("Store", fmt.Sprintf("Loaded %d fitted models from %s", len(s.entries), path))
	return s, nil
}

func migrate(sqlDB *sql.DB) error {
	version := 0
	sqlDB.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := sqlDB.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS fitted_models (
				product            TEXT NOT NULL,
				price_type         TEXT NOT NULL,
				intercept          REAL NOT NULL,
				driver_coefficient REAL NOT NULL DEFAULT 0,
				coefficients       TEXT NOT NULL,
				lags               TEXT NOT NULL,
				PRIMARY KEY (product, price_type)
			);

			CREATE TABLE IF NOT EXISTS series_statistics (
				product    TEXT NOT NULL,
				price_type TEXT NOT NULL,
				last_value REAL NOT NULL,
				PRIMARY KEY (product, price_type)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) load(sqlDB *sql.DB) error {
	rows, err := sqlDB.Query(`
		SELECT m.product, m.price_type, m.intercept, m.driver_coefficient,
		       m.coefficients, m.lags, st.last_value
		FROM fitted_models m
		JOIN series_statistics st
		  ON st.product = m.product AND st.price_type = m.price_type
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key               storeKey
			e                 entry
			coefJSON, lagJSON string
		)
		if err := rows.Scan(&key.Product, &key.PriceType, &e.Intercept,
			&e.DriverCoefficient, &coefJSON, &lagJSON, &e.LastValue); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(coefJSON), &e.Coefficients); err != nil {
			return fmt.Errorf("product %s %s coefficients: %w", key.Product, key.PriceType, err)
		}
		if err := json.Unmarshal([]byte(lagJSON), &e.Lags); err != nil {
			return fmt.Errorf("product %s %s lags: %w", key.Product, key.PriceType, err)
		}
		s.entries[key] = e
	}
	return rows.Err()
}

// CostModel returns the cost price model and the last observed cost value
// for a product.
func (s *Store) CostModel(product string) (model.Forecaster, float64, error) {
	e, ok := s.entries[storeKey{product, PriceCost}]
	if !ok {
		return nil, 0, &NotFoundError{Product: product, PriceType: PriceCost}
	}
	return &model.AR{
		Coefficients: e.Coefficients,
		Intercept:    e.Intercept,
		Lags:         e.Lags,
	}, e.LastValue, nil
}

// SellingModel returns the selling price model and the last observed
// selling value for a product. Selling models are conditioned on the cost
// increments at forecast time.
func (s *Store) SellingModel(product string) (model.DrivenForecaster, float64, error) {
	e, ok := s.entries[storeKey{product, PriceSelling}]
	if !ok {
		return nil, 0, &NotFoundError{Product: product, PriceType: PriceSelling}
	}
	return &model.ARX{
		AR: model.AR{
			Coefficients: e.Coefficients,
			Intercept:    e.Intercept,
			Lags:         e.Lags,
		},
		DriverCoefficient: e.DriverCoefficient,
	}, e.LastValue, nil
}

// Len returns the number of loaded model entries.
func (s *Store) Len() int {
	return len(s.entries)
}
