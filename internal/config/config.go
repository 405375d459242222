// Package config holds the product catalog and application settings.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the fixed forecasting configuration: the product catalog,
// per-product loss percentages, and the epoch date the fitted models are
// anchored to. It is read once at startup and treated as immutable.
type Config struct {
	// Products is the fixed catalog of forecastable product IDs.
	Products []string `json:"products"`

	// Losses maps product ID to its static loss percentage (0-100),
	// the fraction of sold units never collected as revenue.
	Losses map[string]float64 `json:"losses"`

	// EpochDate is the calendar date (YYYY-MM-DD) at which the last
	// observed series values are anchored. Forecast horizons are
	// measured from this date.
	EpochDate string `json:"epoch_date"`

	ModelDBPath   string `json:"model_db_path"`
	HistoryDBPath string `json:"history_db_path"`
	Port          int    `json:"port"`
}

// Default returns the reference deployment configuration.
func Default() *Config {
	return &Config{
		Products: []string{"P001", "P002", "P003", "P004", "P007", "P012"},
		Losses: map[string]float64{
			"P001": 2.0,
			"P002": 6.0,
			"P003": 0.0,
			"P004": 8.0,
			"P007": 6.0,
			"P012": 5.0,
		},
		EpochDate:     "2025-06-18",
		ModelDBPath:   "models.db",
		HistoryDBPath: "forecaster.db",
		Port:          13371,
	}
}

// Load returns the default config with environment overrides applied.
// Call godotenv.Load first if a .env file should be honored.
func Load() *Config {
	cfg := Default()
	if v := os.Getenv("MODEL_DB_PATH"); v != "" {
		cfg.ModelDBPath = v
	}
	if v := os.Getenv("HISTORY_DB_PATH"); v != "" {
		cfg.HistoryDBPath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	return cfg
}

// Epoch returns the epoch date as a UTC midnight time.
func (c *Config) Epoch() time.Time {
	t, _ := time.Parse("2006-01-02", c.EpochDate)
	return t
}

// HasProduct reports whether id belongs to the catalog.
func (c *Config) HasProduct(id string) bool {
	for _, p := range c.Products {
		if p == id {
			return true
		}
	}
	return false
}
