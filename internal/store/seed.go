package store

import (
	"database/sql"
	"encoding/json"

	"stock-forecaster/internal/logger"
)

// seedModel is one reference-deployment fitted model row.
type seedModel struct {
	Product           string
	PriceType         string
	Intercept         float64
	DriverCoefficient float64
	Coefficients      []float64
	Lags              []float64
	LastValue         float64
}

// referenceModels are the fitted models of the reference deployment: an
// AR(2) on the differenced cost series per product, and an ARX(2) on the
// differenced selling series driven by the cost increments.
var referenceModels = []seedModel{
	{"P001", PriceCost, 0.34, 0, []float64{0.42, -0.17}, []float64{1.85, -0.62}, 1250.00},
	{"P001", PriceSelling, 0.21, 0.86, []float64{0.31, -0.12}, []float64{2.10, -0.45}, 1495.00},
	{"P002", PriceCost, 0.18, 0, []float64{0.38, -0.09}, []float64{0.95, 0.40}, 860.50},
	{"P002", PriceSelling, 0.12, 0.91, []float64{0.27, -0.08}, []float64{1.15, 0.28}, 1020.75},
	{"P003", PriceCost, 0.09, 0, []float64{0.45, -0.21}, []float64{0.52, -0.18}, 432.25},
	{"P003", PriceSelling, 0.06, 0.78, []float64{0.33, -0.15}, []float64{0.64, -0.22}, 519.00},
	{"P004", PriceCost, 0.88, 0, []float64{0.36, -0.11}, []float64{3.40, -1.10}, 2150.00},
	{"P004", PriceSelling, 0.54, 0.82, []float64{0.29, -0.10}, []float64{3.95, -0.85}, 2580.00},
	{"P007", PriceCost, 0.07, 0, []float64{0.41, -0.19}, []float64{0.38, 0.12}, 315.75},
	{"P007", PriceSelling, 0.05, 0.88, []float64{0.30, -0.13}, []float64{0.46, 0.09}, 379.50},
	{"P012", PriceCost, 1.42, 0, []float64{0.39, -0.14}, []float64{6.20, -2.35}, 5480.00},
	{"P012", PriceSelling, 0.96, 0.80, []float64{0.28, -0.09}, []float64{7.10, -1.90}, 6320.00},
}

// seedIfEmpty populates an empty artifact with the reference models so the
// server is runnable out of the box. An artifact with any rows is left alone.
func seedIfEmpty(sqlDB *sql.DB) error {
	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM fitted_models").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := sqlDB.Begin()
	if err != nil {
		return err
	}
	modelStmt, err := tx.Prepare(`INSERT INTO fitted_models
		(product, price_type, intercept, driver_coefficient, coefficients, lags)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer modelStmt.Close()
	statsStmt, err := tx.Prepare(`INSERT INTO series_statistics
		(product, price_type, last_value) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer statsStmt.Close()

	for _, m := range referenceModels {
		coefJSON, _ := json.Marshal(m.Coefficients)
		lagJSON, _ := json.Marshal(m.Lags)
		if _, err := modelStmt.Exec(m.Product, m.PriceType, m.Intercept,
			m.DriverCoefficient, string(coefJSON), string(lagJSON)); err != nil {
			tx.Rollback()
			return err
		}
		if _, err := statsStmt.Exec(m.Product, m.PriceType, m.LastValue); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Info("Store", "Seeded empty model artifact with reference deployment models")
	return nil
}
