package db

import (
	"encoding/json"
	"log"
	"time"

	"stock-forecaster/internal/analysis"
)

// RunRecord represents one stored forecast run.
type RunRecord struct {
	ID             int64    `json:"id"`
	Timestamp      string   `json:"timestamp"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	Products       []string `json:"products"`
	ProductCount   int      `json:"product_count"`
	TotalSales     float64  `json:"total_sales"`
	TotalSalesExcl float64  `json:"total_sales_excluding_lost"`
	TotalCosts     float64  `json:"total_costs"`
	TotalProfit    float64  `json:"total_profit"`
	HighestSelling string   `json:"highest_selling"`
	HighestProfit  string   `json:"highest_profit"`
	HighestLoss    string   `json:"highest_loss"`
	DurationMs     int64    `json:"duration_ms"`
}

// InsertRun stores a forecast run and its per-product analysis rows,
// returning the run ID. A zero return means the insert failed; history is
// best-effort and never blocks a forecast response.
func (d *DB) InsertRun(start, end time.Time, products []string, agg *analysis.Aggregate, durationMs int64) int64 {
	productsJSON, _ := json.Marshal(products)
	result, err := d.sql.Exec(`INSERT INTO forecast_history (
			timestamp, start_date, end_date, products_json, product_count,
			total_sales, total_sales_excluding_lost, total_costs, total_profit,
			highest_selling, highest_profit, highest_loss, duration_ms
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Format(time.RFC3339),
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		string(productsJSON), len(products),
		agg.Cumulative.TotalSales, agg.Cumulative.TotalSalesExcludingLost,
		agg.Cumulative.TotalCosts, agg.Cumulative.TotalProfitPercent,
		agg.Rankings.HighestSelling, agg.Rankings.HighestProfit, agg.Rankings.HighestLoss,
		durationMs,
	)
	if err != nil {
		log.Printf("[DB] InsertRun: %v", err)
		return 0
	}
	runID, _ := result.LastInsertId()

	tx, err := d.sql.Begin()
	if err != nil {
		log.Printf("[DB] InsertRun begin tx: %v", err)
		return runID
	}
	stmt, err := tx.Prepare(`INSERT INTO analysis_results (
			run_id, product, end_selling_price, end_cost_price,
			avg_selling_price, avg_cost_price, total_sales, total_costs,
			profit_percentage, sales_excluding_lost, profit_excluding_lost
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		log.Printf("[DB] InsertRun prepare: %v", err)
		return runID
	}
	defer stmt.Close()

	for _, pa := range agg.Products {
		stmt.Exec(runID, pa.Product, pa.EndSellingPrice, pa.EndCostPrice,
			pa.AvgSellingPrice, pa.AvgCostPrice, pa.TotalSales, pa.TotalCosts,
			pa.ProfitPercent, pa.SalesExcludingLost, pa.ProfitExcludingLost)
	}
	if err := tx.Commit(); err != nil {
		log.Printf("[DB] InsertRun commit: %v", err)
	}
	return runID
}

// GetRuns returns the last N forecast runs (newest first).
func (d *DB) GetRuns(limit int) []RunRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(`
		SELECT id, timestamp, start_date, end_date, products_json, product_count,
		       total_sales, total_sales_excluding_lost, total_costs, total_profit,
		       highest_selling, highest_profit, highest_loss, duration_ms
		FROM forecast_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return []RunRecord{}
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		if r, ok := scanRun(rows); ok {
			records = append(records, r)
		}
	}
	return records
}

// GetRun returns one forecast run by ID.
func (d *DB) GetRun(id int64) (RunRecord, bool) {
	rows, err := d.sql.Query(`
		SELECT id, timestamp, start_date, end_date, products_json, product_count,
		       total_sales, total_sales_excluding_lost, total_costs, total_profit,
		       highest_selling, highest_profit, highest_loss, duration_ms
		FROM forecast_history WHERE id = ?`, id)
	if err != nil {
		return RunRecord{}, false
	}
	defer rows.Close()
	if !rows.Next() {
		return RunRecord{}, false
	}
	return scanRun(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(rows rowScanner) (RunRecord, bool) {
	var r RunRecord
	var productsStr string
	if err := rows.Scan(&r.ID, &r.Timestamp, &r.StartDate, &r.EndDate,
		&productsStr, &r.ProductCount,
		&r.TotalSales, &r.TotalSalesExcl, &r.TotalCosts, &r.TotalProfit,
		&r.HighestSelling, &r.HighestProfit, &r.HighestLoss, &r.DurationMs); err != nil {
		return RunRecord{}, false
	}
	json.Unmarshal([]byte(productsStr), &r.Products)
	return r, true
}

// GetRunAnalysis rebuilds the stored Aggregate for a run.
func (d *DB) GetRunAnalysis(runID int64) (*analysis.Aggregate, bool) {
	run, ok := d.GetRun(runID)
	if !ok {
		return nil, false
	}
	rows, err := d.sql.Query(`
		SELECT product, end_selling_price, end_cost_price, avg_selling_price,
		       avg_cost_price, total_sales, total_costs, profit_percentage,
		       sales_excluding_lost, profit_excluding_lost
		FROM analysis_results WHERE run_id = ?`, runID)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	agg := &analysis.Aggregate{
		Products: make(map[string]analysis.ProductAnalysis),
		Cumulative: analysis.Cumulative{
			TotalSales:              run.TotalSales,
			TotalSalesExcludingLost: run.TotalSalesExcl,
			TotalCosts:              run.TotalCosts,
			TotalProfitPercent:      run.TotalProfit,
		},
		Rankings: analysis.Rankings{
			HighestSelling: run.HighestSelling,
			HighestProfit:  run.HighestProfit,
			HighestLoss:    run.HighestLoss,
		},
	}
	for rows.Next() {
		var pa analysis.ProductAnalysis
		if err := rows.Scan(&pa.Product, &pa.EndSellingPrice, &pa.EndCostPrice,
			&pa.AvgSellingPrice, &pa.AvgCostPrice, &pa.TotalSales, &pa.TotalCosts,
			&pa.ProfitPercent, &pa.SalesExcludingLost, &pa.ProfitExcludingLost); err != nil {
			continue
		}
		agg.Products[pa.Product] = pa
	}
	if len(agg.Products) == 0 {
		return nil, false
	}
	return agg, true
}

// DeleteRun removes a run and its analysis rows.
func (d *DB) DeleteRun(id int64) {
	d.sql.Exec("DELETE FROM analysis_results WHERE run_id = ?", id)
	d.sql.Exec("DELETE FROM forecast_history WHERE id = ?", id)
}

// ClearRuns removes all history.
func (d *DB) ClearRuns() {
	d.sql.Exec("DELETE FROM analysis_results")
	d.sql.Exec("DELETE FROM forecast_history")
}
