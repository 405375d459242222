package db

import (
	"path/filepath"
	"testing"
	"time"

	"stock-forecaster/internal/analysis"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func fixtureAggregate() *analysis.Aggregate {
	return &analysis.Aggregate{
		Products: map[string]analysis.ProductAnalysis{
			"P001": {
				Product: "P001", EndSellingPrice: 23, EndCostPrice: 13,
				AvgSellingPrice: 22, AvgCostPrice: 12,
				TotalSales: 66, TotalCosts: 36,
				ProfitPercent: 45.45, SalesExcludingLost: 66, ProfitExcludingLost: 45.45,
			},
			"P002": {
				Product: "P002", EndSellingPrice: 11, EndCostPrice: 8,
				AvgSellingPrice: 10, AvgCostPrice: 7,
				TotalSales: 30, TotalCosts: 21,
				ProfitPercent: 30, SalesExcludingLost: 15, ProfitExcludingLost: -40,
			},
		},
		Cumulative: analysis.Cumulative{
			TotalSales: 96, TotalSalesExcludingLost: 81, TotalCosts: 57, TotalProfitPercent: 40.625,
		},
		Rankings: analysis.Rankings{
			HighestSelling: "P001", HighestProfit: "P001", HighestLoss: "P002",
		},
	}
}

func TestInsertRun_AndGetRun(t *testing.T) {
	d := openTestDB(t)
	start := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	id := d.InsertRun(start, end, []string{"P001", "P002"}, fixtureAggregate(), 12)
	if id == 0 {
		t.Fatal("InsertRun returned 0")
	}

	run, ok := d.GetRun(id)
	if !ok {
		t.Fatal("GetRun: not found")
	}
	if run.StartDate != "2025-06-18" || run.EndDate != "2025-06-20" {
		t.Errorf("run dates = %s..%s, want 2025-06-18..2025-06-20", run.StartDate, run.EndDate)
	}
	if run.ProductCount != 2 || len(run.Products) != 2 {
		t.Errorf("run products = %v (count %d), want 2", run.Products, run.ProductCount)
	}
	if run.TotalSales != 96 || run.TotalProfit != 40.625 {
		t.Errorf("run totals = (%v, %v), want (96, 40.625)", run.TotalSales, run.TotalProfit)
	}
	if run.HighestSelling != "P001" || run.HighestLoss != "P002" {
		t.Errorf("run rankings = (%s, %s), want (P001, P002)", run.HighestSelling, run.HighestLoss)
	}
}

func TestGetRunAnalysis_RebuildsAggregate(t *testing.T) {
	d := openTestDB(t)
	start := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	want := fixtureAggregate()

	id := d.InsertRun(start, start.AddDate(0, 0, 2), []string{"P001", "P002"}, want, 0)
	got, ok := d.GetRunAnalysis(id)
	if !ok {
		t.Fatal("GetRunAnalysis: not found")
	}
	if len(got.Products) != 2 {
		t.Fatalf("rebuilt products = %d, want 2", len(got.Products))
	}
	if got.Products["P002"].ProfitExcludingLost != -40 {
		t.Errorf("P002 ProfitExcludingLost = %v, want -40", got.Products["P002"].ProfitExcludingLost)
	}
	if got.Cumulative != want.Cumulative {
		t.Errorf("cumulative = %+v, want %+v", got.Cumulative, want.Cumulative)
	}
	if got.Rankings != want.Rankings {
		t.Errorf("rankings = %+v, want %+v", got.Rankings, want.Rankings)
	}
}

func TestGetRuns_NewestFirst(t *testing.T) {
	d := openTestDB(t)
	start := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	agg := fixtureAggregate()

	first := d.InsertRun(start, start.AddDate(0, 0, 1), []string{"P001"}, agg, 0)
	second := d.InsertRun(start, start.AddDate(0, 0, 2), []string{"P001"}, agg, 0)

	runs := d.GetRuns(10)
	if len(runs) != 2 {
		t.Fatalf("GetRuns len = %d, want 2", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("order = [%d, %d], want [%d, %d]", runs[0].ID, runs[1].ID, second, first)
	}
}

func TestDeleteRun_AndClearRuns(t *testing.T) {
	d := openTestDB(t)
	start := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	agg := fixtureAggregate()

	id := d.InsertRun(start, start.AddDate(0, 0, 1), []string{"P001"}, agg, 0)
	d.DeleteRun(id)
	if _, ok := d.GetRun(id); ok {
		t.Error("run still present after DeleteRun")
	}
	if _, ok := d.GetRunAnalysis(id); ok {
		t.Error("analysis rows still present after DeleteRun")
	}

	d.InsertRun(start, start.AddDate(0, 0, 1), []string{"P001"}, agg, 0)
	d.InsertRun(start, start.AddDate(0, 0, 2), []string{"P001"}, agg, 0)
	d.ClearRuns()
	if runs := d.GetRuns(10); len(runs) != 0 {
		t.Errorf("GetRuns after clear = %d records, want 0", len(runs))
	}
}

func TestGetRun_MissingID(t *testing.T) {
	d := openTestDB(t)
	if _, ok := d.GetRun(12345); ok {
		t.Error("GetRun(12345) found a record in an empty database")
	}
}
