package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"stock-forecaster/internal/forecast"
)

func window(cost, selling []float64) forecast.Window {
	start := time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC)
	return forecast.Window{
		Start:   start,
		End:     start.AddDate(0, 0, len(selling)-1),
		Cost:    cost,
		Selling: selling,
	}
}

func TestAnalyze_EndToEndScenario(t *testing.T) {
	// Product A: cost [11,12,13], selling [21,22,23], 0% loss.
	// Product B: cost [6,7,8], selling [9,10,11], 50% loss.
	a := NewAnalyzer(map[string]float64{"A": 0, "B": 50})
	agg, err := a.Analyze(map[string]forecast.Window{
		"A": window([]float64{11, 12, 13}, []float64{21, 22, 23}),
		"B": window([]float64{6, 7, 8}, []float64{9, 10, 11}),
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	pa := agg.Products["A"]
	// total_sales = 21+22+23 = 66, total_costs = 11+12+13 = 36,
	// profit = (66-36)/66*100 = 45.4545...
	if pa.TotalSales != 66 {
		t.Errorf("A TotalSales = %v, want 66", pa.TotalSales)
	}
	if pa.TotalCosts != 36 {
		t.Errorf("A TotalCosts = %v, want 36", pa.TotalCosts)
	}
	if math.Abs(pa.ProfitPercent-30.0/66*100) > 1e-9 {
		t.Errorf("A ProfitPercent = %v, want %v", pa.ProfitPercent, 30.0/66*100)
	}
	if pa.EndSellingPrice != 23 || pa.EndCostPrice != 13 {
		t.Errorf("A end prices = (%v, %v), want (23, 13)", pa.EndSellingPrice, pa.EndCostPrice)
	}
	if pa.AvgSellingPrice != 22 || pa.AvgCostPrice != 12 {
		t.Errorf("A avg prices = (%v, %v), want (22, 12)", pa.AvgSellingPrice, pa.AvgCostPrice)
	}

	pb := agg.Products["B"]
	// B: sales = 30, 50% loss → sales_excluding_lost = 15,
	// profit_excluding_lost = (15-21)/15*100 = -40.
	if pb.SalesExcludingLost != 15 {
		t.Errorf("B SalesExcludingLost = %v, want 15", pb.SalesExcludingLost)
	}
	if math.Abs(pb.ProfitExcludingLost-(-40)) > 1e-9 {
		t.Errorf("B ProfitExcludingLost = %v, want -40", pb.ProfitExcludingLost)
	}
}

func TestAnalyze_ZeroLossKeepsSalesExact(t *testing.T) {
	a := NewAnalyzer(map[string]float64{"A": 0})
	agg, err := a.Analyze(map[string]forecast.Window{
		"A": window([]float64{1, 2}, []float64{3.37, 4.63}),
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	pa := agg.Products["A"]
	if pa.SalesExcludingLost != pa.TotalSales {
		t.Errorf("SalesExcludingLost = %v, want TotalSales = %v exactly", pa.SalesExcludingLost, pa.TotalSales)
	}
}

func TestAnalyze_CumulativeProfitFromSummedTotals(t *testing.T) {
	// Equal costs, unequal sales volumes, so the ratio-of-sums and the
	// mean-of-ratios disagree and the test can tell them apart.
	// A: sales 100, costs 50 → profit 50%. B: sales 400, costs 50 → 87.5%.
	// Correct cumulative: (500-100)/500*100 = 80. Mean of ratios: 68.75.
	a := NewAnalyzer(map[string]float64{"A": 0, "B": 0})
	agg, err := a.Analyze(map[string]forecast.Window{
		"A": window([]float64{50}, []float64{100}),
		"B": window([]float64{50}, []float64{400}),
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if math.Abs(agg.Cumulative.TotalProfitPercent-80) > 1e-9 {
		t.Errorf("TotalProfitPercent = %v, want 80 (ratio of sums, not mean of ratios 68.75)",
			agg.Cumulative.TotalProfitPercent)
	}
	if agg.Cumulative.TotalSales != 500 || agg.Cumulative.TotalCosts != 100 {
		t.Errorf("cumulative = (%v, %v), want (500, 100)",
			agg.Cumulative.TotalSales, agg.Cumulative.TotalCosts)
	}
}

func TestAnalyze_RankingsPickExtremes(t *testing.T) {
	// Distinct totals [100, 300, 200] → highest_selling is the 300 product.
	// Profit: A (100-90)/100 = 10%, B (300-90)/300 = 70%, C (200-90)/200 = 55%.
	a := NewAnalyzer(map[string]float64{"A": 0, "B": 0, "C": 0})
	agg, err := a.Analyze(map[string]forecast.Window{
		"A": window([]float64{90}, []float64{100}),
		"B": window([]float64{90}, []float64{300}),
		"C": window([]float64{90}, []float64{200}),
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if agg.Rankings.HighestSelling != "B" {
		t.Errorf("HighestSelling = %q, want B (total 300)", agg.Rankings.HighestSelling)
	}
	if agg.Rankings.HighestProfit != "B" {
		t.Errorf("HighestProfit = %q, want B (70%%)", agg.Rankings.HighestProfit)
	}
	if agg.Rankings.HighestLoss != "A" {
		t.Errorf("HighestLoss = %q, want A (10%%)", agg.Rankings.HighestLoss)
	}
}

func TestAnalyze_RankingTieBreakIsFirstInIDOrder(t *testing.T) {
	// Identical windows → every metric ties; the first product in
	// ascending ID order wins.
	a := NewAnalyzer(map[string]float64{"A": 0, "B": 0})
	agg, err := a.Analyze(map[string]forecast.Window{
		"B": window([]float64{10}, []float64{20}),
		"A": window([]float64{10}, []float64{20}),
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if agg.Rankings.HighestSelling != "A" {
		t.Errorf("HighestSelling = %q, want A (tie-break by ID order)", agg.Rankings.HighestSelling)
	}
	if agg.Rankings.HighestLoss != "A" {
		t.Errorf("HighestLoss = %q, want A (tie-break by ID order)", agg.Rankings.HighestLoss)
	}
}

func TestAnalyze_EmptyWindowsIsStateError(t *testing.T) {
	a := NewAnalyzer(map[string]float64{})
	_, err := a.Analyze(nil)
	var serr *StateError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want StateError", err)
	}
	_, err = a.Analyze(map[string]forecast.Window{})
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want StateError for empty map", err)
	}
}

func TestAnalyze_ZeroTotalSalesSurfacesError(t *testing.T) {
	a := NewAnalyzer(map[string]float64{"A": 0})
	_, err := a.Analyze(map[string]forecast.Window{
		"A": window([]float64{5, 5}, []float64{10, -10}),
	})
	var zerr *ZeroSalesError
	if !errors.As(err, &zerr) {
		t.Fatalf("err = %v, want ZeroSalesError", err)
	}
	if zerr.Product != "A" {
		t.Errorf("ZeroSalesError.Product = %q, want A", zerr.Product)
	}
}
