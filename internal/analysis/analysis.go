// Package analysis derives business metrics from price forecast windows.
package analysis

import (
	"fmt"
	"sort"

	"stock-forecaster/internal/forecast"
)

// ProductAnalysis holds the derived metrics for a single product's window.
type ProductAnalysis struct {
	Product             string  `json:"product"`
	EndSellingPrice     float64 `json:"end_selling_price"`
	EndCostPrice        float64 `json:"end_cost_price"`
	AvgSellingPrice     float64 `json:"avg_selling_price"`
	AvgCostPrice        float64 `json:"avg_cost_price"`
	TotalSales          float64 `json:"total_sales"`
	TotalCosts          float64 `json:"total_costs"`
	ProfitPercent       float64 `json:"profit_percentage"`
	SalesExcludingLost  float64 `json:"sales_excluding_lost"`
	ProfitExcludingLost float64 `json:"profit_excluding_lost"`
}

// Cumulative holds totals summed across all analyzed products. The profit
// percentage is computed from the summed totals, never by averaging the
// per-product percentages (a mean of ratios is a different quantity).
type Cumulative struct {
	TotalSales              float64 `json:"total_sales"`
	TotalSalesExcludingLost float64 `json:"total_sales_excluding_lost"`
	TotalCosts              float64 `json:"total_costs"`
	TotalProfitPercent      float64 `json:"total_profit"`
}

// Rankings names the extreme products of one analysis pass. Ties go to the
// first product in ascending product-ID order.
type Rankings struct {
	HighestSelling string `json:"highest_selling"`
	HighestProfit  string `json:"highest_profit"`
	HighestLoss    string `json:"highest_loss"`
}

// Aggregate is the full result of one analysis pass.
type Aggregate struct {
	Products   map[string]ProductAnalysis `json:"individual_products"`
	Cumulative Cumulative                 `json:"cumulative"`
	Rankings   Rankings                   `json:"rankings"`
}

// StateError reports an operation attempted in the wrong order, such as
// analyzing before any forecast has been produced.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return e.Reason
}

// ZeroSalesError reports a window whose total sales forecast is exactly
// zero, making the profit percentage undefined. The original formula has no
// fallback for this boundary, so it is surfaced instead of guessed at.
type ZeroSalesError struct {
	Product string
}

func (e *ZeroSalesError) Error() string {
	return fmt.Sprintf("product %s: total sales forecast is zero, profit percentage undefined", e.Product)
}

// Analyzer computes per-product and cumulative metrics from forecast windows.
type Analyzer struct {
	losses map[string]float64
}

// NewAnalyzer creates an analyzer with the catalog's static loss percentages.
func NewAnalyzer(losses map[string]float64) *Analyzer {
	return &Analyzer{losses: losses}
}

// Analyze computes metrics for every window and aggregates them.
func (a *Analyzer) Analyze(windows map[string]forecast.Window) (*Aggregate, error) {
	if len(windows) == 0 {
		return nil, &StateError{Reason: "no forecast results available, run a forecast first"}
	}

	agg := &Aggregate{Products: make(map[string]ProductAnalysis, len(windows))}

	// Deterministic pass order so ranking tie-breaks are observable and
	// repeatable.
	ids := make([]string, 0, len(windows))
	for id := range windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		w := windows[id]
		pa, err := a.analyzeProduct(id, w)
		if err != nil {
			return nil, err
		}
		agg.Products[id] = pa

		agg.Cumulative.TotalSales += pa.TotalSales
		agg.Cumulative.TotalSalesExcludingLost += pa.SalesExcludingLost
		agg.Cumulative.TotalCosts += pa.TotalCosts
	}

	if agg.Cumulative.TotalSales == 0 {
		return nil, &ZeroSalesError{Product: "all"}
	}
	agg.Cumulative.TotalProfitPercent =
		(agg.Cumulative.TotalSales - agg.Cumulative.TotalCosts) / agg.Cumulative.TotalSales * 100

	agg.Rankings = rank(ids, agg.Products)
	return agg, nil
}

func (a *Analyzer) analyzeProduct(id string, w forecast.Window) (ProductAnalysis, error) {
	days := w.Days()
	if days == 0 {
		return ProductAnalysis{}, &StateError{Reason: fmt.Sprintf("product %s: empty forecast window", id)}
	}
	loss, ok := a.losses[id]
	if !ok {
		return ProductAnalysis{}, fmt.Errorf("product %s: no loss percentage configured", id)
	}

	totalSales := sum(w.Selling)
	totalCosts := sum(w.Cost)
	if totalSales == 0 {
		return ProductAnalysis{}, &ZeroSalesError{Product: id}
	}
	salesExcludingLost := totalSales * ((100 - loss) / 100)
	if salesExcludingLost == 0 {
		return ProductAnalysis{}, &ZeroSalesError{Product: id}
	}

	return ProductAnalysis{
		Product:             id,
		EndSellingPrice:     w.Selling[days-1],
		EndCostPrice:        w.Cost[days-1],
		AvgSellingPrice:     totalSales / float64(days),
		AvgCostPrice:        totalCosts / float64(days),
		TotalSales:          totalSales,
		TotalCosts:          totalCosts,
		ProfitPercent:       (totalSales - totalCosts) / totalSales * 100,
		SalesExcludingLost:  salesExcludingLost,
		ProfitExcludingLost: (salesExcludingLost - totalCosts) / salesExcludingLost * 100,
	}, nil
}

// rank walks products in ascending ID order; the first maximal or minimal
// element encountered wins ties.
func rank(ids []string, products map[string]ProductAnalysis) Rankings {
	var r Rankings
	for _, id := range ids {
		pa := products[id]
		if r.HighestSelling == "" || pa.TotalSales > products[r.HighestSelling].TotalSales {
			r.HighestSelling = id
		}
		if r.HighestProfit == "" || pa.ProfitPercent > products[r.HighestProfit].ProfitPercent {
			r.HighestProfit = id
		}
		if r.HighestLoss == "" || pa.ProfitPercent < products[r.HighestLoss].ProfitPercent {
			r.HighestLoss = id
		}
	}
	return r
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}
