// Package forecast turns pre-fitted model output into absolute price
// forecasts windowed to a requested date range.
package forecast

import (
	"fmt"
	"time"

	"stock-forecaster/internal/config"
	"stock-forecaster/internal/model"
)

// Window holds the absolute cost and selling price forecasts for one
// product over the requested date range, one entry per calendar day,
// inclusive on both ends.
type Window struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Cost    []float64 `json:"cost"`
	Selling []float64 `json:"selling"`
}

// Days returns the number of calendar days covered by the window.
func (w Window) Days() int {
	return len(w.Selling)
}

// Date returns the calendar date of entry i.
func (w Window) Date(i int) time.Time {
	return w.Start.AddDate(0, 0, i)
}

// ValidationError reports a caller-correctable bad input, carrying the
// offending value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ModelStore supplies pre-fitted models and the last observed absolute
// series values. Implementations return store.NotFoundError when no model
// exists for a product; the engine treats that as fatal for the whole call.
type ModelStore interface {
	CostModel(product string) (model.Forecaster, float64, error)
	SellingModel(product string) (model.DrivenForecaster, float64, error)
}

// Engine forecasts per-product cost and selling prices. It is stateless:
// every Forecast call builds a fresh result set, so concurrent requests
// never observe each other's partially built windows.
type Engine struct {
	cfg   *config.Config
	store ModelStore
}

// New creates a forecast engine over the given catalog config and model store.
func New(cfg *config.Config, store ModelStore) *Engine {
	return &Engine{cfg: cfg, store: store}
}

// Forecast produces a cost and selling price window per requested product.
//
// Both series are forecast over the full horizon from the epoch date to end
// (the differencing inversion depends on the uncut prefix) and then
// truncated to [start, end]. The selling model is conditioned on the raw,
// pre-inversion cost increments: selling forecasts are only valid when
// paired with the exact differenced cost signal they were produced against,
// so the absolute cost sequence must never be substituted here.
func (e *Engine) Forecast(products []string, start, end time.Time) (map[string]Window, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if err := e.validateDates(start, end); err != nil {
		return nil, err
	}
	if err := e.validateProducts(products); err != nil {
		return nil, err
	}

	epoch := e.cfg.Epoch()
	horizon := daysBetween(epoch, end) + 1
	offset := daysBetween(epoch, start)

	windows := make(map[string]Window, len(products))
	for _, id := range products {
		costModel, lastCost, err := e.store.CostModel(id)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", id, err)
		}
		costIncrements, err := costModel.Forecast(horizon)
		if err != nil {
			return nil, fmt.Errorf("product %s: cost forecast: %w", id, err)
		}
		cost := InvertDifferencing(costIncrements, lastCost)

		sellingModel, lastSelling, err := e.store.SellingModel(id)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", id, err)
		}
		sellingIncrements, err := sellingModel.ForecastWithDriver(horizon, costIncrements)
		if err != nil {
			return nil, fmt.Errorf("product %s: selling forecast: %w", id, err)
		}
		selling := InvertDifferencing(sellingIncrements, lastSelling)

		windows[id] = Window{
			Start:   start,
			End:     end,
			Cost:    cost[offset:],
			Selling: selling[offset:],
		}
	}
	return windows, nil
}

func (e *Engine) validateDates(start, end time.Time) error {
	epoch := e.cfg.Epoch()
	if start.Before(epoch) {
		return &ValidationError{
			Field:  "start date",
			Value:  start.Format("2006-01-02"),
			Reason: fmt.Sprintf("cannot be before %s", e.cfg.EpochDate),
		}
	}
	if !end.After(start) {
		return &ValidationError{
			Field:  "end date",
			Value:  end.Format("2006-01-02"),
			Reason: "must be after start date",
		}
	}
	return nil
}

func (e *Engine) validateProducts(products []string) error {
	if len(products) == 0 {
		return &ValidationError{
			Field:  "products",
			Value:  "",
			Reason: "at least one product must be selected",
		}
	}
	for _, id := range products {
		if !e.cfg.HasProduct(id) {
			return &ValidationError{
				Field:  "product",
				Value:  id,
				Reason: "not in the catalog",
			}
		}
	}
	return nil
}

// truncateDay drops the time-of-day component; all engine date math is on
// UTC calendar days.
func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole calendar days from a to b (both UTC midnights).
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
