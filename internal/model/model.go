// Package model implements pre-fitted autoregressive forecasting models.
//
// Models predict on the first-differenced series: each forecast step is an
// increment relative to the previous absolute value, not a price level.
// Reconstruction to price levels is the forecast engine's job.
package model

import "fmt"

// Forecaster produces the next steps increments in the differenced space.
type Forecaster interface {
	Forecast(steps int) ([]float64, error)
}

// DrivenForecaster produces increments conditioned on an exogenous driver
// sequence of the same length (one driver value per step).
type DrivenForecaster interface {
	ForecastWithDriver(steps int, driver []float64) ([]float64, error)
}

// AR is a pre-fitted AR(p) model on a differenced series.
//
//	d[t] = Intercept + Σ Coefficients[i] * d[t-1-i]
//
// Lags holds the last p observed differenced values, most recent first; the
// recursion consumes its own predictions as new lags.
type AR struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Lags         []float64 `json:"lags"`
}

// Forecast returns the next steps increments.
func (m *AR) Forecast(steps int) ([]float64, error) {
	if steps < 0 {
		return nil, fmt.Errorf("forecast steps must be non-negative, got %d", steps)
	}
	out := make([]float64, 0, steps)
	lags := append([]float64(nil), m.Lags...)
	for t := 0; t < steps; t++ {
		next := m.step(lags)
		out = append(out, next)
		lags = pushLag(lags, next, len(m.Coefficients))
	}
	return out, nil
}

// step evaluates one AR recursion against the current lag window.
func (m *AR) step(lags []float64) float64 {
	v := m.Intercept
	for i, phi := range m.Coefficients {
		if i < len(lags) {
			v += phi * lags[i]
		}
	}
	return v
}

// ARX is an AR model whose every step is additionally conditioned on an
// exogenous driver value:
//
//	d[t] = Intercept + Σ Coefficients[i] * d[t-1-i] + DriverCoefficient * x[t]
type ARX struct {
	AR
	DriverCoefficient float64 `json:"driver_coefficient"`
}

// ForecastWithDriver returns the next steps increments, conditioning step t
// on driver[t]. The driver must supply exactly one value per step.
func (m *ARX) ForecastWithDriver(steps int, driver []float64) ([]float64, error) {
	if steps < 0 {
		return nil, fmt.Errorf("forecast steps must be non-negative, got %d", steps)
	}
	if len(driver) != steps {
		return nil, fmt.Errorf("driver length %d does not match forecast steps %d", len(driver), steps)
	}
	out := make([]float64, 0, steps)
	lags := append([]float64(nil), m.Lags...)
	for t := 0; t < steps; t++ {
		next := m.step(lags) + m.DriverCoefficient*driver[t]
		out = append(out, next)
		lags = pushLag(lags, next, len(m.Coefficients))
	}
	return out, nil
}

// pushLag prepends v to the lag window, keeping at most p entries.
func pushLag(lags []float64, v float64, p int) []float64 {
	lags = append([]float64{v}, lags...)
	if len(lags) > p {
		lags = lags[:p]
	}
	return lags
}
