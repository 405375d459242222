package forecast

// InvertDifferencing reconstructs an absolute-value sequence from
// first-differenced forecast increments, seeded with the last observed
// absolute value before differencing.
//
// The reconstruction is a strict left-to-right running sum: each output
// value becomes the base for the next one, so no step can be computed
// independently of its predecessor. NaN increments intentionally poison
// every subsequent value; substituting a default here would silently
// corrupt downstream financial totals.
func InvertDifferencing(increments []float64, lastValue float64) []float64 {
	out := make([]float64, len(increments))
	current := lastValue
	for i, d := range increments {
		current += d
		out[i] = current
	}
	return out
}
