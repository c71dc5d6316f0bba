package dice

import "math"

// ExpectedValue is the count-weighted mean of h over rollCount rolls.
// It returns NaN when there is nothing to average; callers render NaN as
// "no value", not as an error.
func ExpectedValue(h Histogram, rollCount int) float64 {
	if rollCount == 0 || len(h) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, b := range h {
		sum += float64(b.Value) * float64(b.Count)
	}
	return sum / float64(rollCount)
}

// Summary describes an observed distribution.
type Summary struct {
	Count  int     `json:"count"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// Summarize computes mean/variance/percentiles straight from the bins, as if
// the rolls were expanded and sorted. An empty histogram gives a zero Summary.
func Summarize(h Histogram) Summary {
	n := h.Total()
	if n == 0 {
		return Summary{}
	}
	var sum float64
	lo, hi := 0, 0
	seen := false
	for _, b := range h {
		if b.Count == 0 {
			continue
		}
		if !seen {
			lo = b.Value
			seen = true
		}
		hi = b.Value
		sum += float64(b.Value) * float64(b.Count)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, b := range h {
		d := float64(b.Value) - mean
		acc += d * d * float64(b.Count)
	}
	variance := acc / float64(n)

	// value at index i of the sorted expansion
	at := func(i int) float64 {
		for _, b := range h {
			if i < b.Count {
				return float64(b.Value)
			}
			i -= b.Count
		}
		return float64(hi)
	}
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return at(0)
		}
		if p >= 1 {
			return at(n - 1)
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return at(i)
		}
		return at(i)*(1-f) + at(i+1)*f
	}

	return Summary{
		Count:  n,
		Min:    lo,
		Max:    hi,
		Mean:   mean,
		Var:    variance,
		StdDev: math.Sqrt(variance),
		P50:    percentile(0.50),
		P90:    percentile(0.90),
		P99:    percentile(0.99),
	}
}
