package dice

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrOutOfDomain = errors.New("roll value outside histogram domain")

// Bin is one (value, count) pair. It encodes as a two-element JSON array.
type Bin struct {
	Value int
	Count int
}

func (b Bin) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{b.Value, b.Count})
}

func (b *Bin) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	b.Value, b.Count = pair[0], pair[1]
	return nil
}

// Histogram is ordered by ascending value and covers the whole domain.
type Histogram []Bin

// Total returns the sum of all counts.
func (h Histogram) Total() int {
	n := 0
	for _, b := range h {
		n += b.Count
	}
	return n
}

// BuildHistogram counts rolls over every value of cfg's domain, zero-count
// values included. No rolls means no histogram. A roll outside the domain
// means cfg did not produce rolls and returns ErrOutOfDomain.
func BuildHistogram(cfg Config, rolls []int) (Histogram, error) {
	if len(rolls) == 0 {
		return Histogram{}, nil
	}
	lo, hi, ok := cfg.Domain()
	if !ok {
		return Histogram{}, fmt.Errorf("%w: config has no domain", ErrOutOfDomain)
	}
	h := make(Histogram, hi-lo+1)
	for i := range h {
		h[i].Value = lo + i
	}
	for _, v := range rolls {
		if v < lo || v > hi {
			return Histogram{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfDomain, v, lo, hi)
		}
		h[v-lo].Count++
	}
	return h, nil
}
