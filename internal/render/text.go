// Package render draws session snapshots as plain text.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xtding233/dicestats/internal/app"
	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/fault"
	"github.com/xtding233/dicestats/internal/preset"
)

// Bar sizes for a value holding every roll.
const (
	ColumnHeight = 10
	RowWidth     = 40
)

// Text writes the histogram of snap in its configured view, followed by the
// expected value. An empty histogram writes nothing.
func Text(w io.Writer, snap app.Snapshot) error {
	if len(snap.Histogram) == 0 {
		return nil
	}
	var b strings.Builder
	switch snap.View {
	case preset.ViewHorizontal:
		columns(&b, snap.Histogram)
	case preset.ViewVertical:
		rows(&b, snap.Histogram)
	default:
		fault.Unreachable("histogram view", snap.View)
	}
	if !math.IsNaN(snap.ExpectedValue) {
		fmt.Fprintf(&b, "Expected Value: %g\n", snap.ExpectedValue)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func scale(count, total, size int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(size*count) / float64(total)))
}

func columns(b *strings.Builder, h dice.Histogram) {
	total := h.Total()
	width := 1
	heights := make([]int, len(h))
	top := 0
	for i, bin := range h {
		width = max(width, len(strconv.Itoa(bin.Value)), len(strconv.Itoa(bin.Count)))
		heights[i] = scale(bin.Count, total, ColumnHeight)
		top = max(top, heights[i])
	}

	line := func(cell func(i int) string) {
		cells := make([]string, len(h))
		for i := range h {
			cells[i] = fmt.Sprintf("%*s", width, cell(i))
		}
		b.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		b.WriteByte('\n')
	}

	line(func(i int) string { return strconv.Itoa(h[i].Count) })
	for r := top; r >= 1; r-- {
		line(func(i int) string {
			if heights[i] >= r {
				return strings.Repeat("#", width)
			}
			return ""
		})
	}
	line(func(i int) string { return strconv.Itoa(h[i].Value) })
}

func rows(b *strings.Builder, h dice.Histogram) {
	total := h.Total()
	width := 1
	for _, bin := range h {
		width = max(width, len(strconv.Itoa(bin.Value)))
	}
	for _, bin := range h {
		bar := strings.Repeat("#", scale(bin.Count, total, RowWidth))
		fmt.Fprintf(b, "%*d |%s %d\n", width, bin.Value, bar, bin.Count)
	}
}
