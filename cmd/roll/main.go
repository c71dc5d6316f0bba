// Command roll runs one simulation from flags and prints the histogram.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xtding233/dicestats/internal/app"
	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
	"github.com/xtding233/dicestats/internal/render"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("roll failed", "err", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	d := app.DefaultDefaults()
	fs := flag.NewFlagSet("roll", flag.ContinueOnError)
	fs.SetOutput(out)
	n := fs.String("n", fmt.Sprint(int(d.Config.RollCount)), "number of rolls")
	diceCount := fs.String("dice", fmt.Sprint(int(d.Config.DiceCount)), "dice per roll")
	sides := fs.String("sides", fmt.Sprint(int(d.Config.SidesPerDie)), "sides per die")
	modifier := fs.String("modifier", string(d.Config.Modifier), "none, chooseHighest or chooseLowest")
	view := fs.String("view", string(d.View), "horizontal or vertical")
	seed := fs.Uint64("seed", 0, "seed for reproducible rolls (0 uses crypto/rand)")
	asJSON := fs.Bool("json", false, "print the snapshot as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := dice.ParseModifier(*modifier)
	if err != nil {
		return err
	}
	v, err := preset.ParseView(*view)
	if err != nil {
		return err
	}
	rng := dice.DefaultRNG()
	if *seed != 0 {
		rng = dice.NewSeededRNG(*seed)
	}

	r := app.Reducer{RNG: rng}
	state := app.Initial(d, nil)
	for _, a := range []app.Action{
		app.UpdateModifier{Modifier: m},
		app.UpdateRollCount{Value: dice.ParseCount(*n)},
		app.UpdateDiceCount{Value: dice.ParseCount(*diceCount)},
		app.UpdateSidesPerDie{Value: dice.ParseCount(*sides)},
		app.UpdateHistogramView{View: v},
		app.GenerateRollResult{},
	} {
		state, _ = r.Reduce(state, a)
	}

	snap, err := app.Derive(state)
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Fprintln(out, state.Preset().Describe())
	if err := render.Text(out, snap); err != nil {
		return err
	}
	if snap.Summary.Count > 0 {
		s := snap.Summary
		fmt.Fprintf(out, "min %d  max %d  stddev %.3f  p50 %g  p90 %g  p99 %g\n", s.Min, s.Max, s.StdDev, s.P50, s.P90, s.P99)
	}
	if snap.Theoretical != nil {
		fmt.Fprintf(out, "Theoretical: %g\n", snap.Theoretical.Mean)
	}
	return nil
}
