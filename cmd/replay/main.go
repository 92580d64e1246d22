package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vtxworks/converter-twin/internal/history"
	"github.com/vtxworks/converter-twin/internal/kinetics"
	"github.com/vtxworks/converter-twin/internal/params"
	"github.com/vtxworks/converter-twin/internal/replay"
)

// #region main

// replay re-simulates archived heats under the active parameter version and
// reports the endpoint drift. A regression check after learning commits.
func main() {
	historyDB := flag.String("history-db", "", "path to twin_history.db")
	paramsDB := flag.String("params-db", "", "path to twin_params.db")
	last := flag.Int("last", 20, "replay the N most recent heats")
	weightT := flag.Float64("weight", 100, "bath weight, t")
	o2Flow := flag.Float64("o2", 22000, "oxygen flow, Nm³/h")
	flag.Parse()

	if *historyDB == "" || *paramsDB == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --history-db path --params-db path [--last N]")
		os.Exit(2)
	}

	histStore, err := history.NewStore(*historyDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open history db: %v\n", err)
		os.Exit(1)
	}
	defer histStore.Close()

	paramStore, err := params.NewStore(*paramsDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open params db: %v\n", err)
		os.Exit(1)
	}
	defer paramStore.Close()

	active, err := paramStore.GetCurrent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read active params: %v\n", err)
		os.Exit(1)
	}
	p := kinetics.Params{
		VersionID:            active.VersionID,
		HeatEfficiency:       active.HeatEfficiency,
		ReactionRateModifier: active.ReactionRateModifier,
	}

	heats, err := histStore.ListHeats(*last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list heats: %v\n", err)
		os.Exit(1)
	}

	cfg := kinetics.DefaultConfig()
	var results []replay.Result
	skipped := 0

	fmt.Printf("Replaying %d heats under params %s (eff=%.3f mod=%.3f)\n",
		len(heats), active.VersionID[:8], active.HeatEfficiency, active.ReactionRateModifier)

	for _, rec := range heats {
		if len(rec.Trajectory) == 0 {
			skipped++
			continue
		}
		res, err := replay.Heat(rec, rec.Trajectory[0], *weightT*1000.0, *o2Flow, p, cfg)
		if err != nil {
			fmt.Printf("  %s  SKIP: %v\n", rec.HeatID[:8], err)
			skipped++
			continue
		}
		results = append(results, res)
		fmt.Printf("  %s  ΔT=%+.1f°C ΔV=%+.4f%% vs %s (crossover %.0fs)\n",
			res.HeatID[:8], res.TempErrC, res.VErrPct, res.Reference, res.CrossoverS)
	}

	s := replay.Summarize(results, skipped)
	fmt.Printf("\n%d heats replayed, %d skipped | mean |ΔT| = %.1f°C, mean |ΔV| = %.4f%%\n",
		len(results), s.Skipped, s.MeanAbsTemp, s.MeanAbsV)
}

// #endregion main
