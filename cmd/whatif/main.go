package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vtxworks/converter-twin/internal/charge"
	"github.com/vtxworks/converter-twin/internal/kinetics"
	"github.com/vtxworks/converter-twin/internal/melt"
	"github.com/vtxworks/converter-twin/internal/params"
	"github.com/vtxworks/converter-twin/internal/strategy"
	"github.com/vtxworks/converter-twin/internal/twin"
)

// #region main

func main() {
	tempC := flag.Float64("temp", 1340, "hot metal temperature, °C")
	cPct := flag.Float64("c", 4.2, "carbon, mass %")
	siPct := flag.Float64("si", 0.22, "silicon, mass %")
	vPct := flag.Float64("v", 0.30, "vanadium, mass %")
	tiPct := flag.Float64("ti", 0.10, "titanium, mass %")
	weightT := flag.Float64("weight", 100, "hot metal weight, t")
	targetC := flag.Float64("target", 1385, "target end temperature, °C")
	oneCan := flag.Bool("onecan", false, "one-can (duplex) transfer")
	o2Flow := flag.Float64("o2", 22000, "oxygen flow, Nm³/h")
	dbPath := flag.String("db", "", "params db path (defaults to plant defaults)")
	parallel := flag.Int("parallel", 4, "concurrent scenario bound")
	flag.Parse()

	comp := melt.Composition{C: *cPct, Si: *siPct, V: *vPct, Ti: *tiPct}

	// Static charge plan first: an infeasible balance ends planning here.
	chargeRes, err := charge.Compute(charge.Inputs{
		WeightT:     *weightT,
		TempC:       *tempC,
		Comp:        comp,
		TargetTempC: *targetC,
		OneCan:      *oneCan,
	}, charge.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "charge planning: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Charge plan")
	fmt.Printf("  V/(Si+Ti) = %.2f | O2 = %.0f m³ | slag = %.1f t\n", chargeRes.VSiTiRatio, chargeRes.OxygenM3, chargeRes.SlagWeightT)
	for typ, tons := range chargeRes.Recipe {
		fmt.Printf("  %-14s %.2f t\n", typ, tons)
	}
	for _, w := range chargeRes.Warnings {
		fmt.Printf("  ! %s\n", w)
	}

	p := loadParams(*dbPath)
	kinCfg := kinetics.DefaultConfig()

	initial := melt.ProcessState{
		Comp:    comp,
		Thermal: melt.ThermalState{TempC: *tempC, Valid: true, Confidence: 1.0, Source: melt.SourceRaw},
	}

	// Variant grid: the recommended lance profile at three oxygen flows.
	lance := strategy.RecommendLanceProfile(comp.Si, strategy.DefaultLanceConfig())
	fmt.Printf("\nLance profile: %s\n", lance.Mode)
	for _, st := range lance.Steps {
		fmt.Printf("  %4.0f–%4.0fs  %4.0f mm\n", st.StartS, st.EndS, st.HeightMM)
	}

	scenarios := make([]twin.Scenario, 0, 3)
	for _, flow := range []float64{*o2Flow * 0.9, *o2Flow, *o2Flow * 1.1} {
		scenarios = append(scenarios, twin.Scenario{
			Label: fmt.Sprintf("O2 %.0f Nm³/h", flow),
			Request: kinetics.Request{
				Initial:        initial,
				BathWeightKG:   *weightT * 1000.0,
				OxygenFlowNm3H: flow,
				Lance:          lance,
				Params:         p,
			},
		})
	}

	results, err := twin.RunScenarios(context.Background(), scenarios, kinCfg, *parallel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scenario run: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nScenarios")
	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("  %-18s FAILED: %v\n", r.Label, r.Err)
			continue
		}
		f := r.Result.Final
		cross := "never"
		if r.Result.CrossoverS >= 0 {
			cross = fmt.Sprintf("%.0fs", r.Result.CrossoverS)
		}
		fmt.Printf("  %-18s end: T=%.0f°C C=%.2f%% V=%.3f%% | Tc crossover: %s\n",
			r.Label, f.Thermal.TempC, f.Comp.C, f.Comp.V, cross)
		if r.Result.Advisory != nil {
			fmt.Printf("  %-18s ! %s\n", "", r.Result.Advisory.Message)
		}
	}

	eq := kinetics.Equilibrium(comp, chargeRes.OxygenM3, *weightT*1000.0)
	fmt.Printf("\nEquilibrium endpoint (oxygen-limited): C=%.2f%% Si=%.3f%% V=%.3f%% Ti=%.3f%%\n",
		eq.Comp.C, eq.Comp.Si, eq.Comp.V, eq.Comp.Ti)
}

// #endregion main

// #region params-load

// loadParams reads the active version from the store, or falls back to the
// plant defaults when no db is given.
func loadParams(dbPath string) kinetics.Params {
	if dbPath == "" {
		return kinetics.Params{
			VersionID:            "defaults",
			HeatEfficiency:       params.DefaultHeatEfficiency,
			ReactionRateModifier: params.DefaultReactionRateModifier,
		}
	}
	store, err := params.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open params db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	rec, err := store.GetCurrent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "read active params: %v\n", err)
		os.Exit(1)
	}
	return kinetics.Params{
		VersionID:            rec.VersionID,
		HeatEfficiency:       rec.HeatEfficiency,
		ReactionRateModifier: rec.ReactionRateModifier,
	}
}

// #endregion params-load
