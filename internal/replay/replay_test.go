package replay

import (
	"math"
	"testing"

	"github.com/vtxworks/converter-twin/internal/heat"
	"github.com/vtxworks/converter-twin/internal/history"
	"github.com/vtxworks/converter-twin/internal/kinetics"
	"github.com/vtxworks/converter-twin/internal/melt"
	"github.com/vtxworks/converter-twin/internal/strategy"
)

func testInitial() melt.ProcessState {
	return melt.ProcessState{
		Comp:    melt.Composition{C: 4.2, Si: 0.28, V: 0.28, Ti: 0.10},
		Thermal: melt.ThermalState{TempC: 1340, Valid: true, Confidence: 1.0, Source: melt.SourceRaw},
	}
}

func testParams() kinetics.Params {
	return kinetics.Params{VersionID: "v-test", HeatEfficiency: 0.92, ReactionRateModifier: 1.05}
}

func TestHeatSelfReplayHasZeroError(t *testing.T) {
	// Re-simulating under the same params must reproduce the stored model
	// prediction exactly. The reference runs the same standing lance profile
	// the replay applies.
	cfg := kinetics.DefaultConfig()
	initial := testInitial()
	ref, err := kinetics.Simulate(kinetics.Request{
		Initial:        initial,
		BathWeightKG:   100000,
		OxygenFlowNm3H: 22000,
		Lance:          strategy.RecommendLanceProfile(initial.Comp.Si, strategy.DefaultLanceConfig()),
		Params:         testParams(),
	}, cfg)
	if err != nil {
		t.Fatalf("reference run: %v", err)
	}

	rec := history.HeatRecord{
		HeatID:    "heat-1",
		Predicted: &heat.Outcome{Comp: ref.Final.Comp, TempC: ref.Final.Thermal.TempC},
	}

	res, err := Heat(rec, testInitial(), 100000, 22000, testParams(), cfg)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Reference != "model" {
		t.Fatalf("reference %s, want model", res.Reference)
	}
	if math.Abs(res.TempErrC) > 1e-9 || math.Abs(res.VErrPct) > 1e-9 {
		t.Fatalf("self-replay drifted: ΔT=%.6f ΔV=%.6f", res.TempErrC, res.VErrPct)
	}
}

func TestHeatPrefersLabReference(t *testing.T) {
	cfg := kinetics.DefaultConfig()
	rec := history.HeatRecord{
		HeatID:    "heat-2",
		Predicted: &heat.Outcome{TempC: 1500},
		Measured:  &heat.Outcome{TempC: 1600, Comp: melt.Composition{V: 0.05}},
	}

	res, err := Heat(rec, testInitial(), 100000, 22000, testParams(), cfg)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.Reference != "lab" {
		t.Fatalf("reference %s, want lab", res.Reference)
	}
	if res.TempErrC != res.ReplayTempC-1600 {
		t.Fatalf("error must be measured against the lab value")
	}
}

func TestHeatRequiresStoredOutcome(t *testing.T) {
	rec := history.HeatRecord{HeatID: "heat-3"}
	if _, err := Heat(rec, testInitial(), 100000, 22000, testParams(), kinetics.DefaultConfig()); err == nil {
		t.Fatal("replay without any stored outcome must fail")
	}
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{TempErrC: 10, VErrPct: 0.01},
		{TempErrC: -20, VErrPct: -0.03},
	}
	s := Summarize(results, 1)
	if s.Total != 3 || s.Skipped != 1 {
		t.Fatalf("counts wrong: %+v", s)
	}
	if math.Abs(s.MeanAbsTemp-15) > 1e-9 {
		t.Fatalf("mean |ΔT| %.2f, want 15", s.MeanAbsTemp)
	}
	if math.Abs(s.MeanAbsV-0.02) > 1e-9 {
		t.Fatalf("mean |ΔV| %.4f, want 0.02", s.MeanAbsV)
	}
}
