package kinetics

import (
	"errors"
	"math"
	"testing"

	"github.com/vtxworks/converter-twin/internal/melt"
)

func testRequest(tempC float64, comp melt.Composition) Request {
	return Request{
		Initial: melt.ProcessState{
			Comp:    comp,
			Thermal: melt.ThermalState{TempC: tempC, Valid: true, Confidence: 1.0, Source: melt.SourceRaw},
		},
		BathWeightKG:   100000,
		OxygenFlowNm3H: 22000,
		Params:         Params{VersionID: "test", HeatEfficiency: 0.92, ReactionRateModifier: 1.05},
	}
}

func defaultComp() melt.Composition {
	return melt.Composition{C: 4.2, Si: 0.28, V: 0.28, Ti: 0.10}
}

func TestSimulateTrajectoryShape(t *testing.T) {
	res, err := Simulate(testRequest(1340, defaultComp()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trajectory) < 2 {
		t.Fatalf("expected emitted trajectory, got %d points", len(res.Trajectory))
	}
	if !res.Trajectory.TimesIncreasing() {
		t.Fatal("trajectory times must be strictly increasing")
	}
	if final := res.Trajectory.Final(); final.TimeS != DefaultConfig().HorizonS {
		t.Fatalf("final state at %.0fs, want horizon %.0fs", final.TimeS, DefaultConfig().HorizonS)
	}
}

func TestSimulateMonotonicOxidation(t *testing.T) {
	res, err := Simulate(testRequest(1340, defaultComp()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := res.Trajectory
	for i := 1; i < len(tr); i++ {
		if tr[i].Comp.Si > tr[i-1].Comp.Si {
			t.Fatalf("Si rose between %.0fs and %.0fs", tr[i-1].TimeS, tr[i].TimeS)
		}
		if tr[i].Comp.Ti > tr[i-1].Comp.Ti {
			t.Fatalf("Ti rose between %.0fs and %.0fs", tr[i-1].TimeS, tr[i].TimeS)
		}
		if tr[i].Comp.V > tr[i-1].Comp.V {
			t.Fatalf("V rose between %.0fs and %.0fs", tr[i-1].TimeS, tr[i].TimeS)
		}
	}
}

func TestSimulateNonNegativeConcentrations(t *testing.T) {
	comp := melt.Composition{C: 3.8, Si: 0.01, V: 0.01, Ti: 0.005}
	res, err := Simulate(testRequest(1340, comp), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, st := range res.Trajectory {
		for name, v := range map[string]float64{
			"C": st.Comp.C, "Si": st.Comp.Si, "V": st.Comp.V, "Ti": st.Comp.Ti,
			"FeO": st.Slag.FeO, "V2O5": st.Slag.V2O5, "SiO2": st.Slag.SiO2,
		} {
			if v < 0 {
				t.Fatalf("%s negative (%.4f) at %.0fs", name, v, st.TimeS)
			}
		}
	}
}

func TestSimulateCrossoverMonotonicInStartTemp(t *testing.T) {
	// A hotter charge must reach Tc no later than a cooler one.
	prev := -1.0
	for _, tempC := range []float64{1350, 1330, 1310} {
		res, err := Simulate(testRequest(tempC, defaultComp()), DefaultConfig())
		if err != nil {
			t.Fatalf("T0=%.0f: unexpected error: %v", tempC, err)
		}
		if res.CrossoverS < 0 {
			t.Fatalf("T0=%.0f: expected Tc crossover within the horizon", tempC)
		}
		if prev >= 0 && res.CrossoverS <= prev {
			t.Fatalf("cooler charge crossed earlier: %.0fs <= %.0fs", res.CrossoverS, prev)
		}
		prev = res.CrossoverS
	}
}

func TestSimulateEarlyCrossoverAdvisory(t *testing.T) {
	res, err := Simulate(testRequest(1350, melt.Composition{C: 4.2, Si: 0.30, V: 0.28, Ti: 0.10}), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CrossoverS < 0 || res.CrossoverS >= DefaultConfig().MinSafeCrossoverS {
		t.Fatalf("expected early crossover, got %.0fs", res.CrossoverS)
	}
	if res.Advisory == nil {
		t.Fatal("expected coolant advisory for early crossover")
	}
	if res.Advisory.CrossoverS != res.CrossoverS {
		t.Fatalf("advisory crossover %.0fs != result %.0fs", res.Advisory.CrossoverS, res.CrossoverS)
	}
}

func TestSimulateHotStartCrossesImmediately(t *testing.T) {
	res, err := Simulate(testRequest(1365, defaultComp()), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CrossoverS != 0 {
		t.Fatalf("start above Tc must report crossover at 0s, got %.0fs", res.CrossoverS)
	}
}

func TestSimulateDivergenceAborts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TempCeilC = 1400 // tight envelope; a normal blow leaves it

	_, err := Simulate(testRequest(1350, defaultComp()), cfg)
	var diverged *DivergedIntegrationError
	if !errors.As(err, &diverged) {
		t.Fatalf("expected DivergedIntegrationError, got %v", err)
	}
	if diverged.LastStable.TimeS < 0 || diverged.TimeS <= diverged.LastStable.TimeS {
		t.Fatalf("last stable state must precede the divergence: %.0fs vs %.0fs", diverged.LastStable.TimeS, diverged.TimeS)
	}
}

func TestSimulateRejectsZeroBath(t *testing.T) {
	req := testRequest(1340, defaultComp())
	req.BathWeightKG = 0
	if _, err := Simulate(req, DefaultConfig()); err == nil {
		t.Fatal("expected error for zero bath weight")
	}
}

func TestStepOnceMatchesTimebase(t *testing.T) {
	req := testRequest(1340, defaultComp())
	cur := req.Initial

	var err error
	for i := 0; i < 10; i++ {
		next, stepErr := StepOnce(cur, 1.0, req, DefaultConfig())
		if stepErr != nil {
			err = stepErr
			break
		}
		if next.TimeS != cur.TimeS+1.0 {
			t.Fatalf("step %d: time %.1fs, want %.1fs", i, next.TimeS, cur.TimeS+1.0)
		}
		cur = next
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur.Comp.Si >= req.Initial.Comp.Si {
		t.Fatal("Si should oxidize over ten live steps")
	}
}

func TestEquilibriumAffinityOrder(t *testing.T) {
	comp := melt.Composition{C: 4.2, Si: 0.28, V: 0.28, Ti: 0.10}

	// Oxygen sized to burn all Si and Ti but not the rest: Si and Ti go first.
	molsSiTi := (0.28/100*1000*1000)/molSi + (0.10/100*1000*1000)/molTi
	oxygenM3 := molsSiTi * molarVolumeM3 * 100.0 // scale up to the 100 t bath

	out := Equilibrium(comp, oxygenM3, 100000)
	if out.Comp.Si > 1e-9 || out.Comp.Ti > 1e-9 {
		t.Fatalf("Si/Ti must burn out first: Si=%.4f Ti=%.4f", out.Comp.Si, out.Comp.Ti)
	}
	if math.Abs(out.Comp.V-comp.V) > 1e-9 || math.Abs(out.Comp.C-comp.C) > 1e-9 {
		t.Fatalf("V and C must be untouched: V=%.4f C=%.4f", out.Comp.V, out.Comp.C)
	}
}

func TestEquilibriumExcessOxygenBurnsEverything(t *testing.T) {
	comp := melt.Composition{C: 4.2, Si: 0.28, V: 0.28, Ti: 0.10}
	out := Equilibrium(comp, 1e6, 100000)
	if out.Comp.Si > 1e-9 || out.Comp.Ti > 1e-9 || out.Comp.V > 1e-9 || out.Comp.C > 1e-9 {
		t.Fatalf("excess oxygen must burn all oxidizable elements: %+v", out.Comp)
	}
	if out.OxygenLeft <= 0 {
		t.Fatal("expected leftover oxygen")
	}
}

func TestPredictCriticalTempScalesWithVanadium(t *testing.T) {
	cfg := DefaultConfig()
	base := PredictCriticalTemp(0.12, cfg)
	if base != cfg.TcC {
		t.Fatalf("reference V must give the base Tc: %.1f != %.1f", base, cfg.TcC)
	}
	if PredictCriticalTemp(0.30, cfg) <= base {
		t.Fatal("richer vanadium should raise the safe window")
	}
	if PredictCriticalTemp(0.05, cfg) >= base {
		t.Fatal("lean vanadium should lower the safe window")
	}
}

type stepSchedule struct {
	switchS  float64
	beforeMM float64
	afterMM  float64
}

func (s stepSchedule) HeightMM(timeS float64) float64 {
	if timeS < s.switchS {
		return s.beforeMM
	}
	return s.afterMM
}

func TestSimulateLanceScheduleStampsHeights(t *testing.T) {
	req := testRequest(1340, defaultComp())
	req.Initial.LanceHeightMM = 1200
	req.Lance = stepSchedule{switchS: 35, beforeMM: 1200, afterMM: 1450}

	res, err := Simulate(req, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, st := range res.Trajectory {
		want := 1200.0
		if st.TimeS >= 35 {
			want = 1450.0
		}
		if st.LanceHeightMM != want {
			t.Fatalf("lance %.0f mm at %.0fs, want %.0f mm", st.LanceHeightMM, st.TimeS, want)
		}
	}
}

func TestSimulateNilLanceHoldsInitialHeight(t *testing.T) {
	req := testRequest(1340, defaultComp())
	req.Initial.LanceHeightMM = 1300

	res, err := Simulate(req, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, st := range res.Trajectory {
		if st.LanceHeightMM != 1300 {
			t.Fatalf("lance moved to %.0f mm at %.0fs without a schedule", st.LanceHeightMM, st.TimeS)
		}
	}
}

func TestEarlyCrossoverAdvisoryWindow(t *testing.T) {
	cfg := DefaultConfig()
	if adv := EarlyCrossoverAdvisory(-1, cfg); adv != nil {
		t.Fatal("no crossover, no advisory")
	}
	if adv := EarlyCrossoverAdvisory(cfg.MinSafeCrossoverS, cfg); adv != nil {
		t.Fatal("crossover at the safe minimum must not raise an advisory")
	}
	adv := EarlyCrossoverAdvisory(120, cfg)
	if adv == nil || adv.CrossoverS != 120 {
		t.Fatalf("crossover at 120s must raise an advisory, got %+v", adv)
	}
}
