package strategy

import (
	"math"
	"testing"
)

func TestRecommendLanceProfileThreePhase(t *testing.T) {
	p := RecommendLanceProfile(0.15, DefaultLanceConfig())

	if p.Mode != LanceLowHighLow {
		t.Fatalf("expected low-high-low, got %s", p.Mode)
	}
	if len(p.Steps) != 3 {
		t.Fatalf("expected 3 phases, got %d", len(p.Steps))
	}

	// Ignition low, process raised, end pressed back down.
	if p.Steps[0].HeightMM != 1200 {
		t.Fatalf("ignition height %.0f, want 1200", p.Steps[0].HeightMM)
	}
	if p.Steps[1].HeightMM <= p.Steps[0].HeightMM {
		t.Fatal("process phase must raise the lance above ignition")
	}
	if p.Steps[2].HeightMM >= p.Steps[1].HeightMM {
		t.Fatal("end phase must press the lance back down")
	}
}

func TestRecommendLanceProfileSiBands(t *testing.T) {
	cfg := DefaultLanceConfig()

	low := RecommendLanceProfile(0.10, cfg)
	mid := RecommendLanceProfile(0.18, cfg)
	if low.Steps[1].HeightMM != 1500 || low.Steps[2].HeightMM != 1400 {
		t.Fatalf("lean-Si band: got %.0f/%.0f, want 1500/1400", low.Steps[1].HeightMM, low.Steps[2].HeightMM)
	}
	if mid.Steps[1].HeightMM != 1400 || mid.Steps[2].HeightMM != 1300 {
		t.Fatalf("mid-Si band: got %.0f/%.0f, want 1400/1300", mid.Steps[1].HeightMM, mid.Steps[2].HeightMM)
	}
}

func TestRecommendLanceProfileHighSiConstantLow(t *testing.T) {
	p := RecommendLanceProfile(0.25, DefaultLanceConfig())

	if p.Mode != LanceConstantLow {
		t.Fatalf("high-Si charge must run constant low, got %s", p.Mode)
	}
	if len(p.Steps) != 1 || p.Steps[0].HeightMM != 1100 {
		t.Fatalf("expected one 1100 mm step, got %+v", p.Steps)
	}
}

func TestLanceProfileHeightLookup(t *testing.T) {
	p := RecommendLanceProfile(0.15, DefaultLanceConfig())

	cases := []struct {
		timeS float64
		want  float64
	}{
		{0, 1200},
		{29.9, 1200},
		{30, 1400},
		{200, 1400},
		{330, 1300},
		{359, 1300},
		{500, 1300}, // past the schedule, hold the last height
	}
	for _, c := range cases {
		if got := p.HeightMM(c.timeS); got != c.want {
			t.Fatalf("t=%.1fs: height %.0f, want %.0f", c.timeS, got, c.want)
		}
	}
}

func TestRecommendCoolantScalesWithOverheat(t *testing.T) {
	cfg := DefaultCoolantConfig()

	// 60 °C over the baseline: 8 + 60·0.6 = 44 kg/t, low Si picks discard ball.
	plan := RecommendCoolant(1340, 0.10, false, cfg)
	if plan.Choice != CoolantCostEfficient {
		t.Fatalf("low-Si charge should get the cost-efficient coolant, got %s", plan.Choice)
	}
	if math.Abs(plan.KgPerT-44) > 1e-9 {
		t.Fatalf("demand %.1f kg/t, want 44", plan.KgPerT)
	}

	cooler := RecommendCoolant(1290, 0.10, false, cfg)
	if cooler.KgPerT >= plan.KgPerT {
		t.Fatal("cooler metal must demand less coolant")
	}
}

func TestRecommendCoolantHighSiStrongCooling(t *testing.T) {
	plan := RecommendCoolant(1340, 0.30, false, DefaultCoolantConfig())
	if plan.Choice != CoolantStrong {
		t.Fatalf("high-Si charge needs strong cooling, got %s", plan.Choice)
	}
	// (8 + 60·0.6) × 1.5
	if math.Abs(plan.KgPerT-66) > 1e-9 {
		t.Fatalf("demand %.1f kg/t, want 66", plan.KgPerT)
	}
}

func TestRecommendCoolantOneCanExtra(t *testing.T) {
	plain := RecommendCoolant(1340, 0.10, false, DefaultCoolantConfig())
	oneCan := RecommendCoolant(1340, 0.10, true, DefaultCoolantConfig())
	if math.Abs(oneCan.KgPerT-plain.KgPerT-10) > 1e-9 {
		t.Fatalf("one-can extra: %.1f vs %.1f, want +10", oneCan.KgPerT, plain.KgPerT)
	}
}

func TestRecommendCoolantNoNegativeDemand(t *testing.T) {
	plan := RecommendCoolant(1200, 0.10, false, DefaultCoolantConfig())
	if plan.KgPerT < DefaultCoolantConfig().BaseKgPerT {
		t.Fatalf("cold metal must still get the base charge, got %.1f", plan.KgPerT)
	}
}
