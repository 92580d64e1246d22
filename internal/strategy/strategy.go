package strategy

import "fmt"

// #region lance-types

// LanceMode tags the shape of a lance-height profile.
type LanceMode string

const (
	LanceConstantLow LanceMode = "constant_low"
	LanceLowHighLow  LanceMode = "low_high_low"
)

// LanceStep is one constant-height phase of the blow.
type LanceStep struct {
	StartS   float64
	EndS     float64
	HeightMM float64
}

// LanceProfile is a full lance-height schedule for one blow.
type LanceProfile struct {
	Mode  LanceMode
	Steps []LanceStep
}

// HeightMM returns the scheduled height at a simulated time. Times past the
// last step hold its height.
func (p LanceProfile) HeightMM(timeS float64) float64 {
	for _, s := range p.Steps {
		if timeS >= s.StartS && timeS < s.EndS {
			return s.HeightMM
		}
	}
	if n := len(p.Steps); n > 0 {
		return p.Steps[n-1].HeightMM
	}
	return 0
}

// #endregion lance-types

// #region lance-config

// LanceConfig holds the profile thresholds and heights, mm and seconds.
type LanceConfig struct {
	SiConstantLow float64 // above this Si, hold a low lance for the whole blow

	// Si bands selecting the main-phase and end-phase heights.
	SiBandLow  float64
	SiBandHigh float64

	IgnitionHeightMM float64
	IgnitionEndS     float64
	ConstantLowMM    float64
	PressEndStartS   float64
	BlowEndS         float64
}

// DefaultLanceConfig returns the site lance table.
func DefaultLanceConfig() LanceConfig {
	return LanceConfig{
		SiConstantLow:    0.20,
		SiBandLow:        0.15,
		SiBandHigh:       0.30,
		IgnitionHeightMM: 1200,
		IgnitionEndS:     30,
		ConstantLowMM:    1100,
		PressEndStartS:   330,
		BlowEndS:         360,
	}
}

// #endregion lance-config

// #region lance-profile

// RecommendLanceProfile builds the lance schedule from the initial silicon.
//
// High-Si charges splash under a raised lance, so they get a single low step.
// Everything else runs the low→high→low pattern: low to ignite, high
// mid-blow to favor V oxidation and protect the lining, low at the end to
// press TFe out of the slag.
func RecommendLanceProfile(siPct float64, cfg LanceConfig) LanceProfile {
	if siPct > cfg.SiConstantLow {
		return LanceProfile{
			Mode: LanceConstantLow,
			Steps: []LanceStep{
				{StartS: 0, EndS: cfg.BlowEndS, HeightMM: cfg.ConstantLowMM},
			},
		}
	}

	processMM, endMM := 1400.0, 1300.0
	switch {
	case siPct < cfg.SiBandLow:
		processMM, endMM = 1500, 1400
	case siPct <= cfg.SiBandHigh:
		processMM, endMM = 1400, 1300
	default:
		processMM, endMM = 1300, 1300
	}

	return LanceProfile{
		Mode: LanceLowHighLow,
		Steps: []LanceStep{
			{StartS: 0, EndS: cfg.IgnitionEndS, HeightMM: cfg.IgnitionHeightMM},
			{StartS: cfg.IgnitionEndS, EndS: cfg.PressEndStartS, HeightMM: processMM},
			{StartS: cfg.PressEndStartS, EndS: cfg.BlowEndS, HeightMM: endMM},
		},
	}
}

// #endregion lance-profile

// #region coolant-types

// CoolantChoice tags the thermally selected coolant family.
type CoolantChoice string

const (
	CoolantStrong        CoolantChoice = "pellet_return" // strong cooling
	CoolantCostEfficient CoolantChoice = "discard_ball"  // cost priority
)

// CoolantPlan is the thermal-balance coolant recommendation.
type CoolantPlan struct {
	Choice     CoolantChoice
	KgPerT     float64
	AddWithinS float64
	Notes      []string
}

// #endregion coolant-types

// #region coolant-config

// CoolantConfig holds the specific-demand rule coefficients.
type CoolantConfig struct {
	BaseTempC     float64 // overheating measured against this baseline
	BaseKgPerT    float64
	KgPerTPerDegC float64
	OneCanExtraKg float64
	SiStrongCool  float64 // at/above this Si, strong cooling is mandatory
	StrongFactor  float64
	AddWithinS    float64
}

// DefaultCoolantConfig returns the site coolant demand table.
func DefaultCoolantConfig() CoolantConfig {
	return CoolantConfig{
		BaseTempC:     1280.0,
		BaseKgPerT:    8.0,
		KgPerTPerDegC: 0.6,
		OneCanExtraKg: 10.0,
		SiStrongCool:  0.22,
		StrongFactor:  1.5,
		AddWithinS:    150.0,
	}
}

// #endregion coolant-config

// #region coolant-plan

// RecommendCoolant sizes the coolant charge from the overheating degree and
// picks the coolant family from the silicon level.
func RecommendCoolant(hotMetalTempC, siPct float64, oneCan bool, cfg CoolantConfig) CoolantPlan {
	delta := hotMetalTempC - cfg.BaseTempC
	if delta < 0 {
		delta = 0
	}

	kgPerT := cfg.BaseKgPerT + delta*cfg.KgPerTPerDegC
	plan := CoolantPlan{AddWithinS: cfg.AddWithinS}

	if oneCan {
		kgPerT += cfg.OneCanExtraKg
		plan.Notes = append(plan.Notes,
			fmt.Sprintf("one-can charge carries extra physical heat: baseline raised %.0f kg/t", cfg.OneCanExtraKg))
	}

	if siPct < cfg.SiStrongCool {
		plan.Choice = CoolantCostEfficient
		plan.Notes = append(plan.Notes, "low-Si charge: cost-efficient discard ball")
	} else {
		plan.Choice = CoolantStrong
		kgPerT *= cfg.StrongFactor
		plan.Notes = append(plan.Notes,
			fmt.Sprintf("high-Si charge: strong-cooling pellet return, demand ×%.1f", cfg.StrongFactor))
	}

	plan.KgPerT = kgPerT
	plan.Notes = append(plan.Notes,
		fmt.Sprintf("add within %.0fs of blow start to avoid splashing or slag reversion", cfg.AddWithinS))
	return plan
}

// #endregion coolant-plan
