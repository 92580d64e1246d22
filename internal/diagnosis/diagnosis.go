package diagnosis

import (
	"fmt"

	"github.com/vtxworks/converter-twin/internal/melt"
)

// #region inputs

// SlagAnalysis is the post-blow slag assay, mass percent. Pointers mark
// assays the lab did not run.
type SlagAnalysis struct {
	V2O5 *float64
	TFe  *float64
	CaO  *float64
}

// ProcessMeta is the operational record of the sealed heat.
type ProcessMeta struct {
	FinalTempC  *float64
	LanceMinMM  *float64
	TapTimeMin  *float64
	OneCan      bool
	InitialComp *melt.Composition
}

// #endregion inputs

// #region rules

// RuleID tags which rule produced a finding.
type RuleID string

const (
	RuleLowGrade           RuleID = "low_v2o5_grade"
	RuleSiDilution         RuleID = "si_dilution"
	RuleRawMaterialDeficit RuleID = "raw_material_deficit"
	RuleSlagContamination  RuleID = "slag_contamination"
	RuleCarbonOverride     RuleID = "carbon_oxidation_override"
	RuleSplashRisk         RuleID = "splash_risk"
	RuleSlagReversion      RuleID = "slag_reversion"
	RuleShortTap           RuleID = "short_tap"
)

// Severity grades a finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Finding is one fired rule with its evidence.
type Finding struct {
	Rule      RuleID
	Severity  Severity
	RootCause string
	Evidence  []string
}

// #endregion rules

// #region config

// Config holds the rule thresholds.
type Config struct {
	V2O5GradeMin    float64 // slag grade below this marks the heat low-yield
	SiDilutionPct   float64
	VSiTiRatioMin   float64
	CaOContamPct    float64
	CarbonTempC     float64
	CarbonTFeMax    float64
	SplashLanceMM   float64
	SplashTempC     float64
	ReversionTFeMax float64
	ReversionTempC  float64
	TapTimeMinFloor float64
}

// DefaultConfig returns the site diagnosis thresholds.
func DefaultConfig() Config {
	return Config{
		V2O5GradeMin:    12.5,
		SiDilutionPct:   0.25,
		VSiTiRatioMin:   1.01,
		CaOContamPct:    2.0,
		CarbonTempC:     1400.0,
		CarbonTFeMax:    15.0,
		SplashLanceMM:   1100.0,
		SplashTempC:     1350.0,
		ReversionTFeMax: 10.0,
		ReversionTempC:  1380.0,
		TapTimeMinFloor: 3.5,
	}
}

// #endregion config

// #region diagnose

// Diagnose evaluates every rule independently against the sealed heat's slag
// assay and process record, in fixed priority order. An empty result means
// no diagnosable anomaly. Never fails.
func Diagnose(slag SlagAnalysis, meta ProcessMeta, cfg Config) []Finding {
	var findings []Finding

	// Low slag grade is the yield gate: the enrichment rules below only make
	// sense once the grade itself is deficient.
	lowGrade := slag.V2O5 != nil && *slag.V2O5 < cfg.V2O5GradeMin
	if lowGrade {
		findings = append(findings, Finding{
			Rule:      RuleLowGrade,
			Severity:  SeverityHigh,
			RootCause: "V2O5 diluted by SiO2/FeO in the slag, from high incoming Si or excess oxide coolant",
			Evidence:  []string{fmt.Sprintf("slag V2O5 = %.1f%% < %.1f%%", *slag.V2O5, cfg.V2O5GradeMin)},
		})

		if meta.InitialComp != nil && meta.InitialComp.Si > cfg.SiDilutionPct {
			findings = append(findings, Finding{
				Rule:      RuleSiDilution,
				Severity:  SeverityMedium,
				RootCause: "high-Si hot metal generates bulk SiO2 that dilutes the slag grade by mass balance",
				Evidence:  []string{fmt.Sprintf("initial Si = %.2f%% > %.2f%%", meta.InitialComp.Si, cfg.SiDilutionPct)},
			})
		}

		if meta.InitialComp != nil {
			if ratio := meta.InitialComp.VSiTiRatio(); ratio < cfg.VSiTiRatioMin {
				findings = append(findings, Finding{
					Rule:      RuleRawMaterialDeficit,
					Severity:  SeverityHigh,
					RootCause: "V/(Si+Ti) sets the theoretical grade ceiling; Si/Ti oxides are the dominant gangue",
					Evidence:  []string{fmt.Sprintf("V/(Si+Ti) = %.2f < %.2f", ratio, cfg.VSiTiRatioMin)},
				})
			}
		}

		if meta.OneCan && slag.CaO != nil && *slag.CaO > cfg.CaOContamPct {
			findings = append(findings, Finding{
				Rule:      RuleSlagContamination,
				Severity:  SeverityHigh,
				RootCause: "blast-furnace slag carryover: CaO binds V2O5 into high-melting calcium vanadate",
				Evidence: []string{
					"one-can transfer",
					fmt.Sprintf("slag CaO = %.1f%% > %.1f%%", *slag.CaO, cfg.CaOContamPct),
				},
			})
		}
	}

	// Process-conduct rules, independent of the grade gate.
	if meta.FinalTempC != nil && slag.TFe != nil &&
		*meta.FinalTempC > cfg.CarbonTempC && *slag.TFe < cfg.CarbonTFeMax {
		findings = append(findings, Finding{
			Rule:      RuleCarbonOverride,
			Severity:  SeverityHigh,
			RootCause: "bath ran past Tc: carbon out-competed vanadium and reduced oxides back out of the slag",
			Evidence: []string{
				fmt.Sprintf("final temp = %.0f°C > %.0f°C", *meta.FinalTempC, cfg.CarbonTempC),
				fmt.Sprintf("slag TFe = %.1f%% < %.1f%%", *slag.TFe, cfg.CarbonTFeMax),
			},
		})
	}

	if meta.LanceMinMM != nil && meta.FinalTempC != nil &&
		*meta.LanceMinMM < cfg.SplashLanceMM && *meta.FinalTempC > cfg.SplashTempC {
		findings = append(findings, Finding{
			Rule:      RuleSplashRisk,
			Severity:  SeverityHigh,
			RootCause: "low lance over a hot bath drives violent CO evolution and slag/metal ejection",
			Evidence: []string{
				fmt.Sprintf("minimum lance = %.0f mm < %.0f mm", *meta.LanceMinMM, cfg.SplashLanceMM),
				fmt.Sprintf("bath temp = %.0f°C > %.0f°C", *meta.FinalTempC, cfg.SplashTempC),
			},
		})
	}

	if slag.TFe != nil && meta.FinalTempC != nil &&
		*slag.TFe < cfg.ReversionTFeMax && *meta.FinalTempC > cfg.ReversionTempC {
		findings = append(findings, Finding{
			Rule:      RuleSlagReversion,
			Severity:  SeverityMedium,
			RootCause: "carbon consumed the slag FeO; the vanadium spinel stiffened and the slag went dry",
			Evidence: []string{
				fmt.Sprintf("slag TFe = %.1f%% < %.1f%%", *slag.TFe, cfg.ReversionTFeMax),
				fmt.Sprintf("final temp = %.0f°C > %.0f°C", *meta.FinalTempC, cfg.ReversionTempC),
			},
		})
	}

	if meta.TapTimeMin != nil && *meta.TapTimeMin < cfg.TapTimeMinFloor {
		findings = append(findings, Finding{
			Rule:      RuleShortTap,
			Severity:  SeverityMedium,
			RootCause: "tapping before the slag/metal interface settles entrains vanadium-rich slag into the steel",
			Evidence:  []string{fmt.Sprintf("tap time = %.1f min < %.1f min", *meta.TapTimeMin, cfg.TapTimeMinFloor)},
		})
	}

	return findings
}

// #endregion diagnose
