package diagnosis

import (
	"testing"

	"github.com/vtxworks/converter-twin/internal/melt"
)

func f(v float64) *float64 { return &v }

func hasRule(findings []Finding, id RuleID) bool {
	for _, fd := range findings {
		if fd.Rule == id {
			return true
		}
	}
	return false
}

func TestDiagnoseHealthyHeatIsEmpty(t *testing.T) {
	findings := Diagnose(
		SlagAnalysis{V2O5: f(16.0), TFe: f(20.0)},
		ProcessMeta{
			FinalTempC:  f(1380),
			LanceMinMM:  f(1300),
			TapTimeMin:  f(5.0),
			InitialComp: &melt.Composition{C: 4.2, Si: 0.18, V: 0.30, Ti: 0.08},
		},
		DefaultConfig(),
	)
	if len(findings) != 0 {
		t.Fatalf("healthy heat must produce no findings, got %+v", findings)
	}
}

func TestDiagnoseLowGradeChain(t *testing.T) {
	// Low grade plus high Si plus lean ratio: the whole dilution chain fires.
	findings := Diagnose(
		SlagAnalysis{V2O5: f(10.0)},
		ProcessMeta{InitialComp: &melt.Composition{C: 4.2, Si: 0.30, V: 0.28, Ti: 0.10}},
		DefaultConfig(),
	)

	for _, want := range []RuleID{RuleLowGrade, RuleSiDilution, RuleRawMaterialDeficit} {
		if !hasRule(findings, want) {
			t.Fatalf("expected %s, got %+v", want, findings)
		}
	}
}

func TestDiagnoseEnrichmentRulesGatedOnGrade(t *testing.T) {
	// Same lean charge but a healthy slag grade: the dilution rules stay quiet.
	findings := Diagnose(
		SlagAnalysis{V2O5: f(15.0)},
		ProcessMeta{InitialComp: &melt.Composition{C: 4.2, Si: 0.30, V: 0.28, Ti: 0.10}},
		DefaultConfig(),
	)
	if hasRule(findings, RuleSiDilution) || hasRule(findings, RuleRawMaterialDeficit) {
		t.Fatalf("dilution rules must gate on low grade, got %+v", findings)
	}
}

func TestDiagnoseOneCanContamination(t *testing.T) {
	findings := Diagnose(
		SlagAnalysis{V2O5: f(11.0), CaO: f(3.5)},
		ProcessMeta{OneCan: true, InitialComp: &melt.Composition{C: 4.2, Si: 0.15, V: 0.35, Ti: 0.08}},
		DefaultConfig(),
	)
	if !hasRule(findings, RuleSlagContamination) {
		t.Fatalf("expected slag contamination, got %+v", findings)
	}

	// The same assay without the one-can flag cannot blame carryover.
	findings = Diagnose(
		SlagAnalysis{V2O5: f(11.0), CaO: f(3.5)},
		ProcessMeta{InitialComp: &melt.Composition{C: 4.2, Si: 0.15, V: 0.35, Ti: 0.08}},
		DefaultConfig(),
	)
	if hasRule(findings, RuleSlagContamination) {
		t.Fatal("contamination rule requires a one-can transfer")
	}
}

func TestDiagnoseCarbonOverride(t *testing.T) {
	findings := Diagnose(
		SlagAnalysis{V2O5: f(16.0), TFe: f(9.0)},
		ProcessMeta{FinalTempC: f(1430)},
		DefaultConfig(),
	)
	if !hasRule(findings, RuleCarbonOverride) {
		t.Fatalf("expected carbon override, got %+v", findings)
	}
	// The hot bath alone, with iron still in the slag, is not enough.
	findings = Diagnose(
		SlagAnalysis{V2O5: f(16.0), TFe: f(22.0)},
		ProcessMeta{FinalTempC: f(1430)},
		DefaultConfig(),
	)
	if hasRule(findings, RuleCarbonOverride) {
		t.Fatal("carbon override needs a depleted slag TFe")
	}
}

func TestDiagnoseProcessConductRules(t *testing.T) {
	findings := Diagnose(
		SlagAnalysis{V2O5: f(16.0), TFe: f(9.0)},
		ProcessMeta{
			FinalTempC: f(1390),
			LanceMinMM: f(1000),
			TapTimeMin: f(2.0),
		},
		DefaultConfig(),
	)
	for _, want := range []RuleID{RuleSplashRisk, RuleSlagReversion, RuleShortTap} {
		if !hasRule(findings, want) {
			t.Fatalf("expected %s, got %+v", want, findings)
		}
	}
}

func TestDiagnoseMissingAssaysSkipRules(t *testing.T) {
	// No slag assay at all: only the tap-time rule has its inputs.
	findings := Diagnose(
		SlagAnalysis{},
		ProcessMeta{TapTimeMin: f(2.0)},
		DefaultConfig(),
	)
	if len(findings) != 1 || findings[0].Rule != RuleShortTap {
		t.Fatalf("expected only short_tap, got %+v", findings)
	}
}
