package replay

import (
	"fmt"
	"math"

	"github.com/vtxworks/converter-twin/internal/history"
	"github.com/vtxworks/converter-twin/internal/kinetics"
	"github.com/vtxworks/converter-twin/internal/melt"
	"github.com/vtxworks/converter-twin/internal/strategy"
)

// #region types

// Result captures one archived heat re-simulated under a parameter version.
type Result struct {
	HeatID    string
	VersionID string

	// Replayed model endpoint.
	ReplayTempC float64
	ReplayVPct  float64

	// Errors against the archived reference. The measured outcome is the
	// reference when the lab reported one, the original prediction otherwise.
	Reference  string // "lab" | "model"
	TempErrC   float64
	VErrPct    float64
	Advisory   bool
	CrossoverS float64
}

// Summary aggregates a replay run across heats.
type Summary struct {
	Total       int
	Skipped     int // no stored outcome to compare against
	MeanAbsTemp float64
	MeanAbsV    float64
}

// #endregion types

// #region replay

// Heat re-simulates one archived heat from its stored initial conditions
// under the given parameter version and reports the endpoint errors. The
// lance runs the standing profile recommended for the initial silicon, the
// same rule the live path applies.
func Heat(rec history.HeatRecord, initial melt.ProcessState, bathWeightKG, oxygenFlowNm3H float64, p kinetics.Params, cfg kinetics.Config) (Result, error) {
	res, err := kinetics.Simulate(kinetics.Request{
		Initial:        initial,
		BathWeightKG:   bathWeightKG,
		OxygenFlowNm3H: oxygenFlowNm3H,
		Lance:          strategy.RecommendLanceProfile(initial.Comp.Si, strategy.DefaultLanceConfig()),
		Params:         p,
	}, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("replay heat %s: %w", rec.HeatID, err)
	}

	out := Result{
		HeatID:      rec.HeatID,
		VersionID:   p.VersionID,
		ReplayTempC: res.Final.Thermal.TempC,
		ReplayVPct:  res.Final.Comp.V,
		Advisory:    res.Advisory != nil,
		CrossoverS:  res.CrossoverS,
	}

	ref := rec.Measured
	out.Reference = "lab"
	if ref == nil {
		ref = rec.Predicted
		out.Reference = "model"
	}
	if ref == nil {
		return Result{}, fmt.Errorf("heat %s has no stored outcome to compare against", rec.HeatID)
	}

	out.TempErrC = out.ReplayTempC - ref.TempC
	out.VErrPct = out.ReplayVPct - ref.Comp.V
	return out, nil
}

// Summarize folds per-heat results into aggregate error statistics.
func Summarize(results []Result, skipped int) Summary {
	s := Summary{Total: len(results) + skipped, Skipped: skipped}
	if len(results) == 0 {
		return s
	}
	for _, r := range results {
		s.MeanAbsTemp += math.Abs(r.TempErrC)
		s.MeanAbsV += math.Abs(r.VErrPct)
	}
	s.MeanAbsTemp /= float64(len(results))
	s.MeanAbsV /= float64(len(results))
	return s
}

// #endregion replay
