package learn

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vtxworks/converter-twin/internal/heat"
	"github.com/vtxworks/converter-twin/internal/params"
)

// #region config

// Config bounds the between-heat parameter correction. The step is a small
// smoothed nudge, not a regression: each sealed heat pulls the parameters a
// bounded distance toward whatever would have reduced its own error.
type Config struct {
	// Heat efficiency learns from the temperature error.
	EffLearningRate float64 // efficiency change per °C of error
	MaxTempErrC     float64 // temperature error clamp before applying the rate
	EffMin          float64
	EffMax          float64

	// The rate modifier learns from the vanadium removal error.
	ModLearningRate float64 // modifier change per % of V error
	MaxVErrPct      float64
	ModMin          float64
	ModMax          float64
}

// DefaultConfig returns the calibration bounds.
func DefaultConfig() Config {
	return Config{
		EffLearningRate: 0.001,
		MaxTempErrC:     50.0,
		EffMin:          0.5,
		EffMax:          1.0,
		ModLearningRate: 2.0,
		MaxVErrPct:      0.05,
		ModMin:          0.8,
		ModMax:          1.3,
	}
}

// #endregion config

// #region result

// Decision records what the adapter decided for one sealed heat.
type Decision struct {
	Action string // "commit" | "skip"
	Reason string
}

// Result bundles the proposed parameter version and the decision.
type Result struct {
	NewParams params.Record
	Decision  Decision
}

// #endregion result

// #region learn

// Learn compares a sealed heat's predicted outcome against its measured
// actuals and proposes the next parameter version. Missing actuals are an
// expected operational condition: the adapter skips, never errors.
func Learn(current params.Record, batch *heat.Batch, cfg Config) (Result, error) {
	if batch.Status != heat.StatusSealed {
		return Result{}, fmt.Errorf("batch %s is %s, learning requires SEALED", batch.ID, batch.Status)
	}
	if batch.Predicted == nil {
		return Result{}, fmt.Errorf("batch %s has no predicted outcome", batch.ID)
	}

	if batch.Measured == nil {
		return Result{
			NewParams: current,
			Decision:  Decision{Action: "skip", Reason: "no measured actuals for this heat"},
		}, nil
	}

	// Temperature: the model under-predicting heat means efficiency is set
	// too low, so the error pushes efficiency in its own direction.
	tempErr := clamp(batch.Measured.TempC-batch.Predicted.TempC, -cfg.MaxTempErrC, cfg.MaxTempErrC)
	eff := clamp(current.HeatEfficiency+tempErr*cfg.EffLearningRate, cfg.EffMin, cfg.EffMax)

	// Vanadium: more V left in the bath than predicted means the real rates
	// run slower than modeled, so the modifier comes down, and vice versa.
	vErr := clamp(batch.Predicted.Comp.V-batch.Measured.Comp.V, -cfg.MaxVErrPct, cfg.MaxVErrPct)
	mod := clamp(current.ReactionRateModifier+vErr*cfg.ModLearningRate, cfg.ModMin, cfg.ModMax)

	rec := params.Record{
		VersionID:            uuid.New().String(),
		ParentID:             current.VersionID,
		HeatEfficiency:       eff,
		ReactionRateModifier: mod,
		Note:                 fmt.Sprintf("learned from heat %s: tempErr=%.1f°C vErr=%.4f%%", batch.ID, tempErr, vErr),
		CreatedAt:            time.Now().UTC(),
	}

	return Result{
		NewParams: rec,
		Decision: Decision{
			Action: "commit",
			Reason: fmt.Sprintf("eff %.3f→%.3f, mod %.3f→%.3f", current.HeatEfficiency, eff, current.ReactionRateModifier, mod),
		},
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion learn
