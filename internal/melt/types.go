package melt

import "time"

// #region composition

// Composition is a snapshot of the bath chemistry in mass percent.
// Snapshots are value types: every integration step produces a new one,
// nothing mutates an existing snapshot.
type Composition struct {
	C  float64
	Si float64
	V  float64
	Ti float64
	Mn float64
	P  float64
	S  float64
}

// maxElementPct is the physical ceiling for any single element in semi-steel.
const maxElementPct = 10.0

// Valid reports whether every element lies in [0, 10] mass percent.
func (c Composition) Valid() bool {
	for _, v := range []float64{c.C, c.Si, c.V, c.Ti, c.Mn, c.P, c.S} {
		if v < 0 || v > maxElementPct {
			return false
		}
	}
	return true
}

// VSiTiRatio returns V/(Si+Ti), the enrichment-potential criterion.
// Returns a large sentinel when Si+Ti is zero (nothing to dilute).
func (c Composition) VSiTiRatio() float64 {
	sum := c.Si + c.Ti
	if sum <= 0 {
		return 99.0
	}
	return c.V / sum
}

// #endregion composition

// #region thermal

// CorrectionSource tags where a ThermalState value came from.
type CorrectionSource string

const (
	SourceRaw       CorrectionSource = "raw"
	SourceMechanism CorrectionSource = "mechanism_inference"
	SourceFallback  CorrectionSource = "default_fallback"
	SourceModel     CorrectionSource = "model"
)

// ThermalState is a temperature reading plus its trust metadata.
type ThermalState struct {
	TempC      float64
	Valid      bool
	Confidence float64
	Source     CorrectionSource
}

// #endregion thermal

// #region slag

// SlagState tracks the oxide phases accumulated in the slag, mass percent.
type SlagState struct {
	FeO  float64
	V2O5 float64
	SiO2 float64
}

// #endregion slag

// #region process-state

// ProcessState is one point of a heat's trajectory. States are ordered by
// TimeS and each is derived solely from its immediate predecessor.
type ProcessState struct {
	TimeS         float64
	Comp          Composition
	Thermal       ThermalState
	Slag          SlagState
	LanceHeightMM float64
	OxygenCumM3   float64
}

// Trajectory is a strictly time-ordered sequence of process states.
type Trajectory []ProcessState

// TimesIncreasing reports whether the trajectory is strictly time-ordered.
func (tr Trajectory) TimesIncreasing() bool {
	for i := 1; i < len(tr); i++ {
		if tr[i].TimeS <= tr[i-1].TimeS {
			return false
		}
	}
	return true
}

// Final returns the last state, or a zero state for an empty trajectory.
func (tr Trajectory) Final() ProcessState {
	if len(tr) == 0 {
		return ProcessState{}
	}
	return tr[len(tr)-1]
}

// #endregion process-state

// #region discrete-sample

// DiscreteSample is a one-off sub-lance probe measurement (TSC/TSO).
// Samples annotate the trajectory; they never replace it.
type DiscreteSample struct {
	TakenAt time.Time
	TimeS   float64
	TempC   float64
	C       float64
	V       float64
}

// NearestState returns the index of the trajectory state closest in time to
// the sample, or -1 for an empty trajectory.
func (s DiscreteSample) NearestState(tr Trajectory) int {
	if len(tr) == 0 {
		return -1
	}
	best := 0
	bestDist := abs(tr[0].TimeS - s.TimeS)
	for i := 1; i < len(tr); i++ {
		if d := abs(tr[i].TimeS - s.TimeS); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion discrete-sample
