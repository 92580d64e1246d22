package softsensor

import (
	"math"
	"time"

	"github.com/vtxworks/converter-twin/internal/melt"
)

// #region config

// Config holds the plausibility bounds and the reconstruction coefficients.
type Config struct {
	TempMinC       float64
	TempMaxC       float64
	MaxRateCPerMin float64

	// Reduced heat-balance reconstruction: ΔT/min = SiHeat·rSi + CHeat·rC + BaseLoss.
	SiHeatCoeff  float64
	CHeatCoeff   float64
	BaseLossCPer float64

	// Cold-start fallback when no accepted reading exists yet.
	FallbackTempC float64
	FallbackConf  float64

	// Confidence of the first reconstruction and its per-step decay while
	// reconstruction continues without a valid raw reading.
	ReconstructConf  float64
	ConfDecayPerStep float64
	ConfFloor        float64
}

// DefaultConfig returns the semi-steel sensor envelope.
func DefaultConfig() Config {
	return Config{
		TempMinC:         1200.0,
		TempMaxC:         1550.0,
		MaxRateCPerMin:   50.0,
		SiHeatCoeff:      20.0,
		CHeatCoeff:       10.0,
		BaseLossCPer:     -5.0,
		FallbackTempC:    1300.0,
		FallbackConf:     0.1,
		ReconstructConf:  0.85,
		ConfDecayPerStep: 0.95,
		ConfFloor:        0.2,
	}
}

// #endregion config

// #region sensor

// Sensor validates raw temperature readings and reconstructs a usable value
// from the reduced heat balance when the instrument misbehaves. State is
// scoped to one heat; Reset before the next one.
type Sensor struct {
	cfg Config

	lastAccepted   float64
	lastAt         time.Time
	hasHistory     bool
	reconstructRun int // consecutive reconstructions since the last valid raw
}

// New creates a sensor for one heat.
func New(cfg Config) *Sensor {
	return &Sensor{cfg: cfg}
}

// Reset clears the rolling state at a heat boundary.
func (s *Sensor) Reset() {
	s.lastAccepted = 0
	s.lastAt = time.Time{}
	s.hasHistory = false
	s.reconstructRun = 0
}

// #endregion sensor

// #region reading

// Reading is the resolved sensor output. Never absent: an invalid raw value
// is replaced, not rejected.
type Reading struct {
	Raw     float64
	Thermal melt.ThermalState
	Reason  string // "normal", "out_of_range", "rate_exceeded"
}

// #endregion reading

// #region ingest

// Ingest resolves one raw instrument reading taken at ts. siRate and cRate
// are the model's current oxidation rates in %/min, used only when the raw
// value fails validation.
func (s *Sensor) Ingest(raw float64, ts time.Time, siRate, cRate float64) Reading {
	dtMin := 0.0
	if s.hasHistory && ts.After(s.lastAt) {
		dtMin = ts.Sub(s.lastAt).Minutes()
	}

	reason := s.validate(raw, dtMin)
	if reason == "normal" {
		s.lastAccepted = raw
		s.lastAt = ts
		s.hasHistory = true
		s.reconstructRun = 0
		return Reading{
			Raw: raw,
			Thermal: melt.ThermalState{
				TempC:      raw,
				Valid:      true,
				Confidence: 1.0,
				Source:     melt.SourceRaw,
			},
			Reason: reason,
		}
	}

	// Cold start with nothing to extrapolate from: clamp to the fallback.
	if !s.hasHistory {
		s.lastAccepted = s.cfg.FallbackTempC
		s.lastAt = ts
		s.hasHistory = true
		s.reconstructRun = 1
		return Reading{
			Raw: raw,
			Thermal: melt.ThermalState{
				TempC:      s.cfg.FallbackTempC,
				Valid:      false,
				Confidence: s.cfg.FallbackConf,
				Source:     melt.SourceFallback,
			},
			Reason: reason,
		}
	}

	// Mechanism inference: previous accepted value plus the net heat balance
	// over the elapsed interval. The estimate feeds forward so long outages
	// stay continuous.
	est := s.lastAccepted + (siRate*s.cfg.SiHeatCoeff+cRate*s.cfg.CHeatCoeff+s.cfg.BaseLossCPer)*dtMin
	est = clampTemp(est, s.cfg)

	s.reconstructRun++
	conf := s.cfg.ReconstructConf * math.Pow(s.cfg.ConfDecayPerStep, float64(s.reconstructRun-1))
	if conf < s.cfg.ConfFloor {
		conf = s.cfg.ConfFloor
	}

	s.lastAccepted = est
	s.lastAt = ts

	return Reading{
		Raw: raw,
		Thermal: melt.ThermalState{
			TempC:      est,
			Valid:      false,
			Confidence: conf,
			Source:     melt.SourceMechanism,
		},
		Reason: reason,
	}
}

// #endregion ingest

// #region validation

// validate applies the plausibility rules in order: range first, then rate
// of change against the previous accepted reading.
func (s *Sensor) validate(raw, dtMin float64) string {
	if raw < s.cfg.TempMinC || raw > s.cfg.TempMaxC {
		return "out_of_range"
	}
	if s.hasHistory && dtMin > 0 {
		rate := math.Abs(raw-s.lastAccepted) / dtMin
		if rate > s.cfg.MaxRateCPerMin {
			return "rate_exceeded"
		}
	}
	return "normal"
}

func clampTemp(v float64, cfg Config) float64 {
	if v < cfg.TempMinC {
		return cfg.TempMinC
	}
	if v > cfg.TempMaxC {
		return cfg.TempMaxC
	}
	return v
}

// #endregion validation
