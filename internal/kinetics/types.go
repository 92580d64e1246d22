package kinetics

import (
	"fmt"

	"github.com/vtxworks/converter-twin/internal/melt"
)

// #region params

// Params is one immutable version of the global model parameters. A
// simulation binds to the version handed to it at start and never re-reads.
type Params struct {
	VersionID            string
	HeatEfficiency       float64 // scales exothermic heat generation
	ReactionRateModifier float64 // scales every oxidation rate
}

// #endregion params

// #region config

// Config holds the kinetic and thermal coefficients of the blow model.
type Config struct {
	// Base mass-transfer coefficients, 1/s.
	KSi float64
	KTi float64
	KV  float64
	KC  float64

	// Critical-temperature crossover.
	TcC             float64 // carbon/vanadium selectivity switch, °C
	TcSigmoidWidthC float64 // smoothing width of the switch
	CSuppression    float64 // carbon rate multiplier far below Tc
	VLowTempBoost   float64 // vanadium rate multiplier far below Tc

	// Heat balance.
	CpSteelJ       float64 // J/(kg·K)
	HReactSiJ      float64 // J per kg element oxidized
	HReactTiJ      float64
	HReactVJ       float64
	HReactCJ       float64
	AmbientLossW   float64 // constant vessel loss, W
	CoolantSinkW   float64 // melting sink while coolant dissolves, W
	CoolantWindowS float64 // sink active for the first N seconds

	// Oxygen supply.
	RefOxygenFlowNm3H float64 // flow at which V contact intensity is 1.0

	// Integration.
	HorizonS   float64 // simulated blow length
	EmitStepS  float64 // trajectory emission cadence
	InnerStepS float64 // RK4 internal step

	// Numerical sanity envelope; leaving it aborts the run.
	TempCeilC  float64
	TempFloorC float64

	// Advisory threshold: crossover earlier than this demands coolant.
	MinSafeCrossoverS float64

	// Slag generation coefficients.
	SlagFeORate  float64 // background FeO pickup, %/s
	SlagV2O5Gain float64 // % slag V2O5 per % bath V oxidized
	SlagSiO2Gain float64
}

// DefaultConfig returns the calibrated blow model coefficients.
func DefaultConfig() Config {
	return Config{
		KSi:               0.003,
		KTi:               0.003,
		KV:                0.002,
		KC:                0.0005,
		TcC:               1361.0,
		TcSigmoidWidthC:   50.0,
		CSuppression:      0.2,
		VLowTempBoost:     1.5,
		CpSteelJ:          760.0,
		HReactSiJ:         28000.0 * 1000,
		HReactTiJ:         20000.0 * 1000,
		HReactVJ:          16000.0 * 1000,
		HReactCJ:          9000.0 * 1000,
		AmbientLossW:      200000.0,
		CoolantSinkW:      3000000.0,
		CoolantWindowS:    150.0,
		RefOxygenFlowNm3H: 22000.0,
		HorizonS:          360.0,
		EmitStepS:         10.0,
		InnerStepS:        1.0,
		TempCeilC:         3000.0,
		TempFloorC:        0.0,
		MinSafeCrossoverS: 200.0,
		SlagFeORate:       0.05,
		SlagV2O5Gain:      1.5,
		SlagSiO2Gain:      2.0,
	}
}

// #endregion config

// #region request

// LanceSchedule supplies the lance height for any simulated time.
type LanceSchedule interface {
	HeightMM(timeS float64) float64
}

// Request describes one simulation run.
type Request struct {
	Initial        melt.ProcessState
	BathWeightKG   float64
	OxygenFlowNm3H float64
	Lance          LanceSchedule // nil holds Initial.LanceHeightMM for the whole run
	Params         Params
}

// #endregion request

// #region result

// Advisory is the side-channel warning emitted when the Tc crossover lands
// dangerously early in the blow.
type Advisory struct {
	CrossoverS float64
	Message    string
}

// Result bundles the trajectory and its derived outputs.
type Result struct {
	Trajectory melt.Trajectory
	CrossoverS float64 // -1 when Tc is never reached
	Advisory   *Advisory
	Final      melt.ProcessState
}

// #endregion result

// #region error

// DivergedIntegrationError reports numerical blow-up. The run is fatal; the
// last stable state is carried for diagnostics.
type DivergedIntegrationError struct {
	TimeS      float64
	TempC      float64
	LastStable melt.ProcessState
}

func (e *DivergedIntegrationError) Error() string {
	return fmt.Sprintf("integration diverged at t=%.0fs: T=%.0f°C outside sane envelope", e.TimeS, e.TempC)
}

// #endregion error
