package charge

import (
	"fmt"

	"github.com/vtxworks/converter-twin/internal/melt"
)

// #region inputs

// Inputs describes the hot metal arriving at the converter.
type Inputs struct {
	WeightT     float64
	TempC       float64
	Comp        melt.Composition
	TargetTempC float64
	OneCan      bool

	// Ladle logistics, minutes. Zero means no transfer loss.
	TransportTimeMin float64
	EmptyTimeMin     float64
}

// #endregion inputs

// #region result

// Result is the computed charge plan.
type Result struct {
	Recipe      map[string]float64 // coolant tag → tons
	OxygenM3    float64
	SlagWeightT float64
	VSiTiRatio  float64
	Warnings    []string

	// Heat balance terms, kJ. Kept for audit: QIn + QReact − QOut ± QCoolant ≈ 0.
	QInKJ      float64
	QReactKJ   float64
	QOutKJ     float64
	QCoolantKJ float64
}

// #endregion result

// #region config

// Config holds the balance coefficients. Defaults are the plant calibration;
// the one-can terms are deliberately exposed rather than hardcoded.
type Config struct {
	CpHotMetalKJ  float64 // kJ/(kg·K) physical heat of hot metal
	CpTargetKJ    float64 // kJ/(kg·K) at the target end temperature
	HeatLossRatio float64 // fraction of target heat lost to vessel/slag

	TargetVResidual      float64 // % V left in the bath at end of blow
	CarbonOxidationFloor float64 // % C below which carbon heat is not credited

	// Enthalpies, kJ per kg of element oxidized.
	HSi float64
	HV  float64
	HC  float64

	// Coolant absorption / heating values, kJ/kg.
	HOxideScale   float64
	HPigIron      float64
	HPelletReturn float64
	HFerrosilicon float64

	// Strategy thresholds.
	VSiTiRatioMin   float64 // below this, force oxide scale
	SiSplashCeiling float64 // above this, force pig iron

	// Slag and oxygen stoichiometry.
	SlagCoeffSi float64
	SlagCoeffV  float64
	OxyCoeffSi  float64 // m³ O2 per kg Si oxidized
	OxyCoeffV   float64
	OxyCoeffC   float64

	// One-can process corrections.
	OneCanTempBoostC float64
	OneCanSlagFactor float64

	// Ladle temperature-loss coefficients (ΔT = K1·√t_transport + K2·√t_empty).
	LadleK1 float64
	LadleK2 float64

	// Largest heat deficit, kJ, that ferrosilicon compensation may cover.
	MaxHeatDeficitKJ float64
}

// DefaultConfig returns the plant calibration coefficients.
func DefaultConfig() Config {
	return Config{
		CpHotMetalKJ:         0.8,
		CpTargetKJ:           0.85,
		HeatLossRatio:        0.05,
		TargetVResidual:      0.03,
		CarbonOxidationFloor: 3.5,
		HSi:                  27620.0,
		HV:                   15200.0,
		HC:                   9280.0,
		HOxideScale:          2000.0,
		HPigIron:             1200.0,
		HPelletReturn:        1500.0,
		HFerrosilicon:        25000.0,
		VSiTiRatioMin:        1.05,
		SiSplashCeiling:      0.25,
		SlagCoeffSi:          2.14,
		SlagCoeffV:           1.79,
		OxyCoeffSi:           0.8,
		OxyCoeffV:            0.5,
		OxyCoeffC:            0.93,
		OneCanTempBoostC:     30.0,
		OneCanSlagFactor:     1.10,
		LadleK1:              2.5,
		LadleK2:              3.0,
		MaxHeatDeficitKJ:     2.0e6,
	}
}

// #endregion config

// #region error

// InfeasibleBalanceError reports that no non-negative coolant charge can close
// the heat balance. Planning for the heat must halt.
type InfeasibleBalanceError struct {
	DeficitKJ float64
}

func (e *InfeasibleBalanceError) Error() string {
	return fmt.Sprintf("infeasible heat balance: deficit %.0f kJ exceeds compensation limit", e.DeficitKJ)
}

// #endregion error
