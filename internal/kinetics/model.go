package kinetics

import "math"

// #region molar-masses

// Molar masses, g/mol.
const (
	molC  = 12.01
	molSi = 28.09
	molV  = 50.94
	molTi = 47.87
	molO2 = 32.00
)

// molarVolumeM3 is the volume of one mole of gas at standard conditions.
const molarVolumeM3 = 0.0224

// #endregion molar-masses

// #region state-vector

// stateVec is the integrated state: C, Si, V, Ti (mass %), T (°C), and the
// slag oxides FeO, V2O5, SiO2 (mass %).
type stateVec [8]float64

const (
	idxC = iota
	idxSi
	idxV
	idxTi
	idxT
	idxFeO
	idxV2O5
	idxSiO2
)

// #endregion state-vector

// #region derivatives

// derivatives evaluates the coupled rate laws at (y, t).
//
// Si and Ti decay first-order in their own concentration. V oxidation is
// quasi-first-order, boosted below Tc and scaled by the oxygen contact
// intensity. C is suppressed below Tc and takes over above it — the central
// selectivity switch of the blow. All rates compete for the supplied oxygen.
func derivatives(y stateVec, t float64, bathKG, molsO2PerS, contact float64, p Params, cfg Config) stateVec {
	mod := p.ReactionRateModifier

	// Selectivity switch: smooth sigmoid around Tc.
	sig := 1.0 / (1.0 + math.Exp(-(y[idxT]-cfg.TcC)/cfg.TcSigmoidWidthC))

	rSi := cfg.KSi * math.Max(0, y[idxSi]) * mod
	rTi := cfg.KTi * math.Max(0, y[idxTi]) * mod
	rV := cfg.KV * math.Max(0, y[idxV]) * contact * (cfg.VLowTempBoost - (cfg.VLowTempBoost-0.5)*sig) * mod
	rC := cfg.KC * math.Max(0, y[idxC]) * (cfg.CSuppression + (1.0-cfg.CSuppression)*5.0*sig) * mod

	// Oxygen demand per reaction, mol O2/s. Stoichiometry: Si+O2→SiO2 (1),
	// Ti+O2→TiO2 (1), 4V+3O2→2V2O3 (0.75), 2C+O2→2CO (0.5).
	demSi := (rSi / 100.0) * bathKG / (molSi / 1000.0)
	demTi := (rTi / 100.0) * bathKG / (molTi / 1000.0)
	demV := (rV / 100.0) * bathKG / (molV / 1000.0) * 0.75
	demC := (rC / 100.0) * bathKG / (molC / 1000.0) * 0.5

	total := demSi + demTi + demV + demC
	factor := 1.0
	if total > molsO2PerS && total > 0 {
		factor = molsO2PerS / total
	}

	o2Si := demSi * factor
	o2Ti := demTi * factor
	o2V := demV * factor
	o2C := demC * factor

	var d stateVec
	d[idxSi] = -(o2Si * 1.0 * molSi / 1000.0) / bathKG * 100.0
	d[idxTi] = -(o2Ti * 1.0 * molTi / 1000.0) / bathKG * 100.0
	d[idxV] = -(o2V * (4.0 / 3.0) * molV / 1000.0) / bathKG * 100.0
	d[idxC] = -(o2C * 2.0 * molC / 1000.0) / bathKG * 100.0

	// Heat balance: exothermic oxidation scaled by the learned efficiency,
	// minus the coolant melting sink in its window and the ambient loss.
	mSi := math.Abs(d[idxSi]) / 100.0 * bathKG
	mTi := math.Abs(d[idxTi]) / 100.0 * bathKG
	mV := math.Abs(d[idxV]) / 100.0 * bathKG
	mC := math.Abs(d[idxC]) / 100.0 * bathKG

	heatGen := (mSi*cfg.HReactSiJ + mTi*cfg.HReactTiJ + mV*cfg.HReactVJ + mC*cfg.HReactCJ) * p.HeatEfficiency

	coolant := 0.0
	if t < cfg.CoolantWindowS {
		coolant = cfg.CoolantSinkW
	}

	d[idxT] = (heatGen - coolant - cfg.AmbientLossW) / (bathKG * cfg.CpSteelJ)

	d[idxFeO] = cfg.SlagFeORate
	d[idxV2O5] = math.Abs(d[idxV]) * cfg.SlagV2O5Gain
	d[idxSiO2] = math.Abs(d[idxSi]) * cfg.SlagSiO2Gain

	return d
}

// #endregion derivatives
