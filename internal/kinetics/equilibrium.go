package kinetics

import "github.com/vtxworks/converter-twin/internal/melt"

// #region equilibrium

// EquilibriumOutcome is the theoretical end state under the oxygen-affinity
// ordering Si > Ti > V > C, before kinetics slows anything down.
type EquilibriumOutcome struct {
	Comp       melt.Composition
	OxygenLeft float64 // mol O2 unconsumed on the normalized basis
}

// Equilibrium consumes the supplied oxygen in affinity order against a
// normalized 1000 kg bath and returns the resulting composition. A cheap
// pre-check before running the full integration.
func Equilibrium(initial melt.Composition, oxygenM3 float64, bathWeightKG float64) EquilibriumOutcome {
	const basisKG = 1000.0

	molsSi := initial.Si / 100.0 * basisKG * 1000.0 / molSi
	molsTi := initial.Ti / 100.0 * basisKG * 1000.0 / molTi
	molsV := initial.V / 100.0 * basisKG * 1000.0 / molV
	molsC := initial.C / 100.0 * basisKG * 1000.0 / molC

	// Scale the oxygen supply to the 1000 kg basis.
	o2 := oxygenM3 / molarVolumeM3 * (basisKG / bathWeightKG)

	// Si + O2 → SiO2
	r := min(molsSi, o2)
	molsSi -= r
	o2 -= r

	// Ti + O2 → TiO2
	r = min(molsTi, o2)
	molsTi -= r
	o2 -= r

	// 4V + 3O2 → 2V2O3
	r = min(molsV, o2/0.75)
	molsV -= r
	o2 -= r * 0.75

	// 2C + O2 → 2CO
	r = min(molsC, o2/0.5)
	molsC -= r
	o2 -= r * 0.5

	out := initial
	out.Si = molsSi * molSi / 1000.0 / basisKG * 100.0
	out.Ti = molsTi * molTi / 1000.0 / basisKG * 100.0
	out.V = molsV * molV / 1000.0 / basisKG * 100.0
	out.C = molsC * molC / 1000.0 / basisKG * 100.0

	return EquilibriumOutcome{Comp: out, OxygenLeft: o2}
}

// #endregion equilibrium
