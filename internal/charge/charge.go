package charge

import (
	"fmt"
	"math"

	"github.com/vtxworks/converter-twin/internal/heat"
)

// #region compute

// Compute solves the static heat/mass balance for one charge: input physical
// heat plus oxidation heat against the target end state, coolant sized to
// absorb the surplus. Pure function over its inputs and coefficients.
func Compute(inp Inputs, cfg Config) (Result, error) {
	if !inp.Comp.Valid() {
		return Result{}, fmt.Errorf("composition out of physical range: %+v", inp.Comp)
	}
	if inp.WeightT <= 0 {
		return Result{}, fmt.Errorf("hot metal weight must be positive, got %.2f t", inp.WeightT)
	}

	massKG := inp.WeightT * 1000.0

	// Ladle losses, then the one-can thermal credit.
	tLoss := cfg.LadleK1*math.Sqrt(inp.TransportTimeMin) + cfg.LadleK2*math.Sqrt(inp.EmptyTimeMin)
	tEff := inp.TempC - tLoss
	if inp.OneCan {
		tEff += cfg.OneCanTempBoostC
	}

	qIn := massKG * cfg.CpHotMetalKJ * tEff

	// Reaction heat. Si burns out, V down to its residual target, carbon only
	// for the slice above the oxidation floor.
	deltaSi := inp.Comp.Si / 100.0
	deltaV := math.Max(0, (inp.Comp.V-cfg.TargetVResidual)/100.0)
	deltaC := math.Max(0, (inp.Comp.C-cfg.CarbonOxidationFloor)/100.0)

	qReact := massKG * (deltaSi*cfg.HSi + deltaV*cfg.HV + deltaC*cfg.HC)

	qTarget := massKG * cfg.CpTargetKJ * inp.TargetTempC
	qOut := qTarget * (1.0 + cfg.HeatLossRatio)

	qExcess := qIn + qReact - qOut

	res := Result{
		Recipe:     map[string]float64{},
		VSiTiRatio: inp.Comp.VSiTiRatio(),
		QInKJ:      qIn,
		QReactKJ:   qReact,
		QOutKJ:     qOut,
	}

	if err := solveCoolant(&res, inp, cfg, qExcess); err != nil {
		return Result{}, err
	}

	// Slag mass from the oxidized Si and V, inflated for blast-furnace slag
	// carryover in one-can operation.
	slagKG := cfg.SlagCoeffSi*massKG*deltaSi + cfg.SlagCoeffV*massKG*deltaV
	res.SlagWeightT = slagKG / 1000.0
	if inp.OneCan {
		res.SlagWeightT *= cfg.OneCanSlagFactor
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("one-can transfer: slag estimate inflated ×%.2f for carryover", cfg.OneCanSlagFactor))
	}

	res.OxygenM3 = massKG * (deltaSi*cfg.OxyCoeffSi + deltaV*cfg.OxyCoeffV + deltaC*cfg.OxyCoeffC)

	return res, nil
}

// #endregion compute

// #region coolant-solve

// solveCoolant picks the coolant type per the strategy overrides and sizes it
// so the surplus heat is absorbed exactly.
func solveCoolant(res *Result, inp Inputs, cfg Config, qExcess float64) error {
	// Enrichment override: a lean V/(Si+Ti) charge cannot afford neutral
	// coolants diluting the slag; force the exothermic iron-oxide additive.
	if res.VSiTiRatio < cfg.VSiTiRatioMin {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("V/(Si+Ti) = %.2f below %.2f: enrichment-critical, forcing oxide scale, neutral coolants disallowed",
				res.VSiTiRatio, cfg.VSiTiRatioMin))
		if qExcess < 0 {
			return &InfeasibleBalanceError{DeficitKJ: -qExcess}
		}
		tons := qExcess / (cfg.HOxideScale * 1000.0)
		res.Recipe[string(heat.CoolantOxideScale)] = tons
		res.QCoolantKJ = tons * 1000.0 * cfg.HOxideScale
		return nil
	}

	// Heat deficit: compensate chemically within bounds, otherwise the charge
	// is not plannable.
	if qExcess < 0 {
		deficit := -qExcess
		if deficit > cfg.MaxHeatDeficitKJ {
			return &InfeasibleBalanceError{DeficitKJ: deficit}
		}
		tons := deficit / (cfg.HFerrosilicon * 1000.0)
		res.Recipe[string(heat.AdditiveFerrosilicon)] = tons
		res.QCoolantKJ = -deficit // heater, enters the balance with opposite sign
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("heat deficit %.1f MJ: ferrosilicon compensation %.2f t", deficit/1000.0, tons))
		return nil
	}

	// Splash override: high-Si charges get the strong-cooling pellet return
	// regardless of thermal optimality.
	typ := heat.CoolantPigIron
	absorb := cfg.HPigIron
	if inp.Comp.Si > cfg.SiSplashCeiling {
		typ = heat.CoolantPelletReturn
		absorb = cfg.HPelletReturn
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("Si %.2f%% above %.2f%%: pellet return forced to suppress splashing", inp.Comp.Si, cfg.SiSplashCeiling))
	}

	tons := qExcess / (absorb * 1000.0)
	res.Recipe[string(typ)] = tons
	res.QCoolantKJ = tons * 1000.0 * absorb
	return nil
}

// #endregion coolant-solve

// #region balance-residual

// BalanceResidualKJ returns QIn + QReact − QOut − QCoolant for a result.
// Zero (to rounding) for every feasible charge.
func BalanceResidualKJ(res Result) float64 {
	return res.QInKJ + res.QReactKJ - res.QOutKJ - res.QCoolantKJ
}

// #endregion balance-residual

// #region recipe-conversion

// ToRecipe converts a result into the heat.Recipe consumed downstream.
func ToRecipe(res Result) heat.Recipe {
	coolants := make(map[heat.CoolantType]float64, len(res.Recipe))
	for k, v := range res.Recipe {
		coolants[heat.CoolantType(k)] = v
	}
	return heat.Recipe{
		Coolants:    coolants,
		OxygenM3:    res.OxygenM3,
		SlagWeightT: res.SlagWeightT,
		VSiTiRatio:  res.VSiTiRatio,
	}
}

// #endregion recipe-conversion
