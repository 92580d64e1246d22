package kinetics

import (
	"fmt"
	"log"

	"github.com/vtxworks/converter-twin/internal/melt"
)

// #region simulate

// Simulate integrates the blow model forward over the configured horizon and
// returns the emitted trajectory plus the critical-temperature advisory.
// The params snapshot in req is used for the whole run.
func Simulate(req Request, cfg Config) (Result, error) {
	if req.BathWeightKG <= 0 {
		return Result{}, fmt.Errorf("bath weight must be positive, got %.0f kg", req.BathWeightKG)
	}

	y := stateVec{
		req.Initial.Comp.C,
		req.Initial.Comp.Si,
		req.Initial.Comp.V,
		req.Initial.Comp.Ti,
		req.Initial.Thermal.TempC,
		req.Initial.Slag.FeO,
		req.Initial.Slag.V2O5,
		req.Initial.Slag.SiO2,
	}

	molsO2PerS := (req.OxygenFlowNm3H / 3600.0) / molarVolumeM3
	contact := 1.0
	if cfg.RefOxygenFlowNm3H > 0 {
		contact = req.OxygenFlowNm3H / cfg.RefOxygenFlowNm3H
	}

	traj := melt.Trajectory{toState(y, req, 0)}
	crossover := -1.0
	if y[idxT] >= cfg.TcC {
		crossover = 0
	}

	t := 0.0
	nextEmit := cfg.EmitStepS
	last := traj[0]

	for t < cfg.HorizonS {
		dt := cfg.InnerStepS
		if t+dt > cfg.HorizonS {
			dt = cfg.HorizonS - t
		}

		y = rk4Step(y, t, dt, req, cfg, molsO2PerS, contact)
		t += dt

		// Concentrations and slag phases cannot go negative; clamp at the
		// accepted step rather than letting stiffness poison the run.
		for _, i := range []int{idxC, idxSi, idxV, idxTi, idxFeO, idxV2O5, idxSiO2} {
			if y[i] < 0 {
				y[i] = 0
			}
		}

		if y[idxT] > cfg.TempCeilC || y[idxT] < cfg.TempFloorC {
			return Result{}, &DivergedIntegrationError{TimeS: t, TempC: y[idxT], LastStable: last}
		}

		if crossover < 0 && y[idxT] >= cfg.TcC {
			crossover = t
		}

		if t+1e-9 >= nextEmit {
			st := toState(y, req, t)
			traj = append(traj, st)
			last = st
			nextEmit += cfg.EmitStepS
		}
	}

	res := Result{
		Trajectory: traj,
		CrossoverS: crossover,
		Final:      traj.Final(),
	}

	if res.Advisory = EarlyCrossoverAdvisory(crossover, cfg); res.Advisory != nil {
		log.Printf("[KIN] early Tc crossover at %.0fs, advisory raised", crossover)
	}

	return res, nil
}

// EarlyCrossoverAdvisory returns the coolant advisory for a Tc crossover that
// lands before the safe minimum, nil otherwise. A crossover of -1 means Tc was
// never reached. Shared between the batch solver and the live producer so both
// modes raise the same signal.
func EarlyCrossoverAdvisory(crossoverS float64, cfg Config) *Advisory {
	if crossoverS < 0 || crossoverS >= cfg.MinSafeCrossoverS {
		return nil
	}
	return &Advisory{
		CrossoverS: crossoverS,
		Message: fmt.Sprintf("Tc reached at %.0fs (< %.0fs): add coolant immediately to hold vanadium selectivity",
			crossoverS, cfg.MinSafeCrossoverS),
	}
}

// #endregion simulate

// #region rk4

// rk4Step advances the state by one classic Runge-Kutta step.
func rk4Step(y stateVec, t, dt float64, req Request, cfg Config, molsO2PerS, contact float64) stateVec {
	f := func(yy stateVec, tt float64) stateVec {
		return derivatives(yy, tt, req.BathWeightKG, molsO2PerS, contact, req.Params, cfg)
	}

	k1 := f(y, t)
	k2 := f(addScaled(y, k1, dt/2), t+dt/2)
	k3 := f(addScaled(y, k2, dt/2), t+dt/2)
	k4 := f(addScaled(y, k3, dt), t+dt)

	var out stateVec
	for i := range out {
		out[i] = y[i] + dt/6.0*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}

func addScaled(y, d stateVec, h float64) stateVec {
	var out stateVec
	for i := range out {
		out[i] = y[i] + d[i]*h
	}
	return out
}

// #endregion rk4

// #region state-mapping

// StepOnce advances a single live-mode tick of dtS seconds and returns the
// new state. Used by the twin producer; shares the derivative function with
// the batch solver so both modes agree.
func StepOnce(cur melt.ProcessState, dtS float64, req Request, cfg Config) (melt.ProcessState, error) {
	y := stateVec{
		cur.Comp.C, cur.Comp.Si, cur.Comp.V, cur.Comp.Ti,
		cur.Thermal.TempC, cur.Slag.FeO, cur.Slag.V2O5, cur.Slag.SiO2,
	}
	molsO2PerS := (req.OxygenFlowNm3H / 3600.0) / molarVolumeM3
	contact := 1.0
	if cfg.RefOxygenFlowNm3H > 0 {
		contact = req.OxygenFlowNm3H / cfg.RefOxygenFlowNm3H
	}

	y = rk4Step(y, cur.TimeS, dtS, req, cfg, molsO2PerS, contact)
	for _, i := range []int{idxC, idxSi, idxV, idxTi, idxFeO, idxV2O5, idxSiO2} {
		if y[i] < 0 {
			y[i] = 0
		}
	}
	if y[idxT] > cfg.TempCeilC || y[idxT] < cfg.TempFloorC {
		return melt.ProcessState{}, &DivergedIntegrationError{TimeS: cur.TimeS + dtS, TempC: y[idxT], LastStable: cur}
	}

	next := req
	next.Initial = cur
	st := toState(y, next, cur.TimeS+dtS)
	return st, nil
}

// toState maps the raw vector to a ProcessState at time t.
func toState(y stateVec, req Request, t float64) melt.ProcessState {
	lance := req.Initial.LanceHeightMM
	if req.Lance != nil {
		lance = req.Lance.HeightMM(t)
	}
	return melt.ProcessState{
		TimeS: t,
		Comp: melt.Composition{
			C:  y[idxC],
			Si: y[idxSi],
			V:  y[idxV],
			Ti: y[idxTi],
			Mn: req.Initial.Comp.Mn,
			P:  req.Initial.Comp.P,
			S:  req.Initial.Comp.S,
		},
		Thermal: melt.ThermalState{
			TempC:      y[idxT],
			Valid:      true,
			Confidence: 1.0,
			Source:     melt.SourceModel,
		},
		Slag: melt.SlagState{
			FeO:  y[idxFeO],
			V2O5: y[idxV2O5],
			SiO2: y[idxSiO2],
		},
		LanceHeightMM: lance,
		OxygenCumM3:   req.OxygenFlowNm3H / 3600.0 * t,
	}
}

// #endregion state-mapping

// #region critical-temp

// PredictCriticalTemp returns the selectivity switch temperature adjusted for
// the current bath vanadium content. The linear coefficient is a field
// calibration around the 1361 °C reference.
func PredictCriticalTemp(vPct float64, cfg Config) float64 {
	return cfg.TcC + (vPct-0.12)*80.0
}

// #endregion critical-temp
