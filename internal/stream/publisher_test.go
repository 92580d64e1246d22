package stream

import (
	"testing"

	"github.com/vtxworks/converter-twin/internal/melt"
)

func TestToPayloadMapsState(t *testing.T) {
	st := melt.ProcessState{
		TimeS: 120,
		Comp:  melt.Composition{C: 3.9, Si: 0.05, V: 0.10, Ti: 0.02},
		Thermal: melt.ThermalState{
			TempC: 1362, Valid: false, Confidence: 0.85, Source: melt.SourceMechanism,
		},
		Slag:          melt.SlagState{FeO: 6.0, V2O5: 11.2, SiO2: 8.1},
		LanceHeightMM: 1400,
		OxygenCumM3:   733,
	}

	p := toPayload("heat-1", st)
	if p.HeatID != "heat-1" || p.TimeS != 120 {
		t.Fatalf("identity fields lost: %+v", p)
	}
	if p.TempC != 1362 || p.TempValid || p.TempConf != 0.85 || p.TempSource != "mechanism_inference" {
		t.Fatalf("thermal trust metadata lost: %+v", p)
	}
	if p.V != 0.10 || p.SlagV2O5 != 11.2 || p.LanceHeightMM != 1400 {
		t.Fatalf("process fields lost: %+v", p)
	}
}
