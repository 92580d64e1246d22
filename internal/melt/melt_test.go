package melt

import "testing"

func TestCompositionValid(t *testing.T) {
	good := Composition{C: 4.2, Si: 0.28, V: 0.28, Ti: 0.10}
	if !good.Valid() {
		t.Fatal("typical semi-steel charge must validate")
	}
	if (Composition{C: -0.1}).Valid() {
		t.Fatal("negative concentration must fail")
	}
	if (Composition{Si: 12.0}).Valid() {
		t.Fatal("concentration above 10% must fail")
	}
}

func TestVSiTiRatio(t *testing.T) {
	c := Composition{V: 0.28, Si: 0.28, Ti: 0.10}
	if got := c.VSiTiRatio(); got < 0.73 || got > 0.74 {
		t.Fatalf("ratio %.3f, want ≈0.737", got)
	}
	if got := (Composition{V: 0.3}).VSiTiRatio(); got != 99.0 {
		t.Fatalf("zero denominator must hit the sentinel, got %.1f", got)
	}
}

func TestTrajectoryOrdering(t *testing.T) {
	tr := Trajectory{{TimeS: 0}, {TimeS: 10}, {TimeS: 20}}
	if !tr.TimesIncreasing() {
		t.Fatal("ordered trajectory flagged as unordered")
	}
	tr = append(tr, ProcessState{TimeS: 20})
	if tr.TimesIncreasing() {
		t.Fatal("duplicate time must break ordering")
	}
}

func TestTrajectoryFinal(t *testing.T) {
	if f := (Trajectory{}).Final(); f.TimeS != 0 {
		t.Fatalf("empty trajectory must yield the zero state, got %+v", f)
	}
	tr := Trajectory{{TimeS: 0}, {TimeS: 10}}
	if tr.Final().TimeS != 10 {
		t.Fatalf("final %.0fs, want 10s", tr.Final().TimeS)
	}
}

func TestSampleNearestState(t *testing.T) {
	tr := Trajectory{{TimeS: 0}, {TimeS: 10}, {TimeS: 20}, {TimeS: 30}}
	s := DiscreteSample{TimeS: 12}
	if idx := s.NearestState(tr); idx != 1 {
		t.Fatalf("nearest index %d, want 1", idx)
	}
	if idx := (DiscreteSample{TimeS: 100}).NearestState(tr); idx != 3 {
		t.Fatalf("past-the-end sample should snap to the last state, got %d", idx)
	}
	if idx := (DiscreteSample{}).NearestState(Trajectory{}); idx != -1 {
		t.Fatalf("empty trajectory must return -1, got %d", idx)
	}
}
