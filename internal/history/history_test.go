package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vtxworks/converter-twin/internal/heat"
	"github.com/vtxworks/converter-twin/internal/melt"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sealedBatch(t *testing.T) *heat.Batch {
	t.Helper()
	b := heat.New(heat.Recipe{
		Coolants:    map[heat.CoolantType]float64{heat.CoolantOxideScale: 2.0},
		OxygenM3:    420,
		SlagWeightT: 1.2,
		VSiTiRatio:  0.74,
	}, true)
	if err := b.Transition(heat.StatusRunning); err != nil {
		t.Fatalf("transition: %v", err)
	}
	for _, ts := range []float64{10, 20, 30} {
		if err := b.Append(melt.ProcessState{TimeS: ts, Thermal: melt.ThermalState{TempC: 1340 + ts}}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	b.Predicted = &heat.Outcome{Comp: melt.Composition{C: 3.9, V: 0.04}, TempC: 1388}
	if err := b.Transition(heat.StatusSealed); err != nil {
		t.Fatalf("transition: %v", err)
	}
	return b
}

func TestSaveAndGetHeat(t *testing.T) {
	store := tempStore(t)
	b := sealedBatch(t)
	b.Findings = []string{"low_v2o5_grade"}

	if err := store.SaveHeat(b); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec, err := store.GetHeat(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != string(heat.StatusSealed) {
		t.Fatalf("status %s, want SEALED", rec.Status)
	}
	if !rec.OneCan {
		t.Fatal("one-can flag lost")
	}
	if rec.Recipe.VSiTiRatio != 0.74 || rec.Recipe.Coolants[heat.CoolantOxideScale] != 2.0 {
		t.Fatalf("recipe lost: %+v", rec.Recipe)
	}
	if rec.Predicted == nil || rec.Predicted.TempC != 1388 {
		t.Fatalf("predicted outcome lost: %+v", rec.Predicted)
	}
	if rec.Measured != nil {
		t.Fatal("measured should be absent")
	}
	if len(rec.Findings) != 1 || rec.Findings[0] != "low_v2o5_grade" {
		t.Fatalf("findings lost: %v", rec.Findings)
	}
	if len(rec.Trajectory) != 3 || rec.Trajectory[2].TimeS != 30 {
		t.Fatalf("trajectory lost: %+v", rec.Trajectory)
	}
}

func TestSaveHeatRejectsRunning(t *testing.T) {
	store := tempStore(t)
	b := heat.New(heat.Recipe{}, false)
	if err := b.Transition(heat.StatusRunning); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := store.SaveHeat(b); err == nil {
		t.Fatal("running heat must not be archived")
	}
}

func TestSaveHeatUpsertsOnLearn(t *testing.T) {
	store := tempStore(t)
	b := sealedBatch(t)

	if err := store.SaveHeat(b); err != nil {
		t.Fatalf("save sealed: %v", err)
	}

	b.Measured = &heat.Outcome{Comp: melt.Composition{C: 3.8, V: 0.05}, TempC: 1395}
	if err := b.Transition(heat.StatusLearned); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := store.SaveHeat(b); err != nil {
		t.Fatalf("save learned: %v", err)
	}

	rec, err := store.GetHeat(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != string(heat.StatusLearned) {
		t.Fatalf("status %s, want LEARNED", rec.Status)
	}
	if rec.Measured == nil || rec.Measured.TempC != 1395 {
		t.Fatalf("measured outcome lost on upsert: %+v", rec.Measured)
	}
}

func TestListHeats(t *testing.T) {
	store := tempStore(t)
	for i := 0; i < 3; i++ {
		b := sealedBatch(t)
		b.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := store.SaveHeat(b); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	heats, err := store.ListHeats(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(heats) != 2 {
		t.Fatalf("expected 2 heats, got %d", len(heats))
	}
	if heats[0].CreatedAt.Before(heats[1].CreatedAt) {
		t.Fatal("list must be newest first")
	}
}

func TestAdvisoryLog(t *testing.T) {
	store := tempStore(t)
	b := sealedBatch(t)
	if err := store.SaveHeat(b); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries := []AdvisoryEntry{
		{HeatID: b.ID, Kind: "critical_temp", Message: "Tc reached at 40s"},
		{HeatID: b.ID, Kind: "diagnosis", Message: "low_v2o5_grade"},
	}
	for _, e := range entries {
		if err := store.LogAdvisory(e); err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	got, err := store.ListAdvisories(b.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 advisories, got %d", len(got))
	}
	if got[0].Kind != "critical_temp" || got[1].Kind != "diagnosis" {
		t.Fatalf("order broken: %+v", got)
	}
	if got[0].CreatedAt.IsZero() {
		t.Fatal("missing timestamp must be filled in")
	}
}
