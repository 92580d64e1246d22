package heat

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vtxworks/converter-twin/internal/melt"
)

// #region status

// Status is the lifecycle stage of a heat. Transitions are forward-only:
// PLANNED → RUNNING → SEALED → LEARNED.
type Status string

const (
	StatusPlanned Status = "PLANNED"
	StatusRunning Status = "RUNNING"
	StatusSealed  Status = "SEALED"
	StatusLearned Status = "LEARNED"
)

var statusOrder = map[Status]int{
	StatusPlanned: 0,
	StatusRunning: 1,
	StatusSealed:  2,
	StatusLearned: 3,
}

// #endregion status

// #region recipe

// CoolantType identifies a coolant or additive by its process role.
type CoolantType string

const (
	CoolantPigIron       CoolantType = "pig_iron"      // endothermic-neutral, default
	CoolantOxideScale    CoolantType = "oxide_scale"   // exothermic iron oxide, V enrichment
	CoolantPelletReturn  CoolantType = "pellet_return" // strong cooling, splash suppression
	CoolantDiscardBall   CoolantType = "discard_ball"  // cost-efficient slag ball
	AdditiveFerrosilicon CoolantType = "ferrosilicon"  // chemical heat compensation
)

// Recipe is the charge plan produced once per heat: coolant masses in tons
// plus the total oxygen demand. Read-only downstream.
type Recipe struct {
	Coolants    map[CoolantType]float64
	OxygenM3    float64
	SlagWeightT float64
	VSiTiRatio  float64
}

// #endregion recipe

// #region outcome

// Outcome is an end-of-blow result: final chemistry plus bath temperature.
// Predicted outcomes come from the model; measured ones from the lab.
type Outcome struct {
	Comp  melt.Composition
	TempC float64
}

// #endregion outcome

// #region batch

// Batch is one furnace charge from charging to tapping.
type Batch struct {
	ID         string
	Status     Status
	OneCan     bool
	Recipe     Recipe
	Trajectory melt.Trajectory
	Samples    []melt.DiscreteSample
	Predicted  *Outcome
	Measured   *Outcome
	Findings   []string // diagnosis rule tags, set after sealing
	CreatedAt  time.Time
	SealedAt   time.Time
}

// New creates a PLANNED batch around a recipe.
func New(recipe Recipe, oneCan bool) *Batch {
	return &Batch{
		ID:        uuid.New().String(),
		Status:    StatusPlanned,
		OneCan:    oneCan,
		Recipe:    recipe,
		CreatedAt: time.Now().UTC(),
	}
}

// Transition advances the batch to the next status. Backward or skipped
// transitions are rejected.
func (b *Batch) Transition(to Status) error {
	from, ok := statusOrder[b.Status]
	if !ok {
		return fmt.Errorf("unknown status %q", b.Status)
	}
	next, ok := statusOrder[to]
	if !ok {
		return fmt.Errorf("unknown status %q", to)
	}
	if next != from+1 {
		return fmt.Errorf("illegal transition %s → %s", b.Status, to)
	}
	b.Status = to
	if to == StatusSealed {
		b.SealedAt = time.Now().UTC()
	}
	return nil
}

// Append adds a process state to the trajectory, enforcing time ordering.
// Only RUNNING batches accept new states.
func (b *Batch) Append(st melt.ProcessState) error {
	if b.Status != StatusRunning {
		return fmt.Errorf("batch %s is %s, not RUNNING", b.ID, b.Status)
	}
	if n := len(b.Trajectory); n > 0 && st.TimeS <= b.Trajectory[n-1].TimeS {
		return fmt.Errorf("state time %.1fs not after %.1fs", st.TimeS, b.Trajectory[n-1].TimeS)
	}
	b.Trajectory = append(b.Trajectory, st)
	return nil
}

// AttachSample records a sub-lance measurement against the batch.
func (b *Batch) AttachSample(s melt.DiscreteSample) {
	b.Samples = append(b.Samples, s)
}

// #endregion batch
