package twin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vtxworks/converter-twin/internal/heat"
	"github.com/vtxworks/converter-twin/internal/kinetics"
	"github.com/vtxworks/converter-twin/internal/melt"
	"github.com/vtxworks/converter-twin/internal/softsensor"
)

// #region config

// ProducerConfig tunes the live loop.
type ProducerConfig struct {
	TickInterval time.Duration // wall-clock cadence
	SimStepS     float64       // simulated seconds advanced per tick
	SubBuffer    int           // per-subscriber channel depth

	// Emergency-stop posture: lance raised clear of the bath, oxygen cut.
	EStopLanceMM float64
}

// DefaultProducerConfig returns the live-mode defaults: real time, one
// simulated second per tick.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		TickInterval: time.Second,
		SimStepS:     1.0,
		SubBuffer:    64,
		EStopLanceMM: 2000.0,
	}
}

// #endregion config

// #region producer

// ErrNotRunning is returned by controls that need an active blow.
var ErrNotRunning = errors.New("no blow in progress")

// Producer drives one heat through its blow in real time. Each tick advances
// the model by SimStepS and publishes the new state to every subscriber.
// All controls are safe for concurrent use with the run loop.
type Producer struct {
	cfg    ProducerConfig
	kinCfg kinetics.Config

	mu        sync.Mutex
	batch     *heat.Batch
	req       kinetics.Request
	cur       melt.ProcessState
	sensor    *softsensor.Sensor
	paused    bool
	estopped  bool
	subs      []chan melt.ProcessState
	lastErr   error
	crossover float64
	advisory  *kinetics.Advisory
}

// NewProducer creates an idle producer.
func NewProducer(cfg ProducerConfig, kinCfg kinetics.Config) *Producer {
	return &Producer{
		cfg:       cfg,
		kinCfg:    kinCfg,
		sensor:    softsensor.New(softsensor.DefaultConfig()),
		crossover: -1,
	}
}

// Subscribe registers a state channel. Slow consumers lose ticks: publishes
// never block the run loop.
func (p *Producer) Subscribe() <-chan melt.ProcessState {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan melt.ProcessState, p.cfg.SubBuffer)
	p.subs = append(p.subs, ch)
	return ch
}

// #endregion producer

// #region lifecycle

// StartBlow binds a PLANNED batch to the producer and moves it to RUNNING.
func (p *Producer) StartBlow(b *heat.Batch, req kinetics.Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.batch != nil && p.batch.Status == heat.StatusRunning {
		return fmt.Errorf("heat %s still running", p.batch.ID)
	}
	if err := b.Transition(heat.StatusRunning); err != nil {
		return err
	}

	p.batch = b
	p.req = req
	p.cur = req.Initial
	p.paused = false
	p.estopped = false
	p.lastErr = nil
	p.crossover = -1
	p.advisory = nil
	if p.cur.Thermal.TempC >= p.kinCfg.TcC {
		p.crossover = 0
		if p.advisory = kinetics.EarlyCrossoverAdvisory(0, p.kinCfg); p.advisory != nil {
			log.Printf("[TWIN] heat %s starts above Tc=%.0f°C: %s", b.ID, p.kinCfg.TcC, p.advisory.Message)
		}
	}
	p.sensor.Reset()

	log.Printf("[TWIN] blow started: heat=%s T0=%.0f°C O2=%.0f Nm3/h", b.ID, p.cur.Thermal.TempC, req.OxygenFlowNm3H)
	return nil
}

// Stop pauses the blow clock. The emitted trajectory prefix is preserved.
func (p *Producer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	log.Printf("[TWIN] blow paused at t=%.0fs", p.cur.TimeS)
}

// Resume restarts a paused blow from its last emitted state.
func (p *Producer) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.estopped {
		return errors.New("emergency stop is latched, blow cannot resume")
	}
	p.paused = false
	log.Printf("[TWIN] blow resumed at t=%.0fs", p.cur.TimeS)
	return nil
}

// EmergencyStop raises the lance and cuts the oxygen. The latch is final for
// this heat: the blow can be sealed but never resumed.
func (p *Producer) EmergencyStop(reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.batch == nil || p.batch.Status != heat.StatusRunning {
		return ErrNotRunning
	}
	p.estopped = true
	p.paused = true
	p.req.OxygenFlowNm3H = 0
	p.cur.LanceHeightMM = p.cfg.EStopLanceMM
	log.Printf("[TWIN] EMERGENCY STOP heat=%s t=%.0fs reason=%s lance=%.0fmm O2=0", p.batch.ID, p.cur.TimeS, reason, p.cfg.EStopLanceMM)
	return nil
}

// Seal freezes the batch: the model's final state becomes the predicted
// outcome and the batch moves to SEALED.
func (p *Producer) Seal() (*heat.Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.batch == nil || p.batch.Status != heat.StatusRunning {
		return nil, ErrNotRunning
	}
	if len(p.batch.Trajectory) == 0 {
		return nil, fmt.Errorf("heat %s has no emitted states to seal", p.batch.ID)
	}

	final := p.batch.Trajectory.Final()
	p.batch.Predicted = &heat.Outcome{Comp: final.Comp, TempC: final.Thermal.TempC}
	if err := p.batch.Transition(heat.StatusSealed); err != nil {
		return nil, err
	}
	p.paused = true
	log.Printf("[TWIN] heat %s sealed: V=%.3f%% T=%.0f°C over %.0fs", p.batch.ID, final.Comp.V, final.Thermal.TempC, final.TimeS)
	return p.batch, nil
}

// Err returns the first fatal model error of the current blow, if any.
func (p *Producer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// CrossoverS returns when the bath crossed Tc, or -1 if it has not.
func (p *Producer) CrossoverS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.crossover
}

// Advisory returns the early-crossover coolant advisory of the current blow,
// or nil while the crossover is unreached or landed in the safe window. Set
// once per heat and held until the next StartBlow.
func (p *Producer) Advisory() *kinetics.Advisory {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advisory
}

// #endregion lifecycle

// #region run-loop

// Run ticks the blow clock until the context ends. Pausing keeps the loop
// alive but skips model steps, so Resume picks up without restart.
func (p *Producer) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Producer) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.batch == nil || p.batch.Status != heat.StatusRunning || p.paused || p.lastErr != nil {
		return
	}
	if p.cur.TimeS >= p.kinCfg.HorizonS {
		return
	}

	next, err := kinetics.StepOnce(p.cur, p.cfg.SimStepS, p.req, p.kinCfg)
	if err != nil {
		p.lastErr = err
		p.paused = true
		log.Printf("[TWIN] heat %s model fault at t=%.0fs: %v", p.batch.ID, p.cur.TimeS, err)
		return
	}

	if p.crossover < 0 && next.Thermal.TempC >= p.kinCfg.TcC {
		p.crossover = next.TimeS
		log.Printf("[TWIN] heat %s crossed Tc=%.0f°C at t=%.0fs", p.batch.ID, p.kinCfg.TcC, next.TimeS)
		if p.advisory = kinetics.EarlyCrossoverAdvisory(next.TimeS, p.kinCfg); p.advisory != nil {
			log.Printf("[TWIN] heat %s advisory: %s", p.batch.ID, p.advisory.Message)
		}
	}

	p.cur = next
	if err := p.batch.Append(next); err != nil {
		p.lastErr = err
		p.paused = true
		return
	}

	for _, ch := range p.subs {
		select {
		case ch <- next:
		default:
		}
	}
}

// #endregion run-loop

// #region measurements

// IngestTemperature resolves one raw instrument reading through the soft
// sensor and, when the producer trusts it more than the model, realigns the
// model temperature to it.
func (p *Producer) IngestTemperature(raw float64, at time.Time) (softsensor.Reading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.batch == nil || p.batch.Status != heat.StatusRunning {
		return softsensor.Reading{}, ErrNotRunning
	}

	siRate, cRate := p.recentRates()
	reading := p.sensor.Ingest(raw, at, siRate, cRate)
	if reading.Thermal.Valid {
		p.cur.Thermal = reading.Thermal
	}
	log.Printf("[TWIN] temp reading heat=%s raw=%.0f°C resolved=%.0f°C source=%s conf=%.2f",
		p.batch.ID, raw, reading.Thermal.TempC, reading.Thermal.Source, reading.Thermal.Confidence)
	return reading, nil
}

// recentRates estimates the Si and C oxidation rates in %/min from the last
// two emitted states. Callers hold the mutex.
func (p *Producer) recentRates() (siRate, cRate float64) {
	tr := p.batch.Trajectory
	if len(tr) < 2 {
		return 0, 0
	}
	a, b := tr[len(tr)-2], tr[len(tr)-1]
	dtMin := (b.TimeS - a.TimeS) / 60.0
	if dtMin <= 0 {
		return 0, 0
	}
	return (a.Comp.Si - b.Comp.Si) / dtMin, (a.Comp.C - b.Comp.C) / dtMin
}

// TakeSample records a sub-lance probe against the running heat. The sample
// reflects the current model state; measurement scatter is the probe's.
func (p *Producer) TakeSample(at time.Time) (melt.DiscreteSample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.batch == nil || p.batch.Status != heat.StatusRunning {
		return melt.DiscreteSample{}, ErrNotRunning
	}

	s := melt.DiscreteSample{
		TakenAt: at,
		TimeS:   p.cur.TimeS,
		TempC:   p.cur.Thermal.TempC,
		C:       p.cur.Comp.C,
		V:       p.cur.Comp.V,
	}
	p.batch.AttachSample(s)
	log.Printf("[TWIN] sub-lance sample heat=%s t=%.0fs T=%.0f°C C=%.2f%% V=%.3f%%", p.batch.ID, s.TimeS, s.TempC, s.C, s.V)
	return s, nil
}

// Current returns the latest model state.
func (p *Producer) Current() melt.ProcessState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur
}

// #endregion measurements
