package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vtxworks/converter-twin/internal/charge"
	"github.com/vtxworks/converter-twin/internal/diagnosis"
	"github.com/vtxworks/converter-twin/internal/heat"
	"github.com/vtxworks/converter-twin/internal/history"
	"github.com/vtxworks/converter-twin/internal/kinetics"
	"github.com/vtxworks/converter-twin/internal/learn"
	"github.com/vtxworks/converter-twin/internal/melt"
	"github.com/vtxworks/converter-twin/internal/params"
	"github.com/vtxworks/converter-twin/internal/strategy"
	"github.com/vtxworks/converter-twin/internal/stream"
	"github.com/vtxworks/converter-twin/internal/twin"
	"github.com/vtxworks/converter-twin/pkg/config"
)

// #region main

func main() {
	cfg := config.Load()

	paramStore, err := params.NewStore(cfg.ParamsDBPath)
	if err != nil {
		log.Fatalf("failed to open params store: %v", err)
	}
	defer paramStore.Close()

	if _, err := paramStore.GetCurrent(); err != nil {
		log.Println("No active parameters found, creating plant defaults...")
		if _, err := paramStore.CreateInitial(); err != nil {
			log.Fatalf("failed to create initial parameters: %v", err)
		}
	}

	histStore, err := history.NewStore(cfg.HistoryDBPath)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer histStore.Close()

	kinCfg := kinetics.DefaultConfig()
	prodCfg := twin.DefaultProducerConfig()
	prodCfg.SimStepS = cfg.TickSeconds
	producer := twin.NewProducer(prodCfg, kinCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := producer.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("producer loop ended: %v", err)
		}
	}()

	fmt.Println("Converter Twin ready.")
	fmt.Printf("  params: %s | history: %s | tick: %.0fs\n", cfg.ParamsDBPath, cfg.HistoryDBPath, cfg.TickSeconds)
	fmt.Println("Commands: start <tempC> <C> <Si> <V> <Ti> [onecan] | stop | resume | estop | temp <v> | sample | seal | learn [tempC vPct] | quit")

	session := &blowSession{
		cfg:        cfg,
		producer:   producer,
		paramStore: paramStore,
		histStore:  histStore,
		parentCtx:  ctx,
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := session.dispatch(line); err != nil {
			log.Printf("error: %v", err)
		}
	}
}

// #endregion main

// #region session

type blowSession struct {
	cfg        *config.Config
	producer   *twin.Producer
	paramStore *params.Store
	histStore  *history.Store
	parentCtx  context.Context

	batch    *heat.Batch
	mqttStop context.CancelFunc
}

func (s *blowSession) dispatch(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "start":
		return s.start(fields[1:])
	case "stop":
		s.producer.Stop()
		return nil
	case "resume":
		return s.producer.Resume()
	case "estop":
		return s.producer.EmergencyStop("operator command")
	case "temp":
		if len(fields) < 2 {
			return fmt.Errorf("usage: temp <°C>")
		}
		raw, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return fmt.Errorf("parse temperature: %w", err)
		}
		reading, err := s.producer.IngestTemperature(raw, time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("resolved %.0f°C (source=%s conf=%.2f reason=%s)\n",
			reading.Thermal.TempC, reading.Thermal.Source, reading.Thermal.Confidence, reading.Reason)
		return nil
	case "sample":
		sm, err := s.producer.TakeSample(time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Printf("sub-lance: t=%.0fs T=%.0f°C C=%.2f%% V=%.3f%%\n", sm.TimeS, sm.TempC, sm.C, sm.V)
		return nil
	case "seal":
		return s.seal()
	case "learn":
		return s.learn(fields[1:])
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

// #endregion session

// #region start

// start plans a charge from the hot-metal arrival data and begins the blow.
func (s *blowSession) start(args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: start <tempC> <C> <Si> <V> <Ti> [onecan]")
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return fmt.Errorf("parse arg %d: %w", i+1, err)
		}
		vals[i] = v
	}
	oneCan := len(args) > 5 && args[5] == "onecan"

	comp := melt.Composition{C: vals[1], Si: vals[2], V: vals[3], Ti: vals[4]}
	chargeRes, err := charge.Compute(charge.Inputs{
		WeightT:     s.cfg.BathWeightT,
		TempC:       vals[0],
		Comp:        comp,
		TargetTempC: 1385.0,
		OneCan:      oneCan,
	}, charge.DefaultConfig())
	if err != nil {
		return fmt.Errorf("charge planning: %w", err)
	}
	for _, w := range chargeRes.Warnings {
		log.Printf("[CHARGE] %s", w)
	}
	fmt.Printf("charge plan: O2=%.0f m³ slag=%.1f t recipe=%v\n", chargeRes.OxygenM3, chargeRes.SlagWeightT, chargeRes.Recipe)

	current, err := s.paramStore.GetCurrent()
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}

	lance := strategy.RecommendLanceProfile(comp.Si, strategy.DefaultLanceConfig())
	coolPlan := strategy.RecommendCoolant(vals[0], comp.Si, oneCan, strategy.DefaultCoolantConfig())
	fmt.Printf("lance: %s | coolant: %s %.0f kg/t within %.0fs\n", lance.Mode, coolPlan.Choice, coolPlan.KgPerT, coolPlan.AddWithinS)

	b := heat.New(charge.ToRecipe(chargeRes), oneCan)
	req := kinetics.Request{
		Initial: melt.ProcessState{
			Comp: comp,
			Thermal: melt.ThermalState{
				TempC: vals[0], Valid: true, Confidence: 1.0, Source: melt.SourceRaw,
			},
			LanceHeightMM: lance.HeightMM(0),
		},
		BathWeightKG:   s.cfg.BathWeightT * 1000.0,
		OxygenFlowNm3H: s.cfg.OxygenFlowNm3H,
		Lance:          lance,
		Params: kinetics.Params{
			VersionID:            current.VersionID,
			HeatEfficiency:       current.HeatEfficiency,
			ReactionRateModifier: current.ReactionRateModifier,
		},
	}

	if err := s.producer.StartBlow(b, req); err != nil {
		return err
	}
	s.batch = b

	if s.cfg.MQTTEnabled {
		if err := s.startPublisher(b.ID); err != nil {
			log.Printf("MQTT disabled for this heat: %v", err)
		}
	}

	fmt.Printf("heat %s started (params %s)\n", b.ID, current.VersionID)
	return nil
}

func (s *blowSession) startPublisher(heatID string) error {
	client, err := stream.NewClient(stream.ClientConfig{
		Broker:   s.cfg.MQTTBroker,
		ClientID: s.cfg.MQTTClientID,
		Username: s.cfg.MQTTUsername,
		Password: s.cfg.MQTTPassword,
	})
	if err != nil {
		return err
	}

	pubCtx, stop := context.WithCancel(s.parentCtx)
	s.mqttStop = stop
	pub := stream.NewPublisher(client, s.cfg.MQTTTopicState, heatID, s.producer.Subscribe())
	go func() {
		pub.Start(pubCtx)
		client.Disconnect(250)
	}()
	return nil
}

// #endregion start

// #region seal-learn

// seal freezes the blow, runs the diagnosis rules, and archives the heat.
func (s *blowSession) seal() error {
	b, err := s.producer.Seal()
	if err != nil {
		return err
	}
	if s.mqttStop != nil {
		s.mqttStop()
		s.mqttStop = nil
	}

	if adv := s.producer.Advisory(); adv != nil {
		fmt.Printf("advisory: %s\n", adv.Message)
		_ = s.histStore.LogAdvisory(history.AdvisoryEntry{
			HeatID: b.ID, Kind: "critical_temp", Message: adv.Message,
		})
	}

	final := b.Trajectory.Final()
	finalTemp := final.Thermal.TempC
	slagV2O5 := final.Slag.V2O5
	initComp := melt.Composition{}
	if len(b.Trajectory) > 0 {
		initComp = b.Trajectory[0].Comp
	}

	findings := diagnosis.Diagnose(
		diagnosis.SlagAnalysis{V2O5: &slagV2O5},
		diagnosis.ProcessMeta{FinalTempC: &finalTemp, OneCan: b.OneCan, InitialComp: &initComp},
		diagnosis.DefaultConfig(),
	)
	for _, f := range findings {
		b.Findings = append(b.Findings, string(f.Rule))
		fmt.Printf("diagnosis [%s/%s]: %s\n", f.Rule, f.Severity, f.RootCause)
		_ = s.histStore.LogAdvisory(history.AdvisoryEntry{
			HeatID: b.ID, Kind: "diagnosis", Message: fmt.Sprintf("%s: %s", f.Rule, f.RootCause),
		})
	}
	if len(findings) == 0 {
		fmt.Println("diagnosis: no anomalies")
	}

	if err := s.histStore.SaveHeat(b); err != nil {
		return fmt.Errorf("archive heat: %w", err)
	}
	fmt.Printf("heat %s sealed and archived\n", b.ID)
	return nil
}

// learn ingests the sealed heat's lab actuals and commits the next params
// version. Without actuals the adapter records a skip and changes nothing.
func (s *blowSession) learn(args []string) error {
	if s.batch == nil || s.batch.Status != heat.StatusSealed {
		return fmt.Errorf("learning requires a sealed heat")
	}

	if len(args) >= 2 {
		tempC, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("parse measured temp: %w", err)
		}
		vPct, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("parse measured V: %w", err)
		}
		meas := *s.batch.Predicted
		meas.TempC = tempC
		meas.Comp.V = vPct
		s.batch.Measured = &meas
	}

	current, err := s.paramStore.GetCurrent()
	if err != nil {
		return fmt.Errorf("read params: %w", err)
	}

	result, err := learn.Learn(current, s.batch, learn.DefaultConfig())
	if err != nil {
		return err
	}
	if result.Decision.Action == "skip" {
		fmt.Printf("learning skipped: %s\n", result.Decision.Reason)
		return nil
	}

	if err := s.paramStore.Commit(result.NewParams); err != nil {
		return fmt.Errorf("commit params: %w", err)
	}
	if err := s.batch.Transition(heat.StatusLearned); err != nil {
		return err
	}
	_ = s.histStore.SaveHeat(s.batch)
	_ = s.histStore.LogAdvisory(history.AdvisoryEntry{
		HeatID: s.batch.ID, Kind: "learning", Message: result.Decision.Reason,
	})

	fmt.Printf("params %s committed: %s\n", result.NewParams.VersionID, result.Decision.Reason)
	return nil
}

// #endregion seal-learn
