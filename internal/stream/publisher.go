package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/vtxworks/converter-twin/internal/melt"
)

// #region client

// ClientConfig holds the broker connection settings.
type ClientConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// NewClient connects to the MQTT broker with auto-reconnect.
func NewClient(cfg ClientConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[MQTT] connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Printf("[MQTT] connected to %s", cfg.Broker)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to broker: %w", token.Error())
	}
	return client, nil
}

// #endregion client

// #region payload

// StatePayload is the wire form of one trajectory point.
type StatePayload struct {
	HeatID        string  `json:"heat_id"`
	TimeS         float64 `json:"time_s"`
	TempC         float64 `json:"temp_c"`
	TempValid     bool    `json:"temp_valid"`
	TempConf      float64 `json:"temp_conf"`
	TempSource    string  `json:"temp_source"`
	C             float64 `json:"c_pct"`
	Si            float64 `json:"si_pct"`
	V             float64 `json:"v_pct"`
	Ti            float64 `json:"ti_pct"`
	SlagFeO       float64 `json:"slag_feo_pct"`
	SlagV2O5      float64 `json:"slag_v2o5_pct"`
	LanceHeightMM float64 `json:"lance_height_mm"`
	OxygenCumM3   float64 `json:"oxygen_cum_m3"`
}

func toPayload(heatID string, st melt.ProcessState) StatePayload {
	return StatePayload{
		HeatID:        heatID,
		TimeS:         st.TimeS,
		TempC:         st.Thermal.TempC,
		TempValid:     st.Thermal.Valid,
		TempConf:      st.Thermal.Confidence,
		TempSource:    string(st.Thermal.Source),
		C:             st.Comp.C,
		Si:            st.Comp.Si,
		V:             st.Comp.V,
		Ti:            st.Comp.Ti,
		SlagFeO:       st.Slag.FeO,
		SlagV2O5:      st.Slag.V2O5,
		LanceHeightMM: st.LanceHeightMM,
		OxygenCumM3:   st.OxygenCumM3,
	}
}

// #endregion payload

// #region publisher

// Publisher drains a state channel onto an MQTT topic. The channel is the
// producer's subscriber feed; the publisher is just transport.
type Publisher struct {
	client mqtt.Client
	topic  string // e.g. "plant/converter/{heat_id}/state"
	heatID string
	states <-chan melt.ProcessState
}

// NewPublisher wires a state channel to a topic pattern.
func NewPublisher(client mqtt.Client, topicPattern, heatID string, states <-chan melt.ProcessState) *Publisher {
	return &Publisher{
		client: client,
		topic:  topicPattern,
		heatID: heatID,
		states: states,
	}
}

// Start publishes states until the context ends or the channel closes.
func (p *Publisher) Start(ctx context.Context) {
	topic := strings.ReplaceAll(p.topic, "{heat_id}", p.heatID)
	log.Printf("[MQTT] publishing heat %s to %s", p.heatID, topic)

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-p.states:
			if !ok {
				log.Printf("[MQTT] state channel closed for heat %s", p.heatID)
				return
			}
			if err := p.publish(topic, st); err != nil {
				log.Printf("[MQTT] publish failed at t=%.0fs: %v", st.TimeS, err)
			}
		}
	}
}

func (p *Publisher) publish(topic string, st melt.ProcessState) error {
	payload, err := json.Marshal(toPayload(p.heatID, st))
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	token := p.client.Publish(topic, 0, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish: %w", token.Error())
	}
	return nil
}

// #endregion publisher
