package publisher

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-json-experiment/json"

	"github.com/jgoulah/billchart/internal/chart"
	"github.com/jgoulah/billchart/internal/config"
	"github.com/jgoulah/billchart/pkg/models"
)

const publishTimeout = 10 * time.Second

// Publisher pushes rendered charts and latest readings to MQTT and Home Assistant
type Publisher struct {
	client       mqtt.Client
	topicPrefix  string
	haConfig     config.HAConfig
	entityPrefix string
	http         *http.Client
}

// New creates a new publisher (MQTT and HA HTTP API are independently optional)
func New(mqttCfg config.MQTTConfig, haCfg config.HAConfig) (*Publisher, error) {
	// Validate HA config if enabled
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
	}

	var client mqtt.Client
	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}

		clientID := mqttCfg.ClientID
		if clientID == "" {
			clientID = "billchart"
		}

		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID(clientID)
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
	}

	return newPublisher(client, mqttCfg, haCfg), nil
}

func newPublisher(client mqtt.Client, mqttCfg config.MQTTConfig, haCfg config.HAConfig) *Publisher {
	topicPrefix := mqttCfg.TopicPrefix
	if topicPrefix == "" {
		topicPrefix = config.DefaultTopicPrefix
	}
	entityPrefix := haCfg.EntityPrefix
	if entityPrefix == "" {
		entityPrefix = config.DefaultEntityPrefix
	}
	return &Publisher{
		client:       client,
		topicPrefix:  topicPrefix,
		haConfig:     haCfg,
		entityPrefix: entityPrefix,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// MQTTEnabled reports whether a broker connection is configured
func (p *Publisher) MQTTEnabled() bool { return p.client != nil }

// HAEnabled reports whether Home Assistant publishing is configured
func (p *Publisher) HAEnabled() bool { return p.haConfig.Enabled }

// ChartTopic is the retained topic holding a commodity's PNG chart
func (p *Publisher) ChartTopic(kind models.Commodity) string {
	return fmt.Sprintf("%s/%s/chart", p.topicPrefix, kind)
}

// StateTopic is the topic holding a commodity's latest reading
func (p *Publisher) StateTopic(kind models.Commodity) string {
	return fmt.Sprintf("%s/%s/state", p.topicPrefix, kind)
}

// EntityID is the Home Assistant entity a commodity's reading is posted to
func (p *Publisher) EntityID(kind models.Commodity) string {
	return fmt.Sprintf("%s_%s", p.entityPrefix, kind)
}

// Reading is the latest bill-period consumption of a commodity
type Reading struct {
	Commodity models.Commodity
	Period    time.Time
	Value     float64
	Unit      string
}

// LatestReading returns the newest well-formed point of a sorted series
func LatestReading(kind models.Commodity, series chart.TimeSeries) (Reading, bool) {
	desc, ok := kind.Descriptor()
	if !ok {
		return Reading{}, false
	}
	for i := len(series) - 1; i >= 0; i-- {
		if p := series[i]; !p.Malformed() {
			return Reading{Commodity: kind, Period: p.Date, Value: p.Value, Unit: desc.Unit}, true
		}
	}
	return Reading{}, false
}

// StatePayload is the JSON published to the state topic
type StatePayload struct {
	Commodity string  `json:"commodity"`
	Period    string  `json:"period"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
}

func (r Reading) payload() StatePayload {
	return StatePayload{
		Commodity: r.Commodity.String(),
		Period:    r.Period.Format("2006-01"),
		Value:     r.Value,
		Unit:      r.Unit,
	}
}

// PublishChart publishes a PNG chart, retained, to the commodity's chart topic
func (p *Publisher) PublishChart(kind models.Commodity, png []byte) error {
	return p.publish(p.ChartTopic(kind), png)
}

// PublishState publishes the latest reading as JSON to the state topic
func (p *Publisher) PublishState(r Reading) error {
	body, err := json.Marshal(r.payload())
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	return p.publish(p.StateTopic(r.Commodity), body)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	if p.client == nil {
		return fmt.Errorf("MQTT publishing is not enabled in config")
	}
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// HAStatePayload matches the Home Assistant POST /api/states/<entity_id> body
type HAStatePayload struct {
	State      string            `json:"state"`
	Attributes map[string]string `json:"attributes"`
}

// PublishHA sends the latest reading to Home Assistant via HTTP API
func (p *Publisher) PublishHA(r Reading) error {
	if !p.haConfig.Enabled {
		return fmt.Errorf("Home Assistant publishing is not enabled in config")
	}

	desc, _ := r.Commodity.Descriptor()
	apiURL := fmt.Sprintf("%s/api/states/%s", p.haConfig.URL, p.EntityID(r.Commodity))

	payload := HAStatePayload{
		State: strconv.FormatFloat(r.Value, 'f', -1, 64),
		Attributes: map[string]string{
			"unit_of_measurement": r.Unit,
			"friendly_name":       desc.TitleLabel,
			"period":              r.Period.Format("2006-01"),
		},
	}

	body, err := json.Marshal(payload, json.Deterministic(true))
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	// 201 when the entity is created, 200 when it is updated
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
