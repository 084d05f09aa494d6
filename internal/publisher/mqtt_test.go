package publisher

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"

	"github.com/jgoulah/billchart/internal/chart"
	"github.com/jgoulah/billchart/internal/config"
	"github.com/jgoulah/billchart/pkg/models"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type message struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeClient records publishes; other Client methods are not used.
type fakeClient struct {
	mqtt.Client
	sent []message
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, message{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (c *fakeClient) IsConnected() bool { return false }

func march2023() Reading {
	return Reading{
		Commodity: models.Electricity,
		Period:    time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		Value:     120.5,
		Unit:      "kWh",
	}
}

func TestTopics(t *testing.T) {
	p := newPublisher(nil, config.MQTTConfig{}, config.HAConfig{})
	if got := p.ChartTopic(models.Water); got != "billchart/water/chart" {
		t.Errorf("ChartTopic = %q", got)
	}
	if got := p.StateTopic(models.Gas); got != "billchart/gas/state" {
		t.Errorf("StateTopic = %q", got)
	}
	if got := p.EntityID(models.Electricity); got != "sensor.billchart_electricity" {
		t.Errorf("EntityID = %q", got)
	}

	p = newPublisher(nil, config.MQTTConfig{TopicPrefix: "home/bills"}, config.HAConfig{EntityPrefix: "sensor.house"})
	if got := p.ChartTopic(models.Electricity); got != "home/bills/electricity/chart" {
		t.Errorf("ChartTopic = %q", got)
	}
	if got := p.EntityID(models.Gas); got != "sensor.house_gas" {
		t.Errorf("EntityID = %q", got)
	}
}

func TestPublishChartAndState(t *testing.T) {
	client := &fakeClient{}
	p := newPublisher(client, config.MQTTConfig{Enabled: true}, config.HAConfig{})

	if err := p.PublishChart(models.Electricity, []byte("\x89PNG")); err != nil {
		t.Fatal(err)
	}
	if err := p.PublishState(march2023()); err != nil {
		t.Fatal(err)
	}
	if len(client.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(client.sent))
	}

	if m := client.sent[0]; m.topic != "billchart/electricity/chart" || !m.retained || string(m.payload) != "\x89PNG" {
		t.Errorf("chart message = %+v", m)
	}

	var state StatePayload
	if err := json.Unmarshal(client.sent[1].payload, &state); err != nil {
		t.Fatal(err)
	}
	want := StatePayload{Commodity: "electricity", Period: "2023-03", Value: 120.5, Unit: "kWh"}
	if diff := cmp.Diff(want, state); diff != "" {
		t.Errorf("state payload mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishWithoutMQTT(t *testing.T) {
	p := newPublisher(nil, config.MQTTConfig{}, config.HAConfig{})
	if err := p.PublishChart(models.Gas, nil); err == nil {
		t.Error("expected error when MQTT is disabled")
	}
	p.Close()
}

func TestPublishHA(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		got     HAStatePayload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := newPublisher(nil, config.MQTTConfig{}, config.HAConfig{Enabled: true, URL: srv.URL, Token: "tok"})
	if err := p.PublishHA(march2023()); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/api/states/sensor.billchart_electricity" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("authorization = %q", gotAuth)
	}
	want := HAStatePayload{
		State: "120.5",
		Attributes: map[string]string{
			"unit_of_measurement": "kWh",
			"friendly_name":       "Electricity Bill Data",
			"period":              "2023-03",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishHAErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newPublisher(nil, config.MQTTConfig{}, config.HAConfig{Enabled: true, URL: srv.URL, Token: "bad"})
	if err := p.PublishHA(march2023()); err == nil {
		t.Error("expected error for 401")
	}

	p = newPublisher(nil, config.MQTTConfig{}, config.HAConfig{})
	if err := p.PublishHA(march2023()); err == nil {
		t.Error("expected error when Home Assistant is disabled")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(config.MQTTConfig{Enabled: true}, config.HAConfig{}); err == nil {
		t.Error("expected error for missing broker")
	}
	if _, err := New(config.MQTTConfig{}, config.HAConfig{Enabled: true, URL: "http://ha"}); err == nil {
		t.Error("expected error for missing token")
	}
	p, err := New(config.MQTTConfig{}, config.HAConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if p.MQTTEnabled() || p.HAEnabled() {
		t.Error("nothing should be enabled")
	}
}

func TestLatestReading(t *testing.T) {
	series := chart.TimeSeries{
		{Date: time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), Value: 10},
		{Date: time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC), Value: 20},
		{Date: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), Value: math.NaN()},
		{Value: 40},
	}
	r, ok := LatestReading(models.Gas, series)
	if !ok {
		t.Fatal("no reading")
	}
	if r.Value != 20 || r.Period.Month() != time.February || r.Unit != "GJ" {
		t.Errorf("reading = %+v", r)
	}

	if _, ok := LatestReading(models.Gas, nil); ok {
		t.Error("empty series should have no reading")
	}
	if _, ok := LatestReading(models.Commodity(8), series); ok {
		t.Error("unknown commodity should have no reading")
	}
}
