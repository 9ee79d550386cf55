package internal

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/ahu-sim/internal/logger"
	"github.com/sweeney/ahu-sim/internal/mqtt"
	"github.com/sweeney/ahu-sim/internal/replay"
	"github.com/sweeney/ahu-sim/internal/sim"
	"github.com/sweeney/ahu-sim/internal/status"
	"github.com/sweeney/ahu-sim/internal/telemetry"
	"github.com/sweeney/ahu-sim/internal/weather"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type telemetryPayload struct {
	TS       int64  `json:"ts"`
	Device   string `json:"device"`
	Building string `json:"building"`
	Points   struct {
		OutsideTemp   float64 `json:"outside_temp"`
		SupplyTemp    float64 `json:"supply_temp"`
		Setpoint      float64 `json:"setpoint"`
		VFDSpeed      float64 `json:"vfd_speed"`
		FanStatus     string  `json:"fan_status"`
		Alarm         *string `json:"alarm"`
		EconomizerPos float64 `json:"economizer_position"`
	} `json:"points"`
}

// TestIntegrationFullFlow runs the complete pipeline with fakes: sample
// weather, step the simulator, encode telemetry, publish, and cache the
// published messages the way the status service does.
func TestIntegrationFullFlow(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(42))
	source := weather.NewSimulated(func() time.Time { return start }, rng)
	simulator := sim.New(18.0, 2.0, 0.1, 0.05, rng)
	publisher := mqtt.NewFakePublisher()
	cache := status.NewCache()

	const topic = "building/demo_building/ahu1/telemetry"
	const cycles = 20

	for i := 0; i < cycles; i++ {
		now := start.Add(time.Duration(i) * 2 * time.Second)
		st := simulator.Step(source.Sample(), 2.0)

		data, err := telemetry.Build(st, "ahu1", "demo_building", now).Encode()
		if err != nil {
			t.Fatalf("cycle %d: encode error: %v", i, err)
		}
		if err := publisher.Publish(topic, data); err != nil {
			t.Fatalf("cycle %d: publish error: %v", i, err)
		}
	}

	if len(publisher.Messages) != cycles {
		t.Fatalf("expected %d published messages, got %d", cycles, len(publisher.Messages))
	}

	// Every payload must decode and stay within actuator bounds.
	for i, msg := range publisher.Messages {
		var p telemetryPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			t.Fatalf("message %d: invalid JSON: %v", i, err)
		}
		if p.Device != "ahu1" {
			t.Errorf("message %d: device = %q, want ahu1", i, p.Device)
		}
		if p.Building != "demo_building" {
			t.Errorf("message %d: building = %q, want demo_building", i, p.Building)
		}
		if p.TS == 0 {
			t.Errorf("message %d: missing ts", i)
		}
		if p.Points.VFDSpeed < 0 || p.Points.VFDSpeed > 100 {
			t.Errorf("message %d: vfd_speed %v out of [0,100]", i, p.Points.VFDSpeed)
		}
		if p.Points.EconomizerPos < 0 || p.Points.EconomizerPos > 100 {
			t.Errorf("message %d: economizer_position %v out of [0,100]", i, p.Points.EconomizerPos)
		}
		if p.Points.FanStatus != "ON" && p.Points.FanStatus != "OFF" {
			t.Errorf("message %d: fan_status = %q", i, p.Points.FanStatus)
		}
	}

	// Feed the stream into the topic cache like the status service does.
	for _, msg := range publisher.Messages {
		if err := cache.Put(msg.Topic, msg.Payload, time.Now()); err != nil {
			t.Fatalf("cache put: %v", err)
		}
	}

	if cache.Len() != 1 {
		t.Fatalf("expected 1 cached topic, got %d", cache.Len())
	}
	entry, ok := cache.Last(topic)
	if !ok {
		t.Fatal("expected cached entry for telemetry topic")
	}
	if entry.Device != "ahu1" {
		t.Errorf("cached device = %q, want ahu1", entry.Device)
	}
	if entry.Building != "demo_building" {
		t.Errorf("cached building = %q, want demo_building", entry.Building)
	}
	if string(entry.Payload) != string(publisher.Messages[cycles-1].Payload) {
		t.Error("cache should hold the most recent payload")
	}

	stats := cache.Stats()
	if stats.ActiveTopics != 1 || stats.UniqueBuildings != 1 || stats.UniqueDevices != 1 {
		t.Errorf("stats = %+v, want 1/1/1", stats)
	}
}

// TestIntegrationEconomizerOnColdDay verifies free cooling shows up on the wire.
func TestIntegrationEconomizerOnColdDay(t *testing.T) {
	simulator := sim.New(18.0, 2.0, 0.1, 0.05, rand.New(rand.NewSource(1)))

	st := simulator.Step(10.0, 1.0)
	data, err := telemetry.Build(st, "ahu1", "demo_building", time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)).Encode()
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	var p telemetryPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if p.Points.EconomizerPos != 100 {
		t.Errorf("economizer_position = %v, want 100 with outside at 10.0", p.Points.EconomizerPos)
	}
	if p.Points.OutsideTemp != 10 {
		t.Errorf("outside_temp = %v, want 10", p.Points.OutsideTemp)
	}
}

// TestIntegrationPayloadFormat verifies the exact JSON structure on the wire.
func TestIntegrationPayloadFormat(t *testing.T) {
	st := sim.State{
		SupplyTemp:    18.25,
		OutsideTemp:   25.0,
		Setpoint:      18.0,
		VFDSpeed:      52.5,
		Fan:           sim.FanOn,
		Alarm:         "",
		EconomizerPos: 0.0,
	}

	data, err := telemetry.Build(st, "ahu1", "demo_building", time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)).Encode()
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	expected := `{"ts":1770070692000,"device":"ahu1","building":"demo_building","points":{"outside_temp":25,"supply_temp":18.3,"setpoint":18,"vfd_speed":52.5,"fan_status":"ON","alarm":null,"economizer_position":0}}`
	if string(data) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", data, expected)
	}
}

// TestIntegrationPublishFailureDoesNotStopLoop verifies the control loop keeps
// stepping while the broker is unreachable.
func TestIntegrationPublishFailureDoesNotStopLoop(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	simulator := sim.New(18.0, 2.0, 0.1, 0.05, rng)
	publisher := mqtt.NewFakePublisher()
	publisher.Connected = false

	initial := simulator.State()
	for i := 0; i < 10; i++ {
		st := simulator.Step(25.0, 1.0)
		data, err := telemetry.Build(st, "ahu1", "demo_building", time.Now()).Encode()
		if err != nil {
			t.Fatalf("cycle %d: encode error: %v", i, err)
		}
		// Publish errors are expected while disconnected.
		_ = publisher.Publish("building/demo_building/ahu1/telemetry", data)
	}

	if len(publisher.Messages) != 0 {
		t.Errorf("expected 0 recorded messages while disconnected, got %d", len(publisher.Messages))
	}
	if simulator.State() == initial {
		t.Error("expected simulator state to evolve despite publish failures")
	}
}

// TestIntegrationReplayToCache replays meter CSV data through a fake broker
// into the topic cache and checks the per-building fan-out.
func TestIntegrationReplayToCache(t *testing.T) {
	csv := `timestamp,Panther_office_Hannah,Robin_education_Tessa
2016-01-01 00:00:00,12.5,40.25
`
	records, err := replay.Parse(strings.NewReader(csv), "electricity")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	publisher := mqtt.NewFakePublisher()
	runner := replay.NewRunner(publisher, "building", 1.0)
	if err := runner.Run(context.Background(), records); err != nil {
		t.Fatalf("run error: %v", err)
	}

	cache := status.NewCache()
	for _, msg := range publisher.Messages {
		if err := cache.Put(msg.Topic, msg.Payload, time.Now()); err != nil {
			t.Fatalf("cache put: %v", err)
		}
	}

	stats := cache.Stats()
	if stats.ActiveTopics != 2 {
		t.Errorf("ActiveTopics = %d, want 2", stats.ActiveTopics)
	}
	if stats.UniqueBuildings != 2 {
		t.Errorf("UniqueBuildings = %d, want 2", stats.UniqueBuildings)
	}
	if stats.UniqueDevices != 2 {
		t.Errorf("UniqueDevices = %d, want 2", stats.UniqueDevices)
	}

	entry, ok := cache.Last("building/Panther/Panther_office_Hannah/telemetry")
	if !ok {
		t.Fatal("expected cached entry for Panther meter")
	}
	if entry.Device != "Panther_office_Hannah" {
		t.Errorf("cached device = %q, want Panther_office_Hannah", entry.Device)
	}

	var rec struct {
		Points map[string]interface{} `json:"points"`
	}
	if err := json.Unmarshal(entry.Payload, &rec); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if rec.Points["electricity"] != 12.5 {
		t.Errorf("electricity = %v, want 12.5", rec.Points["electricity"])
	}
	if rec.Points["meter_type"] != "electricity" {
		t.Errorf("meter_type = %v, want electricity", rec.Points["meter_type"])
	}
}
