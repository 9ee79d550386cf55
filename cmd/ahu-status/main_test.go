package main

import (
	"io"
	"os"
	"testing"

	"github.com/sweeney/ahu-sim/internal/logger"
	"github.com/sweeney/ahu-sim/internal/mqtt"
	"github.com/sweeney/ahu-sim/internal/status"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestCacheHandlerStoresMessage(t *testing.T) {
	cache := status.NewCache()
	sub := mqtt.NewFakeSubscriber(cacheHandler(cache))

	payload := []byte(`{"ts":1712000000000,"device":"ahu1","building":"demo_building","points":{"supply_temp":18.2}}`)
	sub.Inject("building/demo_building/ahu1/telemetry", payload)

	entry, ok := cache.Last("building/demo_building/ahu1/telemetry")
	if !ok {
		t.Fatal("expected cached entry for topic")
	}
	if entry.Device != "ahu1" {
		t.Errorf("Device = %q, want ahu1", entry.Device)
	}
	if entry.Building != "demo_building" {
		t.Errorf("Building = %q, want demo_building", entry.Building)
	}
	if string(entry.Payload) != string(payload) {
		t.Errorf("Payload = %s, want original payload", entry.Payload)
	}
}

func TestCacheHandlerDropsInvalidPayload(t *testing.T) {
	cache := status.NewCache()
	sub := mqtt.NewFakeSubscriber(cacheHandler(cache))

	sub.Inject("building/x/y/telemetry", []byte("not json"))

	if cache.Len() != 0 {
		t.Errorf("expected empty cache after invalid payload, got %d entries", cache.Len())
	}
}
