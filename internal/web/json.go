package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/ahu-sim/internal/status"
	"github.com/sweeney/ahu-sim/internal/telemetry"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details. Points carries the same values
// the telemetry payload would, so the page and the wire always agree.
type StatusInner struct {
	Mode          string           `json:"mode"`
	Points        telemetry.Points `json:"points"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	StartTime     string           `json:"start_time"`
	Timestamp     string           `json:"timestamp"`
	LastPublish   string           `json:"last_publish,omitempty"`
	MQTT          MQTTStatus       `json:"mqtt"`
	Counters      CountersJSON     `json:"counters"`
	Config        ConfigJSON       `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Topic     string `json:"topic"`
}

// CountersJSON is the JSON representation of loop counters.
type CountersJSON struct {
	Cycles           int `json:"cycles"`
	Published        int `json:"published"`
	PublishErrors    int `json:"publish_errors"`
	WeatherFallbacks int `json:"weather_fallbacks"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Mode      string `json:"mode"`
	CadenceMs int64  `json:"cadence_ms"`
	Device    string `json:"device"`
	Building  string `json:"building"`
	Broker    string `json:"broker"`
	HTTPAddr  string `json:"http_addr"`
}

func formatJSON(snap status.Snapshot) []byte {
	points := telemetry.Build(snap.State, snap.Config.Device, snap.Config.Building, snap.Now).Points
	if points.FanStatus == "" {
		points.FanStatus = "UNKNOWN"
	}

	sj := StatusJSON{
		Status: StatusInner{
			Mode:          snap.Config.Mode,
			Points:        points,
			UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT: MQTTStatus{
				Connected: snap.MQTTConnected,
				Broker:    snap.Config.Broker,
				Topic:     snap.Config.Topic,
			},
			Counters: CountersJSON{
				Cycles:           snap.Counters.Cycles,
				Published:        snap.Counters.Published,
				PublishErrors:    snap.Counters.PublishErrors,
				WeatherFallbacks: snap.Counters.WeatherFallbacks,
			},
			Config: ConfigJSON{
				Mode:      snap.Config.Mode,
				CadenceMs: snap.Config.Cadence.Milliseconds(),
				Device:    snap.Config.Device,
				Building:  snap.Config.Building,
				Broker:    snap.Config.Broker,
				HTTPAddr:  snap.Config.HTTPAddr,
			},
		},
	}

	if !snap.LastPublish.IsZero() {
		sj.Status.LastPublish = snap.LastPublish.UTC().Format(time.RFC3339)
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}
