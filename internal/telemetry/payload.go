// Package telemetry shapes unit readings into the JSON payload published on
// every cycle.
package telemetry

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/ahu-sim/internal/sim"
)

// Points carries the per-cycle sensor and actuator values. Numeric values
// are rounded to one decimal before encoding; Alarm is null when the unit
// is healthy.
type Points struct {
	OutsideTemp   float64 `json:"outside_temp"`
	SupplyTemp    float64 `json:"supply_temp"`
	Setpoint      float64 `json:"setpoint"`
	VFDSpeed      float64 `json:"vfd_speed"`
	FanStatus     string  `json:"fan_status"`
	Alarm         *string `json:"alarm"`
	EconomizerPos float64 `json:"economizer_position"`
}

// Payload is one published telemetry message. TS is epoch milliseconds.
type Payload struct {
	TS       int64  `json:"ts"`
	Device   string `json:"device"`
	Building string `json:"building"`
	Points   Points `json:"points"`
}

// Build snapshots a reading into a payload stamped at now.
func Build(st sim.State, device, building string, now time.Time) Payload {
	var alarm *string
	if st.Alarm != "" {
		a := st.Alarm
		alarm = &a
	}
	return Payload{
		TS:       now.UnixMilli(),
		Device:   device,
		Building: building,
		Points: Points{
			OutsideTemp:   round1(st.OutsideTemp),
			SupplyTemp:    round1(st.SupplyTemp),
			Setpoint:      round1(st.Setpoint),
			VFDSpeed:      round1(st.VFDSpeed),
			FanStatus:     string(st.Fan),
			Alarm:         alarm,
			EconomizerPos: round1(st.EconomizerPos),
		},
	}
}

func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
