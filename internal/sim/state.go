package sim

// FanStatus is the reported running state of the supply fan.
type FanStatus string

const (
	FanOn  FanStatus = "ON"
	FanOff FanStatus = "OFF"
)

// AlarmLabels are the fault conditions the model can raise. An empty alarm
// string on State means the unit is healthy.
var AlarmLabels = []string{
	"High Supply Temp",
	"Low Airflow",
	"Filter Alarm",
	"Sensor Fault",
}

// State is one complete reading of the unit. It is a plain value: loops and
// trackers copy it freely without sharing the simulator's internals.
type State struct {
	SupplyTemp    float64
	OutsideTemp   float64
	Setpoint      float64
	VFDSpeed      float64
	Fan           FanStatus
	Alarm         string
	EconomizerPos float64
}

// DefaultState is the unit as it powers on: at setpoint, mid-speed, healthy.
func DefaultState(setpoint float64) State {
	return State{
		SupplyTemp:    18.0,
		OutsideTemp:   25.0,
		Setpoint:      setpoint,
		VFDSpeed:      50.0,
		Fan:           FanOn,
		Alarm:         "",
		EconomizerPos: 0.0,
	}
}
