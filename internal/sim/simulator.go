// Package sim models a single air handling unit as a discrete-time feedback
// loop. Each step closes the loop once: measure, compensate, drive the fan
// and damper, then let the plant respond. The package does no I/O; callers
// supply the outside temperature and the elapsed time.
package sim

import (
	"math"
	"math/rand"

	"github.com/sweeney/ahu-sim/internal/control"
)

const (
	// fanOnThreshold is the VFD speed above which the fan reads as running.
	fanOnThreshold = 10.0

	alarmRaiseChance = 0.001
	alarmClearChance = 0.01
)

// Simulator advances an AHU model one tick at a time. It is not safe for
// concurrent use; drive it from a single loop.
type Simulator struct {
	state State
	pid   *control.PID
	rng   *rand.Rand
}

// New builds a simulator holding the given setpoint, with the compensator
// tuned by kp, ki and kd. The rng seeds the plant noise and alarm draws;
// pass a fixed-seed source for reproducible runs.
func New(setpoint, kp, ki, kd float64, rng *rand.Rand) *Simulator {
	return &Simulator{
		state: DefaultState(setpoint),
		pid:   control.NewPID(kp, ki, kd),
		rng:   rng,
	}
}

// State returns a copy of the current reading.
func (s *Simulator) State() State {
	return s.state
}

// Step closes the loop once and returns the resulting reading. outsideTemp
// is the sampled outdoor air temperature and dt the seconds elapsed since
// the previous step.
func (s *Simulator) Step(outsideTemp, dt float64) State {
	s.state.OutsideTemp = outsideTemp

	err := s.state.SupplyTemp - s.state.Setpoint
	out := s.pid.Update(err, dt)

	// Two command bands: more than two degrees below setpoint the unit is
	// overcooling, so the command recentres low; otherwise it rides around
	// mid-speed.
	if err < -2.0 {
		s.state.VFDSpeed = clamp(20+out*5, 0, 100)
	} else {
		s.state.VFDSpeed = clamp(50+out*10, 0, 100)
	}

	// Free cooling: the damper opens 25 points per degree of outside air
	// below the setpoint band and closes fully above it.
	if outsideTemp < s.state.Setpoint+2.0 {
		s.state.EconomizerPos = math.Min(100, (s.state.Setpoint+2.0-outsideTemp)*25.0)
	} else {
		s.state.EconomizerPos = 0
	}

	// Plant response. Fan speed above midpoint cools the supply air, below
	// it the air drifts warm. The damper exchanges heat with outside air in
	// proportion to how far open it is.
	cooling := (s.state.VFDSpeed - 50) / 50 * 1.5
	econ := s.state.EconomizerPos / 100 * (outsideTemp - s.state.SupplyTemp) * 0.1
	noise := -0.05 + s.rng.Float64()*0.1
	s.state.SupplyTemp += (-cooling + econ + noise) * dt

	if s.state.VFDSpeed > fanOnThreshold {
		s.state.Fan = FanOn
	} else {
		s.state.Fan = FanOff
	}

	// Rare random faults. A raise consumes the tick; clearing is only
	// considered on ticks that did not raise.
	if s.rng.Float64() < alarmRaiseChance {
		s.state.Alarm = AlarmLabels[s.rng.Intn(len(AlarmLabels))]
	} else if s.rng.Float64() < alarmClearChance {
		s.state.Alarm = ""
	}

	return s.state
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
