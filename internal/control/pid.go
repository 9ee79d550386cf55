// Package control contains the feedback compensator driving the AHU fan.
// It is pure arithmetic: no I/O, no clocks, no randomness.
package control

// PID is a discrete proportional-integral-derivative compensator.
// The integral accumulates without an anti-windup clamp and the output is
// unbounded; callers are responsible for saturating actuator commands.
type PID struct {
	kp, ki, kd float64
	integral   float64
	prevError  float64
}

// NewPID creates a controller with the given gains. Gains are fixed for the
// lifetime of the controller; integral and previous error start at zero.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{kp: kp, ki: ki, kd: kd}
}

// Update advances the controller by one sample and returns the control
// output. dt is the elapsed time in seconds since the previous update; a dt
// of zero is valid (first tick) and yields a zero derivative term rather
// than a division fault.
func (p *PID) Update(err, dt float64) float64 {
	p.integral += err * dt

	var derivative float64
	if dt > 0 {
		derivative = (err - p.prevError) / dt
	}

	out := p.kp*err + p.ki*p.integral + p.kd*derivative
	p.prevError = err
	return out
}

// Reset clears the accumulated state, as if freshly constructed.
func (p *PID) Reset() {
	p.integral = 0
	p.prevError = 0
}

// Integral returns the accumulated error·time sum.
func (p *PID) Integral() float64 { return p.integral }

// LastError returns the error from the most recent Update call.
func (p *PID) LastError() float64 { return p.prevError }
