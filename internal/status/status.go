// Package status provides thread-safe state tracking for the simulator
// daemon and the last-message cache behind the status API. It is designed
// to be read by HTTP handlers while the loop and subscriber write.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ahu-sim/internal/sim"
)

// recentReadings is how many completed cycles the tracker keeps for the
// dashboard's history table.
const recentReadings = 20

// Config contains daemon configuration for display.
type Config struct {
	Mode     string
	Cadence  time.Duration
	Broker   string
	Topic    string
	Device   string
	Building string
	HTTPAddr string
}

// Counters accumulate totals over the life of the daemon.
type Counters struct {
	Cycles           int
	Published        int
	PublishErrors    int
	WeatherFallbacks int
}

// Reading is one completed loop cycle.
type Reading struct {
	Time  time.Time
	State sim.State
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	State         sim.State
	Counters      Counters
	Recent        []Reading
	StartTime     time.Time
	Now           time.Time
	LastPublish   time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	recent *ring
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		recent: newRing(recentReadings),
	}
}

// RecordCycle stores the reading from a completed loop cycle.
// Called from runLoop on every tick.
func (t *Tracker) RecordCycle(now time.Time, st sim.State) {
	t.mu.Lock()
	t.snap.State = st
	t.snap.Counters.Cycles++
	t.recent.push(Reading{Time: now, State: st})
	t.mu.Unlock()
}

// RecordPublish counts a successful publish.
func (t *Tracker) RecordPublish(now time.Time) {
	t.mu.Lock()
	t.snap.Counters.Published++
	t.snap.LastPublish = now
	t.mu.Unlock()
}

// RecordPublishError counts a publish that failed or was skipped while the
// broker link was down.
func (t *Tracker) RecordPublishError() {
	t.mu.Lock()
	t.snap.Counters.PublishErrors++
	t.mu.Unlock()
}

// RecordWeatherFallback counts a cycle that had to use the simulated
// outdoor temperature because the live fetch failed.
func (t *Tracker) RecordWeatherFallback() {
	t.mu.Lock()
	t.snap.Counters.WeatherFallbacks++
	t.mu.Unlock()
}

// SetMQTTConnected sets the broker connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state. The Now field
// is set to the current time at the moment of the call; Recent is ordered
// newest first.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Recent = t.recent.items()
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
