// Heating stopwatch and the traffic-light band check against the
// procedure's target time.
package timer

import (
	"sync"
	"time"
)

// HeatingTimer accumulates elapsed heating seconds in one-second ticks.
// Start while already running is a no-op, so a second Start can never
// double the tick rate; Pause and Reset cancel the running ticker.
type HeatingTimer struct {
	mu      sync.Mutex
	seconds int
	running bool
	stop    chan struct{}

	// tick interval, one second unless a test shortens it
	interval time.Duration
}

func NewHeatingTimer() *HeatingTimer {
	return &HeatingTimer{interval: time.Second}
}

func (t *HeatingTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.stop = make(chan struct{})
	go t.run(t.stop)
}

func (t *HeatingTimer) run(stop chan struct{}) {
	interval := t.interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.mu.Lock()
			if t.running {
				t.seconds++
			}
			t.mu.Unlock()
		case <-stop:
			return
		}
	}
}

func (t *HeatingTimer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pauseLocked()
}

func (t *HeatingTimer) pauseLocked() {
	if !t.running {
		return
	}
	t.running = false
	close(t.stop)
	t.stop = nil
}

func (t *HeatingTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pauseLocked()
	t.seconds = 0
}

// SetElapsed seeds the counter from a stored practice, e.g. when resuming
// a paused heating run.
func (t *HeatingTimer) SetElapsed(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seconds = seconds
}

func (t *HeatingTimer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds
}

func (t *HeatingTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

type Light string

const (
	LightGreen  Light = "green"
	LightYellow Light = "yellow"
	LightRed    Light = "red"
)

// TrafficLight classifies an elapsed heating time against the procedure's
// target: within ±tolerance is green, within ±2·tolerance is yellow,
// beyond that red. A non-positive target disables the check (green).
func TrafficLight(seconds, targetSeconds int, tolerance float64) Light {
	if targetSeconds <= 0 {
		return LightGreen
	}

	s := float64(seconds)
	target := float64(targetSeconds)
	lowGreen := target * (1 - tolerance)
	highGreen := target * (1 + tolerance)
	lowYellow := target * (1 - 2*tolerance)
	highYellow := target * (1 + 2*tolerance)

	switch {
	case s < lowYellow || s > highYellow:
		return LightRed
	case (s >= lowYellow && s < lowGreen) || (s > highGreen && s <= highYellow):
		return LightYellow
	default:
		return LightGreen
	}
}
