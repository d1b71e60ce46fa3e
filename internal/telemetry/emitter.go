// Package telemetry publishes pipeline output over MQTT. The connection
// is supervised by an explicit state machine polled from the cooperative
// monitor loop, so a broker outage never blocks sampling: records
// produced while the link is down are dropped and counted.
package telemetry

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

// State is the emitter's connection supervision state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// Topics carries the three topics of the wire contract.
type Topics struct {
	Telemetry string
	Status    string
	Command   string
}

// Emitter owns the telemetry link. All methods are called from the single
// monitor goroutine; incoming commands cross over via a buffered channel.
type Emitter struct {
	link   Link
	topics Topics
	logger *slog.Logger

	state        State
	backoff      time.Duration
	backoffUntil time.Time

	published uint64
	dropped   uint64

	commands chan string
}

// NewEmitter creates an emitter in the Disconnected state; the first Poll
// kicks off the connect attempt.
func NewEmitter(link Link, topics Topics, logger *slog.Logger) *Emitter {
	return &Emitter{
		link:     link,
		topics:   topics,
		logger:   logger,
		state:    StateDisconnected,
		backoff:  initialBackoff,
		commands: make(chan string, 8),
	}
}

// Poll advances the connection state machine by at most one transition.
// It never blocks; the loop calls it once per pass.
func (e *Emitter) Poll(now time.Time) {
	switch e.state {
	case StateDisconnected:
		e.link.BeginConnect()
		e.state = StateConnecting
		e.logger.Info("telemetry link connecting")

	case StateConnecting:
		done, err := e.link.ConnectResult()
		if !done {
			return
		}
		if err != nil {
			e.logger.Warn("telemetry link connect failed", "error", err, "retry_in", e.backoff)
			e.enterBackoff(now)
			return
		}
		e.state = StateConnected
		e.backoff = initialBackoff
		e.logger.Info("telemetry link connected")
		if e.topics.Command != "" {
			if err := e.link.Subscribe(e.topics.Command, e.enqueueCommand); err != nil {
				e.logger.Warn("command subscribe failed", "topic", e.topics.Command, "error", err)
			}
		}

	case StateConnected:
		if !e.link.Connected() {
			e.logger.Warn("telemetry link lost", "retry_in", e.backoff)
			e.enterBackoff(now)
		}

	case StateBackoff:
		if !now.Before(e.backoffUntil) {
			e.state = StateDisconnected
		}
	}
}

func (e *Emitter) enterBackoff(now time.Time) {
	e.state = StateBackoff
	e.backoffUntil = now.Add(e.backoff)
	e.backoff *= 2
	if e.backoff > maxBackoff {
		e.backoff = maxBackoff
	}
}

// Ready reports whether emit calls are currently being accepted.
func (e *Emitter) Ready() bool {
	return e.state == StateConnected && e.link.Connected()
}

// State returns the current supervision state.
func (e *Emitter) State() State { return e.state }

// Emit publishes one output record, fire-and-forget. While the link is
// down the record is dropped and counted; the sampling loop is never
// stalled by delivery.
func (e *Emitter) Emit(out motion.Output) {
	if !e.Ready() {
		e.dropped++
		return
	}

	payload, err := json.Marshal(out)
	if err != nil {
		e.logger.Error("telemetry marshal failed", "error", err)
		e.dropped++
		return
	}
	if err := e.link.Publish(e.topics.Telemetry, payload); err != nil {
		e.logger.Warn("telemetry publish failed", "error", err)
		e.dropped++
		return
	}
	e.published++
}

// Status publishes a short human-readable lifecycle string. Best effort:
// silently skipped while the link is down.
func (e *Emitter) Status(msg string) {
	if e.topics.Status == "" || !e.Ready() {
		return
	}
	if err := e.link.Publish(e.topics.Status, []byte(msg)); err != nil {
		e.logger.Warn("status publish failed", "error", err)
	}
}

// Commands returns the channel of raw command strings received on the
// command topic. The monitor loop drains it between ticks.
func (e *Emitter) Commands() <-chan string { return e.commands }

// Published returns the number of successfully handed-off records.
func (e *Emitter) Published() uint64 { return e.published }

// Dropped returns the number of records discarded while the link was
// down or failing.
func (e *Emitter) Dropped() uint64 { return e.dropped }

// Close tears down the link.
func (e *Emitter) Close() { e.link.Close() }

// enqueueCommand runs on the transport goroutine; a full queue drops the
// command rather than blocking the transport.
func (e *Emitter) enqueueCommand(payload []byte) {
	select {
	case e.commands <- string(payload):
	default:
		e.logger.Warn("command queue full, dropping", "command", string(payload))
	}
}
