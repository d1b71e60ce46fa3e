// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/vibration_monitor/internal/accel"
	"github.com/relabs-tech/vibration_monitor/internal/calib"
	"github.com/relabs-tech/vibration_monitor/internal/config"
	"github.com/relabs-tech/vibration_monitor/internal/logging"
	"github.com/relabs-tech/vibration_monitor/internal/motion"
	"github.com/relabs-tech/vibration_monitor/internal/sched"
	"github.com/relabs-tech/vibration_monitor/internal/telemetry"
)

// monitorLoop holds the per-pass state of the sampling process: the
// sample and publish tickers, the pipeline, the telemetry emitter, and
// the single-slot register the publish tick reads from. One goroutine
// owns it; step never blocks.
type monitorLoop struct {
	source   accel.Source
	pipeline *motion.Pipeline
	emitter  *telemetry.Emitter
	logger   *slog.Logger

	sampleTick  *sched.Ticker
	publishTick *sched.Ticker

	// Single-slot register: the publish tick always sends the latest
	// record, so a stale read between sample ticks is tolerated.
	latest     motion.Output
	haveLatest bool

	inert          bool
	readFailures   uint64
	statusReported bool
}

// newMonitorLoop wires the loop. A nil source starts the loop inert:
// the telemetry link still comes up and the condition is reported once
// on the status topic.
func newMonitorLoop(source accel.Source, pipeline *motion.Pipeline, emitter *telemetry.Emitter,
	start time.Time, samplePeriod, publishPeriod time.Duration, logger *slog.Logger) *monitorLoop {
	return &monitorLoop{
		source:      source,
		pipeline:    pipeline,
		emitter:     emitter,
		logger:      logger,
		sampleTick:  sched.NewTicker(start, samplePeriod),
		publishTick: sched.NewTicker(start, publishPeriod),
		inert:       source == nil,
	}
}

// step runs one pass: sample tick, publish tick, then the emitter's
// connection state machine.
func (l *monitorLoop) step(now time.Time) {
	if !l.inert && l.sampleTick.Due(now) {
		s, err := l.source.Read()
		switch {
		case err == nil:
			l.latest = l.pipeline.ProcessTick(s)
			l.haveLatest = true
		case errors.Is(err, io.EOF):
			// Replay exhausted: stop sampling, keep the process up
			// so the last records drain and commands still work.
			l.logger.Info("sample source exhausted")
			l.emitter.Status("sample source exhausted")
			l.inert = true
		default:
			// Skip the tick whole: no filter or window mutation,
			// no register update. The next tick retries.
			l.readFailures++
			l.logger.Warn("sample read failed, tick skipped",
				"error", err, "read_failures", l.readFailures)
		}
	}

	if l.publishTick.Due(now) && l.haveLatest {
		l.emitter.Emit(l.latest)
	}

	l.emitter.Poll(now)

	if !l.statusReported && l.emitter.Ready() {
		if l.inert {
			l.emitter.Status("sensor not found")
		} else {
			l.emitter.Status("device ready")
		}
		l.statusReported = true
	}
}

// nextDue returns the earliest pending due time.
func (l *monitorLoop) nextDue() time.Time {
	next := l.sampleTick.Next()
	if l.inert || l.publishTick.Next().Before(next) {
		next = l.publishTick.Next()
	}
	return next
}

// RunMonitor runs the sampling process: one goroutine owns the sample
// ticker, the publish ticker, the pipeline state and the telemetry
// connection state machine. Nothing in the loop blocks; between passes
// it sleeps until the earliest pending due time.
func RunMonitor() error {
	cfg := config.Get()
	logger := logging.New("monitor")

	thresholds := cfg.Thresholds()
	if cfg.ThresholdsFile != "" {
		th, err := calib.LoadThresholds(cfg.ThresholdsFile)
		if err != nil {
			return fmt.Errorf("thresholds file %s: %w", cfg.ThresholdsFile, err)
		}
		thresholds = th
		logger.Info("thresholds loaded from file", "path", cfg.ThresholdsFile,
			"struct", th.Struct, "foot", th.Foot, "kid", th.Kid, "jump", th.Jump)
	}

	// A missing device keeps the process alive with an inert pipeline.
	// Any other init error is fatal.
	source, err := newSource(cfg)
	if err != nil {
		if !errors.Is(err, accel.ErrDeviceNotFound) {
			return fmt.Errorf("accelerometer source: %w", err)
		}
		logger.Warn("accelerometer not found, running inert", "error", err)
		source = nil
	}

	pipeline := motion.New(motion.Config{
		SampleRateHz: cfg.SampleRateHz,
		CutoffHz:     cfg.HPCutoffHz,
		WindowSize:   cfg.RMSWindow,
		Thresholds:   thresholds,
	})

	link := telemetry.NewPahoLink(cfg.MQTTBroker, cfg.MQTTClientIDMonitor)
	emitter := telemetry.NewEmitter(link, telemetry.Topics{
		Telemetry: cfg.TopicTelemetry,
		Status:    cfg.TopicStatus,
		Command:   cfg.TopicCommand,
	}, logger)
	defer emitter.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	start := time.Now()
	samplePeriod := time.Duration(float64(time.Second) / cfg.SampleRateHz)
	publishPeriod := time.Duration(float64(time.Second) / cfg.PublishRateHz)
	loop := newMonitorLoop(source, pipeline, emitter, start, samplePeriod, publishPeriod, logger)

	logger.Info("monitor started",
		"source", cfg.AccelSource,
		"sample_rate_hz", cfg.SampleRateHz,
		"publish_rate_hz", cfg.PublishRateHz)

	for {
		select {
		case <-sigCh:
			logger.Info("monitor shutting down",
				"published", emitter.Published(),
				"dropped", emitter.Dropped(),
				"read_failures", loop.readFailures)
			emitter.Status("monitor shutting down")
			return nil
		default:
		}

		loop.step(time.Now())

	drain:
		for {
			select {
			case cmd := <-emitter.Commands():
				handleCommand(cmd, emitter, pipeline, start, loop.readFailures, logger)
			default:
				break drain
			}
		}

		if d := time.Until(loop.nextDue()); d > 0 {
			time.Sleep(d)
		}
	}
}

// handleCommand services one message from the command topic. Commands
// run between ticks, never concurrently with the pipeline.
func handleCommand(cmd string, emitter *telemetry.Emitter, pipeline *motion.Pipeline,
	start time.Time, readFailures uint64, logger *slog.Logger) {
	switch cmd {
	case "status":
		emitter.Status(fmt.Sprintf("uptime=%s published=%d dropped=%d read_failures=%d",
			time.Since(start).Round(time.Second),
			emitter.Published(), emitter.Dropped(), readFailures))
	case "thresholds":
		th := pipeline.Thresholds()
		emitter.Status(fmt.Sprintf("thresholds struct=%.4f foot=%.4f kid=%.4f jump=%.4f",
			th.Struct, th.Foot, th.Kid, th.Jump))
	default:
		logger.Warn("unknown command ignored", "command", cmd)
	}
}

// newSource builds the configured accelerometer source.
func newSource(cfg *config.Config) (accel.Source, error) {
	switch cfg.AccelSource {
	case "mpu9250":
		return accel.NewMPU9250Source(cfg.AccelSPIDevice, cfg.AccelCSPin)
	case "serial":
		return accel.NewSerialSource(cfg.SerialPort, uint(cfg.SerialBaudRate))
	case "replay":
		return accel.NewReplaySource(cfg.ReplayFile)
	case "mock":
		return accel.NewMockSource(), nil
	default:
		return nil, fmt.Errorf("unknown ACCEL_SOURCE %q", cfg.AccelSource)
	}
}
