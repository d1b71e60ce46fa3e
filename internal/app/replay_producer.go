package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/vibration_monitor/internal/accel"
	"github.com/relabs-tech/vibration_monitor/internal/config"
	"github.com/relabs-tech/vibration_monitor/internal/logging"
	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

// RunReplayProducer pushes a recorded CSV log through the live pipeline
// at the configured sample rate and publishes every record. A bench tool:
// it exits when the file is exhausted.
func RunReplayProducer() error {
	cfg := config.Get()
	logger := logging.New("replay_producer")

	source, err := accel.NewReplaySource(cfg.ReplayFile)
	if err != nil {
		return err
	}

	pipeline := motion.New(motion.Config{
		SampleRateHz: cfg.SampleRateHz,
		CutoffHz:     cfg.HPCutoffHz,
		WindowSize:   cfg.RMSWindow,
		Thresholds:   cfg.Thresholds(),
	})

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDMonitor + "-replay")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	logger.Info("replay started", "file", cfg.ReplayFile, "rate_hz", cfg.SampleRateHz)

	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.SampleRateHz))
	defer ticker.Stop()

	var published, skipped uint64
	for range ticker.C {
		s, err := source.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			logger.Warn("replay line skipped", "error", err)
			continue
		}

		out := pipeline.ProcessTick(s)
		payload, err := json.Marshal(out)
		if err != nil {
			skipped++
			continue
		}
		client.Publish(cfg.TopicTelemetry, 0, true, payload)
		published++
	}

	logger.Info("replay finished", "published", published, "skipped", skipped)
	return nil
}
