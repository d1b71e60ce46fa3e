package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/vibration_monitor/internal/config"
	"github.com/relabs-tech/vibration_monitor/internal/logging"
	"github.com/relabs-tech/vibration_monitor/internal/motion"
	"github.com/relabs-tech/vibration_monitor/internal/stats"
)

// statsEvery is how many telemetry rows pass between link-quality lines.
const statsEvery = 100

// RunConsoleMQTT subscribes to the telemetry and status topics and prints
// formatted rows, with a periodic link-quality summary (message rate
// estimated from device timestamps, device-to-local latency).
func RunConsoleMQTT() error {
	cfg := config.Get()
	logger := logging.New("console")

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	logger.Info("connected to MQTT broker", "broker", cfg.MQTTBroker)

	var (
		mu       sync.Mutex
		rate     = stats.NewRateEstimator(cfg.PublishRateHz, 0.2)
		latency  = stats.NewLatencyWindow(statsEvery)
		received uint64

		// First record anchors device ms to local time; latency is the
		// drift of each record against that anchor.
		anchored    bool
		anchorLocal time.Time
		anchorMS    int64
	)

	token := client.Subscribe(cfg.TopicTelemetry, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var out motion.Output
		if err := json.Unmarshal(msg.Payload(), &out); err != nil {
			logger.Warn("telemetry unmarshal error", "error", err)
			return
		}
		now := time.Now()

		mu.Lock()
		defer mu.Unlock()

		received++
		rate.Observe(out.MS)
		if !anchored {
			anchored = true
			anchorLocal = now
			anchorMS = out.MS
		} else {
			elapsed := float64(now.Sub(anchorLocal).Milliseconds())
			latency.Observe(elapsed - float64(out.MS-anchorMS))
		}

		fmt.Printf(
			"[IMU ] ms=%8d  a=(%7.3f %7.3f %7.3f)  mag=%6.3f  hp=%6.4f  rms=%6.4f  %s\n",
			out.MS, out.Ax, out.Ay, out.Az, out.Mag, out.HPAbs, out.RMS, out.Label,
		)

		if received%statsEvery == 0 {
			lo, mean, hi := latency.Summary()
			fmt.Printf(
				"[LINK] msgs=%d  rate=%5.1f Hz  latency min/avg/max = %.0f/%.0f/%.0f ms\n",
				received, rate.Hz(), lo, mean, hi,
			)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicTelemetry, token.Error())
	}
	logger.Info("subscribed", "topic", cfg.TopicTelemetry)

	if cfg.TopicStatus != "" {
		statusToken := client.Subscribe(cfg.TopicStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
			fmt.Printf("[STAT] %s\n", msg.Payload())
		})
		statusToken.Wait()
		if statusToken.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", cfg.TopicStatus, statusToken.Error())
		}
		logger.Info("subscribed", "topic", cfg.TopicStatus)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("console shutting down")
	client.Disconnect(250)
	return nil
}
