package app

import (
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/vibration_monitor/internal/config"
	"github.com/relabs-tech/vibration_monitor/internal/logging"
	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

// displayData holds the latest record for the OLED refresh loop.
type displayData struct {
	mu       sync.RWMutex
	last     motion.Output
	haveData bool
}

// RunDisplay drives a 128x64 SSD1306 OLED over I2C showing the current
// activity label, RMS and high-pass magnitude.
func RunDisplay() error {
	cfg := config.Get()
	logger := logging.New("display")

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("initialize display: %w", err)
	}
	logger.Info("display initialized")

	if err := showSplash(dev); err != nil {
		logger.Warn("splash draw error", "error", err)
	}

	data := &displayData{}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	logger.Info("connected to MQTT broker", "broker", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicTelemetry, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var out motion.Output
		if err := json.Unmarshal(msg.Payload(), &out); err != nil {
			logger.Warn("telemetry unmarshal error", "error", err)
			return
		}
		data.mu.Lock()
		data.last = out
		data.haveData = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicTelemetry, token.Error())
	}
	logger.Info("subscribed", "topic", cfg.TopicTelemetry)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	logger.Info("starting update loop", "interval_ms", cfg.DisplayUpdateInterval)

	for range ticker.C {
		data.mu.RLock()
		last := data.last
		haveData := data.haveData
		data.mu.RUnlock()

		if err := updateMotionDisplay(dev, last, haveData); err != nil {
			logger.Warn("display update error", "error", err)
		}
	}

	return nil
}

func newPanel() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := range img.Pix {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func updateMotionDisplay(dev *ssd1306.Dev, out motion.Output, haveData bool) error {
	img, drawer := newPanel()

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Vibration"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("Label: %s", out.Label)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("RMS:   %6.4f", out.RMS)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("HP:    %6.4f", out.HPAbs)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("t+%ds", out.MS/1000)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img, drawer := newPanel()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Vibration"))

	drawer.Dot = fixed.P(10, 43)
	drawer.DrawBytes([]byte("Monitor"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
