package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

// defaultDisplayUpdateInterval is used when DISPLAY_UPDATE_INTERVAL is
// absent, so a config written for the other binaries still runs the
// display tool.
const defaultDisplayUpdateInterval = 250

// Config holds all application configuration values. Everything here is a
// load-time constant; there is no runtime reconfiguration.
type Config struct {
	// MQTT
	MQTTBroker              string
	MQTTClientIDMonitor     string
	MQTTClientIDConsole     string
	MQTTClientIDWeb         string
	MQTTClientIDDisplay     string
	MQTTClientIDRecorder    string
	MQTTClientIDCalibration string

	// Topics
	TopicTelemetry string
	TopicStatus    string
	TopicCommand   string

	// Pipeline
	SampleRateHz  float64 // sample tick rate (reference 100 Hz)
	PublishRateHz float64 // publish tick rate (reference 20 Hz)
	HPCutoffHz    float64 // high-pass cutoff (reference 0.5 Hz)
	RMSWindow     int     // sliding window size in samples

	// Classification thresholds (g)
	THStruct float64
	THFoot   float64
	THKid    float64
	THJump   float64

	// Optional thresholds override file (calibration output format);
	// when set it replaces the TH_* values above.
	ThresholdsFile string

	// Accelerometer source: "mpu9250", "serial", "replay" or "mock"
	AccelSource    string
	AccelSPIDevice string
	AccelCSPin     string
	SerialPort     string
	SerialBaudRate int
	ReplayFile     string

	// Web server
	WebServerPort int

	// Recorder
	DBPath string
	// Optional CSV playback log, written alongside the database in the
	// format the replay source consumes.
	CSVLogPath string

	// Display
	DisplayUpdateInterval int // milliseconds
}

// Package-level unexported variables for the singleton:
//   - globalConfig is unexported so other packages cannot mutate it.
//   - configOnce ensures InitGlobal only runs once.
//   - configMu lets concurrent readers share Get without blocking.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.DisplayUpdateInterval == 0 {
		cfg.DisplayUpdateInterval = defaultDisplayUpdateInterval
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_MONITOR":
		c.MQTTClientIDMonitor = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_RECORDER":
		c.MQTTClientIDRecorder = value
	case "MQTT_CLIENT_ID_CALIBRATION":
		c.MQTTClientIDCalibration = value

	// Topics
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value
	case "TOPIC_STATUS":
		c.TopicStatus = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	// Pipeline
	case "SAMPLE_RATE_HZ":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SAMPLE_RATE_HZ %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("SAMPLE_RATE_HZ must be positive, got %g", rate)
		}
		c.SampleRateHz = rate
	case "PUBLISH_RATE_HZ":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid PUBLISH_RATE_HZ %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("PUBLISH_RATE_HZ must be positive, got %g", rate)
		}
		c.PublishRateHz = rate
	case "HP_CUTOFF_HZ":
		cutoff, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid HP_CUTOFF_HZ %q: %w", value, err)
		}
		if cutoff <= 0 {
			return fmt.Errorf("HP_CUTOFF_HZ must be positive, got %g", cutoff)
		}
		c.HPCutoffHz = cutoff
	case "RMS_WINDOW":
		window, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RMS_WINDOW %q: %w", value, err)
		}
		if window < 1 {
			return fmt.Errorf("RMS_WINDOW must be at least 1, got %d", window)
		}
		c.RMSWindow = window

	// Thresholds
	case "TH_STRUCT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TH_STRUCT %q: %w", value, err)
		}
		c.THStruct = v
	case "TH_FOOT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TH_FOOT %q: %w", value, err)
		}
		c.THFoot = v
	case "TH_KID":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TH_KID %q: %w", value, err)
		}
		c.THKid = v
	case "TH_JUMP":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid TH_JUMP %q: %w", value, err)
		}
		c.THJump = v
	case "THRESHOLDS_FILE":
		c.ThresholdsFile = value

	// Accelerometer source
	case "ACCEL_SOURCE":
		switch value {
		case "mpu9250", "serial", "replay", "mock":
			c.AccelSource = value
		default:
			return fmt.Errorf("ACCEL_SOURCE must be mpu9250, serial, replay or mock, got %q", value)
		}
	case "ACCEL_SPI_DEVICE":
		c.AccelSPIDevice = value
	case "ACCEL_CS_PIN":
		c.AccelCSPin = value
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", rate)
		}
		c.SerialBaudRate = rate
	case "REPLAY_FILE":
		c.ReplayFile = value

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Recorder
	case "DB_PATH":
		c.DBPath = value
	case "CSV_LOG_PATH":
		c.CSVLogPath = value

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		if interval < 1 {
			return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be at least 1, got %d", interval)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicTelemetry == "" {
		return fmt.Errorf("TOPIC_TELEMETRY is required")
	}
	if c.SampleRateHz == 0 {
		return fmt.Errorf("SAMPLE_RATE_HZ is required")
	}
	if c.PublishRateHz == 0 {
		return fmt.Errorf("PUBLISH_RATE_HZ is required")
	}
	if c.HPCutoffHz == 0 {
		return fmt.Errorf("HP_CUTOFF_HZ is required")
	}
	if c.RMSWindow == 0 {
		return fmt.Errorf("RMS_WINDOW is required")
	}
	if c.AccelSource == "" {
		return fmt.Errorf("ACCEL_SOURCE is required")
	}
	if c.AccelSource == "serial" && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required when ACCEL_SOURCE=serial")
	}
	if c.AccelSource == "replay" && c.ReplayFile == "" {
		return fmt.Errorf("REPLAY_FILE is required when ACCEL_SOURCE=replay")
	}
	if c.AccelSource == "mpu9250" && c.AccelSPIDevice == "" {
		return fmt.Errorf("ACCEL_SPI_DEVICE is required when ACCEL_SOURCE=mpu9250")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return err
	}
	return nil
}

// Thresholds returns the configured classification thresholds.
func (c *Config) Thresholds() motion.Thresholds {
	return motion.Thresholds{
		Struct: c.THStruct,
		Foot:   c.THFoot,
		Kid:    c.THKid,
		Jump:   c.THJump,
	}
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so repeated calls are harmless; external code must use
// InitGlobal to set and Get to read.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
