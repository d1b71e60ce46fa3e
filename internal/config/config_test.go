package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `# vibration monitor config
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_MONITOR=vibration-monitor

TOPIC_TELEMETRY=smarthome/imu
TOPIC_STATUS=smarthome/imu/status
TOPIC_COMMAND=smarthome/imu/cmd

SAMPLE_RATE_HZ=100
PUBLISH_RATE_HZ=20
HP_CUTOFF_HZ=0.5
RMS_WINDOW=25

TH_STRUCT=0.03
TH_FOOT=0.10
TH_KID=0.20
TH_JUMP=0.35

ACCEL_SOURCE=mock
WEB_SERVER_PORT=8080
DB_PATH=./sessions.db
DISPLAY_UPDATE_INTERVAL=250
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vibration_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "smarthome/imu", cfg.TopicTelemetry)
	assert.Equal(t, 100.0, cfg.SampleRateHz)
	assert.Equal(t, 20.0, cfg.PublishRateHz)
	assert.Equal(t, 25, cfg.RMSWindow)
	assert.Equal(t, "mock", cfg.AccelSource)

	th := cfg.Thresholds()
	assert.InDelta(t, 0.03, th.Struct, 1e-9)
	assert.InDelta(t, 0.35, th.Jump, 1e-9)
}

func TestLoadMissingBroker(t *testing.T) {
	content := "TOPIC_TELEMETRY=smarthome/imu\nSAMPLE_RATE_HZ=100\n"
	_, err := Load(writeConfig(t, content))
	assert.ErrorContains(t, err, "MQTT_BROKER")
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, validConfig+"NO_SUCH_KEY=1\n"))
	assert.ErrorContains(t, err, "NO_SUCH_KEY")
}

func TestLoadBadSampleRate(t *testing.T) {
	content := "MQTT_BROKER=tcp://localhost:1883\nSAMPLE_RATE_HZ=-5\n"
	_, err := Load(writeConfig(t, content))
	assert.ErrorContains(t, err, "SAMPLE_RATE_HZ")
}

func TestLoadBadSourceKind(t *testing.T) {
	bad := validConfig + "ACCEL_SOURCE=teleport\n"
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "ACCEL_SOURCE")
}

func TestLoadSerialSourceNeedsPort(t *testing.T) {
	content := validConfig + "ACCEL_SOURCE=serial\n"
	_, err := Load(writeConfig(t, content))
	assert.ErrorContains(t, err, "SERIAL_PORT")
}

func TestLoadNonAscendingThresholds(t *testing.T) {
	content := validConfig + "TH_FOOT=0.01\n"
	_, err := Load(writeConfig(t, content))
	assert.Error(t, err)
}

func TestLoadMalformedLine(t *testing.T) {
	_, err := Load(writeConfig(t, "MQTT_BROKER tcp://localhost:1883\n"))
	assert.ErrorContains(t, err, "invalid config line 1")
}

func TestLoadDisplayIntervalDefaultsWhenAbsent(t *testing.T) {
	content := strings.Replace(validConfig, "DISPLAY_UPDATE_INTERVAL=250\n", "", 1)
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.DisplayUpdateInterval)
}

func TestLoadDisplayIntervalRejectsNonpositive(t *testing.T) {
	content := strings.Replace(validConfig, "DISPLAY_UPDATE_INTERVAL=250\n", "DISPLAY_UPDATE_INTERVAL=0\n", 1)
	_, err := Load(writeConfig(t, content))
	assert.ErrorContains(t, err, "DISPLAY_UPDATE_INTERVAL")
}

func TestLoadCSVLogPath(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig+"CSV_LOG_PATH=./run.csv\n"))
	require.NoError(t, err)
	assert.Equal(t, "./run.csv", cfg.CSVLogPath)
}
