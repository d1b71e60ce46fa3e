package telemetry

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Link is the narrow transport surface the emitter state machine drives.
// Every call must return promptly: the cooperative loop cannot afford a
// blocking transport.
type Link interface {
	// BeginConnect starts an asynchronous connect attempt.
	BeginConnect()
	// ConnectResult polls the attempt started by BeginConnect.
	ConnectResult() (done bool, err error)
	// Connected reports whether the transport currently holds a session.
	Connected() bool
	// Publish sends fire-and-forget; delivery is not awaited.
	Publish(topic string, payload []byte) error
	// Subscribe registers a handler for incoming messages on a topic.
	Subscribe(topic string, handler func(payload []byte)) error
	// Close tears the session down.
	Close()
}

type pahoLink struct {
	client mqtt.Client
	token  mqtt.Token
}

// NewPahoLink builds a Link over the paho MQTT client. Automatic
// reconnection is disabled: the emitter's own state machine supervises
// the session so the sampling loop stays in control of retry pacing.
func NewPahoLink(brokerURL, clientID string) Link {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(false).
		SetConnectRetry(false)

	return &pahoLink{client: mqtt.NewClient(opts)}
}

func (l *pahoLink) BeginConnect() {
	l.token = l.client.Connect()
}

func (l *pahoLink) ConnectResult() (bool, error) {
	if l.token == nil {
		return false, nil
	}
	select {
	case <-l.token.Done():
		err := l.token.Error()
		l.token = nil
		return true, err
	default:
		return false, nil
	}
}

func (l *pahoLink) Connected() bool {
	return l.client.IsConnected()
}

func (l *pahoLink) Publish(topic string, payload []byte) error {
	if !l.client.IsConnected() {
		return fmt.Errorf("not connected")
	}
	// Fire and forget: the token is intentionally not awaited.
	l.client.Publish(topic, 0, true, payload)
	return nil
}

func (l *pahoLink) Subscribe(topic string, handler func(payload []byte)) error {
	token := l.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	return token.Error()
}

func (l *pahoLink) Close() {
	l.client.Disconnect(250)
}
