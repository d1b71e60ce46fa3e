package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/vibration_monitor/internal/config"
	"github.com/relabs-tech/vibration_monitor/internal/logging"
	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// wsClients tracks the live-stream subscribers.
type wsClients struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func (c *wsClients) add(conn *websocket.Conn) {
	c.mu.Lock()
	c.conns[conn] = true
	c.mu.Unlock()
}

func (c *wsClients) remove(conn *websocket.Conn) {
	c.mu.Lock()
	delete(c.conns, conn)
	c.mu.Unlock()
	conn.Close()
}

// broadcast sends one payload to every client; a write failure evicts
// the client rather than failing the stream.
func (c *wsClients) broadcast(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for conn := range c.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(c.conns, conn)
			conn.Close()
		}
	}
}

// RunWeb serves the latest telemetry record as JSON, streams every record
// to websocket clients, and serves static files from ./web.
func RunWeb() error {
	cfg := config.Get()
	logger := logging.New("web")

	var (
		mu       sync.RWMutex
		last     motion.Output
		haveLast bool
	)
	clients := &wsClients{conns: map[*websocket.Conn]bool{}}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

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
		mu.Lock()
		last = out
		haveLast = true
		mu.Unlock()

		clients.broadcast(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicTelemetry, token.Error())
	}
	logger.Info("subscribed", "topic", cfg.TopicTelemetry)

	http.HandleFunc("/api/motion", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveLast {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(last); err != nil {
			logger.Warn("json encode error", "error", err)
		}
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade error", "error", err)
			return
		}
		clients.add(conn)
		logger.Info("websocket client connected", "remote", conn.RemoteAddr())

		// Reads are discarded; the read loop only notices disconnects.
		go func() {
			defer clients.remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	logger.Info("web server listening", "addr", addr)
	return http.ListenAndServe(addr, nil)
}
