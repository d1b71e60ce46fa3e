// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	_ "github.com/mattn/go-sqlite3"

	"github.com/relabs-tech/vibration_monitor/internal/config"
	"github.com/relabs-tech/vibration_monitor/internal/logging"
	"github.com/relabs-tech/vibration_monitor/internal/motion"
	"github.com/relabs-tech/vibration_monitor/internal/storage"
)

// RunRecorder subscribes to the telemetry topic and appends every record
// to a sqlite session. One process run is one session. With CSV_LOG_PATH
// set it also writes a playback log consumable by the replay source.
func RunRecorder() error {
	cfg := config.Get()
	logger := logging.New("recorder")

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	defer db.Close()

	repo := storage.NewRepository(db)
	if err := repo.InitSchema(); err != nil {
		return err
	}

	sessionID, err := repo.BeginSession(time.Now())
	if err != nil {
		return err
	}
	logger.Info("recording session started", "session_id", sessionID, "db", cfg.DBPath)

	var csvLog *storage.CSVLog
	if cfg.CSVLogPath != "" {
		csvLog, err = storage.NewCSVLog(cfg.CSVLogPath)
		if err != nil {
			return err
		}
		logger.Info("csv playback log enabled", "path", cfg.CSVLogPath)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDRecorder)

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
		if err := repo.InsertSample(sessionID, out); err != nil {
			logger.Warn("sample insert failed", "error", err)
		}
		if csvLog != nil {
			if err := csvLog.Append(out); err != nil {
				logger.Warn("csv append failed", "error", err)
			}
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicTelemetry, token.Error())
	}
	logger.Info("subscribed", "topic", cfg.TopicTelemetry)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	client.Disconnect(250)

	if csvLog != nil {
		if err := csvLog.Close(); err != nil {
			logger.Warn("csv log close failed", "error", err)
		}
	}

	n, err := repo.CountSamples(sessionID)
	if err != nil {
		logger.Warn("session count failed", "error", err)
	} else {
		logger.Info("recording session finished", "session_id", sessionID, "samples", n)
	}
	return nil
}
