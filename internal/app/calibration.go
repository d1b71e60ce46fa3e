// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/vibration_monitor/internal/calib"
	"github.com/relabs-tech/vibration_monitor/internal/config"
	"github.com/relabs-tech/vibration_monitor/internal/logging"
	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

// calibrationSession holds the state of an interactive threshold
// calibration: RMS samples stream in from the telemetry topic while the
// operator drives capture per activity class from stdin.
type calibrationSession struct {
	mu        sync.Mutex
	collector *calib.Collector
	capturing bool
	class     motion.Label

	computed     motion.Thresholds
	haveComputed bool
}

// RunCalibration runs the interactive calibration session over the live
// telemetry stream. The operator performs each activity while capture is
// on; once every class has enough samples the thresholds are computed
// and can be saved in the monitor's thresholds file format.
func RunCalibration() error {
	cfg := config.Get()
	logger := logging.New("calibration")

	session := &calibrationSession{collector: calib.NewCollector()}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDCalibration)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect: %w", token.Error())
	}
	defer client.Disconnect(250)
	logger.Info("connected to MQTT broker", "broker", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicTelemetry, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var out motion.Output
		if err := json.Unmarshal(msg.Payload(), &out); err != nil {
			return
		}
		session.mu.Lock()
		defer session.mu.Unlock()
		if !session.capturing {
			return
		}
		if err := session.collector.Add(session.class, out.RMS); err != nil {
			return
		}
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.TopicTelemetry, token.Error())
	}
	logger.Info("subscribed", "topic", cfg.TopicTelemetry)

	fmt.Println("calibration session ready; the monitor must be publishing")
	printCalibrationHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "capture":
			if len(fields) != 2 {
				fmt.Println("usage: capture <CALM|STRUCT|FOOT|PLAY|JUMP>")
				continue
			}
			session.startCapture(motion.Label(strings.ToUpper(fields[1])))

		case "stop":
			session.stopCapture()

		case "counts":
			session.printCounts()

		case "clear":
			session.mu.Lock()
			session.collector.Clear()
			session.haveComputed = false
			session.mu.Unlock()
			fmt.Println("all collected samples discarded")

		case "compute":
			session.compute()

		case "save":
			path := cfg.ThresholdsFile
			if len(fields) == 2 {
				path = fields[1]
			}
			session.save(path)

		case "quit", "exit":
			logger.Info("calibration session closed")
			return nil

		case "help":
			printCalibrationHelp()

		default:
			fmt.Printf("unknown command %q (try: help)\n", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stdin read: %w", err)
	}
	return nil
}

func printCalibrationHelp() {
	fmt.Println(`commands:
  capture <class>  start collecting RMS samples under CALM, STRUCT, FOOT, PLAY or JUMP
  stop             stop collecting
  counts           show per-class sample counts
  clear            discard everything collected so far
  compute          derive thresholds from the collected samples
  save [path]      write computed thresholds (default: THRESHOLDS_FILE)
  quit             exit`)
}

func (s *calibrationSession) startCapture(class motion.Label) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch class {
	case motion.LabelCalm, motion.LabelStruct, motion.LabelFoot, motion.LabelPlay, motion.LabelJump:
	default:
		fmt.Printf("unknown class %q\n", class)
		return
	}
	s.capturing = true
	s.class = class
	fmt.Printf("capturing %s; perform the activity now, then type stop (need >= %d samples)\n",
		class, calib.MinSamplesPerClass)
}

func (s *calibrationSession) stopCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.capturing {
		fmt.Println("not capturing")
		return
	}
	s.capturing = false
	fmt.Printf("stopped: %s now has %d samples\n", s.class, s.collector.Count(s.class))
}

func (s *calibrationSession) printCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, class := range []motion.Label{
		motion.LabelCalm, motion.LabelStruct, motion.LabelFoot, motion.LabelPlay, motion.LabelJump,
	} {
		marker := " "
		if s.capturing && s.class == class {
			marker = "*"
		}
		fmt.Printf("%s %-6s %4d / %d\n", marker, class, s.collector.Count(class), calib.MinSamplesPerClass)
	}
}

func (s *calibrationSession) compute() {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, err := s.collector.Compute()
	if err != nil {
		fmt.Printf("compute failed: %v\n", err)
		return
	}
	s.computed = th
	s.haveComputed = true
	fmt.Printf("thresholds (g): struct=%.6f foot=%.6f kid=%.6f jump=%.6f\n",
		th.Struct, th.Foot, th.Kid, th.Jump)
}

func (s *calibrationSession) save(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.haveComputed {
		fmt.Println("nothing computed yet (run compute first)")
		return
	}
	if path == "" {
		fmt.Println("no path given and THRESHOLDS_FILE not set")
		return
	}
	if err := calib.SaveThresholds(path, s.computed); err != nil {
		fmt.Printf("save failed: %v\n", err)
		return
	}
	fmt.Printf("thresholds written to %s\n", path)
}
