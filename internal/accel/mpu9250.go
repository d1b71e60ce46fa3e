// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package accel

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// Accelerometer counts per g at the power-on ±2g range.
const lsbPerG = 16384.0

type mpuSource struct {
	imu *mpu9250.MPU9250
}

// NewMPU9250Source initializes an MPU-9250 over SPI and returns a Source
// that reads the accelerometer in g units. Returns ErrDeviceNotFound when
// the device cannot be brought up, so the caller can keep the rest of the
// process running with an inert pipeline.
func NewMPU9250Source(spiDev, csPin string) (Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("CS pin %q not found: %w", csPin, ErrDeviceNotFound)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("SPI transport (%s): %v: %w", spiDev, err, ErrDeviceNotFound)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("device creation: %v: %w", err, ErrDeviceNotFound)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("initialization: %v: %w", err, ErrDeviceNotFound)
	}

	// Self-test and calibration are slow but run once at startup, well
	// before the sampling loop takes over.
	if _, err := imu.SelfTest(); err != nil {
		slog.Warn("accelerometer self-test failed", "error", err)
	}
	if err := imu.Calibrate(); err != nil {
		slog.Warn("accelerometer calibration failed", "error", err)
	}

	return &mpuSource{imu: imu}, nil
}

// Read reads one accelerometer sample and converts raw counts to g.
// Any axis failure leaves the sample unreported; the caller skips the
// tick and retries on the next one.
func (s *mpuSource) Read() (Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return Sample{}, fmt.Errorf("accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return Sample{}, fmt.Errorf("accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return Sample{}, fmt.Errorf("accel Z: %w", err)
	}

	return Sample{
		T:  time.Now(),
		Ax: float64(ax) / lsbPerG,
		Ay: float64(ay) / lsbPerG,
		Az: float64(az) / lsbPerG,
	}, nil
}
