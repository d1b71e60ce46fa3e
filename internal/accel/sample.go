package accel

import (
	"errors"
	"time"
)

// Sample is a single 3-axis acceleration reading in g units.
type Sample struct {
	T  time.Time `json:"-"`
	Ax float64   `json:"ax"`
	Ay float64   `json:"ay"`
	Az float64   `json:"az"`
}

// Source is anything that can deliver acceleration samples on demand:
// real MPU-9250 over SPI, a serial-attached sketch, a CSV replay, or a
// synthetic generator.
type Source interface {
	Read() (Sample, error)
}

// ErrDeviceNotFound reports that the sensor never became available at
// initialization. A read failure on a working device is a plain wrapped
// error instead.
var ErrDeviceNotFound = errors.New("accelerometer not found")
