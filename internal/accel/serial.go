package accel

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// serialSource reads samples from a microcontroller sketch streaming
// comma-separated "ms,ax,ay,az" lines (g units) over a serial port.
type serialSource struct {
	port   io.ReadCloser
	reader *bufio.Reader
}

// NewSerialSource opens the serial port and returns a streaming Source.
func NewSerialSource(portName string, baudRate uint) (Source, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %v: %w", portName, err, ErrDeviceNotFound)
	}

	return &serialSource{port: port, reader: bufio.NewReader(port)}, nil
}

// Read consumes the next line from the stream. Blank lines are skipped;
// a malformed line is a read failure for this tick, not a fatal error.
func (s *serialSource) Read() (Sample, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return Sample{}, fmt.Errorf("serial read: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return parseSampleLine(line)
	}
}

// Close releases the serial port.
func (s *serialSource) Close() error { return s.port.Close() }

// parseSampleLine parses "ms,ax,ay,az" (extra trailing columns, as
// written by the CSV logger, are ignored).
func parseSampleLine(line string) (Sample, error) {
	parts := strings.Split(line, ",")
	if len(parts) < 4 {
		return Sample{}, fmt.Errorf("sample line %q: want at least 4 fields, got %d", line, len(parts))
	}

	var axes [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i+1]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("sample line %q: field %d: %w", line, i+1, err)
		}
		axes[i] = v
	}

	return Sample{T: time.Now(), Ax: axes[0], Ay: axes[1], Az: axes[2]}, nil
}
