package calib

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/relabs-tech/vibration_monitor/internal/motion"
)

// SaveThresholds writes thresholds as KEY=VALUE lines (the same grammar
// as the main config file), so a computed set can be dropped straight
// into a deployment.
func SaveThresholds(path string, th motion.Thresholds) error {
	var sb strings.Builder
	sb.WriteString("# thresholds (g)\n")
	fmt.Fprintf(&sb, "TH_STRUCT=%.6f\n", th.Struct)
	fmt.Fprintf(&sb, "TH_FOOT=%.6f\n", th.Foot)
	fmt.Fprintf(&sb, "TH_KID=%.6f\n", th.Kid)
	fmt.Fprintf(&sb, "TH_JUMP=%.6f\n", th.Jump)

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write thresholds file: %w", err)
	}
	return nil
}

// LoadThresholds reads a thresholds file written by SaveThresholds.
// All four keys must be present and the result strictly ascending.
func LoadThresholds(path string) (motion.Thresholds, error) {
	f, err := os.Open(path)
	if err != nil {
		return motion.Thresholds{}, fmt.Errorf("open thresholds file: %w", err)
	}
	defer f.Close()

	var th motion.Thresholds
	seen := map[string]bool{}

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return motion.Thresholds{}, fmt.Errorf("invalid thresholds line %d: %q", lineNum, line)
		}
		key := strings.TrimSpace(parts[0])
		val, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return motion.Thresholds{}, fmt.Errorf("thresholds line %d: %w", lineNum, err)
		}

		switch key {
		case "TH_STRUCT":
			th.Struct = val
		case "TH_FOOT":
			th.Foot = val
		case "TH_KID":
			th.Kid = val
		case "TH_JUMP":
			th.Jump = val
		default:
			continue // tolerate extra keys
		}
		seen[key] = true
	}
	if err := scanner.Err(); err != nil {
		return motion.Thresholds{}, fmt.Errorf("read thresholds file: %w", err)
	}

	for _, key := range []string{"TH_STRUCT", "TH_FOOT", "TH_KID", "TH_JUMP"} {
		if !seen[key] {
			return motion.Thresholds{}, fmt.Errorf("thresholds file missing %s", key)
		}
	}
	if err := th.Validate(); err != nil {
		return motion.Thresholds{}, err
	}
	return th, nil
}
