package helpers

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPort reads a TCP port from env var name. An unset variable yields 0 unless required.
func EnvPort(name string, required bool) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%s is required", name)
		}
		return 0, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid port (1-65535): %w", name, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be 1-65535, got %d", name, port)
	}
	return port, nil
}

// EnvInt reads a non-negative integer from env var name, def when unset.
func EnvInt(name string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", name, v)
	}
	return v, nil
}

// EnvFloat reads a non-negative float from env var name, def when unset.
func EnvFloat(name string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %g", name, v)
	}
	return v, nil
}

// EnvMillis reads a duration given in milliseconds from env var name, def when unset.
func EnvMillis(name string, def time.Duration) (time.Duration, error) {
	ms, err := EnvInt(name, -1)
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		return def, nil
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// EnvOneOf reads env var name and checks it against allowed; def when unset.
func EnvOneOf(name, def string, allowed ...string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s must be %s, got %q", name, strings.Join(allowed, "|"), v)
}
