package config

import (
	"os"
	"time"
)

// BackgroundSettings tunes the analysis task subsystem.
type BackgroundSettings struct {
	PollInterval time.Duration // monitor polling interval
	ReapInterval time.Duration // how often stale tasks are evicted
	TaskMaxAge   time.Duration // tasks older than this are reaped
}

func Background() BackgroundSettings {
	return BackgroundSettings{
		PollInterval: getenvDuration("TASK_POLL_INTERVAL", 500*time.Millisecond),
		ReapInterval: getenvDuration("TASK_REAP_INTERVAL", time.Minute),
		TaskMaxAge:   getenvDuration("TASK_MAX_AGE", 5*time.Minute),
	}
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
