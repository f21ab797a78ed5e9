package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// EngineConfig holds the §6.3 process configuration for the voice pipeline
// engine. Loaded the same way the teacher loads its infra configs: plain
// os.Getenv reads with explicit defaults, no struct-tag binding library.
type EngineConfig struct {
	GoogleProjectID string
	GoogleLocation  string
	GeminiModel     string
	GCSBucket       string

	WarmKeeperInterval time.Duration
	MaxUpstreamInFlight int

	PartialSTTMinGap      time.Duration
	PartialSTTMinDuration time.Duration
	EarlyTriggerSilence   time.Duration

	SessionIdleTimeout time.Duration
}

func LoadEngineConfig() (*EngineConfig, error) {
	c := &EngineConfig{
		GoogleProjectID: os.Getenv("GOOGLE_PROJECT_ID"),
		GoogleLocation:  envOr("GOOGLE_LOCATION", "europe-west4"),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-1.5-flash"),
		GCSBucket:       os.Getenv("STT_UPLOAD_BUCKET"),
	}

	if c.GoogleProjectID == "" {
		return nil, errors.New("GOOGLE_PROJECT_ID environment variable is not set")
	}

	warmSec, err := envIntRange("WARM_KEEPER_INTERVAL_SECONDS", 30, 10, 120)
	if err != nil {
		return nil, err
	}
	c.WarmKeeperInterval = time.Duration(warmSec) * time.Second

	maxInFlight, err := envInt("MAX_UPSTREAM_CONCURRENCY", 10)
	if err != nil {
		return nil, err
	}
	if maxInFlight < 1 {
		return nil, errors.New("MAX_UPSTREAM_CONCURRENCY must be >= 1")
	}
	c.MaxUpstreamInFlight = maxInFlight

	gapMS, err := envInt("PARTIAL_STT_MIN_GAP_MS", 500)
	if err != nil {
		return nil, err
	}
	c.PartialSTTMinGap = time.Duration(gapMS) * time.Millisecond

	durMS, err := envInt("PARTIAL_STT_MIN_DURATION_MS", 1200)
	if err != nil {
		return nil, err
	}
	c.PartialSTTMinDuration = time.Duration(durMS) * time.Millisecond

	silenceMS, err := envInt("EARLY_TRIGGER_SILENCE_MS", 400)
	if err != nil {
		return nil, err
	}
	c.EarlyTriggerSilence = time.Duration(silenceMS) * time.Millisecond

	idleSec, err := envInt("SESSION_IDLE_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	c.SessionIdleTimeout = time.Duration(idleSec) * time.Second

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer: " + err.Error())
	}
	return n, nil
}

func envIntRange(key string, fallback, min, max int) (int, error) {
	n, err := envInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if n < min || n > max {
		return 0, errors.New(key + " out of accepted range")
	}
	return n, nil
}
