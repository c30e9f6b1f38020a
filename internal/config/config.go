// Package config collects runtime settings for the relay and the board
// client. Defaults are overridden by SKETCH_* environment variables, which
// are in turn overridden by command line options.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/localboard/sketchrelay/internal/state"
)

type Config struct {
	// relay
	RelayAddr   string
	StoreDriver string
	StoreDSN    string
	PeerQueue   int
	Advertise   bool

	// client
	RelayURL        string
	StoreURL        string
	Room            string
	UserID          string
	LiveTTL         time.Duration
	ReconcileEvery  time.Duration
	EraserThreshold float64
}

func Default() Config {
	return Config{
		RelayAddr:       ":8888",
		StoreDriver:     "sqlite",
		StoreDSN:        "data/strokes.db",
		PeerQueue:       256,
		Advertise:       true,
		RelayURL:        "ws://127.0.0.1:8888/api/socket",
		StoreURL:        "http://127.0.0.1:8888",
		LiveTTL:         10 * time.Second,
		ReconcileEvery:  30 * time.Second,
		EraserThreshold: state.DefaultEraserThreshold,
	}
}

// FromEnv returns the defaults with any SKETCH_* variables applied.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SKETCH_RELAY_ADDR", &c.RelayAddr)
	str("SKETCH_STORE_DRIVER", &c.StoreDriver)
	str("SKETCH_STORE_DSN", &c.StoreDSN)
	str("SKETCH_RELAY_URL", &c.RelayURL)
	str("SKETCH_STORE_URL", &c.StoreURL)
	str("SKETCH_ROOM", &c.Room)
	str("SKETCH_USER", &c.UserID)

	var errs []error
	if v, ok := lookup("SKETCH_PEER_QUEUE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SKETCH_PEER_QUEUE: %w", err))
		}
		c.PeerQueue = n
	}
	for key, dst := range map[string]*time.Duration{
		"SKETCH_LIVE_TTL":  &c.LiveTTL,
		"SKETCH_RECONCILE": &c.ReconcileEvery,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
			*dst = d
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Validate rejects settings the relay or client cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.PeerQueue <= 0 {
		errs = append(errs, fmt.Errorf("peer queue must be positive, got %d", c.PeerQueue))
	}
	if c.LiveTTL <= 0 {
		errs = append(errs, fmt.Errorf("live TTL must be positive, got %s", c.LiveTTL))
	}
	if c.ReconcileEvery <= 0 {
		errs = append(errs, fmt.Errorf("reconcile interval must be positive, got %s", c.ReconcileEvery))
	}
	if c.EraserThreshold <= 0 {
		errs = append(errs, fmt.Errorf("eraser threshold must be positive, got %v", c.EraserThreshold))
	}
	return errors.Join(errs...)
}
