package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestFromLookupOverrides(t *testing.T) {
	c, err := fromLookup(env(map[string]string{
		"SKETCH_RELAY_ADDR": ":9999",
		"SKETCH_USER":       "alice",
		"SKETCH_ROOM":       "red",
		"SKETCH_PEER_QUEUE": "32",
		"SKETCH_LIVE_TTL":   "3s",
		"SKETCH_RECONCILE":  "1m",
		"SKETCH_STORE_DSN":  "",
	}))
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.RelayAddr)
	assert.Equal(t, "alice", c.UserID)
	assert.Equal(t, "red", c.Room)
	assert.Equal(t, 32, c.PeerQueue)
	assert.Equal(t, 3*time.Second, c.LiveTTL)
	assert.Equal(t, time.Minute, c.ReconcileEvery)
	assert.Equal(t, Default().StoreDSN, c.StoreDSN, "empty values keep the default")
}

func TestFromLookupRejects(t *testing.T) {
	_, err := fromLookup(env(map[string]string{"SKETCH_PEER_QUEUE": "lots"}))
	assert.Error(t, err)

	_, err = fromLookup(env(map[string]string{"SKETCH_LIVE_TTL": "-1s"}))
	assert.Error(t, err)

	_, err = fromLookup(env(map[string]string{"SKETCH_PEER_QUEUE": "0"}))
	assert.Error(t, err)
}
