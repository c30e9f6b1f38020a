package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docopt/docopt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relaynet "github.com/localboard/sketchrelay/internal/net"
	"github.com/localboard/sketchrelay/internal/state"
	"github.com/localboard/sketchrelay/internal/storage"
)

func TestRelayConfigOverrides(t *testing.T) {
	t.Setenv("SKETCH_STORE_DRIVER", "postgres")
	opts, err := docopt.ParseArgs(usage, []string{"--addr=:9999", "--store=memory", "--queue=8", "--no-mdns"}, Version)
	require.NoError(t, err)

	cfg, err := relayConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.RelayAddr)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 8, cfg.PeerQueue)
	assert.False(t, cfg.Advertise)
}

func TestRelayConfigFromEnv(t *testing.T) {
	t.Setenv("SKETCH_STORE_DRIVER", "none")
	opts, err := docopt.ParseArgs(usage, []string{}, Version)
	require.NoError(t, err)

	cfg, err := relayConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.StoreDriver)
	assert.True(t, cfg.Advertise)
}

func TestOpenStore(t *testing.T) {
	g, closer, err := openStore("none", "")
	require.NoError(t, err)
	assert.Nil(t, g)
	assert.Nil(t, closer)

	g, _, err = openStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryGateway{}, g)

	_, _, err = openStore("oracle", "x")
	assert.Error(t, err)
}

func TestMuxRoutes(t *testing.T) {
	relay := relaynet.NewRelay(relaynet.DefaultRelaySettings())
	defer relay.Close()
	store := storage.NewMemoryGateway(state.Stroke{ID: "a", Points: []state.Point{{X: 1, Y: 2}}, Color: "red", Width: 2})
	srv := httptest.NewServer(newMux(relay, store))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	var stats relaynet.RelayStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	resp.Body.Close()
	assert.Zero(t, stats.Connections)

	strokes, err := storage.NewHTTPGateway(srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	assert.Equal(t, "a", strokes[0].ID)
}

func TestMuxWithoutStore(t *testing.T) {
	relay := relaynet.NewRelay(relaynet.DefaultRelaySettings())
	defer relay.Close()
	srv := httptest.NewServer(newMux(relay, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/strokes")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
