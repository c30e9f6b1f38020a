package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/docopt/docopt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localboard/sketchrelay/internal/config"
	"github.com/localboard/sketchrelay/internal/state"
	"github.com/localboard/sketchrelay/internal/storage"
)

func TestStoreURLFor(t *testing.T) {
	for _, tc := range []struct {
		relay string
		want  string
	}{
		{"ws://192.168.1.20:8888/api/socket", "http://192.168.1.20:8888"},
		{"wss://board.example.com/api/socket?room=x", "https://board.example.com"},
	} {
		got, err := storeURLFor(tc.relay)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := storeURLFor("http://host/api/socket")
	assert.Error(t, err)
}

func TestApplyOptionsDerivesStoreFromRelay(t *testing.T) {
	opts, err := docopt.ParseArgs(usage, []string{"draw", "--relay=ws://10.0.0.5:9000/api/socket", "--room=team", "--user=ana"}, Version)
	require.NoError(t, err)

	cfg, err := applyOptions(config.Default(), opts)
	require.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.5:9000/api/socket", cfg.RelayURL)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.StoreURL)
	assert.Equal(t, "team", cfg.Room)
	assert.Equal(t, "ana", cfg.UserID)
}

func TestApplyOptionsExplicitStore(t *testing.T) {
	opts, err := docopt.ParseArgs(usage, []string{"draw", "--relay=ws://a:1/api/socket", "--store=http://b:2"}, Version)
	require.NoError(t, err)

	cfg, err := applyOptions(config.Default(), opts)
	require.NoError(t, err)
	assert.Equal(t, "http://b:2", cfg.StoreURL)
}

func TestRunExport(t *testing.T) {
	store := storage.NewMemoryGateway(state.Stroke{ID: "a", Points: []state.Point{{X: 0, Y: 0}, {X: 30, Y: 40}}, Color: "green", Width: 4})
	srv := httptest.NewServer(storage.NewHandler(store))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "board.pdf")
	opts, err := docopt.ParseArgs(usage, []string{"export", "--out=" + out, "--store=" + srv.URL}, Version)
	require.NoError(t, err)

	require.NoError(t, runExport(context.Background(), config.Default(), opts))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data[:8]), "%PDF-")
}
