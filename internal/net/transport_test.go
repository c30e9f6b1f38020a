package net

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastSettings() TransportSettings {
	s := DefaultTransportSettings()
	s.ReconnectMin = 10 * time.Millisecond
	s.ReconnectMax = 50 * time.Millisecond
	return s
}

func waitStatus(t *testing.T, tr *Transport, connected bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-tr.Status():
			if s.Connected == connected {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for connected=%v", connected)
		}
	}
}

func TestTransportRoundTrip(t *testing.T) {
	relay, url := startRelay(t, DefaultRelaySettings())
	ctx := context.Background()

	a := NewTransport(ctx, url, fastSettings())
	defer a.Close()
	b := NewTransport(ctx, url, fastSettings())
	defer b.Close()
	waitStatus(t, a, true)
	waitStatus(t, b, true)
	waitConnections(t, relay, 2)

	require.NoError(t, a.Send([]byte("ping")))

	select {
	case msg := <-b.Receive():
		assert.Equal(t, "ping", string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("message not relayed")
	}
}

func TestTransportRefusesWhileDisconnected(t *testing.T) {
	tr := NewTransport(context.Background(), "ws://127.0.0.1:1/api/socket", fastSettings())

	assert.ErrorIs(t, tr.Send([]byte("x")), ErrNotConnected)
	waitStatus(t, tr, false)
	assert.False(t, tr.Connected())

	tr.Close()
	assert.ErrorIs(t, tr.Send([]byte("x")), ErrClosed)

	_, open := <-tr.Receive()
	assert.False(t, open, "receive channel closes with the transport")
}

func TestTransportReconnects(t *testing.T) {
	relay, url := startRelay(t, DefaultRelaySettings())
	tr := NewTransport(context.Background(), url, fastSettings())
	defer tr.Close()
	waitStatus(t, tr, true)

	relay.Close()
	waitStatus(t, tr, false)
	waitStatus(t, tr, true)
	assert.True(t, tr.Connected())
}

func TestRoomURL(t *testing.T) {
	u, err := RoomURL("ws://host:8888/api/socket", "red")
	require.NoError(t, err)
	assert.Equal(t, "ws://host:8888/api/socket?room=red", u)

	u, err = RoomURL("ws://host:8888/api/socket", "")
	require.NoError(t, err)
	assert.Equal(t, "ws://host:8888/api/socket", u)

	assert.Equal(t, "ws://10.0.0.2:9000/api/socket", RelayURL("10.0.0.2", 9000))
}
