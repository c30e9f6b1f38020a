package net

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRelay(t *testing.T, settings RelaySettings) (*Relay, string) {
	t.Helper()
	relay := NewRelay(settings)
	srv := httptest.NewServer(relay)
	t.Cleanup(func() {
		relay.Close()
		srv.Close()
	})
	return relay, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitConnections(t *testing.T, relay *Relay, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return relay.Connections() == n }, 2*time.Second, 5*time.Millisecond)
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestRelayFansOutToOthers(t *testing.T) {
	relay, url := startRelay(t, DefaultRelaySettings())
	a := dial(t, url)
	b := dial(t, url)
	c := dial(t, url)
	waitConnections(t, relay, 3)

	msg := `{"type":"draw","userId":"A","points":[{"x":1,"y":1}]}`
	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(msg)))

	assert.Equal(t, msg, readText(t, b), "relayed verbatim")
	assert.Equal(t, msg, readText(t, c))
	expectSilence(t, a)
}

func TestRelayIsolatesRooms(t *testing.T) {
	relay, url := startRelay(t, DefaultRelaySettings())
	red1 := dial(t, url+"?room=red")
	red2 := dial(t, url+"?room=red")
	global := dial(t, url)
	waitConnections(t, relay, 3)
	assert.Equal(t, 2, relay.Stats().Rooms)

	require.NoError(t, red1.WriteMessage(websocket.TextMessage, []byte("hello")))

	assert.Equal(t, "hello", readText(t, red2))
	expectSilence(t, global)
}

func TestRelayCountsDisconnects(t *testing.T) {
	relay, url := startRelay(t, DefaultRelaySettings())
	a := dial(t, url)
	dial(t, url)
	waitConnections(t, relay, 2)

	a.Close()
	waitConnections(t, relay, 1)
}

func TestRelayDropsForFullQueue(t *testing.T) {
	relay := NewRelay(RelaySettings{QueueSize: 1, MaxDrops: 2})
	from := &peer{room: DefaultRoom, send: make(chan []byte, 1), done: make(chan struct{})}
	slow := &peer{room: DefaultRoom, send: make(chan []byte, 1), done: make(chan struct{})}
	fast := &peer{room: DefaultRoom, send: make(chan []byte, 8), done: make(chan struct{})}
	relay.rooms[DefaultRoom] = map[*peer]struct{}{from: {}, slow: {}, fast: {}}

	for i := 0; i < 4; i++ {
		relay.broadcast(from, []byte{byte(i)})
	}

	assert.Len(t, fast.send, 4, "fast peer is not held back")
	assert.Len(t, slow.send, 1)
	assert.Empty(t, from.send, "sender never receives its own message")
	assert.EqualValues(t, 3, relay.Stats().Dropped)

	select {
	case <-slow.done:
	default:
		t.Fatal("slow peer should be disconnected after exceeding MaxDrops")
	}
	select {
	case <-fast.done:
		t.Fatal("fast peer must stay connected")
	default:
	}
}
