package net

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

// DefaultRoom is the channel a peer joins when it names none.
const DefaultRoom = "global"

type RelaySettings struct {
	// QueueSize bounds each peer's outbound queue.
	QueueSize int
	// MaxDrops is how many consecutive messages a peer may miss because its
	// queue was full before it is disconnected.
	MaxDrops       int
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
}

func DefaultRelaySettings() RelaySettings {
	return RelaySettings{
		QueueSize:      256,
		MaxDrops:       64,
		WriteTimeout:   5 * time.Second,
		PingInterval:   15 * time.Second,
		ReadTimeout:    45 * time.Second,
		MaxMessageSize: 4 << 20,
	}
}

// RelayStats is a diagnostic snapshot.
type RelayStats struct {
	Connections int   `json:"connections"`
	Rooms       int   `json:"rooms"`
	Dropped     int64 `json:"dropped"`
}

// Relay fans every inbound message out to all other peers in the same
// room. It keeps no drawing state and does not parse messages.
type Relay struct {
	settings RelaySettings
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*peer]struct{}

	connections atomic.Int64
	dropped     atomic.Int64
}

type peer struct {
	addr  string
	room  string
	conn  *websocket.Conn
	send  chan []byte
	drops atomic.Int32
	once  sync.Once
	done  chan struct{}
}

func (p *peer) close() {
	p.once.Do(func() { close(p.done) })
}

func NewRelay(settings RelaySettings) *Relay {
	return &Relay{
		settings: settings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		rooms: make(map[string]map[*peer]struct{}),
	}
}

// ServeHTTP upgrades the request and relays until the peer goes away.
// The room is taken from the "room" query parameter.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		glog.Infof("[relay]upgrade %s error = %s\n", req.RemoteAddr, err)
		return
	}
	room := req.URL.Query().Get("room")
	if room == "" {
		room = DefaultRoom
	}
	p := &peer{
		addr: req.RemoteAddr,
		room: room,
		conn: conn,
		send: make(chan []byte, r.settings.QueueSize),
		done: make(chan struct{}),
	}
	r.add(p)
	defer r.remove(p)

	go r.writeLoop(p)
	r.readLoop(p)
}

func (r *Relay) add(p *peer) {
	r.mu.Lock()
	members, ok := r.rooms[p.room]
	if !ok {
		members = make(map[*peer]struct{})
		r.rooms[p.room] = members
	}
	members[p] = struct{}{}
	r.mu.Unlock()

	n := r.connections.Add(1)
	glog.Infof("[relay]+%s room=%s clients=%d\n", p.addr, p.room, n)
}

func (r *Relay) remove(p *peer) {
	p.close()
	r.mu.Lock()
	if members, ok := r.rooms[p.room]; ok {
		delete(members, p)
		if len(members) == 0 {
			delete(r.rooms, p.room)
		}
	}
	r.mu.Unlock()

	n := r.connections.Add(-1)
	glog.Infof("[relay]-%s room=%s clients=%d\n", p.addr, p.room, n)
}

func (r *Relay) readLoop(p *peer) {
	defer p.conn.Close()

	p.conn.SetReadLimit(r.settings.MaxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(r.settings.ReadTimeout))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(r.settings.ReadTimeout))
	})

	for {
		messageType, message, err := p.conn.ReadMessage()
		if err != nil {
			glog.V(1).Infof("[relay]%s<- error = %s\n", p.addr, err)
			return
		}
		p.conn.SetReadDeadline(time.Now().Add(r.settings.ReadTimeout))
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		glog.V(2).Infof("[relay]%s<- %d bytes\n", p.addr, len(message))
		r.broadcast(p, message)
	}
}

func (r *Relay) writeLoop(p *peer) {
	ticker := time.NewTicker(r.settings.PingInterval)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case <-p.done:
			p.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(r.settings.WriteTimeout),
			)
			return
		case message := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(r.settings.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				glog.Infof("[relay]%s-> error = %s\n", p.addr, err)
				p.close()
				return
			}
		case <-ticker.C:
			if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(r.settings.WriteTimeout)); err != nil {
				p.close()
				return
			}
		}
	}
}

// broadcast enqueues message for every other peer in from's room. A full
// queue drops the message for that peer only; a peer that keeps missing
// messages is disconnected.
func (r *Relay) broadcast(from *peer, message []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for p := range r.rooms[from.room] {
		if p == from {
			continue
		}
		select {
		case p.send <- message:
			p.drops.Store(0)
		default:
			r.dropped.Add(1)
			if int(p.drops.Add(1)) > r.settings.MaxDrops {
				glog.Warningf("[relay]%s too slow, disconnecting\n", p.addr)
				p.close()
			} else {
				glog.V(1).Infof("[relay]drop ->%s\n", p.addr)
			}
		}
	}
}

// Connections returns the number of connected peers.
func (r *Relay) Connections() int {
	return int(r.connections.Load())
}

func (r *Relay) Stats() RelayStats {
	r.mu.RLock()
	rooms := len(r.rooms)
	r.mu.RUnlock()
	return RelayStats{
		Connections: r.Connections(),
		Rooms:       rooms,
		Dropped:     r.dropped.Load(),
	}
}

// Close disconnects every peer.
func (r *Relay) Close() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, members := range r.rooms {
		for p := range members {
			p.close()
		}
	}
}
