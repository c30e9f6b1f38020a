package net

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

var (
	ErrClosed       = errors.New("transport closed")
	ErrNotConnected = errors.New("not connected to relay")
	ErrQueueFull    = errors.New("send queue full")
)

type TransportSettings struct {
	QueueSize        int
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	ReconnectMin     time.Duration
	ReconnectMax     time.Duration
}

func DefaultTransportSettings() TransportSettings {
	return TransportSettings{
		QueueSize:        128,
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		ReconnectMin:     250 * time.Millisecond,
		ReconnectMax:     10 * time.Second,
	}
}

// Status reports a connection change. Err is set when a connection ends
// or a dial fails.
type Status struct {
	Connected bool
	Err       error
}

// Transport is one client's connection to the relay. It redials with
// backoff after every disconnect; messages are never replayed, and
// anything sent while disconnected is refused rather than queued.
type Transport struct {
	url      string
	settings TransportSettings
	dialer   *websocket.Dialer

	ctx    context.Context
	cancel context.CancelFunc

	connected atomic.Bool
	send      chan []byte
	receive   chan []byte
	status    chan Status
	done      chan struct{}
}

// RoomURL appends the room query parameter to a relay URL.
func RoomURL(relayURL, room string) (string, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return "", err
	}
	if room != "" {
		q := u.Query()
		q.Set("room", room)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// NewTransport starts connecting to relayURL in the background.
func NewTransport(ctx context.Context, relayURL string, settings TransportSettings) *Transport {
	cancelCtx, cancel := context.WithCancel(ctx)
	t := &Transport{
		url:      relayURL,
		settings: settings,
		dialer: &websocket.Dialer{
			HandshakeTimeout: settings.HandshakeTimeout,
		},
		ctx:     cancelCtx,
		cancel:  cancel,
		send:    make(chan []byte, settings.QueueSize),
		receive: make(chan []byte, settings.QueueSize),
		status:  make(chan Status, 8),
		done:    make(chan struct{}),
	}
	go t.run()
	return t
}

// Send queues one message without blocking.
func (t *Transport) Send(message []byte) error {
	select {
	case <-t.ctx.Done():
		return ErrClosed
	default:
	}
	if !t.connected.Load() {
		return ErrNotConnected
	}
	select {
	case t.send <- message:
		return nil
	default:
		return ErrQueueFull
	}
}

// Receive yields inbound messages. It is closed when the transport stops.
func (t *Transport) Receive() <-chan []byte {
	return t.receive
}

// Status yields connection changes.
func (t *Transport) Status() <-chan Status {
	return t.status
}

// Connected reports whether a relay connection is currently up.
func (t *Transport) Connected() bool {
	return t.connected.Load()
}

// Close stops the transport and waits for its goroutines.
func (t *Transport) Close() {
	t.cancel()
	<-t.done
}

func (t *Transport) run() {
	defer func() {
		close(t.receive)
		close(t.done)
	}()

	delay := t.settings.ReconnectMin
	for {
		ws, _, err := t.dialer.DialContext(t.ctx, t.url, nil)
		if err != nil {
			glog.Infof("[t]connect %s error = %s\n", t.url, err)
			t.publish(Status{Err: err})
		} else {
			delay = t.settings.ReconnectMin
			t.handle(ws)
		}

		select {
		case <-t.ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(2*delay, t.settings.ReconnectMax)
	}
}

func (t *Transport) handle(ws *websocket.Conn) {
	defer ws.Close()

	handleCtx, handleCancel := context.WithCancel(t.ctx)
	defer handleCancel()

	t.connected.Store(true)
	t.publish(Status{Connected: true})
	glog.Infof("[t]connected %s\n", t.url)

	writeDone := make(chan struct{})
	go func() {
		defer func() {
			handleCancel()
			close(writeDone)
		}()
		for {
			select {
			case <-handleCtx.Done():
				ws.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(t.settings.WriteTimeout),
				)
				return
			case message := <-t.send:
				ws.SetWriteDeadline(time.Now().Add(t.settings.WriteTimeout))
				if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
					glog.Infof("[ts]-> error = %s\n", err)
					return
				}
				glog.V(2).Infof("[ts]-> %d bytes\n", len(message))
			}
		}
	}()

	var readErr error
	go func() {
		<-handleCtx.Done()
		// unblock ReadMessage
		ws.SetReadDeadline(time.Now())
	}()
	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		select {
		case t.receive <- message:
			glog.V(2).Infof("[tr]<- %d bytes\n", len(message))
		case <-handleCtx.Done():
		}
	}
	handleCancel()
	<-writeDone

	t.connected.Store(false)
	t.drain()
	if t.ctx.Err() == nil {
		glog.Infof("[t]disconnected %s error = %s\n", t.url, readErr)
		t.publish(Status{Err: readErr})
	}
}

// drain discards messages queued for a connection that no longer exists.
func (t *Transport) drain() {
	for {
		select {
		case <-t.send:
		default:
			return
		}
	}
}

func (t *Transport) publish(s Status) {
	select {
	case t.status <- s:
	case <-t.ctx.Done():
	}
}
