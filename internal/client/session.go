// Package client runs one user's side of a shared board.
//
// A Session owns a relay connection and a stroke store and drives a Board
// from a single event loop goroutine. Pointer input, relay messages, I/O
// completions, eviction and reconciliation are all queued as tasks on that
// loop, so Board never sees two events at once. Persistence runs in the
// background; its failures are reported as Notices and never undo what
// the user already sees.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/robfig/cron/v3"

	relaynet "github.com/localboard/sketchrelay/internal/net"
	"github.com/localboard/sketchrelay/internal/protocol"
	"github.com/localboard/sketchrelay/internal/state"
	"github.com/localboard/sketchrelay/internal/storage"
)

// Conn is the relay connection a Session sends and receives through.
// *net.Transport satisfies it.
type Conn interface {
	Send(message []byte) error
	Receive() <-chan []byte
	Status() <-chan relaynet.Status
}

// Notice reports a store operation that did not take effect. The stroke or
// erase stays applied locally.
type Notice struct {
	Op  string
	IDs []string
	Err error
}

func (n Notice) Error() string {
	return fmt.Sprintf("%s %v: %v", n.Op, n.IDs, n.Err)
}

func (n Notice) Unwrap() error { return n.Err }

type Options struct {
	UserID          string
	Color           string
	Width           int
	EraserThreshold float64
	// LiveTTL is how long a remote live stroke survives without a draw.
	LiveTTL time.Duration
	// ReconcileEvery schedules a full refetch from the store.
	ReconcileEvery time.Duration
	IOTimeout      time.Duration
	Clock          state.Clock
	NewID          func() string
	// OnChange is called from the loop goroutine after each visible change.
	OnChange func(*Frame)
}

func (o *Options) defaults() {
	if o.UserID == "" {
		o.UserID = state.NewStrokeID()
	}
	if o.LiveTTL <= 0 {
		o.LiveTTL = 10 * time.Second
	}
	if o.ReconcileEvery <= 0 {
		o.ReconcileEvery = 30 * time.Second
	}
	if o.IOTimeout <= 0 {
		o.IOTimeout = 10 * time.Second
	}
	if o.Clock == nil {
		o.Clock = state.SystemClock{}
	}
	if o.NewID == nil {
		o.NewID = state.NewStrokeID
	}
}

type Session struct {
	opts  Options
	conn  Conn
	store storage.Gateway
	board *Board

	tasks   chan func()
	notices chan Notice
	stopped chan struct{}

	frame    atomic.Pointer[Frame]
	builder  frameBuilder
	fetching bool

	ioCtx    context.Context
	ioCancel context.CancelFunc
	ioWG     sync.WaitGroup
}

func New(conn Conn, store storage.Gateway, opts Options) *Session {
	opts.defaults()
	s := &Session{
		opts:    opts,
		conn:    conn,
		store:   store,
		tasks:   make(chan func(), 256),
		notices: make(chan Notice, 32),
		stopped: make(chan struct{}),
	}
	s.ioCtx, s.ioCancel = context.WithCancel(context.Background())
	s.board = newBoard(opts.UserID, s, opts.NewID, opts.Clock)
	if opts.Color != "" {
		s.board.SetColor(opts.Color)
	}
	if opts.Width > 0 {
		s.board.SetWidth(opts.Width)
	}
	if opts.EraserThreshold > 0 {
		s.board.eraser.Threshold = opts.EraserThreshold
	}
	s.frame.Store(s.builder.build(s.board))
	return s
}

// UserID is the identity this session draws under.
func (s *Session) UserID() string { return s.opts.UserID }

// Frame returns the latest snapshot. Safe from any goroutine.
func (s *Session) Frame() *Frame { return s.frame.Load() }

// Notices yields store failures.
func (s *Session) Notices() <-chan Notice { return s.notices }

// Run fetches the stored strokes, then processes events until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		close(s.stopped)
		s.ioCancel()
		s.ioWG.Wait()
	}()

	s.fetch("fetchAll")

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.opts.ReconcileEvery), s.Reconcile); err != nil {
		return fmt.Errorf("schedule reconcile: %w", err)
	}
	c.Start()
	defer c.Stop()

	evict := time.NewTicker(max(s.opts.LiveTTL/2, 10*time.Millisecond))
	defer evict.Stop()

	receive := s.conn.Receive()
	status := s.conn.Status()
	glog.Infof("[session]%s running\n", s.opts.UserID)

	for {
		select {
		case <-ctx.Done():
			glog.Infof("[session]%s stopped\n", s.opts.UserID)
			return nil
		case task := <-s.tasks:
			task()
		case message, ok := <-receive:
			if !ok {
				receive = nil
				s.board.setConnected(false)
				break
			}
			s.board.Handle(message)
		case st := <-status:
			s.board.setConnected(st.Connected)
			if st.Connected {
				// missed messages are not replayed; catch up from the store
				s.fetch("reconcile")
			}
		case <-evict.C:
			s.board.EvictIdle(s.opts.LiveTTL)
		}
		s.publish()
	}
}

func (s *Session) publish() {
	if s.Frame().Version == s.board.version {
		return
	}
	f := s.builder.build(s.board)
	s.frame.Store(f)
	if s.opts.OnChange != nil {
		s.opts.OnChange(f)
	}
}

// do queues fn on the loop. It is dropped once the session has stopped.
func (s *Session) do(fn func()) {
	select {
	case s.tasks <- fn:
	case <-s.stopped:
	}
}

func (s *Session) PointerDown(btn Button, sp state.ScreenPoint) {
	s.do(func() { s.board.PointerDown(btn, sp) })
}

func (s *Session) PointerMove(sp state.ScreenPoint) {
	s.do(func() { s.board.PointerMove(sp) })
}

func (s *Session) PointerUp(btn Button, sp state.ScreenPoint) {
	s.do(func() { s.board.PointerUp(btn, sp) })
}

func (s *Session) Wheel(sp state.ScreenPoint, notches float64) {
	s.do(func() { s.board.Wheel(sp, notches) })
}

func (s *Session) SetTool(t Tool)    { s.do(func() { s.board.SetTool(t) }) }
func (s *Session) SetColor(c string) { s.do(func() { s.board.SetColor(c) }) }
func (s *Session) SetWidth(w int)    { s.do(func() { s.board.SetWidth(w) }) }

// Reconcile schedules a refetch from the store.
func (s *Session) Reconcile() {
	s.do(func() { s.fetch("reconcile") })
}

// send implements effects. A disconnected relay simply loses the message;
// the next draw carries the full path again.
func (s *Session) send(m protocol.Message) {
	data, err := protocol.Encode(m)
	if err != nil {
		glog.Errorf("[session]encode %s: %v\n", m.Type, err)
		return
	}
	if err := s.conn.Send(data); err != nil {
		glog.V(1).Infof("[session]%s not sent: %v\n", m.Type, err)
	}
}

func (s *Session) save(st state.Stroke) {
	st = st.Clone()
	s.background(func(ctx context.Context) {
		if err := s.store.Save(ctx, st); err != nil {
			s.do(func() { s.report(Notice{Op: "save", IDs: []string{st.ID}, Err: err}) })
		}
	})
}

func (s *Session) deleteByIDs(ids []string) {
	ids = append([]string(nil), ids...)
	s.background(func(ctx context.Context) {
		if err := s.store.DeleteByIDs(ctx, ids); err != nil {
			s.do(func() { s.report(Notice{Op: "deleteByIds", IDs: ids, Err: err}) })
		}
	})
}

// fetch runs on the loop. The first call seeds the board; later ones
// reconcile. Overlapping fetches are skipped.
func (s *Session) fetch(op string) {
	if s.fetching {
		return
	}
	s.fetching = true
	s.background(func(ctx context.Context) {
		strokes, err := s.store.FetchAll(ctx)
		s.do(func() {
			s.fetching = false
			if err != nil {
				s.report(Notice{Op: op, Err: err})
				return
			}
			if op == "fetchAll" {
				s.board.Seed(strokes)
				glog.Infof("[session]loaded %d strokes\n", len(strokes))
				return
			}
			added, removed := s.board.Reconcile(strokes)
			if added+removed > 0 {
				glog.Infof("[session]reconciled +%d -%d\n", added, removed)
			}
		})
	})
}

func (s *Session) background(fn func(ctx context.Context)) {
	s.ioWG.Add(1)
	go func() {
		defer s.ioWG.Done()
		ctx, cancel := context.WithTimeout(s.ioCtx, s.opts.IOTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Session) report(n Notice) {
	if errors.Is(n.Err, context.Canceled) {
		return
	}
	glog.Warningf("[session]%v\n", n)
	select {
	case s.notices <- n:
	default:
		glog.Warningf("[session]notice dropped: %v\n", n)
	}
}
