package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/logging"
	"github.com/san-kum/molsim/internal/presets"
	"github.com/san-kum/molsim/internal/sim"
	"github.com/san-kum/molsim/internal/storage"
)

const (
	cmdTimeout      = 5 * time.Second
	shutdownTimeout = 5 * time.Second
	pickSlack       = 8.0
)

var (
	ErrNoAtom         = errors.New("no atom at target")
	ErrNoBond         = errors.New("no bond between atoms")
	ErrUnknownCommand = errors.New("unknown command")
)

type Options struct {
	AllowedOrigins []string
	Registry       *presets.Registry
	Log            logging.Logger
	// FrameEvery broadcasts every n-th published frame.
	FrameEvery int
	Seed       int64
}

// Server exposes a session to WebSocket clients. The scheduler goroutine is
// the only one touching the session; connection goroutines hand commands to
// it and wait for the reply.
type Server struct {
	session    *sim.Session
	sched      *sim.Scheduler
	hub        *Hub
	registry   *presets.Registry
	log        logging.Logger
	upgrader   websocket.Upgrader
	origins    map[string]bool
	frameEvery int
	frames     int
	rng        *rand.Rand
}

func New(s *sim.Session, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logging.Discard
	}
	if opts.Registry == nil {
		opts.Registry = presets.NewRegistry()
	}
	if opts.FrameEvery < 1 {
		opts.FrameEvery = 2
	}
	srv := &Server{
		session:    s,
		sched:      sim.NewScheduler(s.Engine()),
		hub:        NewHub(opts.Log),
		registry:   opts.Registry,
		log:        opts.Log,
		origins:    make(map[string]bool),
		frameEvery: opts.FrameEvery,
		rng:        rand.New(rand.NewSource(opts.Seed)),
	}
	for _, o := range opts.AllowedOrigins {
		srv.origins[o] = true
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     srv.checkOrigin,
	}
	s.Engine().AddObserver(sim.ObserverFunc(srv.onFrame))
	return srv
}

func (s *Server) Scheduler() *sim.Scheduler { return s.sched }
func (s *Server) Hub() *Hub                 { return s.hub }

// checkOrigin admits non-browser clients, the configured origins, or the
// server's own host when none are configured.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.origins) == 0 {
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
	return s.origins["*"] || s.origins[origin]
}

// onFrame runs on the scheduler goroutine for every published frame.
func (s *Server) onFrame(f *sim.Frame) {
	s.frames++
	if s.frames%s.frameEvery != 0 || s.hub.Len() == 0 {
		return
	}
	s.hub.Broadcast(encode(Message{Type: MsgFrame, Frame: f}))
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/frame", s.handleFrame)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// Run serves addr and drives the simulation until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpSrv := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go s.sched.Run(ctx)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Infof("serving on %s", addr)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		runErr = fmt.Errorf("listen %s: %w", addr, runErr)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.log.Warnf("shutdown: %v", err)
	}
	s.hub.Close()
	s.log.Infof("server stopped")
	return runErr
}

const (
	loopQueued int32 = iota
	loopStarted
	loopAbandoned
)

// onLoop runs fn on the scheduler goroutine and waits for it to finish. If
// ctx ends before fn starts, fn never runs; once fn has started, onLoop
// waits for it even past ctx.
func (s *Server) onLoop(ctx context.Context, fn func()) error {
	var state atomic.Int32
	done := make(chan struct{})
	if err := s.sched.Do(ctx, func() {
		defer close(done)
		if ctx.Err() != nil || !state.CompareAndSwap(loopQueued, loopStarted) {
			return
		}
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		if state.Load() != loopStarted {
			return ctx.Err()
		}
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(loopQueued, loopAbandoned) {
			return ctx.Err()
		}
		<-done
		return nil
	}
}

// Exec applies cmd on the simulation loop and returns the reply.
func (s *Server) Exec(ctx context.Context, cmd Command) Message {
	replies := make(chan Message, 1)
	var reply Message
	if err := s.onLoop(ctx, func() { replies <- s.apply(cmd) }); err != nil {
		reply = fail(err)
	} else {
		reply = <-replies
	}
	reply.Seq = cmd.Seq
	return reply
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cmdTimeout)
	defer cancel()
	frames := make(chan *sim.Frame, 1)
	if err := s.onLoop(ctx, func() { frames <- s.session.Engine().Frame() }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(<-frames)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade: %v", err)
		return
	}
	c := newClient(conn)
	s.hub.add(c)
	go c.writePump()

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	frames := make(chan *sim.Frame, 1)
	if err := s.onLoop(ctx, func() { frames <- s.session.Engine().Frame() }); err == nil {
		c.reply(encode(Message{Type: MsgFrame, Frame: <-frames}))
	}
	cancel()

	s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer s.hub.remove(c)
	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warnf("websocket read: %v", err)
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.reply(encode(fail(fmt.Errorf("bad command: %w", err))))
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		reply := s.Exec(ctx, cmd)
		cancel()
		c.reply(encode(reply))
	}
}

func fail(err error) Message { return Message{Type: MsgError, Error: err.Error()} }

func result(r string, ids ...dynamo.AtomID) Message {
	return Message{Type: MsgResult, Result: r, IDs: ids}
}

// target resolves the atom a command refers to.
func (s *Server) target(cmd Command) (dynamo.AtomID, bool) {
	w := s.session.Engine().World()
	if cmd.ID != "" {
		return cmd.ID, w.HasAtom(cmd.ID)
	}
	return w.AtomAt(cmd.X, cmd.Y, pickSlack)
}

// apply runs on the scheduler goroutine.
func (s *Server) apply(cmd Command) Message {
	sess := s.session
	e := sess.Engine()

	switch cmd.Type {
	case CmdSpawn:
		id, err := sess.Spawn(cmd.X, cmd.Y, cmd.Element)
		if err != nil {
			return fail(err)
		}
		return result("spawned", id)

	case CmdLink:
		return result(sess.Link(cmd.A, cmd.B).String(), cmd.A, cmd.B)

	case CmdUnlink:
		if !sess.Unlink(cmd.A, cmd.B) {
			return fail(ErrNoBond)
		}
		return result("unlinked", cmd.A, cmd.B)

	case CmdPick:
		id, ok := s.target(cmd)
		if !ok {
			sess.CancelLink()
			return fail(ErrNoAtom)
		}
		res := sess.LinkPick(id)
		if p := sess.Pending(); p != "" {
			return result("pending", p)
		}
		return result(res.String())

	case CmdDelete:
		id, ok := s.target(cmd)
		if !ok {
			return fail(ErrNoAtom)
		}
		n := sess.Delete(id)
		return Message{Type: MsgResult, Result: fmt.Sprintf("deleted with %d bonds", n), IDs: []dynamo.AtomID{id}}

	case CmdDrag:
		id, ok := s.target(cmd)
		if !ok || !sess.BeginDrag(id) {
			return fail(ErrNoAtom)
		}
		return result("dragging", id)

	case CmdMove:
		id := sess.Dragging()
		if id == "" {
			return fail(errors.New("not dragging"))
		}
		sess.UpdateDrag(cmd.X, cmd.Y)
		return result("moved", id)

	case CmdDrop:
		sess.EndDrag()
		return result("dropped")

	case CmdCycle:
		id, ok := s.target(cmd)
		delta := cmd.Delta
		if delta == 0 {
			delta = 1
		}
		if !ok || !sess.CycleElement(id, delta) {
			return fail(ErrNoAtom)
		}
		return result("cycled", id)

	case CmdSelect:
		id, ok := s.target(cmd)
		if !ok {
			sess.Select("")
			return result("cleared")
		}
		m := sess.Select(id)
		return Message{Type: MsgResult, Result: "selected", IDs: []dynamo.AtomID{id}, Molecule: moleculeView(m)}

	case CmdClear:
		sess.ClearAll()
		return result("cleared")

	case CmdPause:
		if sess.TogglePause() {
			return result("paused")
		}
		return result("running")

	case CmdParams:
		p := e.Params()
		if len(cmd.Params) > 0 {
			if err := json.Unmarshal(cmd.Params, &p); err != nil {
				return fail(fmt.Errorf("%w: %v", dynamo.ErrInvalidParams, err))
			}
			if err := sess.SetParams(p); err != nil {
				return fail(err)
			}
		}
		return Message{Type: MsgResult, Result: "params", Params: &p}

	case CmdPreset:
		return s.placePreset(cmd)

	case CmdSnapshot:
		data, err := storage.Encode(e.World(), e.Params())
		if err != nil {
			return fail(err)
		}
		return Message{Type: MsgResult, Result: "snapshot", Data: data}

	case CmdRestore:
		p := e.Params()
		var err error
		dropped := 0
		sess.Mutate(func(w *dynamo.World) {
			dropped, err = storage.RestoreDetailed(w, &p, cmd.Data)
		})
		if err != nil {
			return fail(err)
		}
		if err := sess.SetParams(p); err != nil {
			return fail(err)
		}
		return result(fmt.Sprintf("restored, %d bonds dropped", dropped))
	}
	return fail(fmt.Errorf("%w %q", ErrUnknownCommand, cmd.Type))
}

func (s *Server) placePreset(cmd Command) Message {
	var p presets.Preset
	if cmd.Name == "" {
		p = s.registry.Random(s.rng)
	} else {
		var err error
		if p, err = s.registry.Get(cmd.Name); err != nil {
			return fail(err)
		}
	}

	cx, cy := cmd.X, cmd.Y
	if cx == 0 && cy == 0 {
		b := s.session.Engine().Bounds()
		cx, cy = b.Width/2, b.Height/2
	}
	var ids []dynamo.AtomID
	var err error
	s.session.Mutate(func(w *dynamo.World) {
		ids, err = presets.Build(w, p, cx, cy)
		if err == nil && cmd.Spin {
			presets.Spin(w, ids, cx, cy, presets.DefaultSpin)
		}
	})
	if err != nil {
		return fail(err)
	}
	s.log.Infof("placed %s at (%.0f, %.0f)", p.Name, cx, cy)
	return result(p.Name, ids...)
}
