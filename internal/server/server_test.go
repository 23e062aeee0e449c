package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/molsim/internal/chem"
	"github.com/san-kum/molsim/internal/dynamo"
	"github.com/san-kum/molsim/internal/physics"
	"github.com/san-kum/molsim/internal/sim"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	e := sim.New(nil, sim.Config{
		Bounds: physics.Bounds{Width: 800, Height: 600},
		Params: dynamo.DefaultParams(),
		Seed:   1,
	})
	srv := New(sim.NewSession(e, nil), opts)
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Scheduler().Run(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Hub().Close()
	})
	return srv
}

func exec(t *testing.T, srv *Server, cmd Command) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return srv.Exec(ctx, cmd)
}

func TestExec_BuildWater(t *testing.T) {
	srv := newTestServer(t, Options{})

	o := exec(t, srv, Command{Type: CmdSpawn, X: 400, Y: 300, Element: chem.Oxygen})
	h1 := exec(t, srv, Command{Type: CmdSpawn, X: 360, Y: 300, Element: chem.Hydrogen})
	h2 := exec(t, srv, Command{Type: CmdSpawn, X: 440, Y: 300, Element: chem.Hydrogen})
	for _, m := range []Message{o, h1, h2} {
		if m.Type != MsgResult || len(m.IDs) != 1 {
			t.Fatalf("spawn reply = %+v", m)
		}
	}

	if m := exec(t, srv, Command{Type: CmdLink, A: o.IDs[0], B: h1.IDs[0]}); m.Result != "created" {
		t.Errorf("link = %+v", m)
	}

	// Two-phase pick by position: first pick is pending, second links.
	if m := exec(t, srv, Command{Type: CmdPick, ID: o.IDs[0]}); m.Result != "pending" {
		t.Errorf("first pick = %+v", m)
	}
	if m := exec(t, srv, Command{Type: CmdPick, ID: h2.IDs[0]}); m.Result != "created" {
		t.Errorf("second pick = %+v", m)
	}

	// Oxygen is saturated, so an upgrade is blocked.
	if m := exec(t, srv, Command{Type: CmdLink, A: o.IDs[0], B: h1.IDs[0]}); m.Result != "unchanged" {
		t.Errorf("upgrade = %+v", m)
	}

	m := exec(t, srv, Command{Type: CmdSelect, ID: o.IDs[0]})
	if m.Molecule == nil || m.Molecule.Formula != "H2O" || m.Molecule.Name != "Water" {
		t.Errorf("select = %+v", m.Molecule)
	}

	if m := exec(t, srv, Command{Type: CmdUnlink, A: h2.IDs[0], B: o.IDs[0]}); m.Result != "unlinked" {
		t.Errorf("unlink = %+v", m)
	}
	if m := exec(t, srv, Command{Type: CmdUnlink, A: h2.IDs[0], B: o.IDs[0]}); m.Type != MsgError {
		t.Errorf("second unlink = %+v, want error", m)
	}
}

func TestExec_Errors(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"unknown command", Command{Type: "explode"}, "unknown command"},
		{"bad element", Command{Type: CmdSpawn, Element: 999}, "unknown element"},
		{"delete nothing", Command{Type: CmdDelete, X: 10, Y: 10}, "no atom"},
		{"move without drag", Command{Type: CmdMove}, "not dragging"},
		{"bad params", Command{Type: CmdParams, Params: json.RawMessage(`{"friction": 3}`)}, "friction"},
		{"unknown preset", Command{Type: CmdPreset, Name: "kryptonite"}, "kryptonite"},
		{"bad snapshot", Command{Type: CmdRestore, Data: json.RawMessage(`{"atoms": 5}`)}, "snapshot"},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cmd.Seq = i + 1
			m := exec(t, srv, tt.cmd)
			if m.Type != MsgError || !strings.Contains(strings.ToLower(m.Error), tt.want) {
				t.Errorf("reply = %+v, want error containing %q", m, tt.want)
			}
			if m.Seq != i+1 {
				t.Errorf("seq = %d, want %d", m.Seq, i+1)
			}
		})
	}
}

func TestExec_PresetSnapshotRestore(t *testing.T) {
	srv := newTestServer(t, Options{})

	m := exec(t, srv, Command{Type: CmdPreset, Name: "carbon dioxide", X: 200, Y: 200})
	if m.Result != "Carbon Dioxide" || len(m.IDs) != 3 {
		t.Fatalf("preset = %+v", m)
	}
	snap := exec(t, srv, Command{Type: CmdSnapshot})
	if len(snap.Data) == 0 {
		t.Fatal("empty snapshot")
	}

	exec(t, srv, Command{Type: CmdClear})
	exec(t, srv, Command{Type: CmdParams, Params: json.RawMessage(`{"gravity": 1}`)})

	if m := exec(t, srv, Command{Type: CmdRestore, Data: snap.Data}); m.Type != MsgResult {
		t.Fatalf("restore = %+v", m)
	}
	p := exec(t, srv, Command{Type: CmdParams})
	if p.Params == nil || p.Params.Gravity != 0 {
		t.Errorf("params after restore = %+v", p.Params)
	}

	var n, b int
	srv.onLoop(context.Background(), func() {
		w := srv.session.Engine().World()
		n, b = w.NumAtoms(), w.NumBonds()
	})
	if n != 3 || b != 2 {
		t.Errorf("restored %d atoms, %d bonds; want 3, 2", n, b)
	}
}

func TestExec_DragAndPause(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := exec(t, srv, Command{Type: CmdSpawn, X: 100, Y: 100, Element: chem.Carbon}).IDs[0]

	if m := exec(t, srv, Command{Type: CmdDrag, X: 105, Y: 100}); m.Type != MsgResult || m.IDs[0] != id {
		t.Fatalf("drag = %+v", m)
	}
	exec(t, srv, Command{Type: CmdMove, X: 300, Y: 250})
	exec(t, srv, Command{Type: CmdDrop})
	if m := exec(t, srv, Command{Type: CmdPause}); m.Result != "paused" {
		t.Fatalf("pause = %+v", m)
	}

	var pos dynamo.Vec2
	srv.onLoop(context.Background(), func() {
		a, _ := srv.session.Engine().World().Atom(id)
		pos = a.Pos
	})
	if pos.X != 300 || pos.Y != 250 {
		t.Errorf("pos = %v, want (300, 250)", pos)
	}
	if m := exec(t, srv, Command{Type: CmdPause}); m.Result != "running" {
		t.Errorf("resume = %+v", m)
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", nil, "", true},
		{"same host", nil, "http://example.com", true},
		{"other host", nil, "http://evil.test", false},
		{"listed", []string{"http://app.test"}, "http://app.test", true},
		{"not listed", []string{"http://app.test"}, "http://example.com", false},
		{"wildcard", []string{"*"}, "http://anything.test", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Options{AllowedOrigins: tt.allowed})
			r := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := srv.checkOrigin(r); got != tt.want {
				t.Errorf("checkOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(Message) bool) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(m) {
			return m
		}
	}
}

func TestWebSocket_RoundTrip(t *testing.T) {
	srv := newTestServer(t, Options{FrameEvery: 1})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readUntil(t, conn, func(m Message) bool { return true })
	if first.Type != MsgFrame || first.Frame == nil {
		t.Fatalf("first message = %+v", first)
	}

	if err := conn.WriteJSON(Command{Type: CmdSpawn, Seq: 7, X: 50, Y: 50, Element: chem.Nitrogen}); err != nil {
		t.Fatal(err)
	}
	reply := readUntil(t, conn, func(m Message) bool { return m.Seq == 7 })
	if reply.Type != MsgResult || len(reply.IDs) != 1 {
		t.Fatalf("reply = %+v", reply)
	}

	frame := readUntil(t, conn, func(m Message) bool { return m.Type == MsgFrame && m.Frame != nil && len(m.Frame.Atoms) == 1 })
	if frame.Frame.Atoms[0].Symbol != "N" {
		t.Errorf("frame atom = %+v", frame.Frame.Atoms[0])
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	bad := readUntil(t, conn, func(m Message) bool { return m.Type == MsgError })
	if !strings.Contains(bad.Error, "bad command") {
		t.Errorf("error = %q", bad.Error)
	}
}

func TestHTTP_FrameAndHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	exec(t, srv, Command{Type: CmdSpawn, X: 50, Y: 50, Element: chem.Carbon})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: %v %v", resp, err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/frame")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var f sim.Frame
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatal(err)
	}
	if f.Width != 800 {
		t.Errorf("frame width = %g", f.Width)
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	h := NewHub(nil)
	if !h.Broadcast([]byte("x")) {
		t.Error("broadcast should queue while running")
	}
	h.Close()
	h.Close()
	if h.Broadcast([]byte("x")) {
		t.Error("broadcast after close should report false")
	}
}

func TestExec_TimedOutCommandNeverApplies(t *testing.T) {
	e := sim.New(nil, sim.Config{
		Bounds: physics.Bounds{Width: 800, Height: 600},
		Params: dynamo.DefaultParams(),
		Seed:   1,
	})
	srv := New(sim.NewSession(e, nil), Options{})
	defer srv.Hub().Close()

	// the scheduler is not running yet, so the spawn can only queue
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	m := srv.Exec(ctx, Command{Type: CmdSpawn, Seq: 7, X: 400, Y: 300, Element: chem.Carbon})
	cancel()
	if m.Type != MsgError || m.Seq != 7 {
		t.Fatalf("reply = %+v, want error for seq 7", m)
	}

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go srv.Scheduler().Run(runCtx)

	// commands run in order, so the spawn has been drained once this returns
	snap := exec(t, srv, Command{Type: CmdSnapshot})
	if snap.Type != MsgResult {
		t.Fatalf("snapshot = %+v", snap)
	}
	var got struct {
		Atoms []json.RawMessage `json:"atoms"`
	}
	if err := json.Unmarshal(snap.Data, &got); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(got.Atoms) != 0 {
		t.Errorf("atoms = %d after a spawn reported as failed, want 0", len(got.Atoms))
	}
}

func TestClient_SendAfterClose(t *testing.T) {
	c := newClient(nil)
	for i := 0; i < sendBuffer; i++ {
		if !c.trySend([]byte("x")) {
			t.Fatalf("send %d rejected before the queue was full", i)
		}
	}
	if c.trySend([]byte("x")) {
		t.Error("send to a full queue should be rejected")
	}

	c.close()
	c.close()
	c.reply([]byte("late"))
	if c.trySend([]byte("late")) {
		t.Error("send after close should be rejected")
	}
	n := 0
	for range c.send {
		n++
	}
	if n != sendBuffer {
		t.Errorf("drained %d messages, want %d", n, sendBuffer)
	}
}
