package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nightcrew/lastshift/internal/domain/player"
	"github.com/nightcrew/lastshift/internal/engine"
	"github.com/nightcrew/lastshift/internal/events"
	"github.com/nightcrew/lastshift/internal/infra/storage"
	"github.com/nightcrew/lastshift/internal/platform/logger"
)

type fakeRuntime struct {
	mu     sync.Mutex
	cmds   []engine.Command
	inputs []player.ActionState
	full   bool
}

func (f *fakeRuntime) SetInput(a player.ActionState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, a)
}

func (f *fakeRuntime) Submit(cmd engine.Command) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.cmds = append(f.cmds, cmd)
	return true
}

func (f *fakeRuntime) Snapshot() engine.Snapshot {
	return engine.Snapshot{SessionID: "fake", Frame: 42, Clock: 23.5}
}

func (f *fakeRuntime) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cmds), len(f.inputs)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestServer(t *testing.T, rt *fakeRuntime, el *events.EventLog, rec *storage.Reconstructor, shifts storage.ShiftRepository) (*httptest.Server, *Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := logger.Nop()
	hub := NewHub(log, nil)
	go hub.Run(ctx)

	if el == nil {
		el = events.NewEventLog(nil)
	}
	router := NewRouter(RouterDeps{
		Hub:     hub,
		Runtime: rt,
		Replay:  NewReplayHandler(el, rec, shifts, log),
		Manager: NewManagerBridge(rt, hub, log, time.Minute),
		Client:  ClientOptions{SendBuffer: 8, MaxMessagesPerSecond: 100},
		Logger:  log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestDecodeClientMessage(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{"input", `{"type":"input","input":{"up":true}}`, true},
		{"command", `{"type":"command","command":{"kind":"use_tool"}}`, true},
		{"announce with text", `{"type":"command","command":{"kind":"announce","text":"clean up aisle 4"}}`, true},
		{"unknown command", `{"type":"command","command":{"kind":"dance"}}`, false},
		{"missing input", `{"type":"input"}`, false},
		{"missing command", `{"type":"command"}`, false},
		{"unknown type", `{"type":"hello"}`, false},
		{"garbage", `{not json`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeClientMessage([]byte(tc.in))
			if (err == nil) != tc.ok {
				t.Errorf("DecodeClientMessage(%s) err = %v, want ok=%v", tc.in, err, tc.ok)
			}
		})
	}
}

func TestClientRateLimit(t *testing.T) {
	c := &Client{opts: ClientOptions{MaxMessagesPerSecond: 2}}
	now := time.Now()
	if !c.allow(now) || !c.allow(now) {
		t.Fatal("first two messages should pass")
	}
	if c.allow(now.Add(500 * time.Millisecond)) {
		t.Error("third message in the same second should be refused")
	}
	if !c.allow(now.Add(1100 * time.Millisecond)) {
		t.Error("a new window should reset the count")
	}

	unlimited := &Client{}
	for i := 0; i < 1000; i++ {
		if !unlimited.allow(now) {
			t.Fatal("zero limit means unlimited")
		}
	}
}

func TestWebsocketRoundTrip(t *testing.T) {
	rt := &fakeRuntime{}
	srv, hub := newTestServer(t, rt, nil, nil, nil)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 })

	hub.BroadcastSnapshot(rt.Snapshot())
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    string          `json:"type"`
		Payload engine.Snapshot `json:"payload"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if msg.Type != MsgTypeSnapshot || msg.Payload.Frame != 42 {
		t.Errorf("unexpected broadcast: %+v", msg)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"command","command":{"kind":"barricade"}}`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"input","input":{"left":true,"run":true}}`))
	waitFor(t, "command and input", func() bool {
		c, i := rt.counts()
		return c == 1 && i == 1
	})
	if rt.cmds[0].Kind != engine.CmdBarricade || !rt.inputs[0].Left || !rt.inputs[0].Run {
		t.Errorf("decoded wrong: %+v %+v", rt.cmds, rt.inputs)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"command","command":{"kind":"dance"}}`))
	var reply Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if reply.Type != MsgTypeError {
		t.Errorf("invalid command should get an error reply, got %+v", reply)
	}

	conn.Close()
	waitFor(t, "client removal", func() bool { return hub.ClientCount() == 0 })
}

func TestWebsocketClientLimit(t *testing.T) {
	rt := &fakeRuntime{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(logger.Nop(), nil)
	go hub.Run(ctx)
	srv := httptest.NewServer(NewRouter(RouterDeps{Hub: hub, Runtime: rt, MaxClients: 1}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer first.Close()
	waitFor(t, "first client", func() bool { return hub.ClientCount() == 1 })

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second renderer should be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", resp)
	}
}

func TestCommandHandler(t *testing.T) {
	rt := &fakeRuntime{}
	srv, _ := newTestServer(t, rt, nil, nil, nil)

	post := func(body string) int {
		resp, err := http.Post(srv.URL+"/api/shift/command", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post(`{"kind":"complete_directive","index":1}`); code != http.StatusAccepted {
		t.Errorf("valid command: status %d", code)
	}
	if rt.cmds[0].Kind != engine.CmdCompleteDirective || rt.cmds[0].Index != 1 {
		t.Errorf("command not forwarded: %+v", rt.cmds)
	}
	if code := post(`{"kind":"dance"}`); code != http.StatusBadRequest {
		t.Errorf("unknown command: status %d", code)
	}
	if code := post(`nope`); code != http.StatusBadRequest {
		t.Errorf("bad body: status %d", code)
	}
	rt.full = true
	if code := post(`{"kind":"use_tool"}`); code != http.StatusServiceUnavailable {
		t.Errorf("full queue: status %d", code)
	}

	resp, err := http.Get(srv.URL + "/api/shift/command")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET on command: status %d", resp.StatusCode)
	}
}

func TestAnnounceCooldown(t *testing.T) {
	rt := &fakeRuntime{}
	hub := NewHub(logger.Nop(), nil)
	mb := NewManagerBridge(rt, hub, logger.Nop(), 10*time.Second)
	now := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	mb.now = func() time.Time { return now }

	announce := func(body string) int {
		w := httptest.NewRecorder()
		mb.HandleAnnounce(w, httptest.NewRequest(http.MethodPost, "/api/manager/announce", strings.NewReader(body)))
		return w.Code
	}

	if code := announce(`{"text":"Price check on aisle 6.","manager":"dana"}`); code != http.StatusAccepted {
		t.Fatalf("first announcement: status %d", code)
	}
	if rt.cmds[0].Kind != engine.CmdAnnounce || rt.cmds[0].Text != "Price check on aisle 6." {
		t.Errorf("announce not queued: %+v", rt.cmds)
	}
	if code := announce(`{"text":"again"}`); code != http.StatusTooManyRequests {
		t.Errorf("cooldown not enforced: status %d", code)
	}
	now = now.Add(11 * time.Second)
	if code := announce(`{"text":"` + strings.Repeat("a", MaxAnnouncementLength+1) + `"}`); code != http.StatusBadRequest {
		t.Errorf("long text: status %d", code)
	}
	if code := announce(`{}`); code != http.StatusAccepted {
		t.Errorf("empty text picks a stock line: status %d", code)
	}
}

func TestReplayEndpoints(t *testing.T) {
	db, err := storage.InitSQLite(storage.MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	repo := storage.NewSQLiteJournalRepository(db)
	el := events.NewEventLog(storage.NewJournal(repo, nil))

	el.Append(events.GameEvent{SessionID: "s1", Type: events.EventTypeShiftStarted, ActorID: events.ActorSystem, Night: 1, ClockTime: 22})
	used := el.Append(events.GameEvent{SessionID: "s1", Type: events.EventTypeToolUsed, ActorID: events.ActorPlayer, ClockTime: 23,
		Payload: map[string]interface{}{"tool": "airhorn", "message": "HOOOONK!"}})
	el.Append(events.GameEvent{SessionID: "s1", Type: events.EventTypeWindowBreaking, ActorID: "tapper-2", ClockTime: 1})
	el.Close()

	srv, _ := newTestServer(t, &fakeRuntime{}, el, storage.NewReconstructor(repo), storage.NewSQLiteShiftRepository(db))

	get := func(path string, out interface{}) int {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		defer resp.Body.Close()
		if out != nil && resp.StatusCode == http.StatusOK {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				t.Fatalf("decode %s: %v", path, err)
			}
		}
		return resp.StatusCode
	}

	var all ReplayResponse
	get("/api/replay", &all)
	if all.TotalEvents != 3 || all.SessionID != "s1" {
		t.Errorf("full replay wrong: %+v", all)
	}

	var byActor ReplayResponse
	get("/api/replay?actor=player", &byActor)
	if byActor.TotalEvents != 1 || byActor.Events[0].Details["tool"] != "airhorn" {
		t.Errorf("actor filter wrong: %+v", byActor)
	}

	var tail ReplayResponse
	get("/api/replay?since=2&type=WINDOW_BREAKING", &tail)
	if tail.TotalEvents != 1 || tail.Events[0].Clock != "01:00" {
		t.Errorf("since filter wrong: %+v", tail)
	}
	if code := get("/api/replay?since=-1", nil); code != http.StatusBadRequest {
		t.Errorf("negative since: status %d", code)
	}

	var detail ReplayEvent
	if code := get("/api/replay/events/"+used.ID, &detail); code != http.StatusOK || detail.Type != "TOOL_USED" {
		t.Errorf("event detail: %d %+v", code, detail)
	}
	if code := get("/api/replay/events/nope", nil); code != http.StatusNotFound {
		t.Errorf("missing event: status %d", code)
	}

	var stats map[string]interface{}
	get("/api/replay/stats", &stats)
	if stats["total_events"] != float64(3) {
		t.Errorf("stats wrong: %+v", stats)
	}

	var rep storage.ShiftReport
	if code := get("/api/shifts/s1/report", &rep); code != http.StatusOK || rep.ToolsUsed["airhorn"] != 1 {
		t.Errorf("report: %d %+v", code, rep)
	}
	var tl []storage.RecapEvent
	if code := get("/api/shifts/s1/timeline", &tl); code != http.StatusOK || len(tl) == 0 {
		t.Errorf("timeline: %d %+v", code, tl)
	}
	if code := get("/api/shifts/unknown/report", nil); code != http.StatusNotFound {
		t.Errorf("unknown shift: status %d", code)
	}
	var list []storage.ShiftRecord
	if code := get("/api/shifts", &list); code != http.StatusOK || len(list) != 0 {
		t.Errorf("shift list: %d %+v", code, list)
	}

	var snap engine.Snapshot
	if code := get("/api/shift/snapshot", &snap); code != http.StatusOK || snap.Frame != 42 {
		t.Errorf("snapshot: %d %+v", code, snap)
	}
}

func TestReplayWithoutJournal(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRuntime{}, nil, nil, nil)
	for _, path := range []string{"/api/shifts", "/api/shifts/x/report", "/api/shifts/x/timeline"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s without journal: status %d", path, resp.StatusCode)
		}
	}
}

func TestStoppedHubDoesNotBlockClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger.Nop(), nil)
	go hub.Run(ctx)

	live := NewClient(hub, nil, &fakeRuntime{}, ClientOptions{})
	if !live.Register() {
		t.Fatalf("running hub refused a client")
	}
	waitFor(t, "registration", func() bool { return hub.ClientCount() == 1 })

	cancel()
	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("hub did not stop")
	}

	finished := make(chan bool, 1)
	go func() {
		live.leave()
		late := NewClient(hub, nil, &fakeRuntime{}, ClientOptions{})
		finished <- late.Register()
	}()
	select {
	case ok := <-finished:
		if ok {
			t.Errorf("stopped hub accepted a client")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("client blocked on a stopped hub")
	}
	if _, open := <-live.send; open {
		t.Errorf("shutdown should close the send channel of live clients")
	}
}
