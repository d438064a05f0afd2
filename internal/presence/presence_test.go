package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/quantumlife/viewerscope/internal/core"
	"github.com/quantumlife/viewerscope/internal/geo"
)

// fakeConn records everything written to it
type fakeConn struct {
	mu      sync.Mutex
	sent    [][]byte
	pings   int
	closes  int
	closed  bool
	sendErr error
}

func (f *fakeConn) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.closed = true
	return nil
}

func (f *fakeConn) Open() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

// received decodes every envelope sent to f
func (f *fakeConn) received(t *testing.T) []receivedEnvelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]receivedEnvelope, 0, len(f.sent))
	for _, raw := range f.sent {
		var env receivedEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		out = append(out, env)
	}
	return out
}

func (f *fakeConn) countType(t *testing.T, typ MessageType) int {
	t.Helper()
	n := 0
	for _, env := range f.received(t) {
		if env.Type == typ {
			n++
		}
	}
	return n
}

type receivedEnvelope struct {
	Type    MessageType `json:"type"`
	Payload struct {
		Self     *core.Viewer   `json:"self"`
		Visitors []*core.Viewer `json:"visitors"`
		Visitor  *core.Viewer   `json:"visitor"`
	} `json:"payload"`
}

func testService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(geo.NewChain(), nil, DefaultConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func connect(t *testing.T, svc *Service, ip string) (*fakeConn, *core.Viewer) {
	t.Helper()
	conn := &fakeConn{}
	v, err := svc.Connect(context.Background(), conn, ip, "test-agent")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return conn, v
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

func TestRegistry_RegisterAndList(t *testing.T) {
	r := NewRegistry()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}

	va := r.Register(a, "ua-a", nil)
	vb := r.Register(b, "ua-b", &core.LocationRecord{City: "Paris"})
	vc := r.Register(c, "ua-c", nil)

	if r.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", r.Count())
	}

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List() len = %d", len(list))
	}
	for i, want := range []string{va.ID, vb.ID, vc.ID} {
		if list[i].ID != want {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].ID, want)
		}
	}
	if list[1].Location == nil || list[1].Location.City != "Paris" {
		t.Errorf("location not kept: %+v", list[1].Location)
	}

	if got, ok := r.Get(vb.ID); !ok || got.UserAgent != "ua-b" {
		t.Errorf("Get() = %+v, %v", got, ok)
	}
}

func TestRegistry_UniqueIDs(t *testing.T) {
	r := NewRegistry()
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		v := r.Register(&fakeConn{}, "", nil)
		if seen[v.ID] {
			t.Fatalf("duplicate id %s", v.ID)
		}
		seen[v.ID] = true
	}
}

func TestRegistry_RemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	v := r.Register(conn, "", nil)

	removed := r.Remove(conn)
	if removed == nil || removed.ID != v.ID {
		t.Fatalf("Remove() = %+v, want %s", removed, v.ID)
	}
	if again := r.Remove(conn); again != nil {
		t.Errorf("second Remove() = %+v, want nil", again)
	}
	if r.Count() != 0 || r.Tracked(conn) {
		t.Error("handle still present after Remove")
	}
	if _, ok := r.Get(v.ID); ok {
		t.Error("id index not cleaned up")
	}
}

func TestRegistry_TrackedWithoutViewer(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	r.Track(conn)

	if !r.Tracked(conn) {
		t.Fatal("expected handle to be tracked")
	}
	if r.Count() != 0 || len(r.List()) != 0 {
		t.Error("pending handle should not count as a viewer")
	}
	if v := r.Remove(conn); v != nil {
		t.Errorf("Remove() of pending handle = %+v, want nil", v)
	}
	if r.Tracked(conn) {
		t.Error("pending handle still tracked")
	}
}

func TestRegistry_ListIsSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeConn{}, "original", nil)

	list := r.List()
	list[0].UserAgent = "mutated"

	if r.List()[0].UserAgent != "original" {
		t.Error("List() exposed internal state")
	}
}

func TestRegistry_Expire(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	r.Track(conn)

	if wasAlive, tracked := r.expire(conn); !wasAlive || !tracked {
		t.Errorf("first expire = %v, %v", wasAlive, tracked)
	}
	if wasAlive, _ := r.expire(conn); wasAlive {
		t.Error("second expire should report not alive")
	}
	r.MarkAlive(conn)
	if wasAlive, _ := r.expire(conn); !wasAlive {
		t.Error("MarkAlive should restore the flag")
	}
	if _, tracked := r.expire(&fakeConn{}); tracked {
		t.Error("unknown handle reported tracked")
	}
}

// -----------------------------------------------------------------------------
// Broadcast protocol
// -----------------------------------------------------------------------------

func TestBroadcastExcept(t *testing.T) {
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	closed := &fakeConn{closed: true}
	failing := &fakeConn{sendErr: errors.New("broken pipe")}

	n := broadcastExcept([]Conn{a, b, c, closed, failing}, joinedEnvelope(&core.Viewer{ID: "x"}), b)

	if n != 2 {
		t.Errorf("delivered = %d, want 2", n)
	}
	if len(a.sent) != 1 || len(c.sent) != 1 {
		t.Errorf("open peers got %d/%d messages, want 1/1", len(a.sent), len(c.sent))
	}
	if len(b.sent) != 0 {
		t.Error("excluded handle received the broadcast")
	}
	if len(closed.sent) != 0 {
		t.Error("closed handle received the broadcast")
	}
}

func TestSend_ClosedIsNoop(t *testing.T) {
	conn := &fakeConn{closed: true}
	send(conn, joinedEnvelope(&core.Viewer{ID: "x"}))
	send(nil, joinedEnvelope(&core.Viewer{ID: "x"}))

	if len(conn.sent) != 0 {
		t.Error("send wrote to a closed handle")
	}
}

func TestEnvelopeWireFormat(t *testing.T) {
	data, err := json.Marshal(leftEnvelope(&core.Viewer{ID: "abc"}))
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["type"]) != `"visitor_left"` {
		t.Errorf("type = %s", raw["type"])
	}

	var payload map[string]map[string]interface{}
	if err := json.Unmarshal(raw["payload"], &payload); err != nil {
		t.Fatal(err)
	}
	if payload["visitor"]["id"] != "abc" {
		t.Errorf("payload = %s", raw["payload"])
	}
	if _, ok := payload["visitor"]["location"]; !ok {
		t.Error("null location should still be present")
	}
}

func TestParseInbound(t *testing.T) {
	tests := []struct {
		in     string
		want   MessageType
		wantOK bool
	}{
		{`{"type":"heartbeat"}`, TypeHeartbeat, true},
		{`{"type":"other"}`, "other", true},
		{`{}`, "", false},
		{`not json`, "", false},
	}
	for _, tt := range tests {
		got, ok := parseInbound([]byte(tt.in))
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parseInbound(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

func TestService_ConnectSendsWelcomeAndBroadcasts(t *testing.T) {
	svc := testService(t)

	first, v1 := connect(t, svc, "10.0.0.1")
	second, v2 := connect(t, svc, "10.0.0.2")

	msgs := second.received(t)
	if len(msgs) != 1 || msgs[0].Type != TypeWelcome {
		t.Fatalf("second got %+v, want one welcome", msgs)
	}
	if msgs[0].Payload.Self.ID != v2.ID {
		t.Errorf("welcome self = %s, want %s", msgs[0].Payload.Self.ID, v2.ID)
	}
	if len(msgs[0].Payload.Visitors) != 2 {
		t.Errorf("welcome roster len = %d, want 2", len(msgs[0].Payload.Visitors))
	}
	if loc := msgs[0].Payload.Self.Location; loc == nil || loc.CountryCode != "LO" {
		t.Errorf("private ip should get placeholder location, got %+v", loc)
	}

	firstMsgs := first.received(t)
	if len(firstMsgs) != 2 || firstMsgs[1].Type != TypeVisitorJoined {
		t.Fatalf("first got %+v, want welcome + visitor_joined", firstMsgs)
	}
	if firstMsgs[1].Payload.Visitor.ID != v2.ID {
		t.Errorf("joined visitor = %s, want %s", firstMsgs[1].Payload.Visitor.ID, v2.ID)
	}
	if first.countType(t, TypeVisitorJoined) != 1 || second.countType(t, TypeVisitorJoined) != 0 {
		t.Error("joiner must not receive its own join event")
	}
	_ = v1
}

func TestService_NilLocation(t *testing.T) {
	svc, err := NewService(geo.ResolverFunc(func(ctx context.Context, ip string) *core.LocationRecord {
		return nil
	}), nil, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	conn := &fakeConn{}
	v, err := svc.Connect(context.Background(), conn, "203.0.113.1", "")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if v.Location != nil {
		t.Errorf("Location = %+v, want nil", v.Location)
	}
	if svc.Count() != 1 {
		t.Errorf("Count() = %d", svc.Count())
	}
}

func TestService_DisconnectIdempotent(t *testing.T) {
	svc := testService(t)
	observer, _ := connect(t, svc, "10.0.0.1")
	leaver, _ := connect(t, svc, "10.0.0.2")

	svc.Disconnect(leaver)
	svc.Disconnect(leaver)

	if got := observer.countType(t, TypeVisitorLeft); got != 1 {
		t.Errorf("visitor_left count = %d, want 1", got)
	}
	if svc.Count() != 1 {
		t.Errorf("Count() = %d, want 1", svc.Count())
	}
	if leaver.Open() {
		t.Error("disconnected handle left open")
	}
}

func TestService_CountTracksConnectsAndDisconnects(t *testing.T) {
	svc := testService(t)

	var conns []*fakeConn
	for i := 0; i < 10; i++ {
		c, _ := connect(t, svc, "127.0.0.1")
		conns = append(conns, c)
	}
	for i := 0; i < 4; i++ {
		svc.Disconnect(conns[i])
	}

	if svc.Count() != 6 || len(svc.Visitors()) != 6 {
		t.Errorf("Count() = %d, want 6", svc.Count())
	}
}

func TestService_ConcurrentConnects(t *testing.T) {
	svc := testService(t)

	var wg sync.WaitGroup
	conns := make([]*fakeConn, 50)
	for i := range conns {
		conns[i] = &fakeConn{}
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			svc.Connect(context.Background(), c, "192.168.1.1", "")
		}(conns[i])
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(c *fakeConn) {
			defer wg.Done()
			svc.Disconnect(c)
		}(conns[i])
	}
	wg.Wait()

	if svc.Count() != 30 {
		t.Errorf("Count() = %d, want 30", svc.Count())
	}
}

func TestService_DisconnectDuringResolution(t *testing.T) {
	var svc *Service
	conn := &fakeConn{}
	observer := &fakeConn{}

	resolver := geo.ResolverFunc(func(ctx context.Context, ip string) *core.LocationRecord {
		if ip == "203.0.113.50" {
			svc.Disconnect(conn)
		}
		return &core.LocationRecord{City: "Somewhere"}
	})
	svc, err := NewService(resolver, nil, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()

	if _, err := svc.Connect(context.Background(), observer, "203.0.113.1", ""); err != nil {
		t.Fatal(err)
	}

	v, err := svc.Connect(context.Background(), conn, "203.0.113.50", "")
	if !errors.Is(err, ErrConnectionClosed) || v != nil {
		t.Fatalf("Connect() = %+v, %v, want ErrConnectionClosed", v, err)
	}
	if svc.Count() != 1 {
		t.Errorf("Count() = %d, want 1", svc.Count())
	}
	if observer.countType(t, TypeVisitorJoined) != 0 || observer.countType(t, TypeVisitorLeft) != 0 {
		t.Error("discarded handshake should not be announced")
	}
}

func TestService_Close(t *testing.T) {
	svc, err := NewService(geo.NewChain(), nil, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	a, _ := connect(t, svc, "10.0.0.1")
	b, _ := connect(t, svc, "10.0.0.2")

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if a.Open() || b.Open() {
		t.Error("handles not released on Close")
	}
	if svc.Count() != 0 {
		t.Errorf("Count() = %d after Close", svc.Count())
	}
	if _, err := svc.Connect(context.Background(), &fakeConn{}, "10.0.0.3", ""); !errors.Is(err, core.ErrServiceClosed) {
		t.Errorf("Connect() after Close error = %v", err)
	}
	if res := svc.Monitor().Sweep(context.Background()); res.Pinged != 0 || res.Evicted != 0 {
		t.Errorf("Sweep() after Close = %+v", res)
	}
}

// -----------------------------------------------------------------------------
// Liveness
// -----------------------------------------------------------------------------

func TestMonitor_EvictsAfterTwoMissedSweeps(t *testing.T) {
	svc := testService(t)
	mon := svc.Monitor()
	responsive, _ := connect(t, svc, "10.0.0.1")
	silent, _ := connect(t, svc, "10.0.0.2")

	res := mon.Sweep(context.Background())
	if res.Pinged != 2 || res.Evicted != 0 {
		t.Fatalf("first sweep = %+v, want 2 pinged", res)
	}

	svc.Heartbeat(responsive)

	res = mon.Sweep(context.Background())
	if res.Evicted != 1 || res.Pinged != 1 {
		t.Fatalf("second sweep = %+v, want 1 evicted 1 pinged", res)
	}
	if silent.Open() {
		t.Error("silent handle not closed")
	}
	if got := responsive.countType(t, TypeVisitorLeft); got != 1 {
		t.Errorf("visitor_left count = %d, want 1", got)
	}
	if svc.Count() != 1 {
		t.Errorf("Count() = %d, want 1", svc.Count())
	}

	// Explicit close after eviction must not announce again
	svc.Disconnect(silent)
	if got := responsive.countType(t, TypeVisitorLeft); got != 1 {
		t.Errorf("visitor_left count after Disconnect = %d, want 1", got)
	}
	if responsive.pings != 2 {
		t.Errorf("responsive pings = %d, want 2", responsive.pings)
	}
}

func TestMonitor_PendingHandleEvictedSilently(t *testing.T) {
	svc := testService(t)
	observer, _ := connect(t, svc, "10.0.0.1")
	pending := &fakeConn{}
	if err := svc.Track(pending); err != nil {
		t.Fatal(err)
	}

	svc.Monitor().Sweep(context.Background())
	svc.Heartbeat(observer)
	res := svc.Monitor().Sweep(context.Background())

	if res.Evicted != 1 || pending.Open() {
		t.Errorf("pending handle not evicted: %+v", res)
	}
	if observer.countType(t, TypeVisitorLeft) != 0 {
		t.Error("handle without a viewer should not produce visitor_left")
	}
}

func TestMonitor_EvictedPeerSkippedInSameSweep(t *testing.T) {
	svc := testService(t)
	a, _ := connect(t, svc, "10.0.0.1")
	b, _ := connect(t, svc, "10.0.0.2")

	svc.Monitor().Sweep(context.Background())
	res := svc.Monitor().Sweep(context.Background())

	if res.Evicted != 2 || res.Pinged != 0 {
		t.Errorf("sweep = %+v, want both evicted", res)
	}
	// Whichever went first was announced to the other at most once
	total := a.countType(t, TypeVisitorLeft) + b.countType(t, TypeVisitorLeft)
	if total > 1 {
		t.Errorf("visitor_left deliveries = %d, want at most 1", total)
	}
}
