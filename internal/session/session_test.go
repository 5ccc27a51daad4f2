package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/openoption/blitzws/internal/dispatch"
	"github.com/openoption/blitzws/internal/protocol"
)

// fakeConn records sent requests and lets tests script the server side.
type fakeConn struct {
	mu        sync.Mutex
	sent      []protocol.Request
	onSend    func(protocol.Request)
	sendErr   error
	connected bool
}

func (f *fakeConn) Send(v any) error {
	req, ok := v.(protocol.Request)
	if !ok {
		return errors.New("unexpected frame type")
	}

	f.mu.Lock()
	f.sent = append(f.sent, req)
	cb := f.onSend
	err := f.sendErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if cb != nil {
		cb(req)
	}
	return nil
}

func (f *fakeConn) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeConn) sentRequests() []protocol.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Request, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeConn) countOp(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.sent {
		if req.Name == name {
			n++
		}
	}
	return n
}

func testSession(t *testing.T, conn *fakeConn) (*Session, *dispatch.Dispatcher) {
	t.Helper()
	d := dispatch.NewDispatcher(nil)
	cfg := Config{
		SSID:           "test-ssid",
		AuthTimeout:    time.Second,
		RequestTimeout: 200 * time.Millisecond,
		RequestRetries: 3,
		RetryBackoff:   10 * time.Millisecond,
	}
	return New(conn, d, cfg, nil), d
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestAuthenticate_CorrelatedResponse(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)

	conn.onSend = func(req protocol.Request) {
		if req.Name == protocol.OpAuthenticate {
			d.Dispatch(&protocol.Message{
				Name:      "result",
				RequestID: protocol.FlexID(req.RequestID),
				Msg:       json.RawMessage(`true`),
			})
		}
	}

	if err := sess.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !sess.Authenticated() {
		t.Error("session should report authenticated")
	}

	sent := conn.sentRequests()
	if len(sent) != 1 || sent[0].Name != protocol.OpAuthenticate {
		t.Fatalf("sent = %v, want one authenticate request", sent)
	}
}

func TestAuthenticate_PushEvent(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)

	// The server answers with an uncorrelated authenticated push.
	conn.onSend = func(req protocol.Request) {
		if req.Name == protocol.OpAuthenticate {
			go d.Dispatch(&protocol.Message{
				Name: protocol.EvAuthenticated,
				Msg:  json.RawMessage(`true`),
			})
		}
	}

	if err := sess.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !sess.Authenticated() {
		t.Error("session should report authenticated")
	}
}

func TestAuthenticate_Rejected(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)

	conn.onSend = func(req protocol.Request) {
		if req.Name == protocol.OpAuthenticate {
			d.Dispatch(&protocol.Message{
				Name:      "result",
				RequestID: protocol.FlexID(req.RequestID),
				Msg:       json.RawMessage(`"unauthenticated"`),
			})
		}
	}

	err := sess.Authenticate(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if sess.Authenticated() {
		t.Error("session must not report authenticated after rejection")
	}
}

func TestAuthenticate_Timeout(t *testing.T) {
	conn := &fakeConn{connected: true}
	d := dispatch.NewDispatcher(nil)
	sess := New(conn, d, Config{SSID: "s", AuthTimeout: 50 * time.Millisecond}, nil)

	err := sess.Authenticate(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if authErr.Reason != "timeout" {
		t.Errorf("Reason = %q, want timeout", authErr.Reason)
	}
	if d.PendingCount() != 0 {
		t.Errorf("PendingCount = %d after timeout, want 0", d.PendingCount())
	}
}

func TestSendWithRetry_Success(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)

	conn.onSend = func(req protocol.Request) {
		d.Dispatch(&protocol.Message{
			Name:      "result",
			RequestID: protocol.FlexID(req.RequestID),
			Msg:       json.RawMessage(`{"ok":true}`),
		})
	}

	res, err := sess.SendWithRetry(context.Background(), "some-op", "1.0", map[string]any{}, time.Second, 3)
	if err != nil {
		t.Fatalf("SendWithRetry failed: %v", err)
	}
	if string(res.Msg) != `{"ok":true}` {
		t.Errorf("Msg = %s", res.Msg)
	}
	if len(conn.sentRequests()) != 1 {
		t.Errorf("sent %d requests, want 1", len(conn.sentRequests()))
	}
}

func TestSendWithRetry_TimeoutExhaustsAttempts(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)

	// Server never answers.
	_, err := sess.SendWithRetry(context.Background(), "some-op", "1.0", map[string]any{}, 20*time.Millisecond, 3)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("err = %v, want *TimeoutError", err)
	}
	if timeoutErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", timeoutErr.Attempts)
	}

	sent := conn.sentRequests()
	if len(sent) != 3 {
		t.Fatalf("sent %d requests, want 3", len(sent))
	}

	// Every attempt carries a fresh correlation id.
	ids := make(map[string]struct{})
	for _, req := range sent {
		ids[req.RequestID] = struct{}{}
	}
	if len(ids) != 3 {
		t.Errorf("got %d distinct request ids, want 3", len(ids))
	}

	if d.PendingCount() != 0 {
		t.Errorf("PendingCount = %d after exhaustion, want 0", d.PendingCount())
	}
}

func TestSendWithRetry_LateResponseDoesNotLeak(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)

	var mu sync.Mutex
	var staleID string
	conn.onSend = func(req protocol.Request) {
		mu.Lock()
		if staleID == "" {
			staleID = req.RequestID
		}
		mu.Unlock()
	}

	_, err := sess.SendWithRetry(context.Background(), "some-op", "1.0", map[string]any{}, 20*time.Millisecond, 2)
	if err == nil {
		t.Fatal("expected timeout error")
	}

	// A response for the first, long-cancelled attempt goes nowhere.
	mu.Lock()
	id := staleID
	mu.Unlock()
	d.Dispatch(&protocol.Message{Name: "result", RequestID: protocol.FlexID(id)})

	if d.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", d.PendingCount())
	}
}

func TestSendWithRetry_SendFailure(t *testing.T) {
	conn := &fakeConn{connected: false, sendErr: errors.New("socket down")}
	sess, d := testSession(t, conn)

	_, err := sess.SendWithRetry(context.Background(), "some-op", "1.0", map[string]any{}, time.Second, 2)
	if err == nil {
		t.Fatal("expected error when every send fails")
	}
	if len(conn.sentRequests()) != 2 {
		t.Errorf("attempted %d sends, want 2", len(conn.sentRequests()))
	}
	if d.PendingCount() != 0 {
		t.Errorf("PendingCount = %d, want 0", d.PendingCount())
	}
}

func TestListeners_InitializationData(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)
	sess.registerListeners()
	defer sess.Close()

	payload := `{
		"binary": {"actives": {"76": {"enabled": true, "is_suspended": false, "profit_commission": 13}}},
		"turbo": {"actives": {"76": {"enabled": true, "is_suspended": false}}}
	}`
	d.Dispatch(&protocol.Message{
		Name: protocol.EvInitializationData,
		Msg:  json.RawMessage(payload),
	})

	waitFor(t, func() bool { return sess.Catalog().Size() == 2 }, "catalog never populated")

	rec, ok := sess.LookupAsset("76")
	if !ok {
		t.Fatal("LookupAsset failed")
	}
	if rec.Category != protocol.CategoryTurbo {
		t.Errorf("category = %q, want turbo (priority over binary)", rec.Category)
	}
	if !sess.IsAssetOpen("76") {
		t.Error("asset should be open")
	}
}

func TestListeners_UnderlyingListChanged(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)
	sess.registerListeners()
	defer sess.Close()

	payload := `{
		"name": "blitz-option-instruments.underlying-list-changed",
		"underlying": [
			{"active_id": 76, "name": "EURUSD-OTC", "enabled": true, "is_suspended": false},
			{"active_id": 1, "name": "EURUSD", "enabled": true, "is_suspended": true}
		]
	}`
	d.Dispatch(&protocol.Message{
		Name: protocol.EvUnderlyingListChanged,
		Msg:  json.RawMessage(payload),
	})

	waitFor(t, func() bool {
		_, ok := sess.Catalog().Get(protocol.CategoryBlitz, "76")
		return ok
	}, "blitz category never updated")

	if !sess.IsAssetOpen("76") {
		t.Error("asset 76 should be open")
	}
	if sess.IsAssetOpen("1") {
		t.Error("asset 1 is suspended, should not be open")
	}
}

func TestListeners_ProfileFeaturesSettings(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)
	sess.registerListeners()
	defer sess.Close()

	d.Dispatch(&protocol.Message{
		Name: protocol.EvProfile,
		Msg:  json.RawMessage(`{"user_id": 42, "email": "trader@example.com"}`),
	})
	d.Dispatch(&protocol.Message{
		Name: protocol.EvFeatures,
		Msg:  json.RawMessage(`{"features": [{"name": "blitz", "status": "enabled"}]}`),
	})
	d.Dispatch(&protocol.Message{
		Name: protocol.EvUserSettings,
		Msg:  json.RawMessage(`{"configs": [{"name": "traderoom_gl_grid", "config": {"version": 2}}]}`),
	})

	waitFor(t, func() bool { return sess.Profile().UserID == 42 }, "profile never applied")

	waitFor(t, func() bool {
		status, ok := sess.Feature("blitz")
		return ok && status == "enabled"
	}, "feature flag never applied")

	waitFor(t, func() bool {
		_, ok := sess.Setting("traderoom_gl_grid")
		return ok
	}, "user setting never applied")
}

func TestGetBalances(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, d := testSession(t, conn)

	conn.onSend = func(req protocol.Request) {
		d.Dispatch(&protocol.Message{
			Name:      "result",
			RequestID: protocol.FlexID(req.RequestID),
			Msg:       json.RawMessage(`[{"id": 10, "type": 1, "amount": "250.5", "currency": "USD"}, {"id": 11, "type": 4, "amount": "10000", "currency": "USD"}]`),
		})
	}

	balances, err := sess.GetBalances(context.Background())
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("got %d balances, want 2", len(balances))
	}
	if balances[0].IsPractice() {
		t.Error("balance 0 should be real")
	}
	if !balances[1].IsPractice() {
		t.Error("balance 1 should be practice")
	}

	sess.SelectBalance(balances[1].ID)
	if sess.ActiveBalance() != 11 {
		t.Errorf("ActiveBalance = %d, want 11", sess.ActiveBalance())
	}
}

func TestSubscribePortfolio(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, _ := testSession(t, conn)

	if err := sess.SubscribePortfolio(); err != nil {
		t.Fatalf("SubscribePortfolio failed: %v", err)
	}

	sent := conn.sentRequests()
	if len(sent) != 2 {
		t.Fatalf("sent %d requests, want 2", len(sent))
	}
	channels := make([]string, 0, 2)
	for _, req := range sent {
		if req.Name != protocol.NameSubscribeMessage {
			t.Errorf("envelope = %q, want subscribeMessage", req.Name)
		}
		body, ok := req.Msg.(protocol.SubscribeBody)
		if !ok {
			t.Fatalf("payload = %T, want SubscribeBody", req.Msg)
		}
		channels = append(channels, body.Name)
	}
	if channels[0] != protocol.ChannelOrderChanged || channels[1] != protocol.ChannelPositionChanged {
		t.Errorf("channels = %v, want order-changed then position-changed", channels)
	}
}

func TestSubscribeInstruments(t *testing.T) {
	conn := &fakeConn{connected: true}
	sess, _ := testSession(t, conn)

	if err := sess.SubscribeInstruments(); err != nil {
		t.Fatalf("SubscribeInstruments failed: %v", err)
	}
	if got := len(conn.sentRequests()); got != 4 {
		t.Errorf("sent %d requests, want 4 category channels", got)
	}
}

func TestCategoryFromEventName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"blitz-option-instruments.underlying-list-changed", protocol.CategoryBlitz},
		{"turbo-option-instruments.underlying-list-changed", protocol.CategoryTurbo},
		{"binary-option-instruments.underlying-list-changed", protocol.CategoryBinary},
		{"digital-option-instruments.underlying-list-changed", protocol.CategoryDigital},
		{"something-else", "unknown"},
	}

	for _, tt := range tests {
		if got := categoryFromEventName(tt.name); got != tt.want {
			t.Errorf("categoryFromEventName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
