package candles

import (
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/openoption/blitzws/internal/dispatch"
	"github.com/openoption/blitzws/internal/protocol"
	"github.com/openoption/blitzws/internal/session"
)

func TestStream_DeliversMatchingCandles(t *testing.T) {
	conn := &fakeConn{}
	d := dispatch.NewDispatcher(nil)
	conn.d = d
	sess := session.New(conn, d, session.Config{SSID: "s"}, nil)

	got := make(chan protocol.Candle, 10)
	stop, err := Stream(sess, 76, 60, func(c protocol.Candle) {
		got <- c
	}, nil)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	defer stop()

	// A candle for another asset is filtered out; ours is delivered.
	other, _ := json.Marshal(protocol.Candle{ID: 1, ActiveID: 99, Size: 60, Close: 2.0})
	d.Dispatch(&protocol.Message{Name: protocol.EvCandleGenerated, Msg: other})

	mine, _ := json.Marshal(protocol.Candle{ID: 2, ActiveID: 76, Size: 60, Close: 1.5})
	d.Dispatch(&protocol.Message{Name: protocol.EvCandleGenerated, Msg: mine})

	select {
	case c := <-got:
		if c.ActiveID != 76 {
			t.Errorf("ActiveID = %d, want 76", c.ActiveID)
		}
		if c.Close != 1.5 {
			t.Errorf("Close = %v, want 1.5", c.Close)
		}
	case <-time.After(time.Second):
		t.Fatal("candle never delivered")
	}

	select {
	case c := <-got:
		t.Errorf("unexpected extra candle: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStream_StopCancelsDelivery(t *testing.T) {
	conn := &fakeConn{}
	d := dispatch.NewDispatcher(nil)
	conn.d = d
	sess := session.New(conn, d, session.Config{SSID: "s"}, nil)

	got := make(chan protocol.Candle, 10)
	stop, err := Stream(sess, 76, 60, func(c protocol.Candle) {
		got <- c
	}, nil)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	stop()

	mine, _ := json.Marshal(protocol.Candle{ID: 2, ActiveID: 76, Size: 60})
	d.Dispatch(&protocol.Message{Name: protocol.EvCandleGenerated, Msg: mine})

	select {
	case c := <-got:
		t.Errorf("candle delivered after stop: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStream_SendsGridThenSubscription(t *testing.T) {
	conn := &fakeConn{}
	d := dispatch.NewDispatcher(nil)
	conn.d = d
	sess := session.New(conn, d, session.Config{SSID: "s"}, nil)

	stop, err := Stream(sess, 76, 60, func(protocol.Candle) {}, nil)
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	defer stop()

	conn.mu.Lock()
	sent := make([]protocol.Request, len(conn.raw))
	copy(sent, conn.raw)
	conn.mu.Unlock()

	if len(sent) != 2 {
		t.Fatalf("sent %d requests, want grid push then subscription", len(sent))
	}
	if body, ok := sent[0].Msg.(protocol.SendBody); !ok || body.Name != protocol.OpSetUserSettings {
		t.Errorf("first request = %+v, want set-user-settings", sent[0].Msg)
	}
	if body, ok := sent[1].Msg.(protocol.SubscribeBody); !ok || body.Name != protocol.EvCandleGenerated {
		t.Errorf("second request = %+v, want candle-generated subscription", sent[1].Msg)
	}
}
