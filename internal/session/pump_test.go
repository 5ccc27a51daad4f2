package session

import (
	"context"
	"testing"
	"time"

	"github.com/openoption/blitzws/internal/dispatch"
	"github.com/openoption/blitzws/internal/protocol"
	"github.com/openoption/blitzws/internal/transport"
)

func TestRunPump_DispatchesFrames(t *testing.T) {
	d := dispatch.NewDispatcher(nil)
	frames := make(chan transport.RawMessage, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunPump(ctx, frames, d, nil)

	pending := d.CreatePending("req-1")
	frames <- transport.RawMessage{Data: []byte(`{"name":"result","request_id":"req-1","msg":{}}`), ReceivedAt: time.Now()}

	select {
	case msg := <-pending:
		if msg.Name != "result" {
			t.Errorf("Name = %q, want result", msg.Name)
		}
	case <-time.After(time.Second):
		t.Fatal("frame never reached the dispatcher")
	}
}

func TestRunPump_DropsMalformedFrames(t *testing.T) {
	d := dispatch.NewDispatcher(nil)
	frames := make(chan transport.RawMessage, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go RunPump(ctx, frames, d, nil)

	got := make(chan *protocol.Message, 1)
	d.Subscribe("after", func(msg *protocol.Message) {
		select {
		case got <- msg:
		default:
		}
	})

	// Garbage first; the pump must survive it and keep dispatching.
	frames <- transport.RawMessage{Data: []byte(`not json`), ReceivedAt: time.Now()}
	frames <- transport.RawMessage{Data: []byte(`{"msg":"no name"}`), ReceivedAt: time.Now()}
	frames <- transport.RawMessage{Data: []byte(`{"name":"after","msg":{}}`), ReceivedAt: time.Now()}

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("pump died on a malformed frame")
	}
}

func TestRunPump_StopsOnChannelClose(t *testing.T) {
	d := dispatch.NewDispatcher(nil)
	frames := make(chan transport.RawMessage)

	done := make(chan struct{})
	go func() {
		RunPump(context.Background(), frames, d, nil)
		close(done)
	}()

	close(frames)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop when the frame channel closed")
	}
}
