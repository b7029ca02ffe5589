package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/proto"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func mustMessage(t *testing.T, ch <-chan *proto.Message, kind proto.MessageType) *proto.Message {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case msg := <-ch:
			if msg == nil {
				continue
			}
			if msg.Type == kind {
				return msg
			}
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("expected message type %v not received", kind)
	return nil
}

func mustNoMessage(t *testing.T, ch <-chan *proto.Message) {
	t.Helper()

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
