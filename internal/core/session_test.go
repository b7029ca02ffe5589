package core

import (
	"context"
	"testing"
	"time"

	"github.com/minevox/minevox-server/internal/proto"
)

func startSession(t *testing.T, ctx context.Context, broker *Broker, world string) *Session {
	t.Helper()

	sess := NewSession(broker, SessionConfig{
		WorldName:      world,
		RenderRadius:   8,
		OutboundBuffer: 8,
	}, nil, testLogger())

	if sess.State() != StateConnecting {
		t.Fatalf("initial state = %v", sess.State())
	}
	if err := sess.Join(ctx); err != nil {
		t.Fatalf("join: %v", err)
	}
	if sess.State() != StateActive {
		t.Fatalf("state after join = %v", sess.State())
	}
	return sess
}

func encodeFrame(t *testing.T, msg proto.Message) []byte {
	t.Helper()
	return proto.Encode(&msg)
}

func TestSessionPeerFrameDrivesBroadcast(t *testing.T) {
	broker, ctx := startBroker(t)

	ada := startSession(t, ctx, broker, "alpha")
	observer := startSession(t, ctx, broker, "alpha")

	frame := encodeFrame(t, proto.Message{
		Type: proto.TypePeer,
		Peers: []proto.Peer{
			{Name: "Ada", PX: 1, PY: 2, PZ: 3, QW: 1},
		},
	})
	if err := ada.HandleFrame(frame); err != nil {
		t.Fatalf("handle frame: %v", err)
	}

	msg := mustMessage(t, observer.Outbound(), proto.TypePeer)
	snapshot := msg.Peers[0]
	if snapshot.Name != "Ada" || snapshot.PX != 1 || snapshot.PY != 2 || snapshot.PZ != 3 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if ada.DisplayName() != "Ada" {
		t.Fatalf("display name = %q", ada.DisplayName())
	}
	mustNoMessage(t, ada.Outbound())
}

func TestSessionDisplayNameLocksOnFirstPeerFrame(t *testing.T) {
	broker, ctx := startBroker(t)

	sess := startSession(t, ctx, broker, "alpha")
	observer := startSession(t, ctx, broker, "alpha")

	first := encodeFrame(t, proto.Message{
		Type:  proto.TypePeer,
		Peers: []proto.Peer{{Name: "Ada"}},
	})
	if err := sess.HandleFrame(first); err != nil {
		t.Fatalf("handle first frame: %v", err)
	}
	mustMessage(t, observer.Outbound(), proto.TypePeer)

	// A later frame with a different name must not rename the session.
	second := encodeFrame(t, proto.Message{
		Type:  proto.TypePeer,
		Peers: []proto.Peer{{Name: "Impostor", PX: 5}},
	})
	if err := sess.HandleFrame(second); err != nil {
		t.Fatalf("handle second frame: %v", err)
	}

	msg := mustMessage(t, observer.Outbound(), proto.TypePeer)
	if msg.Peers[0].Name != "Ada" {
		t.Fatalf("broadcast name = %q, want locked %q", msg.Peers[0].Name, "Ada")
	}
	if sess.DisplayName() != "Ada" {
		t.Fatalf("display name = %q", sess.DisplayName())
	}
}

func TestSessionChunkRequestUpdatesObservedChunk(t *testing.T) {
	broker, ctx := startBroker(t)

	sess := startSession(t, ctx, broker, "alpha")
	observer := startSession(t, ctx, broker, "alpha")

	frame := encodeFrame(t, proto.Message{
		Type: proto.TypeRequest,
		JSON: `{"x":4,"z":-2}`,
	})
	if err := sess.HandleFrame(frame); err != nil {
		t.Fatalf("handle frame: %v", err)
	}

	// The merge-then-broadcast path proves the chunk update reached the
	// broker; the snapshot itself has no name or position yet.
	mustMessage(t, observer.Outbound(), proto.TypePeer)
	if sess.chunk == nil || sess.chunk.X != 4 || sess.chunk.Z != -2 {
		t.Fatalf("observed chunk = %+v", sess.chunk)
	}
}

func TestSessionMalformedChunkRequestIsDropped(t *testing.T) {
	broker, ctx := startBroker(t)

	sess := startSession(t, ctx, broker, "alpha")
	observer := startSession(t, ctx, broker, "alpha")

	frame := encodeFrame(t, proto.Message{
		Type: proto.TypeRequest,
		JSON: `{"x":"bad"}`,
	})
	if err := sess.HandleFrame(frame); err != nil {
		t.Fatalf("payload error must not surface: %v", err)
	}
	if sess.State() != StateActive {
		t.Fatalf("state = %v, want active", sess.State())
	}
	if sess.chunk != nil {
		t.Fatalf("observed chunk changed: %+v", sess.chunk)
	}
	mustNoMessage(t, observer.Outbound())
}

func TestSessionMalformedFrameIsTransportError(t *testing.T) {
	broker, ctx := startBroker(t)

	sess := startSession(t, ctx, broker, "alpha")

	if err := sess.HandleFrame([]byte{0xff, 0xff}); err == nil {
		t.Fatal("expected decode error for malformed frame")
	}
}

func TestSessionReservedTagsAreAccepted(t *testing.T) {
	broker, ctx := startBroker(t)

	sess := startSession(t, ctx, broker, "alpha")
	observer := startSession(t, ctx, broker, "alpha")

	for _, kind := range []proto.MessageType{
		proto.TypeInit, proto.TypeConfig, proto.TypeUpdate, proto.TypeText,
	} {
		frame := encodeFrame(t, proto.Message{Type: kind})
		if err := sess.HandleFrame(frame); err != nil {
			t.Fatalf("reserved tag %v errored: %v", kind, err)
		}
	}
	mustNoMessage(t, observer.Outbound())
}

func TestSessionCloseIssuesLeave(t *testing.T) {
	broker, ctx := startBroker(t)

	sess := startSession(t, ctx, broker, "beta")
	sess.Close()
	if sess.State() != StateClosing {
		t.Fatalf("state = %v, want closing", sess.State())
	}
	// Close is safe to repeat.
	sess.Close()

	waitForWorlds(t, ctx, broker, nil)
}

func TestSessionJoinCanceledContext(t *testing.T) {
	broker := NewBroker(testLogger(), nil)
	// Broker deliberately not running: the join cannot complete.

	sess := NewSession(broker, SessionConfig{
		WorldName:      "alpha",
		OutboundBuffer: 1,
	}, nil, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := sess.Join(ctx); err == nil {
		t.Fatal("expected join to fail once the context expired")
	}
	if sess.State() != StateJoining {
		t.Fatalf("state = %v, want joining", sess.State())
	}
}
