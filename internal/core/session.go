package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/geometry"
	"github.com/minevox/minevox-server/internal/metrics"
	"github.com/minevox/minevox-server/internal/proto"
)

// SessionState tracks where a session is in its lifecycle.
type SessionState int

const (
	// StateConnecting is the initial state; no id assigned yet.
	StateConnecting SessionState = iota
	// StateJoining means the join handshake is in flight.
	StateJoining
	// StateActive means an id is assigned and frames are being dispatched.
	StateActive
	// StateClosing is terminal; the leave has been issued.
	StateClosing
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionConfig carries the connect-time parameters of one session.
type SessionConfig struct {
	WorldName string
	// NameHint is an optional display name supplied by the transport (for
	// example from an upstream token); the authoritative name still comes
	// from the client's first peer frame.
	NameHint     string
	RenderRadius int
	// OutboundBuffer sizes the broadcast channel; when it fills, the
	// broker drops copies rather than stalling.
	OutboundBuffer int
}

// Session is the server-side actor for one live client connection. The
// transport's read goroutine is the only caller of Join, HandleFrame and
// Close, so the fields need no locking; the broker reaches the session
// solely through its outbound channel.
type Session struct {
	broker  *Broker
	metrics *metrics.Metrics
	log     zerolog.Logger

	outbound chan *proto.Message

	state        SessionState
	id           uint64
	joined       bool
	worldName    string
	nameHint     string
	name         string
	nameLocked   bool
	renderRadius int

	position *geometry.Vec3[float32]
	rotation *geometry.Quaternion
	chunk    *geometry.Vec2[int32]
}

// NewSession builds a session in the Connecting state. Metrics may be nil.
func NewSession(broker *Broker, cfg SessionConfig, m *metrics.Metrics, logger *zerolog.Logger) *Session {
	return &Session{
		broker:       broker,
		metrics:      m,
		log:          logger.With().Str("world", cfg.WorldName).Logger(),
		outbound:     make(chan *proto.Message, cfg.OutboundBuffer),
		state:        StateConnecting,
		worldName:    cfg.WorldName,
		nameHint:     cfg.NameHint,
		renderRadius: cfg.RenderRadius,
	}
}

// Outbound returns the channel the broker pushes broadcasts into. The
// transport write loop is its only consumer.
func (s *Session) Outbound() <-chan *proto.Message {
	return s.outbound
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// ID returns the broker-assigned id; zero until the join completes.
func (s *Session) ID() uint64 { return s.id }

// WorldName returns the session's current world.
func (s *Session) WorldName() string { return s.worldName }

// DisplayName returns the name learned from the first peer frame, or the
// empty string if none arrived yet.
func (s *Session) DisplayName() string { return s.name }

// Join runs the leave-then-join handshake: an idempotent leave for any
// previous membership, then a join awaiting the assigned id. This is the
// session's only suspension point.
func (s *Session) Join(ctx context.Context) error {
	s.state = StateJoining

	// Idempotent no-op at the broker when there is no previous membership.
	s.broker.Leave(LeaveWorld{WorldName: s.worldName, ClientID: s.id})

	res, err := s.broker.Join(ctx, JoinWorld{
		WorldName:    s.worldName,
		ClientName:   s.nameHint,
		Outbound:     s.outbound,
		RenderRadius: s.renderRadius,
	})
	if err != nil {
		return fmt.Errorf("join world %q: %w", s.worldName, err)
	}

	s.id = res.ID
	s.worldName = res.WorldName
	s.joined = true
	s.state = StateActive
	s.log = s.log.With().Uint64("id", s.id).Logger()
	return nil
}

// HandleFrame decodes one inbound frame and dispatches on its tag. A
// decode failure is a transport error and comes back to the caller, which
// should end the connection. Payload-level problems inside a decodable
// frame are absorbed here and fail only that frame.
func (s *Session) HandleFrame(msg []byte) error {
	frame, err := proto.Decode(msg)
	if err != nil {
		s.metrics.DecodeErrorRecorded()
		return fmt.Errorf("decode frame: %w", err)
	}
	s.metrics.FrameRecorded(frame.Type.String())

	switch frame.Type {
	case proto.TypeRequest:
		s.onChunkRequest(frame)
	case proto.TypePeer:
		s.onPeer(frame)
	case proto.TypeInit, proto.TypeConfig, proto.TypeUpdate, proto.TypeText:
		// Reserved tags: accepted, no core effect.
	}
	return nil
}

// onChunkRequest parses the chunk coordinate out of the request document
// and forwards an update carrying only the observed chunk. A malformed
// document drops this one request and keeps the connection alive.
func (s *Session) onChunkRequest(frame *proto.Message) {
	chunk, err := frame.ChunkRequest()
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping malformed chunk request")
		return
	}

	s.chunk = &chunk
	s.broker.Update(ClientUpdate{
		WorldName: s.worldName,
		ClientID:  s.id,
		Chunk:     &chunk,
	})
}

// onPeer takes the first snapshot in the frame, locks in the display name
// on first sight, and forwards name, position and rotation to the broker.
func (s *Session) onPeer(frame *proto.Message) {
	if len(frame.Peers) == 0 {
		s.log.Warn().Msg("dropping peer frame without snapshots")
		return
	}
	peer := frame.Peers[0]

	if !s.nameLocked {
		s.name = peer.Name
		s.nameLocked = true
		s.log.Info().Str("name", s.name).Msg("client announced itself")
	}

	position := geometry.Vec3[float32]{X: peer.PX, Y: peer.PY, Z: peer.PZ}
	rotation := geometry.Quaternion{X: peer.QX, Y: peer.QY, Z: peer.QZ, W: peer.QW}
	s.position = &position
	s.rotation = &rotation

	name := s.name
	s.broker.Update(ClientUpdate{
		WorldName: s.worldName,
		ClientID:  s.id,
		Name:      &name,
		Position:  &position,
		Rotation:  &rotation,
	})
}

// Close issues the leave for the current world and makes the session
// terminal. Safe to call more than once. If no id was ever assigned the
// leave is skipped.
func (s *Session) Close() {
	if s.state == StateClosing {
		return
	}
	s.state = StateClosing

	if s.joined {
		s.broker.Leave(LeaveWorld{WorldName: s.worldName, ClientID: s.id})
	}

	name := s.name
	if name == "" {
		name = "unnamed"
	}
	s.log.Info().Str("name", name).Msg("session closed")
}
