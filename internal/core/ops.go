package core

import (
	"github.com/minevox/minevox-server/internal/geometry"
	"github.com/minevox/minevox-server/internal/proto"
)

// Op is the closed set of operations the broker mailbox accepts. Each
// variant is handled exhaustively in Broker.handle, so a new operation
// cannot be silently ignored.
type Op interface{ isOp() }

// JoinWorld inserts a member into a world, creating the world if absent.
// The broker answers on Reply with the assigned id.
type JoinWorld struct {
	WorldName string
	// ClientName is an optional display-name hint; the authoritative name
	// still arrives with the client's first peer frame.
	ClientName   string
	Outbound     chan<- *proto.Message
	RenderRadius int
	Reply        chan<- JoinResult
}

// JoinResult carries the id the broker assigned and the world it echoed.
type JoinResult struct {
	ID        uint64
	WorldName string
}

// LeaveWorld removes a member. Unknown worlds or ids are benign no-ops,
// which makes the session's leave-then-join handshake idempotent.
type LeaveWorld struct {
	WorldName string
	ClientID  uint64
}

// ClientUpdate merges the non-nil fields into a member's snapshot and
// broadcasts the resulting peer state to the rest of the world. Fields left
// nil never clear previously known state.
type ClientUpdate struct {
	WorldName string
	ClientID  uint64

	Name     *string
	Position *geometry.Vec3[float32]
	Rotation *geometry.Quaternion
	Chunk    *geometry.Vec2[int32]
}

// RelayChat fans a chat message out verbatim to every member of the world
// except the originator.
type RelayChat struct {
	WorldName string
	ClientID  uint64
	Content   *proto.Message
}

// ListWorldNames asks for a snapshot of currently registered world names.
type ListWorldNames struct {
	Reply chan<- []string
}

func (JoinWorld) isOp()      {}
func (LeaveWorld) isOp()     {}
func (ClientUpdate) isOp()   {}
func (RelayChat) isOp()      {}
func (ListWorldNames) isOp() {}
