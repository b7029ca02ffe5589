package core

import (
	"github.com/minevox/minevox-server/internal/geometry"
	"github.com/minevox/minevox-server/internal/proto"
)

// member is the broker-side record for one session in a world: the leased
// outbound handle plus the latest known state snapshot.
type member struct {
	outbound     chan<- *proto.Message
	name         string
	renderRadius int
	position     *geometry.Vec3[float32]
	rotation     *geometry.Quaternion
	chunk        *geometry.Vec2[int32]
}

// peerSnapshot builds the wire representation of the member's current state.
// Unknown position or rotation stays zero-valued.
func (m *member) peerSnapshot() proto.Peer {
	p := proto.Peer{Name: m.name}
	if m.position != nil {
		p.PX, p.PY, p.PZ = m.position.X, m.position.Y, m.position.Z
	}
	if m.rotation != nil {
		p.QX, p.QY, p.QZ, p.QW = m.rotation.X, m.rotation.Y, m.rotation.Z, m.rotation.W
	}
	return p
}

// World groups the members of one named room. It lives on the broker
// goroutine and is never touched from outside it.
type World struct {
	name    string
	members map[uint64]*member
}

func newWorld(name string) *World {
	return &World{
		name:    name,
		members: make(map[uint64]*member),
	}
}

func (w *World) addMember(id uint64, m *member) {
	w.members[id] = m
}

// removeMember deletes a member. Returns false if the id was not present.
func (w *World) removeMember(id uint64) bool {
	if _, exists := w.members[id]; !exists {
		return false
	}
	delete(w.members, id)
	return true
}

func (w *World) empty() bool {
	return len(w.members) == 0
}

// applyUpdate merges the update's non-nil fields into the member snapshot.
// Returns nil when the member is unknown (it may have left mid-flight).
func (w *World) applyUpdate(u ClientUpdate) *member {
	m, ok := w.members[u.ClientID]
	if !ok {
		return nil
	}
	if u.Name != nil {
		m.name = *u.Name
	}
	if u.Position != nil {
		m.position = u.Position
	}
	if u.Rotation != nil {
		m.rotation = u.Rotation
	}
	if u.Chunk != nil {
		m.chunk = u.Chunk
	}
	return m
}

// broadcast sends msg to every member except exclude. Delivery is
// best-effort per member: a full outbound buffer drops that one copy and
// never stalls the rest. Returns how many copies were handed off.
func (w *World) broadcast(msg *proto.Message, exclude uint64) int {
	sent := 0
	for id, m := range w.members {
		if id == exclude {
			continue
		}
		select {
		case m.outbound <- msg:
			sent++
		default:
			// Drop if slow consumer.
		}
	}
	return sent
}
