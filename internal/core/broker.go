package core

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/minevox/minevox-server/internal/metrics"
	"github.com/minevox/minevox-server/internal/proto"
)

// opsBuffer sizes the broker mailbox. Sends block when it fills, which
// preserves per-sender FIFO ordering instead of dropping operations.
const opsBuffer = 256

// Broker is the process-wide registry of worlds. A single goroutine
// (Run) owns all world and membership state; everything else reaches it
// through the ops mailbox, so no locks guard the maps.
type Broker struct {
	ops     chan Op
	worlds  map[string]*World
	nextID  uint64
	log     *zerolog.Logger
	metrics *metrics.Metrics
}

// NewBroker builds a broker. Metrics may be nil.
func NewBroker(logger *zerolog.Logger, m *metrics.Metrics) *Broker {
	return &Broker{
		ops:     make(chan Op, opsBuffer),
		worlds:  make(map[string]*World),
		log:     logger,
		metrics: m,
	}
}

// Run processes operations strictly in arrival order until ctx is done.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-b.ops:
			b.handle(op)
		}
	}
}

func (b *Broker) handle(op Op) {
	switch op := op.(type) {
	case JoinWorld:
		b.handleJoin(op)
	case LeaveWorld:
		b.handleLeave(op)
	case ClientUpdate:
		b.handleUpdate(op)
	case RelayChat:
		b.handleChat(op)
	case ListWorldNames:
		b.handleList(op)
	default:
		b.log.Error().Type("op", op).Msg("unhandled broker op")
	}
}

// Join delivers a JoinWorld operation and waits for the assigned id. If ctx
// is canceled while the join is still in flight, the matching leave is
// issued as soon as the broker answers, so no member record leaks.
func (b *Broker) Join(ctx context.Context, op JoinWorld) (JoinResult, error) {
	reply := make(chan JoinResult, 1)
	op.Reply = reply

	select {
	case b.ops <- op:
	case <-ctx.Done():
		return JoinResult{}, ctx.Err()
	}

	select {
	case res := <-reply:
		return res, nil
	case <-ctx.Done():
		go func() {
			res := <-reply
			b.Leave(LeaveWorld{WorldName: res.WorldName, ClientID: res.ID})
		}()
		return JoinResult{}, ctx.Err()
	}
}

// Leave enqueues a LeaveWorld operation. Fire-and-forget.
func (b *Broker) Leave(op LeaveWorld) {
	b.ops <- op
}

// Update enqueues a ClientUpdate operation. Fire-and-forget.
func (b *Broker) Update(op ClientUpdate) {
	b.ops <- op
}

// Chat enqueues a RelayChat operation. Fire-and-forget.
func (b *Broker) Chat(op RelayChat) {
	b.ops <- op
}

// WorldNames returns a sorted snapshot of registered world names.
func (b *Broker) WorldNames(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)

	select {
	case b.ops <- ListWorldNames{Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case names := <-reply:
		return names, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Broker) handleJoin(op JoinWorld) {
	w, ok := b.worlds[op.WorldName]
	if !ok {
		w = newWorld(op.WorldName)
		b.worlds[op.WorldName] = w
	}

	// Ids are monotonic for the process lifetime and never reused, so a
	// stale in-flight broadcast can never land on a new occupant of a
	// freed slot.
	b.nextID++
	id := b.nextID

	w.addMember(id, &member{
		outbound:     op.Outbound,
		name:         op.ClientName,
		renderRadius: op.RenderRadius,
	})
	b.metrics.JoinRecorded()

	b.log.Info().
		Uint64("id", id).
		Str("world", op.WorldName).
		Int("members", len(w.members)).
		Msg("member joined world")

	op.Reply <- JoinResult{ID: id, WorldName: op.WorldName}
}

func (b *Broker) handleLeave(op LeaveWorld) {
	w, ok := b.worlds[op.WorldName]
	if !ok {
		return
	}
	if !w.removeMember(op.ClientID) {
		return
	}
	b.metrics.LeaveRecorded()

	b.log.Info().
		Uint64("id", op.ClientID).
		Str("world", op.WorldName).
		Int("members", len(w.members)).
		Msg("member left world")

	if w.empty() {
		delete(b.worlds, op.WorldName)
	}
}

func (b *Broker) handleUpdate(op ClientUpdate) {
	w, ok := b.worlds[op.WorldName]
	if !ok {
		return
	}
	m := w.applyUpdate(op)
	if m == nil {
		return
	}

	msg := &proto.Message{
		Type:  proto.TypePeer,
		Peers: []proto.Peer{m.peerSnapshot()},
	}
	b.metrics.BroadcastRecorded(w.broadcast(msg, op.ClientID))
}

func (b *Broker) handleChat(op RelayChat) {
	w, ok := b.worlds[op.WorldName]
	if !ok {
		return
	}
	b.metrics.BroadcastRecorded(w.broadcast(op.Content, op.ClientID))
}

func (b *Broker) handleList(op ListWorldNames) {
	names := make([]string, 0, len(b.worlds))
	for name := range b.worlds {
		names = append(names, name)
	}
	sort.Strings(names)
	op.Reply <- names
}
