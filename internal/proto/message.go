// Package proto defines the binary wire protocol spoken over a client
// connection: one tagged Message per frame, with only the fields relevant to
// the tag populated.
package proto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minevox/minevox-server/internal/geometry"
)

// MessageType tags a wire frame. The tag fully determines which payload
// fields are meaningful. Values are part of the wire format; do not reorder.
type MessageType int32

const (
	// TypeInit is the handshake frame. No payload.
	TypeInit MessageType = iota
	// TypeConfig carries server-to-client settings. Reserved.
	TypeConfig
	// TypeRequest is a chunk query; the JSON field holds the coordinates.
	TypeRequest
	// TypeUpdate is a block update. Reserved.
	TypeUpdate
	// TypePeer carries one or more peer state snapshots.
	TypePeer
	// TypeText is a chat payload, opaque to the broker.
	TypeText
)

// maxMessageType bounds the closed tag set for decode validation.
const maxMessageType = TypeText

func (t MessageType) String() string {
	switch t {
	case TypeInit:
		return "init"
	case TypeConfig:
		return "config"
	case TypeRequest:
		return "request"
	case TypeUpdate:
		return "update"
	case TypePeer:
		return "peer"
	case TypeText:
		return "text"
	default:
		return fmt.Sprintf("unknown(%d)", int32(t))
	}
}

// Message is one decoded wire frame.
type Message struct {
	Type MessageType
	// JSON holds the free-form request document for TypeRequest frames.
	JSON string
	// Text holds the chat payload for TypeText frames.
	Text string
	// Peers holds state snapshots for TypePeer frames.
	Peers []Peer
}

// Peer is one client state snapshot inside a TypePeer frame.
type Peer struct {
	Name string
	PX   float32
	PY   float32
	PZ   float32
	QX   float32
	QY   float32
	QZ   float32
	QW   float32
}

var (
	// ErrInvalidTag reports a frame whose type tag is outside the closed set.
	ErrInvalidTag = errors.New("proto: invalid message tag")
	// ErrBadChunkRequest reports a request document missing integer x/z fields.
	ErrBadChunkRequest = errors.New("proto: bad chunk request")
)

// chunkQuery mirrors the free-form request document. Pointer fields
// distinguish absent keys from zero coordinates.
type chunkQuery struct {
	X *int64 `json:"x"`
	Z *int64 `json:"z"`
}

// ChunkRequest extracts the chunk coordinate from a TypeRequest frame's
// embedded JSON document. Fields x and z must be present and integral;
// anything else fails this one request with ErrBadChunkRequest.
func (m *Message) ChunkRequest() (geometry.Vec2[int32], error) {
	var q chunkQuery
	if err := json.Unmarshal([]byte(m.JSON), &q); err != nil {
		return geometry.Vec2[int32]{}, fmt.Errorf("%w: %v", ErrBadChunkRequest, err)
	}
	if q.X == nil || q.Z == nil {
		return geometry.Vec2[int32]{}, fmt.Errorf("%w: missing x or z", ErrBadChunkRequest)
	}
	return geometry.Vec2[int32]{X: int32(*q.X), Z: int32(*q.Z)}, nil
}
