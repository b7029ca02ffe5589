package proto

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire field numbers for Message. Stable; part of the protocol.
const (
	fieldType  protowire.Number = 1
	fieldJSON  protowire.Number = 2
	fieldText  protowire.Number = 3
	fieldPeers protowire.Number = 4
)

// Wire field numbers for Peer.
const (
	peerName protowire.Number = 1
	peerPX   protowire.Number = 2
	peerPY   protowire.Number = 3
	peerPZ   protowire.Number = 4
	peerQX   protowire.Number = 5
	peerQY   protowire.Number = 6
	peerQZ   protowire.Number = 7
	peerQW   protowire.Number = 8
)

// ErrMalformedFrame reports bytes that do not parse as a wire frame.
var ErrMalformedFrame = errors.New("proto: malformed frame")

// Encode serializes a Message into one self-describing binary frame.
// Zero-valued scalars are omitted, so Encode and Decode are exact inverses
// for every value Decode can produce.
func Encode(m *Message) []byte {
	b := make([]byte, 0, 64)
	if m.Type != TypeInit {
		b = protowire.AppendTag(b, fieldType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Type))
	}
	if m.JSON != "" {
		b = protowire.AppendTag(b, fieldJSON, protowire.BytesType)
		b = protowire.AppendString(b, m.JSON)
	}
	if m.Text != "" {
		b = protowire.AppendTag(b, fieldText, protowire.BytesType)
		b = protowire.AppendString(b, m.Text)
	}
	for i := range m.Peers {
		b = protowire.AppendTag(b, fieldPeers, protowire.BytesType)
		b = protowire.AppendBytes(b, appendPeer(nil, &m.Peers[i]))
	}
	return b
}

func appendPeer(b []byte, p *Peer) []byte {
	if p.Name != "" {
		b = protowire.AppendTag(b, peerName, protowire.BytesType)
		b = protowire.AppendString(b, p.Name)
	}
	fields := [...]struct {
		num protowire.Number
		val float32
	}{
		{peerPX, p.PX}, {peerPY, p.PY}, {peerPZ, p.PZ},
		{peerQX, p.QX}, {peerQY, p.QY}, {peerQZ, p.QZ}, {peerQW, p.QW},
	}
	for _, f := range fields {
		if f.val != 0 {
			b = protowire.AppendTag(b, f.num, protowire.Fixed32Type)
			b = protowire.AppendFixed32(b, math.Float32bits(f.val))
		}
	}
	return b
}

// Decode parses one binary frame. Truncated or garbled input returns an
// error wrapping ErrMalformedFrame; a type tag outside the closed set
// returns an error wrapping ErrInvalidTag. Unknown field numbers are
// skipped so older servers tolerate newer clients.
func Decode(data []byte) (*Message, error) {
	m := &Message{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, malformed(protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldType:
			if typ != protowire.VarintType {
				return nil, malformed(fmt.Errorf("field %d: wire type %d", num, typ))
			}
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			if v > uint64(maxMessageType) {
				return nil, fmt.Errorf("%w: %d", ErrInvalidTag, v)
			}
			m.Type = MessageType(v)
			data = data[n:]
		case fieldJSON:
			s, n, err := consumeString(data, typ, num)
			if err != nil {
				return nil, err
			}
			m.JSON = s
			data = data[n:]
		case fieldText:
			s, n, err := consumeString(data, typ, num)
			if err != nil {
				return nil, err
			}
			m.Text = s
			data = data[n:]
		case fieldPeers:
			if typ != protowire.BytesType {
				return nil, malformed(fmt.Errorf("field %d: wire type %d", num, typ))
			}
			raw, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			peer, err := decodePeer(raw)
			if err != nil {
				return nil, err
			}
			m.Peers = append(m.Peers, peer)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return m, nil
}

func decodePeer(data []byte) (Peer, error) {
	var p Peer
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return p, malformed(protowire.ParseError(n))
		}
		data = data[n:]

		if num == peerName {
			s, n, err := consumeString(data, typ, num)
			if err != nil {
				return p, err
			}
			p.Name = s
			data = data[n:]
			continue
		}

		if num >= peerPX && num <= peerQW {
			if typ != protowire.Fixed32Type {
				return p, malformed(fmt.Errorf("peer field %d: wire type %d", num, typ))
			}
			bits, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return p, malformed(protowire.ParseError(n))
			}
			val := math.Float32frombits(bits)
			switch num {
			case peerPX:
				p.PX = val
			case peerPY:
				p.PY = val
			case peerPZ:
				p.PZ = val
			case peerQX:
				p.QX = val
			case peerQY:
				p.QY = val
			case peerQZ:
				p.QZ = val
			case peerQW:
				p.QW = val
			}
			data = data[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return p, malformed(protowire.ParseError(n))
		}
		data = data[n:]
	}
	return p, nil
}

func consumeString(data []byte, typ protowire.Type, num protowire.Number) (string, int, error) {
	if typ != protowire.BytesType {
		return "", 0, malformed(fmt.Errorf("field %d: wire type %d", num, typ))
	}
	s, n := protowire.ConsumeString(data)
	if n < 0 {
		return "", 0, malformed(protowire.ParseError(n))
	}
	return s, n, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
}
