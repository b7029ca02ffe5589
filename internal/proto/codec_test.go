package proto

import (
	"errors"
	"reflect"
	"testing"

	"github.com/minevox/minevox-server/internal/geometry"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
	}{
		{"init", Message{Type: TypeInit}},
		{"config", Message{Type: TypeConfig}},
		{"request", Message{Type: TypeRequest, JSON: `{"x":4,"z":-2}`}},
		{"update", Message{Type: TypeUpdate}},
		{"text", Message{Type: TypeText, Text: "hello world"}},
		{
			"peer single",
			Message{Type: TypePeer, Peers: []Peer{
				{Name: "Ada", PX: 1, PY: 2, PZ: 3, QW: 1},
			}},
		},
		{
			"peer multiple",
			Message{Type: TypePeer, Peers: []Peer{
				{Name: "Ada", PX: 1.5, PY: -2.25, PZ: 64, QX: 0.1, QY: 0.2, QZ: 0.3, QW: 0.9},
				{Name: "Lin", PX: -8, PY: 12, PZ: 0.5, QW: 1},
			}},
		},
		{"peer unnamed", Message{Type: TypePeer, Peers: []Peer{{PX: 7}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(Encode(&tc.msg))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(*got, tc.msg) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *got, tc.msg)
			}
		})
	}
}

func TestDecodeEmptyFrameIsInit(t *testing.T) {
	msg, err := Decode(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != TypeInit {
		t.Fatalf("type = %v, want init", msg.Type)
	}
}

func TestDecodeMalformed(t *testing.T) {
	encoded := Encode(&Message{Type: TypePeer, Peers: []Peer{{Name: "Ada", PX: 1}}})

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"truncated", encoded[:len(encoded)-3], ErrMalformedFrame},
		{"garbage", []byte{0xff, 0xff, 0xff}, ErrMalformedFrame},
		// field 1, varint 99: a tag outside the closed set.
		{"invalid tag", []byte{0x08, 0x63}, ErrInvalidTag},
		// field 1 with bytes wire type: inconsistent payload.
		{"wrong wire type", []byte{0x0a, 0x01, 0x00}, ErrMalformedFrame},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.data); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	encoded := Encode(&Message{Type: TypeText, Text: "hi"})
	// Append field 15, varint 7 — unknown to this decoder.
	encoded = append(encoded, 0x78, 0x07)

	msg, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != TypeText || msg.Text != "hi" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestChunkRequest(t *testing.T) {
	cases := []struct {
		name    string
		json    string
		want    geometry.Vec2[int32]
		wantErr bool
	}{
		{"valid", `{"x":4,"z":-2}`, geometry.Vec2[int32]{X: 4, Z: -2}, false},
		{"extra fields", `{"x":0,"z":16,"lod":2}`, geometry.Vec2[int32]{X: 0, Z: 16}, false},
		{"x not integer", `{"x":"bad","z":1}`, geometry.Vec2[int32]{}, true},
		{"x fractional", `{"x":4.5,"z":1}`, geometry.Vec2[int32]{}, true},
		{"z missing", `{"x":4}`, geometry.Vec2[int32]{}, true},
		{"not json", `nonsense`, geometry.Vec2[int32]{}, true},
		{"empty", ``, geometry.Vec2[int32]{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := Message{Type: TypeRequest, JSON: tc.json}
			got, err := msg.ChunkRequest()
			if tc.wantErr {
				if !errors.Is(err, ErrBadChunkRequest) {
					t.Fatalf("err = %v, want ErrBadChunkRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ChunkRequest: %v", err)
			}
			if got != tc.want {
				t.Fatalf("chunk = %+v, want %+v", got, tc.want)
			}
		})
	}
}
