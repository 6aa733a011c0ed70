package events

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/coder/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrUnknownCodec is returned for an unsupported codec name.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec encodes events for the wire.
type Codec interface {
	Encode(ev Event) ([]byte, error)
	Decode(data []byte) (Event, error)
	Name() string
	MessageType() websocket.MessageType
}

// JSONCodec sends events as JSON text frames.
type JSONCodec struct{}

// Encode marshals ev as JSON.
func (JSONCodec) Encode(ev Event) ([]byte, error) { return json.Marshal(ev) }

// Decode parses a JSON frame.
func (JSONCodec) Decode(data []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(data, &ev)
	return ev, err
}

// Name returns "json".
func (JSONCodec) Name() string { return "json" }

// MessageType returns text frames.
func (JSONCodec) MessageType() websocket.MessageType { return websocket.MessageText }

// MsgPackCodec sends events as MessagePack binary frames.
type MsgPackCodec struct{}

// Encode marshals ev as MessagePack.
func (MsgPackCodec) Encode(ev Event) ([]byte, error) { return msgpack.Marshal(ev) }

// Decode parses a MessagePack frame.
func (MsgPackCodec) Decode(data []byte) (Event, error) {
	var ev Event
	err := msgpack.Unmarshal(data, &ev)
	return ev, err
}

// Name returns "msgpack".
func (MsgPackCodec) Name() string { return "msgpack" }

// MessageType returns binary frames.
func (MsgPackCodec) MessageType() websocket.MessageType { return websocket.MessageBinary }

// CodecFor resolves a codec by name; empty selects JSON.
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgPackCodec{}, nil
	default:
		return nil, ErrUnknownCodec
	}
}
