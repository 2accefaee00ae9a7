package wire

import (
	"bytes"

	"github.com/ugorji/go/codec"
)

// MaxDatagramSize is the largest payload the datagram endpoint will read
// or write in a single frame.
const MaxDatagramSize = 65535

var mh = &codec.MsgpackHandle{}

// Encode serializes a GossipMessage using the msgpack schema described by
// its codec struct tags.
func Encode(msg *GossipMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := codec.NewEncoder(&buf, mh)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a wire frame into a GossipMessage.
func Decode(data []byte) (*GossipMessage, error) {
	var msg GossipMessage
	dec := codec.NewDecoderBytes(data, mh)
	if err := dec.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
