// Package connectjson lets Connect handlers and clients exchange plain Go structs as JSON.
package connectjson

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Codec marshals request and response messages with encoding/json. It registers under
// the "json" name, so Connect clients use the application/json content type.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// WithCodec is the option handlers and clients in this module are built with.
func WithCodec() connect.Option {
	return connect.WithCodec(Codec{})
}
