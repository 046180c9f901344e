package api

import (
	"encoding/json"
	"mime"

	cbor "github.com/fxamacker/cbor/v2"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeCBOR = "application/cbor"
)

// Codec abstracts body encoding for the backend wire.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
	ContentType() string
}

type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSONCodec[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
func (JSONCodec[V]) ContentType() string { return ContentTypeJSON }

type CBORCodec[V any] struct{}

func (CBORCodec[V]) Encode(v V) ([]byte, error) { return cbor.Marshal(v) }
func (CBORCodec[V]) Decode(b []byte) (V, error) {
	var v V
	err := cbor.Unmarshal(b, &v)
	return v, err
}
func (CBORCodec[V]) ContentType() string { return ContentTypeCBOR }

// CodecFor picks the codec matching a Content-Type or Accept value.
// Anything that is not CBOR falls back to JSON.
func CodecFor[V any](contentType string) Codec[V] {
	mt, _, err := mime.ParseMediaType(contentType)
	if err == nil && mt == ContentTypeCBOR {
		return CBORCodec[V]{}
	}
	return JSONCodec[V]{}
}

// CodecByName resolves a configured format name: "json" (or empty) and "cbor".
func CodecByName[V any](name string) (Codec[V], bool) {
	switch name {
	case "", "json":
		return JSONCodec[V]{}, true
	case "cbor":
		return CBORCodec[V]{}, true
	}
	return nil, false
}
