// Package codec provides structured-value codecs for the serialized accessor
// path of core.NamespacedStore.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

var mapStringAnyType = reflect.TypeOf(map[string]any(nil))

const (
	FormatJSON        = "json"
	FormatCBOR        = "cbor"
	FormatMessagePack = "msgpack"
)

// JSON encodes values with encoding/json. Decoding rejects trailing data.
type JSON struct{}

func (JSON) Format() string {
	return FormatJSON
}

func (JSON) Encode(value any) ([]byte, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: encode json: %w", err)
	}
	return encoded, nil
}

func (JSON) Decode(data []byte, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("codec: json payload is empty")
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("codec: decode json: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("codec: decode json: trailing data")
	}
	return nil
}

// CBOR encodes values with deterministic core encoding so equal values
// produce equal bytes.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func NewCBOR() (*CBOR, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("codec: cbor encode mode: %w", err)
	}
	dec, err := cbor.DecOptions{DefaultMapType: mapStringAnyType}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("codec: cbor decode mode: %w", err)
	}
	return &CBOR{enc: enc, dec: dec}, nil
}

func (*CBOR) Format() string {
	return FormatCBOR
}

func (c *CBOR) Encode(value any) ([]byte, error) {
	if c == nil || c.enc == nil {
		encoded, err := cbor.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("codec: encode cbor: %w", err)
		}
		return encoded, nil
	}
	encoded, err := c.enc.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("codec: encode cbor: %w", err)
	}
	return encoded, nil
}

func (c *CBOR) Decode(data []byte, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("codec: cbor payload is empty")
	}
	var err error
	if c == nil || c.dec == nil {
		err = cbor.Unmarshal(data, out)
	} else {
		err = c.dec.Unmarshal(data, out)
	}
	if err != nil {
		return fmt.Errorf("codec: decode cbor: %w", err)
	}
	return nil
}

// MessagePack encodes values with vmihailenco/msgpack using json struct tags
// so the same types round-trip through either codec.
type MessagePack struct{}

func (MessagePack) Format() string {
	return FormatMessagePack
}

func (MessagePack) Encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	encoder.SetCustomStructTag("json")
	encoder.SetSortMapKeys(true)
	if err := encoder.Encode(value); err != nil {
		return nil, fmt.Errorf("codec: encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

func (MessagePack) Decode(data []byte, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("codec: msgpack payload is empty")
	}
	decoder := msgpack.NewDecoder(bytes.NewReader(data))
	decoder.SetCustomStructTag("json")
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("codec: decode msgpack: %w", err)
	}
	return nil
}

// ByFormat returns the codec registered under format. Lookup is case
// insensitive; an empty format selects JSON.
func ByFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return JSON{}, nil
	case FormatCBOR:
		return NewCBOR()
	case FormatMessagePack, "messagepack":
		return MessagePack{}, nil
	default:
		return nil, fmt.Errorf("codec: unsupported format %q", format)
	}
}

// Codec matches core.ValueCodec.
type Codec interface {
	Format() string
	Encode(value any) ([]byte, error)
	Decode(data []byte, out any) error
}
