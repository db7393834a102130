package types

import (
	"encoding/json"
	"fmt"

	collcodec "cosmossdk.io/collections/codec"
)

// Registry values are not part of any bit-exact interchange format, so they
// are stored as JSON. Struct field order keeps the encoding stable.

type jsonValueCodec[T any] struct {
	name string
}

func newJSONValueCodec[T any](name string) collcodec.ValueCodec[T] {
	return jsonValueCodec[T]{name: name}
}

func (c jsonValueCodec[T]) Encode(value T) ([]byte, error) { return json.Marshal(value) }

func (c jsonValueCodec[T]) Decode(b []byte) (T, error) {
	var value T
	err := json.Unmarshal(b, &value)
	return value, err
}

func (c jsonValueCodec[T]) EncodeJSON(value T) ([]byte, error) { return json.Marshal(value) }

func (c jsonValueCodec[T]) DecodeJSON(b []byte) (T, error) {
	var value T
	err := json.Unmarshal(b, &value)
	return value, err
}

func (c jsonValueCodec[T]) Stringify(value T) string { return fmt.Sprintf("%v", value) }

func (c jsonValueCodec[T]) ValueType() string { return c.name }

// Collection value codecs for the keeper schema.
var (
	SubnetInfoValue  = newJSONValueCodec[SubnetInfo]("SubnetInfo")
	ParticipantValue = newJSONValueCodec[Participant]("Participant")
	ParamsValue      = newJSONValueCodec[Params]("Params")
)
