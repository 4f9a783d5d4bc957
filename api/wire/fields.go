package wire

import (
	"math"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// skip tells walk that a field was not consumed by the message.
const skip = -1

// walk calls fn for every field of b. fn returns the number of bytes it
// consumed, or skip to have the field discarded.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "wire: tag")
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return errors.Wrapf(err, "wire: field %d", num)
		}
		if m == skip {
			if m = protowire.ConsumeFieldValue(num, typ, b); m < 0 {
				return errors.Wrapf(protowire.ParseError(m), "wire: field %d", num)
			}
		}
		b = b[m:]
	}
	return nil
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, m Message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.AppendWire(nil))
}

func readUint(typ protowire.Type, b []byte, dst *uint64) (int, error) {
	if typ != protowire.VarintType {
		return skip, nil
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = v
	return n, nil
}

func readUint32(typ protowire.Type, b []byte, dst *uint32) (int, error) {
	var v uint64
	n, err := readUint(typ, b, &v)
	if err != nil || n == skip {
		return n, err
	}
	if v > math.MaxUint32 {
		return 0, errors.Newf("value %d overflows uint32", v)
	}
	*dst = uint32(v)
	return n, nil
}

func readBool(typ protowire.Type, b []byte, dst *bool) (int, error) {
	var v uint64
	n, err := readUint(typ, b, &v)
	if err != nil || n == skip {
		return n, err
	}
	*dst = v != 0
	return n, nil
}

func readString(typ protowire.Type, b []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return skip, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = string(v)
	return n, nil
}

func readMessage(typ protowire.Type, b []byte, m Message) (int, error) {
	if typ != protowire.BytesType {
		return skip, nil
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	if err := m.UnmarshalWire(v); err != nil {
		return 0, err
	}
	return n, nil
}
