// File: cql/encoder.go
// Author: momentics <momentics@gmail.com>
//
// Primitive value writers for CQL frame bodies. Every Write* call
// appends to buf and returns the grown slice, mirroring the append-only
// style the rest of this module's byte-buffer code uses.
package cql

import (
	"encoding/binary"
	"math"
	"net"

	"github.com/google/uuid"
)

// Null marks a value as CQL NULL (length -1) when written as a [value].
var Null = null{}

// Unset marks a value as CQL UNSET (length -2), telling the server to
// leave the column untouched rather than writing NULL to it.
var Unset = unset{}

type null struct{}
type unset struct{}

// ValueLenNull and ValueLenUnset are the two negative [value] length
// sentinels defined by the protocol; any length >= 0 is a real body.
const (
	ValueLenNull  int32 = -1
	ValueLenUnset int32 = -2
)

// WriteByte appends a single byte.
func WriteByte(buf []byte, v uint8) []byte {
	return append(buf, v)
}

// WriteShort appends a big-endian uint16 ([short]).
func WriteShort(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

// WriteInt appends a big-endian int32 ([int]).
func WriteInt(buf []byte, v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}

// WriteLong appends a big-endian int64 ([long]).
func WriteLong(buf []byte, v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return append(buf, b[:]...)
}

// WriteString appends a [string]: [short] length prefix + UTF-8 bytes.
func WriteString(buf []byte, s string) []byte {
	buf = WriteShort(buf, uint16(len(s)))
	return append(buf, s...)
}

// WriteLongString appends a [long string]: [int] length prefix + UTF-8 bytes.
func WriteLongString(buf []byte, s string) []byte {
	buf = WriteInt(buf, int32(len(s)))
	return append(buf, s...)
}

// WriteStringList appends a [string list].
func WriteStringList(buf []byte, ss []string) []byte {
	buf = WriteShort(buf, uint16(len(ss)))
	for _, s := range ss {
		buf = WriteString(buf, s)
	}
	return buf
}

// WriteStringMap appends a [string map].
func WriteStringMap(buf []byte, m map[string]string) []byte {
	buf = WriteShort(buf, uint16(len(m)))
	for k, v := range m {
		buf = WriteString(buf, k)
		buf = WriteString(buf, v)
	}
	return buf
}

// WriteBytes appends a [bytes]: [int] length prefix (or -1 for nil) plus
// the raw payload.
func WriteBytes(buf []byte, b []byte) []byte {
	if b == nil {
		return WriteInt(buf, ValueLenNull)
	}
	buf = WriteInt(buf, int32(len(b)))
	return append(buf, b...)
}

// WriteShortBytes appends a [short bytes]: [short] length prefix + payload.
func WriteShortBytes(buf []byte, b []byte) []byte {
	buf = WriteShort(buf, uint16(len(b)))
	return append(buf, b...)
}

// WriteValue appends a [value]: an [int] length prefix followed by the
// body, or the Null/Unset sentinel length with no body.
func WriteValue(buf []byte, v any) []byte {
	switch x := v.(type) {
	case null:
		return WriteInt(buf, ValueLenNull)
	case unset:
		return WriteInt(buf, ValueLenUnset)
	case nil:
		return WriteInt(buf, ValueLenNull)
	case []byte:
		return WriteBytes(buf, x)
	case ColumnEncoder:
		body := x.EncodeColumn()
		buf = WriteInt(buf, int32(len(body)))
		return append(buf, body...)
	default:
		body := EncodeColumn(v)
		buf = WriteInt(buf, int32(len(body)))
		return append(buf, body...)
	}
}

// EncodeColumn encodes a single Go value into its raw CQL column body
// (no length prefix), dispatching on concrete type. Panics on an
// unsupported type — this is a programmer error (a value the caller
// passed to a QUERY/EXECUTE/BATCH builder), not a wire-level failure.
func EncodeColumn(v any) []byte {
	switch x := v.(type) {
	case bool:
		if x {
			return []byte{1}
		}
		return []byte{0}
	case int8:
		return []byte{byte(x)}
	case uint8:
		return []byte{x}
	case int16:
		return WriteShort(nil, uint16(x))
	case uint16:
		return WriteShort(nil, x)
	case int32:
		return WriteInt(nil, x)
	case uint32:
		return WriteInt(nil, int32(x))
	case int:
		return WriteInt(nil, int32(x))
	case int64:
		return WriteLong(nil, x)
	case uint64:
		return WriteLong(nil, int64(x))
	case float32:
		return WriteInt(nil, int32(math.Float32bits(x)))
	case float64:
		return WriteLong(nil, int64(math.Float64bits(x)))
	case string:
		return []byte(x)
	case []byte:
		return x
	case net.IP:
		if v4 := x.To4(); v4 != nil {
			return []byte(v4)
		}
		return []byte(x.To16())
	case uuid.UUID:
		id := x
		return id[:]
	case ColumnEncoder:
		return x.EncodeColumn()
	default:
		panic("cql: unsupported column value type for encoding")
	}
}

// ColumnEncoder lets a caller's own type control its own wire encoding
// (e.g. a UDT struct), instead of relying on EncodeColumn's type switch.
type ColumnEncoder interface {
	EncodeColumn() []byte
}
