// File: cql/header.go
// Author: momentics <momentics@gmail.com>
package cql

import (
	"encoding/binary"
	"fmt"
)

// HeaderLen is the fixed size of every CQL frame header.
const HeaderLen = 9

// Header is the 9-byte frame header: version, flags, stream, opcode,
// body length.
type Header struct {
	Version uint8
	Flags   uint8
	Stream  int16
	Opcode  Opcode
	Length  int32
}

// RequestVersion is the version byte a client sends; the server always
// replies with the high bit set (0x84 for v4).
const RequestVersion uint8 = ProtocolVersion

// EncodeHeader writes a 9-byte header for a request frame (the high bit
// of Version is never set by a client).
func EncodeHeader(buf []byte, stream int16, opcode Opcode, bodyLen int32) {
	buf[0] = RequestVersion
	buf[1] = 0
	binary.BigEndian.PutUint16(buf[2:4], uint16(stream))
	buf[4] = byte(opcode)
	binary.BigEndian.PutUint32(buf[5:9], uint32(bodyLen))
}

// DecodeHeader reads a 9-byte response header. buf must be exactly
// HeaderLen bytes.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderLen {
		return Header{}, fmt.Errorf("cql: header must be %d bytes, got %d", HeaderLen, len(buf))
	}
	return Header{
		Version: buf[0],
		Flags:   buf[1],
		Stream:  int16(binary.BigEndian.Uint16(buf[2:4])),
		Opcode:  Opcode(buf[4]),
		Length:  int32(binary.BigEndian.Uint32(buf[5:9])),
	}, nil
}

// IsError reports whether the header's opcode is ERROR. Callers still
// need to read the body's first 4 bytes (the error code) to know the
// error kind; this only confirms the opcode.
func (h Header) IsError() bool { return h.Opcode == OpError }

// IsResult reports whether the header's opcode is RESULT.
func (h Header) IsResult() bool { return h.Opcode == OpResult }

// Compressed reports whether the COMPRESSION flag bit is set.
func (h Header) Compressed() bool { return h.Flags&FlagCompression == FlagCompression }

// Tracing reports whether the TRACING flag bit is set.
func (h Header) Tracing() bool { return h.Flags&FlagTracing == FlagTracing }

// Warning reports whether the WARNING flag bit is set.
func (h Header) Warning() bool { return h.Flags&FlagWarning == FlagWarning }

// CustomPayload reports whether the CUSTOM_PAYLOAD flag bit is set.
func (h Header) CustomPayload() bool { return h.Flags&FlagCustomPayload == FlagCustomPayload }

// IsCqlError checks whether a raw frame buffer (header + body) carries
// an ERROR opcode by inspecting byte offset 4, the same check the
// Reporter uses on the wire before it ever parses a full Header — the
// fast path that avoids a full header decode on the hot response path.
func IsCqlError(frame []byte) bool {
	return len(frame) > 4 && Opcode(frame[4]) == OpError
}
