// Package compression implements the optional per-connection frame body
// transform negotiated during STARTUP: none, LZ4, or Snappy.
// Author: momentics <momentics@gmail.com>
//
// Compress/decompress operate on a whole frame buffer (9-byte header
// plus body), matching the wire layout exactly: compress rewrites the
// header's length field in place and replaces the body with its
// compressed form; decompress does the reverse. Both reject buffers
// shorter than the 9-byte header.
package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/nativecql/corecql/internal/clog"
)

const headerLen = 9

// Algorithm is the frame body transform selected once when a stage
// negotiates the connection's STARTUP options; never mutated afterward.
type Algorithm interface {
	// Name is the STARTUP COMPRESSION option string ("lz4", "snappy"),
	// or "" for Uncompressed.
	Name() string

	// Compress transforms frame[headerLen:] and rewrites the header's
	// length field (bytes 5..9) to the new body length, returning the
	// resulting frame; LZ4 and Snappy return a newly allocated slice.
	Compress(frame []byte) ([]byte, error)

	// Decompress reverses Compress. If the frame's COMPRESSION flag
	// (bit 0x01 of byte 1) is clear, frame is returned unchanged.
	Decompress(frame []byte) ([]byte, error)
}

const compressionFlag = 0x01

func compressed(frame []byte) bool {
	return frame[1]&compressionFlag == compressionFlag
}

func checkLen(frame []byte) error {
	if len(frame) < headerLen {
		return fmt.Errorf("compression: frame too short: %d bytes", len(frame))
	}
	return nil
}

// Uncompressed only rewrites the header's length field; it never
// transforms the body.
type Uncompressed struct{}

func (Uncompressed) Name() string { return "" }

func (Uncompressed) Compress(frame []byte) ([]byte, error) {
	if err := checkLen(frame); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint32(frame[5:9], uint32(len(frame)-headerLen))
	return frame, nil
}

func (Uncompressed) Decompress(frame []byte) ([]byte, error) {
	if err := checkLen(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

var _ Algorithm = Uncompressed{}

// pkgLog backs the quirk-handling warnings in lz4.go.
var pkgLog = clog.New("compression")
