// File: cql/decoder.go
// Author: momentics <momentics@gmail.com>
//
// Decoder reads primitive CQL values sequentially out of a frame body.
// Unlike the encoder side (free functions over a growing []byte), the
// decoder needs to track a read cursor, so it's a small stateful type.
package cql

import (
	"encoding/binary"
	"fmt"
)

// Decoder reads sequentially through a single frame's body bytes.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps body for sequential reads, starting at offset 0.
func NewDecoder(body []byte) *Decoder {
	return &Decoder{buf: body}
}

// Remaining returns the not-yet-consumed tail of the body.
func (d *Decoder) Remaining() []byte { return d.buf[d.pos:] }

// Len returns the number of unread bytes.
func (d *Decoder) Len() int { return len(d.buf) - d.pos }

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, fmt.Errorf("cql: decode past end of buffer: need %d, have %d", n, d.Len())
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadShort reads a big-endian uint16 ([short]).
func (d *Decoder) ReadShort() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadInt reads a big-endian int32 ([int]).
func (d *Decoder) ReadInt() (int32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadLong reads a big-endian int64 ([long]).
func (d *Decoder) ReadLong() (int64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadString reads a [string]: [short] length prefix + UTF-8 bytes.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadShort()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadLongString reads a [long string]: [int] length prefix + UTF-8 bytes.
func (d *Decoder) ReadLongString() (string, error) {
	n, err := d.ReadInt()
	if err != nil {
		return "", err
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadStringList reads a [string list].
func (d *Decoder) ReadStringList() ([]string, error) {
	n, err := d.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		s, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// ReadStringMultimap reads a [string multimap], as seen in the SUPPORTED
// response body.
func (d *Decoder) ReadStringMultimap() (map[string][]string, error) {
	n, err := d.ReadShort()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, n)
	for i := uint16(0); i < n; i++ {
		k, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		list, err := d.ReadStringList()
		if err != nil {
			return nil, err
		}
		out[k] = list
	}
	return out, nil
}

// ReadBytes reads a [bytes]: an [int] length prefix of -1 means nil,
// otherwise that many raw bytes follow.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	b, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadShortBytes reads a [short bytes]: [short] length prefix + payload.
func (d *Decoder) ReadShortBytes() ([]byte, error) {
	n, err := d.ReadShort()
	if err != nil {
		return nil, err
	}
	b, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadPreparedID reads a statement id: a [short bytes] whose payload is
// always 16 bytes (the MD5 digest of the CQL text).
func (d *Decoder) ReadPreparedID() ([16]byte, error) {
	b, err := d.ReadShortBytes()
	if err != nil {
		return [16]byte{}, err
	}
	var id [16]byte
	if len(b) != 16 {
		return id, fmt.Errorf("cql: prepared id must be 16 bytes, got %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ReadValue reads one [value]: an [int] length prefix of -1 (NULL) or
// -2 (UNSET) — any negative length — returns (nil, nil), so NULL and
// UNSET are not distinguishable at this layer; any non-negative length
// is a literal byte body.
func (d *Decoder) ReadValue() ([]byte, error) {
	n, err := d.ReadInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	b, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
