// Author: momentics <momentics@gmail.com>
//
// Snappy block compression via golang/snappy's raw (non-framed) API,
// which is self-describing (it carries its own uncompressed-length
// varint ahead of the literal/copy stream), so unlike LZ4 no extra
// length prefix is needed here.
package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"
)

// Snappy implements Algorithm using golang/snappy's block format.
type Snappy struct{}

// NewSnappy constructs a Snappy algorithm instance.
func NewSnappy() *Snappy { return &Snappy{} }

func (a *Snappy) Name() string { return "snappy" }

func (a *Snappy) Compress(frame []byte) ([]byte, error) {
	if err := checkLen(frame); err != nil {
		return nil, err
	}
	body := frame[headerLen:]
	encoded := snappy.Encode(nil, body)

	out := append(frame[:headerLen:headerLen], encoded...)
	binary.BigEndian.PutUint32(out[5:9], uint32(len(encoded)))
	out[1] |= compressionFlag
	return out, nil
}

func (a *Snappy) Decompress(frame []byte) ([]byte, error) {
	if err := checkLen(frame); err != nil {
		return nil, err
	}
	if !compressed(frame) {
		return frame, nil
	}
	bodyLen := int(binary.BigEndian.Uint32(frame[5:9]))
	if headerLen+bodyLen > len(frame) {
		return nil, fmt.Errorf("compression: declared body length %d exceeds frame size", bodyLen)
	}
	body := frame[headerLen : headerLen+bodyLen]

	decoded, err := snappy.Decode(nil, body)
	if err != nil {
		return nil, fmt.Errorf("compression: snappy decompress: %w", err)
	}

	out := make([]byte, headerLen+len(decoded))
	copy(out, frame[:headerLen])
	copy(out[headerLen:], decoded)
	binary.BigEndian.PutUint32(out[5:9], uint32(len(decoded)))
	return out, nil
}

var _ Algorithm = (*Snappy)(nil)
