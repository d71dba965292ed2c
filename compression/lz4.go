// Author: momentics <momentics@gmail.com>
//
// LZ4 block compression. klauspost/compress/lz4's block API has no
// self-describing length the way a streaming frame would, so Compress
// prepends a 5-byte header of its own ahead of the block: a big-endian
// uint32 uncompressed length, then a 1-byte mode (lz4ModeBlock or
// lz4ModeStored). This mirrors the Rust driver's use of its lz4
// crate's block mode with prepend_size=true — a crate-level necessity
// there, a driver-level one here, same reason: the receiver has no
// other way to know how large to allocate before it has decoded
// anything. The stored mode exists because CompressBlock reports
// n==0 for input it declines to shrink; falling back to storing the
// body raw keeps Compress total rather than only covering the
// happens-to-compress case.
package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/lz4"
)

const (
	lz4ModeBlock  = 0
	lz4ModeStored = 1
)

// LZ4 implements Algorithm using block (not streaming-frame) LZ4.
type LZ4 struct{}

// NewLZ4 constructs an LZ4 algorithm instance.
func NewLZ4() *LZ4 { return &LZ4{} }

func (a *LZ4) Name() string { return "lz4" }

func (a *LZ4) Compress(frame []byte) ([]byte, error) {
	if err := checkLen(frame); err != nil {
		return nil, err
	}
	body := frame[headerLen:]
	dst := make([]byte, 5+lz4.CompressBlockBound(len(body)))
	binary.BigEndian.PutUint32(dst[0:4], uint32(len(body)))

	var ht [1 << 16]int32
	n, err := lz4.CompressBlock(body, dst[5:], ht[:])
	if err != nil {
		return nil, fmt.Errorf("compression: lz4 compress: %w", err)
	}
	if n == 0 && len(body) > 0 {
		dst[4] = lz4ModeStored
		copy(dst[5:], body)
		dst = dst[:5+len(body)]
	} else {
		dst[4] = lz4ModeBlock
		dst = dst[:5+n]
	}

	out := append(frame[:headerLen:headerLen], dst...)
	binary.BigEndian.PutUint32(out[5:9], uint32(len(dst)))
	out[1] |= compressionFlag
	return out, nil
}

func (a *LZ4) Decompress(frame []byte) ([]byte, error) {
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

	if len(body) < 5 {
		// Header-only body: some peers set the COMPRESSION flag on an
		// empty (or truncated) body. Return the header unchanged
		// rather than failing.
		pkgLog.Warnf("lz4 decompress: body too short (%d bytes) to carry a size prefix, returning header unchanged", len(body))
		return frame[:headerLen], nil
	}

	uncompressedLen := binary.BigEndian.Uint32(body[0:4])
	mode := body[4]
	dst := make([]byte, uncompressedLen)

	var n int
	var err error
	switch mode {
	case lz4ModeStored:
		n = copy(dst, body[5:])
	default:
		n, err = lz4.UncompressBlock(body[5:], dst)
	}
	if err != nil {
		pkgLog.Warnf("lz4 decompress failed on a %d-byte body, returning header unchanged: %v", len(body), err)
		return frame[:headerLen], nil
	}

	out := make([]byte, headerLen+n)
	copy(out, frame[:headerLen])
	copy(out[headerLen:], dst[:n])
	binary.BigEndian.PutUint32(out[5:9], uint32(n))
	return out, nil
}

var _ Algorithm = (*LZ4)(nil)
