package compression

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func makeFrame(body []byte) []byte {
	frame := make([]byte, 9+len(body))
	frame[0] = 4 // protocol version
	binary.BigEndian.PutUint32(frame[5:9], uint32(len(body)))
	copy(frame[9:], body)
	return frame
}

func TestUncompressedRoundTrip(t *testing.T) {
	u := Uncompressed{}
	frame := makeFrame(bytes.Repeat([]byte{0}, 32))
	out, err := u.Compress(frame)
	if err != nil {
		t.Fatal(err)
	}
	back, err := u.Decompress(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back, out) {
		t.Fatal("decompress with flag clear must return input unchanged")
	}
}

func TestRejectsShortBuffer(t *testing.T) {
	u := Uncompressed{}
	if _, err := u.Compress(make([]byte, 4)); err == nil {
		t.Fatal("expected error for buffer shorter than header")
	}
}

func TestLZ4RoundTrip(t *testing.T) {
	a := NewLZ4()
	body := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 50)
	frame := makeFrame(body)

	compressedFrame, err := a.Compress(frame)
	if err != nil {
		t.Fatal(err)
	}
	if !compressed(compressedFrame) {
		t.Fatal("Compress must set the COMPRESSION flag")
	}

	decompressedFrame, err := a.Decompress(compressedFrame)
	if err != nil {
		t.Fatal(err)
	}
	gotBody := decompressedFrame[headerLen:]
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("lz4 round trip mismatch: got %d bytes, want %d", len(gotBody), len(body))
	}
}

func TestLZ4DecompressHeaderOnlyBodyReturnsHeaderUnchanged(t *testing.T) {
	a := NewLZ4()
	frame := makeFrame(nil)
	frame[1] |= compressionFlag

	out, err := a.Decompress(frame)
	if err != nil {
		t.Fatalf("header-only body must not error: %v", err)
	}
	if !bytes.Equal(out, frame[:headerLen]) {
		t.Fatalf("expected header returned unchanged, got %d bytes", len(out))
	}
}

func TestSnappyRoundTrip(t *testing.T) {
	a := NewSnappy()
	body := bytes.Repeat([]byte("snappy payload data "), 40)
	frame := makeFrame(body)

	compressedFrame, err := a.Compress(frame)
	if err != nil {
		t.Fatal(err)
	}
	if !compressed(compressedFrame) {
		t.Fatal("Compress must set the COMPRESSION flag")
	}

	decompressedFrame, err := a.Decompress(compressedFrame)
	if err != nil {
		t.Fatal(err)
	}
	gotBody := decompressedFrame[headerLen:]
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("snappy round trip mismatch: got %d bytes, want %d", len(gotBody), len(body))
	}
}

func TestAlgorithmNames(t *testing.T) {
	if (Uncompressed{}).Name() != "" {
		t.Error("uncompressed name should be empty")
	}
	if NewLZ4().Name() != "lz4" {
		t.Error("lz4 name mismatch")
	}
	if NewSnappy().Name() != "snappy" {
		t.Error("snappy name mismatch")
	}
}
