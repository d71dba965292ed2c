package clog

import (
	"bytes"
	"testing"
)

func TestSetLevelGatesOutput(t *testing.T) {
	SetLevel("error")
	var buf bytes.Buffer
	l := New("test")
	l.Infof("should not appear")
	if buf.Len() != 0 {
		t.Fatalf("expected no output at error level, got %q", buf.String())
	}

	SetLevel("debug")
	infoWriter = &buf
	l.Infof("hello %d", 42)
	if buf.Len() == 0 {
		t.Fatal("expected output at debug level")
	}
}

func TestLoggerPrefixesComponent(t *testing.T) {
	SetLevel("debug")
	var buf bytes.Buffer
	errWriter = &buf
	New("ring").Errorf("boom")
	if !bytes.Contains(buf.Bytes(), []byte("ring")) {
		t.Fatalf("expected component name in output, got %q", buf.String())
	}
}
