package cql

import "testing"

func buildErrorBody(code ErrorCode, msg string, rest []byte) []byte {
	buf := WriteInt(nil, int32(code))
	buf = WriteString(buf, msg)
	return append(buf, rest...)
}

func TestDecodeCqlErrorSimple(t *testing.T) {
	body := buildErrorBody(ErrServerError, "boom", nil)
	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.Code != ErrServerError || e.Message != "boom" {
		t.Fatalf("unexpected error: %+v", e)
	}
	if e.Error() == "" {
		t.Fatal("expected non-empty Error() string")
	}
}

func TestDecodeCqlErrorUnavailable(t *testing.T) {
	var rest []byte
	rest = WriteShort(rest, uint16(Quorum))
	rest = WriteInt(rest, 3)
	rest = WriteInt(rest, 1)
	body := buildErrorBody(ErrUnavailableException, "not enough replicas", rest)

	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.Unavailable == nil || e.Unavailable.CL != Quorum || e.Unavailable.Required != 3 || e.Unavailable.Alive != 1 {
		t.Fatalf("unexpected unavailable payload: %+v", e.Unavailable)
	}
}

func TestDecodeCqlErrorWriteTimeout(t *testing.T) {
	var rest []byte
	rest = WriteShort(rest, uint16(One))
	rest = WriteInt(rest, 0)
	rest = WriteInt(rest, 1)
	rest = WriteString(rest, string(WriteSimple))
	body := buildErrorBody(ErrWriteTimeout, "timed out", rest)

	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.WriteTimeoutErr == nil || e.WriteTimeoutErr.WriteType != WriteSimple {
		t.Fatalf("unexpected write timeout payload: %+v", e.WriteTimeoutErr)
	}
}

func TestDecodeCqlErrorReadTimeout(t *testing.T) {
	var rest []byte
	rest = WriteShort(rest, uint16(LocalOne))
	rest = WriteInt(rest, 1)
	rest = WriteInt(rest, 2)
	rest = WriteByte(rest, 0)
	body := buildErrorBody(ErrReadTimeout, "timed out", rest)

	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.ReadTimeoutErr == nil || e.ReadTimeoutErr.ReplicaRespondedWithData() {
		t.Fatalf("unexpected read timeout payload: %+v", e.ReadTimeoutErr)
	}
}

func TestDecodeCqlErrorReadFailure(t *testing.T) {
	var rest []byte
	rest = WriteShort(rest, uint16(All))
	rest = WriteInt(rest, 2)
	rest = WriteInt(rest, 3)
	rest = WriteInt(rest, 1)
	rest = WriteByte(rest, 1)
	body := buildErrorBody(ErrReadFailure, "failed", rest)

	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.ReadFailureErr == nil || !e.ReadFailureErr.ReplicaRespondedWithData() {
		t.Fatalf("unexpected read failure payload: %+v", e.ReadFailureErr)
	}
}

func TestDecodeCqlErrorFunctionFailure(t *testing.T) {
	var rest []byte
	rest = WriteString(rest, "ks")
	rest = WriteString(rest, "myfunc")
	rest = WriteStringList(rest, []string{"int", "text"})
	body := buildErrorBody(ErrFunctionFailure, "udf error", rest)

	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.FunctionFail == nil || e.FunctionFail.Function != "myfunc" || len(e.FunctionFail.ArgTypes) != 2 {
		t.Fatalf("unexpected function failure payload: %+v", e.FunctionFail)
	}
}

func TestDecodeCqlErrorWriteFailure(t *testing.T) {
	var rest []byte
	rest = WriteShort(rest, uint16(Quorum))
	rest = WriteInt(rest, 1)
	rest = WriteInt(rest, 2)
	rest = WriteInt(rest, 1)
	rest = WriteString(rest, string(WriteBatch))
	body := buildErrorBody(ErrWriteFailure, "failed", rest)

	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.WriteFailureErr == nil || e.WriteFailureErr.WriteType != WriteBatch {
		t.Fatalf("unexpected write failure payload: %+v", e.WriteFailureErr)
	}
}

func TestDecodeCqlErrorAlreadyExists(t *testing.T) {
	var rest []byte
	rest = WriteString(rest, "ks")
	rest = WriteString(rest, "t")
	body := buildErrorBody(ErrAlreadyExists, "already exists", rest)

	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.Exists == nil || e.Exists.Keyspace != "ks" || e.Exists.Table != "t" {
		t.Fatalf("unexpected already exists payload: %+v", e.Exists)
	}
}

func TestDecodeCqlErrorUnprepared(t *testing.T) {
	id := StatementID("SELECT 1", "")
	rest := WriteShortBytes(nil, id[:])
	body := buildErrorBody(ErrUnprepared, "unknown prepared statement", rest)

	e, err := DecodeCqlError(body)
	if err != nil {
		t.Fatal(err)
	}
	if e.UnpreparedErr == nil || e.UnpreparedErr.ID != id {
		t.Fatalf("unexpected unprepared payload: %+v", e.UnpreparedErr)
	}
}

func TestParseConsistencyRejectsUnknown(t *testing.T) {
	if _, err := ParseConsistency(0xFFFF); err == nil {
		t.Fatal("expected error for unknown consistency code")
	}
}
