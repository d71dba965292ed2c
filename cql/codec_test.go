package cql

import (
	"bytes"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderLen)
	EncodeHeader(buf, 42, OpQuery, 128)
	h, err := DecodeHeader(buf)
	if err != nil {
		t.Fatal(err)
	}
	if h.Stream != 42 || h.Opcode != OpQuery || h.Length != 128 || h.Version != ProtocolVersion {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestIsCqlError(t *testing.T) {
	frame := make([]byte, HeaderLen)
	EncodeHeader(frame, 1, OpError, 0)
	if !IsCqlError(frame) {
		t.Fatal("expected ERROR opcode to be detected")
	}
	EncodeHeader(frame, 1, OpResult, 0)
	if IsCqlError(frame) {
		t.Fatal("RESULT opcode must not be mistaken for ERROR")
	}
}

func TestPrimitiveRoundTrip(t *testing.T) {
	var buf []byte
	buf = WriteShort(buf, 0xBEEF)
	buf = WriteInt(buf, -12345)
	buf = WriteLong(buf, 9223372036854775807)
	buf = WriteString(buf, "hello")
	buf = WriteLongString(buf, "longer hello")
	buf = WriteBytes(buf, []byte{1, 2, 3})
	buf = WriteBytes(buf, nil)

	d := NewDecoder(buf)
	s, err := d.ReadShort()
	if err != nil || s != 0xBEEF {
		t.Fatalf("short: %v %v", s, err)
	}
	i, err := d.ReadInt()
	if err != nil || i != -12345 {
		t.Fatalf("int: %v %v", i, err)
	}
	l, err := d.ReadLong()
	if err != nil || l != 9223372036854775807 {
		t.Fatalf("long: %v %v", l, err)
	}
	str, err := d.ReadString()
	if err != nil || str != "hello" {
		t.Fatalf("string: %v %v", str, err)
	}
	longStr, err := d.ReadLongString()
	if err != nil || longStr != "longer hello" {
		t.Fatalf("long string: %v %v", longStr, err)
	}
	b, err := d.ReadBytes()
	if err != nil || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatalf("bytes: %v %v", b, err)
	}
	b2, err := d.ReadBytes()
	if err != nil || b2 != nil {
		t.Fatalf("nil bytes: %v %v", b2, err)
	}
	if d.Len() != 0 {
		t.Fatalf("expected buffer fully consumed, %d bytes left", d.Len())
	}
}

func TestStringListAndMultimap(t *testing.T) {
	buf := WriteStringList(nil, []string{"a", "bb", "ccc"})
	d := NewDecoder(buf)
	list, err := d.ReadStringList()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[2] != "ccc" {
		t.Fatalf("unexpected list: %v", list)
	}

	var mm []byte
	mm = WriteShort(mm, 1)
	mm = WriteString(mm, "COMPRESSION")
	mm = WriteStringList(mm, []string{"lz4", "snappy"})
	d2 := NewDecoder(mm)
	multimap, err := d2.ReadStringMultimap()
	if err != nil {
		t.Fatal(err)
	}
	if len(multimap["COMPRESSION"]) != 2 {
		t.Fatalf("unexpected multimap: %v", multimap)
	}
}

func TestValueNullAndUnset(t *testing.T) {
	buf := WriteValue(nil, Null)
	buf = WriteValue(buf, Unset)
	buf = WriteValue(buf, int32(7))

	d := NewDecoder(buf)
	v1, err := d.ReadValue()
	if err != nil || v1 != nil {
		t.Fatalf("null value: %v %v", v1, err)
	}
	v2, err := d.ReadValue()
	if err != nil || v2 != nil {
		t.Fatalf("unset value: %v %v", v2, err)
	}
	v3, err := d.ReadValue()
	if err != nil || len(v3) != 4 {
		t.Fatalf("int32 value: %v %v", v3, err)
	}
}

func TestColTypeScalarRoundTrip(t *testing.T) {
	buf := WriteShort(nil, uint16(ColInt))
	d := NewDecoder(buf)
	ct, err := DecodeColType(d)
	if err != nil {
		t.Fatal(err)
	}
	if ct.ID != ColInt {
		t.Fatalf("unexpected coltype: %+v", ct)
	}
}

func TestColTypeListOfTextRoundTrip(t *testing.T) {
	var buf []byte
	buf = WriteShort(buf, uint16(ColList))
	buf = WriteShort(buf, uint16(ColVarchar))
	d := NewDecoder(buf)
	ct, err := DecodeColType(d)
	if err != nil {
		t.Fatal(err)
	}
	if ct.ID != ColList || ct.Elem == nil || ct.Elem.ID != ColVarchar {
		t.Fatalf("unexpected list coltype: %+v", ct)
	}
}

func TestColTypeMapRoundTrip(t *testing.T) {
	var buf []byte
	buf = WriteShort(buf, uint16(ColMap))
	buf = WriteShort(buf, uint16(ColVarchar))
	buf = WriteShort(buf, uint16(ColBigint))
	d := NewDecoder(buf)
	ct, err := DecodeColType(d)
	if err != nil {
		t.Fatal(err)
	}
	if ct.Key.ID != ColVarchar || ct.Value.ID != ColBigint {
		t.Fatalf("unexpected map coltype: %+v", ct)
	}
}

func TestColTypeTupleRoundTrip(t *testing.T) {
	var buf []byte
	buf = WriteShort(buf, uint16(ColTuple))
	buf = WriteShort(buf, 2)
	buf = WriteShort(buf, uint16(ColInt))
	buf = WriteShort(buf, uint16(ColVarchar))
	d := NewDecoder(buf)
	ct, err := DecodeColType(d)
	if err != nil {
		t.Fatal(err)
	}
	if len(ct.Fields) != 2 || ct.Fields[0].ID != ColInt || ct.Fields[1].ID != ColVarchar {
		t.Fatalf("unexpected tuple coltype: %+v", ct)
	}
}

func TestColTypeUDTRoundTrip(t *testing.T) {
	var buf []byte
	buf = WriteShort(buf, uint16(ColUDT))
	buf = WriteString(buf, "ks")
	buf = WriteString(buf, "address")
	buf = WriteShort(buf, 2)
	buf = WriteString(buf, "street")
	buf = WriteShort(buf, uint16(ColVarchar))
	buf = WriteString(buf, "zip")
	buf = WriteShort(buf, uint16(ColInt))
	d := NewDecoder(buf)
	ct, err := DecodeColType(d)
	if err != nil {
		t.Fatal(err)
	}
	if ct.UDTKeyspace != "ks" || ct.UDTName != "address" || len(ct.UDTFields) != 2 {
		t.Fatalf("unexpected udt coltype: %+v", ct)
	}
	if ct.UDTFields[0].Name != "street" || ct.UDTFields[1].Type.ID != ColInt {
		t.Fatalf("unexpected udt fields: %+v", ct.UDTFields)
	}
}

type point struct {
	x, y int32
}

func (p point) EncodeColumn() []byte {
	return append(WriteInt(nil, p.x), WriteInt(nil, p.y)...)
}

func (p *point) DecodeColumn(raw []byte) error {
	d := NewDecoder(raw)
	x, err := d.ReadInt()
	if err != nil {
		return err
	}
	y, err := d.ReadInt()
	if err != nil {
		return err
	}
	p.x, p.y = x, y
	return nil
}

func TestColumnEncoderRoundTrip(t *testing.T) {
	want := point{x: 3, y: -4}
	buf := WriteValue(nil, want)

	d := NewDecoder(buf)
	raw, err := d.ReadValue()
	if err != nil {
		t.Fatal(err)
	}
	var got point
	if _, err := DecodeColumn(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestColTypeCustomRoundTrip(t *testing.T) {
	var buf []byte
	buf = WriteShort(buf, uint16(ColCustom))
	buf = WriteString(buf, "org.apache.cassandra.db.marshal.LongType")
	d := NewDecoder(buf)
	ct, err := DecodeColType(d)
	if err != nil {
		t.Fatal(err)
	}
	if ct.CustomClass != "org.apache.cassandra.db.marshal.LongType" {
		t.Fatalf("unexpected custom coltype: %+v", ct)
	}
}
