// File: cql/types.go
// Author: momentics <momentics@gmail.com>
//
// ColType is CQL's recursive column type descriptor, as carried in a
// RESULT frame's metadata: a 2-byte id, with List/Set/Map/Tuple/UDT/
// Custom ids carrying additional nested type information.
package cql

import "fmt"

// ColTypeID is the 2-byte type id at the head of every ColType.
type ColTypeID uint16

// ColTypeID values per the CQL binary protocol v4 spec.
const (
	ColCustom    ColTypeID = 0x0000
	ColASCII     ColTypeID = 0x0001
	ColBigint    ColTypeID = 0x0002
	ColBlob      ColTypeID = 0x0003
	ColBoolean   ColTypeID = 0x0004
	ColCounter   ColTypeID = 0x0005
	ColDecimal   ColTypeID = 0x0006
	ColDouble    ColTypeID = 0x0007
	ColFloat     ColTypeID = 0x0008
	ColInt       ColTypeID = 0x0009
	ColTimestamp ColTypeID = 0x000B
	ColUUID      ColTypeID = 0x000C
	ColVarchar   ColTypeID = 0x000D
	ColVarint    ColTypeID = 0x000E
	ColTimeUUID  ColTypeID = 0x000F
	ColInet      ColTypeID = 0x0010
	ColDate      ColTypeID = 0x0011
	ColTime      ColTypeID = 0x0012
	ColSmallint  ColTypeID = 0x0013
	ColTinyint   ColTypeID = 0x0014
	ColList      ColTypeID = 0x0020
	ColMap       ColTypeID = 0x0021
	ColSet       ColTypeID = 0x0022
	ColUDT       ColTypeID = 0x0030
	ColTuple     ColTypeID = 0x0031
)

// ColType is a single column's full type descriptor, recursively nested
// for List/Set/Map/Tuple/UDT.
type ColType struct {
	ID ColTypeID

	// CustomClass names the Java class for a Custom type; opaque to this
	// driver, decoded as a plain length-prefixed byte blob.
	CustomClass string

	// Elem is the element type of a List or Set.
	Elem *ColType

	// Key/Value are the Map key/value types.
	Key   *ColType
	Value *ColType

	// Fields are the member types of a Tuple, in declaration order.
	Fields []ColType

	// UDT-only fields: keyspace, type name, and the ordered field
	// name/type pairs.
	UDTKeyspace string
	UDTName     string
	UDTFields   []UDTField
}

// UDTField is one named, typed member of a user-defined type.
type UDTField struct {
	Name string
	Type ColType
}

func (t ColType) String() string {
	switch t.ID {
	case ColList:
		return fmt.Sprintf("list<%s>", t.Elem)
	case ColSet:
		return fmt.Sprintf("set<%s>", t.Elem)
	case ColMap:
		return fmt.Sprintf("map<%s, %s>", t.Key, t.Value)
	case ColTuple:
		return fmt.Sprintf("tuple%v", t.Fields)
	case ColUDT:
		return fmt.Sprintf("udt<%s.%s>", t.UDTKeyspace, t.UDTName)
	case ColCustom:
		return fmt.Sprintf("custom(%s)", t.CustomClass)
	default:
		return fmt.Sprintf("coltype(%#x)", uint16(t.ID))
	}
}

// DecodeColType reads one recursive ColType from r.
func DecodeColType(r *Decoder) (ColType, error) {
	id, err := r.ReadShort()
	if err != nil {
		return ColType{}, err
	}
	t := ColType{ID: ColTypeID(id)}
	switch t.ID {
	case ColCustom:
		class, err := r.ReadString()
		if err != nil {
			return ColType{}, err
		}
		t.CustomClass = class
	case ColList, ColSet:
		elem, err := DecodeColType(r)
		if err != nil {
			return ColType{}, err
		}
		t.Elem = &elem
	case ColMap:
		key, err := DecodeColType(r)
		if err != nil {
			return ColType{}, err
		}
		val, err := DecodeColType(r)
		if err != nil {
			return ColType{}, err
		}
		t.Key, t.Value = &key, &val
	case ColTuple:
		n, err := r.ReadShort()
		if err != nil {
			return ColType{}, err
		}
		t.Fields = make([]ColType, n)
		for i := range t.Fields {
			ft, err := DecodeColType(r)
			if err != nil {
				return ColType{}, err
			}
			t.Fields[i] = ft
		}
	case ColUDT:
		ks, err := r.ReadString()
		if err != nil {
			return ColType{}, err
		}
		name, err := r.ReadString()
		if err != nil {
			return ColType{}, err
		}
		n, err := r.ReadShort()
		if err != nil {
			return ColType{}, err
		}
		t.UDTKeyspace, t.UDTName = ks, name
		t.UDTFields = make([]UDTField, n)
		for i := range t.UDTFields {
			fname, err := r.ReadString()
			if err != nil {
				return ColType{}, err
			}
			ft, err := DecodeColType(r)
			if err != nil {
				return ColType{}, err
			}
			t.UDTFields[i] = UDTField{Name: fname, Type: ft}
		}
	}
	return t, nil
}

// TableSpec names the keyspace/table a column belongs to.
type TableSpec struct {
	Keyspace string
	Table    string
}

// ColumnSpec is one column's full metadata: its table (when not using
// the frame's global table spec), name, and type.
type ColumnSpec struct {
	Table *TableSpec
	Name  string
	Type  ColType
}
