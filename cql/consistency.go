// File: cql/consistency.go
// Author: momentics <momentics@gmail.com>
package cql

import "fmt"

// Consistency is the CQL consistency level, encoded as a big-endian
// uint16 wherever it appears in a frame body.
type Consistency uint16

// Consistency wire codes per the CQL binary protocol v4 spec.
const (
	Any         Consistency = 0x0
	One         Consistency = 0x1
	Two         Consistency = 0x2
	Three       Consistency = 0x3
	Quorum      Consistency = 0x4
	All         Consistency = 0x5
	LocalQuorum Consistency = 0x6
	EachQuorum  Consistency = 0x7
	Serial      Consistency = 0x8
	LocalSerial Consistency = 0x9
	LocalOne    Consistency = 0xA
)

func (c Consistency) String() string {
	switch c {
	case Any:
		return "ANY"
	case One:
		return "ONE"
	case Two:
		return "TWO"
	case Three:
		return "THREE"
	case Quorum:
		return "QUORUM"
	case All:
		return "ALL"
	case LocalQuorum:
		return "LOCAL_QUORUM"
	case EachQuorum:
		return "EACH_QUORUM"
	case Serial:
		return "SERIAL"
	case LocalSerial:
		return "LOCAL_SERIAL"
	case LocalOne:
		return "LOCAL_ONE"
	default:
		return fmt.Sprintf("CONSISTENCY(%#x)", uint16(c))
	}
}

// ParseConsistency validates a wire code, rejecting anything not in the
// table above rather than silently accepting an unknown level.
func ParseConsistency(code uint16) (Consistency, error) {
	c := Consistency(code)
	switch c {
	case Any, One, Two, Three, Quorum, All, LocalQuorum, EachQuorum, Serial, LocalSerial, LocalOne:
		return c, nil
	default:
		return 0, fmt.Errorf("cql: unknown consistency code %#x", code)
	}
}
