// File: cql/rows.go
// Author: momentics <momentics@gmail.com>
//
// Typed row scanning over a decoded Rows result. The reference driver
// generates one typed row struct per query via a macro family layered
// over per-column trait impls; Go has no macros, so this instead offers
// a single generic decode function keyed by a ColumnDecoder type switch,
// mirroring EncodeColumn's dispatch on the write side.
package cql

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"

	"github.com/google/uuid"
)

// ColumnDecoder lets a caller's own type control its own wire decoding
// (e.g. a UDT struct), instead of relying on DecodeColumn's type switch.
type ColumnDecoder interface {
	DecodeColumn(raw []byte) error
}

// DecodeColumn decodes raw (a single cell's already length-stripped
// bytes, as returned by Rows.Cell) into dest, a pointer to one of the
// supported column Go types. A nil raw leaves dest untouched and
// returns (false, nil), letting the caller distinguish CQL NULL from a
// decode failure.
func DecodeColumn(raw []byte, dest any) (bool, error) {
	if raw == nil {
		return false, nil
	}
	switch d := dest.(type) {
	case ColumnDecoder:
		return true, d.DecodeColumn(raw)
	case *bool:
		if len(raw) != 1 {
			return false, fmt.Errorf("cql: bool column must be 1 byte, got %d", len(raw))
		}
		*d = raw[0] != 0
	case *int8:
		if len(raw) != 1 {
			return false, fmt.Errorf("cql: tinyint column must be 1 byte, got %d", len(raw))
		}
		*d = int8(raw[0])
	case *uint8:
		if len(raw) != 1 {
			return false, fmt.Errorf("cql: column must be 1 byte, got %d", len(raw))
		}
		*d = raw[0]
	case *int16:
		if len(raw) != 2 {
			return false, fmt.Errorf("cql: smallint column must be 2 bytes, got %d", len(raw))
		}
		*d = int16(binary.BigEndian.Uint16(raw))
	case *int32:
		if len(raw) != 4 {
			return false, fmt.Errorf("cql: int column must be 4 bytes, got %d", len(raw))
		}
		*d = int32(binary.BigEndian.Uint32(raw))
	case *int:
		if len(raw) != 4 {
			return false, fmt.Errorf("cql: int column must be 4 bytes, got %d", len(raw))
		}
		*d = int(int32(binary.BigEndian.Uint32(raw)))
	case *int64:
		if len(raw) != 8 {
			return false, fmt.Errorf("cql: bigint column must be 8 bytes, got %d", len(raw))
		}
		*d = int64(binary.BigEndian.Uint64(raw))
	case *float32:
		if len(raw) != 4 {
			return false, fmt.Errorf("cql: float column must be 4 bytes, got %d", len(raw))
		}
		*d = math.Float32frombits(binary.BigEndian.Uint32(raw))
	case *float64:
		if len(raw) != 8 {
			return false, fmt.Errorf("cql: double column must be 8 bytes, got %d", len(raw))
		}
		*d = math.Float64frombits(binary.BigEndian.Uint64(raw))
	case *string:
		*d = string(raw)
	case *[]byte:
		out := make([]byte, len(raw))
		copy(out, raw)
		*d = out
	case *net.IP:
		switch len(raw) {
		case 4, 16:
			ip := make(net.IP, len(raw))
			copy(ip, raw)
			*d = ip
		default:
			return false, fmt.Errorf("cql: inet column must be 4 or 16 bytes, got %d", len(raw))
		}
	case *uuid.UUID:
		id, err := uuid.FromBytes(raw)
		if err != nil {
			return false, fmt.Errorf("cql: uuid column: %w", err)
		}
		*d = id
	default:
		return false, fmt.Errorf("cql: unsupported column destination type %T", dest)
	}
	return true, nil
}

// Scan decodes row's cells into dest, in column order, by repeated
// DecodeColumn calls. len(dest) must equal the row's column count.
// Returns, per column, whether the cell was non-NULL.
func (r *Rows) Scan(row int, dest ...any) ([]bool, error) {
	if int(r.Metadata.ColumnsCount) != len(dest) {
		return nil, fmt.Errorf("cql: Scan got %d destinations, row has %d columns", len(dest), r.Metadata.ColumnsCount)
	}
	present := make([]bool, len(dest))
	for col, d := range dest {
		ok, err := DecodeColumn(r.Cell(row, col), d)
		if err != nil {
			return nil, fmt.Errorf("cql: column %d (%s): %w", col, r.Metadata.Columns[col].Name, err)
		}
		present[col] = ok
	}
	return present, nil
}

// ScanEach calls fn once per row with a fresh zero-valued T, scanned
// column-by-column via newDest. Stops and returns the first error fn or
// the scan produces.
func ScanEach[T any](r *Rows, newDest func(*T) []any, fn func(row int, value T) error) error {
	for i := 0; i < int(r.Count()); i++ {
		var value T
		if _, err := r.Scan(i, newDest(&value)...); err != nil {
			return err
		}
		if err := fn(i, value); err != nil {
			return err
		}
	}
	return nil
}

// ScanAll collects every row into a []T using newDest the same way
// ScanEach does.
func ScanAll[T any](r *Rows, newDest func(*T) []any) ([]T, error) {
	out := make([]T, 0, r.Count())
	err := ScanEach(r, newDest, func(_ int, value T) error {
		out = append(out, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
