// File: cql/result.go
// Author: momentics <momentics@gmail.com>
//
// Decodes a RESULT frame's body: Void, Rows (with metadata + paging
// state), SetKeyspace, Prepared, and SchemaChange variants.
package cql

import "fmt"

// RowsFlags are the bits at the head of a Rows result's metadata.
const (
	RowsFlagGlobalTableSpec uint32 = 0x0001
	RowsFlagHasMorePages    uint32 = 0x0002
	RowsFlagNoMetadata      uint32 = 0x0004
)

// PagingState carries the opaque continuation token for a multi-page
// query result, nil when the current page is the last one.
type PagingState struct {
	Token []byte
}

// HasMore reports whether a following page can be requested.
func (p PagingState) HasMore() bool { return p.Token != nil }

// Metadata describes a Rows result's column shape and paging state.
type Metadata struct {
	Flags            uint32
	ColumnsCount      int32
	PagingState      PagingState
	GlobalTableSpec  *TableSpec
	Columns          []ColumnSpec
}

func (m Metadata) hasMorePages() bool { return m.Flags&RowsFlagHasMorePages != 0 }
func (m Metadata) noMetadata() bool   { return m.Flags&RowsFlagNoMetadata != 0 }
func (m Metadata) globalTableSpec() bool {
	return m.Flags&RowsFlagGlobalTableSpec != 0
}

// DecodeMetadata reads a Rows result's metadata block.
func DecodeMetadata(d *Decoder) (Metadata, error) {
	flags, err := d.ReadInt()
	if err != nil {
		return Metadata{}, err
	}
	count, err := d.ReadInt()
	if err != nil {
		return Metadata{}, err
	}
	m := Metadata{Flags: uint32(flags), ColumnsCount: count}

	if m.hasMorePages() {
		token, err := d.ReadBytes()
		if err != nil {
			return Metadata{}, err
		}
		m.PagingState = PagingState{Token: token}
	}

	if m.noMetadata() {
		return m, nil
	}

	if m.globalTableSpec() {
		ks, err := d.ReadString()
		if err != nil {
			return Metadata{}, err
		}
		table, err := d.ReadString()
		if err != nil {
			return Metadata{}, err
		}
		spec := TableSpec{Keyspace: ks, Table: table}
		m.GlobalTableSpec = &spec
		m.Columns = make([]ColumnSpec, count)
		for i := range m.Columns {
			name, err := d.ReadString()
			if err != nil {
				return Metadata{}, err
			}
			typ, err := DecodeColType(d)
			if err != nil {
				return Metadata{}, err
			}
			m.Columns[i] = ColumnSpec{Name: name, Type: typ}
		}
	} else {
		m.Columns = make([]ColumnSpec, count)
		for i := range m.Columns {
			ks, err := d.ReadString()
			if err != nil {
				return Metadata{}, err
			}
			table, err := d.ReadString()
			if err != nil {
				return Metadata{}, err
			}
			name, err := d.ReadString()
			if err != nil {
				return Metadata{}, err
			}
			typ, err := DecodeColType(d)
			if err != nil {
				return Metadata{}, err
			}
			m.Columns[i] = ColumnSpec{Table: &TableSpec{Keyspace: ks, Table: table}, Name: name, Type: typ}
		}
	}
	return m, nil
}

// Rows is a decoded Rows result: its column metadata plus the raw,
// not-yet-scanned row values, row-major, each cell a [value].
type Rows struct {
	Metadata Metadata
	RowCount int32
	cells    [][][]byte
}

// Count returns the number of rows in this page.
func (r *Rows) Count() int32 { return r.RowCount }

// HasMorePages reports whether a following page can be requested via
// Metadata.PagingState.Token.
func (r *Rows) HasMorePages() bool { return r.Metadata.hasMorePages() }

// Cell returns the raw, still length-framed-away bytes of column col in
// row, or nil if that cell was NULL.
func (r *Rows) Cell(row, col int) []byte {
	if row < 0 || row >= len(r.cells) {
		return nil
	}
	if col < 0 || col >= len(r.cells[row]) {
		return nil
	}
	return r.cells[row][col]
}

// decodeRows reads the body of a Rows result (opcode RESULT, kind
// ResultRows): metadata, then row_count rows of columns_count cells
// each, each cell a raw [value].
func decodeRows(d *Decoder) (*Rows, error) {
	meta, err := DecodeMetadata(d)
	if err != nil {
		return nil, err
	}
	count, err := d.ReadInt()
	if err != nil {
		return nil, err
	}
	rows := &Rows{Metadata: meta, RowCount: count}
	rows.cells = make([][][]byte, count)
	for i := range rows.cells {
		row := make([][]byte, meta.ColumnsCount)
		for c := range row {
			cell, err := d.ReadValue()
			if err != nil {
				return nil, err
			}
			row[c] = cell
		}
		rows.cells[i] = row
	}
	return rows, nil
}

// SchemaChangeResult carries a SchemaChange result's body: what kind of
// change, its target (KEYSPACE/TABLE/TYPE/FUNCTION/AGGREGATE), and the
// affected keyspace/object names.
type SchemaChangeResult struct {
	ChangeType string
	Target     string
	Keyspace   string
	Object     string
	Arguments  []string
}

func decodeSchemaChange(d *Decoder) (*SchemaChangeResult, error) {
	changeType, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	target, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	sc := &SchemaChangeResult{ChangeType: changeType, Target: target}
	ks, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	sc.Keyspace = ks
	switch target {
	case "KEYSPACE":
		// no further fields
	case "FUNCTION", "AGGREGATE":
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		args, err := d.ReadStringList()
		if err != nil {
			return nil, err
		}
		sc.Object, sc.Arguments = name, args
	default: // TABLE, TYPE
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		sc.Object = name
	}
	return sc, nil
}

// PreparedResult is the Prepared result returned from a PREPARE request:
// the statement id plus the bind-variable and (for v4+) result metadata.
type PreparedResult struct {
	ID             [16]byte
	VariablesMeta  Metadata
	ResultMeta     Metadata
}

func decodePrepared(d *Decoder) (*PreparedResult, error) {
	id, err := d.ReadPreparedID()
	if err != nil {
		return nil, err
	}
	varMeta, err := DecodeMetadata(d)
	if err != nil {
		return nil, err
	}
	resMeta, err := DecodeMetadata(d)
	if err != nil {
		return nil, err
	}
	return &PreparedResult{ID: id, VariablesMeta: varMeta, ResultMeta: resMeta}, nil
}

// Result is a decoded RESULT frame body: exactly one of its fields is
// set, selected by Kind.
type Result struct {
	Kind int32

	Keyspace     string              // ResultSetKeyspace
	Rows         *Rows               // ResultRows
	Prepared     *PreparedResult     // ResultPrepared
	SchemaChange *SchemaChangeResult // ResultSchemaChange
}

// DecodeResult reads a RESULT frame's body in full.
func DecodeResult(body []byte) (*Result, error) {
	d := NewDecoder(body)
	kind, err := d.ReadInt()
	if err != nil {
		return nil, err
	}
	r := &Result{Kind: kind}
	switch kind {
	case ResultVoid:
		return r, nil
	case ResultSetKeyspace:
		ks, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		r.Keyspace = ks
		return r, nil
	case ResultRows:
		rows, err := decodeRows(d)
		if err != nil {
			return nil, err
		}
		r.Rows = rows
		return r, nil
	case ResultPrepared:
		p, err := decodePrepared(d)
		if err != nil {
			return nil, err
		}
		r.Prepared = p
		return r, nil
	case ResultSchemaChange:
		sc, err := decodeSchemaChange(d)
		if err != nil {
			return nil, err
		}
		r.SchemaChange = sc
		return r, nil
	default:
		return nil, fmt.Errorf("cql: unknown result kind %#x", kind)
	}
}
