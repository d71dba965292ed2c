// File: cql/query.go
// Author: momentics <momentics@gmail.com>
//
// QueryBuilder assembles a QUERY (or, via ExecuteBuilder, an EXECUTE)
// frame body. Go has no practical equivalent of the Rust driver's
// compile-time type-state builder, so instead of a different builder
// type per stage this enforces the same statement -> consistency ->
// values -> flags -> build call order at runtime, panicking on misuse.
package cql

// Query flag bits (v4), set in the query_parameters flags byte.
const (
	QueryFlagValues               uint8 = 0x01
	QueryFlagSkipMetadata         uint8 = 0x02
	QueryFlagPageSize             uint8 = 0x04
	QueryFlagWithPagingState      uint8 = 0x08
	QueryFlagWithSerialConsistency uint8 = 0x10
	QueryFlagWithDefaultTimestamp uint8 = 0x20
	QueryFlagWithNamesForValues   uint8 = 0x40
)

type queryStage int

const (
	stageInit queryStage = iota
	stageStatement
	stageConsistency
	stageValues
	stageBuilt
)

// QueryBuilder builds a QUERY frame body.
type QueryBuilder struct {
	cql   string
	stage queryStage

	consistency Consistency
	values      []any
	names       []string

	pageSize             int32
	hasPageSize          bool
	pagingState          []byte
	serialConsistency    Consistency
	hasSerialConsistency bool
	timestamp            int64
	hasTimestamp         bool
	skipMetadata         bool
}

// NewQuery starts a query builder for the given CQL text.
func NewQuery(cql string) *QueryBuilder {
	return &QueryBuilder{cql: cql, stage: stageStatement}
}

// Consistency sets the query's consistency level. Must follow NewQuery.
func (b *QueryBuilder) Consistency(cl Consistency) *QueryBuilder {
	if b.stage != stageStatement {
		panic("cql: QueryBuilder.Consistency called out of order")
	}
	b.consistency = cl
	b.stage = stageConsistency
	return b
}

// Values sets the bound values, in declaration order. Must follow
// Consistency; pass no arguments for a query with no bind markers.
func (b *QueryBuilder) Values(vals ...any) *QueryBuilder {
	if b.stage != stageConsistency {
		panic("cql: QueryBuilder.Values called out of order")
	}
	b.values = vals
	b.stage = stageValues
	return b
}

// NamedValues sets named bound values (":name" markers), enabling
// QueryFlagWithNamesForValues. Must follow Consistency.
func (b *QueryBuilder) NamedValues(names []string, vals []any) *QueryBuilder {
	if b.stage != stageConsistency {
		panic("cql: QueryBuilder.NamedValues called out of order")
	}
	if len(names) != len(vals) {
		panic("cql: NamedValues name/value count mismatch")
	}
	b.names = names
	b.values = vals
	b.stage = stageValues
	return b
}

// PageSize requests n rows per page. Must follow Values/NamedValues.
func (b *QueryBuilder) PageSize(n int32) *QueryBuilder {
	b.requireValuesStage("PageSize")
	b.pageSize, b.hasPageSize = n, true
	return b
}

// PagingState continues a prior paged query. Must follow Values/NamedValues.
func (b *QueryBuilder) PagingState(token []byte) *QueryBuilder {
	b.requireValuesStage("PagingState")
	b.pagingState = token
	return b
}

// SerialConsistency sets the serial consistency for a conditional
// (LWT) statement. Must follow Values/NamedValues.
func (b *QueryBuilder) SerialConsistency(cl Consistency) *QueryBuilder {
	b.requireValuesStage("SerialConsistency")
	b.serialConsistency, b.hasSerialConsistency = cl, true
	return b
}

// DefaultTimestamp sets an explicit microsecond write timestamp. Must
// follow Values/NamedValues.
func (b *QueryBuilder) DefaultTimestamp(micros int64) *QueryBuilder {
	b.requireValuesStage("DefaultTimestamp")
	b.timestamp, b.hasTimestamp = micros, true
	return b
}

// SkipMetadata tells the server to omit column metadata from the Rows
// result (the caller already has it cached from a prior PREPARE). Must
// follow Values/NamedValues.
func (b *QueryBuilder) SkipMetadata() *QueryBuilder {
	b.requireValuesStage("SkipMetadata")
	b.skipMetadata = true
	return b
}

func (b *QueryBuilder) requireValuesStage(method string) {
	if b.stage != stageValues {
		panic("cql: QueryBuilder." + method + " called out of order")
	}
}

func (b *QueryBuilder) flags() uint8 {
	var f uint8
	if len(b.values) > 0 {
		f |= QueryFlagValues
	}
	if b.skipMetadata {
		f |= QueryFlagSkipMetadata
	}
	if b.hasPageSize {
		f |= QueryFlagPageSize
	}
	if b.pagingState != nil {
		f |= QueryFlagWithPagingState
	}
	if b.hasSerialConsistency {
		f |= QueryFlagWithSerialConsistency
	}
	if b.hasTimestamp {
		f |= QueryFlagWithDefaultTimestamp
	}
	if len(b.names) > 0 {
		f |= QueryFlagWithNamesForValues
	}
	return f
}

func (b *QueryBuilder) appendParameters(buf []byte) []byte {
	buf = WriteShort(buf, uint16(b.consistency))
	buf = WriteByte(buf, b.flags())
	if len(b.values) > 0 {
		buf = WriteShort(buf, uint16(len(b.values)))
		for i, v := range b.values {
			if len(b.names) > 0 {
				buf = WriteString(buf, b.names[i])
			}
			buf = WriteValue(buf, v)
		}
	}
	if b.hasPageSize {
		buf = WriteInt(buf, b.pageSize)
	}
	if b.pagingState != nil {
		buf = WriteBytes(buf, b.pagingState)
	}
	if b.hasSerialConsistency {
		buf = WriteShort(buf, uint16(b.serialConsistency))
	}
	if b.hasTimestamp {
		buf = WriteLong(buf, b.timestamp)
	}
	return buf
}

// Build finishes the builder and returns the QUERY frame body. Must
// follow Values/NamedValues (or any of the optional flag setters).
func (b *QueryBuilder) Build() []byte {
	if b.stage != stageValues {
		panic("cql: QueryBuilder.Build called before Values/NamedValues")
	}
	b.stage = stageBuilt
	buf := WriteLongString(nil, b.cql)
	return b.appendParameters(buf)
}

// ExecuteBuilder builds an EXECUTE frame body: a prepared statement id
// followed by the same query_parameters QueryBuilder encodes.
type ExecuteBuilder struct {
	id    [16]byte
	query *QueryBuilder
}

// NewExecute starts an execute builder for a previously PREPAREd
// statement id.
func NewExecute(id [16]byte) *ExecuteBuilder {
	return &ExecuteBuilder{id: id, query: &QueryBuilder{stage: stageStatement}}
}

// Consistency sets the execution's consistency level.
func (b *ExecuteBuilder) Consistency(cl Consistency) *ExecuteBuilder {
	b.query.Consistency(cl)
	return b
}

// Values sets the bound values, in declaration order.
func (b *ExecuteBuilder) Values(vals ...any) *ExecuteBuilder {
	b.query.Values(vals...)
	return b
}

// PageSize requests n rows per page.
func (b *ExecuteBuilder) PageSize(n int32) *ExecuteBuilder {
	b.query.PageSize(n)
	return b
}

// PagingState continues a prior paged query.
func (b *ExecuteBuilder) PagingState(token []byte) *ExecuteBuilder {
	b.query.PagingState(token)
	return b
}

// SerialConsistency sets the serial consistency for a conditional (LWT)
// statement.
func (b *ExecuteBuilder) SerialConsistency(cl Consistency) *ExecuteBuilder {
	b.query.SerialConsistency(cl)
	return b
}

// DefaultTimestamp sets an explicit microsecond write timestamp.
func (b *ExecuteBuilder) DefaultTimestamp(micros int64) *ExecuteBuilder {
	b.query.DefaultTimestamp(micros)
	return b
}

// SkipMetadata tells the server to omit column metadata from the Rows
// result.
func (b *ExecuteBuilder) SkipMetadata() *ExecuteBuilder {
	b.query.SkipMetadata()
	return b
}

// Build finishes the builder and returns the EXECUTE frame body.
func (b *ExecuteBuilder) Build() []byte {
	if b.query.stage != stageValues {
		panic("cql: ExecuteBuilder.Build called before Values")
	}
	b.query.stage = stageBuilt
	buf := WriteShortBytes(nil, b.id[:])
	return b.query.appendParameters(buf)
}

// EncodePrepare builds a PREPARE frame body: a [long string] of the CQL
// statement to prepare.
func EncodePrepare(cql string) []byte {
	return WriteLongString(nil, cql)
}
