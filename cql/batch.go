// File: cql/batch.go
// Author: momentics <momentics@gmail.com>
//
// BatchBuilder assembles a BATCH frame body: a list of QUERY/EXECUTE
// statements sharing one consistency level, applied atomically (Logged)
// or not (Unlogged), or as a counter batch. Same runtime call-order
// enforcement as QueryBuilder, for the same reason (see query.go).
package cql

// BatchType selects atomicity semantics for a BATCH request.
type BatchType uint8

// BatchType values per the CQL binary protocol v4 spec.
const (
	BatchLogged   BatchType = 0
	BatchUnlogged BatchType = 1
	BatchCounter  BatchType = 2
)

// Batch flag bits, the flags byte following consistency in a BATCH body.
const (
	BatchFlagWithSerialConsistency uint8 = 0x10
	BatchFlagWithDefaultTimestamp  uint8 = 0x20
)

type batchStage int

const (
	batchStageInit batchStage = iota
	batchStageType
	batchStageStatements
	batchStageBuilt
)

type batchStatement struct {
	isPrepared bool
	cql        string
	id         [16]byte
	values     []any
}

// BatchBuilder builds a BATCH frame body.
type BatchBuilder struct {
	stage      batchStage
	batchType  BatchType
	statements []batchStatement

	consistency          Consistency
	hasConsistency       bool
	serialConsistency    Consistency
	hasSerialConsistency bool
	timestamp            int64
	hasTimestamp         bool
}

// NewBatch starts a batch builder.
func NewBatch() *BatchBuilder {
	return &BatchBuilder{stage: batchStageInit}
}

// Logged sets the batch type to LOGGED (atomic across partitions, the
// default CQL BATCH behavior).
func (b *BatchBuilder) Logged() *BatchBuilder { return b.setType(BatchLogged) }

// Unlogged sets the batch type to UNLOGGED (no atomicity guarantee,
// lower overhead).
func (b *BatchBuilder) Unlogged() *BatchBuilder { return b.setType(BatchUnlogged) }

// Counter sets the batch type to COUNTER (statements must all be
// counter updates).
func (b *BatchBuilder) Counter() *BatchBuilder { return b.setType(BatchCounter) }

func (b *BatchBuilder) setType(t BatchType) *BatchBuilder {
	if b.stage != batchStageInit {
		panic("cql: BatchBuilder batch type set twice or after statements")
	}
	b.batchType = t
	b.stage = batchStageType
	return b
}

// Statement appends a plain CQL text statement with its bound values.
func (b *BatchBuilder) Statement(cql string, values ...any) *BatchBuilder {
	b.requireTypeSet()
	b.statements = append(b.statements, batchStatement{cql: cql, values: values})
	b.stage = batchStageStatements
	return b
}

// Prepared appends a previously PREPAREd statement id with its bound
// values.
func (b *BatchBuilder) Prepared(id [16]byte, values ...any) *BatchBuilder {
	b.requireTypeSet()
	b.statements = append(b.statements, batchStatement{isPrepared: true, id: id, values: values})
	b.stage = batchStageStatements
	return b
}

func (b *BatchBuilder) requireTypeSet() {
	if b.stage != batchStageType && b.stage != batchStageStatements {
		panic("cql: BatchBuilder.Statement/Prepared called before a batch type was set")
	}
}

// Consistency sets the batch's consistency level. Must follow at least
// one Statement/Prepared call.
func (b *BatchBuilder) Consistency(cl Consistency) *BatchBuilder {
	if b.stage != batchStageStatements {
		panic("cql: BatchBuilder.Consistency called before any statement was added")
	}
	b.consistency, b.hasConsistency = cl, true
	return b
}

// SerialConsistency sets the serial consistency for a conditional batch.
func (b *BatchBuilder) SerialConsistency(cl Consistency) *BatchBuilder {
	b.serialConsistency, b.hasSerialConsistency = cl, true
	return b
}

// DefaultTimestamp sets an explicit microsecond write timestamp applied
// to every statement in the batch.
func (b *BatchBuilder) DefaultTimestamp(micros int64) *BatchBuilder {
	b.timestamp, b.hasTimestamp = micros, true
	return b
}

// Build finishes the builder and returns the BATCH frame body. Must
// follow Consistency.
func (b *BatchBuilder) Build() []byte {
	if !b.hasConsistency {
		panic("cql: BatchBuilder.Build called before Consistency")
	}
	b.stage = batchStageBuilt

	buf := WriteByte(nil, uint8(b.batchType))
	buf = WriteShort(buf, uint16(len(b.statements)))
	for _, s := range b.statements {
		if s.isPrepared {
			buf = WriteByte(buf, 1)
			buf = WriteShortBytes(buf, s.id[:])
		} else {
			buf = WriteByte(buf, 0)
			buf = WriteLongString(buf, s.cql)
		}
		buf = WriteShort(buf, uint16(len(s.values)))
		for _, v := range s.values {
			buf = WriteValue(buf, v)
		}
	}
	buf = WriteShort(buf, uint16(b.consistency))

	var flags uint8
	if b.hasSerialConsistency {
		flags |= BatchFlagWithSerialConsistency
	}
	if b.hasTimestamp {
		flags |= BatchFlagWithDefaultTimestamp
	}
	buf = WriteByte(buf, flags)
	if b.hasSerialConsistency {
		buf = WriteShort(buf, uint16(b.serialConsistency))
	}
	if b.hasTimestamp {
		buf = WriteLong(buf, b.timestamp)
	}
	return buf
}
