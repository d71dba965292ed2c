// File: worker/worker.go
// Author: momentics <momentics@gmail.com>
//
// Markers decode a RESULT frame body into a typed value: Go generics
// stand in directly for the Rust reference's per-query Marker
// associated type, with no code generation needed.
package worker

import (
	"fmt"

	"github.com/nativecql/corecql/cql"
)

// Marker decodes a RESULT frame body into T, the pure-function
// decoding step a BasicWorker/RetryableWorker hands off to once a
// response arrives.
type Marker[T any] interface {
	Decode(body []byte) (T, error)
}

// VoidMarker decodes a Void RESULT, returned by statements with no
// row output (INSERT/UPDATE/DELETE without a condition, DDL).
type VoidMarker struct{}

// Decode validates the RESULT kind and discards the rest of the body.
func (VoidMarker) Decode(body []byte) (struct{}, error) {
	res, err := cql.DecodeResult(body)
	if err != nil {
		return struct{}{}, err
	}
	if res.Kind != cql.ResultVoid {
		return struct{}{}, fmt.Errorf("worker: expected Void result, got kind %#x", res.Kind)
	}
	return struct{}{}, nil
}

// RowsMarker decodes a Rows RESULT into []T, using NewDest to bind scan
// destinations for each row the same way cql.ScanAll does.
type RowsMarker[T any] struct {
	NewDest func(*T) []any
}

// Decode validates the RESULT kind and scans every row into a T.
func (m RowsMarker[T]) Decode(body []byte) ([]T, error) {
	res, err := cql.DecodeResult(body)
	if err != nil {
		return nil, err
	}
	if res.Kind != cql.ResultRows {
		return nil, fmt.Errorf("worker: expected Rows result, got kind %#x", res.Kind)
	}
	return cql.ScanAll(res.Rows, m.NewDest)
}

// LwtResult is a lightweight-transaction statement's outcome: whether
// its IF condition applied, and, when it didn't, the row of current
// values the server returned alongside [applied].
type LwtResult[T any] struct {
	Applied bool
	Current T
}

// LwtMarker decodes the single-row Rows RESULT a conditional statement
// (INSERT/UPDATE ... IF) returns: just the [applied] column on success,
// or [applied] plus the full current row on failure.
type LwtMarker[T any] struct {
	NewDest func(*T) []any
}

// Decode distinguishes the two shapes by column count rather than
// assuming NewDest always binds every column: an applied condition's
// RESULT carries only the [applied] boolean.
func (m LwtMarker[T]) Decode(body []byte) (LwtResult[T], error) {
	res, err := cql.DecodeResult(body)
	if err != nil {
		return LwtResult[T]{}, err
	}
	if res.Kind != cql.ResultRows || res.Rows.Count() == 0 {
		return LwtResult[T]{}, fmt.Errorf("worker: expected a non-empty Rows result for an LWT response")
	}

	var out LwtResult[T]
	if res.Rows.Metadata.ColumnsCount == 1 {
		if _, err := res.Rows.Scan(0, &out.Applied); err != nil {
			return LwtResult[T]{}, err
		}
		return out, nil
	}

	dest := append([]any{&out.Applied}, m.NewDest(&out.Current)...)
	if _, err := res.Rows.Scan(0, dest...); err != nil {
		return LwtResult[T]{}, err
	}
	return out, nil
}
