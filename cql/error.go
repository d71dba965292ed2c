// File: cql/error.go
// Author: momentics <momentics@gmail.com>
//
// Decodes an ERROR frame's body into a typed CqlError, including the
// additional per-code payload (UnavailableException, WriteTimeout, ...).
package cql

import "fmt"

// ErrorCode is the [int] error code at the head of an ERROR frame body.
type ErrorCode int32

// ErrorCode values per the CQL binary protocol v4 spec.
const (
	ErrServerError          ErrorCode = 0x0000
	ErrProtocolError        ErrorCode = 0x000A
	ErrAuthenticationError  ErrorCode = 0x0100
	ErrUnavailableException ErrorCode = 0x1000
	ErrOverloaded           ErrorCode = 0x1001
	ErrIsBootstrapping      ErrorCode = 0x1002
	ErrTruncateError        ErrorCode = 0x1003
	ErrWriteTimeout         ErrorCode = 0x1100
	ErrReadTimeout          ErrorCode = 0x1200
	ErrReadFailure          ErrorCode = 0x1300
	ErrFunctionFailure      ErrorCode = 0x1400
	ErrWriteFailure         ErrorCode = 0x1500
	ErrSyntaxError          ErrorCode = 0x2000
	ErrUnauthorized         ErrorCode = 0x2100
	ErrInvalid              ErrorCode = 0x2200
	ErrConfigureError       ErrorCode = 0x2300
	ErrAlreadyExists        ErrorCode = 0x2400
	ErrUnprepared           ErrorCode = 0x2500
)

func (c ErrorCode) String() string {
	switch c {
	case ErrServerError:
		return "SERVER_ERROR"
	case ErrProtocolError:
		return "PROTOCOL_ERROR"
	case ErrAuthenticationError:
		return "AUTHENTICATION_ERROR"
	case ErrUnavailableException:
		return "UNAVAILABLE_EXCEPTION"
	case ErrOverloaded:
		return "OVERLOADED"
	case ErrIsBootstrapping:
		return "IS_BOOTSTRAPPING"
	case ErrTruncateError:
		return "TRUNCATE_ERROR"
	case ErrWriteTimeout:
		return "WRITE_TIMEOUT"
	case ErrReadTimeout:
		return "READ_TIMEOUT"
	case ErrReadFailure:
		return "READ_FAILURE"
	case ErrFunctionFailure:
		return "FUNCTION_FAILURE"
	case ErrWriteFailure:
		return "WRITE_FAILURE"
	case ErrSyntaxError:
		return "SYNTAX_ERROR"
	case ErrUnauthorized:
		return "UNAUTHORIZED"
	case ErrInvalid:
		return "INVALID"
	case ErrConfigureError:
		return "CONFIGURE_ERROR"
	case ErrAlreadyExists:
		return "ALREADY_EXISTS"
	case ErrUnprepared:
		return "UNPREPARED"
	default:
		return fmt.Sprintf("ERROR(%#x)", int32(c))
	}
}

// WriteType describes the kind of write that failed or timed out.
type WriteType string

// WriteType values per the CQL binary protocol v4 spec.
const (
	WriteSimple        WriteType = "SIMPLE"
	WriteBatch         WriteType = "BATCH"
	WriteUnloggedBatch WriteType = "UNLOGGED_BATCH"
	WriteCounter       WriteType = "COUNTER"
	WriteBatchLog      WriteType = "BATCH_LOG"
	WriteCas           WriteType = "CAS"
	WriteView          WriteType = "VIEW"
	WriteCDC           WriteType = "CDC"
)

// UnavailableException is the additional payload for ErrUnavailableException.
type UnavailableException struct {
	CL       Consistency
	Required int32
	Alive    int32
}

// WriteTimeout is the additional payload for ErrWriteTimeout.
type WriteTimeout struct {
	CL        Consistency
	Received  int32
	BlockFor  int32
	WriteType WriteType
}

// ReadTimeout is the additional payload for ErrReadTimeout.
type ReadTimeout struct {
	CL          Consistency
	Received    int32
	BlockFor    int32
	DataPresent uint8
}

// ReplicaRespondedWithData reports whether the replica asked for data
// actually responded with it (DataPresent != 0).
func (r ReadTimeout) ReplicaRespondedWithData() bool { return r.DataPresent != 0 }

// ReadFailure is the additional payload for ErrReadFailure.
type ReadFailure struct {
	CL          Consistency
	Received    int32
	BlockFor    int32
	NumFailures int32
	DataPresent uint8
}

// ReplicaRespondedWithData reports whether the replica asked for data
// actually responded with it (DataPresent != 0).
func (r ReadFailure) ReplicaRespondedWithData() bool { return r.DataPresent != 0 }

// FunctionFailure is the additional payload for ErrFunctionFailure.
type FunctionFailure struct {
	Keyspace string
	Function string
	ArgTypes []string
}

// WriteFailure is the additional payload for ErrWriteFailure.
type WriteFailure struct {
	CL          Consistency
	Received    int32
	BlockFor    int32
	NumFailures int32
	WriteType   WriteType
}

// AlreadyExists is the additional payload for ErrAlreadyExists.
type AlreadyExists struct {
	Keyspace string
	Table    string
}

// Unprepared is the additional payload for ErrUnprepared: the unknown
// statement id, which the caller re-PREPAREs and resubmits against.
type Unprepared struct {
	ID [16]byte
}

// CqlError is a fully decoded ERROR frame.
type CqlError struct {
	Code    ErrorCode
	Message string

	// Exactly one of the following is set, selected by Code. All are
	// the zero value when Code carries no additional payload.
	Unavailable     *UnavailableException
	WriteTimeoutErr *WriteTimeout
	ReadTimeoutErr  *ReadTimeout
	ReadFailureErr  *ReadFailure
	FunctionFail    *FunctionFailure
	WriteFailureErr *WriteFailure
	Exists          *AlreadyExists
	UnpreparedErr   *Unprepared
}

func (e *CqlError) Error() string {
	return fmt.Sprintf("cql: %s: %s", e.Code, e.Message)
}

func decodeWriteType(d *Decoder) (WriteType, error) {
	s, err := d.ReadString()
	if err != nil {
		return "", err
	}
	switch WriteType(s) {
	case WriteSimple, WriteBatch, WriteUnloggedBatch, WriteCounter, WriteBatchLog, WriteCas, WriteView, WriteCDC:
		return WriteType(s), nil
	default:
		return "", fmt.Errorf("cql: unexpected write type %q", s)
	}
}

// DecodeCqlError reads an ERROR frame's full body: code, message, and
// code-specific additional information.
func DecodeCqlError(body []byte) (*CqlError, error) {
	d := NewDecoder(body)
	code, err := d.ReadInt()
	if err != nil {
		return nil, err
	}
	msg, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	e := &CqlError{Code: ErrorCode(code), Message: msg}

	switch e.Code {
	case ErrUnavailableException:
		clCode, err := d.ReadShort()
		if err != nil {
			return nil, err
		}
		cl, err := ParseConsistency(clCode)
		if err != nil {
			return nil, err
		}
		required, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		alive, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		e.Unavailable = &UnavailableException{CL: cl, Required: required, Alive: alive}
	case ErrWriteTimeout:
		clCode, err := d.ReadShort()
		if err != nil {
			return nil, err
		}
		cl, err := ParseConsistency(clCode)
		if err != nil {
			return nil, err
		}
		received, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		blockFor, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		wt, err := decodeWriteType(d)
		if err != nil {
			return nil, err
		}
		e.WriteTimeoutErr = &WriteTimeout{CL: cl, Received: received, BlockFor: blockFor, WriteType: wt}
	case ErrReadTimeout:
		clCode, err := d.ReadShort()
		if err != nil {
			return nil, err
		}
		cl, err := ParseConsistency(clCode)
		if err != nil {
			return nil, err
		}
		received, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		blockFor, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		dataPresent, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		e.ReadTimeoutErr = &ReadTimeout{CL: cl, Received: received, BlockFor: blockFor, DataPresent: dataPresent}
	case ErrReadFailure:
		clCode, err := d.ReadShort()
		if err != nil {
			return nil, err
		}
		cl, err := ParseConsistency(clCode)
		if err != nil {
			return nil, err
		}
		received, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		blockFor, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		numFailures, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		dataPresent, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		e.ReadFailureErr = &ReadFailure{CL: cl, Received: received, BlockFor: blockFor, NumFailures: numFailures, DataPresent: dataPresent}
	case ErrFunctionFailure:
		keyspace, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		function, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		argTypes, err := d.ReadStringList()
		if err != nil {
			return nil, err
		}
		e.FunctionFail = &FunctionFailure{Keyspace: keyspace, Function: function, ArgTypes: argTypes}
	case ErrWriteFailure:
		clCode, err := d.ReadShort()
		if err != nil {
			return nil, err
		}
		cl, err := ParseConsistency(clCode)
		if err != nil {
			return nil, err
		}
		received, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		blockFor, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		numFailures, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		wt, err := decodeWriteType(d)
		if err != nil {
			return nil, err
		}
		e.WriteFailureErr = &WriteFailure{CL: cl, Received: received, BlockFor: blockFor, NumFailures: numFailures, WriteType: wt}
	case ErrAlreadyExists:
		ks, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		table, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		e.Exists = &AlreadyExists{Keyspace: ks, Table: table}
	case ErrUnprepared:
		id, err := d.ReadPreparedID()
		if err != nil {
			return nil, err
		}
		e.UnpreparedErr = &Unprepared{ID: id}
	}
	return e, nil
}
