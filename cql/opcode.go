// File: cql/opcode.go
// Package cql implements the CQL binary protocol v4 codec: frame
// header/flags, primitive and collection value encoding, consistency
// levels, the STARTUP/AUTH handshake, QUERY/PREPARE/EXECUTE/BATCH
// request builders, RESULT decoding, and the CqlError taxonomy.
// Author: momentics <momentics@gmail.com>
package cql

// ProtocolVersion is the only wire version this driver speaks.
const ProtocolVersion uint8 = 4

// Opcode identifies the kind of message carried by a frame body.
type Opcode uint8

// Opcode values per the CQL binary protocol v4 spec.
const (
	OpError         Opcode = 0x00
	OpStartup       Opcode = 0x01
	OpReady         Opcode = 0x02
	OpAuthenticate  Opcode = 0x03
	OpOptions       Opcode = 0x05
	OpSupported     Opcode = 0x06
	OpQuery         Opcode = 0x07
	OpResult        Opcode = 0x08
	OpPrepare       Opcode = 0x09
	OpExecute       Opcode = 0x0A
	OpRegister      Opcode = 0x0B
	OpEvent         Opcode = 0x0C
	OpBatch         Opcode = 0x0D
	OpAuthChallenge Opcode = 0x0E
	OpAuthResponse  Opcode = 0x0F
	OpAuthSuccess   Opcode = 0x10
)

func (o Opcode) String() string {
	switch o {
	case OpError:
		return "ERROR"
	case OpStartup:
		return "STARTUP"
	case OpReady:
		return "READY"
	case OpAuthenticate:
		return "AUTHENTICATE"
	case OpOptions:
		return "OPTIONS"
	case OpSupported:
		return "SUPPORTED"
	case OpQuery:
		return "QUERY"
	case OpResult:
		return "RESULT"
	case OpPrepare:
		return "PREPARE"
	case OpExecute:
		return "EXECUTE"
	case OpRegister:
		return "REGISTER"
	case OpEvent:
		return "EVENT"
	case OpBatch:
		return "BATCH"
	case OpAuthChallenge:
		return "AUTH_CHALLENGE"
	case OpAuthResponse:
		return "AUTH_RESPONSE"
	case OpAuthSuccess:
		return "AUTH_SUCCESS"
	default:
		return "UNKNOWN"
	}
}

// Header flag bits, byte offset 1 of the frame header.
const (
	FlagCompression  uint8 = 0x01
	FlagTracing      uint8 = 0x02
	FlagCustomPayload uint8 = 0x04
	FlagWarning      uint8 = 0x08
)

// RESULT body kinds, the first 4 bytes of a RESULT frame's body.
const (
	ResultVoid         int32 = 0x0001
	ResultRows         int32 = 0x0002
	ResultSetKeyspace  int32 = 0x0003
	ResultPrepared     int32 = 0x0004
	ResultSchemaChange int32 = 0x0005
)

// EventStreamID is reserved by the stream pool: pushed EVENT frames
// always carry stream id 0, which is never handed out to a request.
const EventStreamID int16 = 0
