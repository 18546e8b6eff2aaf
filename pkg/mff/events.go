package mff

import "fmt"

// Opcode occupies the low 3 bits of the command byte.
type Opcode uint8

const (
	CmdTimeSet            Opcode = 0x00
	CmdMempoolIn          Opcode = 0x01
	CmdMempoolOut         Opcode = 0x02
	CmdMempoolInvalidated Opcode = 0x03
	CmdBlockMined         Opcode = 0x04
	CmdBlockUnmined       Opcode = 0x05
)

const opcodeMask uint8 = 0x07

// Command byte flag bits, above the 3-bit opcode.
const (
	FlagOffenderPresent uint8 = 1 << 3 // 0b00001000
	FlagOffenderKnown   uint8 = 1 << 4 // 0b00010000
	FlagPrincipalKnown  uint8 = 1 << 5 // 0b00100000
)

// OpcodeOf extracts the opcode from a full command byte.
func OpcodeOf(cmd uint8) Opcode {
	return Opcode(cmd & opcodeMask)
}

// String names an opcode for diagnostics; unrecognized values print their
// numeric form rather than panicking.
func (op Opcode) String() string {
	switch op {
	case CmdTimeSet:
		return "TIME_SET"
	case CmdMempoolIn:
		return "MEMPOOL_IN"
	case CmdMempoolOut:
		return "MEMPOOL_OUT"
	case CmdMempoolInvalidated:
		return "MEMPOOL_INVALIDATED"
	case CmdBlockMined:
		return "BLOCK_MINED"
	case CmdBlockUnmined:
		return "BLOCK_UNMINED"
	default:
		return fmt.Sprintf("opcode(0x%02x)", uint8(op))
	}
}

// OpcodeString names the opcode packed into a full command byte, for
// callers that only have the raw byte (diagnostics, the mffcat CLI).
func OpcodeString(cmd uint8) string {
	return OpcodeOf(cmd).String()
}

// Reason codes, a closed one-byte enumeration. Unknown values on read are
// passed through opaquely to the delegate rather than rejected.
const (
	ReasonUnknown   uint8 = 0
	ReasonExpired   uint8 = 1
	ReasonSizeLimit uint8 = 2
	ReasonReorg     uint8 = 3
	ReasonConflict  uint8 = 4
	ReasonReplaced  uint8 = 5
)

// ReasonString names a reason code for diagnostics.
func ReasonString(reason uint8) string {
	switch reason {
	case ReasonUnknown:
		return "unknown"
	case ReasonExpired:
		return "expired"
	case ReasonSizeLimit:
		return "sizelimit"
	case ReasonReorg:
		return "reorg"
	case ReasonConflict:
		return "conflict"
	case ReasonReplaced:
		return "replaced"
	default:
		return fmt.Sprintf("reason(0x%02x)", reason)
	}
}
