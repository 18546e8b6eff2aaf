package mff

import "errors"

// Decode-time errors. All are fatal: replay stops at the first one; the
// format never silently drops an event.
var (
	// ErrShortRead marks a truncated record: the stream ended before a
	// record was fully readable.
	ErrShortRead = errors.New("mff: truncated record")

	// ErrUnknownSID marks a decoded "known" reference whose sequence ID is
	// not present in the reference dictionary.
	ErrUnknownSID = errors.New("mff: sequence id not present in dictionary")

	// ErrInvalidCommand marks an opcode outside the six defined values.
	ErrInvalidCommand = errors.New("mff: invalid command")

	// ErrBadFlags marks OFFENDER_KNOWN set without OFFENDER_PRESENT.
	ErrBadFlags = errors.New("mff: offender known without offender present")
)

// ErrEmptyChain is returned by Writer.UnconfirmTip when there is no
// confirmed tip to unconfirm. The write side refuses this; the read side
// tolerates it (see Reader.Iterate).
var ErrEmptyChain = errors.New("mff: unconfirm_tip on empty chain")

// ErrNonMonotonicTime marks a write call whose timestamp regresses
// relative to the last event pushed.
var ErrNonMonotonicTime = errors.New("mff: timestamp regressed")
