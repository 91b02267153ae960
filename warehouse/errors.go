package warehouse

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrorCode is one of the stable wire error codes reported to clients.
type ErrorCode string

const (
	CodeMsgFormat              ErrorCode = "MSG_FORMAT"
	CodeMsgUnexpected          ErrorCode = "MSG_UNEXPECTED"
	CodeInvalidArgs            ErrorCode = "INVALID_ARGS"
	CodeRackCapExceeded        ErrorCode = "RACK_CAP_EXCEEDED"
	CodeOrderInfeasibleCollect ErrorCode = "ORDER_INFEASIBLE_COLLECT"
	CodeOrderInfeasibleRefill  ErrorCode = "ORDER_INFEASIBLE_REFILL"
	CodeServer                 ErrorCode = "SERVER"
)

func init() {
	// Canonical English reason strings for each wire error code. Kept in a
	// golang.org/x/text/message catalog rather than a bare map so additional
	// locales can be registered later without touching any call site.
	message.SetString(language.English, string(CodeMsgFormat), "the message could not be decoded")
	message.SetString(language.English, string(CodeMsgUnexpected), "the message type is not valid in the current state")
	message.SetString(language.English, string(CodeInvalidArgs), "the message arguments are invalid")
	message.SetString(language.English, string(CodeRackCapExceeded), "the rack's capacity would be exceeded")
	message.SetString(language.English, string(CodeOrderInfeasibleCollect), "the order requests more units than are available")
	message.SetString(language.English, string(CodeOrderInfeasibleRefill), "the refill would exceed the rack's capacity")
	message.SetString(language.English, string(CodeServer), "an internal server error occurred")
}

// reasonPrinter renders canonical reason strings; package-level since the
// catalog above is immutable after init.
var reasonPrinter = message.NewPrinter(language.English)

// Reason returns the canonical human-readable reason string for code.
func Reason(code ErrorCode) string {
	return reasonPrinter.Sprintf(string(code))
}

// Error is an input-validation error: a rejection at the boundary with no
// state change, carrying a stable code and machine-readable args that the
// transport layer turns into an ACK_* ERROR message.
type Error struct {
	Code   ErrorCode
	Reason string
	ID     any
	Args   []any
}

// NewError builds an Error, filling Reason from the catalog.
func NewError(code ErrorCode, id any, args ...any) *Error {
	return &Error{Code: code, Reason: Reason(code), ID: id, Args: args}
}

func (e *Error) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s: %s (id=%v, args=%v)", e.Code, e.Reason, e.ID, e.Args)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// FatalError represents an unexpected exception or transport I/O failure.
// Receiving one must transition the warehouse to IDLE, drop plans and
// release bound facilities.
type FatalError struct {
	Cause error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", CodeServer, e.Cause)
}

func (e *FatalError) Unwrap() error { return e.Cause }
