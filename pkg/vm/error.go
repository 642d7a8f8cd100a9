// Package vm provides error handling for the script virtual machine.
package vm

import (
	"fmt"

	"github.com/zurustar/scriptvm/pkg/opcode"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// Fatal errors - the invocation is abandoned
	ErrorStackUnderflow      ErrorType = "STACK_UNDERFLOW"
	ErrorBadOperandType      ErrorType = "BAD_OPERAND_TYPE"
	ErrorUnknownOpcode       ErrorType = "UNKNOWN_OPCODE"
	ErrorOutOfBoundsVariable ErrorType = "OUT_OF_BOUNDS_VARIABLE"
	ErrorIllegalSuspend      ErrorType = "ILLEGAL_SUSPEND"
	ErrorBadProcedure        ErrorType = "BAD_PROCEDURE"
	ErrorBadProgramCounter   ErrorType = "BAD_PROGRAM_COUNTER"
	ErrorFrameOverflow       ErrorType = "FRAME_OVERFLOW"
	ErrorStepLimit           ErrorType = "STEP_LIMIT"
	ErrorDivisionByZero      ErrorType = "DIVISION_BY_ZERO"
	ErrorUnknownScript       ErrorType = "UNKNOWN_SCRIPT"
	ErrorNotSuspended        ErrorType = "NOT_SUSPENDED"

	// Non-fatal errors - execution continues unless strict opcodes are enabled
	ErrorUnimplementedOpcode ErrorType = "UNIMPLEMENTED_OPCODE"
)

// RuntimeError represents a runtime error in the VM. The run loop fills in the
// location fields of errors returned by handlers.
type RuntimeError struct {
	Type    ErrorType
	Message string
	SID     uint32
	Program string
	Proc    string
	PC      int // -1 if unknown
	Opcode  opcode.Opcode
	Err     error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.PC >= 0 {
		return fmt.Sprintf("[%s] %s at %s:%s pc=0x%04x op=%s sid=0x%08x",
			e.Type, e.Message, e.Program, e.Proc, e.PC, e.Opcode, e.SID)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, if any.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error aborts the current invocation.
func (e *RuntimeError) IsFatal() bool {
	return e.Type != ErrorUnimplementedOpcode
}

// NewRuntimeError creates a new RuntimeError without location.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		PC:      -1,
	}
}

func newError(errType ErrorType, format string, args ...any) *RuntimeError {
	return NewRuntimeError(errType, fmt.Sprintf(format, args...))
}

// NewStackUnderflowError creates a stack underflow error.
func NewStackUnderflowError(need, have int) *RuntimeError {
	return newError(ErrorStackUnderflow, "stack underflow: need %d value(s), have %d", need, have)
}

// NewBadOperandError creates a bad operand type error.
func NewBadOperandError(want string, got Value) *RuntimeError {
	return newError(ErrorBadOperandType, "expected %s operand, got %#v", want, got)
}

// NewUnimplementedOpcodeError creates an unimplemented opcode error.
func NewUnimplementedOpcodeError(op opcode.Opcode) *RuntimeError {
	return newError(ErrorUnimplementedOpcode, "unimplemented opcode %s (0x%04x)", op, uint16(op))
}

// NewUnknownOpcodeError creates an unknown opcode error.
func NewUnknownOpcodeError(op opcode.Opcode) *RuntimeError {
	return newError(ErrorUnknownOpcode, "unknown opcode 0x%04x", uint16(op))
}

// NewOutOfBoundsError creates an out of bounds variable error.
func NewOutOfBoundsError(scope string, index, size int) *RuntimeError {
	return newError(ErrorOutOfBoundsVariable, "%s variable index %d out of range (size %d)", scope, index, size)
}

// NewIllegalSuspendError creates an illegal suspend error.
func NewIllegalSuspendError(message string) *RuntimeError {
	return NewRuntimeError(ErrorIllegalSuspend, message)
}

// NewDivisionByZeroError creates a division by zero error.
func NewDivisionByZeroError() *RuntimeError {
	return NewRuntimeError(ErrorDivisionByZero, "division by zero")
}

// NewFrameOverflowError creates a frame overflow error.
func NewFrameOverflowError(depth, limit int) *RuntimeError {
	return newError(ErrorFrameOverflow, "frame overflow: depth %d exceeds maximum %d", depth, limit)
}
