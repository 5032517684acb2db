package core

import (
	"errors"

	"github.com/ezrec/uarc/translate"
)

var f = translate.From

var (
	// Core errors
	ErrStackUnderflow     = errors.New(f("stack underflow"))
	ErrCallStackUnderflow = errors.New(f("call stack underflow"))
	ErrIndexOutOfRange    = errors.New(f("index out of range"))
	ErrAddressOutOfRange  = errors.New(f("address out of range"))
	ErrStreamReadFailure  = errors.New(f("stream read failure"))
	ErrConveyorFull       = errors.New(f("conveyor full"))
	ErrConveyorEmpty      = errors.New(f("conveyor empty"))
	ErrBusMismatch        = errors.New(f("inbound and outbound bus counts differ"))
	ErrProgramEnd         = errors.New(f("program end"))
	ErrKilled             = errors.New(f("killed"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrRegisterInvalid    = errors.New(f("data counter invalid"))
	ErrByteRange          = errors.New(f("byte out of range"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
)

// Trap reports an instruction that could not complete.
type Trap struct {
	Core   int    // Core that trapped.
	Pc     int64  // Program counter of the instruction.
	Opcode Opcode // Instruction that trapped.
	Err    error  // Cause.
}

func (trap *Trap) Error() string {
	return f("core%d: trap at pc %d (%v): %v", trap.Core, trap.Pc, trap.Opcode, trap.Err)
}

func (trap *Trap) Unwrap() error {
	return trap.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
