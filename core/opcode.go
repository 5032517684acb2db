package core

import (
	"fmt"
)

// Opcode is a single Core0 instruction byte.
type Opcode byte

const (
	OP_RREAD_0 = Opcode(0x00) // rread 0
	OP_RREAD_1 = Opcode(0x01) // rread 1
	OP_RREAD_2 = Opcode(0x02) // rread 2
	OP_RREAD_3 = Opcode(0x03) // rread 3
	OP_ADD_0   = Opcode(0x04) // add 0
	OP_ADD_1   = Opcode(0x05) // add 1
	OP_ADD_2   = Opcode(0x06) // add 2
	OP_ADD_3   = Opcode(0x07) // add 3
	OP_INC     = Opcode(0x08) // inc
	OP_DEC     = Opcode(0x09) // dec
	OP_CARRY   = Opcode(0x0a) // carry
	OP_BORROW  = Opcode(0x0b) // borrow
	OP_INV     = Opcode(0x0c) // inv
	OP_FLUSH   = Opcode(0x0d) // flush
	OP_READS   = Opcode(0x0e) // reads
	OP_RET     = Opcode(0x0f) // ret
	OP_IEN     = Opcode(0x10) // ien
	OP_IDI     = Opcode(0x11) // idi
	OP_RECV    = Opcode(0x12) // recv
)

// Mnemonics of the instructions that take no operand.
var opMnemonic = map[string]Opcode{
	"inc":    OP_INC,
	"dec":    OP_DEC,
	"carry":  OP_CARRY,
	"borrow": OP_BORROW,
	"inv":    OP_INV,
	"flush":  OP_FLUSH,
	"reads":  OP_READS,
	"ret":    OP_RET,
	"ien":    OP_IEN,
	"idi":    OP_IDI,
	"recv":   OP_RECV,
}

// Mnemonics of the instructions that select a data counter.
var opSelectMnemonic = map[string]Opcode{
	"rread": OP_RREAD_0,
	"add":   OP_ADD_0,
}

var opName = func() (names map[Opcode]string) {
	names = make(map[Opcode]string, len(opMnemonic))
	for name, op := range opMnemonic {
		names[op] = name
	}
	return
}()

// Defined returns true if the opcode has a meaning. All other bytes are
// executed as no-ops.
func (op Opcode) Defined() bool {
	return op <= OP_RECV
}

// Select returns the data counter index of a register-indexed opcode.
func (op Opcode) Select() int {
	return int(op & 0x3)
}

// String returns the assembly language representation of this opcode.
func (op Opcode) String() string {
	switch {
	case op <= OP_RREAD_3:
		return fmt.Sprintf("rread %d", op.Select())
	case op <= OP_ADD_3:
		return fmt.Sprintf("add %d", op.Select())
	case op.Defined():
		return opName[op]
	}
	return fmt.Sprintf(".byte 0x%02x", byte(op))
}

// Disassemble returns the assembly text of a program, one line per byte.
func Disassemble(program []byte) (lines []string) {
	lines = make([]string, 0, len(program))
	for _, b := range program {
		lines = append(lines, Opcode(b).String())
	}
	return
}
