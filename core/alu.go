package core

import (
	"github.com/ezrec/uarc/word"
)

// aluInc adds one.
// Overflow: a non-negative input became negative.
// Carry: the result wrapped to zero. So inc of the largest word sets
// overflow and leaves carry clear.
func aluInc[W word.Word](value W) (output W, overflow, carry bool) {
	output = word.Add(value, 1)
	overflow = !word.Negative(value) && word.Negative(output)
	carry = output == 0
	return
}

// aluDec subtracts one.
// Overflow: a negative input became non-negative.
// Carry: no borrow occurred, i.e. the input was not zero.
func aluDec[W word.Word](value W) (output W, overflow, carry bool) {
	output = word.Sub(value, 1)
	overflow = word.Negative(value) && !word.Negative(output)
	carry = value != 0
	return
}

// aluAdd adds two words.
// Overflow: operands of equal sign produced a result of the other sign.
// Carry: both operands negative and the result non-negative.
func aluAdd[W word.Word](a, b W) (output W, overflow, carry bool) {
	output = word.Add(a, b)
	sign := word.Negative(a)
	overflow = sign == word.Negative(b) && word.Negative(output) != sign
	carry = word.Negative(a) && word.Negative(b) && !word.Negative(output)
	return
}
