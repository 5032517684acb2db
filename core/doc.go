// Package core implements the Core0 processor and its assembler.
//
// Core0 is a stack machine with a byte-encoded instruction stream, private
// word-addressable data memory, four data-counter registers (dc0-dc3), a data
// stack, a call stack, and a sixteen-word conveyor that records the most
// recent interrupts. Cores talk to each other over the rendezvous buses of
// package bus: a peer can stream data into a core, incept it with a new
// program, interrupt it with a word, or kill the running program.
//
// The assembler provides a small assembly language for the Core0 instruction
// set, with labels, equates, macros and compile-time expression evaluation.
package core
