package core

import (
	"iter"
)

// Line is a line of assembled source with the bytes it generated.
type Line struct {
	LineNo int
	Pc     int
	Words  []string
	Bytes  []byte
}

type Program struct {
	Lines []Line
}

type Debug struct {
	*Line
	Index int
}

// Debug finds the source line that generated the byte at pc.
func (prog *Program) Debug(pc int) (dbg Debug) {
	for n, line := range prog.Lines {
		if pc >= line.Pc && pc < line.Pc+len(line.Bytes) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: pc - line.Pc,
			}
			break
		}
	}

	return
}

// Binary returns the program memory image.
func (prog *Program) Binary() (bins []byte) {
	for _, b := range prog.Bytes() {
		bins = append(bins, b)
	}

	return
}

// Bytes iterates the program bytes with their program counters.
func (prog *Program) Bytes() iter.Seq2[int, byte] {
	return func(yield func(pc int, b byte) bool) {
		for _, line := range prog.Lines {
			for n, b := range line.Bytes {
				if !yield(line.Pc+n, b) {
					return
				}
			}
		}
	}
}
