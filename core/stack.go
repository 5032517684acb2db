package core

import (
	"github.com/ezrec/uarc/word"
)

// DataStack is the operand stack. The top of the stack is the last element.
type DataStack[W word.Word] struct {
	Data []W
}

func (s *DataStack[W]) Push(value W) {
	s.Data = append(s.Data, value)
}

func (s *DataStack[W]) Pop() (value W, err error) {
	value, ok := s.Peek()
	if !ok {
		err = ErrStackUnderflow
		return
	}
	s.Data = s.Data[:len(s.Data)-1]
	return
}

func (s *DataStack[W]) Peek() (value W, ok bool) {
	if s.Empty() {
		return
	}

	return s.Data[len(s.Data)-1], true
}

func (s *DataStack[W]) Empty() bool {
	return len(s.Data) == 0
}

func (s *DataStack[W]) Depth() int {
	return len(s.Data)
}

func (s *DataStack[W]) Reset() {
	if len(s.Data) > 0 {
		s.Data = s.Data[:0]
	}
}

// Values returns a copy of the stack, bottom first.
func (s *DataStack[W]) Values() []W {
	return append([]W(nil), s.Data...)
}

// Replace replaces the top of the stack with fn(top).
// On any error the stack is left untouched.
func (s *DataStack[W]) Replace(fn func(value W) (W, error)) (err error) {
	value, ok := s.Peek()
	if !ok {
		err = ErrStackUnderflow
		return
	}

	value, err = fn(value)
	if err != nil {
		return
	}

	s.Data[len(s.Data)-1] = value
	return
}

// PopTransform pops a value and pushes fn(value).
func (s *DataStack[W]) PopTransform(fn func(value W) W) (err error) {
	return s.Replace(func(value W) (W, error) { return fn(value), nil })
}

// index returns the slice index of the element pos slots below the top.
// The bottom element is never addressable.
func (s *DataStack[W]) index(pos int) (index int, err error) {
	if pos < 0 || pos >= len(s.Data)-1 {
		err = ErrIndexOutOfRange
		return
	}

	index = len(s.Data) - 1 - pos
	return
}

// Rotate moves the element pos slots below the top onto the top.
func (s *DataStack[W]) Rotate(pos int) (err error) {
	index, err := s.index(pos)
	if err != nil {
		return
	}

	value := s.Data[index]
	copy(s.Data[index:], s.Data[index+1:])
	s.Data[len(s.Data)-1] = value
	return
}

// Copy pushes a duplicate of the element pos slots below the top.
func (s *DataStack[W]) Copy(pos int) (err error) {
	index, err := s.index(pos)
	if err != nil {
		return
	}

	s.Push(s.Data[index])
	return
}
