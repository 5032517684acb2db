package core

import (
	"github.com/ezrec/uarc/word"
)

const (
	CONVEYOR_SIZE = 16 // Conveyor slots.
)

// Conveyor is a fixed-capacity double-ended buffer. The zero value holds
// CONVEYOR_SIZE zero words.
type Conveyor[W word.Word] struct {
	slots  [CONVEYOR_SIZE]W
	head   int // Slot index of the front element.
	vacant int // Number of removed, not yet refilled, slots.
}

func (cv *Conveyor[W]) Len() int {
	return CONVEYOR_SIZE - cv.vacant
}

// RemoveRear drops the oldest element.
func (cv *Conveyor[W]) RemoveRear() (err error) {
	if cv.Len() == 0 {
		err = ErrConveyorEmpty
		return
	}

	rear := (cv.head + cv.Len() - 1) % CONVEYOR_SIZE
	cv.slots[rear] = 0
	cv.vacant++
	return
}

// InsertFront adds an element at the front.
func (cv *Conveyor[W]) InsertFront(value W) (err error) {
	if cv.vacant == 0 {
		err = ErrConveyorFull
		return
	}

	cv.head = (cv.head + CONVEYOR_SIZE - 1) % CONVEYOR_SIZE
	cv.slots[cv.head] = value
	cv.vacant--
	return
}

// At returns the element index slots behind the front.
func (cv *Conveyor[W]) At(index int) (value W, ok bool) {
	if index < 0 || index >= cv.Len() {
		return
	}

	return cv.slots[(cv.head+index)%CONVEYOR_SIZE], true
}

// Values returns the elements front to back.
func (cv *Conveyor[W]) Values() (values []W) {
	values = make([]W, cv.Len())
	for n := range values {
		values[n], _ = cv.At(n)
	}
	return
}

// Reset refills the conveyor with zero words.
func (cv *Conveyor[W]) Reset() {
	*cv = Conveyor[W]{}
}
