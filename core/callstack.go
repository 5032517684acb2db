package core

import (
	"github.com/ezrec/uarc/word"
)

// Frame is the execution context saved by a call and restored by ret.
type Frame[W word.Word] struct {
	Pc        W
	Dcs       [4]W
	Interrupt bool
}

// CallStack is the stack of saved frames.
type CallStack[W word.Word] struct {
	Frames []Frame[W]
}

func (cs *CallStack[W]) PushFrame(pc W, dcs [4]W, interrupt bool) {
	cs.Frames = append(cs.Frames, Frame[W]{Pc: pc, Dcs: dcs, Interrupt: interrupt})
}

func (cs *CallStack[W]) PopFrame() (frame Frame[W], err error) {
	if len(cs.Frames) == 0 {
		err = ErrCallStackUnderflow
		return
	}

	frame = cs.Frames[len(cs.Frames)-1]
	cs.Frames = cs.Frames[:len(cs.Frames)-1]
	return
}

func (cs *CallStack[W]) Depth() int {
	return len(cs.Frames)
}

func (cs *CallStack[W]) Reset() {
	if len(cs.Frames) > 0 {
		cs.Frames = cs.Frames[:0]
	}
}
