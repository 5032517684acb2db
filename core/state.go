package core

import (
	"fmt"
	"strings"

	"github.com/ezrec/uarc/bus"
	"github.com/ezrec/uarc/word"
)

// HaltReason is why a program stopped running.
type HaltReason int

const (
	HALT_END      = HaltReason(0) // Program counter left the program.
	HALT_KILLED   = HaltReason(1) // A kill was accepted.
	HALT_TRAP     = HaltReason(2) // An instruction trapped.
	HALT_CANCELED = HaltReason(3) // The core's context was cancelled.
)

var haltName = map[HaltReason]string{
	HALT_END:      "end",
	HALT_KILLED:   "killed",
	HALT_TRAP:     "trap",
	HALT_CANCELED: "canceled",
}

func (reason HaltReason) String() string {
	name, ok := haltName[reason]
	if !ok {
		return f("halt(%d)", int(reason))
	}
	return name
}

// Observer is notified, on the core's goroutine, each time a program stops.
type Observer[W word.Word] interface {
	Halted(cpu *Core0[W], reason HaltReason, err error)
}

// Stats are the core's activity counters.
type Stats struct {
	Ticks           int // Instructions executed.
	Inceptions      int // Programs loaded.
	InceptsRejected int // Inceptions refused by permission.
	KillsAccepted   int // Kills honoured.
	KillsRejected   int // Kills refused by permission.
	KillsIdle       int // Kills received with no program loaded.
	Interrupts      int // Words accepted by recv.
	Streams         int // Data streams loaded.
}

// State is a copy of the architectural state of a core.
type State[W word.Word] struct {
	Running    bool
	Pc         W
	Dcs        [4]W
	Carry      bool
	Overflow   bool
	Interrupt  bool
	Permission bus.Permission
	Stack      []W
	Frames     int
	Conveyor   []W
	Data       []W
	Selected   []bool
	Enabled    []bool
	Stats      Stats
}

// Snapshot copies the core's state.
func (cpu *Core0[W]) Snapshot() (state State[W]) {
	state = State[W]{
		Running:    cpu.Running,
		Pc:         cpu.Pc,
		Dcs:        cpu.Dcs,
		Carry:      cpu.Carry,
		Overflow:   cpu.Overflow,
		Interrupt:  cpu.Interrupt,
		Permission: cpu.Permission,
		Stack:      cpu.DStack.Values(),
		Frames:     cpu.CStack.Depth(),
		Conveyor:   cpu.Conveyor.Values(),
		Data:       append([]W(nil), cpu.Data...),
		Stats:      cpu.Stats,
	}

	for _, slot := range cpu.Buses {
		state.Selected = append(state.Selected, slot.Selected)
		state.Enabled = append(state.Enabled, slot.Enabled)
	}

	return
}

// String returns the current core state as a string.
func (cpu *Core0[W]) String() string {
	return cpu.Snapshot().String()
}

// String returns the state as a register dump.
func (state State[W]) String() (text string) {
	flag := func(name string, set bool) string {
		if set {
			return strings.ToUpper(name)
		}
		return name
	}

	words := func(values []W) string {
		if len(values) == 0 {
			return "-"
		}
		strs := make([]string, len(values))
		for n, value := range values {
			strs[n] = fmt.Sprintf("%d", value)
		}
		return strings.Join(strs, " ")
	}

	regs := []string{"pc", "dcs", "flags", "perm", "stack", "frames", "conveyor"}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%d", state.Pc)
			if state.Running {
				strval += " (running)"
			}
		case "dcs":
			strval = words(state.Dcs[:])
		case "flags":
			strval = fmt.Sprintf("%v %v %v", flag("c", state.Carry), flag("o", state.Overflow), flag("i", state.Interrupt))
		case "perm":
			strval = state.Permission.String()
		case "stack":
			strval = words(state.Stack)
		case "frames":
			strval = fmt.Sprintf("%d", state.Frames)
		case "conveyor":
			strval = words(state.Conveyor)
		}
		text += fmt.Sprintf("% 8s: %v\n", reg, strval)
	}

	return
}
