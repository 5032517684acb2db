// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package core

import (
	"context"
	"errors"
	"io"
	"log"

	"github.com/ezrec/uarc/bus"
	"github.com/ezrec/uarc/word"
)

// BusSlot is an outbound link to a peer. The slot index is also the bus
// index of the inbound link from the same peer.
type BusSlot[W word.Word] struct {
	Sender   *bus.SenderBus[W]
	Selected bool // Candidate for interrupt enable.
	Enabled  bool // Interrupts from this bus are accepted by recv.
}

// Core0 is the simulation context of a single core.
//
// All fields are owned by the goroutine running Begin.
type Core0[W word.Word] struct {
	Verbose      bool        // Set to enable verbose logging.
	Id           int         // Core number, for logging.
	PollInterval int         // Instructions between kill/stream polls.
	Observer     Observer[W] // Notified when a program stops.

	Running    bool           // A program is loaded and running.
	Pc         W              // Program counter.
	Dcs        [4]W           // Data counters.
	Carry      bool           // Carry flag.
	Overflow   bool           // Overflow flag.
	Interrupt  bool           // Pending interrupt flag.
	Program    []byte         // Program memory.
	Data       []W            // Data memory.
	Permission bus.Permission // Authority of the running program.

	DStack   DataStack[W] // Data stack.
	CStack   CallStack[W] // Call stack.
	Conveyor Conveyor[W]  // Recent interrupts.

	Buses []BusSlot[W] // Outbound links.

	Stats Stats

	inbox bus.Inbox[W]
}

// NewCore0 creates a core with memory words of data memory.
func NewCore0[W word.Word](memory int) (cpu *Core0[W]) {
	cpu = &Core0[W]{
		PollInterval: 1,
		Data:         make([]W, memory),
	}

	return
}

// AcquireBus creates a new inbound link, and returns the sender for it.
func (cpu *Core0[W]) AcquireBus() (sender *bus.SenderBus[W]) {
	sender, receiver := bus.MakeBus[W]()
	index := cpu.inbox.Add(receiver)

	if cpu.Verbose {
		log.Printf("core%d: acquired bus %d", cpu.Id, index)
	}

	return
}

// AppendBuses registers outbound links to peers.
func (cpu *Core0[W]) AppendBuses(senders ...*bus.SenderBus[W]) {
	for _, sender := range senders {
		cpu.Buses = append(cpu.Buses, BusSlot[W]{Sender: sender})
	}
}

// SelectBus marks a bus as a candidate for interrupt enable.
func (cpu *Core0[W]) SelectBus(index int, selected bool) (err error) {
	if index < 0 || index >= len(cpu.Buses) {
		err = ErrIndexOutOfRange
		return
	}

	cpu.Buses[index].Selected = selected
	return
}

// reset clears everything except the data memory, the links and their
// selections.
func (cpu *Core0[W]) reset() {
	cpu.Running = false
	cpu.Pc = 0
	clear(cpu.Dcs[:])
	cpu.Carry = false
	cpu.Overflow = false
	cpu.Interrupt = false
	cpu.DStack.Reset()
	cpu.CStack.Reset()
	cpu.Conveyor.Reset()
	for n := range cpu.Buses {
		cpu.Buses[n].Enabled = false
	}
}

// Load installs a program and permission and starts it from pc 0.
func (cpu *Core0[W]) Load(perm bus.Permission, program []byte) {
	cpu.reset()
	cpu.Permission = perm
	cpu.Program = append(cpu.Program[:0], program...)
	cpu.Running = true
	cpu.Stats.Inceptions++

	if cpu.Verbose {
		log.Printf("core%d: incepted %d bytes, %v", cpu.Id, len(program), perm)
	}
}

// abandon discards the running program.
func (cpu *Core0[W]) abandon() {
	cpu.reset()
	cpu.Program = cpu.Program[:0]
}

// Begin runs the core until ctx is done or a fatal error occurs.
// Killing the core's program does not return from Begin.
func (cpu *Core0[W]) Begin(ctx context.Context) (err error) {
	if cpu.inbox.Len() != len(cpu.Buses) {
		err = ErrBusMismatch
		return
	}

	defer func() {
		cpu.inbox.Close()
		for _, slot := range cpu.Buses {
			if slot.Sender != nil {
				slot.Sender.Close()
			}
		}
	}()

	for {
		err = cpu.awaitInception(ctx)
		if err != nil {
			return
		}

		var reason HaltReason
		reason, err = cpu.run(ctx)

		if cpu.Verbose {
			log.Printf("core%d: halted: %v %v", cpu.Id, reason, err)
		}

		if cpu.Observer != nil {
			cpu.Observer.Halted(cpu, reason, err)
		}

		if reason == HALT_KILLED {
			cpu.abandon()
		}

		if err != nil {
			return
		}
	}
}

// awaitInception blocks until a program is accepted. Data streams are
// loaded while waiting. Kills find no program to stop, and are dropped.
func (cpu *Core0[W]) awaitInception(ctx context.Context) (err error) {
	for !cpu.Running {
		var ev bus.Event[W]
		ev, err = cpu.inbox.Wait(ctx, bus.KIND_INCEPT|bus.KIND_STREAM|bus.KIND_KILL, nil, true)
		if err != nil {
			return
		}

		switch ev.Kind {
		case bus.KIND_STREAM:
			err = cpu.loadStream(ev.Stream)
		case bus.KIND_INCEPT:
			err = cpu.incept(ev.Incept)
		case bus.KIND_KILL:
			cpu.Stats.KillsIdle++
			if cpu.Verbose {
				log.Printf("core%d: bus %d: kill by %v ignored: no program", cpu.Id, ev.Kill.Bus, ev.Kill.Permission)
			}
		}
		if err != nil {
			return
		}
	}

	return
}

// incept loads a program if the sender may grant the requested permission.
func (cpu *Core0[W]) incept(com bus.Com[bus.Inception]) (err error) {
	inception := com.Data
	if !com.Permission.Covers(inception.Permission) {
		cpu.Stats.InceptsRejected++
		if cpu.Verbose {
			log.Printf("core%d: bus %d: incept rejected: %v cannot grant %v", cpu.Id, com.Bus, com.Permission, inception.Permission)
		}
		return
	}

	r, err := inception.Stream.Take()
	if err != nil {
		err = errors.Join(ErrStreamReadFailure, err)
		return
	}

	program, err := io.ReadAll(r)
	if err != nil {
		err = errors.Join(ErrStreamReadFailure, err)
		return
	}

	cpu.Load(inception.Permission, program)
	return
}

// loadStream copies a data payload into data memory from address 0.
func (cpu *Core0[W]) loadStream(com bus.Com[*bus.Stream]) (err error) {
	r, err := com.Data.Take()
	if err != nil {
		err = errors.Join(ErrStreamReadFailure, err)
		return
	}

	words, err := word.ReadWords[W](r)
	if err != nil {
		err = errors.Join(ErrStreamReadFailure, err)
		return
	}

	if len(words) > len(cpu.Data) {
		err = ErrAddressOutOfRange
		return
	}

	copy(cpu.Data, words)
	cpu.Stats.Streams++

	if cpu.Verbose {
		log.Printf("core%d: bus %d: streamed %d words", cpu.Id, com.Bus, len(words))
	}

	return
}

// handle deals with a stream or kill accepted while running.
func (cpu *Core0[W]) handle(ev bus.Event[W]) (killed bool, err error) {
	switch ev.Kind {
	case bus.KIND_STREAM:
		err = cpu.loadStream(ev.Stream)
	case bus.KIND_KILL:
		com := ev.Kill
		if com.Permission.Covers(cpu.Permission) {
			cpu.Stats.KillsAccepted++
			killed = true
		} else {
			cpu.Stats.KillsRejected++
		}
		if cpu.Verbose {
			log.Printf("core%d: bus %d: kill by %v accepted=%v", cpu.Id, com.Bus, com.Permission, killed)
		}
	}

	return
}

// poll checks for a pending kill or stream without blocking.
func (cpu *Core0[W]) poll(ctx context.Context) (killed bool, err error) {
	ev, err := cpu.inbox.Wait(ctx, bus.KIND_KILL|bus.KIND_STREAM, nil, false)
	if err != nil {
		return
	}

	return cpu.handle(ev)
}

// run executes the loaded program until it stops.
func (cpu *Core0[W]) run(ctx context.Context) (reason HaltReason, err error) {
	interval := max(cpu.PollInterval, 1)

	for n := 0; ; n++ {
		if n%interval == 0 {
			if ctx.Err() != nil {
				cpu.Running = false
				reason = HALT_CANCELED
				err = ctx.Err()
				return
			}

			var killed bool
			killed, err = cpu.poll(ctx)
			if err != nil {
				cpu.Running = false
				reason = HALT_TRAP
				return
			}
			if killed {
				cpu.Running = false
				reason = HALT_KILLED
				return
			}
		}

		err = cpu.Tick(ctx)
		if err == nil {
			continue
		}

		cpu.Running = false

		switch {
		case errors.Is(err, ErrProgramEnd):
			reason = HALT_END
			err = nil
		case errors.Is(err, ErrKilled):
			reason = HALT_KILLED
			err = nil
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			reason = HALT_CANCELED
			err = ctx.Err()
		default:
			reason = HALT_TRAP
		}

		return
	}
}

// Fetch returns the opcode at the program counter.
func (cpu *Core0[W]) Fetch() (op Opcode, err error) {
	pc := int64(cpu.Pc)
	if !cpu.Running || pc < 0 || pc >= int64(len(cpu.Program)) {
		err = ErrProgramEnd
		return
	}

	op = Opcode(cpu.Program[pc])
	return
}

// Tick executes a single instruction.
func (cpu *Core0[W]) Tick(ctx context.Context) (err error) {
	op, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(ctx, op)
	if err != nil {
		return
	}

	cpu.Stats.Ticks++
	return
}

// read fetches a word of data memory.
func (cpu *Core0[W]) read(address W) (value W, err error) {
	index := int64(address)
	if index < 0 || index >= int64(len(cpu.Data)) {
		if cpu.Verbose {
			log.Printf("core%d: address %d outside %d words", cpu.Id, index, len(cpu.Data))
		}
		err = ErrAddressOutOfRange
		return
	}

	value = cpu.Data[index]
	return
}

// inc is the increment transform, shared by inc and carry.
func (cpu *Core0[W]) inc() error {
	return cpu.DStack.Replace(func(value W) (W, error) {
		output, overflow, carry := aluInc(value)
		cpu.Overflow = overflow
		cpu.Carry = carry
		return output, nil
	})
}

// dec is the decrement transform, shared by dec and borrow.
func (cpu *Core0[W]) dec() error {
	return cpu.DStack.Replace(func(value W) (W, error) {
		output, overflow, carry := aluDec(value)
		cpu.Overflow = overflow
		cpu.Carry = carry
		return output, nil
	})
}

// Execute executes a single instruction.
func (cpu *Core0[W]) Execute(ctx context.Context, op Opcode) (err error) {
	defer func() {
		if err != nil {
			err = &Trap{Core: cpu.Id, Pc: int64(cpu.Pc), Opcode: op, Err: err}
		}
	}()

	if cpu.Verbose {
		log.Printf("core%d: %03x: %v", cpu.Id, int64(cpu.Pc), op)
	}

	next_pc := cpu.Pc + 1

	switch op {
	case OP_RREAD_0, OP_RREAD_1, OP_RREAD_2, OP_RREAD_3:
		base := cpu.Dcs[op.Select()]
		err = cpu.DStack.Replace(func(value W) (W, error) {
			return cpu.read(base + value)
		})
	case OP_ADD_0, OP_ADD_1, OP_ADD_2, OP_ADD_3:
		// The sum is pushed; memory is not written back.
		base := cpu.Dcs[op.Select()]
		err = cpu.DStack.Replace(func(value W) (output W, err error) {
			input, err := cpu.read(base)
			if err != nil {
				return
			}
			var overflow, carry bool
			output, overflow, carry = aluAdd(input, value)
			cpu.Overflow = overflow
			cpu.Carry = carry
			return
		})
	case OP_INC:
		err = cpu.inc()
	case OP_DEC:
		err = cpu.dec()
	case OP_CARRY:
		if cpu.Carry {
			err = cpu.inc()
		} else {
			cpu.Overflow = false
			cpu.Carry = false
		}
	case OP_BORROW:
		if cpu.Carry {
			cpu.Overflow = false
			cpu.Carry = true
		} else {
			err = cpu.dec()
		}
	case OP_INV:
		err = cpu.DStack.PopTransform(word.Not[W])
	case OP_FLUSH:
		// no-op
	case OP_READS:
		err = cpu.DStack.Replace(cpu.read)
	case OP_RET:
		var frame Frame[W]
		frame, err = cpu.CStack.PopFrame()
		if err != nil {
			break
		}
		next_pc = frame.Pc
		cpu.Dcs = frame.Dcs
		if frame.Interrupt {
			cpu.Interrupt = true
		}
	case OP_IEN:
		for n := range cpu.Buses {
			slot := &cpu.Buses[n]
			slot.Enabled = slot.Enabled || slot.Selected
		}
	case OP_IDI:
		for n := range cpu.Buses {
			cpu.Buses[n].Enabled = false
		}
	case OP_RECV:
		err = cpu.recv(ctx)
	default:
		// Undefined opcodes are reserved, and execute as no-ops.
	}

	if err != nil {
		return
	}

	cpu.Pc = next_pc
	return
}

// enabled returns true if recv accepts interrupts from bus index.
func (cpu *Core0[W]) enabled(index int) bool {
	return index < len(cpu.Buses) && cpu.Buses[index].Enabled
}

// recv waits for an interrupt on an enabled bus, and shifts it onto the
// conveyor. Interrupts on disabled buses are left pending with their sender.
func (cpu *Core0[W]) recv(ctx context.Context) (err error) {
	var ev bus.Event[W]
	for {
		ev, err = cpu.inbox.Wait(ctx, bus.KIND_SEND|bus.KIND_KILL|bus.KIND_STREAM, cpu.enabled, true)
		if err != nil {
			return
		}

		if ev.Kind == bus.KIND_SEND {
			break
		}

		var killed bool
		killed, err = cpu.handle(ev)
		if err != nil {
			return
		}
		if killed {
			err = ErrKilled
			return
		}
	}

	com := ev.Send

	for range 2 {
		err = cpu.Conveyor.RemoveRear()
		if err != nil {
			return
		}
	}

	// Front to back: value, bus.
	err = cpu.Conveyor.InsertFront(W(com.Bus))
	if err != nil {
		return
	}
	err = cpu.Conveyor.InsertFront(com.Data)
	if err != nil {
		return
	}

	cpu.Stats.Interrupts++

	if cpu.Verbose {
		log.Printf("core%d: bus %d: interrupt %d", cpu.Id, com.Bus, com.Data)
	}

	return
}
