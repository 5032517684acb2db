// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/uarc/bus"
	"github.com/ezrec/uarc/core"
	"github.com/ezrec/uarc/internal"
	"github.com/ezrec/uarc/word"
)

const (
	HALT_QUEUE = 16 // Halts buffered before cores wait for the host.
)

// Config describes a machine.
type Config struct {
	Verbose      bool           // If set, enables verbose logging.
	Cores        int            // Number of cores.
	Memory       int            // Data memory words per core.
	PollInterval int            // Instructions between kill and stream polls.
	Host         bus.Permission // Permission of the host ports.
}

// Halt reports a program that stopped running.
type Halt[W word.Word] struct {
	Core   int
	Reason core.HaltReason
	Err    error
	State  core.State[W]
}

// Machine is a set of cores, each linked to the host, and optionally to
// each other.
//
// Every link is a rendezvous: a core that waits on a peer that waits on it
// deadlocks both. Topologies must avoid such cycles.
type Machine[W word.Word] struct {
	Verbose bool              // If set, enables verbose logging.
	Cores   []*core.Core0[W]  // Cores, by index.
	Ports   []*Port[W]        // Host ports, by core index.
	Config  Config            // Configuration the machine was built with.
	halts   chan Halt[W]      // Halts reported by the cores.
	done    <-chan struct{}   // Closed when Run is stopping.
	running atomic.Bool       // Set once Run is called.
	mutex   sync.Mutex        // Protects faults.
	faults  map[int]error     // Terminal errors, by core index.
}

// New creates a machine. Core i has id i, and its host port on bus 0.
func New[W word.Word](cfg Config) (m *Machine[W]) {
	m = &Machine[W]{
		Verbose: cfg.Verbose,
		Config:  cfg,
		halts:   make(chan Halt[W], HALT_QUEUE),
		faults:  map[int]error{},
	}

	for n := range cfg.Cores {
		cpu := core.NewCore0[W](cfg.Memory)
		cpu.Id = n
		cpu.Verbose = cfg.Verbose
		if cfg.PollInterval > 0 {
			cpu.PollInterval = cfg.PollInterval
		}
		cpu.Observer = m

		sender := cpu.AcquireBus()
		back, receiver := bus.MakeBus[W]()
		cpu.AppendBuses(back)

		m.Cores = append(m.Cores, cpu)
		m.Ports = append(m.Ports, &Port[W]{
			Core:       n,
			Permission: cfg.Host,
			sender:     sender,
			receiver:   receiver,
		})
	}

	return
}

// Defines returns the assembler equates describing the machine.
func (m *Machine[W]) Defines() iter.Seq2[string, string] {
	machine := map[string]string{
		"CORES":  fmt.Sprintf("%d", len(m.Cores)),
		"MEMORY": fmt.Sprintf("%d", m.Config.Memory),
	}
	width := map[string]string{
		"WORD_BITS": fmt.Sprintf("%d", word.Bits[W]()),
		"WORD_MIN":  fmt.Sprintf("%d", word.Min[W]()),
		"WORD_MAX":  fmt.Sprintf("%d", word.Max[W]()),
	}
	return internal.IterSeq2Concat(maps.All(machine), maps.All(width))
}

// Connect links core a and core b in both directions, before Run.
// Returns the bus index of the link on each core.
func (m *Machine[W]) Connect(a, b int) (busA int, busB int, err error) {
	if m.running.Load() {
		err = ErrRunning
		return
	}
	if a < 0 || a >= len(m.Cores) || b < 0 || b >= len(m.Cores) {
		err = ErrCoreInvalid
		return
	}
	if a == b {
		err = ErrLinkSelf
		return
	}

	ca, cb := m.Cores[a], m.Cores[b]

	busA = len(ca.Buses)
	busB = len(cb.Buses)

	toA := ca.AcquireBus()
	toB := cb.AcquireBus()
	ca.AppendBuses(toB)
	cb.AppendBuses(toA)

	if m.Verbose {
		log.Printf("machine: core%d bus %d <-> core%d bus %d", a, busA, b, busB)
	}

	return
}

// Select marks a bus of a core as a candidate for interrupt enable, before Run.
func (m *Machine[W]) Select(index int, slot int, selected bool) (err error) {
	if m.running.Load() {
		err = ErrRunning
		return
	}
	if index < 0 || index >= len(m.Cores) {
		err = ErrCoreInvalid
		return
	}

	return m.Cores[index].SelectBus(slot, selected)
}

// Halted implements core.Observer.
func (m *Machine[W]) Halted(cpu *core.Core0[W], reason core.HaltReason, err error) {
	halt := Halt[W]{
		Core:   cpu.Id,
		Reason: reason,
		Err:    err,
		State:  cpu.Snapshot(),
	}

	select {
	case m.halts <- halt:
	case <-m.done:
	}
}

// Halts returns the channel of program stops. It must be drained while the
// machine runs, or the cores stall.
func (m *Machine[W]) Halts() <-chan Halt[W] {
	return m.halts
}

// Faults returns the terminal errors of stopped cores, by core index.
func (m *Machine[W]) Faults() (faults map[int]error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return maps.Clone(m.faults)
}

func (m *Machine[W]) fault(index int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.faults[index] = err
}

// Run runs every core until ctx is done, or until every core has stopped.
// A core that stops with an error does not stop the other cores.
// Returns the first core error, if any.
func (m *Machine[W]) Run(ctx context.Context) (err error) {
	if !m.running.CompareAndSwap(false, true) {
		err = ErrRunning
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.done = ctx.Done()

	var eg errgroup.Group
	for n, cpu := range m.Cores {
		eg.Go(func() error {
			err := cpu.Begin(ctx)
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}

			if m.Verbose {
				log.Printf("machine: core%d: %v", n, err)
			}

			m.fault(n, err)
			return &ErrCore{Core: n, Err: err}
		})
	}

	err = eg.Wait()
	return
}

// Close disconnects the host from every core.
func (m *Machine[W]) Close() (err error) {
	for _, port := range m.Ports {
		err = errors.Join(err, port.Close())
	}
	return
}
