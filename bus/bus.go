package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ezrec/uarc/word"
)

// SenderBus is the sending half of a directed link.
type SenderBus[W word.Word] struct {
	stream chan<- Com[*Stream]
	incept chan<- Com[Inception]
	send   chan<- Com[W]
	kill   chan<- Com[struct{}]

	done <-chan struct{} // Closed when the receiver goes away.
	quit chan struct{}   // Closed when the sender goes away.

	closed    atomic.Bool
	closeOnce sync.Once
}

// ReceiverBus is the receiving half of a directed link.
type ReceiverBus[W word.Word] struct {
	stream <-chan Com[*Stream]
	incept <-chan Com[Inception]
	send   <-chan Com[W]
	kill   <-chan Com[struct{}]
	quit   <-chan struct{}

	done     chan struct{}
	doneOnce sync.Once
}

// MakeBus creates both halves of a link.
func MakeBus[W word.Word]() (sender *SenderBus[W], receiver *ReceiverBus[W]) {
	streams := make(chan Com[*Stream])
	incepts := make(chan Com[Inception])
	sends := make(chan Com[W])
	kills := make(chan Com[struct{}])
	done := make(chan struct{})
	quit := make(chan struct{})

	sender = &SenderBus[W]{
		stream: streams,
		incept: incepts,
		send:   sends,
		kill:   kills,
		done:   done,
		quit:   quit,
	}

	receiver = &ReceiverBus[W]{
		stream: streams,
		incept: incepts,
		send:   sends,
		kill:   kills,
		quit:   quit,
		done:   done,
	}

	return
}

// deliver performs a single rendezvous.
func deliver[W word.Word, T any](ctx context.Context, sb *SenderBus[W], ch chan<- T, msg T) (err error) {
	if sb.closed.Load() {
		err = ErrChannelClosed
		return
	}

	select {
	case ch <- msg:
	case <-sb.done:
		err = ErrChannelClosed
	case <-sb.quit:
		err = ErrChannelClosed
	case <-ctx.Done():
		err = ctx.Err()
	}

	return
}

// Stream sends a data payload to the target.
func (sb *SenderBus[W]) Stream(ctx context.Context, com Com[*Stream]) error {
	return deliver(ctx, sb, sb.stream, com)
}

// Incept sends a program and a fresh permission to the target.
func (sb *SenderBus[W]) Incept(ctx context.Context, com Com[Inception]) error {
	return deliver(ctx, sb, sb.incept, com)
}

// Send interrupts the target with a word.
// Returns once the target's recv instruction has accepted it.
func (sb *SenderBus[W]) Send(ctx context.Context, com Com[W]) error {
	return deliver(ctx, sb, sb.send, com)
}

// Kill asks the target to abandon its program.
// The target decides whether the permission is sufficient.
func (sb *SenderBus[W]) Kill(ctx context.Context, com Com[struct{}]) error {
	return deliver(ctx, sb, sb.kill, com)
}

// Close disconnects the sender. The receiver stops listening to the link,
// and blocked and future deliveries on it return ErrChannelClosed.
// The data channels stay open, so Close may race with deliveries.
func (sb *SenderBus[W]) Close() (err error) {
	sb.closeOnce.Do(func() {
		sb.closed.Store(true)
		close(sb.quit)
	})
	return
}

// Close disconnects the receiver. Blocked and future senders get
// ErrChannelClosed.
func (rb *ReceiverBus[W]) Close() (err error) {
	rb.doneOnce.Do(func() {
		close(rb.done)
	})
	return
}
