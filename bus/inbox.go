package bus

import (
	"context"
	"reflect"

	"github.com/ezrec/uarc/word"
)

// Kind is a set of bus message kinds.
type Kind uint

const (
	KIND_NONE   = Kind(0)
	KIND_STREAM = Kind(1 << 0)
	KIND_INCEPT = Kind(1 << 1)
	KIND_SEND   = Kind(1 << 2)
	KIND_KILL   = Kind(1 << 3)
)

var kindNames = map[Kind]string{
	KIND_NONE:   "none",
	KIND_STREAM: "stream",
	KIND_INCEPT: "incept",
	KIND_SEND:   "send",
	KIND_KILL:   "kill",
}

func (kind Kind) String() string {
	name, ok := kindNames[kind]
	if !ok {
		return f("kind(%d)", uint(kind))
	}
	return name
}

// Event is a single message accepted by an Inbox. Only the field matching
// Kind is set.
type Event[W word.Word] struct {
	Kind   Kind
	Stream Com[*Stream]
	Incept Com[Inception]
	Send   Com[W]
	Kill   Com[struct{}]
}

// Bus returns the inbound link index the event arrived on.
func (ev Event[W]) Bus() int {
	switch ev.Kind {
	case KIND_STREAM:
		return ev.Stream.Bus
	case KIND_INCEPT:
		return ev.Incept.Bus
	case KIND_SEND:
		return ev.Send.Bus
	case KIND_KILL:
		return ev.Kill.Bus
	}
	return -1
}

// Permission returns the permission the event was sent with.
func (ev Event[W]) Permission() Permission {
	switch ev.Kind {
	case KIND_STREAM:
		return ev.Stream.Permission
	case KIND_INCEPT:
		return ev.Incept.Permission
	case KIND_SEND:
		return ev.Send.Permission
	case KIND_KILL:
		return ev.Kill.Permission
	}
	return Permission{}
}

// Inbox multiplexes the inbound links of one core. The index of a link in
// the Inbox is the bus index stamped on every message it delivers.
//
// An Inbox is owned by a single goroutine.
type Inbox[W word.Word] struct {
	links  []*ReceiverBus[W]
	closed []bool
}

// Add appends a link and returns its bus index.
func (in *Inbox[W]) Add(link *ReceiverBus[W]) (index int) {
	index = len(in.links)
	in.links = append(in.links, link)
	in.closed = append(in.closed, false)
	return
}

// Len returns the number of links, open or closed.
func (in *Inbox[W]) Len() int {
	return len(in.links)
}

// Closed returns true if the sender of link index has disconnected.
func (in *Inbox[W]) Closed(index int) bool {
	return in.closed[index]
}

// Close closes every link, releasing blocked senders.
func (in *Inbox[W]) Close() (err error) {
	for _, link := range in.links {
		link.Close()
	}
	return
}

type inboxCase struct {
	bus  int
	kind Kind
}

// Wait accepts one message of the requested kinds.
//
// Send messages are only accepted from links for which accept(bus) returns
// true (or all links if accept is nil); messages on other links stay with
// their senders. If block is false and nothing is ready, Wait returns an
// event of KIND_NONE. If no open link can ever deliver one of the requested
// kinds, Wait returns ErrChannelClosed.
func (in *Inbox[W]) Wait(ctx context.Context, kinds Kind, accept func(bus int) bool, block bool) (ev Event[W], err error) {
	for {
		var cases []reflect.SelectCase
		var meta []inboxCase

		add := func(bus int, kind Kind, ch any) {
			cases = append(cases, reflect.SelectCase{
				Dir:  reflect.SelectRecv,
				Chan: reflect.ValueOf(ch),
			})
			meta = append(meta, inboxCase{bus: bus, kind: kind})
		}

		for bus, link := range in.links {
			if in.closed[bus] {
				continue
			}
			if kinds&KIND_STREAM != 0 {
				add(bus, KIND_STREAM, link.stream)
			}
			if kinds&KIND_INCEPT != 0 {
				add(bus, KIND_INCEPT, link.incept)
			}
			if kinds&KIND_SEND != 0 && (accept == nil || accept(bus)) {
				add(bus, KIND_SEND, link.send)
			}
			if kinds&KIND_KILL != 0 {
				add(bus, KIND_KILL, link.kill)
			}
		}

		if len(cases) == 0 && block {
			err = ErrChannelClosed
			return
		}

		for bus, link := range in.links {
			if !in.closed[bus] {
				add(bus, KIND_NONE, link.quit)
			}
		}

		extra := len(cases)
		if block {
			cases = append(cases, reflect.SelectCase{
				Dir:  reflect.SelectRecv,
				Chan: reflect.ValueOf(ctx.Done()),
			})
		} else {
			cases = append(cases, reflect.SelectCase{
				Dir: reflect.SelectDefault,
			})
		}

		chosen, value, ok := reflect.Select(cases)
		if chosen == extra {
			if block {
				err = ctx.Err()
			}
			return
		}

		m := meta[chosen]
		if m.kind == KIND_NONE || !ok {
			// Sender went away; stop listening to it.
			in.closed[m.bus] = true
			continue
		}

		ev.Kind = m.kind
		switch m.kind {
		case KIND_STREAM:
			ev.Stream = value.Interface().(Com[*Stream])
			ev.Stream.Bus = m.bus
		case KIND_INCEPT:
			ev.Incept = value.Interface().(Com[Inception])
			ev.Incept.Bus = m.bus
		case KIND_SEND:
			ev.Send = value.Interface().(Com[W])
			ev.Send.Bus = m.bus
		case KIND_KILL:
			ev.Kill = value.Interface().(Com[struct{}])
			ev.Kill.Bus = m.bus
		}

		return
	}
}
