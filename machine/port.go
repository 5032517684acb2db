package machine

import (
	"bytes"
	"context"

	"github.com/ezrec/uarc/bus"
	"github.com/ezrec/uarc/word"
)

// Port is the host's link to a single core, at the core's bus 0.
// Every message is stamped with the port's Permission.
type Port[W word.Word] struct {
	Core       int            // Core index.
	Permission bus.Permission // Permission of the host.

	sender   *bus.SenderBus[W]
	receiver *bus.ReceiverBus[W]
}

// Incept loads a program into the core, to run under grant.
func (port *Port[W]) Incept(ctx context.Context, grant bus.Permission, program []byte) error {
	inception := bus.Inception{
		Permission: grant,
		Stream:     bus.NewStream(bytes.NewReader(program)),
	}
	return port.sender.Incept(ctx, bus.NewCom(port.Permission, inception))
}

// Stream copies data into the core's data memory, from address 0.
func (port *Port[W]) Stream(ctx context.Context, data []W) error {
	stream := bus.NewStream(bytes.NewReader(word.Encode(data)))
	return port.sender.Stream(ctx, bus.NewCom(port.Permission, stream))
}

// Send interrupts the core with value. Returns once the core's recv
// instruction has accepted it.
func (port *Port[W]) Send(ctx context.Context, value W) error {
	return port.sender.Send(ctx, bus.NewCom(port.Permission, value))
}

// Kill asks the core to abandon its program.
func (port *Port[W]) Kill(ctx context.Context) error {
	return port.sender.Kill(ctx, bus.NewCom(port.Permission, struct{}{}))
}

// Close disconnects the host from the core.
func (port *Port[W]) Close() (err error) {
	port.sender.Close()
	port.receiver.Close()
	return
}
