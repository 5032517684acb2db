// Package bus implements the synchronous UARC bus that connects cores.
//
// A directed link carries four independent message kinds: stream (a data
// payload), incept (a program plus the permission to run it), send (a single
// interrupt word) and kill. Every message is a Com stamped with the sender's
// Permission.
//
// All four channels are rendezvous channels: a SenderBus call returns only
// once the receiving core has accepted the message, the receiving side has
// been closed, or the caller's context is done. There is no buffering and
// no timeout. Two cores that each try to send to the other before either
// receives will deadlock; topologies must be built so that this cannot
// happen, or a higher layer must arbitrate.
package bus
