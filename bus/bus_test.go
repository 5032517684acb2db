package bus

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var hostPerm = Permission{Privilege: 1, Address: 0}

func TestPermission(t *testing.T) {
	assert := assert.New(t)

	low := Permission{Privilege: 0, Address: 4}
	assert.True(hostPerm.Covers(low))
	assert.True(hostPerm.Covers(hostPerm))
	assert.False(low.Covers(hostPerm))
	assert.Contains(low.String(), "0x00000004")
}

func TestStream_Take(t *testing.T) {
	assert := assert.New(t)

	st := NewStream(strings.NewReader("abc"))

	r, err := st.Take()
	assert.NoError(err)
	data, err := io.ReadAll(r)
	assert.NoError(err)
	assert.Equal("abc", string(data))

	_, err = st.Take()
	assert.ErrorIs(err, ErrStreamTaken)

	var none *Stream
	_, err = none.Take()
	assert.ErrorIs(err, ErrStreamTaken)
}

func TestBus_Rendezvous(t *testing.T) {
	assert := assert.New(t)

	sender, receiver := MakeBus[int32]()
	inbox := &Inbox[int32]{}
	assert.Equal(0, inbox.Add(receiver))

	delivered := make(chan error, 1)
	go func() {
		delivered <- sender.Send(context.Background(), NewCom(hostPerm, int32(7)))
	}()

	// The sender must still be blocked: nobody has received.
	select {
	case <-delivered:
		t.Fatal("send returned before receive")
	case <-time.After(20 * time.Millisecond):
	}

	ev, err := inbox.Wait(context.Background(), KIND_SEND, nil, true)
	assert.NoError(err)
	assert.Equal(KIND_SEND, ev.Kind)
	assert.Equal(int32(7), ev.Send.Data)
	assert.Equal(0, ev.Bus())
	assert.Equal(hostPerm, ev.Permission())

	assert.NoError(<-delivered)
}

func TestBus_ReceiverClosed(t *testing.T) {
	assert := assert.New(t)

	sender, receiver := MakeBus[int8]()
	receiver.Close()

	err := sender.Kill(context.Background(), NewCom(hostPerm, struct{}{}))
	assert.ErrorIs(err, ErrChannelClosed)
}

func TestBus_Context(t *testing.T) {
	assert := assert.New(t)

	sender, _ := MakeBus[int8]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := sender.Stream(ctx, NewCom(hostPerm, NewStream(strings.NewReader(""))))
	assert.ErrorIs(err, context.DeadlineExceeded)
}

func TestBus_SenderClosed(t *testing.T) {
	assert := assert.New(t)

	sender, receiver := MakeBus[int16]()
	inbox := &Inbox[int16]{}
	inbox.Add(receiver)

	sender.Close()
	sender.Close()

	err := sender.Incept(context.Background(), NewCom(hostPerm, Inception{}))
	assert.ErrorIs(err, ErrChannelClosed)

	_, err = inbox.Wait(context.Background(), KIND_INCEPT|KIND_STREAM, nil, true)
	assert.ErrorIs(err, ErrChannelClosed)
	assert.True(inbox.Closed(0))
}

func TestBus_SenderClosedWhileBlocked(t *testing.T) {
	assert := assert.New(t)

	sender, receiver := MakeBus[int32]()
	inbox := &Inbox[int32]{}
	inbox.Add(receiver)

	delivered := make(chan error, 1)
	go func() {
		delivered <- sender.Send(context.Background(), NewCom(hostPerm, int32(7)))
	}()

	time.Sleep(20 * time.Millisecond)
	assert.NoError(sender.Close())

	select {
	case err := <-delivered:
		assert.ErrorIs(err, ErrChannelClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked send was not released by close")
	}

	_, err := inbox.Wait(context.Background(), KIND_SEND|KIND_KILL, nil, true)
	assert.ErrorIs(err, ErrChannelClosed)
	assert.True(inbox.Closed(0))
}

func TestInbox_PollSenderClosed(t *testing.T) {
	assert := assert.New(t)

	sender, receiver := MakeBus[int16]()
	inbox := &Inbox[int16]{}
	inbox.Add(receiver)
	sender.Close()

	ev, err := inbox.Wait(context.Background(), KIND_KILL|KIND_STREAM, nil, false)
	assert.NoError(err)
	assert.Equal(KIND_NONE, ev.Kind)
	assert.True(inbox.Closed(0))
}

func TestInbox_Poll(t *testing.T) {
	assert := assert.New(t)

	_, receiver := MakeBus[int16]()
	inbox := &Inbox[int16]{}
	inbox.Add(receiver)

	ev, err := inbox.Wait(context.Background(), KIND_KILL|KIND_STREAM, nil, false)
	assert.NoError(err)
	assert.Equal(KIND_NONE, ev.Kind)
	assert.Equal(-1, ev.Bus())
}

func TestInbox_Accept(t *testing.T) {
	assert := assert.New(t)

	inbox := &Inbox[int32]{}
	sender0, receiver0 := MakeBus[int32]()
	sender1, receiver1 := MakeBus[int32]()
	inbox.Add(receiver0)
	inbox.Add(receiver1)

	done0 := make(chan error, 1)
	done1 := make(chan error, 1)
	go func() { done0 <- sender0.Send(context.Background(), NewCom(hostPerm, int32(100))) }()
	go func() { done1 <- sender1.Send(context.Background(), NewCom(hostPerm, int32(101))) }()

	onlyOne := func(bus int) bool { return bus == 1 }

	ev, err := inbox.Wait(context.Background(), KIND_SEND, onlyOne, true)
	assert.NoError(err)
	assert.Equal(1, ev.Bus())
	assert.Equal(int32(101), ev.Send.Data)
	assert.NoError(<-done1)

	// Bus 0 was never accepted; its sender is still waiting.
	select {
	case <-done0:
		t.Fatal("disabled bus message was consumed")
	default:
	}

	ev, err = inbox.Wait(context.Background(), KIND_SEND, nil, true)
	assert.NoError(err)
	assert.Equal(0, ev.Bus())
	assert.Equal(int32(100), ev.Send.Data)
	assert.NoError(<-done0)
}

func TestInbox_Close(t *testing.T) {
	assert := assert.New(t)

	sender, receiver := MakeBus[int64]()
	inbox := &Inbox[int64]{}
	inbox.Add(receiver)

	inbox.Close()
	err := sender.Send(context.Background(), NewCom(hostPerm, int64(1)))
	assert.ErrorIs(err, ErrChannelClosed)
	assert.Equal(1, inbox.Len())
}

func TestKind_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("send", KIND_SEND.String())
	assert.Equal("kill", KIND_KILL.String())
	assert.Equal("kind(48)", Kind(48).String())
}
