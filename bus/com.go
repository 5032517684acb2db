package bus

import (
	"io"
	"sync"
)

// Permission identifies the authority and origin of a bus operation.
type Permission struct {
	Privilege uint8  // Privilege level; larger is more privileged.
	Address   uint32 // Originating address.
}

// Covers returns true if perm carries at least the privilege of other.
func (perm Permission) Covers(other Permission) bool {
	return perm.Privilege >= other.Privilege
}

func (perm Permission) String() string {
	return f("priv %d @ 0x%08x", perm.Privilege, perm.Address)
}

// Com is the envelope of every bus message.
type Com[T any] struct {
	Permission Permission // Permission of the sender.
	Bus        int        // Inbound link index, set by the receiving Inbox.
	Data       T
}

// NewCom creates a message stamped with a permission.
func NewCom[T any](perm Permission, data T) Com[T] {
	return Com[T]{Permission: perm, Data: data}
}

// Stream is a byte source handed from one core to another.
// Only one party may ever read it: the reader is handed out once by Take.
type Stream struct {
	mutex  sync.Mutex
	reader io.Reader
}

// NewStream wraps a reader. The caller must not use r afterwards.
func NewStream(r io.Reader) *Stream {
	return &Stream{reader: r}
}

// Take transfers ownership of the reader to the caller.
func (st *Stream) Take() (r io.Reader, err error) {
	if st == nil {
		err = ErrStreamTaken
		return
	}

	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.reader == nil {
		err = ErrStreamTaken
		return
	}

	r = st.reader
	st.reader = nil
	return
}

// Inception is the payload of an incept message: the permission the target
// will run under, and the program it will run.
type Inception struct {
	Permission Permission
	Stream     *Stream
}
