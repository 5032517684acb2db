package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataStack(t *testing.T) {
	assert := assert.New(t)

	s := &DataStack[int8]{}
	assert.True(s.Empty())

	_, err := s.Pop()
	assert.ErrorIs(err, ErrStackUnderflow)

	err = s.PopTransform(func(v int8) int8 { return v + 1 })
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.True(s.Empty())

	s.Push(1)
	s.Push(2)
	assert.Equal(2, s.Depth())

	err = s.PopTransform(func(v int8) int8 { return v * 10 })
	assert.NoError(err)
	assert.Equal([]int8{1, 20}, s.Values())

	value, err := s.Pop()
	assert.NoError(err)
	assert.Equal(int8(20), value)

	s.Reset()
	assert.True(s.Empty())
}

func TestDataStackReplaceError(t *testing.T) {
	assert := assert.New(t)

	s := &DataStack[int16]{Data: []int16{5, 6}}
	err := s.Replace(func(v int16) (int16, error) { return 0, ErrAddressOutOfRange })
	assert.ErrorIs(err, ErrAddressOutOfRange)
	assert.Equal([]int16{5, 6}, s.Values())
}

func TestDataStackRotateCopy(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name     string
		data     []int32
		rotate   bool
		pos      int
		expected []int32
		err      error
	}){
		{"rotate_1", []int32{1, 2, 3, 4}, true, 1, []int32{1, 2, 4, 3}, nil},
		{"rotate_2", []int32{1, 2, 3, 4}, true, 2, []int32{1, 3, 4, 2}, nil},
		{"rotate_0", []int32{1, 2, 3, 4}, true, 0, []int32{1, 2, 3, 4}, nil},
		{"rotate_bottom", []int32{1, 2, 3, 4}, true, 3, []int32{1, 2, 3, 4}, ErrIndexOutOfRange},
		{"rotate_neg", []int32{1, 2}, true, -1, []int32{1, 2}, ErrIndexOutOfRange},
		{"rotate_empty", nil, true, 0, nil, ErrIndexOutOfRange},
		{"copy_1", []int32{1, 2, 3}, false, 1, []int32{1, 2, 3, 2}, nil},
		{"copy_0", []int32{1, 2, 3}, false, 0, []int32{1, 2, 3, 3}, nil},
		{"copy_bottom", []int32{1, 2, 3}, false, 2, []int32{1, 2, 3}, ErrIndexOutOfRange},
		{"copy_single", []int32{9}, false, 0, []int32{9}, ErrIndexOutOfRange},
	}

	for _, entry := range table {
		s := &DataStack[int32]{Data: append([]int32(nil), entry.data...)}
		var err error
		if entry.rotate {
			err = s.Rotate(entry.pos)
		} else {
			err = s.Copy(entry.pos)
		}
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.name)
		} else {
			assert.NoError(err, entry.name)
		}
		assert.Equal(entry.expected, s.Values(), entry.name)
	}
}

func TestCallStack(t *testing.T) {
	assert := assert.New(t)

	cs := &CallStack[int16]{}

	_, err := cs.PopFrame()
	assert.ErrorIs(err, ErrCallStackUnderflow)

	cs.PushFrame(10, [4]int16{1, 2, 3, 4}, false)
	cs.PushFrame(20, [4]int16{5, 6, 7, 8}, true)
	assert.Equal(2, cs.Depth())

	frame, err := cs.PopFrame()
	assert.NoError(err)
	assert.Equal(Frame[int16]{Pc: 20, Dcs: [4]int16{5, 6, 7, 8}, Interrupt: true}, frame)

	cs.Reset()
	assert.Equal(0, cs.Depth())
}

func TestConveyor(t *testing.T) {
	assert := assert.New(t)

	cv := &Conveyor[int8]{}
	assert.Equal(CONVEYOR_SIZE, cv.Len())
	assert.Equal(make([]int8, CONVEYOR_SIZE), cv.Values())

	err := cv.InsertFront(1)
	assert.ErrorIs(err, ErrConveyorFull)

	for n := range 20 {
		assert.NoError(cv.RemoveRear())
		assert.NoError(cv.RemoveRear())
		assert.NoError(cv.InsertFront(int8(n)))
		assert.NoError(cv.InsertFront(int8(n + 100)))
		assert.Equal(CONVEYOR_SIZE, cv.Len())

		front, ok := cv.At(0)
		assert.True(ok)
		assert.Equal(int8(n+100), front)
		next, ok := cv.At(1)
		assert.True(ok)
		assert.Equal(int8(n), next)
	}

	// Oldest surviving pair is from round 12.
	back, ok := cv.At(CONVEYOR_SIZE - 1)
	assert.True(ok)
	assert.Equal(int8(12), back)

	_, ok = cv.At(CONVEYOR_SIZE)
	assert.False(ok)

	for range CONVEYOR_SIZE {
		assert.NoError(cv.RemoveRear())
	}
	assert.ErrorIs(cv.RemoveRear(), ErrConveyorEmpty)

	cv.Reset()
	assert.Equal(CONVEYOR_SIZE, cv.Len())
}
