package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Lines: []Line{
			{LineNo: 1, Pc: 0, Words: []string{"rread", "0"}, Bytes: []byte{0x00}},
			{LineNo: 3, Pc: 1, Words: []string{".byte", "1", "2", "3"}, Bytes: []byte{1, 2, 3}},
			{LineNo: 4, Pc: 4, Words: []string{"recv"}, Bytes: []byte{0x12}},
		},
	}

	dbg := prog.Debug(0)
	assert.NotNil(dbg.Line)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(3)
	assert.NotNil(dbg.Line)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(4)
	assert.NotNil(dbg.Line)
	assert.Equal(4, dbg.LineNo)

	dbg = prog.Debug(5)
	assert.Nil(dbg.Line)
	assert.Equal(0, dbg.Index)

	assert.Equal([]byte{0x00, 1, 2, 3, 0x12}, prog.Binary())

	count := 0
	for pc, b := range prog.Bytes() {
		assert.Equal(prog.Binary()[pc], b)
		count++
		if pc == 2 {
			break
		}
	}
	assert.Equal(3, count)
}
