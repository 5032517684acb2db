package word

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWidth(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(WIDTH_8, WidthOf[int8]())
	assert.Equal(WIDTH_16, WidthOf[int16]())
	assert.Equal(WIDTH_32, WidthOf[int32]())
	assert.Equal(WIDTH_64, WidthOf[int64]())

	assert.Equal(4, WIDTH_32.Bytes())
	assert.True(WIDTH_64.Valid())
	assert.False(Width(12).Valid())

	width, err := ParseWidth("16")
	assert.NoError(err)
	assert.Equal(WIDTH_16, width)

	_, err = ParseWidth("24")
	assert.ErrorIs(err, ErrWidthInvalid)

	_, err = ParseWidth("wide")
	assert.ErrorIs(err, ErrWidthInvalid)
}

func TestMinMax(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(int8(-128), Min[int8]())
	assert.Equal(int8(127), Max[int8]())
	assert.Equal(int16(-32768), Min[int16]())
	assert.Equal(int16(32767), Max[int16]())
	assert.Equal(int32(-2147483648), Min[int32]())
	assert.Equal(int64(9223372036854775807), Max[int64]())
}

func TestWraparound(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(int8(-128), Add[int8](127, 1))
	assert.Equal(int8(127), Sub[int8](-128, 1))
	assert.Equal(int16(-1), Not[int16](0))
	assert.True(Negative[int32](-5))
	assert.False(Negative[int32](0))
}

func TestCodec(t *testing.T) {
	assert := assert.New(t)

	data := Encode([]int16{1, -2, 0x1234})
	assert.Equal([]byte{0x01, 0x00, 0xfe, 0xff, 0x34, 0x12}, data)

	words, err := Decode[int16](data)
	assert.NoError(err)
	assert.Equal([]int16{1, -2, 0x1234}, words)

	_, err = Decode[int32](data)
	assert.ErrorIs(err, ErrPartialWord)

	words8, err := ReadWords[int8](bytes.NewReader([]byte{10, 20, 0xff}))
	assert.NoError(err)
	assert.Equal([]int8{10, 20, -1}, words8)

	var all []int64
	for w := range Words[int64](Encode([]int64{-1, 7})) {
		all = append(all, w)
	}
	assert.Equal([]int64{-1, 7}, all)
}
