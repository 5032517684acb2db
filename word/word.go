// Package word defines the fixed-width signed machine word used by the
// UARC cores, and the little-endian codec used to move words over byte
// streams.
package word

import (
	"errors"
	"strconv"
	"unsafe"

	"github.com/ezrec/uarc/translate"
)

var f = translate.From

var (
	ErrWidthInvalid = errors.New(f("word width invalid"))
	ErrPartialWord  = errors.New(f("partial word"))
)

// Word is a signed fixed-width integer with wraparound arithmetic.
type Word interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// Width is a word width in bits.
type Width int

const (
	WIDTH_8  = Width(8)
	WIDTH_16 = Width(16)
	WIDTH_32 = Width(32)
	WIDTH_64 = Width(64)
)

// ParseWidth parses a width in bits.
func ParseWidth(text string) (width Width, err error) {
	bits, err := strconv.Atoi(text)
	if err != nil {
		err = errors.Join(ErrWidthInvalid, err)
		return
	}

	width = Width(bits)
	if !width.Valid() {
		err = ErrWidthInvalid
		width = 0
	}

	return
}

// Valid returns true for the supported widths.
func (width Width) Valid() bool {
	switch width {
	case WIDTH_8, WIDTH_16, WIDTH_32, WIDTH_64:
		return true
	}
	return false
}

// Bytes returns the number of bytes in a word of this width.
func (width Width) Bytes() int {
	return int(width) / 8
}

func (width Width) String() string {
	return f("int%d", int(width))
}

// Bits returns the bit width of W.
func Bits[W Word]() int {
	var w W
	return int(unsafe.Sizeof(w)) * 8
}

// WidthOf returns the Width of W.
func WidthOf[W Word]() Width {
	return Width(Bits[W]())
}

// Min returns the most negative value of W.
func Min[W Word]() W {
	return W(int64(-1) << (Bits[W]() - 1))
}

// Max returns the most positive value of W.
func Max[W Word]() W {
	return ^Min[W]()
}

// Negative is the sign test.
func Negative[W Word](w W) bool {
	return w < 0
}

// Not is the bitwise complement.
func Not[W Word](w W) W {
	return ^w
}

// Add is wraparound addition.
func Add[W Word](a, b W) W {
	return a + b
}

// Sub is wraparound subtraction.
func Sub[W Word](a, b W) W {
	return a - b
}
