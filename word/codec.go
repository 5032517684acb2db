package word

import (
	"io"
	"iter"
)

// Encode packs words as little-endian two's-complement bytes.
func Encode[W Word](words []W) (data []byte) {
	size := Bits[W]() / 8
	data = make([]byte, 0, len(words)*size)
	for _, w := range words {
		u := uint64(int64(w))
		for n := range size {
			data = append(data, byte(u>>(8*n)))
		}
	}
	return
}

// Decode unpacks little-endian two's-complement bytes.
// The input must be a whole number of words.
func Decode[W Word](data []byte) (words []W, err error) {
	size := Bits[W]() / 8
	if len(data)%size != 0 {
		err = ErrPartialWord
		return
	}

	words = make([]W, 0, len(data)/size)
	for w := range Words[W](data) {
		words = append(words, w)
	}

	return
}

// Words iterates the whole words in data, ignoring any trailing partial word.
func Words[W Word](data []byte) iter.Seq[W] {
	size := Bits[W]() / 8
	return func(yield func(w W) bool) {
		for len(data) >= size {
			var u uint64
			for n := range size {
				u |= uint64(data[n]) << (8 * n)
			}
			data = data[size:]
			if !yield(W(u)) {
				return
			}
		}
	}
}

// ReadWords reads words from r until EOF.
func ReadWords[W Word](r io.Reader) (words []W, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	words, err = Decode[W](data)
	return
}
