// Package image is the on-disk form of a Core0 program: the program bytes,
// the initial data memory, and the word width they were built for.
//
// An image is written as:
//
//	"UARC"       magic
//	version      1 byte
//	width        1 byte, bits per word
//	digest       32 bytes, blake3 of the body
//	body         zstd compressed
//
// The body is a little-endian uint32 program length, the program, then the
// data memory words. It may not exceed MAX_BODY_SIZE bytes.
package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"

	"github.com/ezrec/uarc/word"
)

const (
	IMAGE_MAGIC   = "UARC"
	IMAGE_VERSION = 1
	DIGEST_SIZE   = 32
	HEADER_SIZE   = len(IMAGE_MAGIC) + 2 + DIGEST_SIZE
	MAX_BODY_SIZE = 32 << 20 // Largest uncompressed body.
)

// Image is a program and its initial data memory.
type Image struct {
	Width   word.Width // Word width of Data.
	Program []byte     // Program memory.
	Data    []byte     // Data memory, little-endian words.
}

// New creates an image for words of type W.
func New[W word.Word](program []byte, data []W) *Image {
	return &Image{
		Width:   word.WidthOf[W](),
		Program: append([]byte(nil), program...),
		Data:    word.Encode(data),
	}
}

// Words returns the data memory of the image as words of type W.
func Words[W word.Word](img *Image) (data []W, err error) {
	if img.Width != word.WidthOf[W]() {
		err = ErrWidthMismatch
		return
	}

	return word.Decode[W](img.Data)
}

func (img *Image) body() (body []byte) {
	body = binary.LittleEndian.AppendUint32(nil, uint32(len(img.Program)))
	body = append(body, img.Program...)
	body = append(body, img.Data...)
	return
}

// Digest returns the blake3 digest of the image contents.
func (img *Image) Digest() [DIGEST_SIZE]byte {
	return blake3.Sum256(img.body())
}

// ID returns the printable digest of the image.
func (img *Image) ID() string {
	digest := img.Digest()
	return base58.Encode(digest[:])
}

// Marshal writes the image.
func (img *Image) Marshal(w io.Writer) (err error) {
	if !img.Width.Valid() {
		err = word.ErrWidthInvalid
		return
	}

	body := img.body()
	if len(body) > MAX_BODY_SIZE {
		err = ErrImageTooLarge
		return
	}
	digest := blake3.Sum256(body)

	header := make([]byte, 0, HEADER_SIZE)
	header = append(header, IMAGE_MAGIC...)
	header = append(header, IMAGE_VERSION, byte(img.Width))
	header = append(header, digest[:]...)

	_, err = w.Write(header)
	if err != nil {
		return
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return
	}

	_, err = enc.Write(body)
	if err != nil {
		enc.Close()
		return
	}

	err = enc.Close()
	return
}

// Bytes returns the marshalled image.
func (img *Image) Bytes() (data []byte, err error) {
	var buff bytes.Buffer
	err = img.Marshal(&buff)
	if err != nil {
		return
	}

	data = buff.Bytes()
	return
}

// Unmarshal reads an image, and verifies its digest.
func Unmarshal(r io.Reader) (img *Image, err error) {
	header := make([]byte, HEADER_SIZE)
	_, err = io.ReadFull(r, header)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrImageTrunc
		}
		return
	}

	if string(header[:len(IMAGE_MAGIC)]) != IMAGE_MAGIC {
		err = ErrImageFormat
		return
	}
	header = header[len(IMAGE_MAGIC):]

	if header[0] != IMAGE_VERSION {
		err = ErrImageVersion
		return
	}

	width := word.Width(header[1])
	if !width.Valid() {
		err = word.ErrWidthInvalid
		return
	}

	digest := [DIGEST_SIZE]byte(header[2:])

	dec, err := zstd.NewReader(r, zstd.WithDecoderMaxMemory(MAX_BODY_SIZE))
	if err != nil {
		return
	}
	defer dec.Close()

	body, err := io.ReadAll(io.LimitReader(dec, MAX_BODY_SIZE+1))
	if err != nil {
		if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
			err = ErrImageTooLarge
		} else {
			err = errors.Join(ErrImageTrunc, err)
		}
		return
	}

	if len(body) > MAX_BODY_SIZE {
		err = ErrImageTooLarge
		return
	}

	if blake3.Sum256(body) != digest {
		err = ErrImageDigest
		return
	}

	if len(body) < 4 {
		err = ErrImageTrunc
		return
	}

	size := int(binary.LittleEndian.Uint32(body))
	body = body[4:]
	if size > len(body) {
		err = ErrImageTrunc
		return
	}

	data := body[size:]
	if len(data)%width.Bytes() != 0 {
		err = word.ErrPartialWord
		return
	}

	img = &Image{
		Width:   width,
		Program: body[:size],
		Data:    data,
	}

	return
}

// Parse unmarshals an image from bytes.
func Parse(data []byte) (img *Image, err error) {
	return Unmarshal(bytes.NewReader(data))
}
