package image

import (
	"errors"

	"github.com/ezrec/uarc/translate"
)

var f = translate.From

var (
	ErrImageFormat   = errors.New(f("not a program image"))
	ErrImageVersion  = errors.New(f("program image version unsupported"))
	ErrImageDigest   = errors.New(f("program image digest mismatch"))
	ErrImageTrunc    = errors.New(f("program image truncated"))
	ErrImageTooLarge = errors.New(f("program image too large"))
	ErrImageNotFound = errors.New(f("program image not found"))
	ErrWidthMismatch = errors.New(f("program image word width mismatch"))
	ErrNameInvalid   = errors.New(f("program image name invalid"))
)
