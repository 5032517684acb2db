package bus

import (
	"errors"

	"github.com/ezrec/uarc/translate"
)

var f = translate.From

var (
	ErrChannelClosed = errors.New(f("channel closed"))
	ErrStreamTaken   = errors.New(f("stream already taken"))
)
