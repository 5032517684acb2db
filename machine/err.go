package machine

import (
	"errors"

	"github.com/ezrec/uarc/translate"
)

var f = translate.From

var (
	ErrCoreInvalid = errors.New(f("core index invalid"))
	ErrLinkSelf    = errors.New(f("core cannot link to itself"))
	ErrRunning     = errors.New(f("machine is running"))
)

// ErrCore indicates which core stopped with an error.
type ErrCore struct {
	Core int
	Err  error
}

func (err *ErrCore) Error() string {
	return f("core%d: %v", err.Core, err.Err)
}

func (err *ErrCore) Unwrap() error {
	return err.Err
}
