package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("stack underflow", From("stack underflow"))
	assert.Contains(From("trap at pc %d", 7), "7")
}
