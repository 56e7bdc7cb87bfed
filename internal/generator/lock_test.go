package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunLock(t *testing.T) {
	var l RunLock

	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire(), "second acquire while held must fail")

	l.Release()
	assert.True(t, l.TryAcquire(), "acquire after release succeeds")
	l.Release()
}
