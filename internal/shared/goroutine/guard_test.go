package goroutine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotagate/quotagate/internal/shared/logger"
)

func TestGuard(t *testing.T) {
	log := logger.NewNopLogger()

	assert.NoError(t, Guard(log, "ok", func() error { return nil })())

	boom := errors.New("boom")
	assert.ErrorIs(t, Guard(log, "fails", func() error { return boom })(), boom)

	err := Guard(log, "listener", func() error { panic("bad state") })()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listener")
	assert.Contains(t, err.Error(), "bad state")
}
