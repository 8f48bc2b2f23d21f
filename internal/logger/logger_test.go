package logger_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := logger.ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, logger.DebugLevel, lvl)

	lvl, err = logger.ParseLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, logger.WarnLevel, lvl)

	_, err = logger.ParseLevel("loud")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLogLevel(logger.DebugLevel)

	logger.For("timer").Info().Str("id", "abc").Msg("Timer completed")

	assert.Contains(t, buf.String(), `"component":"timer"`)
	assert.Contains(t, buf.String(), `"message":"Timer completed"`)
}
