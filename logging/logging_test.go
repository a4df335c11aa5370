package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"git.tcp.direct/tcp.direct/kvbind/config"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.Logging{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	require.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())
	logger.Warn().Str("path", "/tmp/x").Msg("kept")
	require.Contains(t, buf.String(), `"path":"/tmp/x"`)
}

func TestSetupText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Setup(config.Logging{Format: "text"}, &buf)
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	logger.Info().Msg("hello")
	require.Contains(t, buf.String(), "hello")
	require.NotContains(t, buf.String(), `"message"`)
}

func TestSetupBadLevel(t *testing.T) {
	_, err := Setup(config.Logging{Level: "loud"}, &bytes.Buffer{})
	require.Error(t, err)
}
