package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/monedero/internal/config"
)

func TestBuild_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := build(config.LoggingConfig{Level: "WARN", Format: "json"}, &buf)
	require.NoError(t, err)
	require.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("dropped")
	logger.Warn().Str("component", "test").Msg("kept")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	require.Equal(t, "kept", event["message"])
	require.Equal(t, "test", event["component"])
	require.Contains(t, event, "time")
}

func TestBuild_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := build(config.LoggingConfig{Level: "debug", Format: "console"}, &buf)
	require.NoError(t, err)

	logger.Debug().Msg("hello")
	require.Contains(t, buf.String(), "hello")
	require.NotContains(t, buf.String(), `"message"`)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"})
	require.Error(t, err)

	_, err = New(config.LoggingConfig{Format: "xml"})
	require.Error(t, err)

	_, err = New(config.LoggingConfig{Output: "/var/log/monedero.log"})
	require.Error(t, err)
}
