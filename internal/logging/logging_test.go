package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	logger, err := setup(&buf, "debug", FormatJSON)
	require.NoError(t, err)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Debug().Str("component", "chat").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "debug", line["level"])
	require.Equal(t, "chat", line["component"])
	require.Equal(t, "hello", line["message"])
}

func TestSetup_RejectsUnknownLevelAndFormat(t *testing.T) {
	_, err := setup(&bytes.Buffer{}, "loud", FormatJSON)
	require.Error(t, err)

	_, err = setup(&bytes.Buffer{}, "info", "xml")
	require.Error(t, err)
}
