package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTagsApplication(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "debug", "AirtimeQueen")
	logger.Debug("hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "AirtimeQueen", record["app"])
	require.Equal(t, "hello", record["msg"])
}

func TestNewInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, "chatty", "")
	logger.Debug("dropped")
	require.Zero(t, buf.Len())

	logger.Info("kept")
	require.Contains(t, buf.String(), "kept")
}
