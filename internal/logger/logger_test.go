package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProdIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "prod", "")
	l.Debug("hidden")
	l.Info("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestNewWithWriter_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "dev", "warn")
	l.Info("hidden")
	assert.Empty(t, buf.String())
	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestL_CarriesContextIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(NewWithWriter(&buf, "prod", "debug"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithRequestID(WithCorrelationID(context.Background(), "corr-1"), "req-1")
	assert.Equal(t, "corr-1", CorrelationID(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))

	L(ctx).Info("hello")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "corr-1", rec["correlation_id"])
	assert.Equal(t, "req-1", rec["request_id"])

	assert.Empty(t, CorrelationID(context.Background()))
}
