package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json", slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept", "order_id", "abc")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"order_id":"abc"`)
}

func TestNewTintWritesMessage(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "tint", slog.LevelInfo).Info("booked")
	assert.Contains(t, buf.String(), "booked")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	stored := New(&buf, "text", slog.LevelInfo)
	fallback := Discard()

	ctx := WithLogger(context.Background(), stored)
	assert.Same(t, stored, FromContext(ctx, fallback))
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
	assert.NotNil(t, FromContext(context.Background(), nil))
}
