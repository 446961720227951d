package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core).Sugar()

	ctx := WithLogger(context.Background(), l)
	Log(ctx).Infow("hello", "requestId", "abc")

	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["requestId"])
}

func TestLogFallback(t *testing.T) {
	assert.NotNil(t, Log(context.Background()))
}
