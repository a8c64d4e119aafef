package logger

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agenty/agenty-backend/internal/platform/ctxutil"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestSanitizeRedactsSecretsAndHashesIDs(t *testing.T) {
	log, logs := observed()
	log.Info("bookmark", "api_key", "sk-123", "user_id", "u-1", "insight_content", "revenue by region", "flow", "bookmark_insight")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["api_key"])
	assert.Equal(t, "[REDACTED]", fields["insight_content"])
	assert.True(t, strings.HasPrefix(fields["user_id"].(string), "hash:"))
	assert.Equal(t, "bookmark_insight", fields["flow"])
}

func TestFromContextAddsTraceFields(t *testing.T) {
	log, logs := observed()
	ctx := ctxutil.WithTraceData(context.Background(), &ctxutil.TraceData{TraceID: "t-1", RequestID: "r-1"})
	log.FromContext(ctx).Debug("hello")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
}

func TestFromContextWithoutTraceData(t *testing.T) {
	log, _ := observed()
	assert.Same(t, log, log.FromContext(context.Background()))
}

func TestNewTestModeIsNop(t *testing.T) {
	log, err := New("test")
	require.NoError(t, err)
	log.Info("discarded")
}
