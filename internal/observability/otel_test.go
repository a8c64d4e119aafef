package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOtelHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "authorization=Bearer x, bad, k=v,=empty")
	assert.Equal(t, map[string]string{"authorization": "Bearer x", "k": "v"}, otelHeaders())

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	assert.Nil(t, otelHeaders())
}

func TestOtelSampleRatioClamps(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "5")
	assert.Equal(t, 1.0, otelSampleRatio())
	t.Setenv("OTEL_SAMPLER_RATIO", "-1")
	assert.Equal(t, 0.0, otelSampleRatio())
	t.Setenv("OTEL_SAMPLER_RATIO", "")
	assert.Equal(t, 0.1, otelSampleRatio())
}
