package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/config"
)

func TestEndpointHost(t *testing.T) {
	assert.Equal(t, "collector:4318", endpointHost("http://collector:4318"))
	assert.Equal(t, "collector:4318", endpointHost("https://collector:4318"))
	assert.Equal(t, "collector:4318", endpointHost("collector:4318"))
}

func TestInit_DisabledIsNoop(t *testing.T) {
	assert.NoError(t, Init(context.Background(), config.TracingConfig{}))

	_, span := Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, Shutdown(context.Background()))
}
