package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/timekeeper"
	"pomodoro/internal/core/transition"
)

func TestNewProvider_NoneIsNoop(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{})
	require.NoError(t, err)
	assert.False(t, provider.Enabled())
	assert.NotNil(t, provider.Tracer())
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_RejectsUnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Exporter: "zipkin"})
	assert.ErrorContains(t, err, "unsupported exporter")
}

func TestNewProvider_FileRequiresPath(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Exporter: ExporterFile})
	assert.Error(t, err)
}

func TestNewProvider_FileExporterWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "spans.json")
	provider, err := NewProvider(context.Background(), Config{Exporter: ExporterFile, FilePath: path})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	keeper := timekeeper.New(model.DefaultSettings(), timekeeper.Config{Tracer: provider.Tracer()})
	keeper.Start()
	require.NoError(t, provider.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timekeeper.dispatch")
	assert.Contains(t, string(data), "timer_started")
}

func TestDispatchSpanAttributes(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	keeper := timekeeper.New(model.DefaultSettings(), timekeeper.Config{Tracer: provider.Tracer("test")})
	keeper.Start()
	keeper.Pause()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	last := spans[1]
	assert.Equal(t, "timekeeper.dispatch", last.Name)

	attributes := map[string]string{}
	for _, kv := range last.Attributes {
		attributes[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, string(transition.EventTimerPaused), attributes["pomodoro.event"])
	assert.Equal(t, string(transition.StateWorkRunning), attributes["pomodoro.state.from"])
	assert.Equal(t, string(transition.StateWorkPausedByUser), attributes["pomodoro.state.to"])
	assert.Equal(t, string(transition.ActionNone), attributes["pomodoro.action"])
}
