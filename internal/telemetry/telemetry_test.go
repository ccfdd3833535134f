package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "yeetboxd", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	// Should be able to call shutdown without error
	err = shutdown(ctx)
	assert.NoError(t, err)

	// Should not be enabled
	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	// Reset state
	tracer = nil
	enabled = false

	// Without initialization, should return no-op tracer
	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	// Even without initialization, StartSpan should work (no-op)
	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	// Should be able to end the span
	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	// Should return a span even without active span
	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	// Should not panic with no active span
	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	// Should not panic with nil error
	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	// Should not panic with error
	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	// Should not panic
	require.NotPanics(t, func() {
		SetAttributes(ctx, ClientIP("192.168.1.1"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	// Without active span, should return empty string
	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("ClientIP", func(t *testing.T) {
		attr := ClientIP("192.168.1.100")
		assert.Equal(t, AttrClientIP, string(attr.Key))
		assert.Equal(t, "192.168.1.100", attr.Value.AsString())
	})

	t.Run("ClientAddr", func(t *testing.T) {
		attr := ClientAddr("192.168.1.100:12345")
		assert.Equal(t, AttrClientAddr, string(attr.Key))
		assert.Equal(t, "192.168.1.100:12345", attr.Value.AsString())
	})

	t.Run("Operation", func(t *testing.T) {
		attr := Operation("upload")
		assert.Equal(t, AttrOperation, string(attr.Key))
		assert.Equal(t, "upload", attr.Value.AsString())
	})

	t.Run("Path", func(t *testing.T) {
		attr := Path("/docs/report.pdf")
		assert.Equal(t, AttrPath, string(attr.Key))
		assert.Equal(t, "/docs/report.pdf", attr.Value.AsString())
	})

	t.Run("ObjectID", func(t *testing.T) {
		attr := ObjectID(42)
		assert.Equal(t, AttrObjectID, string(attr.Key))
		assert.Equal(t, int64(42), attr.Value.AsInt64())
	})

	t.Run("Version", func(t *testing.T) {
		attr := Version(3)
		assert.Equal(t, AttrVersion, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("Offset", func(t *testing.T) {
		attr := Offset(1024)
		assert.Equal(t, AttrOffset, string(attr.Key))
		assert.Equal(t, int64(1024), attr.Value.AsInt64())
	})

	t.Run("Length", func(t *testing.T) {
		attr := Length(4096)
		assert.Equal(t, AttrLength, string(attr.Key))
		assert.Equal(t, int64(4096), attr.Value.AsInt64())
	})

	t.Run("AuthcID", func(t *testing.T) {
		attr := AuthcID("alice")
		assert.Equal(t, AttrAuthcID, string(attr.Key))
		assert.Equal(t, "alice", attr.Value.AsString())
	})

	t.Run("Mechanism", func(t *testing.T) {
		attr := Mechanism("PLAIN")
		assert.Equal(t, AttrMechanism, string(attr.Key))
		assert.Equal(t, "PLAIN", attr.Value.AsString())
	})

	t.Run("BlobID", func(t *testing.T) {
		attr := BlobID("deadbeef.blob")
		assert.Equal(t, AttrBlobID, string(attr.Key))
		assert.Equal(t, "deadbeef.blob", attr.Value.AsString())
	})

	t.Run("StorageTier", func(t *testing.T) {
		attr := StorageTier(1)
		assert.Equal(t, AttrStorageTier, string(attr.Key))
		assert.Equal(t, int64(1), attr.Value.AsInt64())
	})

	t.Run("Bucket", func(t *testing.T) {
		attr := Bucket("my-bucket")
		assert.Equal(t, AttrBucket, string(attr.Key))
		assert.Equal(t, "my-bucket", attr.Value.AsString())
	})

	t.Run("Region", func(t *testing.T) {
		attr := Region("us-east-1")
		assert.Equal(t, AttrRegion, string(attr.Key))
		assert.Equal(t, "us-east-1", attr.Value.AsString())
	})
}

func TestStartEngineSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartEngineSpan(ctx, SpanUpload, "upload", "/docs/report.pdf")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	// With additional attributes
	newCtx2, span2 := StartEngineSpan(ctx, SpanDownload, "download", "/docs/report.pdf", Offset(0), Length(4096))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}
