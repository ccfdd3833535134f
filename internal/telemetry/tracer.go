package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for engine and transport spans, following
// OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client attributes
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"
	AttrClientPort = "client.port"

	// ========================================================================
	// RPC attributes
	// ========================================================================
	AttrOperation = "rpc.operation" // RPC/engine operation name
	AttrAuthcID   = "auth.authcid"
	AttrMechanism = "auth.mechanism"

	// ========================================================================
	// Object attributes
	// ========================================================================
	AttrPath        = "fs.path"
	AttrObjectID    = "fs.object_id"
	AttrVersion     = "fs.version"
	AttrOffset      = "fs.offset"
	AttrLength      = "fs.length"
	AttrType        = "fs.type"
	AttrBytesRead   = "fs.bytes_read"
	AttrBytesWrite  = "fs.bytes_written"

	// ========================================================================
	// Storage backend attributes
	// ========================================================================
	AttrBlobID      = "storage.blob_id"
	AttrStorageTier = "storage.tier"
	AttrStoreType   = "storage.type"
	AttrBucket      = "storage.bucket"
	AttrRegion      = "storage.region"
)

// Span names for engine operations.
const (
	SpanMakeDirectory = "engine.make_directory"
	SpanUpload        = "engine.upload"
	SpanAppend        = "engine.append"
	SpanDownload      = "engine.download"
	SpanDelete        = "engine.delete"
	SpanList          = "engine.list"
	SpanReclaim       = "engine.reclaim_orphan_blobs"

	SpanAuthenticate = "auth.authenticate"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// ClientAddr returns an attribute for full client address
func ClientAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrClientAddr, addr)
}

// Operation returns an attribute for the RPC/engine operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// AuthcID returns an attribute for the authenticated identity
func AuthcID(id string) attribute.KeyValue {
	return attribute.String(AttrAuthcID, id)
}

// Mechanism returns an attribute for the negotiated SASL mechanism
func Mechanism(name string) attribute.KeyValue {
	return attribute.String(AttrMechanism, name)
}

// Path returns an attribute for an object path
func Path(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// ObjectID returns an attribute for an object identifier
func ObjectID(id uint64) attribute.KeyValue {
	return attribute.Int64(AttrObjectID, int64(id))
}

// Version returns an attribute for a version number
func Version(v uint64) attribute.KeyValue {
	return attribute.Int64(AttrVersion, int64(v))
}

// Offset returns an attribute for a read/write offset
func Offset(offset uint64) attribute.KeyValue {
	return attribute.Int64(AttrOffset, int64(offset))
}

// Length returns an attribute for a requested byte length
func Length(n uint64) attribute.KeyValue {
	return attribute.Int64(AttrLength, int64(n))
}

// Type returns an attribute for object type
func Type(t string) attribute.KeyValue {
	return attribute.String(AttrType, t)
}

// BytesRead returns an attribute for actual bytes read
func BytesRead(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesRead, n)
}

// BytesWritten returns an attribute for actual bytes written
func BytesWritten(n int) attribute.KeyValue {
	return attribute.Int(AttrBytesWrite, n)
}

// BlobID returns an attribute for a blob store identifier
func BlobID(id string) attribute.KeyValue {
	return attribute.String(AttrBlobID, id)
}

// StorageTier returns an attribute for a storage tier selector
func StorageTier(tier uint8) attribute.KeyValue {
	return attribute.Int(AttrStorageTier, int(tier))
}

// StoreType returns an attribute for a store driver name
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for an S3 bucket name
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// Region returns an attribute for a cloud region
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// StartEngineSpan starts a span for an Object Engine operation.
func StartEngineSpan(ctx context.Context, spanName, operation, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		Operation(operation),
		Path(path),
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}
