package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the service.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// RPC & Operation
	// ========================================================================
	KeyOperation = "operation" // RPC name: upload, download, make_directory, etc.
	KeyErrorCode = "error_code" // Canonical engine error code
	KeyStatus    = "status"     // Operation status code

	// ========================================================================
	// Filesystem Operations
	// ========================================================================
	KeyPath       = "path"        // Full object path
	KeyParentPath = "parent_path" // Parent directory path
	KeyOldPath    = "old_path"    // Source path for move/copy operations
	KeyNewPath    = "new_path"    // Destination path for move/copy operations
	KeyType       = "type"        // Object type: file, folder
	KeyObjectID   = "object_id"   // Object identifier
	KeyVersion    = "version"     // Version number

	// ========================================================================
	// I/O Operations
	// ========================================================================
	KeyOffset       = "offset"        // Read/write offset
	KeyLength       = "length"        // Requested byte length
	KeyBytesRead    = "bytes_read"    // Actual bytes read
	KeyBytesWritten = "bytes_written" // Actual bytes written
	KeyBlobID       = "blob_id"       // Blob store identifier
	KeyStorageTier  = "storage_tier"  // Storage tier selector

	// ========================================================================
	// Client Identification
	// ========================================================================
	KeyClientIP   = "client_ip"   // Client IP address
	KeyClientPort = "client_port" // Client source port
	KeyAuthcID    = "authcid"     // Authenticated identity
	KeyMechanism  = "mechanism"   // SASL mechanism negotiated

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreType = "store_type" // Store driver: badger, sql, local, s3
	KeyBucket    = "bucket"     // Cloud bucket name (S3)
	KeyRegion    = "region"     // Cloud region

	// ========================================================================
	// Directory Operations
	// ========================================================================
	KeyEntries = "entries" // Number of directory entries returned

	// ========================================================================
	// Reclamation
	// ========================================================================
	KeyReclaimed = "reclaimed" // Number of orphan blobs removed
)

// ----------------------------------------------------------------------------
// Distributed Tracing
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ----------------------------------------------------------------------------
// RPC & Operation
// ----------------------------------------------------------------------------

// Operation returns a slog.Attr for the RPC/operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// ErrorCode returns a slog.Attr for the canonical engine error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}

// ----------------------------------------------------------------------------
// Filesystem Operations
// ----------------------------------------------------------------------------

// Path returns a slog.Attr for an object path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// ParentPath returns a slog.Attr for a parent directory path
func ParentPath(p string) slog.Attr {
	return slog.String(KeyParentPath, p)
}

// OldPath returns a slog.Attr for the source path in move/copy operations
func OldPath(p string) slog.Attr {
	return slog.String(KeyOldPath, p)
}

// NewPath returns a slog.Attr for the destination path in move/copy operations
func NewPath(p string) slog.Attr {
	return slog.String(KeyNewPath, p)
}

// Type returns a slog.Attr for object type
func Type(t string) slog.Attr {
	return slog.String(KeyType, t)
}

// ObjectID returns a slog.Attr for an object identifier
func ObjectID(id uint64) slog.Attr {
	return slog.Uint64(KeyObjectID, id)
}

// Version returns a slog.Attr for a version number
func Version(v uint64) slog.Attr {
	return slog.Uint64(KeyVersion, v)
}

// ----------------------------------------------------------------------------
// I/O Operations
// ----------------------------------------------------------------------------

// Offset returns a slog.Attr for a read/write offset
func Offset(off uint64) slog.Attr {
	return slog.Uint64(KeyOffset, off)
}

// Length returns a slog.Attr for requested byte length
func Length(n uint64) slog.Attr {
	return slog.Uint64(KeyLength, n)
}

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n int) slog.Attr {
	return slog.Int(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n int) slog.Attr {
	return slog.Int(KeyBytesWritten, n)
}

// BlobID returns a slog.Attr for a blob store identifier
func BlobID(id string) slog.Attr {
	return slog.String(KeyBlobID, id)
}

// StorageTier returns a slog.Attr for a storage tier selector
func StorageTier(tier uint8) slog.Attr {
	return slog.Any(KeyStorageTier, tier)
}

// ----------------------------------------------------------------------------
// Client Identification
// ----------------------------------------------------------------------------

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for client source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// AuthcID returns a slog.Attr for the authenticated identity
func AuthcID(id string) slog.Attr {
	return slog.String(KeyAuthcID, id)
}

// Mechanism returns a slog.Attr for the negotiated SASL mechanism
func Mechanism(name string) slog.Attr {
	return slog.String(KeyMechanism, name)
}

// ----------------------------------------------------------------------------
// Operation Metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ----------------------------------------------------------------------------
// Storage Backend
// ----------------------------------------------------------------------------

// StoreType returns a slog.Attr for a store driver name
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for a cloud bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Region returns a slog.Attr for a cloud region
func Region(r string) slog.Attr {
	return slog.String(KeyRegion, r)
}

// ----------------------------------------------------------------------------
// Directory Operations
// ----------------------------------------------------------------------------

// Entries returns a slog.Attr for number of directory entries returned
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// ----------------------------------------------------------------------------
// Reclamation
// ----------------------------------------------------------------------------

// Reclaimed returns a slog.Attr for number of orphan blobs removed
func Reclaimed(n int) slog.Attr {
	return slog.Int(KeyReclaimed, n)
}
