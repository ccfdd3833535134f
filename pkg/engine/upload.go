package engine

import (
	"context"
	"time"

	"github.com/yeetbox/yeetbox/pkg/blobstore"
	"github.com/yeetbox/yeetbox/pkg/kvs"
	"github.com/yeetbox/yeetbox/pkg/pathresolver"
)

// UploadRequest carries a single-shot or chunked upload call. See spec.md
// §4.4 upload.
type UploadRequest struct {
	Path string
	Data []byte

	// Incomplete, when true, means more chunks follow; Upload stages Data
	// and returns a Continuation without touching fs/ver.
	Incomplete bool

	// Next, when true, permits overwriting an existing object by minting a
	// new version rather than rejecting the call as a collision.
	Next bool

	// Continuation is the 16-byte blob-id from a prior incomplete chunk of
	// this same upload, or nil for the first chunk.
	Continuation []byte

	UID, GID uint32
	// Flags is the permission/flags word; zero means "use the default
	// (0o755)".
	Flags uint16
}

// UploadResult is returned on success.
type UploadResult struct {
	// Continuation is non-nil only when the request was Incomplete.
	Continuation []byte
}

// Upload implements spec.md §4.4 upload: stage bytes to a blob, optionally
// return early for incomplete chunks, then finalize by writing the fs/ver
// records in one write transaction.
func (e *Engine) Upload(ctx context.Context, req UploadRequest) (result UploadResult, err error) {
	start := time.Now()
	defer func() { e.mx.record("upload", CodeOf(err), time.Since(start).Seconds()) }()

	blobs, err := e.blobStore(0)
	if err != nil {
		return UploadResult{}, err
	}

	// Step 1: stage bytes.
	var blobID [16]byte
	if len(req.Continuation) == 0 {
		blobID = blobs.NewBlobID()
	} else {
		blobID, err = blobstore.ParseBlobID(req.Continuation)
		if err != nil {
			return UploadResult{}, invalidArgument("invalid continuation token")
		}
	}

	writer, err := blobs.CreateOrAppendOpen(ctx, blobID)
	if err != nil {
		return UploadResult{}, internal("open staging blob", err)
	}
	if err := writer.Append(ctx, req.Data); err != nil {
		writer.Close()
		return UploadResult{}, internal("append to staging blob", err)
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, internal("close staging blob", err)
	}

	// Step 2: return early for intermediate chunks.
	if req.Incomplete {
		id := blobID
		return UploadResult{Continuation: id[:]}, nil
	}

	// Step 3: resolve the parent of the leaf.
	var parent *FSRecord
	var leaf string
	err = e.withReadSnapshot(ctx, func(txn kvs.ReadTxn) error {
		p, l, rerr := e.paths.ResolveParent(ctx, txn, req.Path)
		if rerr != nil {
			return rerr
		}
		parent, leaf = p, l
		return nil
	})
	if err != nil {
		return UploadResult{}, err
	}

	// Step 6: single-shot uploads (no prior chunking) keep the staging
	// blob as the version's blob; chunked uploads mint a fresh id and
	// rename, invalidating the continuation token.
	singleShot := len(req.Continuation) == 0
	finalBlobID := blobID
	if !singleShot {
		finalBlobID = blobs.NewBlobID()
		if err := blobs.Rename(ctx, blobID, finalBlobID); err != nil {
			return UploadResult{}, internal("rename staged blob to final name", err)
		}
	}

	flags := req.Flags
	if flags == 0 {
		flags = defaultPermFlags
	}

	// Steps 4-9: finalize fs + ver atomically.
	err = e.withWriteTxn(ctx, func(txn kvs.WriteTxn) error {
		key := FSKey(parent.ID, pathresolver.Normalize(leaf))
		existing, had, gerr := txn.Get(kvs.TableFS, key)
		if gerr != nil {
			return internal("read fs row", gerr)
		}

		var objectID ObjectID
		var createTime Timestamp
		var currentVersion uint64

		now := Now()
		if had {
			if !req.Next {
				return invalidArgument("object already exists with that name")
			}
			prev, derr := DecodeFSRecord(existing)
			if derr != nil {
				return derr
			}
			objectID = prev.ID
			createTime = prev.CreateTime
			currentVersion = prev.LatestVersion + 1
		} else {
			id, aerr := e.allocateObjectID(txn)
			if aerr != nil {
				return aerr
			}
			objectID = id
			createTime = now
			currentVersion = 1
		}

		fsRec := &FSRecord{
			ID:            objectID,
			CreateTime:    createTime,
			ModifyTime:    now,
			AccessTime:    ZeroTimestamp,
			ChangeTime:    ZeroTimestamp,
			DeleteTime:    ZeroTimestamp,
			Type:          TypeFile,
			LatestVersion: currentVersion,
			DisplayName:   leaf,
		}
		if perr := txn.Put(kvs.TableFS, key, EncodeFSRecord(fsRec)); perr != nil {
			return internal("write fs row", perr)
		}

		length := UnknownLength
		if singleShot {
			length = uint64(len(req.Data))
		}
		verRec := &VersionRecord{
			CreateTime:  now,
			AccessTime:  ZeroTimestamp,
			Length:      length,
			UID:         req.UID,
			GID:         req.GID,
			Flags:       flags,
			StorageTier: 0,
			BlobName:    blobIDString(finalBlobID),
		}
		verKey := VerKey(objectID, currentVersion)
		if perr := txn.Put(kvs.TableVer, verKey, EncodeVersionRecord(verRec)); perr != nil {
			return internal("write ver row", perr)
		}
		return nil
	})
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{}, nil
}
