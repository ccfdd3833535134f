package engine

import (
	"context"
	"time"

	"github.com/yeetbox/yeetbox/pkg/kvs"
	"github.com/yeetbox/yeetbox/pkg/pathresolver"
)

// AppendRequest targets an existing file for in-place append.
type AppendRequest struct {
	Path string
	// Version, if non-zero, must equal the file's current latest_version
	// or the call fails (spec.md §4.4 append, step 4).
	Version uint64
	Data    []byte
}

// Append implements spec.md §4.4 append: open the write transaction before
// re-reading the latest version (TOCTOU discipline), then append bytes to
// the shared blob and record a new version sharing that blob.
func (e *Engine) Append(ctx context.Context, req AppendRequest) (err error) {
	start := time.Now()
	defer func() { e.mx.record("append", CodeOf(err), time.Since(start).Seconds()) }()

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
		return err
	}

	return e.withWriteTxn(ctx, func(txn kvs.WriteTxn) error {
		key := FSKey(parent.ID, pathresolver.Normalize(leaf))
		value, had, gerr := txn.Get(kvs.TableFS, key)
		if gerr != nil {
			return internal("read fs row", gerr)
		}
		if !had {
			return notFound("no such file")
		}
		fsRec, derr := DecodeFSRecord(value)
		if derr != nil {
			return derr
		}
		if !fsRec.Type.Readable() {
			return invalidArgument("not a readable object")
		}
		if req.Version != 0 && req.Version != fsRec.LatestVersion {
			return invalidArgument("not appending to latest version")
		}

		verKey := VerKey(fsRec.ID, fsRec.LatestVersion)
		verValue, had, gerr := txn.Get(kvs.TableVer, verKey)
		if gerr != nil {
			return internal("read ver row", gerr)
		}
		if !had {
			return internal("database corrupted: missing version", nil)
		}
		prevVer, derr := DecodeVersionRecord(verValue)
		if derr != nil {
			return derr
		}

		blobs, berr := e.blobStore(prevVer.StorageTier)
		if berr != nil {
			return berr
		}
		blobID, perr := parseBlobIDString(prevVer.BlobName)
		if perr != nil {
			return perr
		}

		writer, oerr := blobs.CreateOrAppendOpen(ctx, blobID)
		if oerr != nil {
			return internal("open blob for append", oerr)
		}
		if aerr := writer.Append(ctx, req.Data); aerr != nil {
			writer.Close()
			return internal("append to blob", aerr)
		}

		newLength := UnknownLength
		if prevVer.Length != UnknownLength {
			newLength = prevVer.Length + uint64(len(req.Data))
		} else {
			size, serr := writer.Size(ctx)
			if serr != nil {
				writer.Close()
				return internal("stat blob", serr)
			}
			newLength = uint64(size)
		}
		if cerr := writer.Close(); cerr != nil {
			return internal("close blob after append", cerr)
		}

		now := Now()
		newVersion := fsRec.LatestVersion + 1
		newVer := &VersionRecord{
			CreateTime:  now,
			AccessTime:  ZeroTimestamp,
			Length:      newLength,
			UID:         prevVer.UID,
			GID:         prevVer.GID,
			Flags:       prevVer.Flags,
			StorageTier: prevVer.StorageTier,
			BlobName:    prevVer.BlobName,
		}
		if perr := txn.Put(kvs.TableVer, VerKey(fsRec.ID, newVersion), EncodeVersionRecord(newVer)); perr != nil {
			return internal("write ver row", perr)
		}

		fsRec.LatestVersion = newVersion
		fsRec.ModifyTime = now
		if perr := txn.Put(kvs.TableFS, key, EncodeFSRecord(fsRec)); perr != nil {
			return internal("write fs row", perr)
		}
		return nil
	})
}
