package engine

import (
	"context"
	"time"

	"github.com/yeetbox/yeetbox/pkg/kvs"
	"github.com/yeetbox/yeetbox/pkg/pathresolver"
)

// maxDownloadChunk is the per-reply blob chunk cap (spec.md §6, 8 MiB).
const maxDownloadChunk = 8 * 1024 * 1024

// DownloadRequest targets a readable object at an optional explicit
// version, a byte offset, and a requested length.
type DownloadRequest struct {
	Path string
	// Version, if non-zero, selects that version instead of latest.
	Version uint64
	Offset  uint64
	Length  uint64
}

// DownloadResult carries the bytes read plus whether the caller should
// re-issue with an advanced offset.
type DownloadResult struct {
	Data []byte
	More bool
}

// Download implements spec.md §4.4 download.
func (e *Engine) Download(ctx context.Context, req DownloadRequest) (result DownloadResult, err error) {
	start := time.Now()
	defer func() { e.mx.record("download", CodeOf(err), time.Since(start).Seconds()) }()

	var verRec *VersionRecord

	err = e.withReadSnapshot(ctx, func(txn kvs.ReadTxn) error {
		parent, leaf, rerr := e.paths.ResolveParent(ctx, txn, req.Path)
		if rerr != nil {
			return rerr
		}
		key := FSKey(parent.ID, pathresolver.Normalize(leaf))
		value, had, gerr := txn.Get(kvs.TableFS, key)
		if gerr != nil {
			return internal("read fs row", gerr)
		}
		if !had {
			return notFound("no such file")
		}
		rec, derr := DecodeFSRecord(value)
		if derr != nil {
			return derr
		}
		if !rec.Type.Readable() {
			return invalidArgument("not a readable object")
		}

		version := req.Version
		if version == 0 {
			version = rec.LatestVersion
		}
		verValue, had, gerr := txn.Get(kvs.TableVer, VerKey(rec.ID, version))
		if gerr != nil {
			return internal("read ver row", gerr)
		}
		if !had {
			return internal("database corrupted: missing version", nil)
		}
		v, derr := DecodeVersionRecord(verValue)
		if derr != nil {
			return derr
		}
		verRec = v
		return nil
	})
	if err != nil {
		return DownloadResult{}, err
	}

	if verRec.Length != UnknownLength && req.Offset > verRec.Length {
		return DownloadResult{}, invalidArgument("offset beyond end of file")
	}

	requested := req.Length
	if verRec.Length != UnknownLength {
		remaining := verRec.Length - req.Offset
		if requested > remaining {
			requested = remaining
		}
	}
	if requested > maxDownloadChunk {
		requested = maxDownloadChunk
	}

	blobs, err := e.blobStore(verRec.StorageTier)
	if err != nil {
		return DownloadResult{}, err
	}
	blobID, err := parseBlobIDString(verRec.BlobName)
	if err != nil {
		return DownloadResult{}, err
	}
	reader, err := blobs.OpenRead(ctx, blobID)
	if err != nil {
		return DownloadResult{}, internal("open blob for read", err)
	}
	defer reader.Close()

	buf := make([]byte, requested)
	n, rerr := reader.ReadAt(ctx, buf, int64(req.Offset))
	if rerr != nil && n == 0 {
		return DownloadResult{}, internal("read blob", rerr)
	}

	return DownloadResult{
		Data: buf[:n],
		More: uint64(n) == maxDownloadChunk,
	}, nil
}
