package engine

import (
	"context"
	"time"

	"github.com/oklog/ulid"

	"github.com/yeetbox/yeetbox/pkg/kvs"
)

// ReclaimOrphanBlobs removes blob files older than grace that no ver row
// references — the background pass spec.md §9 designates for staged
// blobs left behind by uploads that never finalized. Tail bytes a losing
// concurrent append left inside a blob that some version still references
// are not removed.
//
// A blob is referenced if it appears as any version's BlobName; grace
// protects blobs from a concurrently in-flight upload that has staged
// bytes but not yet committed the fs/ver rows that would reference them.
// A blob's age is taken from the time prefix of its ULID blob-id.
func (e *Engine) ReclaimOrphanBlobs(ctx context.Context, tier uint8, grace time.Duration) (removed int, err error) {
	blobs, err := e.blobStore(tier)
	if err != nil {
		return 0, err
	}

	referenced, err := e.referencedBlobs(ctx)
	if err != nil {
		return 0, err
	}

	candidates, err := blobs.List(ctx)
	if err != nil {
		return 0, internal("list blob store", err)
	}

	for _, id := range candidates {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if referenced[id] {
			continue
		}
		// A blob-id is a ULID, so its time prefix is the blob's creation
		// time; younger blobs may belong to an in-flight upload.
		if time.Since(ulid.Time(ulid.ULID(id).Time())) < grace {
			continue
		}
		if derr := blobs.Delete(ctx, id); derr == nil {
			removed++
		}
	}
	return removed, nil
}

// referencedBlobs scans every ver row and returns the set of blob-ids they
// name, across the whole database (not scoped to one folder).
func (e *Engine) referencedBlobs(ctx context.Context) (map[[16]byte]bool, error) {
	referenced := make(map[[16]byte]bool)
	err := e.withReadSnapshot(ctx, func(txn kvs.ReadTxn) error {
		it, serr := txn.Scan(kvs.TableVer, nil)
		if serr != nil {
			return internal("scan ver table", serr)
		}
		defer it.Close()
		for it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, verr := it.Value()
			if verr != nil {
				return internal("read ver value", verr)
			}
			rec, derr := DecodeVersionRecord(value)
			if derr != nil {
				return derr
			}
			if rec.BlobName == "" {
				continue
			}
			id, perr := parseBlobIDString(rec.BlobName)
			if perr != nil {
				continue
			}
			referenced[id] = true
		}
		return it.Err()
	})
	if err != nil {
		return nil, err
	}
	return referenced, nil
}
