package engine

import (
	"context"
	"time"

	"github.com/yeetbox/yeetbox/pkg/kvs"
	"github.com/yeetbox/yeetbox/pkg/pathresolver"
)

// DeleteRequest targets an object for removal.
type DeleteRequest struct {
	Path string
	// Version, if non-zero, must match latest_version or the call fails.
	// Deletion always removes the whole object (all versions) — the
	// literal, if surprising, behavior spec.md §9's Open Questions section
	// calls out and this engine preserves for compatibility.
	Version uint64
}

// DeleteResult is always Shredded=false; secure-erase is out of scope.
type DeleteResult struct {
	Shredded bool
}

// Delete implements spec.md §4.4 delete.
func (e *Engine) Delete(ctx context.Context, req DeleteRequest) (result DeleteResult, err error) {
	start := time.Now()
	defer func() { e.mx.record("delete", CodeOf(err), time.Since(start).Seconds()) }()

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
		return DeleteResult{}, err
	}

	var blobsToDelete []blobDeletion

	err = e.withWriteTxn(ctx, func(txn kvs.WriteTxn) error {
		key := FSKey(parent.ID, pathresolver.Normalize(leaf))
		value, had, gerr := txn.Get(kvs.TableFS, key)
		if gerr != nil {
			return internal("read fs row", gerr)
		}
		if !had {
			return invalidArgument("no such file")
		}
		rec, derr := DecodeFSRecord(value)
		if derr != nil {
			return derr
		}
		if req.Version != 0 && req.Version != rec.LatestVersion {
			return invalidArgument("not deleting the latest version")
		}

		if rec.Type == TypeFolder {
			it, serr := txn.Scan(kvs.TableFS, FSChildPrefix(rec.ID))
			if serr != nil {
				return internal("scan folder children", serr)
			}
			hasChild := it.Next()
			ierr := it.Err()
			it.Close()
			if ierr != nil {
				return internal("scan folder children", ierr)
			}
			if hasChild {
				return invalidArgument("folder is not empty")
			}
		}

		if derr := txn.Delete(kvs.TableFS, key); derr != nil {
			return internal("delete fs row", derr)
		}

		if rec.Type == TypeFolder {
			// spec.md §9: refuse to silently orphan children, so a folder
			// is deleted only when empty (checked above). A folder's
			// latest_version is always 0 so there is nothing in ver to
			// clean up.
			return nil
		}

		for v := rec.LatestVersion; v >= 1; v-- {
			verKey := VerKey(rec.ID, v)
			verValue, had, gerr := txn.Get(kvs.TableVer, verKey)
			if gerr != nil {
				return internal("read ver row", gerr)
			}
			if !had {
				continue
			}
			verRec, derr := DecodeVersionRecord(verValue)
			if derr != nil {
				return derr
			}
			if derr := txn.Delete(kvs.TableVer, verKey); derr != nil {
				return internal("delete ver row", derr)
			}
			if verRec.BlobName != "" {
				blobID, perr := parseBlobIDString(verRec.BlobName)
				if perr != nil {
					return perr
				}
				blobsToDelete = append(blobsToDelete, blobDeletion{tier: verRec.StorageTier, id: blobID})
			}
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	// Append physically shares one blob across the versions that extend
	// it, so the same blob-id may appear more than once here; dedupe
	// before deleting so the second delete isn't a needless no-op lookup.
	seen := make(map[[16]byte]bool, len(blobsToDelete))
	for _, bd := range blobsToDelete {
		if seen[bd.id] {
			continue
		}
		seen[bd.id] = true
		blobs, berr := e.blobStore(bd.tier)
		if berr != nil {
			continue
		}
		_ = blobs.Delete(ctx, bd.id)
	}

	return DeleteResult{Shredded: false}, nil
}

type blobDeletion struct {
	tier uint8
	id   [16]byte
}
