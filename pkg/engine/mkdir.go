package engine

import (
	"context"
	"time"

	"github.com/yeetbox/yeetbox/pkg/kvs"
	"github.com/yeetbox/yeetbox/pkg/pathresolver"
)

// MakeDirectoryRequest names the folder to create.
type MakeDirectoryRequest struct {
	// Path is the full "/"-separated path of the new folder, including its
	// own name as the final component.
	Path string
}

// MakeDirectory implements spec.md §4.4 make-directory: resolve the
// parent, reject a name collision, allocate a new object identifier, and
// write a folder FS record.
func (e *Engine) MakeDirectory(ctx context.Context, req MakeDirectoryRequest) (err error) {
	start := time.Now()
	defer func() { e.mx.record("make_directory", CodeOf(err), time.Since(start).Seconds()) }()

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
		if _, had, gerr := txn.Get(kvs.TableFS, key); gerr != nil {
			return internal("read fs row", gerr)
		} else if had {
			return invalidArgument("object already exists with that name")
		}

		id, aerr := e.allocateObjectID(txn)
		if aerr != nil {
			return aerr
		}

		now := Now()
		rec := &FSRecord{
			ID:          id,
			CreateTime:  now,
			ModifyTime:  ZeroTimestamp,
			AccessTime:  ZeroTimestamp,
			ChangeTime:  ZeroTimestamp,
			DeleteTime:  ZeroTimestamp,
			Type:        TypeFolder,
			LatestVersion: 0,
			DisplayName: leaf,
		}
		if perr := txn.Put(kvs.TableFS, key, EncodeFSRecord(rec)); perr != nil {
			return internal("write fs row", perr)
		}
		return nil
	})
}

// allocateObjectID increments the "fs" counter in the seq table and
// returns the freshly allocated identifier. Must be called inside the
// same write transaction that inserts the new FS record (spec.md §3
// "Sequence table").
func (e *Engine) allocateObjectID(txn kvs.WriteTxn) (ObjectID, error) {
	value, ok, err := txn.Get(kvs.TableSeq, SeqKeyFS)
	if err != nil {
		return 0, internal("read fs sequence counter", err)
	}
	var current uint64
	if ok {
		current, err = DecodeSeq(value)
		if err != nil {
			return 0, err
		}
	}
	next := current + 1
	if next == 0 {
		// 64-bit wraparound: fatal per spec.md §3.
		return 0, internal("object identifier sequence wrapped around", nil)
	}
	if err := txn.Put(kvs.TableSeq, SeqKeyFS, EncodeSeq(next)); err != nil {
		return 0, internal("write fs sequence counter", err)
	}
	return ObjectID(next), nil
}
