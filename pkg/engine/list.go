package engine

import (
	"context"
	"time"

	"github.com/yeetbox/yeetbox/pkg/kvs"
)

// ListRequest names the folder whose direct children should be listed.
type ListRequest struct {
	Path  string
	Attrs bool
}

// ListEntry describes one direct child.
type ListEntry struct {
	RelativeName string
	Type         ObjectType
	// Attrs is populated only when ListRequest.Attrs is true.
	Attrs *ListEntryAttrs
}

// ListEntryAttrs carries the timestamp/type metadata callers may request
// alongside each entry.
type ListEntryAttrs struct {
	CreateTime Timestamp
	ModifyTime Timestamp
	AccessTime Timestamp
	ChangeTime Timestamp
}

// List implements spec.md §4.4 list: a contiguous range scan of the fs
// table under the folder's identifier prefix.
func (e *Engine) List(ctx context.Context, req ListRequest) (entries []ListEntry, err error) {
	start := time.Now()
	defer func() { e.mx.record("list", CodeOf(err), time.Since(start).Seconds()) }()

	err = e.withReadSnapshot(ctx, func(txn kvs.ReadTxn) error {
		folder, rerr := e.paths.Resolve(ctx, txn, req.Path, true)
		if rerr != nil {
			return rerr
		}
		if folder.Type != TypeFolder {
			return invalidArgument("path contained a non-folder")
		}

		it, serr := txn.Scan(kvs.TableFS, FSChildPrefix(folder.ID))
		if serr != nil {
			return internal("scan fs children", serr)
		}
		defer it.Close()

		for it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, verr := it.Value()
			if verr != nil {
				return internal("read fs child value", verr)
			}
			rec, derr := DecodeFSRecord(value)
			if derr != nil {
				return derr
			}
			entry := ListEntry{RelativeName: rec.DisplayName, Type: rec.Type}
			if req.Attrs {
				entry.Attrs = &ListEntryAttrs{
					CreateTime: rec.CreateTime,
					ModifyTime: rec.ModifyTime,
					AccessTime: rec.AccessTime,
					ChangeTime: rec.ChangeTime,
				}
			}
			entries = append(entries, entry)
		}
		return it.Err()
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
