// Package pathresolver walks a "/"-separated path from the implicit root
// folder to the fs-table row it names, normalizing each component with
// NFKD so that visually identical names collide regardless of the Unicode
// form the client sent them in. The teacher has no analogous package (NFS
// resolves by file handle, not path), so this is grounded directly on
// spec.md §4.3; golang.org/x/text/unicode/norm is already present in the
// dependency tree the teacher carries, promoted here from indirect to
// directly used.
package pathresolver

import (
	"context"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yeetbox/yeetbox/pkg/engine"
	"github.com/yeetbox/yeetbox/pkg/kvs"
)

// Normalize returns the NFKD normal form of name, used both as the fs-table
// key component and for equality comparisons between path segments.
func Normalize(name string) []byte {
	return norm.NFKD.Bytes([]byte(name))
}

// Resolver walks paths against the fs table of a kvs.Store.
type Resolver struct {
	store kvs.Store
}

// New builds a Resolver over store.
func New(store kvs.Store) *Resolver {
	return &Resolver{store: store}
}

// Split breaks a client-supplied path into its "/"-separated components,
// dropping empty segments produced by leading, trailing, or doubled
// slashes. An empty or "/"-only path yields zero components, i.e. the
// root folder itself.
func Split(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// Resolve walks path from the root folder and returns the fs record it
// names. If includeLeaf is false, the final component is not required to
// exist; Resolve then returns the parent folder's record and the caller is
// responsible for interpreting the last component itself (used by
// operations that are about to create the leaf, e.g. mkdir/upload).
func (r *Resolver) Resolve(ctx context.Context, txn kvs.ReadTxn, path string, includeLeaf bool) (*engine.FSRecord, error) {
	segments := Split(path)
	if !includeLeaf && len(segments) > 0 {
		segments = segments[:len(segments)-1]
	}

	current := engine.RootObjectID
	var currentRec *engine.FSRecord

	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := engine.FSKey(current, Normalize(seg))
		value, ok, err := txn.Get(kvs.TableFS, key)
		if err != nil {
			return nil, engine.NewInternal("resolve: read fs row", err)
		}
		if !ok {
			return nil, engine.NewNotFound("path component not found: " + seg)
		}
		rec, err := engine.DecodeFSRecord(value)
		if err != nil {
			return nil, err
		}
		if rec.Type != engine.TypeFolder && i != len(segments)-1 {
			return nil, engine.NewInvalidArgument("path component is not a folder: " + seg)
		}
		current = rec.ID
		currentRec = rec
	}

	if currentRec == nil {
		// Zero segments resolved: the root folder itself.
		return r.rootRecord(), nil
	}
	return currentRec, nil
}

// ResolveParent is a convenience wrapper equivalent to Resolve(ctx, txn,
// path, false), returning the parent folder and the final (possibly
// nonexistent) leaf name. Per spec.md §4.3, the leaf is trimmed of
// surrounding whitespace before normalization, and rejected if that
// trim leaves it empty.
func (r *Resolver) ResolveParent(ctx context.Context, txn kvs.ReadTxn, path string) (parent *engine.FSRecord, leaf string, err error) {
	segments := Split(path)
	if len(segments) == 0 {
		return nil, "", engine.NewInvalidArgument("path has no leaf component")
	}
	leaf = strings.TrimSpace(segments[len(segments)-1])
	if leaf == "" {
		return nil, "", engine.NewInvalidArgument("leaf component is empty after trimming whitespace")
	}
	parent, err = r.Resolve(ctx, txn, path, false)
	if err != nil {
		return nil, "", err
	}
	if parent.Type != engine.TypeFolder {
		return nil, "", engine.NewInvalidArgument("parent is not a folder")
	}
	return parent, leaf, nil
}

func (r *Resolver) rootRecord() *engine.FSRecord {
	return &engine.FSRecord{
		ID:          engine.RootObjectID,
		Type:        engine.TypeFolder,
		DisplayName: "",
	}
}
