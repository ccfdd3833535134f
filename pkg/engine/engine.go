// Package engine implements the Object Engine: the state machine for
// folders, files, and their versions (spec.md §4.4). One file per
// operation, mirroring the teacher's one-handler-per-file layout under
// internal/protocol/nfs/v3/handlers.
package engine

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeetbox/yeetbox/pkg/blobstore"
	"github.com/yeetbox/yeetbox/pkg/kvs"
	"github.com/yeetbox/yeetbox/pkg/pathresolver"
)

// Engine binds a KVS, a set of tiered blob stores, and a path resolver into
// the operations of spec.md §4.4. It holds no per-call state; every method
// opens and closes its own transactions.
type Engine struct {
	kv    kvs.Store
	blobs map[uint8]blobstore.Store
	paths *pathresolver.Resolver
	log   *slog.Logger
	mx    *metrics
}

// New builds an Engine. blobs must contain at least tier 0 (the primary
// local-disk backend); additional tiers are optional secondary backends
// (e.g. S3) selected per-version by VersionRecord.StorageTier. reg
// registers the Engine's Prometheus metrics; pass a fresh
// prometheus.NewRegistry() in tests to avoid collisions with other Engine
// instances in the same process.
func New(kv kvs.Store, blobs map[uint8]blobstore.Store, log *slog.Logger, reg prometheus.Registerer) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Engine{
		kv:    kv,
		blobs: blobs,
		paths: pathresolver.New(kv),
		log:   log,
		mx:    newMetrics(reg),
	}
}

// blobStore returns the blobstore.Store bound to tier, or an internal error
// if the server was not configured with that tier (a corrupt or
// misconfigured deployment, never a caller mistake).
func (e *Engine) blobStore(tier uint8) (blobstore.Store, error) {
	store, ok := e.blobs[tier]
	if !ok {
		return nil, internal("no blob store configured for storage tier", nil)
	}
	return store, nil
}

// withReadSnapshot runs fn against a fresh read transaction, always
// discarding it afterwards regardless of outcome.
func (e *Engine) withReadSnapshot(ctx context.Context, fn func(kvs.ReadTxn) error) error {
	txn, err := e.kv.BeginRead(ctx)
	if err != nil {
		return internal("begin read transaction", err)
	}
	defer txn.Discard()
	return fn(txn)
}

// withWriteTxn runs fn against a fresh write transaction, committing on
// success and discarding (never committing) on any error — including one
// returned by fn itself.
func (e *Engine) withWriteTxn(ctx context.Context, fn func(kvs.WriteTxn) error) error {
	txn, err := e.kv.BeginWrite(ctx)
	if err != nil {
		return internal("begin write transaction", err)
	}
	defer txn.Discard()
	if err := fn(txn); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return internal("commit write transaction", err)
	}
	return nil
}
