// Package local implements pkg/blobstore.Store over a flat directory of
// files, named by the lowercase-hex blob-id. The teacher's content stores
// are all S3-backed (pkg/store/content/s3), so there is no teacher file to
// adapt here; local disk I/O has no third-party equivalent in the corpus,
// so this backend is built on os/io directly (see DESIGN.md).
package local

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid"

	"github.com/yeetbox/yeetbox/pkg/blobstore"
)

// Store is a directory of flat files, one per blob.
type Store struct {
	dir string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open ensures dir exists and returns a Store rooted there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore/local: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir, entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)}, nil
}

// blobFileName renders id as the "<blob-id>.blob" filename spec.md §4.2
// requires.
func blobFileName(id [16]byte) string {
	return hex.EncodeToString(id[:]) + ".blob"
}

func (s *Store) path(id [16]byte) string {
	return filepath.Join(s.dir, blobFileName(id))
}

func (s *Store) NewBlobID() [16]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), s.entropy)
	if err != nil {
		// Monotonic entropy overflow within the same millisecond is the only
		// failure mode; re-seed and retry once.
		s.entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
		id = ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy)
	}
	return [16]byte(id)
}

func (s *Store) CreateOrAppendOpen(ctx context.Context, id [16]byte) (blobstore.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(s.path(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blobstore/local: open for append: %w", err)
	}
	return &writer{f: f}, nil
}

func (s *Store) OpenRead(ctx context.Context, id [16]byte) (blobstore.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blobstore/local: open for read: %w", err)
	}
	return &reader{f: f}, nil
}

func (s *Store) Rename(ctx context.Context, oldID, newID [16]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(s.path(oldID), s.path(newID)); err != nil {
		return fmt.Errorf("blobstore/local: rename: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id [16]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blobstore/local: delete: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([][16]byte, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("blobstore/local: list: %w", err)
	}
	out := make([][16]byte, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) != 32+5 || name[32:] != ".blob" {
			continue // not one of ours
		}
		raw, err := hex.DecodeString(name[:32])
		if err != nil || len(raw) != 16 {
			continue // not one of ours
		}
		var id [16]byte
		copy(id[:], raw)
		out = append(out, id)
	}
	return out, nil
}

type writer struct {
	f *os.File
}

func (w *writer) Append(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := w.f.Write(data); err != nil {
		return fmt.Errorf("blobstore/local: append: %w", err)
	}
	return nil
}

func (w *writer) Size(ctx context.Context) (int64, error) {
	info, err := w.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("blobstore/local: stat: %w", err)
	}
	return info.Size(), nil
}

func (w *writer) Close() error {
	return w.f.Close()
}

type reader struct {
	f *os.File
}

func (r *reader) ReadAt(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, err := r.f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("blobstore/local: read: %w", err)
	}
	return n, err
}

func (r *reader) Size(ctx context.Context) (int64, error) {
	info, err := r.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("blobstore/local: stat: %w", err)
	}
	return info.Size(), nil
}

func (r *reader) Close() error {
	return r.f.Close()
}
