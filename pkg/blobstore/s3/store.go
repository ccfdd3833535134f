// Package s3 implements pkg/blobstore.Store over an S3-compatible bucket,
// the tier-1 secondary backend spec.md §9 names ("dynamic dispatch among
// storage backends"). Grounded on the teacher's pkg/store/content/s3:
// aws-sdk-go-v2's s3.Client, multipart upload for anything beyond a single
// part, config.LoadDefaultConfig + credentials.NewStaticCredentialsProvider
// for client construction.
//
// S3 objects have no native append; CreateOrAppendOpen emulates one with a
// multipart upload, using UploadPartCopy to fold in the bytes an object of
// at least 5 MiB already holds; a smaller object is read back into the
// write buffer instead, since S3 accepts no non-final part below that
// size (the teacher's own multipart session tracks completed
// parts the same way in s3_multipart.go, minus the buffered-deletion and
// retry machinery this exercise's scope doesn't call for).
package s3

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid"

	"github.com/yeetbox/yeetbox/pkg/blobstore"
)

// minPartSize is S3's minimum multipart part size (5 MiB) for any part but
// the last.
const minPartSize = 5 * 1024 * 1024

// Config configures the S3-backed blob store.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // non-empty selects an S3-compatible endpoint (e.g. MinIO)
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	Prefix          string
}

// Store is a flat namespace of blob-ids mapped to S3 object keys under an
// optional prefix.
type Store struct {
	client *s3.Client
	bucket string
	prefix string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open builds an S3 client from cfg and returns a Store bound to its
// bucket. Connectivity is not verified here — the first blob operation
// surfaces any credential or network failure.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blobstore/s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &Store{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// blobKey renders id as the lowercase-hex object key, the same hex as the
// blobstore/local backend's file names (without their ".blob" suffix) so
// the two backends are visually interchangeable when inspected out of
// band.
func blobKey(id [16]byte) string {
	return hex.EncodeToString(id[:])
}

func (s *Store) key(id [16]byte) string {
	return s.prefix + blobKey(id)
}

func (s *Store) NewBlobID() [16]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), s.entropy)
	if err != nil {
		s.entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
		id = ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy)
	}
	return [16]byte(id)
}

// CreateOrAppendOpen starts a multipart upload for id, copying in any bytes
// the object already holds as its first part.
func (s *Store) CreateOrAppendOpen(ctx context.Context, id [16]byte) (blobstore.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := s.key(id)

	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore/s3: create multipart upload: %w", err)
	}

	w := &writer{
		client:   s.client,
		bucket:   s.bucket,
		key:      key,
		uploadID: *created.UploadId,
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err == nil && head.ContentLength != nil && *head.ContentLength > 0 {
		if copyErr := w.copyExisting(ctx, *head.ContentLength); copyErr != nil {
			return nil, copyErr
		}
	}
	return w, nil
}

// OpenRead opens id for ranged reads via GetObject with a Range header.
func (s *Store) OpenRead(ctx context.Context, id [16]byte) (blobstore.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := s.key(id)
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, fmt.Errorf("blobstore/s3: head object: %w", err)
	}
	size := int64(0)
	if head.ContentLength != nil {
		size = *head.ContentLength
	}
	return &reader{client: s.client, bucket: s.bucket, key: key, size: size}, nil
}

// Rename copies oldID's object to newID and deletes the original — S3 has
// no atomic rename, so this is copy-then-delete, matching the teacher's own
// non-atomic S3 rename helpers in pkg/store/content/s3.
func (s *Store) Rename(ctx context.Context, oldID, newID [16]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := s.bucket + "/" + s.key(oldID)
	if _, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(s.key(newID)),
		CopySource: aws.String(src),
	}); err != nil {
		return fmt.Errorf("blobstore/s3: copy object: %w", err)
	}
	return s.Delete(ctx, oldID)
}

func (s *Store) Delete(ctx context.Context, id [16]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(s.key(id))})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("blobstore/s3: delete object: %w", err)
	}
	return nil
}

// List enumerates every blob-id under the configured prefix, for the
// orphan reclamation pass (spec.md §9).
func (s *Store) List(ctx context.Context) ([][16]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out [][16]byte
	var token *string
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("blobstore/s3: list objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := (*obj.Key)[len(s.prefix):]
			if len(name) != 32 {
				continue // not one of ours
			}
			raw, err := hex.DecodeString(name)
			if err != nil || len(raw) != 16 {
				continue // not one of ours
			}
			id, err := blobstore.ParseBlobID(raw)
			if err != nil {
				continue
			}
			out = append(out, id)
		}
		if page.IsTruncated == nil || !*page.IsTruncated {
			break
		}
		token = page.NextContinuationToken
	}
	return out, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	return errors.As(err, &nf)
}

// writer accumulates appended bytes into S3 multipart upload parts,
// flushing a part whenever the buffer reaches minPartSize and completing
// the upload on Close.
type writer struct {
	client   *s3.Client
	bucket   string
	key      string
	uploadID string

	mu      sync.Mutex
	parts   []types.CompletedPart
	partNum int32
	buf     bytes.Buffer
	size    int64
	closed  bool
}

func (w *writer) copyExisting(ctx context.Context, size int64) error {
	if size < minPartSize {
		// A copied part this small could not be followed by more parts.
		out, err := w.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(w.bucket), Key: aws.String(w.key)})
		if err != nil {
			return fmt.Errorf("blobstore/s3: read existing bytes: %w", err)
		}
		defer out.Body.Close()
		if _, err := w.buf.ReadFrom(out.Body); err != nil {
			return fmt.Errorf("blobstore/s3: read existing bytes: %w", err)
		}
		w.size = size
		return nil
	}
	w.partNum++
	src := w.bucket + "/" + w.key
	result, err := w.client.UploadPartCopy(ctx, &s3.UploadPartCopyInput{
		Bucket:     aws.String(w.bucket),
		Key:        aws.String(w.key),
		UploadId:   aws.String(w.uploadID),
		PartNumber: aws.Int32(w.partNum),
		CopySource: aws.String(src),
	})
	if err != nil {
		return fmt.Errorf("blobstore/s3: copy existing bytes into multipart upload: %w", err)
	}
	w.parts = append(w.parts, types.CompletedPart{ETag: result.CopyPartResult.ETag, PartNumber: aws.Int32(w.partNum)})
	w.size = size
	return nil
}

func (w *writer) Append(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(data)
	w.size += int64(len(data))
	if w.buf.Len() < minPartSize {
		return nil
	}
	return w.flushPartLocked(ctx)
}

func (w *writer) flushPartLocked(ctx context.Context) error {
	if w.buf.Len() == 0 {
		return nil
	}
	w.partNum++
	data := append([]byte(nil), w.buf.Bytes()...)
	w.buf.Reset()
	result, err := w.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(w.bucket),
		Key:        aws.String(w.key),
		UploadId:   aws.String(w.uploadID),
		PartNumber: aws.Int32(w.partNum),
		Body:       bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("blobstore/s3: upload part: %w", err)
	}
	w.parts = append(w.parts, types.CompletedPart{ETag: result.ETag, PartNumber: aws.Int32(w.partNum)})
	return nil
}

func (w *writer) Size(ctx context.Context) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size, nil
}

// Close flushes any buffered bytes as the final part and completes the
// multipart upload. An upload with zero parts (an empty blob created and
// closed without ever appending) is aborted and replaced with an empty
// PutObject, since S3 rejects completing a multipart upload with no parts.
func (w *writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	ctx := context.Background()
	if err := w.flushPartLocked(ctx); err != nil {
		return err
	}

	if len(w.parts) == 0 {
		if _, err := w.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
			Bucket: aws.String(w.bucket), Key: aws.String(w.key), UploadId: aws.String(w.uploadID),
		}); err != nil {
			return fmt.Errorf("blobstore/s3: abort empty multipart upload: %w", err)
		}
		_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(w.bucket), Key: aws.String(w.key), Body: bytes.NewReader(nil),
		})
		if err != nil {
			return fmt.Errorf("blobstore/s3: put empty object: %w", err)
		}
		return nil
	}

	_, err := w.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(w.bucket),
		Key:             aws.String(w.key),
		UploadId:        aws.String(w.uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: w.parts},
	})
	if err != nil {
		return fmt.Errorf("blobstore/s3: complete multipart upload: %w", err)
	}
	return nil
}

// reader reads ranges of an S3 object via GetObject's Range header.
type reader struct {
	client *s3.Client
	bucket string
	key    string
	size   int64
}

func (r *reader) ReadAt(ctx context.Context, buf []byte, offset int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if offset >= r.size {
		return 0, nil
	}
	end := offset + int64(len(buf)) - 1
	if end >= r.size {
		end = r.size - 1
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", offset, end)
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket), Key: aws.String(r.key), Range: aws.String(rangeHeader),
	})
	if err != nil {
		return 0, fmt.Errorf("blobstore/s3: get object range: %w", err)
	}
	defer out.Body.Close()

	n := 0
	for n < len(buf) {
		read, readErr := out.Body.Read(buf[n:])
		n += read
		if readErr != nil {
			break
		}
	}
	return n, nil
}

func (r *reader) Size(ctx context.Context) (int64, error) {
	return r.size, nil
}

func (r *reader) Close() error {
	return nil
}
