package facade_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/yeetbox/yeetbox/pkg/auth"
	"github.com/yeetbox/yeetbox/pkg/blobstore"
	"github.com/yeetbox/yeetbox/pkg/blobstore/local"
	"github.com/yeetbox/yeetbox/pkg/client"
	"github.com/yeetbox/yeetbox/pkg/engine"
	"github.com/yeetbox/yeetbox/pkg/facade"
	"github.com/yeetbox/yeetbox/pkg/kvs/sql"
)

// startTestServer wires a full facade (engine + auth stack) over an
// in-memory SQLite KVS and a local temp-dir blob store, serves it on a
// random loopback port, and returns a client.Client already pointed at it.
// This exercises the same wire codepath pkg/client and cmd/yeetboxctl use
// against a real yeetboxd, end to end, rather than each package's own
// unit tests in isolation.
func startTestServer(t *testing.T, allowAnonymous bool) (*client.Client, func()) {
	t.Helper()

	kv, err := sql.Open(sql.Config{Dialect: sql.DialectSQLite, DSN: ":memory:"})
	require.NoError(t, err)

	blobDir := t.TempDir()
	blobs, err := local.Open(blobDir)
	require.NoError(t, err)

	eng := engine.New(kv, map[uint8]blobstore.Store{0: blobs}, nil, prometheus.NewRegistry())

	creds := auth.NewStaticCredentials(nil)
	authenticator := auth.NewAuthenticator(creds)
	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret:         "0123456789abcdef0123456789abcdef",
		AllowAnonymous: allowAnonymous,
	})
	require.NoError(t, err)

	fac := facade.New(eng, authenticator, sessions, auth.AllowAll{}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := fac.NewServer(ln.Addr().String())
	go srv.Serve(ln)

	c := client.New(ln.Addr().String())

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		kv.Close()
	}
	return c, cleanup
}

func TestRoundTrip_AnonymousMkdirUploadDownload(t *testing.T) {
	c, cleanup := startTestServer(t, true)
	defer cleanup()

	ctx := context.Background()

	mechs, err := c.AvailableMechanisms(ctx)
	require.NoError(t, err)
	require.Contains(t, mechs, auth.MechanismANONYMOUS)

	anon, err := c.Authenticate(ctx, auth.MechanismANONYMOUS, nil)
	require.NoError(t, err)
	require.True(t, anon)

	require.NoError(t, c.MakeDirectory(ctx, "/docs"))

	_, err = c.Upload(ctx, "/docs/hello.txt", []byte("hello world"), false, false, nil, 0, 0, 0)
	require.NoError(t, err)

	data, more, err := c.Download(ctx, "/docs/hello.txt", 0, 0, 1024)
	require.NoError(t, err)
	require.False(t, more)
	require.Equal(t, "hello world", string(data))

	entries, err := c.List(ctx, "/docs", false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "hello.txt", entries[0].RelativeName)

	// spec.md's delete response always reports shredded=false: Delete
	// removes the object's blobs itself but never securely erases them.
	shredded, err := c.Delete(ctx, "/docs/hello.txt", 0)
	require.NoError(t, err)
	require.False(t, shredded)
}

func TestRoundTrip_RejectsWithoutAnonymousAllowed(t *testing.T) {
	c, cleanup := startTestServer(t, false)
	defer cleanup()

	ctx := context.Background()
	err := c.MakeDirectory(ctx, "/docs")
	require.Error(t, err)
}
