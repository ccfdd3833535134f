// Package client is a thin RPC client for yeetboxd's wire protocol,
// speaking the same framed request/response shape pkg/facade/server.go
// decodes: cleartext HTTP/2 (h2c) POSTs to /rpc, one call per stream.
// cmd/yeetboxctl is its only caller; spec.md §1 names the client CLI an
// out-of-scope external collaborator, so this package exists only to give
// that CLI something to drive the protocol with.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/yeetbox/yeetbox/pkg/engine"
	"github.com/yeetbox/yeetbox/pkg/facade"
	"github.com/yeetbox/yeetbox/pkg/wire"
)

// Error wraps a wire-level error response with the engine.ErrorCode the
// server reported.
type Error struct {
	Code    engine.ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client calls yeetboxd procedures over HTTP/2 cleartext.
type Client struct {
	addr  string
	http  *http.Client
	token string
}

// New builds a Client targeting addr (host:port of a yeetboxd RPC
// listener).
func New(addr string) *Client {
	transport := &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, cfg *tls.Config) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(ctx, network, addr)
		},
	}
	return &Client{
		addr: addr,
		http: &http.Client{Transport: transport, Timeout: 30 * time.Second},
	}
}

// SetToken attaches a session token to every subsequent call's bookkeeping
// (the facade itself resolves identity by peer address once Authenticate
// has bound it on this connection — see pkg/facade/handlers.go — so this
// is stored for the caller's own display/audit use, not resent).
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the most recently stored session token, or "" if none.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) call(ctx context.Context, procedure string, body *wire.Writer) (*wire.Reader, error) {
	payload := append(lengthPrefixedName(procedure), body.Bytes()...)

	var frame bytes.Buffer
	if err := wire.WriteFrame(&frame, payload); err != nil {
		return nil, fmt.Errorf("client: frame request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+c.addr+"/rpc", &frame)
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("client: %s: %w", procedure, err)
	}
	defer resp.Body.Close()

	respPayload, err := wire.ReadFrame(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: %s: read response frame: %w", procedure, err)
	}
	if len(respPayload) == 0 {
		return nil, fmt.Errorf("client: %s: empty response frame", procedure)
	}

	status := respPayload[0]
	r := wire.NewReader(bytes.NewReader(respPayload[1:]))
	if status != 0 {
		msg := r.ReadString()
		return nil, &Error{Code: engine.ErrorCode(status), Message: msg}
	}
	return r, nil
}

// lengthPrefixedName renders name the same way wire.Writer.WriteString
// would, without needing a throwaway Writer just for this one field.
func lengthPrefixedName(name string) []byte {
	w := wire.NewWriter()
	w.WriteString(name)
	return w.Bytes()
}

// AvailableMechanisms lists the server's supported SASL mechanism names.
func (c *Client) AvailableMechanisms(ctx context.Context) ([]string, error) {
	r, err := c.call(ctx, facade.ProcGetAvailableSaslMechanisms, wire.NewWriter())
	if err != nil {
		return nil, err
	}
	count := r.ReadUint32()
	mechs := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		mechs = append(mechs, r.ReadString())
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("client: malformed mechanisms response: %w", r.Err())
	}
	return mechs, nil
}

// Authenticate negotiates mechanism+assertion and stores the issued
// session token (see SetToken/Token).
func (c *Client) Authenticate(ctx context.Context, mechanism string, assertion []byte) (anonymous bool, err error) {
	body := wire.NewWriter()
	body.WriteString(mechanism)
	body.WriteBytes(assertion)
	r, err := c.call(ctx, facade.ProcAuthenticate, body)
	if err != nil {
		return false, err
	}
	token := r.ReadString()
	anon := r.ReadBool()
	if r.Err() != nil {
		return false, fmt.Errorf("client: malformed authenticate response: %w", r.Err())
	}
	c.token = token
	return anon, nil
}

// MakeDirectory creates path as a directory.
func (c *Client) MakeDirectory(ctx context.Context, path string) error {
	body := wire.NewWriter()
	body.WriteString(path)
	_, err := c.call(ctx, facade.ProcMakeDirectory, body)
	return err
}

// Upload writes or continues a chunked upload to path.
func (c *Client) Upload(ctx context.Context, path string, data []byte, incomplete, next bool, continuation []byte, uid, gid uint32, flags uint16) (nextContinuation []byte, err error) {
	body := wire.NewWriter()
	body.WriteString(path)
	body.WriteBytes(data)
	body.WriteBool(incomplete)
	body.WriteBool(next)
	body.WriteBytes(continuation)
	body.WriteUint32(uid)
	body.WriteUint32(gid)
	body.WriteUint16(flags)
	r, err := c.call(ctx, facade.ProcUpload, body)
	if err != nil {
		return nil, err
	}
	out := r.ReadBytes()
	if r.Err() != nil {
		return nil, fmt.Errorf("client: malformed upload response: %w", r.Err())
	}
	return out, nil
}

// Append adds data to the latest version of path, expected at version.
func (c *Client) Append(ctx context.Context, path string, version uint64, data []byte) error {
	body := wire.NewWriter()
	body.WriteString(path)
	body.WriteUint64(version)
	body.WriteBytes(data)
	_, err := c.call(ctx, facade.ProcAppend, body)
	return err
}

// Download reads length bytes of path at version starting at offset.
func (c *Client) Download(ctx context.Context, path string, version, offset, length uint64) (data []byte, more bool, err error) {
	body := wire.NewWriter()
	body.WriteString(path)
	body.WriteUint64(version)
	body.WriteUint64(offset)
	body.WriteUint64(length)
	r, err := c.call(ctx, facade.ProcDownload, body)
	if err != nil {
		return nil, false, err
	}
	data = r.ReadBytes()
	more = r.ReadBool()
	if r.Err() != nil {
		return nil, false, fmt.Errorf("client: malformed download response: %w", r.Err())
	}
	return data, more, nil
}

// Delete removes path at version, requiring it match the object's latest
// version.
func (c *Client) Delete(ctx context.Context, path string, version uint64) (shredded bool, err error) {
	body := wire.NewWriter()
	body.WriteString(path)
	body.WriteUint64(version)
	r, err := c.call(ctx, facade.ProcDelete, body)
	if err != nil {
		return false, err
	}
	shredded = r.ReadBool()
	if r.Err() != nil {
		return false, fmt.Errorf("client: malformed delete response: %w", r.Err())
	}
	return shredded, nil
}

// Entry is one direct child returned by List.
type Entry struct {
	RelativeName string
	Type         uint8
	HasAttrs     bool
	CreateTime   uint64
	ModifyTime   uint64
	AccessTime   uint64
	ChangeTime   uint64
}

// List enumerates path's direct children.
func (c *Client) List(ctx context.Context, path string, attrs bool) ([]Entry, error) {
	body := wire.NewWriter()
	body.WriteString(path)
	body.WriteBool(attrs)
	r, err := c.call(ctx, facade.ProcList, body)
	if err != nil {
		return nil, err
	}
	count := r.ReadUint32()
	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e := Entry{RelativeName: r.ReadString(), Type: r.ReadUint8(), HasAttrs: r.ReadBool()}
		if e.HasAttrs {
			e.CreateTime = r.ReadUint64()
			e.ModifyTime = r.ReadUint64()
			e.AccessTime = r.ReadUint64()
			e.ChangeTime = r.ReadUint64()
		}
		entries = append(entries, e)
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("client: malformed list response: %w", r.Err())
	}
	return entries, nil
}
