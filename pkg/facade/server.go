package facade

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/yeetbox/yeetbox/pkg/engine"
	"github.com/yeetbox/yeetbox/pkg/wire"
)

// statusOK and the wire error codes occupy the first byte of every
// response frame; non-zero mirrors one of engine.ErrorCode's six values.
const statusOK uint8 = 0

// rpcPath is the single endpoint every procedure call is POSTed to; the
// procedure name travels inside the framed payload, not the URL, so one
// H2 stream per call still multiplexes over one connection the way the
// teacher's single NFS program port multiplexes its own procedure numbers.
const rpcPath = "/rpc"

// NewServer builds an *http.Server speaking cleartext HTTP/2 (h2c) for the
// RPC surface, per spec.md §6 "RPC over HTTP/2" and spec.md §9's explicit
// codec requirement — no protobuf/grpc toolchain involved (see DESIGN.md).
func (f *Facade) NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(rpcPath, f.serveRPC)

	h2s := &http2.Server{}
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(mux, h2s),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serveRPC reads exactly one framed request, dispatches it, and writes
// exactly one framed response. http2 gives each request its own stream, so
// this handler needs no explicit concurrency control of its own — the Go
// runtime schedules one goroutine per stream the same way net/http already
// schedules one per HTTP/1.1 connection (spec.md §5).
func (f *Facade) serveRPC(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	payload, err := wire.ReadFrame(req.Body)
	if err != nil {
		http.Error(w, "malformed frame", http.StatusBadRequest)
		return
	}

	r := wire.NewReader(bytes.NewReader(payload))
	name := r.ReadString()
	if r.Err() != nil {
		http.Error(w, "malformed frame", http.StatusBadRequest)
		return
	}

	proc, ok := DispatchTable[name]
	if !ok {
		f.writeError(w, engine.NewInvalidArgument("unknown procedure: "+name))
		return
	}

	peer := remoteAddr(req)
	respWriter := wire.NewWriter()

	if err := f.callProcedure(ctx, proc, peer, r, respWriter); err != nil {
		f.writeError(w, err)
		return
	}

	f.writeOK(w, respWriter)
}

func (f *Facade) callProcedure(ctx context.Context, proc *procedure, peer net.Addr, r *wire.Reader, respWriter *wire.Writer) error {
	if err := ctx.Err(); err != nil {
		return engine.NewInternal("request cancelled", err)
	}
	if proc.NeedsAuth {
		if _, err := f.resolveIdentity(peer); err != nil {
			return err
		}
	}
	if err := proc.Handler(ctx, f, peer, r, respWriter); err != nil {
		return err
	}
	if r.Err() != nil {
		return engine.NewInvalidArgument("malformed request body: " + r.Err().Error())
	}
	return nil
}

func (f *Facade) writeOK(w http.ResponseWriter, body *wire.Writer) {
	payload := append([]byte{statusOK}, body.Bytes()...)
	writeFrameResponse(w, payload)
}

func (f *Facade) writeError(w http.ResponseWriter, err error) {
	code := engine.CodeOf(err)
	msg := wire.NewWriter()
	msg.WriteString(err.Error())
	payload := append([]byte{byte(code)}, msg.Bytes()...)
	writeFrameResponse(w, payload)
	f.Log.Warn("rpc failed", "code", code.String(), "error", err.Error())
}

func writeFrameResponse(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_ = wire.WriteFrame(w, payload)
}

// peerAddr adapts an HTTP request's RemoteAddr string to net.Addr for
// auth.SessionManager's peer-keyed bind map.
type peerAddr string

func (p peerAddr) Network() string { return "tcp" }
func (p peerAddr) String() string  { return string(p) }

func remoteAddr(req *http.Request) net.Addr {
	return peerAddr(req.RemoteAddr)
}
