// Package facade binds the wire protocol to the Object Engine: it
// authenticates and authorizes each call, decodes/encodes wire messages,
// and dispatches by procedure name through a table mirroring the teacher's
// NfsDispatchTable/MountDispatchTable pattern
// (internal/protocol/nfs/dispatch.go, internal/protocol/portmap/dispatch.go)
// — one map from procedure identity to handler metadata, built once at
// init time.
package facade

import (
	"context"
	"log/slog"
	"net"

	"github.com/yeetbox/yeetbox/pkg/auth"
	"github.com/yeetbox/yeetbox/pkg/engine"
	"github.com/yeetbox/yeetbox/pkg/wire"
)

// Handler processes one decoded request frame. peer identifies the caller's
// network address, used to resolve any session bound to this connection
// (auth.SessionManager.Resolve). Handlers read their own arguments from r
// and write their own results to w; serveRPC takes care of framing and
// status encoding around whatever the handler does.
type Handler func(ctx context.Context, f *Facade, peer net.Addr, r *wire.Reader, w *wire.Writer) error

// procedure pairs a dispatch-table entry with the metadata callProcedure
// needs to enforce authentication before calling Handler.
type procedure struct {
	Name string

	Handler Handler

	// NeedsAuth reports whether an unauthenticated peer (no bound session
	// and auth.SessionConfig.AllowAnonymous unset) is rejected before
	// Handler ever runs.
	NeedsAuth bool
}

// Facade is the RPC-facing collaborator spec.md §4.5 describes: it owns no
// filesystem state of its own, only the Engine plus the three auth
// collaborators that gate access to it.
type Facade struct {
	Engine *engine.Engine

	Authenticator *auth.Authenticator
	Sessions      *auth.SessionManager
	Authorizer    auth.Authorizer

	Log *slog.Logger
}

// New builds a Facade. authz defaults to auth.AllowAll{} when nil, matching
// spec.md §9's "no-op policy until an authorization policy consumes it."
func New(eng *engine.Engine, authenticator *auth.Authenticator, sessions *auth.SessionManager, authz auth.Authorizer, log *slog.Logger) *Facade {
	if authz == nil {
		authz = auth.AllowAll{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Facade{
		Engine:        eng,
		Authenticator: authenticator,
		Sessions:      sessions,
		Authorizer:    authz,
		Log:           log,
	}
}

// resolveIdentity authenticates peer against the bound session map,
// returning engine.ErrUnauthenticated when no session is bound and
// anonymous access is not configured.
func (f *Facade) resolveIdentity(peer net.Addr) (auth.Identity, error) {
	identity, err := f.Sessions.Resolve(peer)
	if err != nil {
		return auth.Identity{}, engine.NewUnauthenticated("no session bound for this connection")
	}
	return identity, nil
}

// authorize resolves the caller's identity and consults the Authorizer,
// translating a denial to engine.ErrPermissionDenied.
func (f *Facade) authorize(ctx context.Context, peer net.Addr, op auth.Operation, path string) (auth.Identity, error) {
	identity, err := f.resolveIdentity(peer)
	if err != nil {
		return auth.Identity{}, err
	}
	ok, err := f.Authorizer.Authorize(ctx, identity, op, path)
	if err != nil {
		return auth.Identity{}, engine.NewInternal("authorization check failed", err)
	}
	if !ok {
		return auth.Identity{}, engine.NewPermissionDenied("operation not permitted")
	}
	return identity, nil
}
