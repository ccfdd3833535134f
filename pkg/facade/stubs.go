package facade

import (
	"context"
	"net"

	"github.com/yeetbox/yeetbox/pkg/engine"
	"github.com/yeetbox/yeetbox/pkg/wire"
)

// unimplementedHandler builds a Handler for a named-but-out-of-scope
// procedure: present in DispatchTable, reachable over the wire, always
// rejecting with ErrUnimplemented (spec.md §1 "hooks where they would plug
// in", spec.md §6).
func unimplementedHandler(name string) Handler {
	return func(_ context.Context, _ *Facade, _ net.Addr, _ *wire.Reader, _ *wire.Writer) error {
		return engine.NewUnimplemented(name + " is not implemented")
	}
}
