package auth

import "context"

// Operation names one of the in-scope RPCs, for the Authorizer contract.
type Operation string

const (
	OpMakeDirectory Operation = "make_directory"
	OpUpload        Operation = "upload"
	OpAppend        Operation = "append"
	OpDownload      Operation = "download"
	OpDelete        Operation = "delete"
	OpList          Operation = "list"
)

// Authorizer decides whether identity may perform op against path. The
// Service Facade consults it after authentication and before dispatch
// (spec.md §4.5); the core engine never calls it directly.
type Authorizer interface {
	Authorize(ctx context.Context, identity Identity, op Operation, path string) (bool, error)
}

// AllowAll is the default Authorizer: every authenticated or anonymous
// identity may perform every operation. spec.md §9 treats uid/gid/perms
// as metadata only "until an authorization policy consumes them" — this
// is that no-op policy.
type AllowAll struct{}

func (AllowAll) Authorize(ctx context.Context, identity Identity, op Operation, path string) (bool, error) {
	return true, nil
}
