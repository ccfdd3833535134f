package facade

import (
	"context"
	"net"

	"github.com/yeetbox/yeetbox/pkg/auth"
	"github.com/yeetbox/yeetbox/pkg/engine"
	"github.com/yeetbox/yeetbox/pkg/wire"
)

// handleGetAvailableSaslMechanisms writes the list of supported SASL
// mechanism names (spec.md §6): a uint32 count followed by that many
// length-prefixed strings.
func handleGetAvailableSaslMechanisms(_ context.Context, f *Facade, _ net.Addr, _ *wire.Reader, w *wire.Writer) error {
	mechs := f.Authenticator.AvailableMechanisms()
	w.WriteUint32(uint32(len(mechs)))
	for _, m := range mechs {
		w.WriteString(m)
	}
	return nil
}

// handleAuthenticate negotiates mechanism+assertion and, on success, binds
// the resulting identity to this connection's peer address so subsequent
// calls need not resend a token (spec.md §4.5, §9 "the facade itself stays
// stateless across RPCs"). The issued JWT is still returned to the caller
// for its own bookkeeping/audit use.
func handleAuthenticate(_ context.Context, f *Facade, peer net.Addr, r *wire.Reader, w *wire.Writer) error {
	mechanism := r.ReadString()
	assertion := r.ReadBytes()
	if r.Err() != nil {
		return engine.NewInvalidArgument("malformed authenticate request")
	}

	identity, err := f.Authenticator.Authenticate(mechanism, assertion)
	if err != nil {
		return engine.NewUnauthenticated("authentication rejected")
	}

	token, err := f.Sessions.IssueToken(identity)
	if err != nil {
		return engine.NewInternal("issue session token", err)
	}
	f.Sessions.BindPeer(peer, identity)

	w.WriteString(token)
	w.WriteBool(identity.Anonymous)
	return nil
}

func handleMakeDirectory(ctx context.Context, f *Facade, peer net.Addr, r *wire.Reader, w *wire.Writer) error {
	path := r.ReadString()
	if r.Err() != nil {
		return engine.NewInvalidArgument("malformed make-directory request")
	}
	if _, err := f.authorize(ctx, peer, auth.OpMakeDirectory, path); err != nil {
		return err
	}
	return f.Engine.MakeDirectory(ctx, engine.MakeDirectoryRequest{Path: path})
}

func handleUpload(ctx context.Context, f *Facade, peer net.Addr, r *wire.Reader, w *wire.Writer) error {
	path := r.ReadString()
	data := r.ReadBytes()
	incomplete := r.ReadBool()
	next := r.ReadBool()
	continuation := r.ReadBytes()
	uid := r.ReadUint32()
	gid := r.ReadUint32()
	flags := r.ReadUint16()
	if r.Err() != nil {
		return engine.NewInvalidArgument("malformed upload request")
	}
	if _, err := f.authorize(ctx, peer, auth.OpUpload, path); err != nil {
		return err
	}

	result, err := f.Engine.Upload(ctx, engine.UploadRequest{
		Path:         path,
		Data:         data,
		Incomplete:   incomplete,
		Next:         next,
		Continuation: continuation,
		UID:          uid,
		GID:          gid,
		Flags:        flags,
	})
	if err != nil {
		return err
	}
	w.WriteBytes(result.Continuation)
	return nil
}

func handleAppend(ctx context.Context, f *Facade, peer net.Addr, r *wire.Reader, w *wire.Writer) error {
	path := r.ReadString()
	version := r.ReadUint64()
	data := r.ReadBytes()
	if r.Err() != nil {
		return engine.NewInvalidArgument("malformed append request")
	}
	if _, err := f.authorize(ctx, peer, auth.OpAppend, path); err != nil {
		return err
	}
	return f.Engine.Append(ctx, engine.AppendRequest{Path: path, Version: version, Data: data})
}

func handleDownload(ctx context.Context, f *Facade, peer net.Addr, r *wire.Reader, w *wire.Writer) error {
	path := r.ReadString()
	version := r.ReadUint64()
	offset := r.ReadUint64()
	length := r.ReadUint64()
	if r.Err() != nil {
		return engine.NewInvalidArgument("malformed download request")
	}
	if _, err := f.authorize(ctx, peer, auth.OpDownload, path); err != nil {
		return err
	}

	result, err := f.Engine.Download(ctx, engine.DownloadRequest{
		Path: path, Version: version, Offset: offset, Length: length,
	})
	if err != nil {
		return err
	}
	w.WriteBytes(result.Data)
	w.WriteBool(result.More)
	return nil
}

func handleDelete(ctx context.Context, f *Facade, peer net.Addr, r *wire.Reader, w *wire.Writer) error {
	path := r.ReadString()
	version := r.ReadUint64()
	if r.Err() != nil {
		return engine.NewInvalidArgument("malformed delete request")
	}
	if _, err := f.authorize(ctx, peer, auth.OpDelete, path); err != nil {
		return err
	}

	result, err := f.Engine.Delete(ctx, engine.DeleteRequest{Path: path, Version: version})
	if err != nil {
		return err
	}
	w.WriteBool(result.Shredded)
	return nil
}

func handleList(ctx context.Context, f *Facade, peer net.Addr, r *wire.Reader, w *wire.Writer) error {
	path := r.ReadString()
	attrs := r.ReadBool()
	if r.Err() != nil {
		return engine.NewInvalidArgument("malformed list request")
	}
	if _, err := f.authorize(ctx, peer, auth.OpList, path); err != nil {
		return err
	}

	entries, err := f.Engine.List(ctx, engine.ListRequest{Path: path, Attrs: attrs})
	if err != nil {
		return err
	}

	w.WriteUint32(uint32(len(entries)))
	for _, e := range entries {
		w.WriteString(e.RelativeName)
		w.WriteUint8(uint8(e.Type))
		w.WriteBool(e.Attrs != nil)
		if e.Attrs != nil {
			w.WriteUint64(uint64(e.Attrs.CreateTime))
			w.WriteUint64(uint64(e.Attrs.ModifyTime))
			w.WriteUint64(uint64(e.Attrs.AccessTime))
			w.WriteUint64(uint64(e.Attrs.ChangeTime))
		}
	}
	return nil
}
