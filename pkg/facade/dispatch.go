package facade

// Procedure name constants, used both as dispatch-table keys and as the
// wire-level procedure identifier each request frame opens with.
const (
	ProcGetAvailableSaslMechanisms = "GetAvailableSaslMechanisms"
	ProcAuthenticate               = "Authenticate"
	ProcMakeDirectory              = "MakeDirectory"
	ProcUpload                     = "Upload"
	ProcAppend                     = "Append"
	ProcDownload                   = "Download"
	ProcDelete                     = "Delete"
	ProcList                       = "List"

	// Named but out of scope (spec.md §1 / §6): present as dispatch
	// entries returning unimplemented, never deleted from the table.
	ProcWatchMany              = "WatchMany"
	ProcPatch                  = "Patch"
	ProcMove                   = "Move"
	ProcCopy                   = "Copy"
	ProcListIncompleteUploads  = "ListIncompleteUploads"
	ProcGetPresignedDownload   = "GetPresignedDownload"
	ProcGetPresignedUpload     = "GetPresignedUpload"
	ProcWatchOnce              = "WatchOnce"
	ProcGetAttributes          = "GetAttributes"
	ProcSetAttributes          = "SetAttributes"
	ProcDeleteMany             = "DeleteMany"
	ProcGetServiceInfo         = "GetServiceInfo"
	ProcGetAuditTrail          = "GetAuditTrail"
	ProcStartTransaction       = "StartTransaction"
	ProcCommitTransaction      = "CommitTransaction"
	ProcAbortTransaction       = "AbortTransaction"
	ProcCreateLink             = "CreateLink"
	ProcUnlink                 = "Unlink"
)

// DispatchTable maps procedure name to its handler. Built once at package
// init, the same shape as the teacher's portmap.DispatchTable /
// nfs.NfsDispatchTable — a plain map literal, no registration side effects.
var DispatchTable map[string]*procedure

func init() {
	DispatchTable = map[string]*procedure{
		ProcGetAvailableSaslMechanisms: {Name: ProcGetAvailableSaslMechanisms, Handler: handleGetAvailableSaslMechanisms, NeedsAuth: false},
		ProcAuthenticate:               {Name: ProcAuthenticate, Handler: handleAuthenticate, NeedsAuth: false},

		ProcMakeDirectory: {Name: ProcMakeDirectory, Handler: handleMakeDirectory, NeedsAuth: true},
		ProcUpload:        {Name: ProcUpload, Handler: handleUpload, NeedsAuth: true},
		ProcAppend:        {Name: ProcAppend, Handler: handleAppend, NeedsAuth: true},
		ProcDownload:      {Name: ProcDownload, Handler: handleDownload, NeedsAuth: true},
		ProcDelete:        {Name: ProcDelete, Handler: handleDelete, NeedsAuth: true},
		ProcList:          {Name: ProcList, Handler: handleList, NeedsAuth: true},

		ProcWatchMany:             {Name: ProcWatchMany, Handler: unimplementedHandler(ProcWatchMany), NeedsAuth: true},
		ProcPatch:                 {Name: ProcPatch, Handler: unimplementedHandler(ProcPatch), NeedsAuth: true},
		ProcMove:                  {Name: ProcMove, Handler: unimplementedHandler(ProcMove), NeedsAuth: true},
		ProcCopy:                  {Name: ProcCopy, Handler: unimplementedHandler(ProcCopy), NeedsAuth: true},
		ProcListIncompleteUploads: {Name: ProcListIncompleteUploads, Handler: unimplementedHandler(ProcListIncompleteUploads), NeedsAuth: true},
		ProcGetPresignedDownload:  {Name: ProcGetPresignedDownload, Handler: unimplementedHandler(ProcGetPresignedDownload), NeedsAuth: true},
		ProcGetPresignedUpload:    {Name: ProcGetPresignedUpload, Handler: unimplementedHandler(ProcGetPresignedUpload), NeedsAuth: true},
		ProcWatchOnce:             {Name: ProcWatchOnce, Handler: unimplementedHandler(ProcWatchOnce), NeedsAuth: true},
		ProcGetAttributes:         {Name: ProcGetAttributes, Handler: unimplementedHandler(ProcGetAttributes), NeedsAuth: true},
		ProcSetAttributes:         {Name: ProcSetAttributes, Handler: unimplementedHandler(ProcSetAttributes), NeedsAuth: true},
		ProcDeleteMany:            {Name: ProcDeleteMany, Handler: unimplementedHandler(ProcDeleteMany), NeedsAuth: true},
		ProcGetServiceInfo:        {Name: ProcGetServiceInfo, Handler: unimplementedHandler(ProcGetServiceInfo), NeedsAuth: false},
		ProcGetAuditTrail:         {Name: ProcGetAuditTrail, Handler: unimplementedHandler(ProcGetAuditTrail), NeedsAuth: true},
		ProcStartTransaction:      {Name: ProcStartTransaction, Handler: unimplementedHandler(ProcStartTransaction), NeedsAuth: true},
		ProcCommitTransaction:     {Name: ProcCommitTransaction, Handler: unimplementedHandler(ProcCommitTransaction), NeedsAuth: true},
		ProcAbortTransaction:      {Name: ProcAbortTransaction, Handler: unimplementedHandler(ProcAbortTransaction), NeedsAuth: true},
		ProcCreateLink:            {Name: ProcCreateLink, Handler: unimplementedHandler(ProcCreateLink), NeedsAuth: true},
		ProcUnlink:                {Name: ProcUnlink, Handler: unimplementedHandler(ProcUnlink), NeedsAuth: true},
	}
}
