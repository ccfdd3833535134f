package engine

// ObjectID is the 64-bit monotonic handle for an FS entity, allocated from
// the "fs" counter in the seq table. Identifier 0 is the synthetic root
// folder and is never allocated. See spec.md §3.
type ObjectID uint64

// RootObjectID is the implicit root folder's identifier.
const RootObjectID ObjectID = 0

// ObjectType tags what kind of object an FS record describes.
type ObjectType byte

const (
	TypeFile ObjectType = iota + 1
	TypeFolder
	TypeSymlink
	TypeFIFO
	TypeSocket
	TypeAppendBlob
	TypeBlockBlob
)

// Readable reports whether this type is one append/download may operate on
// (spec.md §4.4 append/download: "not a readable object" otherwise).
func (t ObjectType) Readable() bool {
	switch t {
	case TypeFile, TypeAppendBlob, TypeBlockBlob, TypeFIFO, TypeSocket:
		return true
	default:
		return false
	}
}

func (t ObjectType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeFolder:
		return "folder"
	case TypeSymlink:
		return "symlink"
	case TypeFIFO:
		return "fifo"
	case TypeSocket:
		return "socket"
	case TypeAppendBlob:
		return "append-blob"
	case TypeBlockBlob:
		return "block-blob"
	default:
		return "unknown"
	}
}

// UnknownLength is the sentinel (all-ones) recorded in a version record
// when the logical length is unknown and readers must consult the blob
// file's actual size instead. See spec.md §3.
const UnknownLength uint64 = ^uint64(0)

// FSRecord is the decoded value half of a row in the fs table. The key
// half (parent id || NFKD(name)) lives outside this struct; it is derived
// from the parent folder's ID and the normalized form of DisplayName by
// the caller.
type FSRecord struct {
	ID ObjectID

	CreateTime Timestamp
	ModifyTime Timestamp
	AccessTime Timestamp
	ChangeTime Timestamp
	DeleteTime Timestamp

	Type ObjectType

	// LatestVersion is >=1 for files, 0 for folders.
	LatestVersion uint64

	// DisplayName is the name as originally presented by the client,
	// stored alongside the header for directory listing (spec.md §3: "the
	// name as originally presented, for display").
	DisplayName string
}

// VersionRecord is the decoded value half of a row in the ver table. The
// key half (file id || version number) lives outside this struct.
type VersionRecord struct {
	CreateTime Timestamp
	AccessTime Timestamp

	// Length is the logical length in bytes, or UnknownLength for a
	// version finalized from a chunked upload, whose readers must consult
	// the blob file's actual size. Append records the blob's actual size.
	Length uint64

	UID   uint32
	GID   uint32
	Flags uint16

	// StorageTier selects which configured blobstore.Store backend owns
	// BlobName. Tier 0 is always the local-disk backend.
	StorageTier uint8

	// BlobName is the relative blob file name (i.e. the blob-id) holding
	// this version's bytes.
	BlobName string
}

// defaultPermFlags is the default flags word recorded on a version when
// the caller supplies none (spec.md §4.4 step 7: "default flags 0o755").
const defaultPermFlags uint16 = 0o755
