package engine

import (
	"encoding/binary"
	"fmt"
)

// This file is the explicit, field-by-field wire codec for the fs and ver
// table rows. Per spec.md §9 ("Raw byte casts of fixed records"), the
// on-disk format is the contract, not any in-memory struct layout — every
// field here is serialized one at a time with encoding/binary rather than
// punned from a Go struct.

const (
	objectIDSize = 8
	versionSize  = 8

	// fsHeaderSize: id(8) + 5 packed timestamps(8 each) + type(1) +
	// latest_version(8) + reserved(16).
	fsHeaderSize = objectIDSize + 5*8 + 1 + 8 + 16

	// verHeaderSize: create(8) + access(8) + length(8) + uid(4) + gid(4) +
	// flags(2) + storage_tier(1) + reserved(1).
	verHeaderSize = 8 + 8 + 8 + 4 + 4 + 2 + 1 + 1
)

// FSKey builds the fs-table key: 8 big-endian bytes of the parent's
// identifier followed by the NFKD-normalized name bytes.
func FSKey(parent ObjectID, normalizedName []byte) []byte {
	key := make([]byte, objectIDSize+len(normalizedName))
	binary.BigEndian.PutUint64(key, uint64(parent))
	copy(key[objectIDSize:], normalizedName)
	return key
}

// FSChildPrefix returns the key prefix matching all direct children of
// parent; used by List's range scan (spec.md §4.4 list, invariant).
func FSChildPrefix(parent ObjectID) []byte {
	prefix := make([]byte, objectIDSize)
	binary.BigEndian.PutUint64(prefix, uint64(parent))
	return prefix
}

// VerKey builds the ver-table key: 8 big-endian bytes of the file
// identifier followed by 8 big-endian bytes of the version number.
func VerKey(file ObjectID, version uint64) []byte {
	key := make([]byte, objectIDSize+versionSize)
	binary.BigEndian.PutUint64(key, uint64(file))
	binary.BigEndian.PutUint64(key[objectIDSize:], version)
	return key
}

// VerFilePrefix returns the key prefix matching all versions of file.
// Delete does not scan with it; it reads VerKey(file, v) for each v from
// latest_version down to 1.
func VerFilePrefix(file ObjectID) []byte {
	prefix := make([]byte, objectIDSize)
	binary.BigEndian.PutUint64(prefix, uint64(file))
	return prefix
}

// SeqKeyFS is the seq-table key for the single object-identifier counter.
var SeqKeyFS = []byte("fs")

// EncodeFSRecord serializes an FSRecord into the fs-table value format:
// fixed header followed by the display name.
func EncodeFSRecord(rec *FSRecord) []byte {
	buf := make([]byte, fsHeaderSize+len(rec.DisplayName))
	binary.BigEndian.PutUint64(buf[0:8], uint64(rec.ID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(rec.CreateTime))
	binary.BigEndian.PutUint64(buf[16:24], uint64(rec.ModifyTime))
	binary.BigEndian.PutUint64(buf[24:32], uint64(rec.AccessTime))
	binary.BigEndian.PutUint64(buf[32:40], uint64(rec.ChangeTime))
	binary.BigEndian.PutUint64(buf[40:48], uint64(rec.DeleteTime))
	buf[48] = byte(rec.Type)
	binary.BigEndian.PutUint64(buf[49:57], rec.LatestVersion)
	// buf[57:73] reserved, left zero.
	copy(buf[fsHeaderSize:], rec.DisplayName)
	return buf
}

// DecodeFSRecord parses the fs-table value format produced by
// EncodeFSRecord. A value shorter than the fixed header is corruption and
// surfaces as ErrInternal per spec.md §7.
func DecodeFSRecord(value []byte) (*FSRecord, error) {
	if len(value) < fsHeaderSize {
		return nil, internal(fmt.Sprintf("fs record too short: %d bytes", len(value)), nil)
	}
	rec := &FSRecord{
		ID:            ObjectID(binary.BigEndian.Uint64(value[0:8])),
		CreateTime:    Timestamp(binary.BigEndian.Uint64(value[8:16])),
		ModifyTime:    Timestamp(binary.BigEndian.Uint64(value[16:24])),
		AccessTime:    Timestamp(binary.BigEndian.Uint64(value[24:32])),
		ChangeTime:    Timestamp(binary.BigEndian.Uint64(value[32:40])),
		DeleteTime:    Timestamp(binary.BigEndian.Uint64(value[40:48])),
		Type:          ObjectType(value[48]),
		LatestVersion: binary.BigEndian.Uint64(value[49:57]),
		DisplayName:   string(value[fsHeaderSize:]),
	}
	return rec, nil
}

// EncodeVersionRecord serializes a VersionRecord into the ver-table value
// format: fixed header followed by the relative blob file name.
func EncodeVersionRecord(rec *VersionRecord) []byte {
	buf := make([]byte, verHeaderSize+len(rec.BlobName))
	binary.BigEndian.PutUint64(buf[0:8], uint64(rec.CreateTime))
	binary.BigEndian.PutUint64(buf[8:16], uint64(rec.AccessTime))
	binary.BigEndian.PutUint64(buf[16:24], rec.Length)
	binary.BigEndian.PutUint32(buf[24:28], rec.UID)
	binary.BigEndian.PutUint32(buf[28:32], rec.GID)
	binary.BigEndian.PutUint16(buf[32:34], rec.Flags)
	buf[34] = rec.StorageTier
	// buf[35] reserved, left zero.
	copy(buf[verHeaderSize:], rec.BlobName)
	return buf
}

// DecodeVersionRecord parses the ver-table value format produced by
// EncodeVersionRecord.
func DecodeVersionRecord(value []byte) (*VersionRecord, error) {
	if len(value) < verHeaderSize {
		return nil, internal(fmt.Sprintf("version record too short: %d bytes", len(value)), nil)
	}
	rec := &VersionRecord{
		CreateTime:  Timestamp(binary.BigEndian.Uint64(value[0:8])),
		AccessTime:  Timestamp(binary.BigEndian.Uint64(value[8:16])),
		Length:      binary.BigEndian.Uint64(value[16:24]),
		UID:         binary.BigEndian.Uint32(value[24:28]),
		GID:         binary.BigEndian.Uint32(value[28:32]),
		Flags:       binary.BigEndian.Uint16(value[32:34]),
		StorageTier: value[34],
		BlobName:    string(value[verHeaderSize:]),
	}
	return rec, nil
}

// EncodeSeq serializes a 64-bit counter value for the seq table.
func EncodeSeq(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// DecodeSeq parses a seq-table counter value.
func DecodeSeq(value []byte) (uint64, error) {
	if len(value) != 8 {
		return 0, internal(fmt.Sprintf("seq value wrong size: %d bytes", len(value)), nil)
	}
	return binary.BigEndian.Uint64(value), nil
}
