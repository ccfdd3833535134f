// Package wire implements the length-prefixed binary message codec spoken
// between yeetboxd and its clients (spec.md §6). It is a field-by-field
// codec in the style of the teacher's internal/protocol/xdr package, but
// without XDR's 4-byte alignment padding: the wire format here is
// this service's own contract, not an RFC 4506 stream.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// MaxMessageSize is the decoder's maximum accepted message size (spec.md
// §6: "Decoder maximum 8 MiB per message").
const MaxMessageSize = 8 * 1024 * 1024

// ErrMessageTooLarge is returned by ReadFrame when the declared length
// exceeds MaxMessageSize.
var ErrMessageTooLarge = fmt.Errorf("wire: message exceeds %d bytes", MaxMessageSize)

// Writer accumulates a single message's fields before framing.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteBytes writes a 4-byte big-endian length followed by data.
func (w *Writer) WriteBytes(data []byte) {
	w.WriteUint32(uint32(len(data)))
	w.buf.Write(data)
}

// WriteString writes s as length-prefixed UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// Bytes returns the accumulated message payload, unframed.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Reader parses fields from a message payload in the order they were
// written.
type Reader struct {
	r   io.Reader
	err error
}

// NewReader wraps r (typically a bytes.Reader over one framed message).
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered by any Read call.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) ReadUint8() uint8 {
	if r.err != nil {
		return 0
	}
	var b [1]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		r.err = fmt.Errorf("wire: read uint8: %w", err)
		return 0
	}
	return b[0]
}

func (r *Reader) ReadUint16() uint16 {
	if r.err != nil {
		return 0
	}
	var b [2]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		r.err = fmt.Errorf("wire: read uint16: %w", err)
		return 0
	}
	return binary.BigEndian.Uint16(b[:])
}

func (r *Reader) ReadUint32() uint32 {
	if r.err != nil {
		return 0
	}
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		r.err = fmt.Errorf("wire: read uint32: %w", err)
		return 0
	}
	return binary.BigEndian.Uint32(b[:])
}

func (r *Reader) ReadUint64() uint64 {
	if r.err != nil {
		return 0
	}
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		r.err = fmt.Errorf("wire: read uint64: %w", err)
		return 0
	}
	return binary.BigEndian.Uint64(b[:])
}

func (r *Reader) ReadBool() bool {
	return r.ReadUint8() != 0
}

// ReadBytes reads a 4-byte big-endian length followed by that many bytes.
func (r *Reader) ReadBytes() []byte {
	if r.err != nil {
		return nil
	}
	length := r.ReadUint32()
	if r.err != nil {
		return nil
	}
	if length > MaxMessageSize {
		r.err = ErrMessageTooLarge
		return nil
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r.r, data); err != nil {
		r.err = fmt.Errorf("wire: read bytes: %w", err)
		return nil
	}
	return data
}

func (r *Reader) ReadString() string {
	return string(r.ReadBytes())
}
