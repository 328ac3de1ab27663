package binread

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/encoding/unicode"
)

// DefaultMaxStringBytes is the largest string span, in bytes, that ReadString
// accepts before reporting ErrMalformedLength.
const DefaultMaxStringBytes = 2_000_000

var (
	// ErrUnexpectedEOF is returned when a read needs more bytes than remain.
	ErrUnexpectedEOF = errors.New("unexpected end of data")

	// ErrMalformedLength is returned when a string length prefix describes a
	// span larger than the sanity ceiling.
	ErrMalformedLength = errors.New("malformed string length")
)

// utf16LE decodes the wide string variant. BOMs are not expected in save
// data, so they are passed through as ordinary code units.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// Reader decodes values from an immutable byte slice.
// The zero value is not usable; create readers with NewReader.
type Reader struct {
	data           []byte
	offset         int
	maxStringBytes int
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxStringBytes overrides the string sanity ceiling.
// Non-positive values are ignored.
func WithMaxStringBytes(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxStringBytes = n
		}
	}
}

// NewReader creates a Reader positioned at offset 0 of data.
func NewReader(data []byte, opts ...Option) *Reader {
	r := &Reader{
		data:           data,
		maxStringBytes: DefaultMaxStringBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

// Len returns the size of the backing buffer.
func (r *Reader) Len() int {
	return len(r.data)
}

// Seek moves the cursor to an absolute offset within the buffer.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return fmt.Errorf("%w: seek to %d beyond %d bytes", ErrUnexpectedEOF, offset, len(r.data))
	}
	r.offset = offset
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n, "skip"); err != nil {
		return err
	}
	r.offset += n
	return nil
}

// ReadBytes returns the next n bytes as a sub-slice of the backing buffer.
// The slice aliases the buffer and must not be modified.
//
// Design decision: We return a capacity-capped sub-slice rather than a copy
// because chunk payloads make up almost the whole file and the buffer outlives
// the chunk loop. The capped capacity keeps an append on the result from
// overwriting the bytes that follow.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n, "bytes"); err != nil {
		return nil, err
	}
	b := r.data[r.offset : r.offset+n : r.offset+n]
	r.offset += n
	return b, nil
}

// PeekUint32 reads a uint32 without advancing the cursor.
func (r *Reader) PeekUint32() (uint32, error) {
	if err := r.need(4, "uint32"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.data[r.offset:]), nil
}

// ReadUint8 reads one unsigned byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1, "uint8"); err != nil {
		return 0, err
	}
	v := r.data[r.offset]
	r.offset++
	return v, nil
}

// ReadInt8 reads one signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4, "uint32"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v, nil
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	if err := r.need(4, "int32"); err != nil {
		return 0, err
	}
	v := int32(binary.LittleEndian.Uint32(r.data[r.offset:]))
	r.offset += 4
	return v, nil
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.need(8, "uint64"); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.offset:])
	r.offset += 8
	return v, nil
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	if err := r.need(8, "int64"); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(r.data[r.offset:]))
	r.offset += 8
	return v, nil
}

// ReadFloat32 reads a little-endian IEEE 754 single precision float.
func (r *Reader) ReadFloat32() (float32, error) {
	if err := r.need(4, "float32"); err != nil {
		return 0, err
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.offset:]))
	r.offset += 4
	return v, nil
}

// ReadString reads a length-prefixed string in either the UTF-8 or the
// UTF-16LE variant. The trailing NUL terminator is consumed but not returned.
func (r *Reader) ReadString() (string, error) {
	start := r.offset
	length, err := r.ReadInt32()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}

	wide := length < 0
	span := int64(length)
	if wide {
		span = -span * 2
	}

	if span > int64(r.maxStringBytes) {
		r.offset = start
		return "", fmt.Errorf("%w: %d bytes at offset %d (limit %d)", ErrMalformedLength, span, start, r.maxStringBytes)
	}
	if remaining := r.Remaining(); span > int64(remaining) {
		r.offset = start
		return "", fmt.Errorf("%w: string of %d bytes at offset %d, %d remaining", ErrUnexpectedEOF, span, start, remaining)
	}

	raw := r.data[r.offset : r.offset+int(span)]
	r.offset += int(span)

	if !wide {
		return string(raw[:len(raw)-1]), nil
	}

	s, err := utf16LE.NewDecoder().Bytes(raw[:len(raw)-2])
	if err != nil {
		return "", fmt.Errorf("decode utf-16 string at offset %d: %w", start, err)
	}
	return string(s), nil
}

// need verifies that n more bytes are available.
func (r *Reader) need(n int, what string) error {
	if n < 0 || n > len(r.data)-r.offset {
		return fmt.Errorf("%w: reading %s (%d bytes) at offset %d", ErrUnexpectedEOF, what, n, r.offset)
	}
	return nil
}
