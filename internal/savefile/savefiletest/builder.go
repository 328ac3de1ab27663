// Package savefiletest builds synthetic save containers for tests.
package savefiletest

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/klauspost/compress/zlib"
)

// Constants mirrored from the container format so that this package does not
// depend on the decoder it is used to test.
const (
	ChunkMagic             uint32 = 0x9E2A83C1
	ArchiveVersionStandard uint32 = 0x00000000
	ArchiveVersionExtended uint32 = 0x22222222
	RepeatedSizesStandard         = 16
	RepeatedSizesExtended         = 24
)

// Header holds every header field in format order.
type Header struct {
	HeaderVersion       uint32
	SaveVersion         uint32
	BuildVersion        uint32
	SaveName            string
	MapName             string
	MapOptions          string
	SessionName         string
	PlayTimeSeconds     uint32
	SaveDateTicks       uint64
	Visibility          uint8
	EditorObjectVersion uint32
	ModMetadata         string
	IsModded            bool
	PersistentID        string

	// WideStrings encodes every non-empty string with the UTF-16 variant.
	WideStrings bool
}

// DefaultHeader returns the header used by New.
func DefaultHeader() Header {
	return Header{
		HeaderVersion:       13,
		SaveVersion:         52,
		BuildVersion:        123456,
		SaveName:            "Test_autosave_0",
		MapName:             "Persistent_Level",
		MapOptions:          "?startloc=Grass Fields?sessionName=Test?Visibility=SV_Private",
		SessionName:         "Test",
		PlayTimeSeconds:     3661,
		SaveDateTicks:       Ticks(time.Date(2024, 9, 10, 18, 30, 0, 0, time.UTC)),
		Visibility:          0,
		EditorObjectVersion: 46,
		PersistentID:        "A1B2C3D4E5F60718293A4B5C6D7E8F90",
	}
}

// Ticks converts t to 100ns ticks since 0001-01-01.
func Ticks(t time.Time) uint64 {
	const epochOffset = 62_135_596_800
	return uint64(t.Unix()+epochOffset)*10_000_000 + uint64(t.Nanosecond()/100)
}

// AppendString appends s with the positive-length UTF-8 encoding.
func AppendString(buf []byte, s string) []byte {
	if s == "" {
		return binary.LittleEndian.AppendUint32(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)+1))
	buf = append(buf, s...)
	return append(buf, 0)
}

// AppendWideString appends s with the negative-length UTF-16LE encoding.
func AppendWideString(buf []byte, s string) []byte {
	if s == "" {
		return binary.LittleEndian.AppendUint32(buf, 0)
	}
	units := utf16.Encode([]rune(s))
	n := -int32(len(units) + 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(n))
	for _, u := range units {
		buf = binary.LittleEndian.AppendUint16(buf, u)
	}
	return append(buf, 0, 0)
}

// EncodeHeader serializes h in format order.
func EncodeHeader(h Header) []byte {
	str := AppendString
	if h.WideStrings {
		str = AppendWideString
	}

	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, h.HeaderVersion)
	buf = binary.LittleEndian.AppendUint32(buf, h.SaveVersion)
	buf = binary.LittleEndian.AppendUint32(buf, h.BuildVersion)
	buf = str(buf, h.SaveName)
	buf = str(buf, h.MapName)
	buf = str(buf, h.MapOptions)
	buf = str(buf, h.SessionName)
	buf = binary.LittleEndian.AppendUint32(buf, h.PlayTimeSeconds)
	buf = binary.LittleEndian.AppendUint64(buf, h.SaveDateTicks)
	buf = append(buf, h.Visibility)
	buf = binary.LittleEndian.AppendUint32(buf, h.EditorObjectVersion)
	buf = str(buf, h.ModMetadata)
	modded := uint32(0)
	if h.IsModded {
		modded = 1
	}
	buf = binary.LittleEndian.AppendUint32(buf, modded)
	buf = str(buf, h.PersistentID)
	return buf
}

// Compress zlib-compresses plain.
func Compress(tb testing.TB, plain []byte) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(plain); err != nil {
		tb.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

type chunkKind int

const (
	chunkValid chunkKind = iota
	chunkCorrupt
	chunkTruncated
	chunkHeaderOnly
)

type chunk struct {
	kind  chunkKind
	plain []byte
}

// Builder assembles a save container: header, optional padding, then chunks.
type Builder struct {
	header         Header
	magic          uint32
	padding        []byte
	repeatedWidth  int
	archiveVersion uint32
	chunks         []chunk
	trailer        []byte
}

// New returns a Builder with DefaultHeader and standard chunk framing.
func New() *Builder {
	return &Builder{
		header:         DefaultHeader(),
		magic:          ChunkMagic,
		repeatedWidth:  RepeatedSizesStandard,
		archiveVersion: ArchiveVersionStandard,
	}
}

// Header lets fn edit the header fields.
func (b *Builder) Header(fn func(h *Header)) *Builder {
	fn(&b.header)
	return b
}

// Magic overrides the marker written at the start of every chunk. Any value
// other than ChunkMagic produces a container without a compressed stream.
func (b *Builder) Magic(m uint32) *Builder {
	b.magic = m
	return b
}

// Padding inserts raw bytes between the header and the first chunk.
func (b *Builder) Padding(p []byte) *Builder {
	b.padding = append(b.padding, p...)
	return b
}

// RepeatedSizesWidth sets the width of the repeated size block.
func (b *Builder) RepeatedSizesWidth(width int) *Builder {
	b.repeatedWidth = width
	return b
}

// ArchiveVersion sets the archive version tag written to every chunk.
func (b *Builder) ArchiveVersion(v uint32) *Builder {
	b.archiveVersion = v
	return b
}

// Chunk appends a valid chunk holding plain.
func (b *Builder) Chunk(plain []byte) *Builder {
	b.chunks = append(b.chunks, chunk{kind: chunkValid, plain: plain})
	return b
}

// CorruptChunk appends a correctly framed chunk whose payload is not zlib data.
func (b *Builder) CorruptChunk() *Builder {
	b.chunks = append(b.chunks, chunk{kind: chunkCorrupt})
	return b
}

// TruncatedChunk appends a chunk whose payload is cut in half. It must be
// the last chunk.
func (b *Builder) TruncatedChunk(plain []byte) *Builder {
	b.chunks = append(b.chunks, chunk{kind: chunkTruncated, plain: plain})
	return b
}

// HeaderOnlyChunk appends a chunk magic followed by less than a full chunk
// header. It must be the last chunk.
func (b *Builder) HeaderOnlyChunk() *Builder {
	b.chunks = append(b.chunks, chunk{kind: chunkHeaderOnly})
	return b
}

// Trailer appends raw bytes after the last chunk.
func (b *Builder) Trailer(p []byte) *Builder {
	b.trailer = append(b.trailer, p...)
	return b
}

// Build serializes the container.
func (b *Builder) Build(tb testing.TB) []byte {
	tb.Helper()

	buf := EncodeHeader(b.header)
	buf = append(buf, b.padding...)
	for _, c := range b.chunks {
		switch c.kind {
		case chunkValid:
			buf = b.appendChunk(buf, Compress(tb, c.plain), uint64(len(c.plain)), 0)
		case chunkCorrupt:
			garbage := []byte("this is not a zlib stream at all")
			buf = b.appendChunk(buf, garbage, 4096, 0)
		case chunkTruncated:
			payload := Compress(tb, c.plain)
			cut := len(payload) / 2
			buf = b.appendChunk(buf, payload[:cut], uint64(len(c.plain)), len(payload)-cut)
		case chunkHeaderOnly:
			buf = binary.LittleEndian.AppendUint32(buf, b.magic)
			buf = binary.LittleEndian.AppendUint32(buf, b.archiveVersion)
			buf = binary.LittleEndian.AppendUint64(buf, 131072)
		}
	}
	return append(buf, b.trailer...)
}

// appendChunk writes one chunk. missing is the number of payload bytes the
// header declares but the file does not contain.
func (b *Builder) appendChunk(buf, payload []byte, uncompressed uint64, missing int) []byte {
	compressed := uint64(len(payload) + missing)

	buf = binary.LittleEndian.AppendUint32(buf, b.magic)
	buf = binary.LittleEndian.AppendUint32(buf, b.archiveVersion)
	buf = binary.LittleEndian.AppendUint64(buf, 131072)
	if b.archiveVersion == ArchiveVersionExtended {
		buf = append(buf, 3)
	}
	buf = binary.LittleEndian.AppendUint64(buf, compressed)
	buf = binary.LittleEndian.AppendUint64(buf, uncompressed)
	for written := 0; written+16 <= b.repeatedWidth; written += 16 {
		buf = binary.LittleEndian.AppendUint64(buf, compressed)
		buf = binary.LittleEndian.AppendUint64(buf, uncompressed)
	}
	if rest := b.repeatedWidth % 16; rest > 0 {
		buf = append(buf, make([]byte, rest)...)
	}
	return append(buf, payload...)
}

// ObjectRefs renders one placed-object reference per class/id pair, embedded
// in filler bytes the way serialized world data surrounds them.
func ObjectRefs(refs ...string) []byte {
	var buf []byte
	buf = append(buf, 0x00, 0x11, 0x22)
	for _, ref := range refs {
		buf = AppendString(buf, "Persistent_Level")
		buf = AppendString(buf, "Persistent_Level:PersistentLevel."+ref)
		buf = append(buf, 0xFF, 0x00)
	}
	return buf
}
