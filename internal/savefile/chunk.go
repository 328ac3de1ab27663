package savefile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/nao1215/savestat/internal/binread"
	"github.com/nao1215/savestat/internal/model"
)

// ChunkMagic marks the start of every compressed chunk.
const ChunkMagic uint32 = 0x9E2A83C1

// ArchiveVersionExtended is the archive version tag of chunks that carry an
// extra compression algorithm byte after the max chunk size.
const ArchiveVersionExtended uint32 = 0x22222222

// maxPreallocate caps the buffer growth taken from a chunk's declared
// uncompressed size.
const maxPreallocate = 64 << 20

var chunkMagicBytes = binary.LittleEndian.AppendUint32(nil, ChunkMagic)

// Body is the reassembled chunk stream.
type Body struct {
	// Data is the concatenation of every fully inflated payload in stream order.
	Data []byte

	// Start is the file offset of the first chunk.
	Start int

	// Chunks is the number of chunks inflated successfully.
	Chunks int

	// Failures is the number of chunks that failed to inflate.
	Failures int

	// DeclaredSize is the sum of the uncompressed sizes declared by the
	// inflated chunks.
	DeclaredSize uint64

	// Truncated is true when the stream ended in a partial chunk.
	Truncated bool

	// Aborted is true when the failure policy stopped the loop.
	Aborted bool

	// Diagnostics describes every skipped or partial chunk.
	Diagnostics []model.Diagnostic
}

// FindCompressedStart returns the offset of the first chunk magic in data.
// The search ignores the header, so it works even when the header cannot be
// decoded.
func FindCompressedStart(data []byte) (int, error) {
	i := bytes.Index(data, chunkMagicBytes)
	if i < 0 {
		return 0, ErrMissingMagic
	}
	return i, nil
}

type chunkHeader struct {
	offset          int
	archiveVersion  uint32
	algorithm       uint8
	compressedLen   uint64
	uncompressedLen uint64
}

// Decompress locates the chunk stream in data and inflates it.
//
// Only a missing stream marker is an error. A magic mismatch or a tail too
// short for a chunk header ends the stream. Partial trailing chunks and
// inflate failures are recorded in the returned Body's diagnostics.
func (d *Decoder) Decompress(data []byte) (*Body, error) {
	start, err := FindCompressedStart(data)
	if err != nil {
		return nil, err
	}

	body := &Body{Start: start}
	r := binread.NewReader(data)
	if err := r.Seek(start); err != nil {
		return nil, err
	}

	var (
		out bytes.Buffer
		inf inflater
	)
	maxFailures := d.policy.MaxFailures()

	for index := 0; ; index++ {
		if r.Remaining() < d.minChunkHeader() {
			if magic, err := r.PeekUint32(); err == nil && magic == ChunkMagic {
				body.truncate(index, r.Offset(), fmt.Sprintf("%d bytes left, header needs %d", r.Remaining(), d.minChunkHeader()))
			}
			break
		}
		if magic, _ := r.PeekUint32(); magic != ChunkMagic {
			d.logger.Debug("end of chunk stream", "offset", r.Offset(), "chunks", index)
			break
		}

		hdr, err := d.readChunkHeader(r)
		if err != nil {
			body.truncate(index, r.Offset(), err.Error())
			break
		}
		if hdr.compressedLen > uint64(r.Remaining()) {
			body.truncate(index, hdr.offset, fmt.Sprintf("payload declares %d bytes, %d remain", hdr.compressedLen, r.Remaining()))
			break
		}

		payload, err := r.ReadBytes(int(hdr.compressedLen))
		if err != nil {
			body.truncate(index, hdr.offset, err.Error())
			break
		}

		plain, err := inf.inflate(payload, hdr.uncompressedLen)
		if err != nil {
			body.Failures++
			err = fmt.Errorf("%w: chunk %d at offset %d: %w", ErrChunkInflate, index, hdr.offset, err)
			body.Diagnostics = append(body.Diagnostics,
				model.NewDiagnostic(model.SeverityWarning, model.StageDecompress, "%v", err))

			if body.Failures > maxFailures {
				body.Aborted = true
				body.Diagnostics = append(body.Diagnostics,
					model.NewDiagnostic(model.SeverityError, model.StageDecompress,
						"stopped after %d inflate failures (%s policy allows %d); body is partial",
						body.Failures, d.policy, maxFailures))
				break
			}
			continue
		}

		out.Write(plain)
		body.Chunks++
		body.DeclaredSize += hdr.uncompressedLen
		d.logger.Debug("inflated chunk",
			"index", index,
			"offset", hdr.offset,
			"compressed", hdr.compressedLen,
			"uncompressed", len(plain))
	}

	body.Data = out.Bytes()
	return body, nil
}

func (d *Decoder) readChunkHeader(r *binread.Reader) (chunkHeader, error) {
	hdr := chunkHeader{offset: r.Offset()}

	if _, err := r.ReadUint32(); err != nil {
		return hdr, err
	}
	var err error
	if hdr.archiveVersion, err = r.ReadUint32(); err != nil {
		return hdr, err
	}
	if err := r.Skip(8); err != nil {
		return hdr, err
	}
	if hdr.archiveVersion == ArchiveVersionExtended {
		if hdr.algorithm, err = r.ReadUint8(); err != nil {
			return hdr, err
		}
	}
	if hdr.compressedLen, err = r.ReadUint64(); err != nil {
		return hdr, err
	}
	if hdr.uncompressedLen, err = r.ReadUint64(); err != nil {
		return hdr, err
	}
	if err := r.Skip(d.repeatedWidth); err != nil {
		return hdr, err
	}
	return hdr, nil
}

func (b *Body) truncate(index, offset int, detail string) {
	b.Truncated = true
	err := fmt.Errorf("%w: chunk %d at offset %d: %s", ErrTruncatedChunk, index, offset, detail)
	b.Diagnostics = append(b.Diagnostics,
		model.NewDiagnostic(model.SeverityWarning, model.StageDecompress, "%v", err))
}

// inflater reuses one zlib reader and scratch buffer across chunks.
type inflater struct {
	src bytes.Reader
	zr  io.ReadCloser
	buf bytes.Buffer
}

// inflate decodes payload into the scratch buffer. The returned slice is only
// valid until the next call.
func (f *inflater) inflate(payload []byte, sizeHint uint64) ([]byte, error) {
	f.src.Reset(payload)
	f.buf.Reset()
	if sizeHint > 0 && sizeHint <= maxPreallocate {
		f.buf.Grow(int(sizeHint))
	}

	if f.zr == nil {
		zr, err := zlib.NewReader(&f.src)
		if err != nil {
			return nil, err
		}
		f.zr = zr
	} else {
		resetter, ok := f.zr.(zlib.Resetter)
		if !ok {
			return nil, errors.New("zlib reader cannot be reset")
		}
		if err := resetter.Reset(&f.src, nil); err != nil {
			return nil, err
		}
	}

	if _, err := io.Copy(&f.buf, f.zr); err != nil {
		return nil, err
	}
	return f.buf.Bytes(), nil
}
