package riffwave

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	// unknownRIFFSize is written by streaming encoders that never patch the header.
	unknownRIFFSize = 0xFFFFFFFF
)

var (
	// CIDList is the chunk ID for a LIST chunk.
	CIDList = [4]byte{'L', 'I', 'S', 'T'}
	// CIDFact is the chunk ID for the fact chunk.
	CIDFact = [4]byte{'f', 'a', 'c', 't'}
	// CIDDisp is the chunk ID for the display chunk.
	CIDDisp = [4]byte{'D', 'I', 'S', 'P'}
	// CIDPeak is the chunk ID for the peak envelope chunk.
	CIDPeak = [4]byte{'P', 'E', 'A', 'K'}
	// CIDBext is the chunk ID for the broadcast extension chunk.
	CIDBext = [4]byte{'b', 'e', 'x', 't'}
	// CIDCart is the chunk ID for the cart chunk.
	CIDCart = [4]byte{'c', 'a', 'r', 't'}

	// rmp3FormatID is the RIFF form type of RIFF-wrapped MPEG files, which
	// carry regular fmt and data chunks.
	rmp3FormatID = [4]byte{'R', 'M', 'P', '3'}
)

// ChunkInfo locates one chunk inside the container.
type ChunkInfo struct {
	ID [4]byte
	// Size is the declared payload size, without the pad byte.
	Size uint32
	// Offset is the absolute offset of the chunk header.
	Offset int64
}

// DataOffset is the absolute offset of the chunk payload.
func (c ChunkInfo) DataOffset() int64 {
	return c.Offset + chunkHeaderSize
}

// PaddedSize is the payload size rounded up to the RIFF word boundary.
func (c ChunkInfo) PaddedSize() int64 {
	return int64(c.Size) + int64(c.Size%2)
}

func (c ChunkInfo) String() string {
	return fmt.Sprintf("%q (%d bytes at %d)", c.ID[:], c.Size, c.Offset)
}

// ChunkIndex maps chunk tags to their location. Only LIST may repeat.
type ChunkIndex struct {
	// Format is the RIFF form type, normally WAVE.
	Format [4]byte
	// Size is the declared RIFF size.
	Size uint32
	// Order lists every indexed chunk in file order.
	Order []ChunkInfo
	// Lists holds every LIST chunk in file order.
	Lists []ChunkInfo

	chunks map[[4]byte]ChunkInfo
}

// Lookup returns the first chunk with the given tag.
func (idx *ChunkIndex) Lookup(id [4]byte) (ChunkInfo, bool) {
	if idx == nil {
		return ChunkInfo{}, false
	}

	if id == CIDList {
		if len(idx.Lists) == 0 {
			return ChunkInfo{}, false
		}

		return idx.Lists[0], true
	}

	info, ok := idx.chunks[id]

	return info, ok
}

// Has reports whether a chunk with the given tag was indexed.
func (idx *ChunkIndex) Has(id [4]byte) bool {
	_, ok := idx.Lookup(id)
	return ok
}

// Len is the number of indexed chunks.
func (idx *ChunkIndex) Len() int {
	if idx == nil {
		return 0
	}

	return len(idx.Order)
}

func (idx *ChunkIndex) add(info ChunkInfo, diags *diagnostics) {
	if info.ID == CIDList {
		idx.Lists = append(idx.Lists, info)
		idx.Order = append(idx.Order, info)

		return
	}

	if first, dup := idx.chunks[info.ID]; dup {
		diags.addf(DiagDuplicateChunk, "chunk %q at %d ignored, first seen at %d", info.ID[:], info.Offset, first.Offset)
		return
	}

	idx.chunks[info.ID] = info
	idx.Order = append(idx.Order, info)
}

// buildChunkIndex scans the container from the start of the source once.
func buildChunkIndex(c *byteCursor, diags *diagnostics) (*ChunkIndex, error) {
	if err := c.seekTo(0); err != nil {
		return nil, err
	}

	parser := riff.New(c)

	id, size, err := parser.IDnSize()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read RIFF header: %w", ErrNotAContainer, err)
	}

	if id != riff.RiffID {
		return nil, fmt.Errorf("%w: %q - %w", ErrNotAContainer, id[:], riff.ErrFmtNotSupported)
	}

	form, err := c.readN(4)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read form type: %w", ErrNotAContainer, err)
	}

	idx := &ChunkIndex{Size: size, chunks: make(map[[4]byte]ChunkInfo)}
	copy(idx.Format[:], form)

	if idx.Format != riff.WavFormatID && idx.Format != rmp3FormatID {
		return nil, fmt.Errorf("%w: form type %q - %w", ErrNotAContainer, form, riff.ErrFmtNotSupported)
	}

	// end is the absolute offset where the declared RIFF payload ends.
	end := int64(size) + chunkHeaderSize
	if size < 4 || size == unknownRIFFSize {
		diags.addf(DiagRIFFSize, "declared RIFF size %d ignored, scanning to end of source", size)

		end = c.size
	}

	offset := int64(riffHeaderSize)
	for offset < end {
		info, more, err := scanChunk(parser, c, offset, diags)
		if err != nil {
			return nil, err
		}

		if info != nil {
			idx.add(*info, diags)
		}

		if !more {
			break
		}

		offset = c.pos
	}

	if c.pos < end && !diags.has(DiagTruncated) {
		diags.addf(DiagTruncated, "source ends at %d before declared RIFF end %d", c.size, end)
	}

	return idx, nil
}

// scanChunk reads the chunk header at offset and skips its payload, leaving
// the cursor on the next chunk header. more is false once scanning must stop.
func scanChunk(parser *riff.Parser, c *byteCursor, offset int64, diags *diagnostics) (info *ChunkInfo, more bool, err error) {
	if err := c.seekTo(offset); err != nil {
		return nil, false, err
	}

	id, size, err := parser.IDnSize()
	if err != nil {
		if !isEOF(err) {
			return nil, false, fmt.Errorf("failed to read chunk header at %d: %w", offset, err)
		}

		if c.pos > offset {
			diags.addf(DiagTruncated, "partial chunk header at %d", offset)
		}

		return nil, false, nil
	}

	// IDnSize drops the error of a short size field and reports size 0.
	if c.pos-offset < chunkHeaderSize {
		diags.addf(DiagTruncated, "partial chunk header at %d", offset)
		return nil, false, nil
	}

	info = &ChunkInfo{ID: id, Size: size, Offset: offset}

	if avail := c.remaining(); int64(size) > avail {
		diags.addf(DiagTruncated, "chunk %q at %d declares %d bytes, %d available", id[:], offset, size, avail)

		if id != riff.DataFormatID {
			return nil, false, nil
		}

		info.Size = uint32(avail)

		return info, false, nil
	}

	if err := c.skip(int64(size)); err != nil {
		return nil, false, err
	}

	if size%2 == 0 {
		return info, true, nil
	}

	pad, err := c.peekByte()

	switch {
	case errors.Is(err, io.EOF):
		return info, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to read pad byte of %q: %w", id[:], err)
	case pad != 0:
		diags.addf(DiagMissingPad, "chunk %q at %d has odd size %d and no pad byte", id[:], offset, size)
	default:
		if err := c.skip(1); err != nil {
			return nil, false, err
		}
	}

	return info, true, nil
}
