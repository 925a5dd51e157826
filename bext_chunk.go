package riffwave

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/go-audio/riff"
)

// bext layout, EBU Tech 3285.
const (
	bextDescriptionLen         = 256
	bextOriginatorLen          = 32
	bextOriginatorReferenceLen = 32
	bextOriginationDateLen     = 10
	bextOriginationTimeLen     = 8
	bextUMIDLen                = 64
	bextLoudnessLen            = 10
	bextReservedLen            = 190
)

// BroadcastExtension is a Broadcast Wave Format bext chunk.
type BroadcastExtension struct {
	Description         string
	Originator          string
	OriginatorReference string
	OriginationDate     string
	OriginationTime     string
	// TimeReference is the first sample count since midnight.
	TimeReference uint64
	Version       uint16
	UMID          [64]byte

	// Loudness fields are only present from version 2 on, in 0.01 LU/dB units.
	LoudnessValue        int16
	LoudnessRange        int16
	MaxTruePeakLevel     int16
	MaxMomentaryLoudness int16
	MaxShortTermLoudness int16

	Reserved      []byte
	CodingHistory string
}

func (b *BroadcastExtension) Tag() string {
	return string(CIDBext[:])
}

// fieldReader reads fixed-size fields and zero-fills past the end of a
// short chunk.
type fieldReader struct {
	buf    []byte
	offset int
}

func (f *fieldReader) take(n int) []byte {
	out := make([]byte, n)
	if f.offset < len(f.buf) {
		end := min(f.offset+n, len(f.buf))
		copy(out, f.buf[f.offset:end])
	}

	f.offset += n

	return out
}

func (f *fieldReader) fixedString(n int) string {
	s := nullTermStr(f.take(n))
	return strings.TrimRight(s, " ")
}

func (f *fieldReader) uint16() uint16 {
	return binary.LittleEndian.Uint16(f.take(2))
}

func (f *fieldReader) uint32() uint32 {
	return binary.LittleEndian.Uint32(f.take(4))
}

// rest returns the bytes after the fixed fields.
func (f *fieldReader) rest() []byte {
	if f.offset >= len(f.buf) {
		return nil
	}

	return f.buf[f.offset:]
}

func (f *fieldReader) short() bool {
	return f.offset > len(f.buf)
}

// DecodeBroadcastChunk decodes a bext chunk.
func DecodeBroadcastChunk(r *Reader, ch *riff.Chunk) error {
	if ch == nil {
		return errNilChunk
	}

	if r == nil {
		return errNilReader
	}

	buf, err := readChunkPayload(ch)
	if err != nil {
		return err
	}

	fields := &fieldReader{buf: buf}
	bext := &BroadcastExtension{}

	bext.Description = fields.fixedString(bextDescriptionLen)
	bext.Originator = fields.fixedString(bextOriginatorLen)
	bext.OriginatorReference = fields.fixedString(bextOriginatorReferenceLen)
	bext.OriginationDate = fields.fixedString(bextOriginationDateLen)
	bext.OriginationTime = fields.fixedString(bextOriginationTimeLen)

	timeRefLow := fields.uint32()
	timeRefHigh := fields.uint32()
	bext.TimeReference = uint64(timeRefHigh)<<32 | uint64(timeRefLow)
	bext.Version = fields.uint16()

	copy(bext.UMID[:], fields.take(bextUMIDLen))

	reservedLen := bextReservedLen
	if bext.Version >= 2 {
		bext.LoudnessValue = int16(fields.uint16())
		bext.LoudnessRange = int16(fields.uint16())
		bext.MaxTruePeakLevel = int16(fields.uint16())
		bext.MaxMomentaryLoudness = int16(fields.uint16())
		bext.MaxShortTermLoudness = int16(fields.uint16())
		reservedLen -= bextLoudnessLen
	}

	bext.Reserved = fields.take(reservedLen)

	if fields.short() {
		r.diags.addf(DiagMalformedChunk, "bext chunk of %d bytes is shorter than its fixed fields", len(buf))
	}

	if history := fields.rest(); len(history) > 0 {
		bext.CodingHistory = string(bytes.TrimRight(history, "\x00"))
	}

	r.addRecord(bext)

	return nil
}
