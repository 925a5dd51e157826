package riffwave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
)

// Reader exposes the data chunk of a WAVE file as a bounded, seekable byte
// stream. All chunks are indexed and all metadata is decoded when the
// Reader is created.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	cursor *byteCursor
	closer io.Closer
	chunks *ChunkRegistry

	index    *ChunkIndex
	format   *FormatDescriptor
	metadata Metadata
	diags    diagnostics

	factSamples uint32
	hasFact     bool

	// dataStart and dataEnd bound the data chunk payload, pos is absolute.
	dataStart int64
	dataEnd   int64
	pos       int64

	closed bool
}

// Option customizes a Reader.
type Option func(*Reader)

// WithChunkHandler registers a metadata handler that takes precedence over
// the built-in ones.
func WithChunkHandler(handler ChunkHandler) Option {
	return func(r *Reader) {
		r.chunks.Register(handler)
	}
}

// Open opens the named file for reading. The file is closed when Open fails.
func Open(path string, opts ...Option) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	r, err := NewReader(file, opts...)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r.closer = file

	return r, nil
}

// NewReader indexes rs and positions the stream at the start of the data
// chunk. The caller keeps ownership of rs.
func NewReader(rs io.ReadSeeker, opts ...Option) (*Reader, error) {
	r := &Reader{
		chunks:   newDefaultChunkRegistry(),
		metadata: Metadata{},
	}

	for _, opt := range opts {
		opt(r)
	}

	cursor, err := newByteCursor(rs)
	if err != nil {
		return nil, err
	}

	r.cursor = cursor

	r.index, err = buildChunkIndex(cursor, &r.diags)
	if err != nil {
		return nil, err
	}

	if err := r.readFormat(); err != nil {
		return nil, err
	}

	data, ok := r.index.Lookup(riff.DataFormatID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingChunk, riff.DataFormatID[:])
	}

	r.dataStart = data.DataOffset()
	r.dataEnd = r.dataStart + int64(data.Size)

	r.readFact()

	if err := r.decodeMetadata(); err != nil {
		return nil, err
	}

	r.pos = r.dataStart
	if err := r.cursor.seekTo(r.pos); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Reader) readFormat() error {
	info, ok := r.index.Lookup(riff.FmtID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingChunk, riff.FmtID[:])
	}

	if info.Size < FormatChunkSizePCM || info.Size > FormatChunkSizeExtensible {
		return fmt.Errorf("%w: fmt chunk of %d bytes", ErrUnsupportedFormat, info.Size)
	}

	payload, err := r.cursor.readAt(info.DataOffset(), int(info.Size))
	if err != nil {
		return fmt.Errorf("failed to read the fmt chunk: %w", err)
	}

	r.format, err = decodeFormat(payload, &r.diags)
	if err != nil {
		return err
	}

	if r.format.Channels == 0 {
		r.diags.addf(DiagFormat, "fmt chunk declares zero channels")
	}

	if r.format.BlockAlign == 0 {
		r.diags.addf(DiagFormat, "fmt chunk declares a zero block alignment, reads are not aligned")
	}

	return nil
}

func (r *Reader) readFact() {
	info, ok := r.index.Lookup(CIDFact)
	if ok {
		payload, err := r.cursor.readAt(info.DataOffset(), int(info.Size))
		if err != nil || len(payload) < 4 {
			r.diags.addf(DiagMalformedChunk, "fact chunk of %d bytes has no sample count", info.Size)
		} else {
			r.factSamples = binary.LittleEndian.Uint32(payload[:4])
			r.hasFact = true
		}
	}

	if r.format.Compressed() && !ok {
		r.diags.addf(DiagMissingFact, "compressed %s audio without a fact chunk", FormatName(r.format.Tag()))
	}
}

// decodeMetadata runs once per indexed chunk other than fmt, data and fact.
// Only ErrUnsupportedLayout aborts.
func (r *Reader) decodeMetadata() error {
	for _, info := range r.index.Order {
		switch info.ID {
		case riff.FmtID, riff.DataFormatID, CIDFact:
			continue
		}

		if err := r.cursor.seekTo(info.DataOffset()); err != nil {
			return err
		}

		chunk := &riff.Chunk{
			ID:   info.ID,
			Size: int(info.Size),
			R:    io.LimitReader(r.cursor, int64(info.Size)),
		}

		handled, err := r.chunks.Decode(r, chunk)
		if err != nil {
			if errors.Is(err, ErrUnsupportedLayout) {
				return err
			}

			r.diags.addf(DiagMalformedChunk, "chunk %s: %v", info, err)

			continue
		}

		if handled {
			continue
		}

		data, err := readChunkPayload(chunk)
		if err != nil {
			r.diags.addf(DiagMalformedChunk, "chunk %s: %v", info, err)
			continue
		}

		r.addRecord(&RawChunk{ID: info.ID, Data: data})
	}

	return nil
}

func (r *Reader) addRecord(rec Record) {
	key := rec.Tag()
	if _, dup := r.metadata[key]; dup {
		r.diags.addf(DiagDuplicateChunk, "second %q record ignored", key)
		return
	}

	r.metadata[key] = rec
}

func (r *Reader) blockAlign() int64 {
	if r.format.BlockAlign == 0 {
		return 1
	}

	return int64(r.format.BlockAlign)
}

// ReadAll reads from the current position to the end of the data chunk.
func (r *Reader) ReadAll() ([]byte, error) {
	if r == nil || r.closed {
		return nil, ErrClosed
	}

	return r.readLimited(r.dataEnd - r.pos)
}

// ReadBytes reads up to maxBytes of sample data. maxBytes is raised to one
// block and rounded up to a whole number of blocks so a sample frame is
// never split; each adjustment is recorded as a diagnostic. An empty slice
// is returned at the end of the data.
func (r *Reader) ReadBytes(maxBytes int) ([]byte, error) {
	if r == nil || r.closed {
		return nil, ErrClosed
	}

	align := r.blockAlign()
	n := int64(maxBytes)

	if n < align {
		r.diags.addf(DiagReadAdjusted, "read of %d bytes raised to the block alignment %d", maxBytes, align)
		n = align
	}

	if rem := n % align; rem != 0 {
		// Limits too close to MaxInt64 to round up are rounded down.
		adjusted := n - rem
		if adjusted <= math.MaxInt64-align {
			adjusted += align
		}

		r.diags.addf(DiagReadAdjusted, "read of %d bytes rounded to %d, a multiple of %d", n, adjusted, align)
		n = adjusted
	}

	return r.readLimited(n)
}

// ReadSamples is ReadBytes(n * BytesPerSample()). With several channels that
// is n interleaved samples, not n frames.
func (r *Reader) ReadSamples(n int) ([]byte, error) {
	if r == nil || r.closed {
		return nil, ErrClosed
	}

	width := r.BytesPerSample()
	if n > math.MaxInt/width {
		return r.ReadBytes(math.MaxInt)
	}

	return r.ReadBytes(n * width)
}

func (r *Reader) readLimited(n int64) ([]byte, error) {
	n = min(n, r.dataEnd-r.pos)
	if n <= 0 {
		return []byte{}, nil
	}

	if err := r.cursor.seekTo(r.pos); err != nil {
		return nil, err
	}

	buf, err := r.cursor.readN(int(n))
	r.pos += int64(len(buf))

	if err != nil {
		return buf, fmt.Errorf("failed to read sample data: %w", err)
	}

	return buf, nil
}

// Read implements io.Reader over the data chunk.
func (r *Reader) Read(p []byte) (int, error) {
	if r == nil || r.closed {
		return 0, ErrClosed
	}

	if r.pos >= r.dataEnd {
		return 0, io.EOF
	}

	if len(p) == 0 {
		return 0, nil
	}

	n := min(int64(len(p)), r.dataEnd-r.pos)

	if err := r.cursor.seekTo(r.pos); err != nil {
		return 0, err
	}

	got, err := io.ReadFull(r.cursor, p[:n])
	r.pos += int64(got)

	if err != nil {
		if isEOF(err) {
			return got, io.ErrUnexpectedEOF
		}

		return got, fmt.Errorf("failed to read sample data: %w", err)
	}

	return got, nil
}

// Seek moves within the data chunk and returns the new position relative to
// its start. whence is io.SeekStart, io.SeekCurrent or io.SeekEnd, any other
// value panics. Positions outside the data chunk are clamped.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var base int64

	switch whence {
	case io.SeekStart:
		base = r.dataStart
	case io.SeekCurrent:
		base = r.pos
	case io.SeekEnd:
		base = r.dataEnd
	default:
		panic(fmt.Sprintf("riffwave: invalid whence %d", whence))
	}

	if r.closed {
		return 0, ErrClosed
	}

	pos := min(max(base+offset, r.dataStart), r.dataEnd)

	if err := r.cursor.seekTo(pos); err != nil {
		return r.Tell(), err
	}

	r.pos = pos

	return r.Tell(), nil
}

// Tell returns the position relative to the start of the data chunk.
func (r *Reader) Tell() int64 {
	return r.pos - r.dataStart
}

// Close releases the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r == nil || r.closed {
		return nil
	}

	r.closed = true

	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// FormatDescriptor returns the decoded fmt chunk.
func (r *Reader) FormatDescriptor() *FormatDescriptor {
	return r.format
}

// Index returns the chunk index built at open time.
func (r *Reader) Index() *ChunkIndex {
	return r.index
}

// Metadata returns the decoded metadata records. It must not be modified.
func (r *Reader) Metadata() Metadata {
	return r.metadata
}

// Diagnostics returns the recoverable conditions met so far, in order.
func (r *Reader) Diagnostics() []Diagnostic {
	return r.diags.clone()
}

// Channels is the number of interleaved channels.
func (r *Reader) Channels() int {
	return int(r.format.Channels)
}

// SampleRate is the number of sample frames per second.
func (r *Reader) SampleRate() int {
	return int(r.format.SampleRate)
}

// BitsPerSample is the declared sample width, container bits for PCM.
func (r *Reader) BitsPerSample() int {
	return int(r.format.BitsPerSample)
}

// BlockAlign is the size in bytes of one sample frame.
func (r *Reader) BlockAlign() int {
	return int(r.format.BlockAlign)
}

// AvgBytesPerSec is the declared average byte rate.
func (r *Reader) AvgBytesPerSec() int {
	return int(r.format.AvgBytesPerSec)
}

// FormatTag is the codec format tag, resolved through the sub-format GUID for
// extensible files.
func (r *Reader) FormatTag() uint16 {
	return r.format.Tag()
}

// Compressed reports whether the samples need a codec to be decoded.
func (r *Reader) Compressed() bool {
	return r.format.Compressed()
}

// BytesPerSample is the storage size of one sample of one channel.
func (r *Reader) BytesPerSample() int {
	return bytesPerSample(int(r.format.BitsPerSample))
}

// DataStart is the absolute offset of the first sample byte.
func (r *Reader) DataStart() int64 {
	return r.dataStart
}

// DataLength is the size of the data chunk payload in bytes.
func (r *Reader) DataLength() int64 {
	return r.dataEnd - r.dataStart
}

// BitRate is derived from the average byte rate, so it holds for compressed
// formats as well.
func (r *Reader) BitRate() int {
	return int(r.format.AvgBytesPerSec) * 8
}

// Format returns the channel count and sample rate as an audio.Format.
func (r *Reader) Format() *audio.Format {
	return &audio.Format{
		NumChannels: r.Channels(),
		SampleRate:  r.SampleRate(),
	}
}

// FactSamples returns the sample count of the fact chunk, if present.
func (r *Reader) FactSamples() (uint32, bool) {
	return r.factSamples, r.hasFact
}

// Samples is the number of samples per channel in the data chunk.
func (r *Reader) Samples() int64 {
	if r.format.Channels == 0 {
		return 0
	}

	return r.DataLength() / int64(r.BytesPerSample()) / int64(r.format.Channels)
}

// Duration is the playing time derived from Samples and the sample rate.
func (r *Reader) Duration() time.Duration {
	return samplesDuration(r.Samples(), r.SampleRate())
}

func (r *Reader) String() string {
	return fmt.Sprintf("%s, %d samples, data %d bytes at %d", r.format, r.Samples(), r.DataLength(), r.dataStart)
}
