package riffwave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/riff"
)

// Writer defaults, used for zero WriterConfig fields.
const (
	DefaultChannels      = 2
	DefaultSampleRate    = 48000
	DefaultBitsPerSample = 16
	DefaultFormat        = FormatPCM
)

const (
	// headerSize is the size of the canonical header written by Writer.
	headerSize       = 44
	riffSizeOffset   = 4
	dataSizeOffset   = 40
	riffSizeOverData = headerSize - chunkHeaderSize
	maxDataSize      = math.MaxUint32 - riffSizeOverData - 1
)

var (
	// ErrInvalidConfig is returned when the writer configuration can't be
	// encoded in a canonical fmt chunk.
	ErrInvalidConfig = errors.New("invalid writer configuration")
	// ErrHeaderWritten is returned when reconfiguring a Writer after its
	// first write.
	ErrHeaderWritten = errors.New("header already written")
	// ErrWrongRepresentation is returned for sample buffers that don't match
	// the configured format.
	ErrWrongRepresentation = errors.New("sample buffer doesn't match the stream format")
	// ErrDataTooLarge is returned when the data chunk would exceed the 4 GiB
	// RIFF limit.
	ErrDataTooLarge = errors.New("data exceeds the RIFF size limit")

	errNilWriter = errors.New("can't write to a nil writer")
)

// WriterConfig describes the stream a Writer produces. Zero fields take the
// Default values: 2 channels, 48000 Hz, 16 bits, PCM.
type WriterConfig struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	// Format is the fmt chunk format tag, FormatExtensible isn't supported.
	Format uint16
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}

	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	if c.BitsPerSample == 0 {
		c.BitsPerSample = DefaultBitsPerSample
	}

	if c.Format == FormatUnknown {
		c.Format = DefaultFormat
	}

	return c
}

// BlockAlign is the size in bytes of one sample frame.
func (c WriterConfig) BlockAlign() int {
	return c.Channels * bytesPerSample(c.BitsPerSample)
}

func (c WriterConfig) validate() error {
	switch {
	case c.Channels < 1 || c.Channels > math.MaxUint16:
		return fmt.Errorf("%w: %d channels", ErrInvalidConfig, c.Channels)
	case c.SampleRate < 1 || int64(c.SampleRate) > math.MaxUint32:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.BitsPerSample < 1 || c.BitsPerSample > math.MaxUint16:
		return fmt.Errorf("%w: %d bits per sample", ErrInvalidConfig, c.BitsPerSample)
	case c.Format == FormatExtensible:
		return fmt.Errorf("%w: extensible fmt chunks can't be written", ErrInvalidConfig)
	case c.BlockAlign() > math.MaxUint16:
		return fmt.Errorf("%w: block alignment %d", ErrInvalidConfig, c.BlockAlign())
	case int64(c.SampleRate)*int64(c.BlockAlign()) > math.MaxUint32:
		return fmt.Errorf("%w: byte rate overflows", ErrInvalidConfig)
	}

	return nil
}

// Writer writes a canonical WAVE file: a 44-byte header followed by the
// data chunk. Both size fields are rewritten after every Write, so the file
// is valid at any point between calls.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	w      io.WriteSeeker
	closer io.Closer
	cfg    WriterConfig

	wroteHeader bool
	dataSize    int64
	closed      bool
}

// NewWriter returns a Writer on w. Nothing is written until the first Write
// or Close. The caller keeps ownership of w.
func NewWriter(w io.WriteSeeker, cfg WriterConfig) *Writer {
	return &Writer{w: w, cfg: cfg}
}

// Create creates or truncates the named file and returns a Writer that
// closes it on Close.
func Create(path string, cfg WriterConfig) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := NewWriter(file, cfg)
	w.closer = file

	return w, nil
}

// Config returns the effective configuration, defaults applied.
func (w *Writer) Config() WriterConfig {
	return w.cfg.withDefaults()
}

// Configure replaces the configuration. It fails once the header is written.
func (w *Writer) Configure(cfg WriterConfig) error {
	if w.closed {
		return ErrClosed
	}

	if w.wroteHeader {
		return ErrHeaderWritten
	}

	w.cfg = cfg

	return nil
}

// DataSize is the number of data bytes written so far.
func (w *Writer) DataSize() int64 {
	return w.dataSize
}

// Write appends p to the data chunk and updates the RIFF and data sizes.
// The header is written on the first call.
func (w *Writer) Write(p []byte) (int, error) {
	if w == nil || w.w == nil {
		return 0, errNilWriter
	}

	if w.closed {
		return 0, ErrClosed
	}

	if err := w.ensureHeader(); err != nil {
		return 0, err
	}

	if len(p) == 0 {
		return 0, nil
	}

	if w.dataSize+int64(len(p)) > maxDataSize {
		return 0, fmt.Errorf("%w: %d + %d bytes", ErrDataTooLarge, w.dataSize, len(p))
	}

	if _, err := w.w.Seek(headerSize+w.dataSize, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to seek to the end of data: %w", err)
	}

	n, err := w.w.Write(p)
	w.dataSize += int64(n)

	if err != nil {
		return n, fmt.Errorf("failed to write sample data: %w", err)
	}

	if err := w.patchSizes(); err != nil {
		return n, err
	}

	return n, nil
}

func (w *Writer) ensureHeader() error {
	if w.wroteHeader {
		return nil
	}

	cfg := w.cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to the header: %w", err)
	}

	if _, err := w.w.Write(encodeHeader(cfg)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	w.cfg = cfg
	w.wroteHeader = true

	return nil
}

// encodeHeader builds the RIFF header, a 16-byte fmt chunk and the data
// chunk header with zero sizes.
func encodeHeader(cfg WriterConfig) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, headerSize))
	blockAlign := cfg.BlockAlign()

	_ = binary.Write(buf, binary.BigEndian, riff.RiffID)
	_ = binary.Write(buf, binary.LittleEndian, uint32(riffSizeOverData))
	_ = binary.Write(buf, binary.BigEndian, riff.WavFormatID)
	_ = binary.Write(buf, binary.BigEndian, riff.FmtID)
	_ = binary.Write(buf, binary.LittleEndian, uint32(FormatChunkSizePCM))
	_ = binary.Write(buf, binary.LittleEndian, cfg.Format)
	_ = binary.Write(buf, binary.LittleEndian, uint16(cfg.Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(cfg.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(cfg.SampleRate*blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(cfg.BitsPerSample))
	_ = binary.Write(buf, binary.BigEndian, riff.DataFormatID)
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))

	return buf.Bytes()
}

// patchSizes rewrites the RIFF size at offset 4 and the data size at
// offset 40.
func (w *Writer) patchSizes() error {
	var field [4]byte

	binary.LittleEndian.PutUint32(field[:], uint32(riffSizeOverData+w.dataSize))

	if _, err := w.w.Seek(riffSizeOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to the RIFF size: %w", err)
	}

	if _, err := w.w.Write(field[:]); err != nil {
		return fmt.Errorf("%w when writing the RIFF size", err)
	}

	binary.LittleEndian.PutUint32(field[:], uint32(w.dataSize))

	if _, err := w.w.Seek(dataSizeOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to the data size: %w", err)
	}

	if _, err := w.w.Write(field[:]); err != nil {
		return fmt.Errorf("%w when writing the data chunk size", err)
	}

	return nil
}

// Close writes the header if nothing was written yet and pads an odd data
// chunk with one zero byte, counted in both size fields. The underlying file
// is closed only when the Writer was created by Create.
func (w *Writer) Close() error {
	if w == nil || w.closed {
		return nil
	}

	w.closed = true

	err := w.finish()

	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}

	return err
}

func (w *Writer) finish() error {
	if w.w == nil {
		return errNilWriter
	}

	if err := w.ensureHeader(); err != nil {
		return err
	}

	if w.dataSize%2 == 1 {
		if _, err := w.w.Seek(headerSize+w.dataSize, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to the end of data: %w", err)
		}

		if _, err := w.w.Write([]byte{0}); err != nil {
			return fmt.Errorf("failed to write the pad byte: %w", err)
		}

		w.dataSize++
	}

	if err := w.patchSizes(); err != nil {
		return err
	}

	if _, err := w.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of file: %w", err)
	}

	if f, ok := w.w.(*os.File); ok {
		return f.Sync()
	}

	return nil
}
