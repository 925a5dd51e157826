package riffwave

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-audio/audio"
)

// uint8Mid is the center of the unsigned 8-bit sample range.
const uint8Mid = 127.5

// fullScale is the magnitude of the most negative signed sample of a width.
func fullScale(bitDepth int) (float64, bool) {
	switch bitDepth {
	case 8, 16, 24, 32:
		return math.Ldexp(1, bitDepth-1), true
	}

	return 0, false
}

func clampUnit(v float32) float32 {
	return min(max(v, -1), 1)
}

// sampleToFloat maps an integer sample to [-1, 1). 8-bit samples are
// unsigned.
func sampleToFloat(sample int, bitDepth int) float32 {
	if bitDepth == 8 {
		return float32((float64(sample) - uint8Mid) / uint8Mid)
	}

	scale, ok := fullScale(bitDepth)
	if !ok {
		return 0
	}

	return float32(float64(sample) / scale)
}

func floatToUint8(v float32) uint8 {
	return uint8(math.Round(float64(clampUnit(v)+1) * uint8Mid))
}

// floatToInt scales v to a signed sample of 16, 24 or 32 bits, saturating
// at the positive end.
func floatToInt(v float32, bitDepth int) int32 {
	scale, ok := fullScale(bitDepth)
	if !ok || bitDepth == 8 {
		return 0
	}

	s := math.Round(float64(clampUnit(v)) * scale)

	return int32(min(max(s, -scale), scale-1))
}

// integerPCM reports whether the stream holds integer samples of a width
// the buffer helpers handle.
func integerPCM(tag uint16, bitDepth int) bool {
	if tag != FormatPCM {
		return false
	}

	switch bitDepth {
	case 8, 16, 24, 32:
		return true
	}

	return false
}

func floatPCM(tag uint16, bitDepth int) bool {
	return tag == FormatIEEEFloat && (bitDepth == 32 || bitDepth == 64)
}

// decodeIntSample reads one little-endian integer sample. 8-bit samples stay
// unsigned, as stored.
func decodeIntSample(b []byte, bitDepth int) int {
	switch bitDepth {
	case 8:
		return int(b[0])
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		return int(audio.Int24LETo32(b))
	default:
		return int(int32(binary.LittleEndian.Uint32(b)))
	}
}

func encodeIntSample(b []byte, sample int, bitDepth int) {
	switch bitDepth {
	case 8:
		b[0] = uint8(sample)
	case 16:
		binary.LittleEndian.PutUint16(b, uint16(int16(sample)))
	case 24:
		copy(b, audio.Int32toInt24LEBytes(int32(sample)))
	default:
		binary.LittleEndian.PutUint32(b, uint32(int32(sample)))
	}
}

// readFrames reads as many whole frames as fit in room samples.
func (r *Reader) readFrames(room int) ([]byte, int, error) {
	channels := r.Channels()
	if channels == 0 {
		return nil, 0, fmt.Errorf("%w: zero channels", ErrWrongRepresentation)
	}

	frames := room / channels
	if frames == 0 {
		return nil, 0, nil
	}

	frameSize := channels * r.BytesPerSample()

	raw, err := r.readLimited(int64(frames) * int64(frameSize))
	if err != nil {
		return nil, 0, err
	}

	return raw, len(raw) / frameSize * channels, nil
}

// ReadIntBuffer fills buf.Data with whole frames of integer PCM samples and
// returns the number of samples stored. It returns 0 at the end of the data.
func (r *Reader) ReadIntBuffer(buf *audio.IntBuffer) (int, error) {
	if r == nil || r.closed {
		return 0, ErrClosed
	}

	if buf == nil {
		return 0, nil
	}

	bitDepth := r.BitsPerSample()
	if !integerPCM(r.format.Tag(), bitDepth) {
		return 0, fmt.Errorf("%w: %s with %d bits isn't integer PCM", ErrWrongRepresentation, FormatName(r.format.Tag()), bitDepth)
	}

	raw, n, err := r.readFrames(len(buf.Data))
	if err != nil {
		return 0, err
	}

	width := r.BytesPerSample()
	for i := range n {
		buf.Data[i] = decodeIntSample(raw[i*width:], bitDepth)
	}

	buf.Format = r.Format()
	buf.SourceBitDepth = bitDepth

	return n, nil
}

// ReadFloatBuffer fills buf.Data with whole frames of samples normalized to
// [-1, 1]. Integer PCM and 32 or 64-bit IEEE float streams are supported.
func (r *Reader) ReadFloatBuffer(buf *audio.Float32Buffer) (int, error) {
	if r == nil || r.closed {
		return 0, ErrClosed
	}

	if buf == nil {
		return 0, nil
	}

	tag := r.format.Tag()
	bitDepth := r.BitsPerSample()

	if !integerPCM(tag, bitDepth) && !floatPCM(tag, bitDepth) {
		return 0, fmt.Errorf("%w: %s with %d bits", ErrWrongRepresentation, FormatName(tag), bitDepth)
	}

	raw, n, err := r.readFrames(len(buf.Data))
	if err != nil {
		return 0, err
	}

	width := r.BytesPerSample()
	for i := range n {
		b := raw[i*width:]

		switch {
		case tag == FormatIEEEFloat && bitDepth == 32:
			buf.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(b))
		case tag == FormatIEEEFloat:
			buf.Data[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		default:
			buf.Data[i] = sampleToFloat(decodeIntSample(b, bitDepth), bitDepth)
		}
	}

	buf.Format = r.Format()
	buf.SourceBitDepth = bitDepth

	return n, nil
}

func (w *Writer) checkBuffer(format *audio.Format, samples int) error {
	if err := w.ensureHeader(); err != nil {
		return err
	}

	if format != nil && format.NumChannels != 0 && format.NumChannels != w.cfg.Channels {
		return fmt.Errorf("%w: buffer has %d channels, stream has %d", ErrWrongRepresentation, format.NumChannels, w.cfg.Channels)
	}

	if samples%w.cfg.Channels != 0 {
		return fmt.Errorf("%w: %d samples isn't a whole number of %d-channel frames", ErrWrongRepresentation, samples, w.cfg.Channels)
	}

	return nil
}

// WriteIntBuffer encodes integer samples for an integer PCM stream. 8-bit
// samples are expected unsigned, as ReadIntBuffer returns them.
func (w *Writer) WriteIntBuffer(buf *audio.IntBuffer) error {
	if w == nil || w.w == nil {
		return errNilWriter
	}

	if w.closed {
		return ErrClosed
	}

	if buf == nil {
		return nil
	}

	if err := w.checkBuffer(buf.Format, len(buf.Data)); err != nil {
		return err
	}

	if !integerPCM(w.cfg.Format, w.cfg.BitsPerSample) {
		return fmt.Errorf("%w: %s with %d bits isn't integer PCM", ErrWrongRepresentation, FormatName(w.cfg.Format), w.cfg.BitsPerSample)
	}

	width := bytesPerSample(w.cfg.BitsPerSample)
	out := make([]byte, len(buf.Data)*width)

	for i, sample := range buf.Data {
		encodeIntSample(out[i*width:], sample, w.cfg.BitsPerSample)
	}

	_, err := w.Write(out)

	return err
}

// WriteFloatBuffer encodes normalized samples. IEEE float streams store them
// as is, integer PCM streams get them scaled and clamped.
func (w *Writer) WriteFloatBuffer(buf *audio.Float32Buffer) error {
	if w == nil || w.w == nil {
		return errNilWriter
	}

	if w.closed {
		return ErrClosed
	}

	if buf == nil {
		return nil
	}

	if err := w.checkBuffer(buf.Format, len(buf.Data)); err != nil {
		return err
	}

	tag, bitDepth := w.cfg.Format, w.cfg.BitsPerSample
	if !integerPCM(tag, bitDepth) && !floatPCM(tag, bitDepth) {
		return fmt.Errorf("%w: %s with %d bits", ErrWrongRepresentation, FormatName(tag), bitDepth)
	}

	width := bytesPerSample(bitDepth)
	out := make([]byte, len(buf.Data)*width)

	for i, v := range buf.Data {
		b := out[i*width:]

		switch {
		case tag == FormatIEEEFloat && bitDepth == 32:
			binary.LittleEndian.PutUint32(b, math.Float32bits(v))
		case tag == FormatIEEEFloat:
			binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v)))
		case bitDepth == 8:
			b[0] = floatToUint8(v)
		default:
			encodeIntSample(b, int(floatToInt(v, bitDepth)), bitDepth)
		}
	}

	_, err := w.Write(out)

	return err
}
