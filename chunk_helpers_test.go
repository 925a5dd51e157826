package riffwave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

type testChunk struct {
	id   string
	size uint32
	data []byte
	// noPad drops the pad byte after an odd payload.
	noPad bool
}

func newTestChunk(id string, data []byte) testChunk {
	return testChunk{id: id, size: uint32(len(data)), data: data}
}

func (c testChunk) bytes() []byte {
	var buf bytes.Buffer

	buf.WriteString(c.id)
	_ = binary.Write(&buf, binary.LittleEndian, c.size)
	buf.Write(c.data)

	if len(c.data)%2 == 1 && !c.noPad {
		buf.WriteByte(0)
	}

	return buf.Bytes()
}

// buildRIFF assembles a container with an explicit RIFF size.
func buildRIFF(form string, riffSize uint32, chunks ...testChunk) []byte {
	var buf bytes.Buffer

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, riffSize)
	buf.WriteString(form)

	for _, c := range chunks {
		buf.Write(c.bytes())
	}

	return buf.Bytes()
}

// buildWave assembles a WAVE container with a correct RIFF size.
func buildWave(chunks ...testChunk) []byte {
	data := buildRIFF("WAVE", 0, chunks...)
	binary.LittleEndian.PutUint32(data[4:8], uint32(len(data)-8))

	return data
}

func fmtPayload(tag uint16, channels, sampleRate, bitsPerSample int) []byte {
	blockAlign := channels * bytesPerSample(bitsPerSample)

	buf := make([]byte, FormatChunkSizePCM)
	binary.LittleEndian.PutUint16(buf[0:2], tag)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(buf[12:14], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[14:16], uint16(bitsPerSample))

	return buf
}

func pcmFmtChunk(channels, sampleRate, bitsPerSample int) testChunk {
	return newTestChunk("fmt ", fmtPayload(FormatPCM, channels, sampleRate, bitsPerSample))
}

func extendedFmtPayload(tag uint16, channels, sampleRate, bitsPerSample int, extra []byte) []byte {
	buf := fmtPayload(tag, channels, sampleRate, bitsPerSample)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(extra)))

	return append(buf, extra...)
}

func extensibleFmtPayload(channels, sampleRate, bitsPerSample, validBits int, mask uint32, subFormat [16]byte) []byte {
	buf := fmtPayload(FormatExtensible, channels, sampleRate, bitsPerSample)
	buf = binary.LittleEndian.AppendUint16(buf, 22)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(validBits))
	buf = binary.LittleEndian.AppendUint32(buf, mask)

	return append(buf, subFormat[:]...)
}

func factChunk(samples uint32) testChunk {
	return newTestChunk("fact", binary.LittleEndian.AppendUint32(nil, samples))
}

// infoListPayload builds a LIST/INFO payload; entries alternate tag and text.
func infoListPayload(entries ...string) []byte {
	buf := []byte("INFO")

	for i := 0; i+1 < len(entries); i += 2 {
		text := append([]byte(entries[i+1]), 0)
		buf = append(buf, entries[i]...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(text)))
		buf = append(buf, text...)

		if len(text)%2 == 1 {
			buf = append(buf, 0)
		}
	}

	return buf
}

func encodeBroadcastChunk(b *BroadcastExtension) []byte {
	var buf bytes.Buffer

	fixed := func(s string, n int) {
		field := make([]byte, n)
		copy(field, s)
		buf.Write(field)
	}

	fixed(b.Description, bextDescriptionLen)
	fixed(b.Originator, bextOriginatorLen)
	fixed(b.OriginatorReference, bextOriginatorReferenceLen)
	fixed(b.OriginationDate, bextOriginationDateLen)
	fixed(b.OriginationTime, bextOriginationTimeLen)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(b.TimeReference))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(b.TimeReference>>32))
	_ = binary.Write(&buf, binary.LittleEndian, b.Version)
	buf.Write(b.UMID[:])

	reservedLen := bextReservedLen
	if b.Version >= 2 {
		_ = binary.Write(&buf, binary.LittleEndian, []int16{
			b.LoudnessValue, b.LoudnessRange, b.MaxTruePeakLevel,
			b.MaxMomentaryLoudness, b.MaxShortTermLoudness,
		})
		reservedLen -= bextLoudnessLen
	}

	reserved := make([]byte, reservedLen)
	copy(reserved, b.Reserved)
	buf.Write(reserved)
	buf.WriteString(b.CodingHistory)

	return buf.Bytes()
}

func encodeCartChunk(c *Cart) []byte {
	var buf bytes.Buffer

	fixed := func(s string, n int) {
		field := make([]byte, n)
		copy(field, s)
		buf.Write(field)
	}

	fixed(c.Version, cartVersionLen)
	fixed(c.Title, cartTitleLen)
	fixed(c.Artist, cartArtistLen)
	fixed(c.CutID, cartCutIDLen)
	fixed(c.ClientID, cartClientIDLen)
	fixed(c.Category, cartCategoryLen)
	fixed(c.Classification, cartClassificationLen)
	fixed(c.OutCue, cartOutCueLen)
	fixed(c.StartDate, cartStartDateLen)
	fixed(c.StartTime, cartStartTimeLen)
	fixed(c.EndDate, cartEndDateLen)
	fixed(c.EndTime, cartEndTimeLen)
	fixed(c.ProducerAppID, cartProducerAppIDLen)
	fixed(c.ProducerAppVersion, cartProducerAppVersionLen)
	fixed(c.UserDef, cartUserDefLen)
	_ = binary.Write(&buf, binary.LittleEndian, c.LevelReference)

	for _, timer := range c.PostTimer {
		buf.Write(timer.Usage[:])
		_ = binary.Write(&buf, binary.LittleEndian, timer.Value)
	}

	reserved := make([]byte, cartReservedLen)
	copy(reserved, c.Reserved)
	buf.Write(reserved)
	fixed(c.URL, cartURLLen)
	buf.WriteString(c.TagText)

	return buf.Bytes()
}

func openBytes(t *testing.T, data []byte, opts ...Option) *Reader {
	t.Helper()

	r, err := NewReader(bytes.NewReader(data), opts...)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}

	return r
}

func diagKinds(r *Reader) []DiagnosticKind {
	var kinds []DiagnosticKind
	for _, d := range r.Diagnostics() {
		kinds = append(kinds, d.Kind)
	}

	return kinds
}

func hasDiag(r *Reader, kind DiagnosticKind) bool {
	for _, d := range r.Diagnostics() {
		if d.Kind == kind {
			return true
		}
	}

	return false
}

var (
	errFileTooSmall         = errors.New("file too small")
	errInvalidRiffWaveHdr   = errors.New("invalid riff/wave header")
	errChunkExceedsFileSize = errors.New("chunk exceeds file size")
)

// parseWavChunks is an independent chunk walker used to check written files.
func parseWavChunks(data []byte) ([]testChunk, error) {
	if len(data) < 12 {
		return nil, errFileTooSmall
	}

	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errInvalidRiffWaveHdr
	}

	chunks := make([]testChunk, 0)

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += 8

		end := offset + int(size)
		if end > len(data) {
			return nil, fmt.Errorf("%w: %q", errChunkExceedsFileSize, id)
		}

		payload := append([]byte(nil), data[offset:end]...)
		chunks = append(chunks, testChunk{id: id, size: size, data: payload})

		offset = end
		if size%2 == 1 {
			offset++
		}
	}

	return chunks, nil
}

func findChunk(chunks []testChunk, id string) (*testChunk, int) {
	for i := range chunks {
		if chunks[i].id == id {
			return &chunks[i], i
		}
	}

	return nil, -1
}
