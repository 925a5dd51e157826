package riffwave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-audio/riff"
)

const (
	peakHeaderLen = 8
	peakEntryLen  = 8
)

var errShortPeak = errors.New("PEAK chunk shorter than its header")

// PeakValue is the peak of one channel.
type PeakValue struct {
	// Value is the absolute peak, 1.0 being full scale.
	Value float32
	// Position is the sample frame of the peak.
	Position uint32
}

// Peak is a PEAK chunk.
type Peak struct {
	Version uint32
	// Timestamp is seconds since 1970-01-01.
	Timestamp uint32
	Channels  []PeakValue
}

func (p *Peak) Tag() string {
	return string(CIDPeak[:])
}

// DecodePeakChunk decodes a PEAK chunk, one entry per channel.
func DecodePeakChunk(r *Reader, ch *riff.Chunk) error {
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

	if len(buf) < peakHeaderLen {
		return fmt.Errorf("%w: %d bytes", errShortPeak, len(buf))
	}

	peak := &Peak{
		Version:   binary.LittleEndian.Uint32(buf[0:4]),
		Timestamp: binary.LittleEndian.Uint32(buf[4:8]),
	}

	entries := buf[peakHeaderLen:]
	if len(entries)%peakEntryLen != 0 {
		r.diags.addf(DiagMalformedChunk, "PEAK chunk has %d trailing bytes", len(entries)%peakEntryLen)
	}

	for off := 0; off+peakEntryLen <= len(entries); off += peakEntryLen {
		peak.Channels = append(peak.Channels, PeakValue{
			Value:    math.Float32frombits(binary.LittleEndian.Uint32(entries[off : off+4])),
			Position: binary.LittleEndian.Uint32(entries[off+4 : off+8]),
		})
	}

	if r.format != nil && len(peak.Channels) != int(r.format.Channels) {
		r.diags.addf(DiagMalformedChunk, "PEAK chunk has %d entries for %d channels", len(peak.Channels), r.format.Channels)
	}

	r.addRecord(peak)

	return nil
}
