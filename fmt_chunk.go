package riffwave

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Format tags, see mmreg.h.
const (
	FormatUnknown    uint16 = 0x0000
	FormatPCM        uint16 = 0x0001
	FormatADPCM      uint16 = 0x0002
	FormatIEEEFloat  uint16 = 0x0003
	FormatALaw       uint16 = 0x0006
	FormatMuLaw      uint16 = 0x0007
	FormatIMAADPCM   uint16 = 0x0011
	FormatGSM610     uint16 = 0x0031
	FormatMPEG       uint16 = 0x0050
	FormatMP3        uint16 = 0x0055
	FormatDolbyAC3   uint16 = 0x2000
	FormatExtensible uint16 = 0xFFFE
)

var formatNames = map[uint16]string{
	FormatUnknown:    "unknown",
	FormatPCM:        "PCM",
	FormatADPCM:      "Microsoft ADPCM",
	FormatIEEEFloat:  "IEEE float",
	FormatALaw:       "A-law",
	FormatMuLaw:      "mu-law",
	FormatIMAADPCM:   "IMA ADPCM",
	FormatGSM610:     "GSM 6.10",
	FormatMPEG:       "MPEG",
	FormatMP3:        "MPEG layer 3",
	FormatDolbyAC3:   "Dolby AC3",
	FormatExtensible: "extensible",
}

// FormatName returns a human readable name for a format tag.
func FormatName(tag uint16) string {
	if name, ok := formatNames[tag]; ok {
		return name
	}

	return fmt.Sprintf("format 0x%04X", tag)
}

// Accepted fmt chunk sizes.
const (
	FormatChunkSizePCM        = 16
	FormatChunkSizeExtended   = 18
	FormatChunkSizeExtensible = 40
)

// FormatLayout identifies which fmt chunk layout was decoded.
type FormatLayout int

const (
	// LayoutPCM is the 16-byte WAVEFORMAT/PCMWAVEFORMAT layout.
	LayoutPCM FormatLayout = iota + 1
	// LayoutExtended is the WAVEFORMATEX layout with a cbSize field.
	LayoutExtended
	// LayoutExtensible is the 40-byte WAVEFORMATEXTENSIBLE layout.
	LayoutExtensible
)

func (l FormatLayout) String() string {
	switch l {
	case LayoutPCM:
		return "pcm"
	case LayoutExtended:
		return "extended"
	case LayoutExtensible:
		return "extensible"
	default:
		return "invalid"
	}
}

// guidTail is the trailing 12 bytes shared by the KSDATAFORMAT_SUBTYPE GUIDs
// that wrap a legacy format tag.
var guidTail = [12]byte{0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71}

// FormatDescriptor is the decoded fmt chunk.
type FormatDescriptor struct {
	Layout         FormatLayout
	FormatTag      uint16
	Channels       uint16
	SampleRate     uint32
	AvgBytesPerSec uint32
	BlockAlign     uint16
	BitsPerSample  uint16

	// ExtraSize is the declared cbSize, extended and extensible layouts only.
	ExtraSize uint16
	// ExtraData holds the bytes after cbSize that the layout doesn't decode.
	ExtraData []byte

	// ValidBitsPerSample shares its storage with SamplesPerBlock.
	ValidBitsPerSample uint16
	ChannelMask        uint32
	SubFormat          [16]byte
	// EffectiveTag is the format tag carried by the sub-format GUID, or
	// FormatUnknown when the GUID isn't a wrapped legacy tag.
	EffectiveTag uint16
}

// SamplesPerBlock is the compressed-format reading of ValidBitsPerSample.
func (f *FormatDescriptor) SamplesPerBlock() uint16 {
	return f.ValidBitsPerSample
}

// Tag returns the format tag that identifies the codec: the sub-format tag
// for extensible descriptors, FormatTag otherwise.
func (f *FormatDescriptor) Tag() uint16 {
	if f == nil {
		return FormatUnknown
	}

	if f.FormatTag == FormatExtensible && f.Layout == LayoutExtensible {
		return f.EffectiveTag
	}

	return f.FormatTag
}

// Compressed reports whether the samples use a codec other than PCM or
// IEEE float.
func (f *FormatDescriptor) Compressed() bool {
	if f == nil {
		return false
	}

	if f.FormatTag == FormatExtensible {
		return f.EffectiveTag != FormatPCM && f.EffectiveTag != FormatIEEEFloat
	}

	return f.FormatTag != FormatPCM && f.FormatTag != FormatIEEEFloat
}

// SubFormatUUID returns the sub-format GUID in canonical byte order.
// The first three GUID fields are stored little endian in the file.
func (f *FormatDescriptor) SubFormatUUID() uuid.UUID {
	var u uuid.UUID
	if f == nil {
		return u
	}

	binary.BigEndian.PutUint32(u[0:4], binary.LittleEndian.Uint32(f.SubFormat[0:4]))
	binary.BigEndian.PutUint16(u[4:6], binary.LittleEndian.Uint16(f.SubFormat[4:6]))
	binary.BigEndian.PutUint16(u[6:8], binary.LittleEndian.Uint16(f.SubFormat[6:8]))
	copy(u[8:], f.SubFormat[8:])

	return u
}

// SubFormatString renders the sub-format GUID, e.g.
// 00000001-0000-0010-8000-00aa00389b71 for PCM.
func (f *FormatDescriptor) SubFormatString() string {
	return f.SubFormatUUID().String()
}

func (f *FormatDescriptor) String() string {
	if f == nil {
		return "<nil>"
	}

	return fmt.Sprintf("%s, %d ch, %d Hz, %d bit (%s layout)", FormatName(f.Tag()), f.Channels, f.SampleRate, f.BitsPerSample, f.Layout)
}

// SubFormatFromUUID converts a canonical GUID into its on-disk byte order.
func SubFormatFromUUID(u uuid.UUID) [16]byte {
	var guid [16]byte
	binary.LittleEndian.PutUint32(guid[0:4], binary.BigEndian.Uint32(u[0:4]))
	binary.LittleEndian.PutUint16(guid[4:6], binary.BigEndian.Uint16(u[4:6]))
	binary.LittleEndian.PutUint16(guid[6:8], binary.BigEndian.Uint16(u[6:8]))
	copy(guid[8:], u[8:])

	return guid
}

func makeSubFormatGUID(formatTag uint16) [16]byte {
	var guid [16]byte
	binary.LittleEndian.PutUint32(guid[:4], uint32(formatTag))
	copy(guid[4:], guidTail[:])

	return guid
}

// subFormatTag extracts the legacy tag wrapped by a sub-format GUID.
func subFormatTag(guid [16]byte) uint16 {
	if !bytes.Equal(guid[4:], guidTail[:]) {
		return FormatUnknown
	}

	tag := binary.LittleEndian.Uint32(guid[:4])
	if tag > 0xFFFF {
		return FormatUnknown
	}

	return uint16(tag)
}

// decodeFormat decodes an fmt chunk payload; the declared chunk size selects
// the layout.
func decodeFormat(buf []byte, diags *diagnostics) (*FormatDescriptor, error) {
	size := len(buf)

	f := &FormatDescriptor{}

	switch {
	case size == FormatChunkSizePCM:
		f.Layout = LayoutPCM
	case size == FormatChunkSizeExtended:
		f.Layout = LayoutExtended
	case size > FormatChunkSizeExtended && size < FormatChunkSizeExtensible:
		f.Layout = LayoutExtended
	case size == FormatChunkSizeExtensible:
		f.Layout = LayoutExtensible
	default:
		return nil, fmt.Errorf("%w: fmt chunk of %d bytes", ErrUnsupportedFormat, size)
	}

	f.FormatTag = binary.LittleEndian.Uint16(buf[0:2])
	f.Channels = binary.LittleEndian.Uint16(buf[2:4])
	f.SampleRate = binary.LittleEndian.Uint32(buf[4:8])
	f.AvgBytesPerSec = binary.LittleEndian.Uint32(buf[8:12])
	f.BlockAlign = binary.LittleEndian.Uint16(buf[12:14])
	f.BitsPerSample = binary.LittleEndian.Uint16(buf[14:16])

	if f.Layout == LayoutPCM {
		return f, nil
	}

	f.ExtraSize = binary.LittleEndian.Uint16(buf[16:18])

	if f.Layout == LayoutExtended {
		if size > FormatChunkSizeExtended {
			f.ExtraData = append([]byte(nil), buf[18:]...)
		}

		if int(f.ExtraSize) != len(f.ExtraData) {
			diags.addf(DiagFormat, "fmt cbSize %d but %d extra bytes present", f.ExtraSize, len(f.ExtraData))
		}

		return f, nil
	}

	f.ValidBitsPerSample = binary.LittleEndian.Uint16(buf[18:20])
	f.ChannelMask = binary.LittleEndian.Uint32(buf[20:24])
	copy(f.SubFormat[:], buf[24:40])
	f.EffectiveTag = subFormatTag(f.SubFormat)

	if f.FormatTag != FormatExtensible {
		diags.addf(DiagFormat, "40-byte fmt chunk with format tag 0x%04X", f.FormatTag)
	}

	if !f.Compressed() && (f.ValidBitsPerSample == 0 || f.ValidBitsPerSample > f.BitsPerSample) {
		diags.addf(DiagValidBits, "valid bits per sample %d out of range for %d-bit container", f.ValidBitsPerSample, f.BitsPerSample)
	}

	return f, nil
}
