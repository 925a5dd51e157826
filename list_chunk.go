package riffwave

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/go-audio/riff"
)

const infoKey = "INFO"

var (
	// CIDInfo is the LIST type of an INFO list.
	CIDInfo = [4]byte{'I', 'N', 'F', 'O'}
	// CIDAdtl is the LIST type of an associated data list.
	CIDAdtl = [4]byte{'a', 'd', 't', 'l'}
	// CIDWavl is the LIST type of a wave list of alternating silence and data chunks.
	CIDWavl = [4]byte{'w', 'a', 'v', 'l'}

	// See http://bwfmetaedit.sourceforge.net/listinfo.html
	markerIART    = [4]byte{'I', 'A', 'R', 'T'}
	markerISFT    = [4]byte{'I', 'S', 'F', 'T'}
	markerICRD    = [4]byte{'I', 'C', 'R', 'D'}
	markerICOP    = [4]byte{'I', 'C', 'O', 'P'}
	markerIARL    = [4]byte{'I', 'A', 'R', 'L'}
	markerINAM    = [4]byte{'I', 'N', 'A', 'M'}
	markerIENG    = [4]byte{'I', 'E', 'N', 'G'}
	markerIGNR    = [4]byte{'I', 'G', 'N', 'R'}
	markerIPRD    = [4]byte{'I', 'P', 'R', 'D'}
	markerISRC    = [4]byte{'I', 'S', 'R', 'C'}
	markerISBJ    = [4]byte{'I', 'S', 'B', 'J'}
	markerICMT    = [4]byte{'I', 'C', 'M', 'T'}
	markerITRK    = [4]byte{'I', 'T', 'R', 'K'}
	markerITRKBug = [4]byte{'i', 't', 'r', 'k'}
	markerITCH    = [4]byte{'I', 'T', 'C', 'H'}
	markerIKEY    = [4]byte{'I', 'K', 'E', 'Y'}
	markerIMED    = [4]byte{'I', 'M', 'E', 'D'}

	errShortList = errors.New("LIST chunk too short for its type")
)

var infoFieldNames = map[[4]byte]string{
	markerIARL:    "Location",
	markerIART:    "Artist",
	markerISFT:    "Software",
	markerICRD:    "CreationDate",
	markerICOP:    "Copyright",
	markerINAM:    "Title",
	markerIENG:    "Engineer",
	markerIGNR:    "Genre",
	markerIPRD:    "Product",
	markerISRC:    "Source",
	markerISBJ:    "Subject",
	markerICMT:    "Comments",
	markerITRK:    "TrackNbr",
	markerITRKBug: "TrackNbr",
	markerITCH:    "Technician",
	markerIKEY:    "Keywords",
	markerIMED:    "Medium",
}

// InfoFieldName returns a readable name for an INFO tag, or the tag itself.
func InfoFieldName(tag string) string {
	var id [4]byte
	copy(id[:], tag)

	if name, ok := infoFieldNames[id]; ok && len(tag) == 4 {
		return name
	}

	return tag
}

// InfoList maps INFO tags (IART, INAM, ...) to their text.
type InfoList map[string]string

func (l InfoList) Tag() string {
	return infoKey
}

// Get returns the text stored for an INFO tag.
func (l InfoList) Get(id [4]byte) string {
	return l[string(id[:])]
}

// Keys returns the stored tags in sorted order.
func (l InfoList) Keys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func (l InfoList) Artist() string    { return l.Get(markerIART) }
func (l InfoList) Title() string     { return l.Get(markerINAM) }
func (l InfoList) Comments() string  { return l.Get(markerICMT) }
func (l InfoList) Copyright() string { return l.Get(markerICOP) }
func (l InfoList) Genre() string     { return l.Get(markerIGNR) }
func (l InfoList) Software() string  { return l.Get(markerISFT) }

// TrackNbr also honours the lowercase itrk tag some encoders write.
func (l InfoList) TrackNbr() string {
	if v := l.Get(markerITRK); v != "" {
		return v
	}

	return l.Get(markerITRKBug)
}

// DecodeListChunk decodes a LIST chunk according to its list type.
func DecodeListChunk(r *Reader, ch *riff.Chunk) error {
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

	if len(buf) > 0 && buf[0] == 0 {
		r.diags.addf(DiagMisalignedList, "LIST type starts with a zero byte, reading it one byte later")

		buf = buf[1:]
	}

	if len(buf) < 4 {
		return fmt.Errorf("%w: %d bytes", errShortList, len(buf))
	}

	var listType [4]byte
	copy(listType[:], buf[:4])
	body := buf[4:]

	switch listType {
	case CIDInfo:
		decodeInfoEntries(r, body)
	case CIDAdtl:
		r.addRecord(&RawChunk{ID: CIDAdtl, Data: body})
	case CIDWavl:
		return fmt.Errorf("%w: LIST/wavl", ErrUnsupportedLayout)
	default:
		r.diags.addf(DiagUnknownList, "LIST type %q kept as raw bytes", listType[:])
		r.addRecord(&RawChunk{ID: listType, Data: body})
	}

	return nil
}

// decodeInfoEntries reads (tag, size, text, pad) records until the list is
// exhausted and merges them into the INFO record.
func decodeInfoEntries(r *Reader, body []byte) {
	info := r.metadata.Info()
	if info == nil {
		info = InfoList{}
		r.addRecord(info)
	}

	for pos := 0; len(body)-pos >= chunkHeaderSize; {
		id := string(body[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(body[pos+4 : pos+8]))
		pos += chunkHeaderSize

		if size > len(body)-pos {
			r.diags.addf(DiagMalformedChunk, "INFO entry %q declares %d bytes, %d left", id, size, len(body)-pos)

			size = len(body) - pos
		}

		if _, seen := info[id]; !seen {
			info[id] = nullTermStr(body[pos : pos+size])
		}

		pos += size
		if size%2 == 1 && pos < len(body) && body[pos] == 0 {
			pos++
		}
	}
}
