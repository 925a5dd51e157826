package riffwave

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-audio/riff"
)

// Clipboard formats used by DISP chunks.
const (
	DisplayText     uint32 = 1
	DisplayBitmap   uint32 = 2
	DisplayMetafile uint32 = 3
	DisplayDIB      uint32 = 8
)

var errShortDisp = errors.New("DISP chunk shorter than its type field")

// Display is a DISP chunk: a clipboard format and its payload.
type Display struct {
	Type uint32
	// Text is set for DisplayText payloads.
	Text string
	// Data holds the payload of every other type.
	Data []byte
}

func (d *Display) Tag() string {
	return string(CIDDisp[:])
}

// DecodeDisplayChunk decodes a DISP chunk.
func DecodeDisplayChunk(r *Reader, ch *riff.Chunk) error {
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

	if len(buf) < 4 {
		return fmt.Errorf("%w: %d bytes", errShortDisp, len(buf))
	}

	disp := &Display{Type: binary.LittleEndian.Uint32(buf[:4])}
	if disp.Type == DisplayText {
		disp.Text = nullTermStr(buf[4:])
	} else {
		disp.Data = buf[4:]
	}

	r.addRecord(disp)

	return nil
}
