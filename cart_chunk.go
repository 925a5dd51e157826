package riffwave

import (
	"bytes"

	"github.com/go-audio/riff"
)

// cart layout, AES46-2002.
const (
	cartVersionLen            = 4
	cartTitleLen              = 64
	cartArtistLen             = 64
	cartCutIDLen              = 64
	cartClientIDLen           = 64
	cartCategoryLen           = 64
	cartClassificationLen     = 64
	cartOutCueLen             = 64
	cartStartDateLen          = 10
	cartStartTimeLen          = 8
	cartEndDateLen            = 10
	cartEndTimeLen            = 8
	cartProducerAppIDLen      = 64
	cartProducerAppVersionLen = 64
	cartUserDefLen            = 64
	cartPostTimerCount        = 8
	cartReservedLen           = 276
	cartURLLen                = 1024
)

// CartTimer is one post timer: a four character usage code and a sample
// offset.
type CartTimer struct {
	Usage [4]byte
	Value uint32
}

// Cart is an AES46 cart chunk.
type Cart struct {
	Version            string
	Title              string
	Artist             string
	CutID              string
	ClientID           string
	Category           string
	Classification     string
	OutCue             string
	StartDate          string
	StartTime          string
	EndDate            string
	EndTime            string
	ProducerAppID      string
	ProducerAppVersion string
	UserDef            string
	LevelReference     int32
	PostTimer          [cartPostTimerCount]CartTimer
	Reserved           []byte
	URL                string
	TagText            string
}

func (c *Cart) Tag() string {
	return string(CIDCart[:])
}

// DecodeCartChunk decodes a cart chunk.
func DecodeCartChunk(r *Reader, ch *riff.Chunk) error {
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
	cart := &Cart{}

	cart.Version = fields.fixedString(cartVersionLen)
	cart.Title = fields.fixedString(cartTitleLen)
	cart.Artist = fields.fixedString(cartArtistLen)
	cart.CutID = fields.fixedString(cartCutIDLen)
	cart.ClientID = fields.fixedString(cartClientIDLen)
	cart.Category = fields.fixedString(cartCategoryLen)
	cart.Classification = fields.fixedString(cartClassificationLen)
	cart.OutCue = fields.fixedString(cartOutCueLen)
	cart.StartDate = fields.fixedString(cartStartDateLen)
	cart.StartTime = fields.fixedString(cartStartTimeLen)
	cart.EndDate = fields.fixedString(cartEndDateLen)
	cart.EndTime = fields.fixedString(cartEndTimeLen)
	cart.ProducerAppID = fields.fixedString(cartProducerAppIDLen)
	cart.ProducerAppVersion = fields.fixedString(cartProducerAppVersionLen)
	cart.UserDef = fields.fixedString(cartUserDefLen)
	cart.LevelReference = int32(fields.uint32())

	for i := range cart.PostTimer {
		copy(cart.PostTimer[i].Usage[:], fields.take(4))
		cart.PostTimer[i].Value = fields.uint32()
	}

	cart.Reserved = fields.take(cartReservedLen)
	cart.URL = fields.fixedString(cartURLLen)

	if fields.short() {
		r.diags.addf(DiagMalformedChunk, "cart chunk of %d bytes is shorter than its fixed fields", len(buf))
	}

	if tagText := fields.rest(); len(tagText) > 0 {
		cart.TagText = string(bytes.TrimRight(tagText, "\x00"))
	}

	r.addRecord(cart)

	return nil
}
