package riffwave

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

var (
	errNilChunk  = errors.New("can't decode a nil chunk")
	errNilReader = errors.New("nil reader")
)

// ChunkHandler decodes one kind of metadata chunk into the reader's
// Metadata. Errors are recorded as diagnostics unless they wrap
// ErrUnsupportedLayout.
type ChunkHandler interface {
	CanHandle(chunkID [4]byte) bool
	Decode(r *Reader, ch *riff.Chunk) error
}

// ChunkRegistry resolves chunks to handlers.
type ChunkRegistry struct {
	handlers []ChunkHandler
}

func newDefaultChunkRegistry() *ChunkRegistry {
	return &ChunkRegistry{
		handlers: []ChunkHandler{
			&listChunkHandler{},
			&dispChunkHandler{},
			&peakChunkHandler{},
			&bextChunkHandler{},
			&cartChunkHandler{},
		},
	}
}

// Register adds a handler ahead of the built-in ones.
func (r *ChunkRegistry) Register(handler ChunkHandler) {
	if r == nil || handler == nil {
		return
	}

	r.handlers = append([]ChunkHandler{handler}, r.handlers...)
}

// Decode dispatches a chunk to the first matching handler.
func (r *ChunkRegistry) Decode(rd *Reader, chnk *riff.Chunk) (bool, error) {
	if r == nil || chnk == nil {
		return false, nil
	}

	for _, handler := range r.handlers {
		if handler.CanHandle(chnk.ID) {
			err := handler.Decode(rd, chnk)
			if err != nil {
				return true, fmt.Errorf("chunk handler decode failed: %w", err)
			}

			return true, nil
		}
	}

	return false, nil
}

// readChunkPayload reads the declared payload. A short payload is returned
// together with the error.
func readChunkPayload(ch *riff.Chunk) ([]byte, error) {
	if ch == nil {
		return nil, errNilChunk
	}

	buf := make([]byte, ch.Size)

	n, err := io.ReadFull(ch, buf)
	if err != nil {
		return buf[:n], fmt.Errorf("failed to read the %s chunk - %w", ch.ID[:], err)
	}

	return buf, nil
}

type dispChunkHandler struct{}

func (h *dispChunkHandler) CanHandle(chunkID [4]byte) bool {
	return chunkID == CIDDisp
}

func (h *dispChunkHandler) Decode(r *Reader, ch *riff.Chunk) error {
	return DecodeDisplayChunk(r, ch)
}

type peakChunkHandler struct{}

func (h *peakChunkHandler) CanHandle(chunkID [4]byte) bool {
	return chunkID == CIDPeak
}

func (h *peakChunkHandler) Decode(r *Reader, ch *riff.Chunk) error {
	return DecodePeakChunk(r, ch)
}

type listChunkHandler struct{}

func (h *listChunkHandler) CanHandle(chunkID [4]byte) bool {
	return chunkID == CIDList
}

func (h *listChunkHandler) Decode(r *Reader, ch *riff.Chunk) error {
	return DecodeListChunk(r, ch)
}

type bextChunkHandler struct{}

func (h *bextChunkHandler) CanHandle(chunkID [4]byte) bool {
	return chunkID == CIDBext
}

func (h *bextChunkHandler) Decode(r *Reader, ch *riff.Chunk) error {
	return DecodeBroadcastChunk(r, ch)
}

type cartChunkHandler struct{}

func (h *cartChunkHandler) CanHandle(chunkID [4]byte) bool {
	return chunkID == CIDCart
}

func (h *cartChunkHandler) Decode(r *Reader, ch *riff.Chunk) error {
	return DecodeCartChunk(r, ch)
}
