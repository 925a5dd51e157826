package riffwave

import (
	"errors"
	"time"
)

var (
	// ErrNotAContainer indicates the source does not start with a RIFF/WAVE header.
	ErrNotAContainer = errors.New("not a RIFF/WAVE container")
	// ErrMissingChunk indicates a required fmt or data chunk is absent.
	ErrMissingChunk = errors.New("required chunk missing")
	// ErrUnsupportedFormat indicates an fmt chunk of an unsupported size.
	ErrUnsupportedFormat = errors.New("unsupported fmt chunk")
	// ErrUnsupportedLayout indicates a wave list (LIST/wavl) data layout,
	// which can't be exposed as a single linear data region.
	ErrUnsupportedLayout = errors.New("unsupported data layout")
	// ErrClosed is returned by operations on a closed Reader or Writer.
	ErrClosed = errors.New("stream closed")
)

func nullTermStr(b []byte) string {
	return string(b[:clen(b)])
}

func clen(num []byte) int {
	for i := range num {
		if num[i] == 0 {
			return i
		}
	}

	return len(num)
}

func samplesDuration(samples int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}

	return time.Duration(samples * int64(time.Second) / int64(sampleRate))
}

func bytesPerSample(bitDepth int) int {
	return (bitDepth-1)/8 + 1
}
