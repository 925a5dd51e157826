package riffwave

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/go-audio/riff"
)

func TestChunkIndexOffsets(t *testing.T) {
	data := buildWave(
		pcmFmtChunk(1, 8000, 16),
		newTestChunk("data", []byte{1, 2, 3, 4}),
	)

	r := openBytes(t, data)

	idx := r.Index()
	if idx.Len() != 2 {
		t.Fatalf("indexed %d chunks, want 2", idx.Len())
	}

	if idx.Format != riff.WavFormatID {
		t.Fatalf("form type %q, want WAVE", idx.Format[:])
	}

	if int(idx.Size) != len(data)-8 {
		t.Fatalf("riff size %d, want %d", idx.Size, len(data)-8)
	}

	fmtInfo, ok := idx.Lookup(riff.FmtID)
	if !ok {
		t.Fatal("fmt chunk not indexed")
	}

	if fmtInfo.Offset != 12 || fmtInfo.DataOffset() != 20 || fmtInfo.Size != 16 {
		t.Fatalf("unexpected fmt location %s", fmtInfo)
	}

	dataInfo, ok := idx.Lookup(riff.DataFormatID)
	if !ok {
		t.Fatal("data chunk not indexed")
	}

	if dataInfo.Offset != 36 || dataInfo.DataOffset() != 44 {
		t.Fatalf("unexpected data location %s", dataInfo)
	}

	if r.DataStart() != 44 || r.DataLength() != 4 {
		t.Fatalf("data region %d+%d, want 44+4", r.DataStart(), r.DataLength())
	}

	if len(r.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.Diagnostics())
	}
}

func TestChunkInfoPaddedSize(t *testing.T) {
	tests := []struct {
		size uint32
		want int64
	}{
		{0, 0},
		{1, 2},
		{2, 2},
		{7, 8},
	}

	for _, tt := range tests {
		got := ChunkInfo{Size: tt.size}.PaddedSize()
		if got != tt.want {
			t.Fatalf("PaddedSize(%d)=%d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestChunkIndexDuplicateKeepsFirst(t *testing.T) {
	data := buildWave(
		pcmFmtChunk(1, 8000, 16),
		pcmFmtChunk(2, 44100, 24),
		newTestChunk("data", []byte{1, 2}),
		newTestChunk("data", []byte{9, 9, 9, 9}),
	)

	r := openBytes(t, data)

	if r.Channels() != 1 || r.SampleRate() != 8000 {
		t.Fatalf("second fmt chunk was used: %s", r.FormatDescriptor())
	}

	if r.DataLength() != 2 {
		t.Fatalf("data length %d, want the first data chunk", r.DataLength())
	}

	dups := 0
	for _, kind := range diagKinds(r) {
		if kind == DiagDuplicateChunk {
			dups++
		}
	}

	if dups != 2 {
		t.Fatalf("%d duplicate diagnostics, want 2: %v", dups, r.Diagnostics())
	}

	if r.Index().Len() != 2 {
		t.Fatalf("indexed %d chunks, want 2", r.Index().Len())
	}
}

func TestChunkIndexListMayRepeat(t *testing.T) {
	data := buildWave(
		pcmFmtChunk(1, 8000, 8),
		newTestChunk("LIST", infoListPayload("IART", "artist")),
		newTestChunk("LIST", infoListPayload("INAM", "title", "IART", "other")),
		newTestChunk("data", []byte{0x80}),
	)

	r := openBytes(t, data)

	if got := len(r.Index().Lists); got != 2 {
		t.Fatalf("%d LIST chunks indexed, want 2", got)
	}

	if hasDiag(r, DiagDuplicateChunk) {
		t.Fatalf("LIST chunks flagged as duplicates: %v", r.Diagnostics())
	}

	info := r.Metadata().Info()
	if info.Artist() != "artist" || info.Title() != "title" {
		t.Fatalf("INFO entries not merged first-wins: %v", info)
	}
}

func TestChunkIndexPadding(t *testing.T) {
	t.Run("padded odd chunk", func(t *testing.T) {
		data := buildWave(
			pcmFmtChunk(1, 8000, 8),
			newTestChunk("junk", []byte{1, 2, 3}),
			newTestChunk("data", []byte{0x80, 0x80}),
		)

		r := openBytes(t, data)

		if len(r.Diagnostics()) != 0 {
			t.Fatalf("unexpected diagnostics: %v", r.Diagnostics())
		}

		if r.DataStart() != 12+24+12+8 {
			t.Fatalf("data starts at %d", r.DataStart())
		}
	})

	t.Run("missing pad byte", func(t *testing.T) {
		junk := newTestChunk("junk", []byte{1, 2, 3})
		junk.noPad = true

		data := buildWave(
			pcmFmtChunk(1, 8000, 8),
			junk,
			newTestChunk("data", []byte{0x80, 0x80}),
		)

		r := openBytes(t, data)

		if !hasDiag(r, DiagMissingPad) {
			t.Fatalf("missing pad not reported: %v", r.Diagnostics())
		}

		if r.DataStart() != 12+24+11+8 {
			t.Fatalf("data starts at %d", r.DataStart())
		}

		raw, ok := r.Metadata()["junk"].(*RawChunk)
		if !ok || !bytes.Equal(raw.Data, []byte{1, 2, 3}) {
			t.Fatalf("unexpected junk record %#v", r.Metadata()["junk"])
		}
	})
}

func TestChunkIndexTruncation(t *testing.T) {
	t.Run("data clamped to source", func(t *testing.T) {
		data := buildWave(
			pcmFmtChunk(1, 8000, 16),
			newTestChunk("data", make([]byte, 10)),
		)
		binary.LittleEndian.PutUint32(data[40:44], 100)

		r := openBytes(t, data)

		if r.DataLength() != 10 {
			t.Fatalf("data length %d, want 10", r.DataLength())
		}

		if !hasDiag(r, DiagTruncated) {
			t.Fatalf("truncation not reported: %v", r.Diagnostics())
		}
	})

	t.Run("truncated trailing chunk dropped", func(t *testing.T) {
		data := buildWave(
			pcmFmtChunk(1, 8000, 16),
			newTestChunk("data", make([]byte, 4)),
			testChunk{id: "junk", size: 50, data: []byte{1, 2, 3, 4}},
		)

		r := openBytes(t, data)

		if r.Index().Has([4]byte{'j', 'u', 'n', 'k'}) {
			t.Fatal("truncated chunk was indexed")
		}

		if !hasDiag(r, DiagTruncated) {
			t.Fatalf("truncation not reported: %v", r.Diagnostics())
		}
	})

	t.Run("partial chunk header", func(t *testing.T) {
		fragments := [][]byte{
			[]byte("jun"),
			[]byte("junk"),
			[]byte("junk\x01\x00"),
			[]byte("junk\x01\x00\x00"),
		}

		for _, fragment := range fragments {
			data := buildWave(
				pcmFmtChunk(1, 8000, 16),
				newTestChunk("data", make([]byte, 4)),
			)
			data = append(data, fragment...)
			binary.LittleEndian.PutUint32(data[4:8], uint32(len(data)-8))

			r := openBytes(t, data)

			if !hasDiag(r, DiagTruncated) {
				t.Fatalf("%d byte fragment: partial header not reported: %v", len(fragment), r.Diagnostics())
			}

			if r.Index().Len() != 2 {
				t.Fatalf("%d byte fragment: %d chunks indexed, want 2", len(fragment), r.Index().Len())
			}

			if r.Metadata().Raw("junk") != nil {
				t.Fatalf("%d byte fragment: fragment decoded as a chunk", len(fragment))
			}
		}
	})

	t.Run("partial data header", func(t *testing.T) {
		data := buildWave(pcmFmtChunk(1, 8000, 16))
		data = append(data, 'd', 'a', 't', 'a', 0x10)
		binary.LittleEndian.PutUint32(data[4:8], uint32(len(data)-8))

		_, err := NewReader(bytes.NewReader(data))
		if !errors.Is(err, ErrMissingChunk) {
			t.Fatalf("got %v, want ErrMissingChunk", err)
		}
	})

	t.Run("riff size past end of source", func(t *testing.T) {
		data := buildRIFF("WAVE", 1000,
			pcmFmtChunk(1, 8000, 16),
			newTestChunk("data", make([]byte, 4)),
		)

		r := openBytes(t, data)

		if !hasDiag(r, DiagTruncated) {
			t.Fatalf("short source not reported: %v", r.Diagnostics())
		}

		if r.DataLength() != 4 {
			t.Fatalf("data length %d, want 4", r.DataLength())
		}
	})
}

func TestChunkIndexRIFFSize(t *testing.T) {
	chunks := []testChunk{
		pcmFmtChunk(2, 44100, 16),
		newTestChunk("data", make([]byte, 8)),
	}

	for _, size := range []uint32{0, 2, 0xFFFFFFFF} {
		r := openBytes(t, buildRIFF("WAVE", size, chunks...))

		if !hasDiag(r, DiagRIFFSize) {
			t.Fatalf("riff size %d: no diagnostic in %v", size, r.Diagnostics())
		}

		if r.DataLength() != 8 {
			t.Fatalf("riff size %d: data length %d, want 8", size, r.DataLength())
		}
	}
}

func TestChunkIndexStopsAtDeclaredEnd(t *testing.T) {
	body := buildWave(
		pcmFmtChunk(1, 8000, 16),
		newTestChunk("data", make([]byte, 4)),
	)
	data := append(body, newTestChunk("junk", []byte{1, 2}).bytes()...)

	r := openBytes(t, data)

	if r.Index().Has([4]byte{'j', 'u', 'n', 'k'}) {
		t.Fatal("chunk past the declared RIFF size was indexed")
	}

	if len(r.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", r.Diagnostics())
	}
}

func TestChunkIndexFormType(t *testing.T) {
	chunks := []testChunk{
		pcmFmtChunk(1, 8000, 16),
		newTestChunk("data", make([]byte, 2)),
	}

	rmp3 := buildRIFF("RMP3", 0, chunks...)
	rmp3[4] = byte(len(rmp3) - 8)

	r := openBytes(t, rmp3)
	if r.Index().Format != rmp3FormatID {
		t.Fatalf("form type %q, want RMP3", r.Index().Format[:])
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("RIFF")},
		{"big endian riff", append([]byte("RIFX\x00\x00\x00\x00WAVE"), make([]byte, 8)...)},
		{"avi", buildRIFF("AVI ", 4)},
		{"not riff", []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrNotAContainer) {
				t.Fatalf("got %v, want ErrNotAContainer", err)
			}
		})
	}
}
