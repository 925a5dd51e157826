package riffwave

import (
	"testing"
	"time"
)

func TestNullTermStr(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"with null", []byte{'h', 'e', 'l', 'l', 'o', 0, 'x'}, "hello"},
		{"no null", []byte{'h', 'e', 'l', 'l', 'o'}, "hello"},
		{"empty", []byte{}, ""},
		{"only null", []byte{0}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nullTermStr(tt.in)
			if got != tt.want {
				t.Fatalf("nullTermStr(%v)=%q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClen(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"with null at 3", []byte{'a', 'b', 'c', 0, 'd'}, 3},
		{"no null", []byte{'a', 'b', 'c'}, 3},
		{"empty", []byte{}, 0},
		{"null first", []byte{0, 'a'}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clen(tt.in)
			if got != tt.want {
				t.Fatalf("clen(%v)=%d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSamplesDuration(t *testing.T) {
	tests := []struct {
		name       string
		samples    int64
		sampleRate int
		want       time.Duration
	}{
		{"one second", 48000, 48000, time.Second},
		{"one sample", 1, 44100, time.Second / 44100},
		{"kick", 4502, 22050, 204172335 * time.Nanosecond},
		{"zero rate", 100, 0, 0},
		{"negative rate", 100, -48000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := samplesDuration(tt.samples, tt.sampleRate)
			if got != tt.want {
				t.Fatalf("samplesDuration(%d, %d)=%v, want %v", tt.samples, tt.sampleRate, got, tt.want)
			}
		})
	}
}

func TestBytesPerSample(t *testing.T) {
	tests := []struct {
		bitDepth, want int
	}{
		{4, 1},
		{8, 1},
		{12, 2},
		{16, 2},
		{20, 3},
		{24, 3},
		{32, 4},
		{64, 8},
	}

	for _, tt := range tests {
		if got := bytesPerSample(tt.bitDepth); got != tt.want {
			t.Fatalf("bytesPerSample(%d)=%d, want %d", tt.bitDepth, got, tt.want)
		}
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Kind: DiagMissingPad, Message: "chunk \"junk\" at 36 has odd size 3 and no pad byte"}
	if got := d.String(); got != "missing pad byte: chunk \"junk\" at 36 has odd size 3 and no pad byte" {
		t.Fatalf("diagnostic rendered as %q", got)
	}

	if got := DiagnosticKind(99).String(); got != "diagnostic(99)" {
		t.Fatalf("unknown kind rendered as %q", got)
	}
}
