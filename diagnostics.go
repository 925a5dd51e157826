package riffwave

import "fmt"

// DiagnosticKind classifies a recoverable condition met while reading.
type DiagnosticKind int

const (
	// DiagDuplicateChunk: a chunk tag other than LIST appeared twice, the
	// later occurrence was ignored.
	DiagDuplicateChunk DiagnosticKind = iota + 1
	// DiagTruncated: the source ended before the declared RIFF size.
	DiagTruncated
	// DiagMissingPad: an odd-sized chunk was not followed by its pad byte.
	DiagMissingPad
	// DiagRIFFSize: the declared RIFF size is unusable.
	DiagRIFFSize
	// DiagMisalignedList: a LIST sub-type was read one byte late.
	DiagMisalignedList
	// DiagUnknownList: a LIST sub-type that isn't decoded.
	DiagUnknownList
	// DiagMissingFact: compressed audio without a fact chunk.
	DiagMissingFact
	// DiagValidBits: an out of range valid-bits-per-sample value.
	DiagValidBits
	// DiagReadAdjusted: a read request was resized to whole blocks.
	DiagReadAdjusted
	// DiagMalformedChunk: a metadata chunk couldn't be fully decoded.
	DiagMalformedChunk
	// DiagFormat: a suspicious but usable format descriptor.
	DiagFormat
)

var diagnosticKindNames = map[DiagnosticKind]string{
	DiagDuplicateChunk: "duplicate chunk",
	DiagTruncated:      "truncated",
	DiagMissingPad:     "missing pad byte",
	DiagRIFFSize:       "riff size",
	DiagMisalignedList: "misaligned list",
	DiagUnknownList:    "unknown list type",
	DiagMissingFact:    "missing fact chunk",
	DiagValidBits:      "valid bits",
	DiagReadAdjusted:   "read adjusted",
	DiagMalformedChunk: "malformed chunk",
	DiagFormat:         "format",
}

func (k DiagnosticKind) String() string {
	if name, ok := diagnosticKindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("diagnostic(%d)", int(k))
}

// Diagnostic is a recoverable condition recorded instead of an error.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return d.Kind.String() + ": " + d.Message
}

// diagnostics is an ordered log of recoverable conditions.
type diagnostics []Diagnostic

func (l *diagnostics) addf(kind DiagnosticKind, format string, args ...any) {
	*l = append(*l, Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (l diagnostics) has(kind DiagnosticKind) bool {
	for _, d := range l {
		if d.Kind == kind {
			return true
		}
	}

	return false
}

func (l diagnostics) clone() []Diagnostic {
	if len(l) == 0 {
		return nil
	}

	return append([]Diagnostic(nil), l...)
}
