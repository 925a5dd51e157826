// Package riffwave reads and writes RIFF/WAVE containers.
//
// A Reader indexes the chunks of a file once, decodes the fmt chunk into a
// FormatDescriptor and exposes the data chunk as a bounded, seekable byte
// stream. Known metadata chunks (LIST/INFO, DISP, PEAK, bext, cart) are
// decoded into typed records at open time; every other chunk is kept as raw
// bytes keyed by its tag.
//
// Compressed formats (ADPCM, MP3, GSM, ...) are identified but never
// decoded: their sample data is returned as-is.
//
// Problems that do not prevent reading, such as duplicated chunks, missing
// padding or a missing fact chunk, are collected as Diagnostics instead of
// being returned as errors:
//
//	r, err := riffwave.Open("take.wav")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	for _, d := range r.Diagnostics() {
//		log.Println(d)
//	}
//
// A Writer produces canonical 44-byte-header files and keeps the RIFF and
// data sizes up to date after every write.
package riffwave
