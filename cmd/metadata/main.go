// This tool prints the stream properties, metadata and diagnostics of the
// passed wav file.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/cwbudde/riffwave"
)

const missingPathMessage = "You must pass the path of the file to inspect"

func main() {
	err := run(os.Args[1:], os.Stdout)
	if err == nil {
		return
	}

	if errors.Is(err, errMissingPath) {
		fmt.Println(missingPathMessage)
		os.Exit(1)
	}

	log.Fatal(err)
}

var errMissingPath = errors.New("missing path argument")

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		return errMissingPath
	}

	r, err := riffwave.Open(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	printProperties(out, r)

	md := r.Metadata()
	if len(md) == 0 {
		fmt.Fprintln(out, "No metadata present")
	} else {
		printMetadata(out, md)
	}

	diags := r.Diagnostics()
	if len(diags) > 0 {
		fmt.Fprintln(out, "Diagnostics:")

		for _, d := range diags {
			fmt.Fprintf(out, "\t%s\n", d)
		}
	}

	return nil
}

func printProperties(out io.Writer, r *riffwave.Reader) {
	f := r.FormatDescriptor()

	fmt.Fprintf(out, "Format: %s (0x%04X)\n", riffwave.FormatName(r.FormatTag()), r.FormatTag())
	fmt.Fprintf(out, "Layout: %s\n", f.Layout)
	fmt.Fprintf(out, "Channels: %d\n", r.Channels())
	fmt.Fprintf(out, "SampleRate: %d\n", r.SampleRate())
	fmt.Fprintf(out, "BitsPerSample: %d\n", r.BitsPerSample())
	fmt.Fprintf(out, "BlockAlign: %d\n", r.BlockAlign())
	fmt.Fprintf(out, "BitRate: %d\n", r.BitRate())
	fmt.Fprintf(out, "Compressed: %t\n", r.Compressed())

	if f.Layout == riffwave.LayoutExtensible {
		fmt.Fprintf(out, "SubFormat: %s\n", f.SubFormatString())
		fmt.Fprintf(out, "ChannelMask: 0x%X\n", f.ChannelMask)
	}

	if n, ok := r.FactSamples(); ok {
		fmt.Fprintf(out, "FactSamples: %d\n", n)
	}

	fmt.Fprintf(out, "Samples: %d\n", r.Samples())
	fmt.Fprintf(out, "Duration: %s\n", r.Duration())
	fmt.Fprintf(out, "Data: %d bytes at %d\n", r.DataLength(), r.DataStart())
}

func printMetadata(out io.Writer, md riffwave.Metadata) {
	if info := md.Info(); info != nil {
		for _, tag := range info.Keys() {
			fmt.Fprintf(out, "%s: %s\n", riffwave.InfoFieldName(tag), info[tag])
		}
	}

	if disp := md.Display(); disp != nil {
		if disp.Type == riffwave.DisplayText {
			fmt.Fprintf(out, "Display: %s\n", disp.Text)
		} else {
			fmt.Fprintf(out, "Display: type %d, %d bytes\n", disp.Type, len(disp.Data))
		}
	}

	if peak := md.Peak(); peak != nil {
		for i, p := range peak.Channels {
			fmt.Fprintf(out, "\tpeak [%d]:\t%.4f at %d\n", i, p.Value, p.Position)
		}
	}

	if bext := md.BroadcastExtension(); bext != nil {
		fmt.Fprintln(out, "Broadcast Extension:")
		fmt.Fprintf(out, "\tDescription: %s\n", bext.Description)
		fmt.Fprintf(out, "\tOriginator: %s\n", bext.Originator)
		fmt.Fprintf(out, "\tOrigination: %s %s\n", bext.OriginationDate, bext.OriginationTime)
		fmt.Fprintf(out, "\tTimeReference: %d\n", bext.TimeReference)
		fmt.Fprintf(out, "\tCodingHistory: %s\n", bext.CodingHistory)
	}

	if cart := md.Cart(); cart != nil {
		fmt.Fprintln(out, "Cart:")
		fmt.Fprintf(out, "\tTitle: %s\n", cart.Title)
		fmt.Fprintf(out, "\tArtist: %s\n", cart.Artist)
		fmt.Fprintf(out, "\tCutID: %s\n", cart.CutID)
		fmt.Fprintf(out, "\tURL: %s\n", cart.URL)
	}

	var raw []string

	for tag, rec := range md {
		if _, ok := rec.(*riffwave.RawChunk); ok {
			raw = append(raw, tag)
		}
	}

	sort.Strings(raw)

	for _, tag := range raw {
		fmt.Fprintf(out, "Chunk %q: %d bytes\n", tag, len(md.Raw(tag).Data))
	}
}
