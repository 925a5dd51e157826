// This tool converts an integer PCM wav file into an identical aiff file and
// stores it in the same folder as the source.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/cwbudde/riffwave"
	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

const bufferSize = 1 << 16

var errMissingPath = errors.New("you must set the -path flag")

func main() {
	outPath, err := run(os.Args[1:])
	if err != nil {
		if errors.Is(err, errMissingPath) {
			fmt.Println("You must set the -path flag")
			os.Exit(1)
		}

		log.Fatal(err)
	}

	fmt.Printf("Wav file converted to %s\n", outPath)
}

func run(args []string) (string, error) {
	flagSet := flag.NewFlagSet("wavtoaiff", flag.ContinueOnError)
	flagPath := flagSet.String("path", "", "The path to the wav file to convert to aiff")

	if err := flagSet.Parse(args); err != nil {
		return "", err
	}

	if *flagPath == "" {
		return "", errMissingPath
	}

	sourcePath, err := expandHome(*flagPath)
	if err != nil {
		return "", err
	}

	r, err := riffwave.Open(sourcePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	outPath := sourcePath[:len(sourcePath)-len(filepath.Ext(sourcePath))] + ".aif"

	outFile, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer outFile.Close()

	if err := convert(r, aiff.NewEncoder(outFile, r.SampleRate(), r.BitsPerSample(), r.Channels())); err != nil {
		return "", err
	}

	return outPath, outFile.Close()
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get the user home directory: %w", err)
	}

	return strings.Replace(path, "~", usr.HomeDir, 1), nil
}

func convert(r *riffwave.Reader, encoder *aiff.Encoder) error {
	buf := &audio.IntBuffer{Data: make([]int, bufferSize)}

	for {
		num, err := r.ReadIntBuffer(buf)
		if err != nil {
			return err
		}

		if num == 0 {
			break
		}

		out := &audio.IntBuffer{
			Format:         buf.Format,
			SourceBitDepth: buf.SourceBitDepth,
			Data:           buf.Data[:num],
		}

		if buf.SourceBitDepth == 8 {
			out.Data = toSigned8(out.Data)
		}

		if err := encoder.Write(out); err != nil {
			return err
		}
	}

	return encoder.Close()
}

// toSigned8 maps unsigned 8-bit wav samples to the signed range aiff uses.
func toSigned8(data []int) []int {
	out := make([]int, len(data))
	for i, v := range data {
		out[i] = v - 128
	}

	return out
}
