package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/cwbudde/riffwave"
	"github.com/go-audio/audio"
)

const blockFrames = 4096

func main() {
	err := run(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	flagSet := flag.NewFlagSet("gen-sine", flag.ContinueOnError)

	output := flagSet.String("output", "output.wav", "filename to write to")
	frequency := flagSet.Float64("frequency", 440, "frequency in hertz to generate")
	length := flagSet.Float64("length", 5, "length in seconds of output file")
	sampleRate := flagSet.Int("rate", riffwave.DefaultSampleRate, "sample rate in hertz")
	bitDepth := flagSet.Int("bits", riffwave.DefaultBitsPerSample, "bits per sample")
	channels := flagSet.Int("channels", 1, "number of channels, each carrying the same tone")
	useFloat := flagSet.Bool("float", false, "store IEEE float samples instead of integer PCM")

	err := flagSet.Parse(args)
	if err != nil {
		return err
	}

	cfg := riffwave.WriterConfig{
		Channels:      *channels,
		SampleRate:    *sampleRate,
		BitsPerSample: *bitDepth,
		Format:        riffwave.FormatPCM,
	}
	if *useFloat {
		cfg.Format = riffwave.FormatIEEEFloat
	}

	log.Printf("generating a %f sec sine wav at %f hz", *length, *frequency)

	wavOut, err := riffwave.Create(*output, cfg)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", *output, err)
	}

	if err := writeSine(wavOut, *frequency, *length); err != nil {
		_ = wavOut.Close()
		return err
	}

	return wavOut.Close()
}

func writeSine(w *riffwave.Writer, frequency, length float64) error {
	cfg := w.Config()
	rate := float64(cfg.SampleRate)
	numFrames := int(rate * length)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{NumChannels: cfg.Channels, SampleRate: cfg.SampleRate},
		Data:   make([]float32, 0, blockFrames*cfg.Channels),
	}

	for start := 0; start < numFrames; start += blockFrames {
		buf.Data = buf.Data[:0]

		for i := start; i < min(start+blockFrames, numFrames); i++ {
			v := float32(math.Sin(float64(i) / rate * frequency * 2 * math.Pi))
			for range cfg.Channels {
				buf.Data = append(buf.Data, v)
			}
		}

		if err := w.WriteFloatBuffer(buf); err != nil {
			return err
		}
	}

	return nil
}
