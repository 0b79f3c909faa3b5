// SPDX-License-Identifier: EPL-2.0

// Command squarew converts audio files to square-wave WAVs.
//
// Usage:
//
//	squarew [flags] input...
//
// Each input is written to <out>/<name>_square_wave.wav. With -zip the
// outputs are also bundled into one archive.
//
// Examples:
//
//	squarew song.mp3
//	squarew -mode threshold -threshold 0.2 -out converted *.mp3
//	squarew -lowpass -cutoff 2000 -zip square_wave_files.zip a.flac b.ogg
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tucommenceapousser/squarew"
	"github.com/tucommenceapousser/squarew/audio"
	"github.com/tucommenceapousser/squarew/formats/wav"
	"github.com/tucommenceapousser/squarew/internal/archive"
	"github.com/tucommenceapousser/squarew/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("squarew", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg.RegisterConversionFlags(fs)
	outDir := fs.String("out", ".", "output directory")
	zipPath := fs.String("zip", "", "also bundle every output into this ZIP file")
	list := fs.Bool("formats", false, "list supported input formats and exit")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: squarew [flags] input...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	registry := squarew.NewRegistry()

	if *list {
		for _, f := range registry.Formats() {
			fmt.Fprintln(stdout, f)
		}
		return 0
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	opts := cfg.Options()
	if err := opts.Validate(); err != nil {
		fmt.Fprintf(stderr, "squarew: %v\n", err)
		return 2
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(stderr, "squarew: %v\n", err)
		return 1
	}

	var outputs []string
	failed := 0
	for _, in := range fs.Args() {
		out := filepath.Join(*outDir, squarew.OutputName(in))
		if err := convertFile(registry, in, out, opts); err != nil {
			fmt.Fprintf(stderr, "squarew: %s: %v\n", in, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "%s -> %s\n", in, out)
		outputs = append(outputs, out)
	}

	if *zipPath != "" && len(outputs) > 0 {
		n, err := writeZip(*zipPath, outputs)
		if err != nil {
			fmt.Fprintf(stderr, "squarew: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "%d file(s) -> %s\n", n, *zipPath)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

func convertFile(registry *audio.Registry, in, out string, opts squarew.Options) error {
	dec, err := registry.ForFile(in)
	if err != nil {
		return err
	}

	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	defer src.Close()

	pcm, rate, err := squarew.SquareWave16(src, opts)
	if err != nil {
		return err
	}

	return wav.WriteFile(out, rate, pcm)
}

// writeZip stores files in a new archive at path and reports how many
// entries it wrote.
func writeZip(path string, files []string) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	zw := archive.NewWriter(f)
	for _, name := range files {
		if err := addFile(zw, name); err != nil {
			return zw.Len(), err
		}
	}
	return zw.Len(), zw.Close()
}

func addFile(zw *archive.Writer, name string) error {
	src, err := os.Open(name)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(filepath.Base(name))
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
