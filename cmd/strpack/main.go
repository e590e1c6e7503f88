// strpack - printable value codec CLI tool
//
// Usage:
//
//	strpack encode [--compress] [file]   Convert JSON to a serialized string
//	strpack decode [--indent] [file]     Convert a serialized string to JSON
//	strpack check [file]                 Report whether the input is a serialized string
//	strpack stats [file]                 Compare compression codecs on the serialized input
//	strpack version                      Print version info
//
// The input of stats may be JSON or a serialized string. If no file is
// given, reads from stdin.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/strpack"
	"github.com/arloliu/strpack/compress"
	"github.com/arloliu/strpack/format"
	"github.com/arloliu/strpack/internal/jsonval"
)

const toolVersion = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 1
	}

	cmd := args[0]
	compressed := false
	indent := false
	verbose := false
	fileArg := ""
	for _, arg := range args[1:] {
		switch arg {
		case "--compress":
			compressed = true
		case "--indent":
			indent = true
		case "--verbose", "-v":
			verbose = true
		default:
			if !strings.HasPrefix(arg, "-") {
				fileArg = arg
			}
		}
	}

	input := stdin
	if fileArg != "" {
		f, err := os.Open(fileArg)
		if err != nil {
			fmt.Fprintf(stderr, "strpack: open file: %v\n", err)
			return 1
		}
		defer f.Close()
		input = f
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	codec, err := strpack.New(strpack.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))))
	if err != nil {
		fmt.Fprintf(stderr, "strpack: %v\n", err)
		return 1
	}
	defer codec.Close()

	switch cmd {
	case "encode":
		err = cmdEncode(codec, input, stdout, compressed)
	case "decode":
		err = cmdDecode(codec, input, stdout, indent)
	case "check":
		err = cmdCheck(input, stdout)
	case "stats":
		err = cmdStats(codec, input, stdout)
	case "version", "--version":
		fmt.Fprintf(stdout, "strpack %s (format %d)\n", toolVersion, format.Version)
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		printUsage(stderr)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stderr, "strpack: %v\n", err)
		return 1
	}

	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: strpack <command> [options] [file]

Commands:
  encode [--compress]   Convert JSON to a serialized string
  decode [--indent]     Convert a serialized string to JSON
  check                 Report whether the input is a serialized string
  stats                 Compare compression codecs on the serialized input
  version               Print version info

Options:
  --verbose, -v         Log worker activity to stderr
`)
}

func readInput(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return data, nil
}

func cmdEncode(codec *strpack.Codec, r io.Reader, w io.Writer, compressed bool) error {
	data, err := readInput(r)
	if err != nil {
		return err
	}

	v, err := jsonval.Decode(data)
	if err != nil {
		return err
	}

	opts := []strpack.CallOption{strpack.InBackground()}
	if compressed {
		opts = append(opts, strpack.WithCompression())
	}
	s, err := codec.SerializeAsync(v, opts...).Wait(context.Background())
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	_, err = fmt.Fprintln(w, s)

	return err
}

func cmdDecode(codec *strpack.Codec, r io.Reader, w io.Writer, indent bool) error {
	data, err := readInput(r)
	if err != nil {
		return err
	}

	v, err := codec.DeserializeAsync(strings.TrimSpace(string(data)), strpack.InBackground()).Wait(context.Background())
	if err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}

	pad := ""
	if indent {
		pad = "  "
	}
	out, err := jsonval.Encode(v, pad)
	if err != nil {
		return fmt.Errorf("convert to JSON: %w", err)
	}

	_, err = fmt.Fprintln(w, string(out))

	return err
}

func cmdCheck(r io.Reader, w io.Writer) error {
	data, err := readInput(r)
	if err != nil {
		return err
	}

	s := strings.TrimSpace(string(data))
	switch {
	case format.IsCompressed(s):
		fmt.Fprintln(w, "compressed")
	case strpack.CanDeserialize(s):
		fmt.Fprintln(w, "plain")
	default:
		return errors.New("input is not a serialized string")
	}

	return nil
}

func cmdStats(codec *strpack.Codec, r io.Reader, w io.Writer) error {
	data, err := readInput(r)
	if err != nil {
		return err
	}

	// Normalize the input to its plain serialized form.
	text := strings.TrimSpace(string(data))
	var v any
	if strpack.CanDeserialize(text) {
		v, err = codec.Deserialize(text)
	} else {
		v, err = jsonval.Decode(data)
	}
	if err != nil {
		return err
	}

	plain, err := codec.Serialize(v)
	if err != nil {
		return err
	}
	packed, err := codec.Serialize(v, strpack.WithCompression())
	if err != nil {
		return err
	}

	stats := make([]compress.CompressionStats, len(compress.BuiltinTypes))
	var g errgroup.Group
	for i, typ := range compress.BuiltinTypes {
		g.Go(func() error {
			c, err := compress.GetCodec(typ)
			if err != nil {
				return err
			}
			stats[i], err = compress.Measure(typ, c, []byte(plain))

			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Plain form:      %d bytes\n", len(plain))
	if format.IsCompressed(packed) {
		fmt.Fprintf(w, "Compressed form: %d bytes (%.1f%% of plain)\n", len(packed), 100*float64(len(packed))/float64(len(plain)))
	} else {
		fmt.Fprintf(w, "Compressed form: rejected, above %.0f%% of plain\n", strpack.CompressionThreshold*100)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-8s %12s %8s %10s %12s %12s\n", "codec", "bytes", "ratio", "savings", "compress", "decompress")
	for _, s := range stats {
		fmt.Fprintf(w, "%-8s %12d %8.3f %9.1f%% %10dns %10dns\n",
			s.Algorithm, s.CompressedSize, s.CompressionRatio(), s.SpaceSavings(),
			s.CompressionTimeNs, s.DecompressionTimeNs)
	}

	return nil
}
