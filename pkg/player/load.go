package player

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents an input file format
type Format string

const (
	FormatMIDI    Format = "midi"
	FormatGzip    Format = "gzip"
	FormatUnknown Format = "unknown"
)

var gzipMagic = []byte{0x1F, 0x8B}

// DetectFormat detects the format of a file based on its extension
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mid", ".midi", ".smf", ".kar":
		return FormatMIDI
	case ".gz":
		return FormatGzip
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects the format from the leading bytes
func DetectFormatFromContent(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte("MThd")):
		return FormatMIDI
	case bytes.HasPrefix(data, gzipMagic):
		return FormatGzip
	default:
		return FormatUnknown
	}
}

// Load reads a file, inflating it if it is gzip compressed
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return Unpack(data)
}

// Read reads everything from r, inflating it if it is gzip compressed
func Read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return Unpack(data)
}

// Unpack returns data unchanged unless it is gzip compressed. Anything else
// is left for the decoder to accept or reject.
func Unpack(data []byte) ([]byte, error) {
	if DetectFormatFromContent(data) != FormatGzip {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to inflate input: %w", err)
	}
	return out, nil
}
