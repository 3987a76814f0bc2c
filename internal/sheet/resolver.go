package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/dygy/scorepipe/internal/errors"
)

// SupportedExts are the input extensions recognised when scanning a
// directory. The check is case-insensitive.
var SupportedExts = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

// Resolve returns the input files for a path. A directory yields its
// immediate children with a supported extension, in lexicographic order.
// A single file is returned unconditionally; the extension filter applies
// only to directory mode.
func Resolve(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	// os.ReadDir sorts by name, so batch order is stable across runs.
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if SupportedExts[ext] {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}

	return files, nil
}

// Stem returns the file name without its extension, the naming key that
// links an input to its derived artifacts.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Format represents a detected input file format
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatTIFF    Format = "tiff"
	FormatUnknown Format = "unknown"
)

// DetectFormat checks file magic bytes to determine the input format.
// Used for diagnostics only; it never filters single-file inputs.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	header := make([]byte, 8)
	n, err := f.Read(header)
	if err != nil || n < 4 {
		return FormatUnknown, fmt.Errorf("%w: could not read file header", apperrors.ErrUnsupportedFormat)
	}

	switch {
	case string(header[:4]) == "%PDF":
		return FormatPDF, nil
	case n >= 8 && string(header[:8]) == "\x89PNG\r\n\x1a\n":
		return FormatPNG, nil
	case header[0] == 0xFF && header[1] == 0xD8:
		return FormatJPEG, nil
	case string(header[:4]) == "II*\x00" || string(header[:4]) == "MM\x00*":
		return FormatTIFF, nil
	}

	return FormatUnknown, nil
}
