package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dygy/scorepipe/internal/errors"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestResolveDirectory(t *testing.T) {
	dir := t.TempDir()

	touch(t, filepath.Join(dir, "b.pdf"))
	touch(t, filepath.Join(dir, "a.PNG")) // extension check is case-insensitive
	touch(t, filepath.Join(dir, "c.jpeg"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "noext"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0755)) // subdirs excluded
	touch(t, filepath.Join(dir, "nested.pdf", "inner.pdf"))

	files, err := Resolve(dir)
	require.NoError(t, err)

	// Immediate children only, supported extensions only, sorted by name.
	assert.Equal(t, []string{
		filepath.Join(dir, "a.PNG"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "c.jpeg"),
	}, files)
}

func TestResolveSingleFile(t *testing.T) {
	dir := t.TempDir()

	// Single-file mode has no extension filter.
	path := filepath.Join(dir, "score.weird")
	touch(t, path)

	files, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestResolveMissingPath(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "absent.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFileNotFound))
}

func TestResolveEmptyDirectory(t *testing.T) {
	files, err := Resolve(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestStem(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"sonata.pdf", "sonata"},
		{"/in/sonata.mvt1.xml", "sonata.mvt1"},
		{"noext", "noext"},
		{"dir/score.MXL", "score"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Stem(tt.path), "Stem(%q)", tt.path)
	}
}

func TestDetectFormat(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		return path
	}

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"doc.pdf", []byte("%PDF-1.4 rest of file"), FormatPDF},
		{"img.png", []byte("\x89PNG\r\n\x1a\nrest"), FormatPNG},
		{"img.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, FormatJPEG},
		{"img.tif", append([]byte("II*\x00"), make([]byte, 8)...), FormatTIFF},
		{"img2.tif", append([]byte("MM\x00*"), make([]byte, 8)...), FormatTIFF},
		{"who.bin", []byte("plain text file here"), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := DetectFormat(write(tt.name, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, format)
		})
	}
}
