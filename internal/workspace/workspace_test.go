package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndCleanup(t *testing.T) {
	ws, err := Create()
	require.NoError(t, err)

	info, err := os.Stat(ws.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.Equal(t, filepath.Join(ws.Dir, "input.pdf"), ws.InputPath(".pdf"))
	assert.Equal(t, filepath.Join(ws.Dir, "out"), ws.OutputDir())

	require.NoError(t, os.WriteFile(ws.InputPath(".pdf"), []byte("x"), 0644))
	require.NoError(t, ws.Cleanup())

	_, err = os.Stat(ws.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestWorkspacesAreIsolated(t *testing.T) {
	a, err := Create()
	require.NoError(t, err)
	defer a.Cleanup()

	b, err := Create()
	require.NoError(t, err)
	defer b.Cleanup()

	assert.NotEqual(t, a.Dir, b.Dir)
}
