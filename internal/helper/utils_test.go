package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkUUID_Stable(t *testing.T) {
	a := ChunkUUID("guide.pdf", 2, 1)
	require.Equal(t, a, ChunkUUID("guide.pdf", 2, 1))
	require.NotEqual(t, a, ChunkUUID("guide.pdf", 2, 2))
	require.NotEqual(t, a, ChunkUUID("other.pdf", 2, 1))
}

func TestGenerateUUID_Unique(t *testing.T) {
	a, err := GenerateUUID()
	require.NoError(t, err)
	b, err := GenerateUUID()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestCreateFolderAndFileExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateFolder(dir))
	require.False(t, FileExists(dir))

	file := filepath.Join(dir, "x.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.True(t, FileExists(file))
	require.False(t, FileExists(filepath.Join(dir, "missing")))
}
