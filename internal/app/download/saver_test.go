package download

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "aitranscribe/internal/app/errors"
)

func TestFileSaver_Save(t *testing.T) {
	dir := t.TempDir()
	saver := NewFileSaver(dir)

	path, err := saver.Save(DefaultFilename, []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transcription.txt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
}

func TestFileSaver_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	saver := NewFileSaver(dir)

	first, err := saver.Save(DefaultFilename, []byte("first"))
	require.NoError(t, err)
	second, err := saver.Save(DefaultFilename, []byte("second"))
	require.NoError(t, err)
	third, err := saver.Save(DefaultFilename, []byte("third"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "transcription.txt"), first)
	assert.Equal(t, filepath.Join(dir, "transcription (1).txt"), second)
	assert.Equal(t, filepath.Join(dir, "transcription (2).txt"), third)

	content, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))
}

func TestFileSaver_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	saver := NewFileSaver(dir)

	path, err := saver.Save("../../etc/transcription.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transcription.txt"), path)
}

func TestFileSaver_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	saver := NewFileSaver(dir)

	path, err := saver.Save(DefaultFilename, []byte{})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestFileSaver_WriteFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0644))

	saver := NewFileSaver(filepath.Join(blocker, "out"))
	_, err := saver.Save(DefaultFilename, []byte("data"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrFileWriteFailed))
}

func TestCandidateName(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want string
	}{
		{"transcription.txt", 0, "transcription.txt"},
		{"transcription.txt", 1, "transcription (1).txt"},
		{"noext", 3, "noext (3)"},
		{"archive.tar.gz", 2, "archive.tar (2).gz"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, candidateName(tt.name, tt.n))
	}
}

func TestMemorySaver(t *testing.T) {
	saver := NewMemorySaver()
	data := []byte("abc")

	name, err := saver.Save(DefaultFilename, data)
	require.NoError(t, err)
	assert.Equal(t, DefaultFilename, name)

	data[0] = 'z'
	downloads := saver.Downloads()
	require.Len(t, downloads, 1)
	assert.Equal(t, "abc", string(downloads[0].Data))
}
