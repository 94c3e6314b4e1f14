package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tools")
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "a.py")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "a.py", []byte("first")))
	require.NoError(t, s.Write(ctx, "a.py", []byte("second")))
	require.NoError(t, s.Write(ctx, "a.json", []byte("{}")))

	data, err := s.Read(ctx, "a.py")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	ok, err = s.Exists(ctx, "a.py")
	require.NoError(t, err)
	assert.True(t, ok)

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "a.py"}, names)
	assert.Equal(t, filepath.Join(dir, "a.py"), s.Location("a.py"))
}

func TestLocalStorage_ReadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Read(context.Background(), "nope.py")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorage_StaysInBaseDir(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "tools")
	s, err := NewLocalStorage(base)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "../escape.py", []byte("x")))
	assert.FileExists(t, filepath.Join(base, "escape.py"))
	_, err = os.Stat(filepath.Join(root, "escape.py"))
	assert.True(t, os.IsNotExist(err))
}
