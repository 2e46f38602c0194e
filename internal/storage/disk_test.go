package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")

	s, err := NewDiskStore(dir)
	require.NoError(t, err)

	n, err := s.Save(ctx, "a.csv", strings.NewReader("h1,h2\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	rc, err := s.Open(ctx, "a.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "h1,h2\n1,2\n", string(data))

	require.NoError(t, s.Delete(ctx, "a.csv"))
	_, err = os.Stat(filepath.Join(dir, "a.csv"))
	assert.True(t, os.IsNotExist(err))

	_, err = s.Open(ctx, "a.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "a.csv"))
}

func TestDiskStore_SaveExisting(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(ctx, "a.csv", strings.NewReader("x"))
	require.NoError(t, err)

	_, err = s.Save(ctx, "a.csv", strings.NewReader("y"))
	assert.Error(t, err)
}

func TestDiskStore_InvalidNames(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../escape.csv", "sub/a.csv", ".hidden"} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(ctx, name, strings.NewReader("x"))
			assert.Error(t, err)
			_, err = s.Open(ctx, name)
			assert.Error(t, err)
			assert.Error(t, s.Delete(ctx, name))
		})
	}
}

func TestDiskStore_SaveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)

	_, err = s.Save(ctx, "a.csv", strings.NewReader("x"))
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "a.csv"))
	assert.True(t, os.IsNotExist(err))
}
