package storage_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/pkg/storage"
)

func TestLocal_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	d := storage.NewLocal(t.TempDir())

	require.NoError(t, d.Put(ctx, "sheets/front.pdf", strings.NewReader("%PDF")))
	assert.True(t, d.Exists(ctx, "sheets/front.pdf"))
	assert.False(t, d.Exists(ctx, "sheets"))

	rc, err := d.Open(ctx, "sheets/front.pdf")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF", string(b))

	files, err := d.Files(ctx, "sheets")
	require.NoError(t, err)
	assert.Equal(t, []string{"sheets/front.pdf"}, files)

	require.NoError(t, d.Delete(ctx, "sheets/front.pdf"))
	require.NoError(t, d.Delete(ctx, "sheets/front.pdf"))

	_, err = d.Open(ctx, "sheets/front.pdf")
	assert.ErrorIs(t, err, storage.ErrNotExist)
}

func TestLocal_AbsolutePathsBypassRoot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere.txt")

	d := storage.NewLocal(t.TempDir())
	require.NoError(t, d.Put(ctx, abs, strings.NewReader("x")))
	assert.True(t, storage.NewLocal(dir).Exists(ctx, "elsewhere.txt"))
}

func TestManager_UseAndRegister(t *testing.T) {
	d := storage.NewLocal(t.TempDir())
	storage.RegisterDisk("scratch", d)

	got, err := storage.Use("scratch")
	require.NoError(t, err)
	assert.Equal(t, "local", got.Name())
	assert.Contains(t, storage.Names(), "scratch")

	_, err = storage.Use("nope")
	assert.Error(t, err)
}
