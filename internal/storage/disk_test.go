package storage_test

import (
	"io"
	"strings"
	"testing"

	"github.com/nexushq/nexus/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestDiskSaveAndOpen(t *testing.T) {
	t.Parallel()

	d, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	name, err := d.Save(strings.NewReader("payload"), ".png")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(name, ".png"))

	f, err := d.Open(name)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestDiskOpenRejectsTraversal(t *testing.T) {
	t.Parallel()

	d, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../secret", "a/b.png", "..", ".hidden"} {
		_, err := d.Open(name)
		require.ErrorIs(t, err, storage.ErrNotFound, name)
	}
}

func TestDiskSanitizesExtension(t *testing.T) {
	t.Parallel()

	d, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	name, err := d.Save(strings.NewReader("x"), "../../etc/passwd")
	require.NoError(t, err)
	require.NotContains(t, name, "/")
	require.NotContains(t, name, "..")
}
