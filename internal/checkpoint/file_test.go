package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BartekS5/zabbix-audit/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "zabbixaudit"))

	require.NoError(t, s.Save(1234))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, models.Cursor(1234), got)
}

func TestFileStore_SaveOverwritesInFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zabbixaudit")
	s := New(path)

	require.NoError(t, s.Save(987654321))
	require.NoError(t, s.Save(5))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent"))

	got, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, models.Cursor(0), got)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	for _, content := range []string{"abc", "", "-4", "12abc"} {
		path := filepath.Join(t.TempDir(), "zabbixaudit")
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		got, err := New(path).Load()
		assert.ErrorIs(t, err, ErrCorrupt, "content %q", content)
		assert.Equal(t, models.Cursor(0), got)
	}
}

func TestFileStore_LoadToleratesTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zabbixaudit")
	require.NoError(t, os.WriteFile(path, []byte("77\n"), 0644))

	got, err := New(path).Load()
	require.NoError(t, err)
	assert.Equal(t, models.Cursor(77), got)
}

func TestFileStore_LoadDirectoryIsIOError(t *testing.T) {
	dir := t.TempDir()

	got, err := New(dir).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, models.Cursor(0), got)
}

func TestFileStore_SaveIntoMissingDirectoryFails(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing", "zabbixaudit"))
	assert.Error(t, s.Save(1))
}

func TestNew_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultPath, New("").Path())
}
