package kv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settings struct {
	Theme string `json:"theme"`
}

func TestGetOrDefault(t *testing.T) {
	for name, g := range map[string]Gateway{"memory": NewMemory(), "file": mustOpen(t)} {
		t.Run(name, func(t *testing.T) {
			def := settings{Theme: "light"}
			assert.Equal(t, def, GetOr(g, "settings", def))

			require.NoError(t, g.Set("settings", settings{Theme: "dark"}))
			assert.Equal(t, "dark", GetOr(g, "settings", def).Theme)

			require.NoError(t, g.Set("settings", "not an object"))
			assert.Equal(t, def, GetOr(g, "settings", def), "undecodable value falls back")
		})
	}
}

func TestFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	fs, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, fs.Set("tests", []string{"a", "b"}))

	again, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, GetOr(again, "tests", []string{}))
}

func TestCorruptFileMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	fs, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0, GetOr(fs, "n", 0))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var aside bool
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "data.json.corrupt-") {
			aside = true
		}
	}
	assert.True(t, aside, "original file kept for recovery")

	require.NoError(t, fs.Set("n", 3))
	again, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, GetOr(again, "n", 0))
}

func TestUnreadableValueKeptBeforeOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tests": {"id": "t1"}, "n": 3}`), 0o644))

	fs, err := OpenFile(path)
	require.NoError(t, err)
	assert.Empty(t, GetOr(fs, "tests", []string{}))

	matches, err := filepath.Glob(path + ".tests.corrupt-*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	kept, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": "t1"}`, string(kept))

	require.NoError(t, fs.Set("tests", []string{"fresh"}))
	again, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, GetOr(again, "tests", []string{}))
	assert.Equal(t, 3, GetOr(again, "n", 0), "other keys untouched")
}

func TestOpenFileEmptyPath(t *testing.T) {
	_, err := OpenFile("")
	assert.Error(t, err)
}

func mustOpen(t *testing.T) *FileStore {
	t.Helper()
	fs, err := OpenFile(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)
	return fs
}
