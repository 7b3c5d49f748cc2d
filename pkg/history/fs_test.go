package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"apiprobe/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

func (n note) MarshalJSON() ([]byte, error) {
	type Alias note
	return json.Marshal((Alias)(n))
}

func (n *note) UnmarshalJSON(data []byte) error {
	type Alias note
	return json.Unmarshal(data, (*Alias)(n))
}

func TestFileStorage_SaveLoadList(t *testing.T) {
	fs, err := NewFileStorage[*note](t.TempDir())
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, fs.Save("alice", id, &note{Text: "first run", Count: 50}))

	var loaded note
	require.NoError(t, fs.Load("alice", id, &loaded))
	assert.Equal(t, note{Text: "first run", Count: 50}, loaded)

	entries, err := fs.List("alice")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
}

func TestFileStorage_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage[*note](dir)
	require.NoError(t, err)

	require.NoError(t, fs.Save("alice", uuid.NewString(), &note{Text: "seed"}))
	ownerDir := fs.ownerDir("alice")
	require.NoError(t, os.WriteFile(filepath.Join(ownerDir, "README.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(ownerDir, "nested.json"), 0755))

	entries, err := fs.List("alice")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStorage_OwnersAreIsolated(t *testing.T) {
	fs, err := NewFileStorage[*note](t.TempDir())
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, fs.Save("alice", id, &note{Text: "alice's run"}))

	var n note
	err = fs.Load("bob", id, &n)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	entries, err := fs.List("bob")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFileStorage_LoadMissing(t *testing.T) {
	fs, err := NewFileStorage[*note](t.TempDir())
	require.NoError(t, err)

	var n note
	err = fs.Load("alice", uuid.NewString(), &n)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	err = fs.Load("alice", "../../etc/passwd", &n)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
