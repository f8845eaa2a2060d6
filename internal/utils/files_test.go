package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeWriteFileReplaces(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.json")
	require.NoError(t, SafeWriteFile(p, []byte("one")))
	require.NoError(t, SafeWriteFile(p, []byte("two")))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "two", string(b))
	assert.False(t, FileExists(p+".tmp"))
	assert.True(t, FileExists(p))
	assert.False(t, FileExists(dir))
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"rows": 3})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"rows\": 3\n}", string(b))

	_, err = PrettyJSON(func() {})
	assert.Error(t, err)
}

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{"ev_clean.csv": true, "ev_clean-2.csv": true}
	assert.Equal(t, "cars_clean.csv", UniqueName("cars_clean.csv", taken))
	assert.Equal(t, "ev_clean-3.csv", UniqueName("ev_clean.csv", taken))
	assert.Equal(t, "notes-2", UniqueName("notes", map[string]bool{"notes": true}))
}
