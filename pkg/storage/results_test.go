package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeResult(t *testing.T, path string, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	writeResult(t, filepath.Join(dir, "videos", "abc", "1.json"),
		`{"views": 1000, "transcript": "hello world"}`)
	writeResult(t, filepath.Join(dir, "videos", "abc", "2.json"),
		`{"views": 500, "transcript": ""}`)
	writeResult(t, filepath.Join(dir, "problems", "devforum", "3.json"),
		`{"source": "devforum", "views": 20}`)
	writeResult(t, filepath.Join(dir, "problems", "reddit", "4.json"),
		`{"source": "reddit"}`)
	writeResult(t, filepath.Join(dir, "problems", "reddit", "broken.json"), `{not json`)
	writeResult(t, filepath.Join(dir, "notes.txt"), "ignored")

	summary, err := Summarize(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalFiles)
	assert.Equal(t, 1, summary.WithTranscript)
	assert.Equal(t, int64(1520), summary.TotalViews)
	assert.Equal(t, 1, summary.BySource["devforum"])
	assert.Equal(t, 1, summary.BySource["reddit"])
	assert.Equal(t, 2, summary.BySource["abc"])
}

func TestSummarizeEmptyDir(t *testing.T) {
	summary, err := Summarize(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalFiles)
}
