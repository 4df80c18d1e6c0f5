package ingest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsheet/callsheet/pkg/ingest"
)

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ingest.ValidateContent("INT. OFFICE - DAY"))
	assert.Error(t, ingest.ValidateContent(""))
	assert.Error(t, ingest.ValidateContent("short"))
	// Whitespace does not count toward the minimum.
	assert.Error(t, ingest.ValidateContent("   abc    \n\n\n"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "INT. OFFICE - DAY\nA desk.", ingest.Normalize("\uFEFFINT. OFFICE - DAY\r\nA desk."))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.txt")
	require.NoError(t, os.WriteFile(path, []byte("INT. OFFICE - DAY\r\nA desk."), 0600))

	content, err := ingest.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "INT. OFFICE - DAY\nA desk.", content)
}

func TestReadFileRejectsPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0600))

	_, err := ingest.ReadFile(path)
	require.Error(t, err)
	assert.True(t, ingest.IsUnsupportedFormat(err))
}

func TestReadUpload(t *testing.T) {
	content, err := ingest.ReadUpload("script.fountain", []byte("INT. OFFICE - DAY\nA desk."))
	require.NoError(t, err)
	assert.Equal(t, "INT. OFFICE - DAY\nA desk.", content)

	_, err = ingest.ReadUpload("script.docx", []byte("whatever content here"))
	assert.True(t, ingest.IsUnsupportedFormat(err))

	_, err = ingest.ReadUpload("script.txt", []byte("tiny"))
	assert.True(t, ingest.IsScriptTooShort(err))
}
