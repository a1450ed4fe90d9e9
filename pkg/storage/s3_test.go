package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSupportFileType(t *testing.T) {
	assert.True(t, ValidateSupportFileType("application/pdf", "slides.pdf"))
	assert.True(t, ValidateSupportFileType("", "notes.DOCX"))
	assert.True(t, ValidateSupportFileType("video/mp4", "replay"))
	assert.False(t, ValidateSupportFileType("application/zip", "archive.zip"))
	assert.False(t, ValidateSupportFileType("", "script.sh"))
	assert.False(t, ValidateSupportFileType("", ""))
}

func TestSupportKey(t *testing.T) {
	key := SupportKey("11111111-2222-3333-4444-555555555555", "aaaa", "Slides Finales.PDF")
	assert.Equal(t, "supports/11111111-2222-3333-4444-555555555555/aaaa.pdf", key)

	// supports without a webinar land in the shared library prefix
	key = SupportKey("", "bbbb", "guide.docx")
	assert.Equal(t, "supports/library/bbbb.docx", key)
}
