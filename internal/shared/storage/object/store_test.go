package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentType(t *testing.T) {
	assert.Equal(t, docxContentType, ContentType("Acme Resume.DOCX"))
	assert.Equal(t, "application/pdf", ContentType("Acme Resume.pdf"))
	assert.Equal(t, "application/octet-stream", ContentType("noext"))
}
