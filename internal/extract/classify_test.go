package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/docintake/constants"
)

func TestClassify_Magic(t *testing.T) {
	bmp := make([]byte, 30)
	copy(bmp, "BM")

	tests := []struct {
		name    string
		content []byte
		format  constants.Format
		subtype string
	}{
		{"pdf", []byte("%PDF-1.7\n..."), constants.PDF, ""},
		{"png", []byte("\x89PNG\r\n\x1a\n...."), constants.IMAGE, "png"},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0}, constants.IMAGE, "jpeg"},
		{"gif", []byte("GIF89a...."), constants.IMAGE, "gif"},
		{"tiff", []byte("II*\x00...."), constants.IMAGE, "tiff"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), constants.IMAGE, "webp"},
		{"heic", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00"), constants.IMAGE, "heic"},
		{"bmp", bmp, constants.IMAGE, "bmp"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// a misleading name and hint must not override magic
			cls := Classify("notes.txt", "text/plain", tc.content)
			assert.Equal(t, tc.format, cls.Format)
			assert.Equal(t, tc.subtype, cls.Subtype)
			assert.Equal(t, SourceMagic, cls.Source)
		})
	}
}

func TestClassify_ZipFamilies(t *testing.T) {
	docx := buildDocx(t, "hello")
	assert.Equal(t, constants.DOCX, Classify("upload.bin", "", docx).Format)

	xlsx := buildXlsx(t)
	assert.Equal(t, constants.XLSX, Classify("upload.bin", "", xlsx).Format)

	bundle := buildZip(t, zipEntry{name: "a.txt", body: []byte("x")})
	assert.Equal(t, constants.ZIP, Classify("id.docx", "", bundle).Format)
}

func TestClassify_CorruptZipDefersToDeclaredType(t *testing.T) {
	broken := []byte("PK\x03\x04 not really a zip file")
	assert.Equal(t, constants.DOCX, Classify("id.docx", "", broken).Format)
	assert.Equal(t, constants.ZIP, Classify("id.bin", "", broken).Format)
}

func TestClassify_HintThenExtension(t *testing.T) {
	txt := []byte("Name: John Smith")

	cls := Classify("scan", "image/heic", []byte("????"))
	assert.Equal(t, Classification{Format: constants.IMAGE, Subtype: "heic", Source: SourceHint}, cls)

	cls = Classify("id.pdf", "txt", txt)
	assert.Equal(t, constants.TXT, cls.Format)
	assert.Equal(t, SourceHint, cls.Source)

	cls = Classify("passport.JPG", "", []byte("????"))
	assert.Equal(t, Classification{Format: constants.IMAGE, Subtype: "jpeg", Source: SourceExtension}, cls)

	cls = Classify("notes.txt", "", txt)
	assert.Equal(t, Classification{Format: constants.TXT, Source: SourceExtension}, cls)

	cls = Classify("blob", "application/octet-stream", txt)
	assert.Equal(t, Classification{Format: constants.UNKNOWN, Source: SourceNone}, cls)
}
