package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-ats/internal/models"
)

func TestExtract_TXTUTF8(t *testing.T) {
	e := NewDocumentExtractor(0)

	doc, err := e.Extract([]byte("\ufeffJane   Doe\r\nSoftware Engineer\r\n\r\n\r\n\r\nExperience:\tGo\x07 services\n"), "resume.TXT")
	require.NoError(t, err)

	assert.Equal(t, models.FileTypeTXT, doc.FileType)
	assert.Equal(t, "utf-8", doc.Encoding)
	assert.Equal(t, "Jane Doe\nSoftware Engineer\n\nExperience: Go services", doc.NormalizedText)
	assert.Equal(t, "Jane Doe Software Engineer Experience: Go services", doc.RawText)
	assert.Equal(t, 7, doc.WordCount)
	assert.Equal(t, len(doc.RawText), doc.CharCount)
	assert.Equal(t, 3, doc.PageOrParagraphCount)
}

func TestExtract_TXTFallbackEncodings(t *testing.T) {
	e := NewDocumentExtractor(0)

	t.Run("latin-1", func(t *testing.T) {
		doc, err := e.Extract([]byte("Caf\xe9 r\xe9sum\xe9 for Jos\xe9"), "cv.txt")
		require.NoError(t, err)
		assert.Equal(t, "latin-1", doc.Encoding)
		assert.Equal(t, "Café résumé for José", doc.RawText)
	})

	t.Run("cp1252", func(t *testing.T) {
		doc, err := e.Extract([]byte("\x93Led\x94 \x93Built\x94"), "cv.txt")
		require.NoError(t, err)
		assert.Equal(t, "cp1252", doc.Encoding)
		assert.Equal(t, "“Led” “Built”", doc.RawText)
	})

	t.Run("binary", func(t *testing.T) {
		_, err := e.Extract(bytes.Repeat([]byte{0x00, 0x01, 'a'}, 50), "cv.txt")
		assert.ErrorIs(t, err, ErrDecode)
	})
}

func TestExtract_FailsFast(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fileName string
		limit    int64
		wantErr  error
	}{
		{name: "unsupported extension", data: []byte("hello"), fileName: "resume.rtf", wantErr: ErrUnsupportedFormat},
		{name: "missing extension", data: []byte("hello"), fileName: "resume", wantErr: ErrUnsupportedFormat},
		{name: "too large", data: []byte("hello world"), fileName: "resume.txt", limit: 10, wantErr: ErrFileTooLarge},
		{name: "whitespace only", data: []byte("  \n\t \r\n"), fileName: "resume.txt", wantErr: ErrEmptyExtraction},
		{name: "empty file", data: nil, fileName: "resume.txt", wantErr: ErrEmptyExtraction},
		{name: "not a pdf", data: []byte("definitely not a pdf"), fileName: "resume.pdf", wantErr: ErrEmptyExtraction},
		{name: "not a docx", data: []byte("definitely not a zip"), fileName: "resume.docx", wantErr: ErrEmptyExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewDocumentExtractor(tt.limit).Extract(tt.data, tt.fileName)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsExtractionError(err))
		})
	}
}

// buildPDF writes a minimal PDF with one page per entry. Lines of a page are
// separated by "\n"; an empty entry produces a page without content.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	var objects []string
	add := func(body string) int {
		objects = append(objects, body)
		return len(objects)
	}

	catalog := add("")
	pagesObj := add("")
	font := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, text := range pages {
		page := fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >>", pagesObj, font)
		if text != "" {
			var stream strings.Builder
			stream.WriteString("BT /F1 12 Tf 72 720 Td 14 TL")
			for i, line := range strings.Split(text, "\n") {
				if i > 0 {
					stream.WriteString(" T*")
				}
				fmt.Fprintf(&stream, " (%s) Tj", line)
			}
			stream.WriteString(" ET")
			content := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", stream.Len(), stream.String()))
			page += fmt.Sprintf(" /Contents %d 0 R", content)
		}
		kids = append(kids, fmt.Sprintf("%d 0 R", add(page+" >>")))
	}

	objects[catalog-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj)
	objects[pagesObj-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, catalog, xref)
	return buf.Bytes()
}

func TestExtract_PDF(t *testing.T) {
	data := buildPDF(t, "Jane Doe\nSenior Go Engineer", "", "Experience\nBuilt payment APIs")

	doc, err := NewDocumentExtractor(0).Extract(data, "resume.pdf")
	require.NoError(t, err)

	assert.Equal(t, models.FileTypePDF, doc.FileType)
	assert.Equal(t, 3, doc.PageOrParagraphCount)
	assert.Equal(t, []string{"Jane Doe\nSenior Go Engineer", "", "Experience\nBuilt payment APIs"}, doc.Pages)
	assert.Equal(t, []int{2}, doc.EmptyPages)
	assert.Equal(t, "Jane Doe\nSenior Go Engineer\n\nExperience\nBuilt payment APIs", doc.NormalizedText)
	assert.Equal(t, "Jane Doe Senior Go Engineer Experience Built payment APIs", doc.RawText)
	assert.Equal(t, 9, doc.WordCount)
	assert.Equal(t, int64(len(data)), doc.FileSize)
}

func TestExtract_PDFWithoutText(t *testing.T) {
	doc, err := NewDocumentExtractor(0).Extract(buildPDF(t, "", ""), "scan.pdf")

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestExtract_DOCX(t *testing.T) {
	body := `<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Engineer</w:t></w:r></w:p>` +
		`<w:tbl>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Skill</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Level</w:t></w:r></w:p></w:tc></w:tr>` +
		`<w:tr><w:tc><w:p><w:r><w:t>Go</w:t></w:r></w:p></w:tc><w:tc><w:p></w:p></w:tc></w:tr>` +
		`</w:tbl>`

	doc, err := NewDocumentExtractor(0).Extract(buildDocx(t, body), "resume.docx")
	require.NoError(t, err)

	assert.Equal(t, models.FileTypeDOCX, doc.FileType)
	assert.Equal(t, "Jane Doe\nSenior Engineer\nSkill | Level\nGo", doc.NormalizedText)
	assert.Equal(t, 2, doc.PageOrParagraphCount)
	assert.Equal(t, 8, doc.WordCount, "the pipe separator counts as a word")
}

func TestExtract_DOCXEmpty(t *testing.T) {
	_, err := NewDocumentExtractor(0).Extract(buildDocx(t, `<w:p></w:p>`), "resume.docx")
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe\njane@example.com"), 0o644))

	doc, err := NewDocumentExtractor(0).ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "resume.txt", doc.FileName)
	assert.Equal(t, int64(25), doc.FileSize)

	_, err = NewDocumentExtractor(5).ExtractFile(path)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestCleanText(t *testing.T) {
	in := "  first   line \n\n\n\n second\tline\n \n third "
	assert.Equal(t, "first line\n\nsecond line\n\nthird", CleanText(in))
	assert.Equal(t, "", CleanText(" \n \n"))
}

func TestFileTypeFromName(t *testing.T) {
	ft, err := FileTypeFromName("My.Resume.PDF")
	require.NoError(t, err)
	assert.Equal(t, models.FileTypePDF, ft)

	_, err = FileTypeFromName("resume.doc")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// buildDocx assembles the smallest archive the DOCX reader accepts.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	contentTypes := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`
	rels := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`
	document := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`

	files := []struct{ name, content string }{
		{"[Content_Types].xml", contentTypes},
		{"word/_rels/document.xml.rels", rels},
		{"word/document.xml", document},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestIsBinaryNoise(t *testing.T) {
	assert.False(t, isBinaryNoise("plain text\twith tabs\nand newlines"))
	assert.True(t, isBinaryNoise(strings.Repeat("\x00\x01a", 10)))
	assert.False(t, isBinaryNoise(""))
}
