package services

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"alfredoptarigan/resume-ats/internal/models"
)

// DefaultMaxFileSize is used when the extractor is built with a non-positive ceiling.
const DefaultMaxFileSize int64 = 10 << 20

// maxNoiseRatio is the share of control runes above which a decoded text file
// is treated as binary.
const maxNoiseRatio = 0.10

type DocumentExtractor interface {
	Extract(data []byte, fileName string) (*models.ParsedDocument, error)
	ExtractFile(filePath string) (*models.ParsedDocument, error)
	MaxFileSize() int64
}

type documentExtractor struct {
	maxFileSize int64
}

func NewDocumentExtractor(maxFileSize int64) DocumentExtractor {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &documentExtractor{maxFileSize: maxFileSize}
}

func (e *documentExtractor) MaxFileSize() int64 {
	return e.maxFileSize
}

// FileTypeFromName maps a file name to a supported type using its extension.
func FileTypeFromName(fileName string) (models.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	switch models.FileType(ext) {
	case models.FileTypePDF, models.FileTypeDOCX, models.FileTypeTXT:
		return models.FileType(ext), nil
	}
	if ext == "" {
		return "", fmt.Errorf("%w: file has no extension", ErrUnsupportedFormat)
	}
	return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
}

// ExtractFile implements DocumentExtractor.
func (e *documentExtractor) ExtractFile(filePath string) (*models.ParsedDocument, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if _, err := FileTypeFromName(filePath); err != nil {
		return nil, err
	}
	if info.Size() > e.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, info.Size(), e.maxFileSize)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return e.Extract(data, filepath.Base(filePath))
}

// Extract implements DocumentExtractor.
func (e *documentExtractor) Extract(data []byte, fileName string) (*models.ParsedDocument, error) {
	fileType, err := FileTypeFromName(fileName)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > e.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), e.maxFileSize)
	}

	doc := &models.ParsedDocument{
		FileName: fileName,
		FileType: fileType,
		FileSize: int64(len(data)),
	}

	var text string
	switch fileType {
	case models.FileTypePDF:
		text, err = extractPDF(data, doc)
	case models.FileTypeDOCX:
		text, err = extractDOCX(data, doc)
	case models.FileTypeTXT:
		text, err = extractTXT(data, doc)
	}
	if err != nil {
		return nil, err
	}

	doc.NormalizedText = CleanText(stripControl(text))
	doc.RawText = strings.Join(strings.Fields(doc.NormalizedText), " ")
	if doc.RawText == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyExtraction, fileName)
	}

	doc.WordCount = len(strings.Fields(doc.RawText))
	doc.CharCount = utf8.RuneCountInString(doc.RawText)
	if doc.FileType == models.FileTypeTXT {
		doc.PageOrParagraphCount = countNonEmptyLines(doc.NormalizedText)
	}

	return doc, nil
}

func extractPDF(data []byte, doc *models.ParsedDocument) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed PDF: %v", ErrEmptyExtraction, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open PDF: %w", ErrEmptyExtraction, err)
	}

	totalPage := r.NumPage()
	doc.PageOrParagraphCount = totalPage
	doc.Pages = make([]string, 0, totalPage)

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)

		var pageText string
		if !page.V.IsNull() {
			// A failing page is recorded as empty, not fatal.
			if t, err := page.GetPlainText(nil); err == nil {
				pageText = CleanText(stripControl(t))
			}
		}

		if pageText == "" {
			doc.EmptyPages = append(doc.EmptyPages, pageIndex)
		}
		doc.Pages = append(doc.Pages, pageText)
	}

	return strings.Join(doc.Pages, "\n\n"), nil
}

func extractDOCX(data []byte, doc *models.ParsedDocument) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open DOCX: %w", ErrEmptyExtraction, err)
	}
	defer r.Close()

	paragraphs, rows, err := parseDocumentXML(r.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("%w: failed to read DOCX body: %w", ErrEmptyExtraction, err)
	}

	doc.PageOrParagraphCount = len(paragraphs)
	return strings.Join(append(paragraphs, rows...), "\n"), nil
}

// parseDocumentXML walks word/document.xml and returns the non-empty body
// paragraphs and the table rows, each row flattened to "cell | cell".
func parseDocumentXML(content string) (paragraphs []string, rows []string, err error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		para      strings.Builder
		cell      []string
		row       []string
		inText    bool
		tblDepth  int
		paragraph bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					row = row[:0]
				}
			case "tc":
				if tblDepth == 1 {
					cell = cell[:0]
				}
			case "p":
				paragraph = true
				para.Reset()
			case "t":
				inText = true
			case "tab":
				if paragraph {
					para.WriteByte('\t')
				}
			case "br", "cr":
				if paragraph {
					para.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText && paragraph {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraph = false
				text := strings.TrimSpace(para.String())
				if text == "" {
					continue
				}
				if tblDepth == 0 {
					paragraphs = append(paragraphs, text)
				} else {
					cell = append(cell, text)
				}
			case "tc":
				if tblDepth == 1 && len(cell) > 0 {
					row = append(row, strings.Join(cell, " "))
				}
			case "tr":
				if tblDepth == 1 && len(row) > 0 {
					rows = append(rows, strings.Join(row, " | "))
				}
			case "tbl":
				tblDepth--
			}
		}
	}

	return paragraphs, rows, nil
}

type textEncoding struct {
	name string
	enc  encoding.Encoding
}

// fallbackEncodings are tried in order after UTF-8.
var fallbackEncodings = []textEncoding{
	{name: "latin-1", enc: charmap.ISO8859_1},
	{name: "cp1252", enc: charmap.Windows1252},
}

func extractTXT(data []byte, doc *models.ParsedDocument) (string, error) {
	if utf8.Valid(data) {
		text := strings.TrimPrefix(string(data), "\ufeff")
		if !isBinaryNoise(text) {
			doc.Encoding = "utf-8"
			return text, nil
		}
	}

	for _, te := range fallbackEncodings {
		decoded, err := te.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		text := string(decoded)
		if isBinaryNoise(text) {
			continue
		}
		doc.Encoding = te.name
		return text, nil
	}

	return "", fmt.Errorf("%w: %s", ErrDecode, doc.FileName)
}

func isBinaryNoise(s string) bool {
	var total, noise int
	for _, r := range s {
		total++
		if r == utf8.RuneError || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			noise++
		}
	}
	if total == 0 {
		return false
	}
	return float64(noise)/float64(total) > maxNoiseRatio
}

// stripControl normalizes line endings and drops control characters other
// than newline and tab.
func stripControl(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
}

// CleanText trims every line, collapses inner whitespace runs to one space
// and keeps at most one blank line between blocks.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleanedLines := make([]string, 0, len(lines))

	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(cleanedLines) > 0 {
				cleanedLines = append(cleanedLines, "")
			}
			blank = true
			continue
		}
		blank = false
		cleanedLines = append(cleanedLines, line)
	}

	return strings.TrimSpace(strings.Join(cleanedLines, "\n"))
}

func countNonEmptyLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}
