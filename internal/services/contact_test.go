package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alfredoptarigan/resume-ats/internal/models"
)

func TestExtractContactInfo_SingleEmailAndPhone(t *testing.T) {
	phones := []string{"(555) 123-4567", "555-123-4567", "555.123.4567", "+1 555 123 4567", "5551234567"}

	for _, phone := range phones {
		t.Run(phone, func(t *testing.T) {
			text := "Jane Doe\nReach me at jane.doe@example.com or " + phone + " any time."
			info := ExtractContactInfoFromText(text)

			assert.Equal(t, []string{"jane.doe@example.com"}, info.Emails)
			assert.Equal(t, []string{phone}, info.Phones)
		})
	}
}

func TestExtractContactInfo_Entities(t *testing.T) {
	text := "Jane Doe\n" +
		"Senior Software Engineer\n" +
		"JANE@EXAMPLE.COM, jane@example.com\n" +
		"Portfolio: https://jane.dev/work, https://github.com/janedoe.\n" +
		"https://www.LinkedIn.com/in/Jane-Doe\n" +
		"Experience\n" +
		"Worked With Bob Smith at Acme"

	info := ExtractContactInfoFromText(text)

	assert.Equal(t, []string{"JANE@EXAMPLE.COM", "jane@example.com"}, info.Emails)
	assert.Equal(t, []string{
		"https://github.com/janedoe",
		"https://jane.dev/work",
		"https://www.LinkedIn.com/in/Jane-Doe",
	}, info.URLs)
	assert.Equal(t, []string{"linkedin.com/in/jane-doe"}, info.LinkedIn)
	assert.Equal(t, []string{"Jane Doe", "Senior Software Engineer"}, info.NameCandidates,
		"only the first five lines are scanned")
	assert.Empty(t, info.Phones)
}

func TestExtractContactInfo_Empty(t *testing.T) {
	for _, info := range []models.ContactInfo{
		ExtractContactInfoFromText(""),
		ExtractContactInfo(nil),
	} {
		assert.NotNil(t, info.Emails)
		assert.NotNil(t, info.Phones)
		assert.NotNil(t, info.URLs)
		assert.NotNil(t, info.LinkedIn)
		assert.NotNil(t, info.NameCandidates)
		assert.Empty(t, info.Emails)
		assert.Empty(t, info.NameCandidates)
	}
}

func TestExtractContactInfo_UsesNormalizedText(t *testing.T) {
	doc := &models.ParsedDocument{
		RawText:        "Jane Doe Line Two Line Three",
		NormalizedText: "Jane Doe\nline two\nline three",
	}

	info := ExtractContactInfo(doc)
	assert.Equal(t, []string{"Jane Doe"}, info.NameCandidates)
}

func TestExtractContactInfo_Deterministic(t *testing.T) {
	text := "Bob Smith\nAlice Jones\nbob@example.com alice@example.com 555-000-1111 555-222-3333"

	first := ExtractContactInfoFromText(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ExtractContactInfoFromText(text))
	}
	assert.Equal(t, []string{"Alice Jones", "Bob Smith"}, first.NameCandidates)
	assert.Equal(t, []string{"555-000-1111", "555-222-3333"}, first.Phones)
}
