package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"alfredoptarigan/resume-ats/internal/models"
)

// DocumentMeta is the file metadata the scorer looks at.
type DocumentMeta struct {
	FileType  models.FileType
	WordCount int
}

func MetaFromDocument(doc *models.ParsedDocument) DocumentMeta {
	if doc == nil {
		return DocumentMeta{}
	}
	return DocumentMeta{FileType: doc.FileType, WordCount: doc.WordCount}
}

// Score runs the six category evaluators over text and combines them into an
// AnalysisResult. It never fails; empty input yields minimum scores.
func Score(text string, contact models.ContactInfo, meta DocumentMeta, jobDescription string) *models.AnalysisResult {
	if meta.WordCount <= 0 {
		meta.WordCount = len(strings.Fields(text))
	}

	categories := map[models.Category]*models.CategoryScore{
		models.CategoryFormat:      scoreFormat(text, meta),
		models.CategoryKeywords:    scoreKeywords(text, jobDescription),
		models.CategoryContact:     scoreContact(contact),
		models.CategorySections:    scoreSections(text, meta.WordCount),
		models.CategoryLength:      scoreLength(text, meta),
		models.CategoryReadability: scoreReadability(text),
	}

	return BuildAnalysisResult(categories, models.SourceHeuristic)
}

// BuildAnalysisResult derives the overall score, critical issues, strengths and
// recommendations from a full set of category scores. The result holds clamped
// copies of the categories; the input map is left as is.
func BuildAnalysisResult(categories map[models.Category]*models.CategoryScore, source models.AnalysisSource) *models.AnalysisResult {
	result := &models.AnalysisResult{
		Categories:      make(map[models.Category]*models.CategoryScore, len(categories)),
		CriticalIssues:  []string{},
		Strengths:       []string{},
		Recommendations: []string{},
		Source:          source,
	}

	seen := make(map[string]struct{})
	for _, name := range models.Categories {
		in, ok := categories[name]
		if !ok || in == nil {
			continue
		}
		cs := *in
		cs.Score = clampScore(cs.Score)
		result.Categories[name] = &cs

		if cs.Score < CriticalIssueThreshold {
			result.CriticalIssues = append(result.CriticalIssues, "Critical: "+CategoryLabel(name))
		}
		if cs.Score >= StrengthThreshold {
			result.Strengths = append(result.Strengths, "Excellent "+strings.ToLower(CategoryLabel(name)))
		}
		for _, rec := range cs.Recommendations {
			if _, dup := seen[rec]; dup {
				continue
			}
			seen[rec] = struct{}{}
			result.Recommendations = append(result.Recommendations, rec)
		}
	}

	result.OverallScore = OverallScore(result.Categories)
	result.PerformanceLevel = PerformanceLevel(result.OverallScore)
	return result
}

// categoryBuilder accumulates penalties for one category.
type categoryBuilder struct {
	cs *models.CategoryScore
}

func newCategory(name models.Category) *categoryBuilder {
	return &categoryBuilder{cs: &models.CategoryScore{
		Name:            name,
		Score:           100,
		Issues:          []string{},
		Recommendations: []string{},
	}}
}

func (b *categoryBuilder) penalize(points int, issue, recommendation string) {
	b.cs.Score -= points
	b.cs.Issues = append(b.cs.Issues, issue)
	if recommendation != "" {
		b.cs.Recommendations = append(b.cs.Recommendations, recommendation)
	}
}

func (b *categoryBuilder) done() *models.CategoryScore {
	b.cs.Score = clampScore(b.cs.Score)
	return b.cs
}

func scoreFormat(text string, meta DocumentMeta) *models.CategoryScore {
	b := newCategory(models.CategoryFormat)

	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minExtractedChars {
		b.penalize(penaltyShortExtraction,
			"Poor text extraction - file may have formatting issues",
			"Convert to a text-based PDF or DOCX format")
	}

	if meta.FileType != models.FileTypePDF && meta.FileType != models.FileTypeDOCX {
		b.penalize(penaltyFileType,
			fmt.Sprintf("File format (%s) may not be ATS-friendly", meta.FileType),
			"Use PDF or DOCX format for better ATS compatibility")
	}

	total, nonASCII := 0, 0
	for _, r := range text {
		total++
		if r > unicode.MaxASCII {
			nonASCII++
		}
	}
	if total > 0 && float64(nonASCII) > float64(total)*maxNonASCIIRatio {
		b.penalize(penaltyNonASCII,
			"High number of special characters detected",
			"Remove or replace special characters and symbols")
	}

	return b.done()
}

func scoreSections(text string, wordCount int) *models.CategoryScore {
	b := newCategory(models.CategorySections)
	lower := strings.ToLower(text)

	for _, group := range sectionGroups {
		if containsAny(lower, group.synonyms) {
			continue
		}
		title := strings.ToUpper(group.name[:1]) + group.name[1:]
		b.penalize(penaltyMissingSection,
			fmt.Sprintf("Missing %s section", group.name),
			fmt.Sprintf("Add a clear %s section", title))
	}

	switch {
	case wordCount < briefResumeWords:
		b.penalize(penaltySectionsBrief,
			"Resume content too brief",
			"Expand resume content to 300-800 words")
	case wordCount > lengthyResumeWords:
		b.penalize(penaltySectionsLong,
			"Resume content too lengthy",
			"Condense content to focus on most relevant information")
	}

	return b.done()
}

func scoreKeywords(text, jobDescription string) *models.CategoryScore {
	b := newCategory(models.CategoryKeywords)
	lower := strings.ToLower(text)

	found := 0
	for _, kw := range professionalKeywords {
		if strings.Contains(lower, kw) {
			found++
		}
	}
	if found < minProfessionalKeywords {
		b.penalize(penaltyFewKeywords,
			"Insufficient action verbs and professional keywords",
			"Include more action verbs and industry-specific keywords")
	}

	if len(quantifiedPattern.FindAllString(text, -1)) < minQuantifiedAchievement {
		b.penalize(penaltyFewQuantified,
			"Few quantified achievements found",
			"Add specific numbers, percentages, and metrics to achievements")
	}

	if strings.TrimSpace(jobDescription) != "" && wordOverlapRatio(lower, strings.ToLower(jobDescription)) < minJobWordOverlap {
		b.penalize(penaltyLowJobOverlap,
			"Low keyword match with job description",
			"Tailor resume keywords to match job requirements")
	}

	return b.done()
}

// wordOverlapRatio is the share of distinct job description words that also
// appear in the resume.
func wordOverlapRatio(resume, job string) float64 {
	jobWords := wordSet(job)
	if len(jobWords) == 0 {
		return 0
	}
	resumeWords := wordSet(resume)

	common := 0
	for w := range jobWords {
		if _, ok := resumeWords[w]; ok {
			common++
		}
	}
	return float64(common) / float64(len(jobWords))
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func scoreReadability(text string) *models.CategoryScore {
	b := newCategory(models.CategoryReadability)

	segments := strings.Split(text, ".")
	words := 0
	for _, s := range segments {
		words += len(strings.Fields(s))
	}
	if float64(words)/float64(len(segments)) > maxWordsPerSentence {
		b.penalize(penaltyLongSentences,
			"Sentences too long for ATS parsing",
			"Use shorter, clearer sentences (15-20 words)")
	}

	if !containsAny(text, bulletMarkers) {
		b.penalize(penaltyNoBullets,
			"No bullet points detected",
			"Use bullet points to structure information clearly")
	}

	total, upper := 0, 0
	for _, r := range text {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if total > 0 && float64(upper)/float64(total) > maxUppercaseRatio {
		b.penalize(penaltyUppercase,
			"Excessive use of capital letters",
			"Use proper capitalization (title case for headers)")
	}

	return b.done()
}

func scoreContact(contact models.ContactInfo) *models.CategoryScore {
	b := newCategory(models.CategoryContact)

	if len(contact.Emails) == 0 {
		b.penalize(penaltyNoEmail, "No email address found", "Include a professional email address")
	}
	if len(contact.Phones) == 0 {
		b.penalize(penaltyNoPhone, "No phone number found", "Include a valid phone number")
	}
	if len(contact.NameCandidates) == 0 {
		b.penalize(penaltyNoName, "Name not clearly identified", "Ensure your full name is prominently displayed")
	}

	return b.done()
}

func scoreLength(text string, meta DocumentMeta) *models.CategoryScore {
	b := newCategory(models.CategoryLength)
	const rec = "Optimize resume length (aim for 400-600 words)"

	switch wc := meta.WordCount; {
	case wc < briefResumeWords:
		b.penalize(penaltyTooShort, fmt.Sprintf("Too short (%d words)", wc), rec)
	case wc > longResumeWords:
		b.penalize(penaltyTooLong, fmt.Sprintf("Too long (%d words)", wc), rec)
	case wc > idealMaxWords:
		b.penalize(penaltySlightlyLong, "Consider condensing", rec)
	}

	if !containsAny(text, lengthBulletMarkers) {
		b.penalize(penaltyLengthNoBullets,
			"Consider using bullet points",
			"Break long paragraphs into bullet points")
	}

	return b.done()
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
