package services

import (
	"regexp"
	"strings"

	"alfredoptarigan/resume-ats/internal/models"
)

const (
	// CriticalIssueThreshold marks a category as a critical issue below it.
	CriticalIssueThreshold = 60
	// StrengthThreshold marks a category as a strength at or above it.
	StrengthThreshold = 90
)

// CategoryWeights is the single weight table for the overall score, in
// percent. The weights sum to 100.
var CategoryWeights = map[models.Category]int{
	models.CategoryFormat:      20,
	models.CategoryKeywords:    25,
	models.CategoryContact:     15,
	models.CategorySections:    20,
	models.CategoryLength:      10,
	models.CategoryReadability: 10,
}

type sectionGroup struct {
	name     string
	synonyms []string
}

var sectionGroups = []sectionGroup{
	{name: "contact", synonyms: []string{"email", "phone", "address"}},
	{name: "experience", synonyms: []string{"experience", "work", "employment", "professional"}},
	{name: "education", synonyms: []string{"education", "degree", "university", "college"}},
	{name: "skills", synonyms: []string{"skills", "technical", "competencies"}},
}

var professionalKeywords = []string{
	"managed", "developed", "created", "implemented", "improved",
	"increased", "reduced", "achieved", "delivered", "coordinated",
	"led", "supervised", "analyzed", "designed", "optimized",
}

var quantifiedPattern = regexp.MustCompile(`\b\d+%|\$\d+|\d+\+|\d+ years?|\d+ months?`)

var bulletMarkers = []string{"•", "★", "-", "*", "◦"}

// The length check accepts a slightly different marker set than readability.
var lengthBulletMarkers = []string{"•", "●", "-", "*"}

const (
	minExtractedChars        = 100
	maxNonASCIIRatio         = 0.05
	minProfessionalKeywords  = 5
	minQuantifiedAchievement = 3
	minJobWordOverlap        = 0.3
	maxWordsPerSentence      = 25
	maxUppercaseRatio        = 0.15
)

// Penalties subtracted from a category's starting score of 100.
const (
	penaltyShortExtraction = 30
	penaltyFileType        = 20
	penaltyNonASCII        = 15

	penaltyMissingSection = 15
	penaltySectionsBrief  = 20
	penaltySectionsLong   = 10

	penaltyFewKeywords   = 25
	penaltyFewQuantified = 20
	penaltyLowJobOverlap = 15
	penaltyLongSentences = 15
	penaltyNoBullets     = 10
	penaltyUppercase     = 15
	penaltyNoEmail       = 40
	penaltyNoPhone       = 30
	penaltyNoName        = 30
	penaltyTooShort      = 40
	penaltyTooLong       = 20
	penaltySlightlyLong  = 10

	penaltyLengthNoBullets = 15
)

// Word-count bands for the section and length categories.
const (
	briefResumeWords   = 200
	lengthyResumeWords = 1000
	idealMaxWords      = 600
	longResumeWords    = 800
)

// OverallScore combines category scores with CategoryWeights, rounding half
// up. A missing category contributes zero.
func OverallScore(categories map[models.Category]*models.CategoryScore) int {
	total := 0
	for category, weight := range CategoryWeights {
		if cs, ok := categories[category]; ok && cs != nil {
			total += clampScore(cs.Score) * weight
		}
	}
	return clampScore((total + 50) / 100)
}

// PerformanceLevel labels an overall score.
func PerformanceLevel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Very Good"
	case score >= 70:
		return "Good"
	case score >= 60:
		return "Fair"
	default:
		return "Needs Improvement"
	}
}

// CategoryLabel turns "section_organization" into "Section Organization".
func CategoryLabel(c models.Category) string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
