package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"alfredoptarigan/resume-ats/internal/models"
)

// MinJobDescriptionWords is the shortest job description worth matching.
const MinJobDescriptionWords = 20

// Neutral compatibility scores used when the job text gives nothing to compare.
const (
	neutralTechnical  = 50
	neutralExperience = 60
	neutralIndustry   = 70
	neutralSoft       = 65
)

const (
	maxGapMatches       = 10
	maxSkillGaps        = 10
	maxStrengths        = 5
	maxRecommendations  = 6
	maxPriorityGaps     = 3
	minMatchedKeywords  = 10
	maxMustHave         = 10
	maxNiceToHave       = 5
	maxNamedStrengthHit = 3
	maxIndustryTerms    = 3
)

var (
	wordPattern          = regexp.MustCompile(`\b[a-z]+\b`)
	requirementsHeader   = regexp.MustCompile(`(?:requirements?|qualifications?|skills?)[:\s]+`)
	nextHeadingPattern   = regexp.MustCompile(`\n\s*[a-z]+:`)
	niceToHavePattern    = regexp.MustCompile(`nice to have|preferred|plus`)
	educationPattern     = regexp.MustCompile(`bachelor|master|phd|degree|diploma|certification`)
	experienceReqPattern = regexp.MustCompile(`(\d+)[+\s]*(?:years?|yrs?)\s+(?:of\s+)?experience`)
)

// Match compares a resume with a job description. It never fails: an empty
// or too short job description yields an empty result with neutral
// compatibility scores.
func Match(resumeText, jobDescription string) *models.JobMatchResult {
	if len(strings.Fields(jobDescription)) < MinJobDescriptionWords {
		return emptyMatchResult()
	}

	resumeLower := strings.ToLower(resumeText)
	jobLower := strings.ToLower(jobDescription)

	resumeKeywords := extractKeywords(resumeLower)
	jobKeywords := extractKeywords(jobLower)

	var matches, gaps []string
	for kw := range jobKeywords {
		if _, ok := resumeKeywords[kw]; ok {
			matches = append(matches, kw)
		} else {
			gaps = append(gaps, kw)
		}
	}

	tiers := newImportanceTiers(jobLower)
	sortByTier(matches, tiers)
	sortByTier(gaps, tiers)

	return &models.JobMatchResult{
		MatchScore:         matchScore(len(matches), len(jobKeywords)),
		KeywordMatches:     keywordMatches(matches, gaps, tiers),
		SkillGaps:          skillGaps(gaps),
		Strengths:          matchStrengths(matches, resumeLower),
		Recommendations:    matchRecommendations(matches, gaps, tiers, jobLower),
		CompatibilityAreas: compatibilityAreas(resumeLower, jobLower),
		Requirements:       ExtractRequirements(jobDescription),
		Source:             models.SourceHeuristic,
	}
}

func emptyMatchResult() *models.JobMatchResult {
	return &models.JobMatchResult{
		KeywordMatches:  []models.KeywordMatch{},
		SkillGaps:       []string{},
		Strengths:       []string{},
		Recommendations: []string{},
		CompatibilityAreas: models.CompatibilityAreas{
			TechnicalSkills:   neutralTechnical,
			ExperienceLevel:   neutralExperience,
			IndustryKnowledge: neutralIndustry,
			SoftSkills:        neutralSoft,
		},
		Requirements: emptyRequirements(),
		Source:       models.SourceHeuristic,
	}
}

// matchScore is the rounded share of job keywords found. Rounding never
// reports 100 unless every keyword matched.
func matchScore(matched, total int) int {
	if total == 0 {
		return 0
	}
	score := percent(matched, total)
	if score == 100 && matched < total {
		score = 99
	}
	return score
}

// percent returns round(100*n/d) with halves rounded up, capped at 100.
func percent(n, d int) int {
	if d <= 0 {
		return 0
	}
	p := (200*n + d) / (2 * d)
	if p > 100 {
		return 100
	}
	return p
}

// extractKeywords returns single words longer than three letters, two and
// three word shingles without stop words, and any taxonomy skill found in
// the already lowercased text.
func extractKeywords(text string) map[string]struct{} {
	keywords := make(map[string]struct{})

	locs := wordPattern.FindAllStringIndex(text, -1)
	words := make([]string, len(locs))
	for i, loc := range locs {
		words[i] = text[loc[0]:loc[1]]
		if len(words[i]) > 3 && !isStopWord(words[i]) {
			keywords[words[i]] = struct{}{}
		}
	}

	for n := 2; n <= 3; n++ {
		for i := 0; i+n <= len(words); i++ {
			if !shingleAt(text, locs, words, i, n) {
				continue
			}
			keywords[strings.Join(words[i:i+n], " ")] = struct{}{}
		}
	}

	for skill := range taxonomyIndex {
		if strings.Contains(text, skill) {
			keywords[skill] = struct{}{}
		}
	}

	return keywords
}

// shingleAt reports whether words[i:i+n] are separated only by whitespace
// and contain no stop word.
func shingleAt(text string, locs [][]int, words []string, i, n int) bool {
	for j := i; j < i+n; j++ {
		if isStopWord(words[j]) {
			return false
		}
		if j > i && strings.TrimSpace(text[locs[j-1][1]:locs[j][0]]) != "" {
			return false
		}
	}
	return true
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// importanceTiers assigns a tier to keywords of one job description.
type importanceTiers struct {
	jobLower     string
	requirements string
	cache        map[string]models.Importance
}

func newImportanceTiers(jobLower string) *importanceTiers {
	return &importanceTiers{
		jobLower:     jobLower,
		requirements: requirementsBlock(jobLower),
		cache:        make(map[string]models.Importance),
	}
}

func (t *importanceTiers) of(keyword string) models.Importance {
	if imp, ok := t.cache[keyword]; ok {
		return imp
	}

	count := strings.Count(t.jobLower, keyword)
	inRequirements := t.requirements != "" && strings.Contains(t.requirements, keyword)

	imp := models.ImportanceLow
	switch {
	case count >= 3 || inRequirements:
		imp = models.ImportanceHigh
	case count >= 2 || isTechnicalSkill(keyword):
		imp = models.ImportanceMedium
	}
	t.cache[keyword] = imp
	return imp
}

func tierRank(imp models.Importance) int {
	switch imp {
	case models.ImportanceHigh:
		return 0
	case models.ImportanceMedium:
		return 1
	default:
		return 2
	}
}

func sortByTier(keywords []string, tiers *importanceTiers) {
	sort.Slice(keywords, func(i, j int) bool {
		ri, rj := tierRank(tiers.of(keywords[i])), tierRank(tiers.of(keywords[j]))
		if ri != rj {
			return ri < rj
		}
		return keywords[i] < keywords[j]
	})
}

// requirementsBlock returns the text after the first requirements,
// qualifications or skills heading, up to the next blank line.
func requirementsBlock(jobLower string) string {
	loc := requirementsHeader.FindStringIndex(jobLower)
	if loc == nil {
		return ""
	}
	rest := jobLower[loc[1]:]
	if end := strings.Index(rest, "\n\n"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func keywordMatches(matches, gaps []string, tiers *importanceTiers) []models.KeywordMatch {
	out := make([]models.KeywordMatch, 0, len(matches)+maxGapMatches)
	for _, kw := range matches {
		out = append(out, models.KeywordMatch{Keyword: kw, Found: true, Importance: tiers.of(kw)})
	}

	added := 0
	for _, kw := range gaps {
		if added == maxGapMatches {
			break
		}
		imp := tiers.of(kw)
		if imp == models.ImportanceLow {
			continue
		}
		out = append(out, models.KeywordMatch{Keyword: kw, Found: false, Importance: imp})
		added++
	}
	return out
}

// skillGaps lists missing taxonomy skills first, then tops up with other
// missing keywords in tier order.
func skillGaps(gaps []string) []string {
	var skills, others []string
	for _, g := range gaps {
		if isTaxonomySkill(g) {
			skills = append(skills, g)
		} else {
			others = append(others, g)
		}
	}
	sort.Strings(skills)

	out := make([]string, 0, maxSkillGaps)
	for _, s := range skills {
		if len(out) == maxSkillGaps {
			return out
		}
		out = append(out, titleCase(s))
	}
	for _, o := range others {
		if len(out) == maxSkillGaps {
			break
		}
		out = append(out, o)
	}
	return out
}

func matchStrengths(matches []string, resumeLower string) []string {
	matched := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		matched[m] = struct{}{}
	}

	strengths := []string{}
	for _, set := range skillTaxonomy {
		var hits []string
		for _, s := range set.skills {
			if _, ok := matched[s]; ok {
				hits = append(hits, s)
			}
		}
		if len(hits) < 2 {
			continue
		}
		sort.Strings(hits)
		if len(hits) > maxNamedStrengthHit {
			hits = hits[:maxNamedStrengthHit]
		}
		named := strings.Join(hits, ", ")

		switch set.category {
		case skillTechnical:
			strengths = append(strengths, "Strong technical background in "+named)
		case skillSoft:
			strengths = append(strengths, "Excellent soft skills including "+named)
		case skillBusiness:
			strengths = append(strengths, "Solid business acumen in "+named)
		}
	}

	if _, ok := matched["experience"]; ok && strings.Contains(resumeLower, "years") {
		strengths = append(strengths, "Relevant professional experience")
	}

	if len(strengths) > maxStrengths {
		strengths = strengths[:maxStrengths]
	}
	return strengths
}

func matchRecommendations(matches, gaps []string, tiers *importanceTiers, jobLower string) []string {
	recs := []string{}

	priority := 0
	for _, g := range gaps {
		if priority == maxPriorityGaps {
			break
		}
		if tiers.of(g) != models.ImportanceHigh {
			continue
		}
		priority++
		if isTaxonomySkill(g) {
			recs = append(recs, "Consider gaining experience in "+titleCase(g))
		} else {
			recs = append(recs, fmt.Sprintf("Highlight %s experience if available", titleCase(g)))
		}
	}

	if len(matches) < minMatchedKeywords {
		recs = append(recs, "Include more job-specific keywords in your resume")
	}

	if strings.Contains(jobLower, "senior") && !strings.Contains(strings.Join(matches, " "), "senior") {
		recs = append(recs, "Emphasize senior-level experience and leadership")
	}

	matched := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		matched[m] = struct{}{}
	}
	var missingIndustry []string
	for _, term := range industryTerms(jobLower) {
		if _, ok := matched[term]; !ok {
			missingIndustry = append(missingIndustry, term)
		}
	}
	if len(missingIndustry) > 0 {
		if len(missingIndustry) > maxIndustryTerms {
			missingIndustry = missingIndustry[:maxIndustryTerms]
		}
		recs = append(recs, "Add industry-specific terms: "+strings.Join(missingIndustry, ", "))
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// industryTerms returns the industry pattern terms present in the job text,
// in table order and without repeats.
func industryTerms(jobLower string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, p := range industryPatterns {
		for _, term := range p.terms {
			if _, dup := seen[term]; dup {
				continue
			}
			if strings.Contains(jobLower, term) {
				seen[term] = struct{}{}
				terms = append(terms, term)
			}
		}
	}
	return terms
}

func compatibilityAreas(resumeLower, jobLower string) models.CompatibilityAreas {
	industry := industryTerms(jobLower)

	return models.CompatibilityAreas{
		TechnicalSkills:   areaScore(skillsOf(skillTechnical), resumeLower, jobLower, neutralTechnical),
		ExperienceLevel:   areaScore(experienceIndicators, resumeLower, jobLower, neutralExperience),
		IndustryKnowledge: areaScore(industry, resumeLower, jobLower, neutralIndustry),
		SoftSkills:        areaScore(skillsOf(skillSoft), resumeLower, jobLower, neutralSoft),
	}
}

func areaScore(terms []string, resumeLower, jobLower string, neutral int) int {
	resumeCount, jobCount := 0, 0
	for _, term := range terms {
		if strings.Contains(resumeLower, term) {
			resumeCount++
		}
		if strings.Contains(jobLower, term) {
			jobCount++
		}
	}
	if jobCount == 0 {
		return neutral
	}
	return percent(resumeCount, jobCount)
}

func emptyRequirements() models.JobRequirements {
	return models.JobRequirements{
		MustHave:   []string{},
		NiceToHave: []string{},
		Education:  []string{},
		Experience: []string{},
	}
}

// ExtractRequirements splits a job description into must-have and
// nice-to-have keywords plus education and experience requirements.
func ExtractRequirements(jobDescription string) models.JobRequirements {
	reqs := emptyRequirements()
	jobLower := strings.ToLower(jobDescription)

	section := jobLower
	if loc := requirementsHeader.FindStringIndex(jobLower); loc != nil {
		section = jobLower[loc[1]:]
		if end := nextHeadingPattern.FindStringIndex(section); end != nil {
			section = section[:end[0]]
		}
	}

	if strings.Contains(section, "required") || strings.Contains(section, "must") {
		required, optional := section, ""
		if loc := niceToHavePattern.FindStringIndex(section); loc != nil {
			required, optional = section[:loc[0]], section[loc[1]:]
		}
		reqs.MustHave = rankedKeywords(required, maxMustHave)
		if optional != "" {
			reqs.NiceToHave = rankedKeywords(optional, maxNiceToHave)
		}
	}

	reqs.Education = uniqueInOrder(educationPattern.FindAllString(section, -1))

	if m := experienceReqPattern.FindStringSubmatch(section); m != nil {
		reqs.Experience = append(reqs.Experience, m[1]+"+ years experience")
	}

	return reqs
}

// rankedKeywords returns up to limit keywords of text: taxonomy skills
// first, then by frequency, then alphabetically.
func rankedKeywords(text string, limit int) []string {
	set := extractKeywords(text)
	keywords := make([]string, 0, len(set))
	for kw := range set {
		keywords = append(keywords, kw)
	}

	sort.Slice(keywords, func(i, j int) bool {
		si, sj := isTaxonomySkill(keywords[i]), isTaxonomySkill(keywords[j])
		if si != sj {
			return si
		}
		ci, cj := strings.Count(text, keywords[i]), strings.Count(text, keywords[j])
		if ci != cj {
			return ci > cj
		}
		return keywords[i] < keywords[j]
	})

	if len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords
}

// uniqueInOrder de-duplicates in, keeping first-seen order.
func uniqueInOrder(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
