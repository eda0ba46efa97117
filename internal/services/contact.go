package services

import (
	"regexp"
	"sort"
	"strings"

	"alfredoptarigan/resume-ats/internal/models"
)

// nameScanLines is how many leading lines are searched for a candidate name.
const nameScanLines = 5

var (
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	urlPattern      = regexp.MustCompile(`https?://[^\s<>"'()]+`)
	linkedInPattern = regexp.MustCompile(`(?i)linkedin\.com/in/([A-Za-z0-9_-]+)`)
	namePattern     = regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+){1,3}\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-\s]?\d{4}\b`),
		regexp.MustCompile(`\b\d{3}[-.]\d{3}[-.]\d{4}\b`),
		regexp.MustCompile(`(?:\+?1[-.\s]?)?\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
	}
)

// ExtractContactInfo collects emails, phones, URLs, LinkedIn handles and name
// candidates from a parsed document. Each set is sorted and de-duplicated.
func ExtractContactInfo(doc *models.ParsedDocument) models.ContactInfo {
	if doc == nil {
		return ExtractContactInfoFromText("")
	}
	text := doc.NormalizedText
	if text == "" {
		text = doc.RawText
	}
	return ExtractContactInfoFromText(text)
}

// ExtractContactInfoFromText is ExtractContactInfo over plain text. Newlines
// are significant for name detection.
func ExtractContactInfoFromText(text string) models.ContactInfo {
	return models.ContactInfo{
		Emails:         sortedSet(emailPattern.FindAllString(text, -1)),
		Phones:         sortedSet(extractPhones(text)),
		URLs:           sortedSet(extractURLs(text)),
		LinkedIn:       sortedSet(extractLinkedIn(text)),
		NameCandidates: sortedSet(extractNameCandidates(text)),
	}
}

type span struct{ start, end int }

// extractPhones runs every phone pattern and keeps only the longest match
// among overlapping spans, so one written number yields one value.
func extractPhones(text string) []string {
	var spans []span
	for _, p := range phonePatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			spans = append(spans, span{start: loc[0], end: loc[1]})
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		li, lj := spans[i].end-spans[i].start, spans[j].end-spans[j].start
		if li != lj {
			return li > lj
		}
		return spans[i].start < spans[j].start
	})

	var kept []span
	phones := make([]string, 0, len(spans))
	for _, s := range spans {
		overlaps := false
		for _, k := range kept {
			if s.start < k.end && k.start < s.end {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		kept = append(kept, s)
		phones = append(phones, strings.TrimSpace(text[s.start:s.end]))
	}
	return phones
}

func extractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:!?]}")
		if m != "" {
			urls = append(urls, m)
		}
	}
	return urls
}

func extractLinkedIn(text string) []string {
	matches := linkedInPattern.FindAllStringSubmatch(text, -1)
	handles := make([]string, 0, len(matches))
	for _, m := range matches {
		handles = append(handles, "linkedin.com/in/"+strings.ToLower(m[1]))
	}
	return handles
}

func extractNameCandidates(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > nameScanLines {
		lines = lines[:nameScanLines]
	}

	var names []string
	for _, line := range lines {
		names = append(names, namePattern.FindAllString(strings.TrimSpace(line), -1)...)
	}
	return names
}

// sortedSet returns the distinct values of in, sorted. It never returns nil.
func sortedSet(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
