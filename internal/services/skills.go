package services

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type skillCategory string

const (
	skillTechnical skillCategory = "technical"
	skillSoft      skillCategory = "soft"
	skillBusiness  skillCategory = "business"
)

type skillSet struct {
	category skillCategory
	skills   []string
}

// skillTaxonomy is checked as substrings of lowercased text, in this order.
var skillTaxonomy = []skillSet{
	{category: skillTechnical, skills: []string{
		"python", "java", "javascript", "sql", "html", "css", "react", "node.js",
		"aws", "azure", "docker", "kubernetes", "git", "linux", "windows",
		"machine learning", "data analysis", "artificial intelligence", "deep learning",
	}},
	{category: skillSoft, skills: []string{
		"leadership", "communication", "teamwork", "problem solving", "analytical",
		"project management", "time management", "adaptability", "creativity",
	}},
	{category: skillBusiness, skills: []string{
		"strategy", "planning", "budgeting", "forecasting", "operations",
		"marketing", "sales", "customer service", "business analysis",
	}},
}

var taxonomyIndex = func() map[string]skillCategory {
	idx := make(map[string]skillCategory)
	for _, set := range skillTaxonomy {
		for _, s := range set.skills {
			if _, ok := idx[s]; !ok {
				idx[s] = set.category
			}
		}
	}
	return idx
}()

func skillsOf(category skillCategory) []string {
	for _, set := range skillTaxonomy {
		if set.category == category {
			return set.skills
		}
	}
	return nil
}

func isTaxonomySkill(keyword string) bool {
	_, ok := taxonomyIndex[keyword]
	return ok
}

func isTechnicalSkill(keyword string) bool {
	return taxonomyIndex[keyword] == skillTechnical
}

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
		"by", "as", "is", "are", "was", "were", "be", "been", "have", "has",
		"had", "do", "does", "did", "will", "would", "could", "should", "may",
		"might", "must", "can", "shall", "about", "into", "through", "during",
		"before", "after", "above", "below", "up", "down", "out", "off", "over",
		"under", "again", "further", "then", "once",
	} {
		stopWords[w] = struct{}{}
	}
}

type industryPattern struct {
	industry string
	terms    []string
}

var industryPatterns = []industryPattern{
	{industry: "technology", terms: []string{"software", "tech", "digital", "innovation", "platform"}},
	{industry: "finance", terms: []string{"financial", "banking", "investment", "portfolio", "risk"}},
	{industry: "healthcare", terms: []string{"medical", "patient", "clinical", "hospital", "healthcare"}},
	{industry: "retail", terms: []string{"customer", "sales", "merchandise", "store", "retail"}},
	{industry: "consulting", terms: []string{"client", "consulting", "advisory", "strategy", "solution"}},
}

var experienceIndicators = []string{"years", "experience", "senior", "junior", "lead", "manager"}

// titleCase is used for skill names shown to users ("machine learning" ->
// "Machine Learning").
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
