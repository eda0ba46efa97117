package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"alfredoptarigan/resume-ats/internal/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode output")
	}
	return nil
}

func printReport(w io.Writer, report *models.AnalysisReport) {
	a := report.Analysis
	fmt.Fprintf(w, "%s: %d/100 (%s) [%s]\n", report.Document.FileName, a.OverallScore, a.PerformanceLevel, a.Source)
	fmt.Fprintf(w, "  %d words, %s\n\n", report.Document.WordCount, report.Document.FileType)

	for _, name := range models.Categories {
		cs := a.Categories[name]
		if cs == nil {
			continue
		}
		fmt.Fprintf(w, "  %-22s %3d\n", name, cs.Score)
		for _, issue := range cs.Issues {
			fmt.Fprintf(w, "      ! %s\n", issue)
		}
	}

	printList(w, "Critical issues", a.CriticalIssues)
	printList(w, "Strengths", a.Strengths)
	printList(w, "Recommendations", a.Recommendations)

	if report.JobMatch != nil {
		fmt.Fprintln(w)
		printMatch(w, report.JobMatch)
	}
}

func printMatch(w io.Writer, m *models.JobMatchResult) {
	fmt.Fprintf(w, "Job match: %d/100 [%s]\n", m.MatchScore, m.Source)
	fmt.Fprintf(w, "  technical %d, experience %d, industry %d, soft skills %d\n",
		m.CompatibilityAreas.TechnicalSkills,
		m.CompatibilityAreas.ExperienceLevel,
		m.CompatibilityAreas.IndustryKnowledge,
		m.CompatibilityAreas.SoftSkills,
	)

	var missing []string
	for _, kw := range m.KeywordMatches {
		if !kw.Found && kw.Importance == models.ImportanceHigh {
			missing = append(missing, kw.Keyword)
		}
	}
	printList(w, "Missing keywords", missing)
	printList(w, "Skill gaps", m.SkillGaps)
	printList(w, "Strengths", m.Strengths)
	printList(w, "Recommendations", m.Recommendations)
}

func printBatch(w io.Writer, results []batchResult) {
	for _, res := range results {
		if res.Error != "" {
			fmt.Fprintf(w, "%-40s  error: %s\n", res.File, res.Error)
			continue
		}
		a := res.Report.Analysis
		line := fmt.Sprintf("%-40s  %3d  %s", res.File, a.OverallScore, a.PerformanceLevel)
		if res.Report.JobMatch != nil {
			line += fmt.Sprintf("  match %d", res.Report.JobMatch.MatchScore)
		}
		fmt.Fprintln(w, line)
	}
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
