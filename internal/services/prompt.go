package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/resume-ats/internal/models"
)

// maxPromptResumeChars bounds how much resume text is sent to the model.
const maxPromptResumeChars = 12000

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildAnalysisPrompt creates the prompt for a full ATS analysis.
func (pb *PromptBuilder) BuildAnalysisPrompt(resumeText string) string {
	keys := make([]string, 0, len(models.Categories))
	for _, c := range models.Categories {
		keys = append(keys, string(c))
	}

	return fmt.Sprintf(`You are an applicant tracking system (ATS) expert reviewing a resume.

Score the resume in each of these categories from 0 to 100:
%s

For every category list the concrete issues you found and short, actionable recommendations.

RESUME:
%s

Return ONLY a JSON object in the following format:
{
  "categories": {
    "<category>": {
      "score": <0-100>,
      "issues": ["<issue>"],
      "recommendations": ["<recommendation>"]
    }
  },
  "recommendations": ["<top recommendation>"]
}

Use exactly the category names listed above. Do not add commentary outside the JSON.`,
		"- "+strings.Join(keys, "\n- "), clipText(resumeText, maxPromptResumeChars))
}

// BuildJobMatchPrompt creates the prompt for comparing a resume with a job
// description. referenceContext may be empty.
func (pb *PromptBuilder) BuildJobMatchPrompt(resumeText, jobDescription, referenceContext string) string {
	var reference string
	if strings.TrimSpace(referenceContext) != "" {
		reference = fmt.Sprintf("\nREFERENCE POSTINGS (similar roles, for calibration only):\n%s\n", referenceContext)
	}

	return fmt.Sprintf(`You are a recruiter comparing a candidate's resume with a job description.

JOB DESCRIPTION:
%s
%s
RESUME:
%s

Identify the important keywords of the job description and whether the resume contains them.
Rate importance as "high", "medium" or "low".

Return ONLY a JSON object in the following format:
{
  "match_score": <0-100>,
  "keyword_matches": [{"keyword": "<keyword>", "found": <true|false>, "importance": "<high|medium|low>"}],
  "skill_gaps": ["<missing skill>"],
  "strengths": ["<strength>"],
  "recommendations": ["<recommendation>"],
  "compatibility_areas": {
    "technical_skills": <0-100>,
    "experience_level": <0-100>,
    "industry_knowledge": <0-100>,
    "soft_skills": <0-100>
  }
}

Do not add commentary outside the JSON.`,
		jobDescription, reference, clipText(resumeText, maxPromptResumeChars))
}

// BuildRetrievalQuery creates the query used to look up reference postings.
func (pb *PromptBuilder) BuildRetrievalQuery(jobDescription string) string {
	return "Job requirements and qualifications: " + clipText(jobDescription, 2000)
}

// FormatRAGContext renders retrieved reference chunks for a prompt.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Reference %d (%s, score %.2f) ---\n%s",
			i+1, result.DocType, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}

func clipText(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
