package models

type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
)

// ParsedDocument is the text extracted from one uploaded resume.
type ParsedDocument struct {
	FileName             string   `json:"file_name"`
	FileType             FileType `json:"file_type"`
	FileSize             int64    `json:"file_size"`
	RawText              string   `json:"raw_text"`
	NormalizedText       string   `json:"normalized_text"`
	Pages                []string `json:"pages,omitempty"`
	EmptyPages           []int    `json:"empty_pages,omitempty"`
	Encoding             string   `json:"encoding,omitempty"`
	WordCount            int      `json:"word_count"`
	CharCount            int      `json:"char_count"`
	PageOrParagraphCount int      `json:"page_or_paragraph_count"`
}

// ContactInfo holds the de-duplicated, sorted entities found in a resume.
type ContactInfo struct {
	Emails         []string `json:"emails"`
	Phones         []string `json:"phones"`
	URLs           []string `json:"urls"`
	LinkedIn       []string `json:"linkedin"`
	NameCandidates []string `json:"name_candidates"`
}

type Category string

const (
	CategoryFormat      Category = "format_compatibility"
	CategoryKeywords    Category = "keyword_optimization"
	CategoryContact     Category = "contact_information"
	CategorySections    Category = "section_organization"
	CategoryLength      Category = "length_optimization"
	CategoryReadability Category = "readability"
)

// Categories lists every scoring category in report order.
var Categories = []Category{
	CategoryFormat,
	CategoryKeywords,
	CategoryContact,
	CategorySections,
	CategoryLength,
	CategoryReadability,
}

type CategoryScore struct {
	Name            Category `json:"name"`
	Score           int      `json:"score"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

type AnalysisSource string

const (
	SourceHeuristic AnalysisSource = "heuristic"
	SourceAI        AnalysisSource = "ai"
)

type AnalysisResult struct {
	OverallScore     int                         `json:"overall_score"`
	PerformanceLevel string                      `json:"performance_level"`
	Categories       map[Category]*CategoryScore `json:"categories"`
	CriticalIssues   []string                    `json:"critical_issues"`
	Strengths        []string                    `json:"strengths"`
	Recommendations  []string                    `json:"recommendations"`
	Source           AnalysisSource              `json:"source"`
}

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

type KeywordMatch struct {
	Keyword    string     `json:"keyword"`
	Found      bool       `json:"found"`
	Importance Importance `json:"importance"`
}

type CompatibilityAreas struct {
	TechnicalSkills   int `json:"technical_skills"`
	ExperienceLevel   int `json:"experience_level"`
	IndustryKnowledge int `json:"industry_knowledge"`
	SoftSkills        int `json:"soft_skills"`
}

// JobRequirements is a coarse breakdown of what a posting asks for.
type JobRequirements struct {
	MustHave   []string `json:"must_have"`
	NiceToHave []string `json:"nice_to_have"`
	Education  []string `json:"education"`
	Experience []string `json:"experience"`
}

type JobMatchResult struct {
	MatchScore         int                `json:"match_score"`
	KeywordMatches     []KeywordMatch     `json:"keyword_matches"`
	SkillGaps          []string           `json:"skill_gaps"`
	Strengths          []string           `json:"strengths"`
	Recommendations    []string           `json:"recommendations"`
	CompatibilityAreas CompatibilityAreas `json:"compatibility_areas"`
	Requirements       JobRequirements    `json:"requirements"`
	Source             AnalysisSource     `json:"source"`
}
