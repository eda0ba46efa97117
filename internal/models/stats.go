package models

type DailyScore struct {
	Date          string  `json:"date"`
	AverageScore  float64 `json:"avg_score"`
	AnalysisCount int64   `json:"analysis_count"`
}

type FileTypeStat struct {
	FileType     string  `json:"file_type"`
	Count        int64   `json:"count"`
	AverageScore float64 `json:"avg_score"`
}

type FeatureUsage struct {
	Feature string `json:"feature"`
	Count   int64  `json:"count"`
}

type StatsResponse struct {
	TotalAnalyses    int64                `json:"total_analyses"`
	AverageScore     float64              `json:"average_score"`
	RecentAnalyses   int64                `json:"recent_analyses"`
	ScoreTrend       []DailyScore         `json:"score_trend"`
	CategoryAverages map[Category]float64 `json:"category_averages"`
	FileTypes        []FileTypeStat       `json:"file_types"`
	FeatureUsage     []FeatureUsage       `json:"feature_usage"`
	AverageRating    float64              `json:"average_rating"`
}
