package db

import (
	"PaperTrend/internal/models"
)

// 为 postgreSql 保留一下接口, 理论上命令行程序应该简洁更好, 但万一发了呢
type PaperStorage interface {
	Upsert(paper *models.Paper) (int64, error)

	GetPapersByDate(source string, date string) ([]*models.Paper, error)

	GetRecentPapers(days, limit int) ([]*models.Paper, error)

	AlreadyProcessed(source, sourceID string) (bool, error)

	CountPapers(conditions []string, params []interface{}) (int, error)

	Close() error
}

// TrackerStorage 关键词追踪所需的全部存储操作
type TrackerStorage interface {
	InsertKeywords(keywords []string, paperID, source, extractedDate string) ([]int64, error)

	GetUniqueUnnormalizedKeywords(limit int) ([]string, error)

	GetOrCreateNormalizedKeyword(canonical, category string) (int64, error)

	AddKeywordAlias(rawKeyword string, normalizedID int64, confidence float64) error

	LinkKeywordsToNormalized(rawKeyword string, normalizedID int64) (int, error)

	GetAllCanonicalKeywords() ([]string, error)

	UpdateDailyCounts(date string) error

	GetTopKeywords(days, limit int) ([]models.KeywordCount, error)

	GetKeywordTrends(days int, keywords []string, limit int) ([]models.KeywordTrendData, error)

	GetStats() (*models.TrackerStats, error)
}
