package platform

import (
	"context"

	"PaperTrend/internal/models"
)

// Query 数据源查询参数（统一接口）
type Query struct {
	Keywords   []string
	Categories []string
	Journals   []string // 期刊缩写，如 "prl"、"pra"（仅 OpenAlex 使用）
	DateFrom   string   // YYYY-MM-DD
	DateTo     string   // YYYY-MM-DD
	Limit      int
	Offset     int
}

// Result 查询结果
type Result struct {
	Total  int
	Papers []*models.Paper
}

// Platform 数据源接口，所有数据源（arXiv/OpenAlex）都需实现
type Platform interface {
	Name() string

	// Search 执行搜索查询
	Search(ctx context.Context, q Query) (Result, error)

	GetConfig() Config
}

type Config interface {
	Validate() error
}
