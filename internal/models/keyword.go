package models

// KeywordRecord keywords 表中的一条原始关键词记录
type KeywordRecord struct {
	ID            int64  `db:"id"`
	Keyword       string `db:"keyword"`
	PaperID       string `db:"paper_id"`
	Source        string `db:"source"`
	ExtractedDate string `db:"extracted_date"` // YYYY-MM-DD
	NormalizedID  int64  `db:"normalized_keyword_id"`
}

// NormalizedKeyword 归一化后的规范关键词
type NormalizedKeyword struct {
	ID               int64  `db:"id"`
	CanonicalKeyword string `db:"canonical_keyword"`
	Category         string `db:"category"`
}

// KeywordCount 规范关键词在某时间窗口内的出现总量
type KeywordCount struct {
	Keyword  string
	Category string
	Total    int
}

// KeywordTrendData 一个规范关键词的逐日计数序列，日期键为 YYYY-MM-DD，
// 计数为 0 的日期不出现在 map 中
type KeywordTrendData struct {
	Keyword     string
	DailyCounts map[string]int
}

// NormalizationResult LLM 批量归一化对一个规范形式给出的结果
type NormalizationResult struct {
	CanonicalForm    string   `json:"canonical_form"`
	OriginalKeywords []string `json:"original_keywords"`
	Category         string   `json:"category"`
	Confidence       float64  `json:"confidence"`
}

// TrackerStats 关键词库的总体统计
type TrackerStats struct {
	TotalKeywords      int `json:"total_keywords"`
	NormalizedKeywords int `json:"normalized_keywords"`
	CanonicalKeywords  int `json:"canonical_keywords"`
	Aliases            int `json:"aliases"`
}

// NormalizationRun 一次每日归一化的执行汇总
type NormalizationRun struct {
	Processed    int `json:"processed"`
	NewCanonical int `json:"new_canonical"`
	Merged       int `json:"merged"`
}
