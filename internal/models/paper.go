package models

import (
	"strings"
	"time"
)

// Paper 统一的论文数据模型，独立于具体平台（arXiv/OpenAlex 等）
type Paper struct {
	ID               int64     `db:"id"`
	Source           string    `db:"source"`    // 平台标识，如: "arxiv", "openalex"
	SourceID         string    `db:"source_id"` // 平台内唯一ID，如: arXivID
	URL              string    `db:"url"`
	Title            string    `db:"title"`
	Authors          []string  `db:"-"`
	Abstract         string    `db:"abstract"`
	Categories       []string  `db:"-"`
	Comments         string    `db:"comments"`
	Keywords         []string  `db:"-"` // 评分阶段由模型抽取的主题关键词
	Score            float64   `db:"score"`
	ScoreReason      string    `db:"score_reason"`
	Venue            string    `db:"venue"`
	FirstSubmittedAt time.Time `db:"first_submitted_date"`
	UpdatedAt        time.Time `db:"update_time"`
}

// AuthorsCSV 返回以逗号分隔的作者名
func (p *Paper) AuthorsCSV() string {
	return strings.Join(p.Authors, ", ")
}

// CategoriesCSV 返回以逗号分隔的类别
func (p *Paper) CategoriesCSV() string {
	return strings.Join(p.Categories, ", ")
}
