package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"PaperTrend/internal/models"
)

type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Export(papers []*models.Paper, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	defer file.Close()

	// BOM 让 Excel 正确识别 UTF-8
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("写入 BOM 失败: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{
		"ID", "数据源", "平台ID", "标题", "作者", "摘要",
		"分类", "期刊", "总分", "评分理由", "关键词", "URL", "发布日期",
	}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	for _, p := range papers {
		record := []string{
			fmt.Sprintf("%d", p.ID),
			p.Source,
			p.SourceID,
			p.Title,
			strings.Join(p.Authors, "; "),
			truncate(p.Abstract, 500),
			strings.Join(p.Categories, "; "),
			p.Venue,
			fmt.Sprintf("%.1f", p.Score),
			truncate(p.ScoreReason, 500),
			strings.Join(p.Keywords, "; "),
			p.URL,
			formatDate(p.FirstSubmittedAt),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("写入数据失败: %w", err)
		}
	}

	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
