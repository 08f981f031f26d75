package chart

import (
	"fmt"
	"strings"
	"time"

	"PaperTrend/internal/models"
)

// Generator 生成 GitHub 兼容的 Mermaid xychart-beta 图表
type Generator struct {
	now func() time.Time // 测试时可替换
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// BarChart 生成 Top N 柱状图，data 为空时返回空串
func (g *Generator) BarChart(data []models.KeywordCount, title, yLabel string) string {
	if len(data) == 0 {
		return ""
	}
	if title == "" {
		title = "Top Keywords"
	}
	if yLabel == "" {
		yLabel = "Paper Count"
	}

	// 限制关键词长度，避免图表过宽
	keywords := make([]string, 0, len(data))
	counts := make([]string, 0, len(data))
	maxCount := 0
	for _, kc := range data {
		keywords = append(keywords, fmt.Sprintf("%q", truncateKeyword(kc.Keyword, 20)))
		counts = append(counts, fmt.Sprintf("%d", kc.Total))
		if kc.Total > maxCount {
			maxCount = kc.Total
		}
	}

	var b strings.Builder
	b.WriteString("```mermaid\n")
	b.WriteString("xychart-beta\n")
	fmt.Fprintf(&b, "    title %q\n", title)
	fmt.Fprintf(&b, "    x-axis [%s]\n", strings.Join(keywords, ", "))
	fmt.Fprintf(&b, "    y-axis %q 0 --> %d\n", yLabel, roundUp(maxCount))
	fmt.Fprintf(&b, "    bar [%s]\n", strings.Join(counts, ", "))
	b.WriteString("```")

	return b.String()
}

// LineChart 生成趋势线图，按 aggregateDays 聚合为桶，末桶可以不满。
// 桶内缺失的日期按 0 计
func (g *Generator) LineChart(trends []models.KeywordTrendData, title string, days, aggregateDays int) string {
	if len(trends) == 0 {
		return ""
	}
	if title == "" {
		title = "Keyword Trends"
	}
	if aggregateDays <= 0 {
		aggregateDays = 7
	}

	endDate := g.now()
	startDate := endDate.AddDate(0, 0, -days)

	ranges := dateRanges(startDate, endDate, aggregateDays)
	if len(ranges) == 0 {
		return ""
	}

	xLabels := make([]string, 0, len(ranges))
	for _, r := range ranges {
		xLabels = append(xLabels, fmt.Sprintf("%q", r.start.Format("01/02")))
	}

	var lines []string
	maxVal := 0
	for _, trend := range trends {
		values := make([]string, 0, len(ranges))
		for _, r := range ranges {
			count := 0
			for d := r.start; !d.After(r.end); d = d.AddDate(0, 0, 1) {
				count += trend.DailyCounts[d.Format("2006-01-02")]
			}
			values = append(values, fmt.Sprintf("%d", count))
			if count > maxVal {
				maxVal = count
			}
		}

		lines = append(lines, fmt.Sprintf("    line %q [%s]",
			truncateKeyword(trend.Keyword, 18), strings.Join(values, ", ")))
	}

	var b strings.Builder
	b.WriteString("```mermaid\n")
	b.WriteString("xychart-beta\n")
	fmt.Fprintf(&b, "    title %q\n", title)
	fmt.Fprintf(&b, "    x-axis [%s]\n", strings.Join(xLabels, ", "))
	fmt.Fprintf(&b, "    y-axis \"Papers\" 0 --> %d\n", roundUp(maxVal))
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n```")

	return b.String()
}

func truncateKeyword(keyword string, maxLen int) string {
	runes := []rune(keyword)
	if len(runes) <= maxLen {
		return keyword
	}
	return string(runes[:maxLen-2]) + ".."
}

// roundUp 向上取整到合适的 Y 轴刻度
func roundUp(value int) int {
	switch {
	case value <= 10:
		return 10
	case value <= 20:
		return 20
	case value <= 50:
		return 50
	case value <= 100:
		return 100
	default:
		return (value/50 + 1) * 50
	}
}

type dateRange struct {
	start, end time.Time
}

func dateRanges(start, end time.Time, aggregateDays int) []dateRange {
	start = truncateDay(start)
	end = truncateDay(end)

	var ranges []dateRange
	for current := start; !current.After(end); {
		rangeEnd := current.AddDate(0, 0, aggregateDays-1)
		if rangeEnd.After(end) {
			rangeEnd = end
		}
		ranges = append(ranges, dateRange{start: current, end: rangeEnd})
		current = rangeEnd.AddDate(0, 0, 1)
	}

	return ranges
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
