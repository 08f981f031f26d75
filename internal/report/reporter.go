package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"PaperTrend/config"
	"PaperTrend/internal/analysis"
	"PaperTrend/internal/models"
	"PaperTrend/internal/profile"
	"PaperTrend/internal/tracker"
	"PaperTrend/pkg/logger"
)

// 数据源显示名称映射
var sourceDisplayNames = map[string]string{
	"arxiv":    "ArXiv",
	"openalex": "OpenAlex",
	"prl":      "Physical Review Letters",
	"pra":      "Physical Review A",
	"prb":      "Physical Review B",
	"prc":      "Physical Review C",
	"prd":      "Physical Review D",
	"pre":      "Physical Review E",
	"prx":      "Physical Review X",
	"prxq":     "PRX Quantum",
	"rmp":      "Reviews of Modern Physics",
	"nature":   "Nature",
	"science":  "Science",
	"quantum":  "Quantum",
}

// ScoredPaper 论文及其评分结果
type ScoredPaper struct {
	Paper  *models.Paper
	Result *analysis.ScoreResult
}

type Options struct {
	OutputDir  string // 报告根目录
	BySource   bool   // 按数据源分子目录
	IncludeAll bool   // false 时只写及格论文

	TrendFrequency string // always / daily / weekly / monthly
	TrendDays      int
	TrendTopN      int
	TrendLineN     int
}

func DefaultOptions() Options {
	return Options{
		OutputDir:      "reports",
		BySource:       true,
		IncludeAll:     true,
		TrendFrequency: "weekly",
		TrendDays:      30,
		TrendTopN:      15,
		TrendLineN:     5,
	}
}

// Reporter 生成按数据源拆分的 Markdown 报告和关键词趋势报告
type Reporter struct {
	opts    Options
	tracker *tracker.Tracker
	scoring config.ScoringConfig
	log     *logger.Logger

	now func() time.Time
}

func NewReporter(opts Options, t *tracker.Tracker, scoring config.ScoringConfig) *Reporter {
	if opts.OutputDir == "" {
		opts.OutputDir = "reports"
	}
	if opts.TrendDays <= 0 {
		opts.TrendDays = 30
	}
	if opts.TrendTopN <= 0 {
		opts.TrendTopN = 15
	}
	if opts.TrendLineN <= 0 {
		opts.TrendLineN = 5
	}
	return &Reporter{
		opts:    opts,
		tracker: t,
		scoring: scoring,
		log:     logger.WithPrefix("report"),
		now:     time.Now,
	}
}

// DisplayName 数据源的展示名称
func DisplayName(source string) string {
	if name, ok := sourceDisplayNames[source]; ok {
		return name
	}
	return strings.ToUpper(source)
}

// GenerateBySource 按数据源生成分开的报告，返回 {数据源: 报告路径}
func (r *Reporter) GenerateBySource(papers []ScoredPaper, keywords profile.Keywords) (map[string]string, error) {
	bySource := make(map[string][]ScoredPaper)
	for _, p := range papers {
		if p.Paper == nil || p.Result == nil {
			continue
		}
		bySource[p.Paper.Source] = append(bySource[p.Paper.Source], p)
	}

	timestamp := r.now().Format("2006-01-02_15-04-05")
	paths := make(map[string]string)

	for source, sourcePapers := range bySource {
		dir := r.opts.OutputDir
		if r.opts.BySource {
			dir = filepath.Join(dir, source)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return paths, fmt.Errorf("failed to create report dir: %w", err)
		}

		filename := fmt.Sprintf("%s_Report_%s.md", strings.ToUpper(source), timestamp)
		path := filepath.Join(dir, filename)

		content := r.renderSourceReport(source, sourcePapers, keywords)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return paths, fmt.Errorf("failed to write report: %w", err)
		}

		paths[source] = path
		r.log.Info("[%s] 报告已生成: %s", source, path)
	}

	return paths, nil
}

// renderSourceReport 生成单个数据源的报告内容
func (r *Reporter) renderSourceReport(source string, papers []ScoredPaper, keywords profile.Keywords) string {
	now := r.now()
	displayName := DisplayName(source)

	// 按总分降序排列
	sorted := make([]ScoredPaper, len(papers))
	copy(sorted, papers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Result.TotalScore > sorted[j].Result.TotalScore
	})

	qualified := make([]ScoredPaper, 0, len(sorted))
	for _, p := range sorted {
		if p.Result.IsQualified {
			qualified = append(qualified, p)
		}
	}

	totalWeight := keywords.TotalWeight()
	passingScore := profile.PassingScore(r.scoring.PassingScoreBase, r.scoring.PassingScoreCoefficient, totalWeight)

	var b strings.Builder
	fmt.Fprintf(&b, "# 📊 %s 研究报告 (%s)\n\n", displayName, now.Format("2006-01-02"))
	fmt.Fprintf(&b, "> 生成时间: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "> 数据源: %s\n\n", displayName)

	r.writeConfigSection(&b, keywords, passingScore)
	r.writeStatsSection(&b, len(sorted), len(qualified))

	if len(qualified) > 0 {
		b.WriteString("## ⭐ 及格论文详细分析\n\n")
		for i, p := range qualified {
			r.writePaperSection(&b, i+1, p, true)
		}
	}

	if r.opts.IncludeAll {
		b.WriteString("## 📋 所有论文列表\n\n")
		for i, p := range sorted {
			r.writePaperSection(&b, i+1, p, false)
		}
	}

	return b.String()
}

func (r *Reporter) writeConfigSection(b *strings.Builder, keywords profile.Keywords, passingScore float64) {
	totalWeight := keywords.TotalWeight()

	b.WriteString("## 📌 配置信息\n\n")
	fmt.Fprintf(b, "### 关键词列表（共 %d 个，总权重 %.1f）\n\n", len(keywords), totalWeight)
	b.WriteString("| 关键词 | 权重 | 类型 |\n")
	b.WriteString("|--------|------|------|\n")

	// 按权重降序，相同权重按字典序保证稳定输出
	type kwEntry struct {
		kw     string
		weight float64
	}
	entries := make([]kwEntry, 0, len(keywords))
	for kw, w := range keywords {
		entries = append(entries, kwEntry{kw, w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].kw < entries[j].kw
	})
	for _, e := range entries {
		kwType := "次要"
		if e.weight >= 1.0 {
			kwType = "主要"
		}
		fmt.Fprintf(b, "| %s | %.1f | %s |\n", e.kw, e.weight, kwType)
	}
	b.WriteString("\n")

	b.WriteString("### 评分设置\n\n")
	fmt.Fprintf(b, "- **每个关键词最大分**: %d\n", r.scoring.MaxScorePerKeyword)
	fmt.Fprintf(b, "- **及格分公式**: %.1f + %.1f × 总权重\n", r.scoring.PassingScoreBase, r.scoring.PassingScoreCoefficient)
	fmt.Fprintf(b, "- **当前及格分**: %.1f\n", passingScore)
	if r.scoring.EnableAuthorBonus {
		fmt.Fprintf(b, "- **作者加分**: 启用（%.1f分/专家）\n", r.scoring.AuthorBonusPoints)
		if len(r.scoring.ExpertAuthors) > 0 {
			fmt.Fprintf(b, "- **专家作者**: %s\n", strings.Join(r.scoring.ExpertAuthors, ", "))
		}
	}
	b.WriteString("\n")
}

func (r *Reporter) writeStatsSection(b *strings.Builder, total, qualified int) {
	b.WriteString("## 📈 论文统计\n\n")
	fmt.Fprintf(b, "- **总抓取**: %d 篇\n", total)
	if total > 0 {
		fmt.Fprintf(b, "- **及格论文**: %d 篇 (%.1f%%)\n", qualified, float64(qualified)/float64(total)*100)
	} else {
		fmt.Fprintf(b, "- **及格论文**: %d 篇\n", qualified)
	}
	b.WriteString("\n---\n\n")
}

func (r *Reporter) writePaperSection(b *strings.Builder, idx int, p ScoredPaper, qualifiedSection bool) {
	paper := p.Paper
	result := p.Result

	title := paper.Title
	if qualifiedSection {
		if len([]rune(title)) > 100 {
			title = string([]rune(title)[:100])
		}
		fmt.Fprintf(b, "### %d. %s\n\n", idx, title)
	} else {
		icon := "❌"
		if result.IsQualified {
			icon = "✅"
		}
		fmt.Fprintf(b, "### %d. %s %s\n\n", idx, icon, title)
	}

	// 元数据
	fmt.Fprintf(b, "**作者**: %s\n\n", paper.AuthorsCSV())
	if paper.Venue != "" {
		fmt.Fprintf(b, "**期刊**: %s\n\n", paper.Venue)
	}
	if !paper.FirstSubmittedAt.IsZero() {
		fmt.Fprintf(b, "**发布日期**: %s\n\n", paper.FirstSubmittedAt.Format("2006-01-02"))
	}
	if paper.Comments != "" {
		fmt.Fprintf(b, "**备注**: %s\n\n", paper.Comments)
	}
	if paper.URL != "" {
		fmt.Fprintf(b, "**链接**: [%s](%s)\n\n", paper.URL, paper.URL)
	}

	// TLDR 与评分
	if result.TLDR != "" {
		fmt.Fprintf(b, "**TLDR**: %s\n\n", result.TLDR)
	}
	fmt.Fprintf(b, "**总分**: %.1f / 及格分 %.1f\n\n", result.TotalScore, result.PassingScore)

	if len(result.KeywordScores) > 0 {
		b.WriteString("| 关键词 | 得分 |\n|--------|------|\n")
		kws := make([]string, 0, len(result.KeywordScores))
		for kw := range result.KeywordScores {
			kws = append(kws, kw)
		}
		sort.Strings(kws)
		for _, kw := range kws {
			fmt.Fprintf(b, "| %s | %.1f |\n", kw, result.KeywordScores[kw])
		}
		b.WriteString("\n")
	}

	if result.AuthorBonus > 0 {
		fmt.Fprintf(b, "**作者加分**: +%.1f（%s）\n\n", result.AuthorBonus, strings.Join(result.ExpertAuthorsFound, ", "))
	}
	if result.Reasoning != "" {
		fmt.Fprintf(b, "**评分理由**: %s\n\n", result.Reasoning)
	}

	// 原文摘要折叠展示
	if paper.Abstract != "" {
		b.WriteString("<details>\n<summary>原文摘要</summary>\n\n")
		b.WriteString(paper.Abstract)
		b.WriteString("\n\n</details>\n\n")
	}

	b.WriteString("---\n\n")
}

// ShouldGenerateTrendReport 按配置的频率判断今天是否生成趋势报告
func (r *Reporter) ShouldGenerateTrendReport() bool {
	now := r.now()
	switch strings.ToLower(r.opts.TrendFrequency) {
	case "always", "daily":
		return true
	case "weekly":
		return now.Weekday() == time.Monday
	case "monthly":
		return now.Day() == 1
	default:
		r.log.Warn("未知的趋势报告频率: %s", r.opts.TrendFrequency)
		return false
	}
}

// GenerateTrendReport 生成关键词趋势报告，无数据时返回空路径
func (r *Reporter) GenerateTrendReport() (string, error) {
	if r.tracker == nil {
		return "", nil
	}

	stats, err := r.tracker.Stats()
	if err != nil {
		return "", fmt.Errorf("failed to load tracker stats: %w", err)
	}
	if stats.NormalizedKeywords == 0 {
		r.log.Info("暂无标准化关键词，跳过趋势报告")
		return "", nil
	}

	content, err := r.renderTrendReport(stats)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", nil
	}

	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}
	path := filepath.Join(r.opts.OutputDir, fmt.Sprintf("Keyword_Trends_%s.md", r.now().Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write trend report: %w", err)
	}

	r.log.Info("趋势报告已生成: %s", path)
	return path, nil
}

func (r *Reporter) renderTrendReport(stats *models.TrackerStats) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# 🔬 关键词趋势报告 (%s)\n\n", r.now().Format("2006-01-02"))
	fmt.Fprintf(&b, "> 已跟踪关键词 %d 个，标准化 %d 个，规范词 %d 个\n\n",
		stats.TotalKeywords, stats.NormalizedKeywords, stats.CanonicalKeywords)

	barChart, err := r.tracker.GenerateBarChart(r.opts.TrendDays, r.opts.TrendTopN, "Top Research Keywords")
	if err != nil {
		return "", fmt.Errorf("failed to generate bar chart: %w", err)
	}
	if barChart != "" {
		b.WriteString("## Top Keywords\n\n")
		b.WriteString(barChart)
		b.WriteString("\n\n")
	}

	trendChart, err := r.tracker.GenerateTrendChart(r.opts.TrendDays, nil, r.opts.TrendLineN, "Keyword Trends")
	if err != nil {
		return "", fmt.Errorf("failed to generate trend chart: %w", err)
	}
	if trendChart != "" {
		b.WriteString("## Keyword Trends Over Time\n\n")
		b.WriteString(trendChart)
		b.WriteString("\n\n")
	}

	top, err := r.tracker.GetTopKeywords(r.opts.TrendDays, r.opts.TrendTopN)
	if err != nil {
		return "", fmt.Errorf("failed to load top keywords: %w", err)
	}
	if len(top) > 0 {
		b.WriteString("## Keyword Statistics\n\n")
		b.WriteString("| Rank | Keyword | Count | Category |\n")
		b.WriteString("|------|---------|-------|----------|\n")
		for i, kw := range top {
			category := kw.Category
			if category == "" {
				category = "-"
			}
			fmt.Fprintf(&b, "| %d | %s | %d | %s |\n", i+1, kw.Keyword, kw.Total, category)
		}
		b.WriteString("\n")
	}

	if barChart == "" && trendChart == "" && len(top) == 0 {
		return "", nil
	}
	return b.String(), nil
}
