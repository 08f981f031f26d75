package tracker

import (
	"context"
	"fmt"
	"strings"

	"PaperTrend/db"
	"PaperTrend/internal/chart"
	"PaperTrend/internal/models"
	"PaperTrend/internal/normalizer"
	"PaperTrend/pkg/logger"
)

// Options 追踪器的运行参数
type Options struct {
	DefaultDays int // 图表和排名的默认回溯窗口
	ChartTopN   int // 柱状图关键词数量
	TrendTopN   int // 趋势线图关键词数量
	BatchSize   int // 归一化每批数量
}

func DefaultOptions() Options {
	return Options{
		DefaultDays: 30,
		ChartTopN:   15,
		TrendTopN:   5,
		BatchSize:   50,
	}
}

// Tracker 关键词趋势追踪器，协调存储、归一化和图表生成
type Tracker struct {
	store      db.TrackerStorage
	normalizer *normalizer.Normalizer
	chart      *chart.Generator
	opts       Options
	log        *logger.Logger
}

func New(store db.TrackerStorage, n *normalizer.Normalizer, opts Options) *Tracker {
	if opts.DefaultDays <= 0 {
		opts.DefaultDays = 30
	}
	if opts.ChartTopN <= 0 {
		opts.ChartTopN = 15
	}
	if opts.TrendTopN <= 0 {
		opts.TrendTopN = 5
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}

	return &Tracker{
		store:      store,
		normalizer: n,
		chart:      chart.NewGenerator(),
		opts:       opts,
		log:        logger.WithPrefix("tracker"),
	}
}

// RecordKeywords 记录一篇论文的关键词。失败只记日志，不打断采集流程
func (t *Tracker) RecordKeywords(keywords []string, paperID, source, extractedDate string) {
	if len(keywords) == 0 {
		return
	}

	inserted, err := t.store.InsertKeywords(keywords, paperID, source, extractedDate)
	if err != nil {
		t.log.Error("记录关键词失败: %v", err)
		return
	}
	t.log.Debug("记录 %d 个关键词 (论文: %s)", len(inserted), paperID)
}

// RunDailyNormalization 运行每日归一化：取 2 倍批大小的待处理词交给 LLM 归并，
// 置信度低于 0.5 的结果丢弃，最后重算当日统计
func (t *Tracker) RunDailyNormalization(ctx context.Context) models.NormalizationRun {
	var run models.NormalizationRun

	unnormalized, err := t.store.GetUniqueUnnormalizedKeywords(t.opts.BatchSize * 2)
	if err != nil {
		t.log.Error("获取待归一化关键词失败: %v", err)
		return run
	}
	if len(unnormalized) == 0 {
		t.log.Info("没有待标准化的关键词")
		return run
	}

	t.log.Info("开始标准化 %d 个关键词...", len(unnormalized))

	existingCanonical, err := t.store.GetAllCanonicalKeywords()
	if err != nil {
		t.log.Error("获取规范关键词失败: %v", err)
		return run
	}

	existingSet := make(map[string]struct{}, len(existingCanonical))
	for _, c := range existingCanonical {
		existingSet[strings.ToLower(c)] = struct{}{}
	}

	results := t.normalizer.NormalizeBatch(ctx, unnormalized, existingCanonical)

	for _, result := range results {
		if result.Confidence < 0.5 {
			continue
		}

		normalizedID, err := t.store.GetOrCreateNormalizedKeyword(result.CanonicalForm, result.Category)
		if err != nil {
			t.log.Error("创建规范关键词 '%s' 失败: %v", result.CanonicalForm, err)
			continue
		}

		if _, ok := existingSet[strings.ToLower(result.CanonicalForm)]; !ok {
			run.NewCanonical++
		}

		for _, rawKw := range result.OriginalKeywords {
			if err := t.store.AddKeywordAlias(rawKw, normalizedID, result.Confidence); err != nil {
				t.log.Error("写入别名 '%s' 失败: %v", rawKw, err)
				continue
			}

			linked, err := t.store.LinkKeywordsToNormalized(rawKw, normalizedID)
			if err != nil {
				t.log.Error("关联 '%s' 失败: %v", rawKw, err)
				continue
			}
			run.Merged += linked
		}

		run.Processed += len(result.OriginalKeywords)
	}

	if err := t.store.UpdateDailyCounts(""); err != nil {
		t.log.Error("更新每日统计失败: %v", err)
	}

	t.log.Info("标准化完成: 处理 %d, 新增规范词 %d, 合并 %d",
		run.Processed, run.NewCanonical, run.Merged)

	return run
}

// GetTopKeywords 获取热门关键词，days/limit 为 0 时取默认值
func (t *Tracker) GetTopKeywords(days, limit int) ([]models.KeywordCount, error) {
	if days <= 0 {
		days = t.opts.DefaultDays
	}
	if limit <= 0 {
		limit = t.opts.ChartTopN
	}
	return t.store.GetTopKeywords(days, limit)
}

// GetTrends 获取关键词趋势数据
func (t *Tracker) GetTrends(days int, keywords []string, limit int) ([]models.KeywordTrendData, error) {
	if days <= 0 {
		days = t.opts.DefaultDays
	}
	if limit <= 0 {
		limit = t.opts.TrendTopN
	}
	return t.store.GetKeywordTrends(days, keywords, limit)
}

// GenerateBarChart 生成热门关键词柱状图，无数据时返回空串
func (t *Tracker) GenerateBarChart(days, limit int, title string) (string, error) {
	if days <= 0 {
		days = t.opts.DefaultDays
	}
	if limit <= 0 {
		limit = t.opts.ChartTopN
	}
	if title == "" {
		title = "Top Research Keywords"
	}

	top, err := t.store.GetTopKeywords(days, limit)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "", nil
	}

	fullTitle := fmt.Sprintf("%s (Last %d Days)", title, days)
	return t.chart.BarChart(top, fullTitle, ""), nil
}

// GenerateTrendChart 生成关键词趋势线图，无数据时返回空串
func (t *Tracker) GenerateTrendChart(days int, keywords []string, limit int, title string) (string, error) {
	if days <= 0 {
		days = t.opts.DefaultDays
	}
	if limit <= 0 {
		limit = t.opts.TrendTopN
	}
	if title == "" {
		title = "Keyword Trends"
	}

	trends, err := t.store.GetKeywordTrends(days, keywords, limit)
	if err != nil {
		return "", err
	}
	if len(trends) == 0 {
		return "", nil
	}

	return t.chart.LineChart(trends, title, days, 7), nil
}

// Stats 获取关键词库统计
func (t *Tracker) Stats() (*models.TrackerStats, error) {
	return t.store.GetStats()
}
