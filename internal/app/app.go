package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"PaperTrend/config"
	storage "PaperTrend/db"
	dbsqlite "PaperTrend/db/sqlite"
	"PaperTrend/internal/analysis"
	"PaperTrend/internal/core"
	exporter "PaperTrend/internal/core/export"
	csvexport "PaperTrend/internal/core/export/csv"
	jsonexport "PaperTrend/internal/core/export/json"
	emb "PaperTrend/internal/embedding"
	"PaperTrend/internal/models"
	"PaperTrend/internal/normalizer"
	"PaperTrend/internal/platform"
	"PaperTrend/internal/profile"
	"PaperTrend/internal/report"
	"PaperTrend/internal/tracker"
	"PaperTrend/pkg/logger"
	feishu "PaperTrend/pkg/upload/feishu"
)

// App 把存储、平台、评分、追踪和报告串成完整流水线
type App struct {
	cfg      *config.AppConfig
	store    *dbsqlite.SQLiteDB
	embedder emb.Service
	keywords profile.Keywords
	scorer   *analysis.Scorer
	tracker  *tracker.Tracker
	reporter *report.Reporter
}

func New(cfg *config.AppConfig) (*App, error) {
	databasePath := cfg.Database.Path
	if databasePath == "" {
		homeDir, _ := os.UserHomeDir()
		databasePath = filepath.Join(homeDir, ".papertrend", "data", "papertrend.db")
	}
	store, err := dbsqlite.NewSQLiteDB(databasePath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	embedSvc, err := emb.New(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("初始化 embedding 服务失败: %w", err)
	}

	oracle, err := normalizer.NewLLMOracle(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("初始化归一化模型失败: %w", err)
	}
	if oracle == nil {
		logger.Warn("未配置 LLM API Key，关键词归一化将退化为恒等映射")
	}
	norm := normalizer.New(oracle, cfg.Tracker.BatchSize)

	trk := tracker.New(store, norm, tracker.Options{
		DefaultDays: cfg.Tracker.Days,
		ChartTopN:   cfg.Tracker.ChartTopN,
		TrendTopN:   cfg.Tracker.TrendTopN,
		BatchSize:   cfg.Tracker.BatchSize,
	})

	scorer, err := analysis.NewScorer(cfg.ScoringLLM(), cfg.Scoring)
	if err != nil {
		return nil, fmt.Errorf("初始化评分模型失败: %w", err)
	}

	reporter := report.NewReporter(report.Options{
		OutputDir:      cfg.Report.OutputDir,
		BySource:       cfg.Report.BySource,
		IncludeAll:     cfg.Report.IncludeAll,
		TrendFrequency: cfg.Report.TrendFrequency,
		TrendDays:      cfg.Tracker.Days,
		TrendTopN:      cfg.Tracker.ChartTopN,
		TrendLineN:     cfg.Tracker.TrendTopN,
	}, trk, cfg.Scoring)

	return &App{
		cfg:      cfg,
		store:    store,
		embedder: embedSvc,
		keywords: profile.Keywords(cfg.Keywords.Keywords),
		scorer:   scorer,
		tracker:  trk,
		reporter: reporter,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *App) Store() storage.PaperStorage { return a.store }

func (a *App) Tracker() *tracker.Tracker { return a.tracker }

func (a *App) Reporter() *report.Reporter { return a.reporter }

// RunResult 一次完整流水线的运行摘要
type RunResult struct {
	Fetched       int
	Scored        int
	Qualified     int
	Normalization models.NormalizationRun
	ReportPaths   map[string]string
	TrendReport   string
	FeishuURL     string
}

// RunDaily 执行一次完整流水线: 抓取 -> 评分 -> 入库 -> 关键词追踪 -> 报告 -> 上传
func (a *App) RunDaily(ctx context.Context) (*RunResult, error) {
	result := &RunResult{ReportPaths: map[string]string{}}

	keywords, err := a.dedupKeywords(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := now.Format("2006-01-02")
	q := platform.Query{
		Categories: a.cfg.Search.Categories,
		Journals:   a.cfg.Search.Journals,
		DateFrom:   now.AddDate(0, 0, -a.cfg.Search.Days).Format("2006-01-02"),
		DateTo:     today,
		Limit:      a.cfg.Search.MaxResults,
	}

	var scored []report.ScoredPaper

	for _, source := range a.cfg.Search.EnabledSources {
		papers, err := a.crawl(ctx, source, q)
		if err != nil {
			logger.Error("[%s] 抓取失败: %v", source, err)
			continue
		}
		result.Fetched += len(papers)

		for _, p := range papers {
			processed, err := a.store.AlreadyProcessed(p.Source, p.SourceID)
			if err != nil {
				logger.Warn("查询处理状态失败 [%s]: %v", p.SourceID, err)
			}
			if processed {
				logger.Debug("跳过已处理论文: %s", p.Title)
				continue
			}

			scoreResult := a.scorer.Score(ctx, p, keywords)

			p.Score = scoreResult.TotalScore
			p.ScoreReason = scoreResult.Reasoning
			p.Keywords = scoreResult.ExtractedKeywords

			if _, err := a.store.Upsert(p); err != nil {
				logger.Error("保存论文失败 [%s]: %v", p.URL, err)
				continue
			}

			if a.cfg.Tracker.Enabled && len(p.Keywords) > 0 {
				a.tracker.RecordKeywords(p.Keywords, p.SourceID, p.Source, today)
			}

			scored = append(scored, report.ScoredPaper{Paper: p, Result: scoreResult})
			result.Scored++
			if scoreResult.IsQualified {
				result.Qualified++
			}
		}
	}

	logger.Info("评分完成: %d 篇，其中及格 %d 篇", result.Scored, result.Qualified)

	if a.cfg.Tracker.Enabled {
		result.Normalization = a.tracker.RunDailyNormalization(ctx)
	}

	if len(scored) > 0 {
		paths, err := a.reporter.GenerateBySource(scored, keywords)
		if err != nil {
			logger.Error("生成报告失败: %v", err)
		}
		result.ReportPaths = paths
	}

	if a.cfg.Tracker.Enabled && a.reporter.ShouldGenerateTrendReport() {
		path, err := a.reporter.GenerateTrendReport()
		if err != nil {
			logger.Error("生成趋势报告失败: %v", err)
		}
		result.TrendReport = path
	}

	if a.cfg.FeiShu.Enabled && len(scored) > 0 {
		url, err := a.uploadToFeishu(ctx, scored)
		if err != nil {
			logger.Error("飞书上传失败: %v", err)
		}
		result.FeishuURL = url
	}

	return result, nil
}

// crawl 通过平台注册表抓取一个数据源
func (a *App) crawl(ctx context.Context, source string, q platform.Query) ([]*models.Paper, error) {
	logger.Info("开始抓取平台: %s", source)
	prov, ok := core.Get(source)
	if !ok {
		return nil, fmt.Errorf("未知或未实现的平台: %s", source)
	}

	pcfg := a.platformConfig(source)
	if pcfg == nil {
		logger.Debug("使用平台默认配置: %s", source)
		pcfg = prov.DefaultConfig()
	}

	plat, err := prov.New(pcfg)
	if err != nil {
		return nil, fmt.Errorf("创建平台实例失败: %w", err)
	}

	res, err := plat.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("爬取失败: %w", err)
	}

	logger.Info("[%s] 搜索返回 %d 篇论文", source, len(res.Papers))
	return res.Papers, nil
}

func (a *App) platformConfig(source string) platform.Config {
	switch source {
	case "arxiv":
		return &a.cfg.Arxiv
	case "openalex":
		return &a.cfg.OpenAlex
	default:
		return nil
	}
}

// dedupKeywords 对研究画像做一次语义去重
func (a *App) dedupKeywords(ctx context.Context) (profile.Keywords, error) {
	if len(a.keywords) == 0 {
		return nil, fmt.Errorf("研究画像为空，请在配置中设置 profile.keywords")
	}

	dedup := profile.NewDeduplicator(a.embedder, a.cfg.Keywords.SimilarityThreshold)
	deduped := dedup.Deduplicate(ctx, a.keywords)
	if len(deduped) < len(a.keywords) {
		logger.Info("关键词去重: %d -> %d", len(a.keywords), len(deduped))
	}
	return deduped, nil
}

func (a *App) uploadToFeishu(ctx context.Context, scored []report.ScoredPaper) (string, error) {
	if a.cfg.FeiShu.AppID == "" || a.cfg.FeiShu.AppSecret == "" {
		return "", fmt.Errorf("飞书配置不完整，请设置 feishu.app_id 和 feishu.app_secret")
	}

	papers := make([]*models.Paper, 0, len(scored))
	for _, s := range scored {
		papers = append(papers, s.Paper)
	}

	tableName := a.cfg.FeiShu.TableName
	if tableName == "" {
		tableName = fmt.Sprintf("PaperTrend %s", time.Now().Format("2006-01-02"))
	}

	client := feishu.NewClient(a.cfg.FeiShu.AppID, a.cfg.FeiShu.AppSecret, tableName)
	return client.UploadPapers(ctx, papers)
}

// UploadCSVToFeishu 把本地 CSV 上传为飞书多维表格
func (a *App) UploadCSVToFeishu(ctx context.Context, csvPath string) (string, error) {
	if a.cfg.FeiShu.AppID == "" || a.cfg.FeiShu.AppSecret == "" {
		return "", fmt.Errorf("飞书配置不完整，请设置 feishu.app_id 和 feishu.app_secret")
	}

	tableName := a.cfg.FeiShu.TableName
	if tableName == "" {
		tableName = filepath.Base(csvPath)
	}

	client := feishu.NewClient(a.cfg.FeiShu.AppID, a.cfg.FeiShu.AppSecret, tableName)
	return client.UploadCSV(ctx, csvPath)
}

// ExportPapers 导出最近 days 天的论文到文件
func (a *App) ExportPapers(format, outputPath string, days, limit int) error {
	logger.Info("开始导出论文: 格式=%s, 输出=%s", format, outputPath)

	papers, err := a.store.GetRecentPapers(days, limit)
	if err != nil {
		return fmt.Errorf("查询论文失败: %w", err)
	}
	if len(papers) == 0 {
		return fmt.Errorf("没有找到符合条件的论文")
	}

	var exp exporter.Exporter
	switch format {
	case "csv":
		exp = csvexport.NewCSVExporter()
	case "json":
		exp = jsonexport.NewJSONExporter()
	default:
		return fmt.Errorf("不支持的导出格式: %s", format)
	}

	if err := exp.Export(papers, outputPath); err != nil {
		return fmt.Errorf("导出失败: %w", err)
	}

	logger.Info("导出成功: %d 篇论文 -> %s", len(papers), outputPath)
	return nil
}
