package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"PaperTrend/internal/core"
	"PaperTrend/internal/models"
	"PaperTrend/internal/platform"
	"PaperTrend/pkg/logger"
)

type Adapter struct {
	config     *Config
	httpClient *http.Client
}

func NewAdapter(config *Config) (*Adapter, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := core.NewHTTPClient(config.Timeout, config.Proxy)

	return &Adapter{
		config:     config,
		httpClient: client,
	}, nil
}

func (a *Adapter) Name() string { return "openalex" }

func (a *Adapter) GetConfig() platform.Config { return a.config }

// Search 按期刊代码逐个抓取最近的论文，期刊之间互不影响
func (a *Adapter) Search(ctx context.Context, q platform.Query) (platform.Result, error) {
	if len(q.Journals) == 0 {
		logger.Warn("[OpenAlex] 未指定期刊，跳过抓取")
		return platform.Result{}, nil
	}

	logger.Info("[OpenAlex] 开始抓取期刊论文: %s", strings.Join(q.Journals, ", "))

	var allPapers []*models.Paper
	totalFound := 0

	for _, code := range q.Journals {
		journal, ok := LookupJournal(code)
		if !ok {
			logger.Warn("[OpenAlex] 未知期刊代码: %s，跳过", code)
			continue
		}

		papers, total, err := a.fetchJournal(ctx, normalizeJournalCode(code), journal, q)
		if err != nil {
			logger.Error("[OpenAlex] %s 抓取失败: %v", journal.DisplayName, err)
			continue
		}

		logger.Info("[OpenAlex] %s: 发现 %d 篇论文", journal.DisplayName, len(papers))
		allPapers = append(allPapers, papers...)
		totalFound += total
	}

	logger.Info("[OpenAlex] 抓取完成，共 %d 篇论文", len(allPapers))
	return platform.Result{Total: totalFound, Papers: allPapers}, nil
}

// fetchJournal 抓取单个期刊（支持分页）
func (a *Adapter) fetchJournal(ctx context.Context, journalCode string, journal JournalInfo, q platform.Query) ([]*models.Paper, int, error) {
	targetLimit := q.Limit
	if targetLimit == 0 {
		targetLimit = 100
	}
	perPage := a.config.PerPage
	if perPage > targetLimit {
		perPage = targetLimit
	}

	var papers []*models.Paper
	total := 0
	page := 1

	for len(papers) < targetLimit {
		apiURL := a.buildWorksURL(journal, q, page, perPage)
		logger.Debug("[OpenAlex] 请求第 %d 页: %s", page, journal.DisplayName)

		content, err := a.request(ctx, apiURL)
		if err != nil {
			return papers, total, fmt.Errorf("API request failed: %w", err)
		}

		var resp worksResponse
		if err := json.Unmarshal([]byte(content), &resp); err != nil {
			return papers, total, fmt.Errorf("failed to parse API response: %w", err)
		}

		total = resp.Meta.Count
		if len(resp.Results) == 0 {
			break
		}

		for _, w := range resp.Results {
			paper := parseWork(w, journalCode, journal)
			if paper == nil {
				continue
			}
			if paper.Abstract == "" {
				logger.Warn("[OpenAlex] [%s] 未提供摘要数据（可能因期刊版权限制）", truncate(paper.Title, 30))
			}
			papers = append(papers, paper)
			if len(papers) >= targetLimit {
				break
			}
		}

		page++
		time.Sleep(200 * time.Millisecond) // 限流保护
	}

	return papers, total, nil
}

// buildWorksURL 构建 /works 查询 URL
func (a *Adapter) buildWorksURL(journal JournalInfo, q platform.Query, page, perPage int) string {
	filters := []string{
		"primary_location.source.issn:" + strings.Join(journal.ISSN, "|"),
	}
	if q.DateFrom != "" {
		filters = append(filters, "from_publication_date:"+q.DateFrom)
	}
	if q.DateTo != "" {
		filters = append(filters, "to_publication_date:"+q.DateTo)
	}

	params := url.Values{}
	params.Add("filter", strings.Join(filters, ","))
	params.Add("per_page", fmt.Sprintf("%d", perPage))
	params.Add("page", fmt.Sprintf("%d", page))
	params.Add("sort", "publication_date:desc")
	params.Add("select", "id,doi,title,authorships,abstract_inverted_index,publication_date,primary_location,locations")

	// API Key 优先级高于礼貌池邮箱
	if a.config.APIKey != "" {
		params.Add("api_key", a.config.APIKey)
	} else if a.config.Email != "" {
		params.Add("mailto", a.config.Email)
	}

	return a.config.BaseURL + "/works?" + params.Encode()
}

func (a *Adapter) request(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", "PaperTrend/1.0")
		req.Header.Set("Accept", "application/json")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < 2 {
				time.Sleep(time.Duration(1<<attempt) * time.Second)
				continue
			}
			break
		}
		if resp.StatusCode != http.StatusOK {
			// 排空并关闭，让连接能被复用
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP error: %d", resp.StatusCode)
			if attempt < 2 {
				time.Sleep(time.Duration(1<<attempt) * time.Second)
				continue
			}
			break
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}
		return string(body), nil
	}
	return "", lastErr
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
