package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"PaperTrend/config"
	"PaperTrend/internal/models"
	"PaperTrend/internal/profile"
	"PaperTrend/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
)

// ScoreResult 一篇论文的加权评分结果
type ScoreResult struct {
	TotalScore         float64            `json:"total_score"`
	KeywordScores      map[string]float64 `json:"keyword_scores"`
	AuthorBonus        float64            `json:"author_bonus"`
	ExpertAuthorsFound []string           `json:"expert_authors_found"`
	PassingScore       float64            `json:"passing_score"`
	IsQualified        bool               `json:"is_qualified"`
	Reasoning          string             `json:"reasoning"`
	TLDR               string             `json:"tldr"`
	ExtractedKeywords  []string           `json:"extracted_keywords"`
}

// Scorer 论文评分器。总分 = Σ(关键词相关度 × 权重) + 作者附加分，
// 与动态及格分比较决定是否入选
type Scorer struct {
	model *openai.ChatModel
	cfg   config.ScoringConfig
	log   *logger.Logger
}

func NewScorer(llm config.LLMConfig, cfg config.ScoringConfig) (*Scorer, error) {
	s := &Scorer{cfg: cfg, log: logger.WithPrefix("scorer")}

	if llm.APIKey == "" {
		logger.Warn("LLM API Key 未配置，论文评分返回零分")
		return s, nil
	}

	temp := float32(llm.Temperature)
	if temp == 0 {
		temp = 0.3
	}

	model, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
		APIKey:      llm.APIKey,
		Model:       llm.ModelName,
		BaseURL:     llm.BaseURL,
		Temperature: &temp,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 LLM 客户端失败: %w", err)
	}

	s.model = model
	return s, nil
}

// Score 对一篇论文评分。LLM 失败时返回零分结果，不中断流水线
func (s *Scorer) Score(ctx context.Context, paper *models.Paper, keywords profile.Keywords) *ScoreResult {
	totalWeight := keywords.TotalWeight()
	passing := profile.PassingScore(s.cfg.PassingScoreBase, s.cfg.PassingScoreCoefficient, totalWeight)

	if s.model == nil {
		return s.zeroResult(keywords, passing, "评分器未配置")
	}

	prompt := s.buildScorePrompt(paper, keywords, totalWeight, passing)

	resp, err := s.model.Generate(ctx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		s.log.Error("论文评分失败: %v", err)
		return s.zeroResult(keywords, passing, fmt.Sprintf("评分失败: %v", err))
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return s.zeroResult(keywords, passing, "LLM 返回空响应")
	}

	parsed, err := parseScoreResponse(resp.Content)
	if err != nil {
		s.log.Error("解析评分响应失败: %v", err)
		return s.zeroResult(keywords, passing, fmt.Sprintf("解析失败: %v", err))
	}

	// 加权总分由本地计算，不信任模型的算术
	weightedScore := 0.0
	for kw, weight := range keywords {
		weightedScore += parsed.KeywordScores[kw] * weight
	}

	authorBonus := 0.0
	if s.cfg.EnableAuthorBonus && len(parsed.ExpertAuthorsFound) > 0 {
		authorBonus = float64(len(parsed.ExpertAuthorsFound)) * s.cfg.AuthorBonusPoints
	}

	totalScore := weightedScore + authorBonus

	result := &ScoreResult{
		TotalScore:         totalScore,
		KeywordScores:      parsed.KeywordScores,
		AuthorBonus:        authorBonus,
		ExpertAuthorsFound: parsed.ExpertAuthorsFound,
		PassingScore:       passing,
		IsQualified:        totalScore >= passing,
		Reasoning:          parsed.Reasoning,
		TLDR:               parsed.TLDR,
		ExtractedKeywords:  parsed.ExtractedKeywords,
	}

	s.log.Info("论文评分完成: 总分=%.1f, 及格分=%.1f, 及格=%v",
		result.TotalScore, result.PassingScore, result.IsQualified)

	return result
}

func (s *Scorer) zeroResult(keywords profile.Keywords, passing float64, reason string) *ScoreResult {
	scores := make(map[string]float64, len(keywords))
	for kw := range keywords {
		scores[kw] = 0
	}
	return &ScoreResult{
		KeywordScores:     scores,
		PassingScore:      passing,
		Reasoning:         reason,
		TLDR:              "评分失败，无法生成摘要",
		ExtractedKeywords: []string{},
	}
}

func (s *Scorer) buildScorePrompt(paper *models.Paper, keywords profile.Keywords, totalWeight, passing float64) string {
	var kwLines []string
	for kw, weight := range keywords {
		kwLines = append(kwLines, fmt.Sprintf("  - %s (权重: %.1f)", kw, weight))
	}

	expertStr := "无"
	if len(s.cfg.ExpertAuthors) > 0 {
		expertStr = strings.Join(s.cfg.ExpertAuthors, ", ")
	}

	context := s.cfg.ResearchContext
	if context == "" {
		context = "通用学术研究"
	}

	maxScore := s.cfg.MaxScorePerKeyword
	if maxScore <= 0 {
		maxScore = 10
	}

	return fmt.Sprintf(`你是一名学术论文评审专家。请基于以下关键词对论文进行相关性评分，并提取论文信息。

研究背景:
%s

评分关键词及权重:
%s

论文信息:
标题: %s
作者: %s
摘要: %s

评分任务:
1. 理解论文的研究内容和主题
2. 对每个关键词评估相关度（0-%d分）:
   - 0分: 完全无关
   - 5分: 有一定关联
   - %d分: 高度相关，核心内容
3. 检查作者列表是否包含以下专家: %s
   - 如果包含，每位专家加 %.1f 分
4. 用一句话总结论文研究的问题和结果（TLDR）
5. 从标题和摘要中提取5-8个核心关键词（英文）

评分标准:
- 关键词总权重: %.1f
- 动态及格分: %.1f

输出格式: JSON对象，包含以下字段:
{
  "keyword_scores": {"关键词1": 8.0, "关键词2": 5.0},
  "expert_authors_found": ["Author1"],
  "reasoning": "详细的评分理由和分析",
  "tldr": "一句话总结论文研究的核心问题和主要结果",
  "extracted_keywords": ["keyword1", "keyword2"]
}

要求:
- keyword_scores 必须包含所有给定的关键词
- 每个关键词的评分范围: 0-%d
- reasoning 应简明扼要地说明论文与关键词的相关性
- extracted_keywords 应提取5-8个最能代表论文内容的关键词或短语`,
		context, strings.Join(kwLines, "\n"),
		paper.Title, paper.AuthorsCSV(), paper.Abstract,
		maxScore, maxScore, expertStr, s.cfg.AuthorBonusPoints,
		totalWeight, passing, maxScore)
}

type scorePayload struct {
	KeywordScores      map[string]float64 `json:"keyword_scores"`
	ExpertAuthorsFound []string           `json:"expert_authors_found"`
	Reasoning          string             `json:"reasoning"`
	TLDR               string             `json:"tldr"`
	ExtractedKeywords  []string           `json:"extracted_keywords"`
}

func parseScoreResponse(content string) (*scorePayload, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx != -1 && endIdx != -1 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("JSON 解析失败: %w", err)
	}

	if payload.KeywordScores == nil {
		payload.KeywordScores = map[string]float64{}
	}
	if payload.Reasoning == "" {
		payload.Reasoning = "无详细理由"
	}
	if payload.TLDR == "" {
		payload.TLDR = "无摘要"
	}

	return &payload, nil
}
