package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"PaperTrend/config"
	"PaperTrend/internal/models"
	"PaperTrend/pkg/logger"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
)

// maxKnownCanonical 提示词里最多携带的已知规范词数量
const maxKnownCanonical = 50

// generateTimeout 单次 LLM 调用的超时上限
const generateTimeout = 2 * time.Minute

type llmOracle struct {
	model *openai.ChatModel
}

// NewLLMOracle 创建基于 LLM 的归并 Oracle。未配置 API Key 时返回 nil，
// 上层自动走降级路径
func NewLLMOracle(cfg config.LLMConfig) (Oracle, error) {
	if cfg.APIKey == "" {
		logger.Warn("LLM API Key 未配置，关键词归一化使用降级方案")
		return nil, nil
	}

	ctx := context.Background()
	temp := float32(cfg.Temperature)
	if temp <= 0 {
		temp = 0.3
	}

	model, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.ModelName,
		BaseURL:     cfg.BaseURL,
		Temperature: &temp,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 LLM 客户端失败: %w", err)
	}

	return &llmOracle{model: model}, nil
}

func (o *llmOracle) Normalize(ctx context.Context, keywords []string, existingCanonical []string) ([]models.NormalizationResult, error) {
	prompt := buildNormalizePrompt(keywords, existingCanonical)

	messages := []*schema.Message{
		{
			Role:    schema.System,
			Content: "你是学术关键词标准化专家。请严格按照JSON格式输出。",
		},
		{
			Role:    schema.User,
			Content: prompt,
		},
	}

	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	resp, err := o.model.Generate(genCtx, messages)
	if err != nil {
		return nil, fmt.Errorf("LLM 调用失败: %w", err)
	}

	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("LLM 返回空内容")
	}

	return parseNormalizeResponse(resp.Content)
}

func buildNormalizePrompt(keywords []string, existingCanonical []string) string {
	existingStr := ""
	if len(existingCanonical) > 0 {
		known := existingCanonical
		if len(known) > maxKnownCanonical {
			known = known[:maxKnownCanonical]
		}
		knownJSON, _ := json.MarshalIndent(known, "", "  ")
		existingStr = fmt.Sprintf("\n已知的规范关键词列表（优先映射到这些）：\n%s\n", knownJSON)
	}

	kwJSON, _ := json.MarshalIndent(keywords, "", "  ")

	return fmt.Sprintf(`请对以下学术关键词进行标准化处理。

任务：
1. 识别同义词、缩写、拼写变体，将它们合并为规范形式
2. 选择最规范、最常用的形式作为 canonical_form
3. 如果可以归类，提供 category（如：quantum, machine_learning, optimization, neural_network 等）
4. 给出归并的置信度（0.5-1.0）
%s
待处理关键词：
%s

输出 JSON 格式：
{
  "normalizations": [
    {
      "canonical_form": "quantum computing",
      "original_keywords": ["QC", "quantum computation", "quantum computing"],
      "category": "quantum",
      "confidence": 0.95
    }
  ]
}

要求：
- 每个原始关键词必须且只能出现在一个组中
- 保持学术术语的准确性
- 英文关键词统一用小写（专有名词除外）
- 如果某个关键词无法归类，单独作为一组`, existingStr, kwJSON)
}

func parseNormalizeResponse(content string) ([]models.NormalizationResult, error) {
	// 清理可能获得的 markdown 的格式输出
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

	var payload struct {
		Normalizations []struct {
			CanonicalForm    string   `json:"canonical_form"`
			OriginalKeywords []string `json:"original_keywords"`
			Category         string   `json:"category"`
			Confidence       *float64 `json:"confidence"`
		} `json:"normalizations"`
	}

	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		logger.Error("JSON 解析失败，原始内容: %.500s", content)
		return nil, fmt.Errorf("JSON 解析失败: %w", err)
	}

	if len(payload.Normalizations) == 0 {
		return nil, fmt.Errorf("返回的normalizations为空")
	}

	results := make([]models.NormalizationResult, 0, len(payload.Normalizations))
	for _, norm := range payload.Normalizations {
		if strings.TrimSpace(norm.CanonicalForm) == "" {
			return nil, fmt.Errorf("存在空的canonical_form")
		}
		if len(norm.OriginalKeywords) == 0 {
			return nil, fmt.Errorf("'%s' 缺少original_keywords", norm.CanonicalForm)
		}

		confidence := 0.9
		if norm.Confidence != nil {
			confidence = *norm.Confidence
		}

		originals := make([]string, 0, len(norm.OriginalKeywords))
		for _, kw := range norm.OriginalKeywords {
			originals = append(originals, strings.ToLower(kw))
		}

		results = append(results, models.NormalizationResult{
			CanonicalForm:    strings.ToLower(norm.CanonicalForm),
			OriginalKeywords: originals,
			Category:         norm.Category,
			Confidence:       confidence,
		})
	}

	return results, nil
}
