package normalizer

import (
	"context"

	"PaperTrend/internal/models"
	"PaperTrend/pkg/logger"
)

// Oracle 对一批关键词给出归并结果。一次调用处理一个批次
type Oracle interface {
	Normalize(ctx context.Context, keywords []string, existingCanonical []string) ([]models.NormalizationResult, error)
}

// Normalizer 关键词归一化器，负责分批调用 Oracle 并在失败时降级：
// 每个关键词原样作为独立规范形式，置信度 0.5
type Normalizer struct {
	oracle    Oracle
	batchSize int
}

const defaultBatchSize = 50

func New(oracle Oracle, batchSize int) *Normalizer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Normalizer{oracle: oracle, batchSize: batchSize}
}

// NormalizeBatch 批量归一化。分批提交，单批失败只影响该批，
// 整体永不返回错误
func (n *Normalizer) NormalizeBatch(ctx context.Context, keywords []string, existingCanonical []string) []models.NormalizationResult {
	if len(keywords) == 0 {
		return nil
	}

	var all []models.NormalizationResult
	for i := 0; i < len(keywords); i += n.batchSize {
		end := i + n.batchSize
		if end > len(keywords) {
			end = len(keywords)
		}
		batch := keywords[i:end]

		if n.oracle == nil {
			all = append(all, identityResults(batch)...)
			continue
		}

		results, err := n.oracle.Normalize(ctx, batch, existingCanonical)
		if err != nil {
			logger.Error("标准化批次失败: %v", err)
			all = append(all, identityResults(batch)...)
			continue
		}
		all = append(all, results...)
	}

	return all
}

func identityResults(keywords []string) []models.NormalizationResult {
	results := make([]models.NormalizationResult, 0, len(keywords))
	for _, kw := range keywords {
		results = append(results, models.NormalizationResult{
			CanonicalForm:    kw,
			OriginalKeywords: []string{kw},
			Confidence:       0.5,
		})
	}
	return results
}
