package profile

import (
	"context"
	"sort"
	"strings"

	"PaperTrend/internal/embedding"
	"PaperTrend/pkg/logger"
	"PaperTrend/pkg/similarity"
)

// Keywords 关键词到权重的映射，权重越高对评分影响越大
type Keywords map[string]float64

// TotalWeight 所有关键词权重之和
func (k Keywords) TotalWeight() float64 {
	total := 0.0
	for _, w := range k {
		total += w
	}
	return total
}

// Merge 合并两组关键词，dst 中已有的不被覆盖
func Merge(dst, src Keywords) Keywords {
	merged := make(Keywords, len(dst)+len(src))
	for kw, w := range dst {
		merged[kw] = w
	}
	for kw, w := range src {
		if _, ok := merged[kw]; !ok {
			merged[kw] = w
		}
	}
	return merged
}

// MergeKeepHigher 合并两组关键词，同名关键词保留更高的权重
func MergeKeepHigher(dst, src Keywords) Keywords {
	merged := make(Keywords, len(dst)+len(src))
	for kw, w := range dst {
		merged[kw] = w
	}
	for kw, w := range src {
		if old, ok := merged[kw]; !ok || w > old {
			merged[kw] = w
		}
	}
	return merged
}

// PassingScore 动态及格分：base + coefficient × Σ(关键词权重)
func PassingScore(base, coefficient, totalWeight float64) float64 {
	return base + coefficient*totalWeight
}

// Deduplicator 相似关键词去重器。配置了向量服务时用余弦相似度，
// 否则退回字符串相似度
type Deduplicator struct {
	embedder  embedding.Service
	threshold float64
}

func NewDeduplicator(embedder embedding.Service, threshold float64) *Deduplicator {
	if threshold <= 0 {
		threshold = 0.75
	}
	return &Deduplicator{embedder: embedder, threshold: threshold}
}

// Deduplicate 去除相似关键词，保留权重更高的那个。
// 权重相同时保留字典序靠前的，保证结果稳定
func (d *Deduplicator) Deduplicate(ctx context.Context, keywords Keywords) Keywords {
	if len(keywords) == 0 {
		return Keywords{}
	}

	list := make([]entry, 0, len(keywords))
	for kw, w := range keywords {
		list = append(list, entry{kw: kw, weight: w})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].weight != list[j].weight {
			return list[i].weight > list[j].weight
		}
		return list[i].kw < list[j].kw
	})

	vectors := d.embedKeywords(ctx, list)

	deduplicated := make(Keywords)
	var kept []int
	removed := 0

	for i, e := range list {
		isDuplicate := false
		for _, j := range kept {
			var sim float64
			if vectors != nil {
				sim = similarity.Cosine(vectors[i], vectors[j])
			} else {
				sim = similarity.StringRatio(e.kw, list[j].kw)
			}
			if sim >= d.threshold {
				logger.Debug("去重: '%s' 与 '%s' 相似度 %.2f >= %.2f，已跳过",
					e.kw, list[j].kw, sim, d.threshold)
				isDuplicate = true
				removed++
				break
			}
		}
		if !isDuplicate {
			deduplicated[e.kw] = e.weight
			kept = append(kept, i)
		}
	}

	if removed > 0 {
		logger.Info("关键词去重: 移除了 %d 个相似关键词", removed)
	}

	return deduplicated
}

type entry struct {
	kw     string
	weight float64
}

// embedKeywords 为全部关键词取向量，向量服务不可用时返回 nil
func (d *Deduplicator) embedKeywords(ctx context.Context, list []entry) [][]float32 {
	if d.embedder == nil {
		return nil
	}

	texts := make([]string, 0, len(list))
	for _, e := range list {
		texts = append(texts, strings.ToLower(e.kw))
	}

	vecs, err := d.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(vecs) != len(list) {
		if err != nil {
			logger.Debug("关键词向量化不可用，退回字符串相似度: %v", err)
		}
		return nil
	}
	return vecs
}
