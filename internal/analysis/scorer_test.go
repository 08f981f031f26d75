package analysis

import (
	"math"
	"testing"

	"PaperTrend/config"
	"PaperTrend/internal/models"
	"PaperTrend/internal/profile"
)

func testPaper() *models.Paper {
	return &models.Paper{
		Title:    "Fault-tolerant quantum error correction with surface codes",
		Authors:  []string{"Alice Smith", "Bob Jones"},
		Abstract: "We study logical qubit lifetimes under realistic noise.",
	}
}

func TestParseScoreResponse(t *testing.T) {
	content := "```json\n" + `{
  "keyword_scores": {"qubit": 8.0, "entanglement": 5.0},
  "expert_authors_found": ["Alice Smith"],
  "reasoning": "核心内容高度相关",
  "tldr": "研究了量子比特纠错。",
  "extracted_keywords": ["quantum error correction"]
}` + "\n```"

	payload, err := parseScoreResponse(content)
	if err != nil {
		t.Fatal(err)
	}
	if payload.KeywordScores["qubit"] != 8.0 {
		t.Errorf("keyword_scores 解析错误: %+v", payload.KeywordScores)
	}
	if len(payload.ExpertAuthorsFound) != 1 {
		t.Errorf("expert_authors_found 解析错误: %+v", payload.ExpertAuthorsFound)
	}
}

func TestParseScoreResponseDefaults(t *testing.T) {
	payload, err := parseScoreResponse(`{}`)
	if err != nil {
		t.Fatal(err)
	}
	if payload.Reasoning != "无详细理由" || payload.TLDR != "无摘要" {
		t.Errorf("缺省字段错误: %+v", payload)
	}
	if payload.KeywordScores == nil {
		t.Error("keyword_scores 应初始化为空 map")
	}
}

func TestParseScoreResponseInvalid(t *testing.T) {
	if _, err := parseScoreResponse("not json"); err == nil {
		t.Error("非法输入应报错")
	}
}

func TestZeroResultWithoutModel(t *testing.T) {
	s, err := NewScorer(config.LLMConfig{}, config.ScoringConfig{
		PassingScoreBase:        3.0,
		PassingScoreCoefficient: 2.5,
	})
	if err != nil {
		t.Fatal(err)
	}

	keywords := profile.Keywords{"qubit": 1.0, "entanglement": 0.5}
	result := s.Score(t.Context(), testPaper(), keywords)

	if result.TotalScore != 0 || result.IsQualified {
		t.Errorf("未配置评分器应返回零分: %+v", result)
	}
	// 及格分 = 3.0 + 2.5 × 1.5 = 6.75
	if math.Abs(result.PassingScore-6.75) > 1e-9 {
		t.Errorf("passing = %v, want 6.75", result.PassingScore)
	}
	if len(result.KeywordScores) != 2 {
		t.Errorf("零分结果应覆盖全部关键词: %+v", result.KeywordScores)
	}
}
