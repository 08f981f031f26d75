package normalizer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"PaperTrend/internal/models"
)

type fakeOracle struct {
	calls   [][]string
	results []models.NormalizationResult
	err     error
}

func (f *fakeOracle) Normalize(_ context.Context, keywords []string, _ []string) ([]models.NormalizationResult, error) {
	f.calls = append(f.calls, keywords)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestNormalizeBatchChunking(t *testing.T) {
	oracle := &fakeOracle{
		results: []models.NormalizationResult{
			{CanonicalForm: "qubit", OriginalKeywords: []string{"qubit"}, Confidence: 0.9},
		},
	}
	n := New(oracle, 2)

	keywords := []string{"a", "b", "c", "d", "e"}
	n.NormalizeBatch(context.Background(), keywords, nil)

	if len(oracle.calls) != 3 {
		t.Fatalf("5 个关键词按批大小 2 应调用 3 次, got %d", len(oracle.calls))
	}
	if len(oracle.calls[0]) != 2 || len(oracle.calls[2]) != 1 {
		t.Errorf("分批尺寸错误: %v", oracle.calls)
	}
}

func TestNormalizeBatchFallbackOnError(t *testing.T) {
	oracle := &fakeOracle{err: fmt.Errorf("上游超时")}
	n := New(oracle, 50)

	results := n.NormalizeBatch(context.Background(), []string{"qubit", "entanglement"}, nil)

	if len(results) != 2 {
		t.Fatalf("降级时每个关键词应独立成组, got %d", len(results))
	}
	for _, r := range results {
		if r.Confidence != 0.5 {
			t.Errorf("降级置信度应为 0.5, got %v", r.Confidence)
		}
		if len(r.OriginalKeywords) != 1 || r.OriginalKeywords[0] != r.CanonicalForm {
			t.Errorf("降级应为恒等映射: %+v", r)
		}
	}
}

func TestNormalizeBatchNilOracle(t *testing.T) {
	n := New(nil, 50)

	results := n.NormalizeBatch(context.Background(), []string{"qubit"}, nil)
	if len(results) != 1 || results[0].Confidence != 0.5 {
		t.Errorf("无 Oracle 时应走降级路径: %+v", results)
	}
}

func TestNormalizeBatchEmpty(t *testing.T) {
	n := New(&fakeOracle{}, 50)
	if results := n.NormalizeBatch(context.Background(), nil, nil); results != nil {
		t.Errorf("空输入应返回 nil, got %+v", results)
	}
}

func TestParseNormalizeResponse(t *testing.T) {
	content := "```json\n" + `{
  "normalizations": [
    {
      "canonical_form": "Quantum Computing",
      "original_keywords": ["QC", "quantum computation"],
      "category": "quantum",
      "confidence": 0.95
    }
  ]
}` + "\n```"

	results, err := parseNormalizeResponse(content)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}

	r := results[0]
	if r.CanonicalForm != "quantum computing" {
		t.Errorf("规范形式应转小写, got %q", r.CanonicalForm)
	}
	if r.OriginalKeywords[0] != "qc" {
		t.Errorf("原始词应转小写, got %q", r.OriginalKeywords[0])
	}
	if r.Category != "quantum" || r.Confidence != 0.95 {
		t.Errorf("字段错误: %+v", r)
	}
}

func TestParseNormalizeResponseDefaultConfidence(t *testing.T) {
	content := `{"normalizations": [{"canonical_form": "qubit", "original_keywords": ["qubit"]}]}`

	results, err := parseNormalizeResponse(content)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Confidence != 0.9 {
		t.Errorf("缺省置信度应为 0.9, got %v", results[0].Confidence)
	}
}

func TestParseNormalizeResponseSurroundingText(t *testing.T) {
	content := `好的，结果如下：{"normalizations": [{"canonical_form": "qubit", "original_keywords": ["qubit"]}]} 以上。`

	results, err := parseNormalizeResponse(content)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].CanonicalForm != "qubit" {
		t.Errorf("应能从包裹文本中提取 JSON: %+v", results)
	}
}

func TestParseNormalizeResponseInvalid(t *testing.T) {
	for _, content := range []string{
		"",
		"not json at all",
		`{"normalizations": []}`,
		`{"normalizations": [{"canonical_form": "", "original_keywords": ["qc"]}]}`,
		`{"normalizations": [{"canonical_form": "qubit", "original_keywords": []}]}`,
	} {
		if _, err := parseNormalizeResponse(content); err == nil {
			t.Errorf("输入 %q 应报错", content)
		}
	}
}

func TestBuildNormalizePromptCapsKnownCanonical(t *testing.T) {
	var known []string
	for i := 0; i < 80; i++ {
		known = append(known, fmt.Sprintf("kw-%03d", i))
	}

	prompt := buildNormalizePrompt([]string{"qubit"}, known)

	if !strings.Contains(prompt, "kw-049") {
		t.Error("前 50 个已知规范词应包含在提示中")
	}
	if strings.Contains(prompt, "kw-050") {
		t.Error("第 51 个及以后的已知规范词不应出现在提示中")
	}
}
