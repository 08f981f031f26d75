package tracker

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlitedb "PaperTrend/db/sqlite"
	"PaperTrend/internal/models"
	"PaperTrend/internal/normalizer"
)

type fakeOracle struct {
	results []models.NormalizationResult
}

func (f *fakeOracle) Normalize(context.Context, []string, []string) ([]models.NormalizationResult, error) {
	return f.results, nil
}

func newTestTracker(t *testing.T, oracle normalizer.Oracle) (*Tracker, *sqlitedb.SQLiteDB) {
	t.Helper()
	store, err := sqlitedb.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	n := normalizer.New(oracle, 50)
	return New(store, n, DefaultOptions()), store
}

func TestRunDailyNormalizationMerge(t *testing.T) {
	oracle := &fakeOracle{
		results: []models.NormalizationResult{
			{
				CanonicalForm:    "qubit",
				OriginalKeywords: []string{"qubit", "qubits", "quantum bits"},
				Category:         "quantum",
				Confidence:       0.95,
			},
		},
	}
	tr, store := newTestTracker(t, oracle)

	day := time.Now().Format("2006-01-02")
	tr.RecordKeywords([]string{"qubit"}, "p1", "arxiv", day)
	tr.RecordKeywords([]string{"qubits"}, "p2", "arxiv", day)
	tr.RecordKeywords([]string{"quantum bits"}, "p3", "arxiv", day)

	run := tr.RunDailyNormalization(context.Background())

	if run.Processed != 3 {
		t.Errorf("processed = %d, want 3", run.Processed)
	}
	if run.NewCanonical != 1 {
		t.Errorf("new_canonical = %d, want 1", run.NewCanonical)
	}
	if run.Merged != 3 {
		t.Errorf("merged = %d, want 3", run.Merged)
	}

	stats, err := store.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.CanonicalKeywords != 1 || stats.Aliases != 3 || stats.NormalizedKeywords != 3 {
		t.Errorf("归并后统计错误: %+v", stats)
	}

	// 三篇论文合并到同一个规范词
	top, err := tr.GetTopKeywords(30, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Keyword != "qubit" || top[0].Total != 3 {
		t.Errorf("热门关键词错误: %+v", top)
	}
}

func TestRunDailyNormalizationDiscardsLowConfidence(t *testing.T) {
	oracle := &fakeOracle{
		results: []models.NormalizationResult{
			{CanonicalForm: "qubit", OriginalKeywords: []string{"qubit"}, Confidence: 0.4},
		},
	}
	tr, store := newTestTracker(t, oracle)

	tr.RecordKeywords([]string{"qubit"}, "p1", "arxiv", "")
	run := tr.RunDailyNormalization(context.Background())

	if run.Processed != 0 {
		t.Errorf("低置信度结果应被丢弃, processed = %d", run.Processed)
	}

	stats, _ := store.GetStats()
	if stats.CanonicalKeywords != 0 || stats.Aliases != 0 {
		t.Errorf("低置信度不应产生写入: %+v", stats)
	}
}

func TestRunDailyNormalizationNothingToDo(t *testing.T) {
	tr, _ := newTestTracker(t, &fakeOracle{})

	run := tr.RunDailyNormalization(context.Background())
	if run.Processed != 0 || run.NewCanonical != 0 || run.Merged != 0 {
		t.Errorf("空库应返回零值统计: %+v", run)
	}
}

func TestRunDailyNormalizationExistingCanonical(t *testing.T) {
	oracle := &fakeOracle{
		results: []models.NormalizationResult{
			{CanonicalForm: "qubit", OriginalKeywords: []string{"qubits"}, Confidence: 0.9},
		},
	}
	tr, store := newTestTracker(t, oracle)

	// 规范词已存在，归并不应计为新增
	if _, err := store.GetOrCreateNormalizedKeyword("qubit", ""); err != nil {
		t.Fatal(err)
	}

	tr.RecordKeywords([]string{"qubits"}, "p1", "arxiv", "")
	run := tr.RunDailyNormalization(context.Background())

	if run.NewCanonical != 0 {
		t.Errorf("已有规范词不应计入 new_canonical, got %d", run.NewCanonical)
	}
	if run.Merged != 1 {
		t.Errorf("merged = %d, want 1", run.Merged)
	}
}

func TestGenerateBarChartEmpty(t *testing.T) {
	tr, _ := newTestTracker(t, &fakeOracle{})

	out, err := tr.GenerateBarChart(0, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("空库应返回空串, got %q", out)
	}
}

func TestGenerateBarChartDefaults(t *testing.T) {
	oracle := &fakeOracle{
		results: []models.NormalizationResult{
			{CanonicalForm: "qubit", OriginalKeywords: []string{"qubit"}, Confidence: 0.9},
		},
	}
	tr, _ := newTestTracker(t, oracle)

	tr.RecordKeywords([]string{"qubit"}, "p1", "arxiv", "")
	tr.RunDailyNormalization(context.Background())

	out, err := tr.GenerateBarChart(0, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Top Research Keywords (Last 30 Days)") {
		t.Errorf("默认标题应带 30 天窗口:\n%s", out)
	}
	if !strings.Contains(out, `"qubit"`) {
		t.Errorf("图表应包含关键词:\n%s", out)
	}
}

func TestRecordKeywordsEmptyNoop(t *testing.T) {
	tr, store := newTestTracker(t, &fakeOracle{})

	tr.RecordKeywords(nil, "p1", "arxiv", "")
	stats, _ := store.GetStats()
	if stats.TotalKeywords != 0 {
		t.Errorf("空关键词列表不应写入: %+v", stats)
	}
}
