package db

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	d, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("创建测试数据库失败: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func today() string {
	return time.Now().Format(dateLayout)
}

func daysAgo(n int) string {
	return time.Now().AddDate(0, 0, -n).Format(dateLayout)
}

func TestInsertKeywordsDedup(t *testing.T) {
	d := newTestDB(t)

	if _, err := d.InsertKeywords([]string{"qubit", "Qubit", "  QUBIT  "}, "p1", "arxiv", today()); err != nil {
		t.Fatal(err)
	}

	stats, err := d.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalKeywords != 1 {
		t.Errorf("同一论文的同一关键词应只记一次, got %d", stats.TotalKeywords)
	}

	// 不同论文可以再记一次
	if _, err := d.InsertKeywords([]string{"qubit"}, "p2", "arxiv", today()); err != nil {
		t.Fatal(err)
	}
	stats, _ = d.GetStats()
	if stats.TotalKeywords != 2 {
		t.Errorf("不同论文应各记一次, got %d", stats.TotalKeywords)
	}
}

func TestInsertKeywordsSkipsEmpty(t *testing.T) {
	d := newTestDB(t)

	ids, err := d.InsertKeywords([]string{"", "   ", "valid"}, "p1", "arxiv", today())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Errorf("空白关键词应被跳过, got %d 条", len(ids))
	}
}

func TestInsertKeywordsAutoLink(t *testing.T) {
	d := newTestDB(t)

	nid, err := d.GetOrCreateNormalizedKeyword("quantum computing", "hardware")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AddKeywordAlias("qubits", nid, 0.9); err != nil {
		t.Fatal(err)
	}

	// 命中已知别名的新记录在插入时即完成关联
	if _, err := d.InsertKeywords([]string{"qubits"}, "p1", "arxiv", today()); err != nil {
		t.Fatal(err)
	}

	stats, _ := d.GetStats()
	if stats.NormalizedKeywords != 1 {
		t.Errorf("命中别名的关键词应自动关联, normalized=%d", stats.NormalizedKeywords)
	}
}

func TestGetUniqueUnnormalizedKeywords(t *testing.T) {
	d := newTestDB(t)

	d.InsertKeywords([]string{"qubit", "entanglement"}, "p1", "arxiv", today())
	d.InsertKeywords([]string{"qubit"}, "p2", "arxiv", today())

	kws, err := d.GetUniqueUnnormalizedKeywords(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(kws) != 2 {
		t.Fatalf("应去重返回 2 个, got %v", kws)
	}

	// 已有别名覆盖的不再返回
	nid, _ := d.GetOrCreateNormalizedKeyword("qubit", "")
	if err := d.AddKeywordAlias("qubit", nid, 1.0); err != nil {
		t.Fatal(err)
	}

	kws, err = d.GetUniqueUnnormalizedKeywords(100)
	if err != nil {
		t.Fatal(err)
	}
	if len(kws) != 1 || kws[0] != "entanglement" {
		t.Errorf("别名覆盖后应只剩 entanglement, got %v", kws)
	}
}

func TestGetOrCreateNormalizedKeyword(t *testing.T) {
	d := newTestDB(t)

	id1, err := d.GetOrCreateNormalizedKeyword("Quantum Computing", "hardware")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := d.GetOrCreateNormalizedKeyword("quantum computing", "other")
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Errorf("大小写不同的同一规范词应返回同一ID: %d vs %d", id1, id2)
	}

	stats, _ := d.GetStats()
	if stats.CanonicalKeywords != 1 {
		t.Errorf("规范词应只创建一次, got %d", stats.CanonicalKeywords)
	}
}

func TestAddKeywordAliasReplace(t *testing.T) {
	d := newTestDB(t)

	id1, _ := d.GetOrCreateNormalizedKeyword("machine learning", "")
	id2, _ := d.GetOrCreateNormalizedKeyword("deep learning", "")

	if err := d.AddKeywordAlias("ml", id1, 0.9); err != nil {
		t.Fatal(err)
	}
	// 同一原始词后写的覆盖先写的
	if err := d.AddKeywordAlias("ml", id2, 0.8); err != nil {
		t.Fatal(err)
	}

	stats, _ := d.GetStats()
	if stats.Aliases != 1 {
		t.Errorf("同一原始词应只保留一条映射, got %d", stats.Aliases)
	}

	var got int64
	err := d.db.QueryRow(
		"SELECT normalized_keyword_id FROM keyword_aliases WHERE raw_keyword = 'ml'",
	).Scan(&got)
	if err != nil {
		t.Fatal(err)
	}
	if got != id2 {
		t.Errorf("覆盖后应指向 %d, got %d", id2, got)
	}
}

func TestLinkKeywordsToNormalized(t *testing.T) {
	d := newTestDB(t)

	d.InsertKeywords([]string{"qubits"}, "p1", "arxiv", today())
	d.InsertKeywords([]string{"qubits"}, "p2", "arxiv", today())

	nid, _ := d.GetOrCreateNormalizedKeyword("qubit", "")
	n, err := d.LinkKeywordsToNormalized("qubits", nid)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("应关联 2 条记录, got %d", n)
	}

	// 已关联的不会重复更新
	n, _ = d.LinkKeywordsToNormalized("qubits", nid)
	if n != 0 {
		t.Errorf("重复关联应为 0, got %d", n)
	}
}

func TestUpdateDailyCountsIdempotent(t *testing.T) {
	d := newTestDB(t)
	day := today()

	d.InsertKeywords([]string{"qubit"}, "p1", "arxiv", day)
	d.InsertKeywords([]string{"qubit"}, "p2", "arxiv", day)

	nid, _ := d.GetOrCreateNormalizedKeyword("qubit", "")
	d.LinkKeywordsToNormalized("qubit", nid)

	for i := 0; i < 3; i++ {
		if err := d.UpdateDailyCounts(day); err != nil {
			t.Fatal(err)
		}
	}

	var count, rowCount int
	if err := d.db.QueryRow(
		"SELECT paper_count FROM keyword_daily_counts WHERE normalized_keyword_id = ? AND count_date = ?",
		nid, day,
	).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("两篇论文应计 2, got %d", count)
	}

	d.db.QueryRow("SELECT COUNT(*) FROM keyword_daily_counts").Scan(&rowCount)
	if rowCount != 1 {
		t.Errorf("重复执行不应产生重复行, got %d", rowCount)
	}
}

func TestGetTopKeywordsOrdering(t *testing.T) {
	d := newTestDB(t)
	day := today()

	// qubit 出现 3 次，entanglement 2 次，teleportation 2 次（与 entanglement 同量）
	d.InsertKeywords([]string{"qubit", "entanglement", "teleportation"}, "p1", "arxiv", day)
	d.InsertKeywords([]string{"qubit", "entanglement", "teleportation"}, "p2", "arxiv", day)
	d.InsertKeywords([]string{"qubit"}, "p3", "arxiv", day)

	for _, kw := range []string{"qubit", "entanglement", "teleportation"} {
		nid, _ := d.GetOrCreateNormalizedKeyword(kw, "")
		d.LinkKeywordsToNormalized(kw, nid)
	}
	if err := d.UpdateDailyCounts(day); err != nil {
		t.Fatal(err)
	}

	top, err := d.GetTopKeywords(30, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 3 {
		t.Fatalf("应返回 3 个关键词, got %d", len(top))
	}
	if top[0].Keyword != "qubit" || top[0].Total != 3 {
		t.Errorf("第一名应为 qubit(3), got %s(%d)", top[0].Keyword, top[0].Total)
	}
	// 同量时先创建的规范词排前
	if top[1].Keyword != "entanglement" || top[2].Keyword != "teleportation" {
		t.Errorf("同量排序错误: %s, %s", top[1].Keyword, top[2].Keyword)
	}
}

func TestGetTopKeywordsWindow(t *testing.T) {
	d := newTestDB(t)

	oldDay := daysAgo(40)
	d.InsertKeywords([]string{"qubit"}, "p1", "arxiv", oldDay)
	nid, _ := d.GetOrCreateNormalizedKeyword("qubit", "")
	d.LinkKeywordsToNormalized("qubit", nid)
	if err := d.UpdateDailyCounts(oldDay); err != nil {
		t.Fatal(err)
	}

	top, err := d.GetTopKeywords(30, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 0 {
		t.Errorf("窗口外的计数不应出现, got %v", top)
	}
}

func TestGetKeywordTrends(t *testing.T) {
	d := newTestDB(t)

	d1, d2 := daysAgo(2), today()
	d.InsertKeywords([]string{"qubit"}, "p1", "arxiv", d1)
	d.InsertKeywords([]string{"qubit"}, "p2", "arxiv", d2)
	d.InsertKeywords([]string{"qubit"}, "p3", "arxiv", d2)

	nid, _ := d.GetOrCreateNormalizedKeyword("qubit", "")
	d.LinkKeywordsToNormalized("qubit", nid)
	d.UpdateDailyCounts(d1)
	d.UpdateDailyCounts(d2)

	trends, err := d.GetKeywordTrends(30, []string{"QUBIT"}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(trends) != 1 {
		t.Fatalf("应有 1 条趋势, got %d", len(trends))
	}

	tr := trends[0]
	if tr.Keyword != "qubit" {
		t.Errorf("关键词应转小写, got %s", tr.Keyword)
	}
	if tr.DailyCounts[d1] != 1 || tr.DailyCounts[d2] != 2 {
		t.Errorf("逐日计数错误: %v", tr.DailyCounts)
	}
	// 计数为 0 的日期不出现在 map 里
	if _, ok := tr.DailyCounts[daysAgo(1)]; ok {
		t.Errorf("零计数日期不应出现: %v", tr.DailyCounts)
	}
}

func TestGetKeywordTrendsEmpty(t *testing.T) {
	d := newTestDB(t)

	trends, err := d.GetKeywordTrends(30, nil, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(trends) != 0 {
		t.Errorf("空库应返回空趋势, got %v", trends)
	}
}

func TestGetStats(t *testing.T) {
	d := newTestDB(t)

	d.InsertKeywords([]string{"qubit", "entanglement"}, "p1", "arxiv", today())
	nid, _ := d.GetOrCreateNormalizedKeyword("qubit", "")
	d.AddKeywordAlias("qubit", nid, 1.0)
	d.LinkKeywordsToNormalized("qubit", nid)

	stats, err := d.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalKeywords != 2 {
		t.Errorf("total=%d", stats.TotalKeywords)
	}
	if stats.NormalizedKeywords != 1 {
		t.Errorf("normalized=%d", stats.NormalizedKeywords)
	}
	if stats.CanonicalKeywords != 1 {
		t.Errorf("canonical=%d", stats.CanonicalKeywords)
	}
	if stats.Aliases != 1 {
		t.Errorf("aliases=%d", stats.Aliases)
	}
}
