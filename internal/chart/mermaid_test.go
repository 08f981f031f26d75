package chart

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"PaperTrend/internal/models"
)

func fixedGenerator(t *testing.T, day string) *Generator {
	t.Helper()
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatal(err)
	}
	return &Generator{now: func() time.Time { return d }}
}

func TestBarChart(t *testing.T) {
	g := NewGenerator()

	out := g.BarChart([]models.KeywordCount{
		{Keyword: "qubit", Total: 12},
		{Keyword: "entanglement", Total: 7},
	}, "", "")

	for _, want := range []string{
		"```mermaid",
		"xychart-beta",
		`title "Top Keywords"`,
		`x-axis ["qubit", "entanglement"]`,
		`y-axis "Paper Count" 0 --> 20`,
		"bar [12, 7]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("缺少 %q:\n%s", want, out)
		}
	}
}

func TestBarChartEmpty(t *testing.T) {
	g := NewGenerator()
	if out := g.BarChart(nil, "", ""); out != "" {
		t.Errorf("空数据应返回空串, got %q", out)
	}
}

func TestBarChartTruncation(t *testing.T) {
	g := NewGenerator()

	long := "variational quantum eigensolver"
	out := g.BarChart([]models.KeywordCount{{Keyword: long, Total: 1}}, "", "")

	want := long[:18] + ".."
	if !strings.Contains(out, `"`+want+`"`) {
		t.Errorf("超长关键词应截断为 %q:\n%s", want, out)
	}
	if len(want) != 20 {
		t.Errorf("截断后长度应为 20, got %d", len(want))
	}
}

func TestBarChartTruncationMultibyte(t *testing.T) {
	g := NewGenerator()

	long := "量子纠错码表面码逻辑量子比特阈值定理分析研究综述"
	out := g.BarChart([]models.KeywordCount{{Keyword: long, Total: 1}}, "", "")

	// 截断必须落在字符边界上，不能把多字节字符切成半个
	if !utf8.ValidString(out) {
		t.Errorf("截断产生了非法 UTF-8:\n%s", out)
	}
	want := string([]rune(long)[:18]) + ".."
	if !strings.Contains(out, `"`+want+`"`) {
		t.Errorf("多字节关键词应截断为 %q:\n%s", want, out)
	}
}

func TestRoundUp(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 10},
		{10, 10},
		{11, 20},
		{20, 20},
		{21, 50},
		{50, 50},
		{51, 100},
		{100, 100},
		{101, 150},
		{150, 200},
		{237, 250},
	}
	for _, c := range cases {
		if got := roundUp(c.in); got != c.want {
			t.Errorf("roundUp(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestLineChartBuckets(t *testing.T) {
	g := fixedGenerator(t, "2026-01-31")

	// 14 天窗口 → 起点 01/17，桶为 17-23、24-30、31（末桶不满）
	trends := []models.KeywordTrendData{
		{
			Keyword: "qubit",
			DailyCounts: map[string]int{
				"2026-01-18": 2,
				"2026-01-20": 1,
				"2026-01-25": 4,
				"2026-01-31": 5,
			},
		},
	}

	out := g.LineChart(trends, "", 14, 7)

	if !strings.Contains(out, `x-axis ["01/17", "01/24", "01/31"]`) {
		t.Errorf("X 轴桶标签错误:\n%s", out)
	}
	if !strings.Contains(out, `line "qubit" [3, 4, 5]`) {
		t.Errorf("聚合值错误:\n%s", out)
	}
	if !strings.Contains(out, `y-axis "Papers" 0 --> 10`) {
		t.Errorf("Y 轴范围错误:\n%s", out)
	}
}

func TestLineChartMissingDaysCountZero(t *testing.T) {
	g := fixedGenerator(t, "2026-01-07")

	trends := []models.KeywordTrendData{
		{Keyword: "qubit", DailyCounts: map[string]int{}},
	}

	out := g.LineChart(trends, "", 6, 7)
	if !strings.Contains(out, `line "qubit" [0]`) {
		t.Errorf("无数据的桶应计 0:\n%s", out)
	}
}

func TestLineChartEmpty(t *testing.T) {
	g := NewGenerator()
	if out := g.LineChart(nil, "", 30, 7); out != "" {
		t.Errorf("空趋势应返回空串, got %q", out)
	}
}

func TestLineChartTruncation(t *testing.T) {
	g := fixedGenerator(t, "2026-01-07")

	long := "quantum error correction"
	trends := []models.KeywordTrendData{
		{Keyword: long, DailyCounts: map[string]int{"2026-01-05": 1}},
	}

	out := g.LineChart(trends, "", 6, 7)
	want := long[:16] + ".."
	if !strings.Contains(out, `line "`+want+`"`) {
		t.Errorf("线图关键词应截断为 %q:\n%s", want, out)
	}
}
