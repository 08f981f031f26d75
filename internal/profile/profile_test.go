package profile

import (
	"context"
	"math"
	"testing"
)

func TestTotalWeight(t *testing.T) {
	k := Keywords{"a": 1.0, "b": 0.5, "c": 0.3}
	if got := k.TotalWeight(); math.Abs(got-1.8) > 1e-9 {
		t.Errorf("TotalWeight = %v, want 1.8", got)
	}
}

func TestMergePrimaryWins(t *testing.T) {
	primary := Keywords{"qubit": 1.0}
	reference := Keywords{"qubit": 0.5, "entanglement": 0.8}

	merged := Merge(primary, reference)
	if merged["qubit"] != 1.0 {
		t.Errorf("主要关键词不应被覆盖, got %v", merged["qubit"])
	}
	if merged["entanglement"] != 0.8 {
		t.Errorf("新关键词应补入, got %v", merged["entanglement"])
	}
}

func TestMergeKeepHigher(t *testing.T) {
	a := Keywords{"qubit": 0.5}
	b := Keywords{"qubit": 0.8}

	merged := MergeKeepHigher(a, b)
	if merged["qubit"] != 0.8 {
		t.Errorf("应保留更高权重, got %v", merged["qubit"])
	}

	merged = MergeKeepHigher(b, a)
	if merged["qubit"] != 0.8 {
		t.Errorf("合并方向不应影响结果, got %v", merged["qubit"])
	}
}

func TestPassingScore(t *testing.T) {
	// base 3.0 + 2.5 × 2.0 = 8.0
	if got := PassingScore(3.0, 2.5, 2.0); math.Abs(got-8.0) > 1e-9 {
		t.Errorf("PassingScore = %v, want 8.0", got)
	}
}

func TestDeduplicateKeepsHigherWeight(t *testing.T) {
	d := NewDeduplicator(nil, 0.75)

	// 字符串相似度下 "quantum error correction" 与
	// "quantum error correction codes" 高度相似
	keywords := Keywords{
		"quantum error correction":       0.8,
		"quantum error correction codes": 0.5,
		"machine learning":               0.3,
	}

	result := d.Deduplicate(context.Background(), keywords)

	if _, ok := result["quantum error correction"]; !ok {
		t.Error("高权重关键词应被保留")
	}
	if _, ok := result["quantum error correction codes"]; ok {
		t.Error("相似的低权重关键词应被移除")
	}
	if _, ok := result["machine learning"]; !ok {
		t.Error("不相似的关键词应被保留")
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	d := NewDeduplicator(nil, 0.75)
	if result := d.Deduplicate(context.Background(), nil); len(result) != 0 {
		t.Errorf("空输入应返回空结果, got %v", result)
	}
}

func TestDeduplicateIdentical(t *testing.T) {
	d := NewDeduplicator(nil, 0.75)

	keywords := Keywords{"qubit": 0.5, "Qubit": 0.8}
	result := d.Deduplicate(context.Background(), keywords)

	if len(result) != 1 {
		t.Fatalf("大小写变体应合并, got %v", result)
	}
	if result["Qubit"] != 0.8 {
		t.Errorf("应保留高权重变体, got %v", result)
	}
}
