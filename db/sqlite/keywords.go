package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PaperTrend/internal/models"
	"PaperTrend/pkg/logger"
)

const dateLayout = "2006-01-02"

// InsertKeywords 插入原始关键词，统一转小写。同一 (keyword, paper_id) 只记一次，
// 命中已知别名时顺手带上 normalized_keyword_id
func (d *SQLiteDB) InsertKeywords(keywords []string, paperID, source, extractedDate string) ([]int64, error) {
	if extractedDate == "" {
		extractedDate = time.Now().Format(dateLayout)
	}

	var inserted []int64
	for _, kw := range keywords {
		kwLower := strings.ToLower(strings.TrimSpace(kw))
		if kwLower == "" {
			continue
		}

		normalizedID := d.findNormalizedIDByAlias(kwLower)

		res, err := d.db.Exec(`
			INSERT OR IGNORE INTO keywords
			(keyword, paper_id, source, extracted_date, normalized_keyword_id)
			VALUES (?, ?, ?, ?, ?)`,
			kwLower, paperID, source, extractedDate, normalizedID)
		if err != nil {
			logger.Warn("插入关键词失败 '%s': %v", kw, err)
			continue
		}

		if n, _ := res.RowsAffected(); n > 0 {
			if id, err := res.LastInsertId(); err == nil {
				inserted = append(inserted, id)
			}
		}
	}

	return inserted, nil
}

// findNormalizedIDByAlias 通过别名表查找归一化ID，未命中返回 NULL
func (d *SQLiteDB) findNormalizedIDByAlias(rawKeyword string) sql.NullInt64 {
	var id sql.NullInt64
	err := d.db.QueryRow(
		"SELECT normalized_keyword_id FROM keyword_aliases WHERE raw_keyword = ?",
		rawKeyword,
	).Scan(&id.Int64)
	if err != nil {
		return sql.NullInt64{}
	}
	id.Valid = true
	return id
}

// GetUniqueUnnormalizedKeywords 获取去重后的待归一化关键词，
// 已被别名覆盖的不再返回
func (d *SQLiteDB) GetUniqueUnnormalizedKeywords(limit int) ([]string, error) {
	rows, err := d.db.Query(`
		SELECT DISTINCT keyword
		FROM keywords
		WHERE normalized_keyword_id IS NULL
		AND keyword NOT IN (SELECT raw_keyword FROM keyword_aliases)
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询待归一化关键词失败: %w", err)
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, err
		}
		keywords = append(keywords, kw)
	}

	return keywords, rows.Err()
}

// GetOrCreateNormalizedKeyword 获取或创建规范关键词，返回其ID
func (d *SQLiteDB) GetOrCreateNormalizedKeyword(canonical, category string) (int64, error) {
	canonicalLower := strings.ToLower(strings.TrimSpace(canonical))

	var id int64
	err := d.db.QueryRow(
		"SELECT id FROM normalized_keywords WHERE canonical_keyword = ?",
		canonicalLower,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("查询规范关键词失败: %w", err)
	}

	res, err := d.db.Exec(
		"INSERT INTO normalized_keywords (canonical_keyword, category) VALUES (?, ?)",
		canonicalLower, category)
	if err != nil {
		return 0, fmt.Errorf("创建规范关键词失败: %w", err)
	}

	return res.LastInsertId()
}

// AddKeywordAlias 添加原始词到规范词的映射，同一原始词后写的覆盖先写的
func (d *SQLiteDB) AddKeywordAlias(rawKeyword string, normalizedID int64, confidence float64) error {
	rawLower := strings.ToLower(strings.TrimSpace(rawKeyword))

	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO keyword_aliases
		(raw_keyword, normalized_keyword_id, confidence)
		VALUES (?, ?, ?)`,
		rawLower, normalizedID, confidence)
	if err != nil {
		return fmt.Errorf("写入别名失败: %w", err)
	}
	return nil
}

// LinkKeywordsToNormalized 把 keywords 表里所有匹配的未归一化记录挂到规范词上，
// 返回更新的记录数
func (d *SQLiteDB) LinkKeywordsToNormalized(rawKeyword string, normalizedID int64) (int, error) {
	rawLower := strings.ToLower(strings.TrimSpace(rawKeyword))

	res, err := d.db.Exec(`
		UPDATE keywords
		SET normalized_keyword_id = ?
		WHERE keyword = ? AND normalized_keyword_id IS NULL`,
		normalizedID, rawLower)
	if err != nil {
		return 0, fmt.Errorf("关联关键词失败: %w", err)
	}

	n, _ := res.RowsAffected()
	return int(n), nil
}

// GetAllCanonicalKeywords 按字典序返回所有规范关键词
func (d *SQLiteDB) GetAllCanonicalKeywords() ([]string, error) {
	rows, err := d.db.Query(
		"SELECT canonical_keyword FROM normalized_keywords ORDER BY canonical_keyword")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, err
		}
		keywords = append(keywords, kw)
	}

	return keywords, rows.Err()
}

// UpdateDailyCounts 重算某天的逐日统计。先删后插，重复执行结果一致
func (d *SQLiteDB) UpdateDailyCounts(date string) error {
	if date == "" {
		date = time.Now().Format(dateLayout)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM keyword_daily_counts WHERE count_date = ?", date); err != nil {
		return fmt.Errorf("清理旧统计失败: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO keyword_daily_counts (normalized_keyword_id, count_date, paper_count)
		SELECT normalized_keyword_id, ?, COUNT(DISTINCT paper_id)
		FROM keywords
		WHERE normalized_keyword_id IS NOT NULL
		AND extracted_date = ?
		GROUP BY normalized_keyword_id`,
		date, date); err != nil {
		return fmt.Errorf("写入每日统计失败: %w", err)
	}

	return tx.Commit()
}

// GetTopKeywords 获取最近 days 天的热门关键词，按总量降序，
// 同量时取先创建的规范词
func (d *SQLiteDB) GetTopKeywords(days, limit int) ([]models.KeywordCount, error) {
	startDate := time.Now().AddDate(0, 0, -days).Format(dateLayout)

	rows, err := d.db.Query(`
		SELECT
			nk.canonical_keyword,
			SUM(kdc.paper_count) as total_count,
			COALESCE(nk.category, '')
		FROM keyword_daily_counts kdc
		JOIN normalized_keywords nk ON kdc.normalized_keyword_id = nk.id
		WHERE kdc.count_date >= ?
		GROUP BY nk.id
		ORDER BY total_count DESC, nk.id ASC
		LIMIT ?`,
		startDate, limit)
	if err != nil {
		return nil, fmt.Errorf("查询热门关键词失败: %w", err)
	}
	defer rows.Close()

	var results []models.KeywordCount
	for rows.Next() {
		var kc models.KeywordCount
		if err := rows.Scan(&kc.Keyword, &kc.Total, &kc.Category); err != nil {
			return nil, err
		}
		results = append(results, kc)
	}

	return results, rows.Err()
}

// GetKeywordTrends 获取关键词的逐日计数序列。keywords 为空时取热门前 limit 个。
// 计数为 0 的日期不出现在 map 中
func (d *SQLiteDB) GetKeywordTrends(days int, keywords []string, limit int) ([]models.KeywordTrendData, error) {
	startDate := time.Now().AddDate(0, 0, -days).Format(dateLayout)

	var kwList []string
	if len(keywords) > 0 {
		for _, kw := range keywords {
			kwList = append(kwList, strings.ToLower(kw))
		}
	} else {
		top, err := d.GetTopKeywords(days, limit)
		if err != nil {
			return nil, err
		}
		for _, kc := range top {
			kwList = append(kwList, kc.Keyword)
		}
	}

	if len(kwList) == 0 {
		return nil, nil
	}

	var results []models.KeywordTrendData
	for _, kw := range kwList {
		rows, err := d.db.Query(`
			SELECT kdc.count_date, kdc.paper_count
			FROM keyword_daily_counts kdc
			JOIN normalized_keywords nk ON kdc.normalized_keyword_id = nk.id
			WHERE nk.canonical_keyword = ?
			AND kdc.count_date >= ?
			ORDER BY kdc.count_date`,
			kw, startDate)
		if err != nil {
			return nil, fmt.Errorf("查询趋势数据失败: %w", err)
		}

		dailyCounts := make(map[string]int)
		for rows.Next() {
			var d string
			var count int
			if err := rows.Scan(&d, &count); err != nil {
				rows.Close()
				return nil, err
			}
			dailyCounts[d] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		if len(dailyCounts) > 0 {
			results = append(results, models.KeywordTrendData{
				Keyword:     kw,
				DailyCounts: dailyCounts,
			})
		}
	}

	return results, nil
}

// GetStats 获取关键词库的总体统计
func (d *SQLiteDB) GetStats() (*models.TrackerStats, error) {
	stats := &models.TrackerStats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM keywords", &stats.TotalKeywords},
		{"SELECT COUNT(*) FROM keywords WHERE normalized_keyword_id IS NOT NULL", &stats.NormalizedKeywords},
		{"SELECT COUNT(*) FROM normalized_keywords", &stats.CanonicalKeywords},
		{"SELECT COUNT(*) FROM keyword_aliases", &stats.Aliases},
	}

	for _, q := range queries {
		if err := d.db.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("统计查询失败: %w", err)
		}
	}

	return stats, nil
}
