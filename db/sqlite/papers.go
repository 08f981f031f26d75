package db

import (
	"database/sql"
	"fmt"
	"strings"

	"PaperTrend/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

func (d *SQLiteDB) Upsert(p *models.Paper) (int64, error) {
	query := `
	INSERT INTO papers (
		source, source_id, url, title, authors, abstract,
		categories, comments, venue, score, score_reason,
		first_submitted_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(source, source_id) DO UPDATE SET
		title = excluded.title,
		authors = excluded.authors,
		abstract = excluded.abstract,
		categories = excluded.categories,
		comments = excluded.comments,
		venue = excluded.venue,
		score = excluded.score,
		score_reason = excluded.score_reason,
		first_submitted_at = excluded.first_submitted_at,
		updated_at = CURRENT_TIMESTAMP
	RETURNING id
	`

	var id int64
	err := d.db.QueryRow(query,
		p.Source, p.SourceID, p.URL, p.Title,
		p.AuthorsCSV(), p.Abstract, p.CategoriesCSV(),
		p.Comments, p.Venue, p.Score, p.ScoreReason,
		p.FirstSubmittedAt,
	).Scan(&id)

	return id, err
}

// AlreadyProcessed 判断某篇论文是否已经入库，避免重复评分
func (d *SQLiteDB) AlreadyProcessed(source, sourceID string) (bool, error) {
	var n int
	err := d.db.QueryRow(
		"SELECT COUNT(*) FROM papers WHERE source = ? AND source_id = ?",
		source, sourceID,
	).Scan(&n)
	return n > 0, err
}

// GetPapersByDate 获取某天入库的论文，source 为空时不过滤平台
func (d *SQLiteDB) GetPapersByDate(source string, date string) ([]*models.Paper, error) {
	conditions := []string{"DATE(updated_at) = ?"}
	params := []interface{}{date}

	if source != "" {
		conditions = append(conditions, "source = ?")
		params = append(params, source)
	}

	query := `
	SELECT id, source, source_id, url, title, authors, abstract,
		categories, comments, venue, score, score_reason,
		first_submitted_at, updated_at
	FROM papers
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY score DESC`

	rows, err := d.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPapers(rows)
}

// GetRecentPapers 获取最近 days 天入库的论文，limit 为 0 时不限制数量
func (d *SQLiteDB) GetRecentPapers(days, limit int) ([]*models.Paper, error) {
	query := `
	SELECT id, source, source_id, url, title, authors, abstract,
		categories, comments, venue, score, score_reason,
		first_submitted_at, updated_at
	FROM papers
	WHERE DATE(updated_at) >= DATE('now', ?)
	ORDER BY score DESC`

	params := []interface{}{fmt.Sprintf("-%d days", days)}
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}

	rows, err := d.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPapers(rows)
}

func scanPapers(rows *sql.Rows) ([]*models.Paper, error) {
	var papers []*models.Paper

	for rows.Next() {
		var p models.Paper
		var authorsStr, categoriesStr string

		err := rows.Scan(
			&p.ID, &p.Source, &p.SourceID, &p.URL, &p.Title,
			&authorsStr, &p.Abstract, &categoriesStr, &p.Comments,
			&p.Venue, &p.Score, &p.ScoreReason,
			&p.FirstSubmittedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if authorsStr != "" {
			p.Authors = strings.Split(strings.Trim(authorsStr, ","), ", ")
		}
		if categoriesStr != "" {
			p.Categories = strings.Split(strings.Trim(categoriesStr, ","), ", ")
		}

		papers = append(papers, &p)
	}

	return papers, rows.Err()
}

func (d *SQLiteDB) CountPapers(conditions []string, params []interface{}) (int, error) {
	query := "SELECT COUNT(*) FROM papers"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var n int
	err := d.db.QueryRow(query, params...).Scan(&n)
	return n, err
}
