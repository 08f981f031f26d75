package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("无法创建目录，请检查权限问题: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("无法打开数据库，请检查权限问题: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	sqlDB := &SQLiteDB{db: db}

	if err := sqlDB.initTable(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("数据库创建失败: %w", err)
	}

	return sqlDB, nil
}

func (d *SQLiteDB) Close() error { return d.db.Close() }

func (d *SQLiteDB) initTable() error {
	schema := `
CREATE TABLE IF NOT EXISTS papers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  source_id TEXT NOT NULL,
  url TEXT NOT NULL,
  title TEXT NOT NULL,
  authors TEXT,                  -- 存 ",a1,a2," 便于 LIKE 精确匹配
  abstract TEXT,
  categories TEXT,               -- 存 ",cs.AI,cs.LG,"
  comments TEXT,
  venue TEXT,
  score REAL DEFAULT 0,
  score_reason TEXT,
  first_submitted_at DATETIME,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,

  UNIQUE(source, source_id)
);

CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source);
CREATE INDEX IF NOT EXISTS idx_papers_date ON papers(first_submitted_at);

-- 关键词原始记录：同一论文里同一关键词只记一次
CREATE TABLE IF NOT EXISTS keywords (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  keyword TEXT NOT NULL,
  paper_id TEXT NOT NULL,
  source TEXT NOT NULL,
  extracted_date TEXT NOT NULL,  -- YYYY-MM-DD
  normalized_keyword_id INTEGER, -- NULL 表示尚未归一化
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(keyword, paper_id)
);

CREATE INDEX IF NOT EXISTS idx_keywords_date ON keywords(extracted_date);
CREATE INDEX IF NOT EXISTS idx_keywords_normalized ON keywords(normalized_keyword_id);

-- 规范关键词
CREATE TABLE IF NOT EXISTS normalized_keywords (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  canonical_keyword TEXT NOT NULL UNIQUE,
  category TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- 原始词到规范词的映射
CREATE TABLE IF NOT EXISTS keyword_aliases (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  raw_keyword TEXT NOT NULL UNIQUE,
  normalized_keyword_id INTEGER NOT NULL,
  confidence REAL DEFAULT 1.0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(normalized_keyword_id) REFERENCES normalized_keywords(id)
);

CREATE INDEX IF NOT EXISTS idx_aliases_raw ON keyword_aliases(raw_keyword);

-- 规范关键词的逐日计数，按论文数去重
CREATE TABLE IF NOT EXISTS keyword_daily_counts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  normalized_keyword_id INTEGER NOT NULL,
  count_date TEXT NOT NULL,      -- YYYY-MM-DD
  paper_count INTEGER DEFAULT 0,
  UNIQUE(normalized_keyword_id, count_date),
  FOREIGN KEY(normalized_keyword_id) REFERENCES normalized_keywords(id)
);

CREATE INDEX IF NOT EXISTS idx_daily_counts_date ON keyword_daily_counts(count_date);
	`

	_, err := d.db.Exec(schema)

	return err
}
