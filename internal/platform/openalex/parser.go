package openalex

import (
	"regexp"
	"strings"
	"time"

	"PaperTrend/internal/models"
)

// 防止损坏数据把倒排索引撑爆内存
const maxAbstractPosition = 50000

const maxAuthors = 20

type worksResponse struct {
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
	Results []work `json:"results"`
}

type work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	Authorships           []authorship     `json:"authorships"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	PublicationDate       string           `json:"publication_date"`
	PrimaryLocation       *location        `json:"primary_location"`
	Locations             []location       `json:"locations"`
}

type authorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

type location struct {
	LandingPageURL string `json:"landing_page_url"`
	Source         *struct {
		DisplayName string `json:"display_name"`
	} `json:"source"`
}

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]+>`)
	whitespace  = regexp.MustCompile(`\s+`)
	arxivLocRe  = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5})`)
	openalexPre = "https://openalex.org/"
)

// parseWork 把单条 works 记录转成 Paper，无标题或无 ID 的记录返回 nil
func parseWork(w work, journalCode string, journal JournalInfo) *models.Paper {
	sourceID := w.DOI
	if sourceID == "" {
		openalexID := strings.TrimPrefix(w.ID, openalexPre)
		if openalexID == "" {
			return nil
		}
		sourceID = "openalex:" + openalexID
	}

	title := cleanTitle(w.Title)
	if title == "" {
		return nil
	}

	var authors []string
	for _, as := range w.Authorships {
		if len(authors) >= maxAuthors {
			break
		}
		if name := as.Author.DisplayName; name != "" {
			authors = append(authors, name)
		}
	}

	publishedAt, err := time.Parse("2006-01-02", w.PublicationDate)
	if err != nil {
		publishedAt = time.Time{}
	}

	pageURL := sourceID
	if !strings.HasPrefix(pageURL, "http") {
		pageURL = "https://doi.org/" + strings.TrimPrefix(sourceID, "openalex:")
	}
	if w.PrimaryLocation != nil && w.PrimaryLocation.LandingPageURL != "" {
		pageURL = w.PrimaryLocation.LandingPageURL
	}

	paper := &models.Paper{
		Source:           "openalex",
		SourceID:         sourceID,
		URL:              pageURL,
		Title:            title,
		Authors:          authors,
		Abstract:         RebuildAbstract(w.AbstractInvertedIndex),
		Categories:       []string{journalCode},
		Venue:            journal.FullName,
		FirstSubmittedAt: publishedAt,
	}

	// 记录 arXiv 预印本版本（如果有）
	if arxivID := findArxivID(w.Locations); arxivID != "" {
		paper.Comments = "arXiv:" + arxivID
	}

	return paper
}

// findArxivID 从 locations 里找 arXiv 版本的 ID
func findArxivID(locations []location) string {
	for _, loc := range locations {
		if loc.Source == nil {
			continue
		}
		if !strings.Contains(strings.ToLower(loc.Source.DisplayName), "arxiv") {
			continue
		}
		if m := arxivLocRe.FindStringSubmatch(loc.LandingPageURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// RebuildAbstract 把倒排索引格式的摘要重建为普通文本。
// OpenAlex 为规避版权问题用 {"word": [pos, ...]} 格式存储摘要。
func RebuildAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	maxPosition := 0
	for _, positions := range invertedIndex {
		for _, pos := range positions {
			if pos > maxPosition {
				maxPosition = pos
			}
		}
	}
	if maxPosition > maxAbstractPosition {
		maxPosition = maxAbstractPosition
	}

	words := make([]string, maxPosition+1)
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			if pos >= 0 && pos <= maxPosition {
				words[pos] = word
			}
		}
	}

	var b strings.Builder
	for _, word := range words {
		if word == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
	}
	return b.String()
}

func cleanTitle(title string) string {
	title = htmlTagRe.ReplaceAllString(title, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(title, " "))
}

func normalizeJournalCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
