package openalex

import (
	"encoding/json"
	"strings"
	"testing"

	"PaperTrend/internal/platform"
)

const sampleWorks = `{
  "meta": {"count": 2, "page": 1, "per_page": 100},
  "results": [
    {
      "id": "https://openalex.org/W4321",
      "doi": "https://doi.org/10.1103/PhysRevLett.100.000001",
      "title": "Quantum  Error <i>Correction</i> in Superconducting Circuits",
      "authorships": [
        {"author": {"display_name": "Alice Zhang"}},
        {"author": {"display_name": "Bob Liu"}}
      ],
      "abstract_inverted_index": {
        "We": [0], "study": [1], "quantum": [2, 5], "error": [3],
        "correction": [4], "circuits.": [6]
      },
      "publication_date": "2026-08-25",
      "primary_location": {
        "landing_page_url": "https://journals.aps.org/prl/abstract/10.1103/PhysRevLett.100.000001",
        "source": {"display_name": "Physical Review Letters"}
      },
      "open_access": {"is_oa": true, "oa_url": "https://arxiv.org/pdf/2608.12345"},
      "locations": [
        {
          "landing_page_url": "https://arxiv.org/abs/2608.12345",
          "source": {"display_name": "arXiv (Cornell University)"}
        }
      ]
    },
    {
      "id": "https://openalex.org/W4322",
      "doi": "",
      "title": "",
      "authorships": [],
      "publication_date": "2026-08-24"
    }
  ]
}`

func TestParseWorksResponse(t *testing.T) {
	var resp worksResponse
	if err := json.Unmarshal([]byte(sampleWorks), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if resp.Meta.Count != 2 {
		t.Errorf("Meta.Count = %d, want 2", resp.Meta.Count)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(resp.Results))
	}

	journal, ok := LookupJournal("PRL")
	if !ok {
		t.Fatal("LookupJournal(PRL) not found")
	}

	paper := parseWork(resp.Results[0], "prl", journal)
	if paper == nil {
		t.Fatal("parseWork() returned nil for valid work")
	}

	if paper.Title != "Quantum Error Correction in Superconducting Circuits" {
		t.Errorf("Title = %q", paper.Title)
	}
	if paper.Source != "openalex" {
		t.Errorf("Source = %q, want openalex", paper.Source)
	}
	if paper.SourceID != "https://doi.org/10.1103/PhysRevLett.100.000001" {
		t.Errorf("SourceID = %q", paper.SourceID)
	}
	if paper.Venue != "Physical Review Letters" {
		t.Errorf("Venue = %q", paper.Venue)
	}
	if len(paper.Authors) != 2 || paper.Authors[0] != "Alice Zhang" {
		t.Errorf("Authors = %v", paper.Authors)
	}
	if paper.Abstract != "We study quantum error correction quantum circuits." {
		t.Errorf("Abstract = %q", paper.Abstract)
	}
	if paper.FirstSubmittedAt.Format("2006-01-02") != "2026-08-25" {
		t.Errorf("FirstSubmittedAt = %v", paper.FirstSubmittedAt)
	}
	if paper.Comments != "arXiv:2608.12345" {
		t.Errorf("Comments = %q, want arXiv ID", paper.Comments)
	}
	if !strings.Contains(paper.URL, "journals.aps.org") {
		t.Errorf("URL = %q, want landing page", paper.URL)
	}

	// 空标题条目应被丢弃
	if got := parseWork(resp.Results[1], "prl", journal); got != nil {
		t.Errorf("parseWork() = %+v, want nil for empty title", got)
	}
}

func TestRebuildAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{
			name:  "normal",
			index: map[string][]int{"the": {0, 2}, "quick": {1}, "fox": {3}},
			want:  "the quick the fox",
		},
		{
			name:  "gap in positions",
			index: map[string][]int{"a": {0}, "b": {5}},
			want:  "a b",
		},
		{
			name:  "empty",
			index: map[string][]int{},
			want:  "",
		},
		{
			name:  "nil",
			index: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RebuildAbstract(tt.index); got != tt.want {
				t.Errorf("RebuildAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRebuildAbstractCapsPosition(t *testing.T) {
	index := map[string][]int{
		"start":  {0},
		"bogus":  {maxAbstractPosition + 1000},
		"within": {10},
	}
	got := RebuildAbstract(index)
	if got != "start within" {
		t.Errorf("RebuildAbstract() = %q, want bogus position dropped", got)
	}
}

func TestLookupJournal(t *testing.T) {
	if _, ok := LookupJournal("prxq"); !ok {
		t.Error("LookupJournal(prxq) not found")
	}
	if _, ok := LookupJournal(" Nature_Physics "); !ok {
		t.Error("LookupJournal should trim and lowercase the code")
	}
	if _, ok := LookupJournal("unknown_journal"); ok {
		t.Error("LookupJournal(unknown_journal) should not be found")
	}
}

func TestBuildWorksURL(t *testing.T) {
	adapter, err := NewAdapter(&Config{
		Email:   "researcher@example.com",
		Timeout: 30,
		PerPage: 100,
		BaseURL: "https://api.openalex.org",
	})
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}

	journal, _ := LookupJournal("prl")
	q := platform.Query{DateFrom: "2026-08-20", DateTo: "2026-08-27"}

	u := adapter.buildWorksURL(journal, q, 1, 100)

	for _, want := range []string{
		"0031-9007%7C1079-7114",
		"from_publication_date%3A2026-08-20",
		"to_publication_date%3A2026-08-27",
		"mailto=researcher%40example.com",
		"sort=publication_date%3Adesc",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("buildWorksURL() missing %q in %q", want, u)
		}
	}
}

func TestBuildWorksURLPrefersAPIKey(t *testing.T) {
	adapter, err := NewAdapter(&Config{
		Email:   "researcher@example.com",
		APIKey:  "secret",
		Timeout: 30,
		PerPage: 100,
		BaseURL: "https://api.openalex.org",
	})
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}

	journal, _ := LookupJournal("prl")
	u := adapter.buildWorksURL(journal, platform.Query{}, 1, 100)

	if !strings.Contains(u, "api_key=secret") {
		t.Errorf("buildWorksURL() missing api_key in %q", u)
	}
	if strings.Contains(u, "mailto") {
		t.Errorf("buildWorksURL() should not include mailto when api_key set: %q", u)
	}
}
