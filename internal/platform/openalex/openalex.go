package openalex

import (
	"PaperTrend/internal/core"
	"PaperTrend/internal/platform"
)

func New(config *Config) (platform.Platform, error) {
	return NewAdapter(config)
}

func init() {
	core.MustRegister(core.Provider{
		Name: "openalex",
		New: func(cfg platform.Config) (platform.Platform, error) {
			c, _ := cfg.(*Config)
			if c == nil {
				c = DefaultConfig()
			}
			return New(c)
		},
		DefaultConfig: func() platform.Config { return DefaultConfig() },
	})
}

// JournalInfo 期刊代码对应的名称与 ISSN 列表
type JournalInfo struct {
	FullName    string
	ISSN        []string
	DisplayName string
}

// 期刊代码到 ISSN 的映射
var journalISSNMap = map[string]JournalInfo{
	// Physical Review 系列
	"prl":  {FullName: "Physical Review Letters", ISSN: []string{"0031-9007", "1079-7114"}, DisplayName: "PRL"},
	"pra":  {FullName: "Physical Review A", ISSN: []string{"2469-9926", "1050-2947"}, DisplayName: "PRA"},
	"prb":  {FullName: "Physical Review B", ISSN: []string{"2469-9950", "1098-0121"}, DisplayName: "PRB"},
	"prc":  {FullName: "Physical Review C", ISSN: []string{"2469-9985", "0556-2813"}, DisplayName: "PRC"},
	"prd":  {FullName: "Physical Review D", ISSN: []string{"2470-0010", "1550-7998"}, DisplayName: "PRD"},
	"pre":  {FullName: "Physical Review E", ISSN: []string{"2470-0045", "1539-3755"}, DisplayName: "PRE"},
	"prx":  {FullName: "Physical Review X", ISSN: []string{"2160-3308"}, DisplayName: "PRX"},
	"prxq": {FullName: "PRX Quantum", ISSN: []string{"2691-3399"}, DisplayName: "PRX Quantum"},
	"rmp":  {FullName: "Reviews of Modern Physics", ISSN: []string{"0034-6861", "1539-0756"}, DisplayName: "RMP"},
	// Nature 系列
	"nature":                {FullName: "Nature", ISSN: []string{"0028-0836", "1476-4687"}, DisplayName: "Nature"},
	"nature_physics":        {FullName: "Nature Physics", ISSN: []string{"1745-2473", "1745-2481"}, DisplayName: "Nat. Phys."},
	"nature_communications": {FullName: "Nature Communications", ISSN: []string{"2041-1723"}, DisplayName: "Nat. Commun."},
	// Science 系列
	"science":          {FullName: "Science", ISSN: []string{"0036-8075", "1095-9203"}, DisplayName: "Science"},
	"science_advances": {FullName: "Science Advances", ISSN: []string{"2375-2548"}, DisplayName: "Sci. Adv."},
	// 其他重要期刊
	"npj_quantum_information": {FullName: "npj Quantum Information", ISSN: []string{"2056-6387"}, DisplayName: "npj QI"},
	"quantum":                 {FullName: "Quantum", ISSN: []string{"2521-327X"}, DisplayName: "Quantum"},
	"new_journal_of_physics":  {FullName: "New Journal of Physics", ISSN: []string{"1367-2630"}, DisplayName: "NJP"},
}

// LookupJournal 根据期刊代码查找期刊信息（大小写不敏感）
func LookupJournal(code string) (JournalInfo, bool) {
	info, ok := journalISSNMap[normalizeJournalCode(code)]
	return info, ok
}

// Journals 返回所有支持的期刊代码
func Journals() []string {
	codes := make([]string, 0, len(journalISSNMap))
	for code := range journalISSNMap {
		codes = append(codes, code)
	}
	return codes
}
