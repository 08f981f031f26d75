package arxiv

import (
	"PaperTrend/internal/core"
	"PaperTrend/internal/platform"
)

func New(config *Config) (platform.Platform, error) {
	return NewAdapter(config)
}

func init() {
	core.MustRegister(core.Provider{
		Name: "arxiv",
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

// PDFUrl 拼出 PDF 下载地址
func PDFUrl(arxivID string) string {
	return "https://arxiv.org/pdf/" + arxivID
}
