package openalex

import (
	"fmt"
)

type Config struct {
	Email   string `mapstructure:"email" yaml:"email"`       // 礼貌池邮箱，提高速率限制
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`   // API Key（可选，优先于邮箱）
	Proxy   string `mapstructure:"proxy" yaml:"proxy"`       // 代理地址
	Timeout int    `mapstructure:"timeout" yaml:"timeout"`   // 超时时间（秒）
	PerPage int    `mapstructure:"per_page" yaml:"per_page"` // 每页数量（1-200）

	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // API 基础 URL
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: 30,
		PerPage: 100,
		BaseURL: "https://api.openalex.org",
	}
}

func (c *Config) Validate() error {
	if c.PerPage <= 0 || c.PerPage > 200 {
		return fmt.Errorf("per_page must be between 1 and 200, got %d", c.PerPage)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	return nil
}
