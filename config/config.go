package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	emb "PaperTrend/internal/embedding"
	"PaperTrend/internal/platform/arxiv"
	"PaperTrend/internal/platform/openalex"
	"PaperTrend/pkg/logger"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"` // 数据库文件路径
}

// LLMConfig LLM 配置（用于 Agent）
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`       // API 地址，支持 OpenAI 兼容的 API
	ModelName   string  `mapstructure:"model" yaml:"model"`             // 模型名称
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`         // API Key
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"` // 采样温度
}

// KeywordsConfig 研究关键词画像配置
type KeywordsConfig struct {
	Keywords            map[string]float64 `mapstructure:"keywords" yaml:"keywords"`                         // 关键词 -> 权重
	SimilarityThreshold float64            `mapstructure:"similarity_threshold" yaml:"similarity_threshold"` // 去重相似度阈值
}

// ScoringConfig 论文评分配置
type ScoringConfig struct {
	MaxScorePerKeyword      int      `mapstructure:"max_score_per_keyword" yaml:"max_score_per_keyword"`
	PassingScoreBase        float64  `mapstructure:"passing_score_base" yaml:"passing_score_base"`
	PassingScoreCoefficient float64  `mapstructure:"passing_score_coefficient" yaml:"passing_score_coefficient"`
	EnableAuthorBonus       bool     `mapstructure:"enable_author_bonus" yaml:"enable_author_bonus"`
	AuthorBonusPoints       float64  `mapstructure:"author_bonus_points" yaml:"author_bonus_points"`
	ExpertAuthors           []string `mapstructure:"expert_authors" yaml:"expert_authors"`
	ResearchContext         string   `mapstructure:"research_context" yaml:"research_context"`
}

// SearchConfig 抓取范围配置
type SearchConfig struct {
	EnabledSources []string `mapstructure:"enabled_sources" yaml:"enabled_sources"` // 启用的数据源
	Days           int      `mapstructure:"days" yaml:"days"`                       // 回溯天数
	MaxResults     int      `mapstructure:"max_results" yaml:"max_results"`         // 每个数据源的最大抓取数
	Categories     []string `mapstructure:"categories" yaml:"categories"`           // arXiv 类别
	Journals       []string `mapstructure:"journals" yaml:"journals"`               // OpenAlex 期刊代码
}

// TrackerConfig 关键词趋势追踪配置
type TrackerConfig struct {
	Enabled   bool `mapstructure:"enabled" yaml:"enabled"`
	BatchSize int  `mapstructure:"batch_size" yaml:"batch_size"` // 归一化每批数量
	Days      int  `mapstructure:"days" yaml:"days"`             // 图表回溯窗口
	ChartTopN int  `mapstructure:"chart_top_n" yaml:"chart_top_n"`
	TrendTopN int  `mapstructure:"trend_top_n" yaml:"trend_top_n"`
}

// ReportConfig 报告生成配置
type ReportConfig struct {
	OutputDir      string `mapstructure:"output_dir" yaml:"output_dir"`
	BySource       bool   `mapstructure:"by_source" yaml:"by_source"`             // 按数据源分子目录
	IncludeAll     bool   `mapstructure:"include_all" yaml:"include_all"`         // false 时只写及格论文
	TrendFrequency string `mapstructure:"trend_frequency" yaml:"trend_frequency"` // always/daily/weekly/monthly
}

// FeiShuConfig 飞书上传配置
type FeiShuConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	AppID     string `mapstructure:"app_id" yaml:"app_id"`
	AppSecret string `mapstructure:"app_secret" yaml:"app_secret"`
	TableName string `mapstructure:"table_name" yaml:"table_name"` // 多维表格名称
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"` // 为空时输出到控制台
}

// AppConfig 应用总配置(全局 + 平台)
type AppConfig struct {
	Env      string             `mapstructure:"env" yaml:"env"` // 运行环境:dev/prod
	Log      LogConfig          `mapstructure:"log" yaml:"log"`
	Database DatabaseConfig     `mapstructure:"database" yaml:"database"`
	Embedder emb.EmbedderConfig `mapstructure:"embedder" yaml:"embedder"`
	Arxiv    arxiv.Config       `mapstructure:"arxiv" yaml:"arxiv"`       // arXiv 平台配置
	OpenAlex openalex.Config    `mapstructure:"openalex" yaml:"openalex"` // OpenAlex 平台配置
	Search   SearchConfig       `mapstructure:"search" yaml:"search"`
	Keywords KeywordsConfig     `mapstructure:"profile" yaml:"profile"` // 研究画像
	Scoring  ScoringConfig      `mapstructure:"scoring" yaml:"scoring"`
	Tracker  TrackerConfig      `mapstructure:"tracker" yaml:"tracker"`
	Report   ReportConfig       `mapstructure:"report" yaml:"report"`
	FeiShu   FeiShuConfig       `mapstructure:"feishu" yaml:"feishu"`
	LLM      LLMConfig          `mapstructure:"agent" yaml:"agent"`             // 轻量模型（关键词归一化等）
	SmartLLM LLMConfig          `mapstructure:"smart_agent" yaml:"smart_agent"` // 评分模型，留空时退回 agent
}

// ScoringLLM 评分用的模型配置，smart_agent 未配置时退回 agent
func (c *AppConfig) ScoringLLM() LLMConfig {
	if c.SmartLLM.APIKey != "" || c.SmartLLM.ModelName != "" {
		llm := c.SmartLLM
		if llm.APIKey == "" {
			llm.APIKey = c.LLM.APIKey
		}
		if llm.BaseURL == "" {
			llm.BaseURL = c.LLM.BaseURL
		}
		return llm
	}
	return c.LLM
}

var (
	global     *AppConfig
	once       sync.Once
	globalErr  error
	configPath string // 存储当前使用的配置文件路径
)

func setDefaults(v *viper.Viper) {

	homedir, _ := os.UserHomeDir()
	dataBasePath := filepath.Join(homedir, ".papertrend", "data", "papertrend.db")
	v.SetDefault("env", "prod")
	v.SetDefault("database.path", dataBasePath)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("arxiv.use_api", true)
	v.SetDefault("arxiv.proxy", "")
	v.SetDefault("arxiv.step", 100)
	v.SetDefault("arxiv.timeout", 30)
	v.SetDefault("arxiv.api_base", "https://export.arxiv.org/api/query")
	v.SetDefault("arxiv.web_base", "https://arxiv.org/search/advanced")

	// OpenAlex 默认值
	v.SetDefault("openalex.email", "")
	v.SetDefault("openalex.api_key", "")
	v.SetDefault("openalex.proxy", "")
	v.SetDefault("openalex.timeout", 30)
	v.SetDefault("openalex.per_page", 100)
	v.SetDefault("openalex.base_url", "https://api.openalex.org")

	v.SetDefault("search.enabled_sources", []string{"arxiv"})
	v.SetDefault("search.days", 1)
	v.SetDefault("search.max_results", 100)
	v.SetDefault("search.categories", []string{"quant-ph"})
	v.SetDefault("search.journals", []string{})

	// 研究画像默认值
	v.SetDefault("profile.keywords", map[string]float64{})
	v.SetDefault("profile.similarity_threshold", 0.75)

	// 评分默认值
	v.SetDefault("scoring.max_score_per_keyword", 10)
	v.SetDefault("scoring.passing_score_base", 3.0)
	v.SetDefault("scoring.passing_score_coefficient", 2.5)
	v.SetDefault("scoring.enable_author_bonus", false)
	v.SetDefault("scoring.author_bonus_points", 5.0)
	v.SetDefault("scoring.expert_authors", []string{})
	v.SetDefault("scoring.research_context", "")

	// 关键词追踪默认值
	v.SetDefault("tracker.enabled", true)
	v.SetDefault("tracker.batch_size", 50)
	v.SetDefault("tracker.days", 30)
	v.SetDefault("tracker.chart_top_n", 15)
	v.SetDefault("tracker.trend_top_n", 5)

	// 报告默认值
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.by_source", true)
	v.SetDefault("report.include_all", true)
	v.SetDefault("report.trend_frequency", "weekly")

	// Embedder 默认值
	v.SetDefault("embedder.baseurl", "")
	v.SetDefault("embedder.apikey", "")
	v.SetDefault("embedder.model", "Qwen/Qwen3-Embedding-4B")
	v.SetDefault("embedder.dim", 2560)

	// 飞书默认值
	v.SetDefault("feishu.enabled", false)
	v.SetDefault("feishu.app_id", "")
	v.SetDefault("feishu.app_secret", "")
	v.SetDefault("feishu.table_name", "PaperTrend 论文评分")

	// LLM 默认值（使用 agent 作为键名以兼容现有配置）
	v.SetDefault("agent.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("agent.model", "deepseek/deepseek-v3")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.temperature", 0.3)

	v.SetDefault("smart_agent.base_url", "")
	v.SetDefault("smart_agent.model", "")
	v.SetDefault("smart_agent.api_key", "")
	v.SetDefault("smart_agent.temperature", 0.3)
}

// 可额外传入目录或具体文件路径
func Init(configPaths ...string) (*AppConfig, error) {
	once.Do(func() {
		v := viper.New()
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		homedir, _ := os.UserHomeDir()
		configDir := filepath.Join(homedir, ".papertrend", "config")
		os.MkdirAll(configDir, 0755)

		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath(configDir)

		for _, p := range configPaths {
			if p == "" {
				continue
			}
			if strings.HasSuffix(p, ".yaml") || strings.HasSuffix(p, ".yml") {
				v.SetConfigFile(p)
			} else {
				v.AddConfigPath(p)
			}
		}

		v.SetEnvPrefix("PTD")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		setDefaults(v)

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				globalErr = fmt.Errorf("读取配置文件失败: %w", err)
				return
			}
			// 配置文件不存在，创建示例配置文件
			if err := CreateExampleConfig(); err != nil {
				globalErr = fmt.Errorf("创建示例配置文件失败: %w", err)
				return
			}
		} else {
			configPath = v.ConfigFileUsed()
		}

		cfg := &AppConfig{}
		if err := v.Unmarshal(&cfg); err != nil {
			globalErr = fmt.Errorf("配置解析失败: %w", err)
			return
		}

		// 验证平台配置
		if err := cfg.Arxiv.Validate(); err != nil {
			globalErr = fmt.Errorf("arxiv 配置不合法: %w", err)
			return
		}
		if err := cfg.OpenAlex.Validate(); err != nil {
			globalErr = fmt.Errorf("openalex 配置不合法: %w", err)
			return
		}

		global = cfg
	})
	return global, globalErr
}

func MustInit(configPaths ...string) *AppConfig {
	cfg, err := Init(configPaths...)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Get() *AppConfig {
	if global == nil {
		_, _ = Init()
	}
	return global
}

func GetConfigPath() string {
	if configPath == "" {
		_, _ = Init()
	}
	return configPath
}

func CreateExampleConfig() error {
	homedir, _ := os.UserHomeDir()
	configDir := filepath.Join(homedir, ".papertrend", "config")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	configFile := filepath.Join(configDir, "config.yaml")

	_, err := os.Stat(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，创建配置文件
			exampleContent := `# PaperTrend 配置文件
# 请根据你的需求修改以下配置

# 数据库配置
database:
  path: ""  # 留空使用 ~/.papertrend/data/papertrend.db

# 日志配置
log:
  level: "info"
  file: ""  # 留空输出到控制台

# 抓取范围
search:
  enabled_sources: ["arxiv"]   # 可选: arxiv, openalex
  days: 1                      # 回溯天数
  max_results: 100
  categories: ["quant-ph"]     # arXiv 类别
  journals: []                 # OpenAlex 期刊代码，如: ["prl", "prxq"]

# 研究画像（关键词 -> 权重）
profile:
  keywords:
    quantum computing: 1.0
    quantum error correction: 0.8
  similarity_threshold: 0.75

# 评分配置
scoring:
  max_score_per_keyword: 10
  passing_score_base: 3.0
  passing_score_coefficient: 2.5
  enable_author_bonus: false
  author_bonus_points: 5.0
  expert_authors: []
  research_context: ""

# 关键词趋势追踪
tracker:
  enabled: true
  batch_size: 50
  days: 30
  chart_top_n: 15
  trend_top_n: 5

# 报告生成
report:
  output_dir: "reports"
  by_source: true
  include_all: true
  trend_frequency: "weekly"  # always/daily/weekly/monthly

# arXiv 平台配置
arxiv:
  use_api: true   # 是否使用官方 API（推荐）
  proxy: ""       # 代理设置，如: "http://127.0.0.1:7890"
  step: 100
  timeout: 30

# OpenAlex 平台配置
openalex:
  email: ""       # 礼貌池邮箱，提高速率限制
  api_key: ""
  timeout: 30
  per_page: 100

# Embedding 服务配置（用于关键词去重）
embedder:
  baseurl: ""                        # 如: "https://api.siliconflow.cn/v1"
  apikey: ""                         # 请替换为你的 API Key
  model: "Qwen/Qwen3-Embedding-4B"   # 或使用 OpenAI: "text-embedding-3-small"
  dim: 2560

# 飞书配置（可选）
feishu:
  enabled: false
  app_id: ""      # 飞书应用 ID
  app_secret: ""  # 飞书应用密钥
  table_name: "PaperTrend 论文评分"

# LLM 配置（关键词提取与归一化）
agent:
  base_url: "https://openrouter.ai/api/v1"  # API 地址，支持 OpenAI 兼容的 API
  model: "deepseek/deepseek-v3"             # 模型名称
  api_key: ""                               # API Key
  temperature: 0.3

# 评分模型（留空时使用 agent）
smart_agent:
  base_url: ""
  model: ""
  api_key: ""
  temperature: 0.3
`

			if err := os.WriteFile(configFile, []byte(exampleContent), 0644); err != nil {
				return fmt.Errorf("写入配置文件失败: %w", err)
			}
			logger.Info("已在 %s 中创建配置文件", configFile)
			fmt.Printf("已创建示例配置文件: %s\n", configFile)
			fmt.Println("请编辑配置文件，设置你的 API Key 和其他配置")
			return nil
		}
		// 其他错误（权限问题、路径问题等）
		return fmt.Errorf("检查配置文件时出错: %w", err)
	}

	// 文件存在
	logger.Warn("home 目录下已存在配置文件，请前往编辑即可")
	return nil
}
