package main

import (
	"os"

	"github.com/spf13/cobra"

	"PaperTrend/config"
	"PaperTrend/internal/app"
	"PaperTrend/pkg/logger"
)

var (
	configFile string
	version    = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "papertrend",
	Short: "论文抓取、评分与关键词趋势追踪",
	Long: `papertrend 从 arXiv 和 OpenAlex 抓取最新论文，
用 LLM 按研究画像评分，并持续追踪关键词趋势，生成 Markdown 报告。`,
	Version:      version,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig 初始化配置和日志
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Init(configFile)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.File == "", cfg.Log.File)
	return cfg, nil
}

// newApp 构建应用实例，调用方负责 Close
func newApp() (*app.App, *config.AppConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, cfg, nil
}
