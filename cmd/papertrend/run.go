package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "执行一次完整流水线（抓取、评分、追踪、报告）",
	RunE:  runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, cfg, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.RunDaily(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("抓取: %d 篇，评分: %d 篇，及格: %d 篇\n", result.Fetched, result.Scored, result.Qualified)
	if cfg.Tracker.Enabled {
		fmt.Printf("关键词归一化: 处理 %d 个，新增规范词 %d 个，合并 %d 个\n",
			result.Normalization.Processed, result.Normalization.NewCanonical, result.Normalization.Merged)
	}
	for source, path := range result.ReportPaths {
		fmt.Printf("报告 [%s]: %s\n", source, path)
	}
	if result.TrendReport != "" {
		fmt.Printf("趋势报告: %s\n", result.TrendReport)
	}
	if result.FeishuURL != "" {
		fmt.Printf("飞书多维表格: %s\n", result.FeishuURL)
	}
	return nil
}
