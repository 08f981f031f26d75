package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsDays int
	statsTopN int
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "只执行关键词归一化，不抓取论文",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		run := a.Tracker().RunDailyNormalization(cmd.Context())
		fmt.Printf("处理 %d 个关键词，新增规范词 %d 个，合并 %d 个\n",
			run.Processed, run.NewCanonical, run.Merged)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "查看关键词库统计和热门关键词",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Tracker().Stats()
		if err != nil {
			return fmt.Errorf("获取统计失败: %w", err)
		}

		fmt.Printf("关键词总数:   %d\n", stats.TotalKeywords)
		fmt.Printf("已标准化:     %d\n", stats.NormalizedKeywords)
		fmt.Printf("规范词:       %d\n", stats.CanonicalKeywords)
		fmt.Printf("别名:         %d\n", stats.Aliases)

		top, err := a.Tracker().GetTopKeywords(statsDays, statsTopN)
		if err != nil {
			return fmt.Errorf("获取热门关键词失败: %w", err)
		}
		if len(top) > 0 {
			fmt.Printf("\n最近 %d 天热门关键词:\n", statsDays)
			for i, kw := range top {
				category := kw.Category
				if category == "" {
					category = "-"
				}
				fmt.Printf("%3d. %-40s %4d  [%s]\n", i+1, kw.Keyword, kw.Total, category)
			}
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "立即生成关键词趋势报告（忽略频率配置）",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.Reporter().GenerateTrendReport()
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Println("暂无关键词数据，未生成报告")
			return nil
		}
		fmt.Printf("趋势报告: %s\n", path)
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 30, "统计回溯天数")
	statsCmd.Flags().IntVar(&statsTopN, "top", 15, "显示的关键词数量")
}
