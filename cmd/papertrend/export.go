package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportDays   int
	exportLimit  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出最近的论文到 CSV 或 JSON 文件",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		output := exportOutput
		if output == "" {
			output = fmt.Sprintf("papers.%s", exportFormat)
		}
		return a.ExportPapers(exportFormat, output, exportDays, exportLimit)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <csv文件>",
	Short: "把 CSV 文件上传为飞书多维表格",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		url, err := a.UploadCSVToFeishu(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("飞书多维表格: %s\n", url)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "导出格式: csv/json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "输出文件路径")
	exportCmd.Flags().IntVar(&exportDays, "days", 7, "导出最近 N 天的论文")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "最大导出数量，0 表示不限制")
}
