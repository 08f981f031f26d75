package main

import (
	"fmt"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"PaperTrend/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "查看或初始化配置",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "打印当前生效的配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("序列化配置失败: %w", err)
		}

		if path := config.GetConfigPath(); path != "" {
			fmt.Printf("# 配置文件: %s\n", path)
		}
		fmt.Print(string(out))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "在用户目录创建示例配置文件",
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.CreateExampleConfig()
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
