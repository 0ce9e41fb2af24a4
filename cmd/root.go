// Package cmd 命令行入口
package cmd

import (
	"fmt"
	"os"

	"thyrosight/config"
	"thyrosight/logger"

	"github.com/spf13/cobra"
)

// Version 构建时通过 -ldflags 注入
var Version = "1.0.0"

var configFile string

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "thyrosight",
		Short:         "甲状腺自评服务",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "外部配置文件路径（可选）")

	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

// Execute 执行根命令
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log)
	logger.L().WithFields(cfg.Summary()).Info("配置已加载")
	return cfg, nil
}
