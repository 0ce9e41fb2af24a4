package cmd

import (
	"fmt"

	"thyrosight/database"
	"thyrosight/logger"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库迁移",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "执行全部未应用的迁移",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return runMigrations(cfg.Database.MigrateURL())
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "回滚一个迁移版本",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				runner, err := database.NewMigrationRunner(cfg.Database.MigrateURL(), logger.L())
				if err != nil {
					return err
				}
				defer runner.Close()
				return runner.Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "查看当前迁移版本",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				runner, err := database.NewMigrationRunner(cfg.Database.MigrateURL(), logger.L())
				if err != nil {
					return err
				}
				defer runner.Close()

				v, dirty, err := runner.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
				return nil
			},
		},
	)
	return cmd
}

func runMigrations(url string) error {
	runner, err := database.NewMigrationRunner(url, logger.L())
	if err != nil {
		return err
	}
	defer runner.Close()
	return runner.Up()
}
