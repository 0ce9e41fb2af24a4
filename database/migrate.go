package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationRunner 执行版本化的 SQL 迁移
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner 使用内嵌的迁移文件创建执行器
func NewMigrationRunner(databaseURL string, log *logrus.Logger) (*MigrationRunner, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("读取迁移文件失败: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("创建迁移实例失败: %w", err)
	}

	return &MigrationRunner{migrate: m, log: log}, nil
}

// Up 执行全部未应用的迁移
func (mr *MigrationRunner) Up() error {
	mr.log.Info("开始执行数据库迁移")

	if err := mr.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.log.Info("没有待执行的迁移")
			return nil
		}
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	mr.logVersion("数据库迁移完成")
	return nil
}

// Down 回滚一个版本
func (mr *MigrationRunner) Down() error {
	mr.log.Info("回滚一个迁移版本")

	if err := mr.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.log.Info("没有可回滚的迁移")
			return nil
		}
		return fmt.Errorf("回滚迁移失败: %w", err)
	}

	mr.logVersion("迁移已回滚")
	return nil
}

// Version 当前版本，dirty 表示上次迁移中途失败
func (mr *MigrationRunner) Version() (uint, bool, error) {
	v, dirty, err := mr.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close 释放连接
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("关闭迁移源失败: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("关闭迁移数据库失败: %w", dbErr)
	}
	return nil
}

func (mr *MigrationRunner) logVersion(msg string) {
	v, dirty, err := mr.Version()
	if err != nil {
		mr.log.WithError(err).Warn("无法读取迁移版本")
		return
	}
	mr.log.WithFields(logrus.Fields{"version": v, "dirty": dirty}).Info(msg)
}
