package database

import (
	"fmt"

	"github.com/flaboy/aira-books/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

var autoMigrateModels []interface{}

// RegisterAutoMigrateModels 注册需要自动迁移的模型
func RegisterAutoMigrateModels(models ...interface{}) {
	autoMigrateModels = append(autoMigrateModels, models...)
}

func Init(cfg *config.BooksConfig) error {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql", "":
		dialector = mysql.Open(cfg.Database.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.Database.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.AutoMigrate(autoMigrateModels...); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	db = conn
	return nil
}

func Database() *gorm.DB {
	return db
}

// SetDatabase 供测试注入连接
func SetDatabase(conn *gorm.DB) {
	db = conn
}
