package commence

import (
	"github.com/flaboy/aira-books/pkg/config"
	"github.com/flaboy/aira-books/pkg/database"
	"github.com/flaboy/aira-books/pkg/events"
	"github.com/flaboy/aira-books/pkg/extensions/source"
)

func Start(cfg *config.BooksConfig) error {
	config.Config = cfg

	if err := database.Init(cfg); err != nil {
		return err
	}

	// 启动服务组件
	if err := source.Init(); err != nil {
		return err
	}

	return nil
}

// 注册业务系统的事件处理器
func RegisterEventHandler(handler events.EventHandler) {
	events.SetEventHandler(handler)
}
