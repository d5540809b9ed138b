package source

import (
	"context"

	"github.com/flaboy/aira-books/pkg/models"
	"github.com/flaboy/aira-books/pkg/types"
)

type SourcePlatform interface {
	// 拉取待记账的订单（已支付或处理中），按创建时间升序
	FetchRecentOrders(ctx context.Context, conn *models.SourceConnection, opts types.FetchOptions) ([]types.Order, error)

	// 验证连接配置
	TestConnection(ctx context.Context, conn *models.SourceConnection) error

	// 获取平台名称
	GetPlatformName() string
}
