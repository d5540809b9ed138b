package types

// FetchOptions bounds an order fetch from a source platform.
type FetchOptions struct {
	// 取最近几天的订单
	Days      int
	MaxOrders int
}
