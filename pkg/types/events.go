package types

import "time"

type SyncCompletedEvent struct {
	TeamID             uint      `json:"team_id"`
	SyncRunID          uint      `json:"sync_run_id"`
	TotalOrders        int       `json:"total_orders"`
	SuccessfulInvoices int       `json:"successful_invoices"`
	FailedInvoices     int       `json:"failed_invoices"`
	CreatedAt          time.Time `json:"created_at"`
}

type SyncFailedEvent struct {
	TeamID    uint      `json:"team_id"`
	SyncRunID uint      `json:"sync_run_id"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
}
