package models

import (
	"encoding/json"
	"time"

	"github.com/flaboy/aira-books/pkg/database"
)

// SourceConnection 商店平台连接配置
type SourceConnection struct {
	ID          uint            `gorm:"primaryKey"`
	TeamID      uint            `gorm:"index"`
	Platform    string          `gorm:"size:50;index"`
	StoreURL    string          `gorm:"size:255"`
	Credentials json.RawMessage `gorm:"type:text"`
	// 支付方式 -> Xero账户代码映射
	PaymentAccountMap json.RawMessage `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s *SourceConnection) TableName() string {
	return "ar_source_connections"
}

// PaymentAccountCode resolves the Xero account code mapped to a source
// payment method. Absence of a mapping is a valid answer, not an error.
func (s *SourceConnection) PaymentAccountCode(paymentMethod string) string {
	if len(s.PaymentAccountMap) == 0 {
		return ""
	}
	m := map[string]string{}
	if err := json.Unmarshal(s.PaymentAccountMap, &m); err != nil {
		return ""
	}
	return m[paymentMethod]
}

type XeroConnection struct {
	ID             uint   `gorm:"primaryKey"`
	TeamID         uint   `gorm:"index"`
	TenantID       string `gorm:"size:100"`
	TenantName     string `gorm:"size:255"`
	AccessToken    string `gorm:"type:text"`
	RefreshToken   string `gorm:"type:text"`
	TokenExpiresAt *time.Time
	// 账户代码配置，空值回退到全局默认
	SalesAccountCode    string `gorm:"size:20"`
	ShippingAccountCode string `gorm:"size:20"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (x *XeroConnection) TableName() string {
	return "ar_xero_connections"
}

func (x *XeroConnection) Connected() bool {
	return x.AccessToken != "" && x.TenantID != ""
}

// TokenExpiringWithin reports whether the access token expires inside the
// given buffer (or already has).
func (x *XeroConnection) TokenExpiringWithin(buffer time.Duration) bool {
	if x.TokenExpiresAt == nil {
		return true
	}
	return time.Now().Add(buffer).After(*x.TokenExpiresAt)
}

func init() {
	database.RegisterAutoMigrateModels(&SourceConnection{}, &XeroConnection{})
}
