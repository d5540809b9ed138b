package errors

import "github.com/flaboy/pin/usererrors"

// 同步相关错误
var (
	ErrSyncAlreadyRunning       = usererrors.New("sync.already_running", "A sync is already running for this team")
	ErrWooCommerceNotConfigured = usererrors.New("sync.woocommerce_not_configured", "WooCommerce credentials are not configured for this team")
	ErrXeroNotConnected         = usererrors.New("sync.xero_not_connected", "Xero is not connected for this team")
	ErrXeroReauthRequired       = usererrors.New("sync.xero_reauth_required", "Xero token is invalid or expired, please reconnect")
	ErrSourceNotSupported       = usererrors.New("sync.source_not_supported", "Unsupported source platform")
	ErrSourceNotFound           = usererrors.New("sync.source_not_found", "Source platform not found")
	ErrSourceCredentials        = usererrors.New("sync.source_credentials_invalid", "Source connection credentials are invalid")
)
