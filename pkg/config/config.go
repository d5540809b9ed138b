package config

type BooksConfig struct {
	Xero struct {
		ClientID      string `cfg:"CLIENT_ID"`
		APIBaseURL    string `cfg:"API_BASE_URL" default:"https://api.xero.com/api.xro/2.0"`
		TokenURL      string `cfg:"TOKEN_URL" default:"https://identity.xero.com/connect/token"`
		RevocationURL string `cfg:"REVOCATION_URL" default:"https://identity.xero.com/connect/revocation"`
	} `cfg:"XERO"`

	Sync struct {
		Days               int    `cfg:"DAYS" default:"2"`
		MaxOrders          int    `cfg:"MAX_ORDERS" default:"100"`
		BatchSize          int    `cfg:"BATCH_SIZE" default:"100"`
		ReferenceChunkSize int    `cfg:"REFERENCE_CHUNK_SIZE" default:"50"`
		SKUChunkSize       int    `cfg:"SKU_CHUNK_SIZE" default:"25"`
		DefaultAccountCode string `cfg:"DEFAULT_ACCOUNT_CODE" default:"200"`
		DefaultTaxType     string `cfg:"DEFAULT_TAX_TYPE" default:"NONE"`
	} `cfg:"SYNC"`

	Database struct {
		Driver string `cfg:"DRIVER" default:"mysql"`
		DSN    string `cfg:"DSN"`
	} `cfg:"DATABASE"`

	Trigger struct {
		Enabled      bool   `cfg:"ENABLED" default:"false"`
		AWSRegion    string `cfg:"AWS_REGION"`
		AWSAccessKey string `cfg:"AWS_ACCESS_KEY"`
		AWSSecret    string `cfg:"AWS_SECRET"`
		SQSQueueURL  string `cfg:"SQS_QUEUE_URL"`
	} `cfg:"TRIGGER"`
}

var Config *BooksConfig
