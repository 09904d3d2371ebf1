package models

import "time"

// Config represents the application configuration
type Config struct {
	DocStore DocStoreConfig
	Server   ServerConfig
	Auth     AuthConfig
	Journal  JournalConfig
}

// DocStoreConfig holds connection settings for the hosted document store.
// The keys are deployment secrets and are only ever supplied via environment.
type DocStoreConfig struct {
	BaseURL        string
	MasterKey      string
	AccessKey      string
	RequestTimeout time.Duration
	DocumentsFile  string
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// AuthConfig holds session token and credential hashing settings
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	BcryptCost  int
}

// JournalConfig holds approval journal database settings
type JournalConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// DocumentHandles maps each collection to its document handle (bin id) in
// the remote store.
type DocumentHandles struct {
	Users              string `yaml:"users"`
	FundingRequests    string `yaml:"funding_requests"`
	WithdrawalRequests string `yaml:"withdrawal_requests"`
	Notifications      string `yaml:"notifications"`
	Messages           string `yaml:"messages"`
}
