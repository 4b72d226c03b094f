package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Settlement SettlementConfig
	Rails      RailsConfig
	Exchange   ExchangeConfig
	Reconcile  ReconcileConfig
	Server     ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// SettlementConfig holds settlement provider API settings
type SettlementConfig struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
}

// RailsConfig holds banking-rails provider settings
type RailsConfig struct {
	BaseURL            string
	APIKey             string
	DebitAccountName   string
	DebitAccountNumber string
}

// ExchangeConfig holds transaction-creation settings
type ExchangeConfig struct {
	RatesFile     string
	MarginPercent string
}

// ReconcileConfig holds reconciliation poller settings
type ReconcileConfig struct {
	PollInterval time.Duration
	PollDeadline time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
	StrictWebhook   bool
}
