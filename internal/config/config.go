// Package config provides configuration management for the flag marketplace
// client. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all client configuration
type Config struct {
	API     APIConfig
	Admin   AdminConfig
	Chain   ChainConfig
	IPFS    IPFSConfig
	Wallet  WalletConfig
	Cache   CacheConfig
	Auction AuctionConfig
	Logging LoggingConfig
}

// APIConfig holds marketplace REST API configuration
type APIConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// AdminConfig holds admin endpoint configuration. The key is user-supplied
// per session and never persisted by this client.
type AdminConfig struct {
	Key string
}

// ChainConfig holds Ethereum RPC and contract configuration. The pricing
// contract address is optional: when absent, discount lookups never happen.
type ChainConfig struct {
	RPCURL                 string
	ChainID                int64
	MarketContractAddress  string
	PricingContractAddress string
}

// IPFSConfig holds IPFS gateway configuration
type IPFSConfig struct {
	GatewayBaseURL string
}

// WalletConfig holds local keystore configuration
type WalletConfig struct {
	KeystorePath string
	Passphrase   string
}

// CacheConfig holds the optional Redis snapshot cache configuration.
// The cache is disabled when Addr is empty.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// AuctionConfig holds auction bidding configuration
type AuctionConfig struct {
	// BidIncrement is the smallest amount a bid must exceed the current
	// highest bid by
	BidIncrement decimal.Decimal
	PollInterval time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	increment, err := decimal.NewFromString(getEnv("BID_INCREMENT", "0.001"))
	if err != nil {
		return nil, fmt.Errorf("invalid BID_INCREMENT: %w", err)
	}

	config := &Config{
		API: APIConfig{
			BaseURL:           getEnv("MARKET_API_URL", "http://localhost:8000/api"),
			Timeout:           getEnvAsDuration("MARKET_API_TIMEOUT", 30*time.Second),
			RequestsPerSecond: getEnvAsFloat("MARKET_API_RPS", 5),
		},
		Admin: AdminConfig{
			Key: getEnv("ADMIN_KEY", ""),
		},
		Chain: ChainConfig{
			RPCURL:                 getEnv("ETH_RPC_URL", ""),
			ChainID:                int64(getEnvAsInt("ETH_CHAIN_ID", 1)),
			MarketContractAddress:  getEnv("MARKET_CONTRACT_ADDRESS", ""),
			PricingContractAddress: getEnv("PRICING_CONTRACT_ADDRESS", ""),
		},
		IPFS: IPFSConfig{
			GatewayBaseURL: getEnv("IPFS_GATEWAY_URL", "https://ipfs.io/ipfs"),
		},
		Wallet: WalletConfig{
			KeystorePath: getEnv("WALLET_KEYSTORE_PATH", ""),
			Passphrase:   getEnv("WALLET_PASSPHRASE", ""),
		},
		Cache: CacheConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("CACHE_TTL", 60*time.Second),
		},
		Auction: AuctionConfig{
			BidIncrement: increment,
			PollInterval: getEnvAsDuration("AUCTION_POLL_INTERVAL", 15*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
