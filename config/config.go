package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is loaded once at startup and passed into component constructors.
type Config struct {
	Port             string
	DatabaseDSN      string
	CORSAllowOrigins []string
	AuthJWTSecret    string

	// TRON
	TronFullHost            string
	TronAPIKey              string
	TronUSDTContract        string
	TronKeyEncryptionSecret string

	// BSC
	BSCRPCURL          string
	BSCUSDTContract    string
	MerchantBSCAddress string

	// Pricing
	PriceUSDT      float64
	MonthlyCredits int64
	PeriodDays     int

	// Rate limiting
	RateLimitPerMin int
}

// Load reads the environment (after a best-effort .env load) and validates
// the secrets the payment path cannot run without.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment directly")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseDSN: getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=blurmagic port=5432 sslmode=disable"),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		TronFullHost:            strings.TrimSuffix(getEnv("TRON_FULL_HOST", "https://api.trongrid.io"), "/"),
		TronAPIKey:              getEnv("TRON_API_KEY", os.Getenv("TRONGRID_API_KEY")),
		TronUSDTContract:        getEnv("USDT_TRC20_CONTRACT", "TXLAQ63Xg1NAzckPwKHvzw7CSEmLMEqcdj"),
		TronKeyEncryptionSecret: getEnv("TRON_KEY_ENCRYPTION_SECRET", ""),

		BSCRPCURL:          getEnv("BSC_RPC_URL", "https://bsc-dataseed.binance.org"),
		BSCUSDTContract:    strings.ToLower(getEnv("USDT_BEP20_CONTRACT", "0x55d398326f99059fF775485246999027B3197955")),
		MerchantBSCAddress: getEnv("MERCHANT_BSC_ADDRESS", os.Getenv("MERCHANT_WALLET_ADDRESS")),

		PriceUSDT:      getEnvFloat("PRO_PRICE_USDT", 10),
		MonthlyCredits: int64(getEnvInt("PRO_MONTHLY_CREDITS", 1000)),
		PeriodDays:     getEnvInt("PRO_PERIOD_DAYS", 30),

		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MIN", 60),
	}

	for _, origin := range strings.Split(getEnv("CORS_ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, origin)
		}
	}

	// Configuration errors are fatal at startup, not per-request.
	if cfg.AuthJWTSecret == "" {
		return nil, fmt.Errorf("missing AUTH_JWT_SECRET")
	}
	if cfg.TronKeyEncryptionSecret == "" {
		return nil, fmt.Errorf("missing TRON_KEY_ENCRYPTION_SECRET")
	}
	if cfg.MerchantBSCAddress == "" {
		return nil, fmt.Errorf("missing MERCHANT_BSC_ADDRESS")
	}
	if cfg.PriceUSDT <= 0 {
		return nil, fmt.Errorf("PRO_PRICE_USDT must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
