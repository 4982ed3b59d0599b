package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var DB *gorm.DB

// App holds the loaded configuration for the running process
var App *Config

// Config holds all configuration for the application
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	Port       string
	Env        string

	// Platform economics. Money values are decimals, points are whole units.
	CommissionPercent  decimal.Decimal // platform cut of an order's amount
	ServiceFeePercent  decimal.Decimal // buyer-side fee added on top of the package price
	PointsExchangeRate decimal.Decimal // currency paid per point
	MinExchangePoints  int64
	DailyLoginPoints   int64
	SignupBonusPoints  int64
	ListingBonusPoints int64
	OrderBonusPoints   int64
	AgentListingPoints int64
	BuyerOrderPoints   int64
	SellerOrderPoints  int64

	// Pending gateway transactions older than this many hours are failed by
	// the reconciliation sweep.
	ReconcileWindowHours int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is fine in deployed environments
	_ = godotenv.Load()

	config := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "agentmarket"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		Port:       getEnv("PORT", "8080"),
		Env:        getEnv("ENV", "development"),

		CommissionPercent:  getEnvDecimal("COMMISSION_PERCENT", "10"),
		ServiceFeePercent:  getEnvDecimal("SERVICE_FEE_PERCENT", "5"),
		PointsExchangeRate: getEnvDecimal("POINTS_EXCHANGE_RATE", "0.10"),
		MinExchangePoints:  getEnvInt64("MIN_EXCHANGE_POINTS", 1000),
		DailyLoginPoints:   getEnvInt64("DAILY_LOGIN_POINTS", 100),
		SignupBonusPoints:  getEnvInt64("REFERRAL_SIGNUP_POINTS", 500),
		ListingBonusPoints: getEnvInt64("REFERRAL_LISTING_POINTS", 300),
		OrderBonusPoints:   getEnvInt64("REFERRAL_ORDER_POINTS", 1000),
		AgentListingPoints: getEnvInt64("AGENT_LISTING_POINTS", 200),
		BuyerOrderPoints:   getEnvInt64("BUYER_ORDER_POINTS", 100),
		SellerOrderPoints:  getEnvInt64("SELLER_ORDER_POINTS", 50),

		ReconcileWindowHours: int(getEnvInt64("RECONCILE_WINDOW_HOURS", 24)),
	}

	App = config
	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("invalid value for %s: %v", key, err))
	}
	return n
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(fmt.Sprintf("invalid value for %s: %v", key, err))
	}
	return d
}
