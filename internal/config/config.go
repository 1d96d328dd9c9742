package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	// Approval chain tiers (compared against the converted amount).
	ManagerOnlyMax    float64 // <= this: [MANAGER]
	ManagerFinanceMax float64 // <= this: [MANAGER, FINANCE]; above: + DIRECTOR

	// Stand-in approver ids until a real org-chart service exists.
	MockManagerID  string
	MockFinanceID  string
	MockDirectorID string

	BaseCurrency       string
	ExchangeRateAPIURL string
	RateCacheTTLSecs   int

	// Legacy behavior: re-running start on a started expense rebuilds the
	// chain and resets progress instead of failing.
	AllowApprovalRestart bool
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvFloat(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func Load() *Config {
	return &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "expenses"),
		MySQLUser: getenv("MYSQL_USER", "expenses"),
		MySQLPass: getenv("MYSQL_PASS", "expenses"),

		RedisAddr: getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:   getenvInt("REDIS_DB", 0),

		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		ManagerOnlyMax:    getenvFloat("APPROVAL_MANAGER_MAX", 100),
		ManagerFinanceMax: getenvFloat("APPROVAL_FINANCE_MAX", 1000),

		MockManagerID:  getenv("MOCK_MANAGER_ID", "6d616e616765726d616e616765726d61"),
		MockFinanceID:  getenv("MOCK_FINANCE_ID", "66696e616e636566696e616e63656669"),
		MockDirectorID: getenv("MOCK_DIRECTOR_ID", "6469726563746f726469726563746f72"),

		BaseCurrency:       getenv("BASE_CURRENCY", "USD"),
		ExchangeRateAPIURL: getenv("EXCHANGE_RATE_API_URL", "https://api.exchangerate-api.com/v4/latest"),
		RateCacheTTLSecs:   getenvInt("RATE_CACHE_TTL_SECONDS", 300),

		AllowApprovalRestart: getenvBool("APPROVAL_ALLOW_RESTART", false),
	}
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.ManagerOnlyMax > c.ManagerFinanceMax {
		return fmt.Errorf("APPROVAL_MANAGER_MAX (%.2f) exceeds APPROVAL_FINANCE_MAX (%.2f)", c.ManagerOnlyMax, c.ManagerFinanceMax)
	}
	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("invalid BASE_CURRENCY %q", c.BaseCurrency)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
