// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Solver   SolverConfig   `yaml:"solver"`
	Affinity AffinityConfig `yaml:"affinity"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Security SecurityConfig `yaml:"security"`
}

// SecurityConfig 访问控制配置
type SecurityConfig struct {
	AuthEnabled  bool   `yaml:"auth_enabled"`
	APIKeys      string `yaml:"api_keys"`     // "key:environment" 逗号分隔
	Environments string `yaml:"environments"` // 允许的租户环境清单，空表示开放
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit int           `yaml:"rate_limit"`
	Timeout   time.Duration `yaml:"timeout"`
	CORS      CORSConfig    `yaml:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// SolverConfig 求解引擎配置
type SolverConfig struct {
	Workers        int           `yaml:"workers"`
	BaseBudget     time.Duration `yaml:"base_budget"`     // 常规时间预算
	ExtendedBudget time.Duration `yaml:"extended_budget"` // 大规模问题时间预算
	LargeShifts    int           `yaml:"large_shifts"`    // 超过此班次数启用扩展预算
	MaxPairProduct int           `yaml:"max_pair_product"`
}

// BudgetFor 根据班次规模返回时间预算
func (c *SolverConfig) BudgetFor(shifts int) time.Duration {
	if shifts > c.LargeShifts {
		return c.ExtendedBudget
	}
	return c.BaseBudget
}

// AffinityConfig 亲和度模型配置
type AffinityConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	WeightsTable    string        `yaml:"weights_table"`
}

// OracleConfig 外部预测服务配置
type OracleConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Enabled bool          `yaml:"enabled"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "zhipai"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 7012),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "zhipai"),
			User:            getEnv("DB_USER", "zhipai"),
			Password:        getEnv("DB_PASSWORD", "zhipai123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: []string{"*"},
			},
		},
		Solver: SolverConfig{
			Workers:        getEnvInt("SOLVER_WORKERS", 8),
			BaseBudget:     getEnvDuration("SOLVER_BASE_BUDGET", 60*time.Second),
			ExtendedBudget: getEnvDuration("SOLVER_EXTENDED_BUDGET", 120*time.Second),
			LargeShifts:    getEnvInt("SOLVER_LARGE_SHIFTS", 1000),
			MaxPairProduct: getEnvInt("SOLVER_MAX_PAIR_PRODUCT", 1_000_000),
		},
		Affinity: AffinityConfig{
			RefreshInterval: getEnvDuration("AFFINITY_REFRESH_INTERVAL", 5*time.Minute),
			WeightsTable:    getEnv("AFFINITY_WEIGHTS_TABLE", "affinity_weights"),
		},
		Oracle: OracleConfig{
			BaseURL: getEnv("ORACLE_BASE_URL", ""),
			Timeout: getEnvDuration("ORACLE_TIMEOUT", 10*time.Second),
			Enabled: getEnvBool("ORACLE_ENABLED", false),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Security: SecurityConfig{
			AuthEnabled:  getEnvBool("AUTH_ENABLED", false),
			APIKeys:      getEnv("API_KEYS", ""),
			Environments: getEnv("ENVIRONMENTS", ""),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
