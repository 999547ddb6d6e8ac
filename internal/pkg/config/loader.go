package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// 环境变量名
const (
	EnvEnvironment      = "BOTFORGE_ENV"
	EnvLogLevel         = "BOTFORGE_LOG_LEVEL"
	EnvCatalogFile      = "BOTFORGE_CATALOG_FILE"
	EnvHistoryCapacity  = "BOTFORGE_HISTORY_CAPACITY"
	EnvMetricsNamespace = "BOTFORGE_METRICS_NAMESPACE"
)

// DefaultHistoryCapacity 每个配置保留的历史条数
const DefaultHistoryCapacity = 100

// Config 骨架组装核心的运行配置
type Config struct {
	Environment      string `json:"environment"`
	LogLevel         string `json:"log_level"`
	CatalogFile      string `json:"catalog_file"`      // 为空时使用内置槽位目录
	HistoryCapacity  int    `json:"history_capacity"`  // 每个配置的历史环形缓冲容量
	MetricsNamespace string `json:"metrics_namespace"` // Prometheus 命名空间
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Environment:      "development",
		LogLevel:         "info",
		HistoryCapacity:  DefaultHistoryCapacity,
		MetricsNamespace: "tsu",
	}
}

// Load 从环境变量加载配置: 环境变量 > 默认值
func Load() *Config {
	cfg := Default()
	cfg.Environment = GetEnvOrDefault(EnvEnvironment, cfg.Environment)
	cfg.LogLevel = GetEnvOrDefault(EnvLogLevel, cfg.LogLevel)
	cfg.CatalogFile = GetEnvOrDefault(EnvCatalogFile, cfg.CatalogFile)
	cfg.HistoryCapacity = GetEnvInt(EnvHistoryCapacity, cfg.HistoryCapacity)
	cfg.MetricsNamespace = GetEnvOrDefault(EnvMetricsNamespace, cfg.MetricsNamespace)

	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = DefaultHistoryCapacity
	}
	return cfg
}

// SlogLevel 将配置中的日志级别转换为 slog.Level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetEnvOrDefault 获取环境变量，如果不存在则返回默认值
// 这是配置加载的核心函数：环境变量 > 默认值
func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt 获取整数环境变量，解析失败时返回默认值
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// GetEnvBool 获取布尔环境变量
func GetEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

// SanitizeForLog 清理配置中的敏感信息，用于日志输出
func SanitizeForLog(config map[string]any) map[string]any {
	sanitized := make(map[string]any, len(config))
	for k, v := range config {
		if isSensitiveKey(k) {
			sanitized[k] = "***REDACTED***"
		} else {
			sanitized[k] = v
		}
	}
	return sanitized
}

// LogFields 以键值对形式输出配置, 用于启动日志
func (c *Config) LogFields() map[string]any {
	return SanitizeForLog(map[string]any{
		"environment":       c.Environment,
		"log_level":         c.LogLevel,
		"catalog_file":      c.CatalogFile,
		"history_capacity":  c.HistoryCapacity,
		"metrics_namespace": c.MetricsNamespace,
	})
}

// isSensitiveKey 判断是否是敏感配置项
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	sensitiveKeywords := []string{
		"password", "secret", "token", "credential", "private", "api_key",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return true
		}
	}
	return false
}
