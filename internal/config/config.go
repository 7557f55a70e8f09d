package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	xerrors "IntentChain/internal/errors"
)

// Config 描述了 IntentChain 在启动阶段需要加载的核心配置。
type Config struct {
	Server    ServerConfig    `json:"server"`
	LLM       LLMConfig       `json:"llm"`
	Chain     ChainConfig     `json:"chain"`
	Assist    AssistConfig    `json:"assist"`
	Storage   StorageConfig   `json:"storage"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
}

// ServerConfig 控制 API 服务的监听地址等参数。
type ServerConfig struct {
	Address string `json:"address"`
}

// LLMConfig 用于配置大模型推理的调用方式。
type LLMConfig struct {
	Provider string       `json:"provider"`
	OpenAI   OpenAIConfig `json:"openai"`
}

// OpenAIConfig 描述调用 OpenAI 兼容服务所需的信息。
type OpenAIConfig struct {
	APIKey         string `json:"api_key"`
	APIKeyEnv      string `json:"api_key_env"`
	BaseURL        string `json:"base_url"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Timeout 返回大模型调用的超时时间。
func (c OpenAIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ChainConfig 包含目标链与合约部署信息。
type ChainConfig struct {
	ChainID         int64           `json:"chain_id"`
	DefaultDecimals uint8           `json:"default_decimals"`
	Contracts       ContractsConfig `json:"contracts"`
	OfferingsPath   string          `json:"offerings_path"`
}

// ContractsConfig 列出了交易构建所需的全部合约地址。
type ContractsConfig struct {
	Staking    string `json:"staking"`
	Governance string `json:"governance"`
	Market     string `json:"market"`
	Vesting    string `json:"vesting"`
	QuoteToken string `json:"quote_token"`
}

// AssistConfig 提供兜底回复中引用的文档与支持渠道。
type AssistConfig struct {
	DocsURL      string `json:"docs_url"`
	SupportEmail string `json:"support_email"`
}

// StorageConfig 统一描述计划历史存储的连接信息。
type StorageConfig struct {
	PlanStore PlanStoreConfig `json:"plan_store"`
}

// PlanStoreConfig 默认提供内存实现，可切换到真正的 MySQL。
type PlanStoreConfig struct {
	Driver                 string `json:"driver"`
	DSN                    string `json:"dsn"`
	DataDir                string `json:"data_dir"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `json:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int    `json:"conn_max_idle_time_seconds"`
}

// RateLimitConfig 控制请求限流中间件。
type RateLimitConfig struct {
	Driver            string      `json:"driver"`
	RequestsPerMinute int         `json:"requests_per_minute"`
	Redis             RedisConfig `json:"redis"`
}

// RedisConfig 描述限流使用的 Redis 连接。
type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// LoggingConfig 描述日志输出行为。
type LoggingConfig struct {
	Level       string         `json:"level"`
	Format      string         `json:"format"`
	OutputPaths []string       `json:"output_paths"`
	Audit       AuditLogConfig `json:"audit"`
}

// AuditLogConfig 控制审计日志。
type AuditLogConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, xerrors.New(xerrors.CodeConfig, "配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfig, err, "打开配置文件失败")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfig, err, "读取配置文件失败")
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfig, err, "解析配置失败")
	}

	cfg.applyDefaults(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.OpenAI.APIKeyEnv == "" {
		c.LLM.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.LLM.OpenAI.TimeoutSeconds <= 0 {
		c.LLM.OpenAI.TimeoutSeconds = 30
	}

	if c.Chain.DefaultDecimals == 0 {
		c.Chain.DefaultDecimals = 18
	}
	if c.Chain.OfferingsPath != "" && !filepath.IsAbs(c.Chain.OfferingsPath) {
		c.Chain.OfferingsPath = filepath.Join(baseDir, c.Chain.OfferingsPath)
	}

	if c.Storage.PlanStore.Driver == "" {
		c.Storage.PlanStore.Driver = "memory"
	}
	if c.Storage.PlanStore.DataDir == "" {
		c.Storage.PlanStore.DataDir = filepath.Join(baseDir, "data")
	} else if !filepath.IsAbs(c.Storage.PlanStore.DataDir) {
		c.Storage.PlanStore.DataDir = filepath.Join(baseDir, c.Storage.PlanStore.DataDir)
	}

	if c.RateLimit.Driver == "" {
		c.RateLimit.Driver = "memory"
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 60
	}
}

// Validate 在启动阶段一次性校验配置，避免在请求路径上猜测形状。
func (c *Config) Validate() error {
	if c.Chain.ChainID <= 0 {
		return xerrors.New(xerrors.CodeConfig, "chain_id 必须为正整数")
	}

	addresses := map[string]string{
		"staking":     c.Chain.Contracts.Staking,
		"governance":  c.Chain.Contracts.Governance,
		"market":      c.Chain.Contracts.Market,
		"vesting":     c.Chain.Contracts.Vesting,
		"quote_token": c.Chain.Contracts.QuoteToken,
	}
	for name, addr := range addresses {
		// 合约地址允许留空，对应操作在构建时退化为警告。
		if strings.TrimSpace(addr) == "" {
			continue
		}
		if !common.IsHexAddress(addr) {
			return xerrors.New(xerrors.CodeConfig, fmt.Sprintf("合约地址 %s 非法: %s", name, addr))
		}
	}

	switch c.Storage.PlanStore.Driver {
	case "memory", "mysql":
	default:
		return xerrors.New(xerrors.CodeConfig, fmt.Sprintf("未知的计划存储驱动: %s", c.Storage.PlanStore.Driver))
	}

	switch c.RateLimit.Driver {
	case "memory", "redis", "none":
	default:
		return xerrors.New(xerrors.CodeConfig, fmt.Sprintf("未知的限流驱动: %s", c.RateLimit.Driver))
	}

	return nil
}
