package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"IntentChain/internal/api"
	"IntentChain/internal/assist"
	"IntentChain/internal/config"
	"IntentChain/internal/llm"
	"IntentChain/internal/llm/openai"
	"IntentChain/internal/middleware"
	"IntentChain/internal/offering"
	"IntentChain/internal/planner"
	"IntentChain/internal/storage/mysql"
	"IntentChain/internal/txbuilder"
	"IntentChain/pkg/logger"
)

// main 是 IntentChain 守护进程的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("intentchaind 运行失败: %v", err)
	}
}

func run(ctx context.Context) error {
	// .env 是本地开发的便捷方式，缺失时静默忽略。
	_ = godotenv.Load()

	configPath := os.Getenv("INTENTCHAIN_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("configs", "intentchain.json")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.OutputPaths,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// 发售目录在启动时一次性加载，请求路径上只读。
	registry, err := offering.Load(cfg.Chain.OfferingsPath)
	if err != nil {
		return err
	}
	logger.L().Info("offerings loaded", "count", registry.Len())

	llmClient, err := createLLMClient(cfg)
	if err != nil {
		return err
	}

	builder, err := txbuilder.New(txbuilder.Config{
		ChainID:         cfg.Chain.ChainID,
		DefaultDecimals: cfg.Chain.DefaultDecimals,
		Staking:         cfg.Chain.Contracts.Staking,
		Governance:      cfg.Chain.Contracts.Governance,
		Market:          cfg.Chain.Contracts.Market,
		Vesting:         cfg.Chain.Contracts.Vesting,
		QuoteToken:      cfg.Chain.Contracts.QuoteToken,
	}, txbuilder.WithAuditLogger(logger.Audit()))
	if err != nil {
		return err
	}

	var planRepo mysql.PlanRepository
	switch cfg.Storage.PlanStore.Driver {
	case "memory", "":
		repo, err := mysql.NewMemoryPlanRepository(cfg.Storage.PlanStore.DataDir)
		if err != nil {
			return err
		}
		planRepo = repo
	case "mysql":
		repo, err := mysql.NewSQLPlanRepository(ctx, mysql.Config{
			DSN:             cfg.Storage.PlanStore.DSN,
			MaxOpenConns:    cfg.Storage.PlanStore.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.PlanStore.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Storage.PlanStore.ConnMaxLifetimeSeconds) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Storage.PlanStore.ConnMaxIdleTimeSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		planRepo = repo
	default:
		return mysql.ErrUnsupportedDriver
	}

	if closer, ok := planRepo.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	limiter, err := createLimiter(cfg)
	if err != nil {
		return err
	}

	pl := planner.New(llmClient, registry,
		planner.WithGuidance(cfg.Assist.DocsURL, cfg.Assist.SupportEmail),
	)

	svc := assist.NewService(pl, builder, registry,
		assist.WithPlanRepository(planRepo),
		assist.WithGuidance(cfg.Assist.DocsURL, cfg.Assist.SupportEmail),
	)

	serverOpts := []api.Option{}
	if limiter != nil {
		serverOpts = append(serverOpts, api.WithLimiter(limiter))
	}
	server := api.NewServer(cfg.Server.Address, svc, serverOpts...)

	if err := server.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// createLLMClient 按配置选择推理后端。密钥缺失不是致命错误：
// 规划器会退化为固定的帮助回复，便于离线冒烟测试。
func createLLMClient(cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "", "openai":
		apiKey := strings.TrimSpace(cfg.LLM.OpenAI.APIKey)
		if apiKey == "" && cfg.LLM.OpenAI.APIKeyEnv != "" {
			apiKey = strings.TrimSpace(os.Getenv(cfg.LLM.OpenAI.APIKeyEnv))
		}
		if apiKey == "" {
			logger.L().Warn("OpenAI API key 未配置，规划器将以兜底模式运行")
			return nil, nil
		}
		return openai.NewClient(openai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.LLM.OpenAI.BaseURL,
			Model:   cfg.LLM.OpenAI.Model,
			Timeout: cfg.LLM.OpenAI.Timeout(),
		})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("未知的 LLM provider: %s", cfg.LLM.Provider)
	}
}

// createLimiter 按配置构造限流器，"none" 表示完全关闭限流。
func createLimiter(cfg *config.Config) (middleware.Limiter, error) {
	window := time.Minute
	switch cfg.RateLimit.Driver {
	case "", "memory":
		return middleware.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, window), nil
	case "redis":
		if cfg.RateLimit.Redis.Address == "" {
			return nil, errors.New("redis 限流驱动需要配置 address")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.Redis.Address,
			Password: cfg.RateLimit.Redis.Password,
			DB:       cfg.RateLimit.Redis.DB,
		})
		return middleware.NewRedisLimiter(client, cfg.RateLimit.RequestsPerMinute, window), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("未知的限流驱动: %s", cfg.RateLimit.Driver)
	}
}
