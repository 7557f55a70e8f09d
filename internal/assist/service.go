package assist

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	xerrors "IntentChain/internal/errors"
	"IntentChain/internal/offering"
	"IntentChain/internal/planner"
	"IntentChain/internal/storage/mysql"
	"IntentChain/internal/txbuilder"
	"IntentChain/pkg/logger"
)

// Request 是 /chat 与 /chat/stream 共享的请求体。
type Request struct {
	Messages []planner.ChatMessage     `json:"messages"`
	Context  *txbuilder.RequestContext `json:"context,omitempty"`
}

// Plan 是返回给调用方的最终响应对象，每次请求构建一次，不可变。
// Tx 是兼容字段：txs 非空时等于 txs[0]，否则为 null。
type Plan struct {
	ID             string                `json:"id"`
	ActionType     planner.Action        `json:"actionType"`
	Interpretation string                `json:"interpretation"`
	UserMessage    string                `json:"userMessage"`
	Warnings       []string              `json:"warnings"`
	Txs            []txbuilder.TxPreview `json:"txs"`
	Tx             *txbuilder.TxPreview  `json:"tx"`
	DocsURL        string                `json:"docsUrl,omitempty"`
	SupportEmail   string                `json:"supportEmail,omitempty"`
}

// Service 协调规划器与交易构建器，是系统的业务核心。
type Service struct {
	planner      *planner.Planner
	builder      *txbuilder.Builder
	registry     *offering.Registry
	plans        mysql.PlanRepository
	docsURL      string
	supportEmail string
	log          *slog.Logger
}

// Option 定义可选的 Service 配置。
type Option func(*Service)

// WithPlanRepository 配置计划历史存储。
func WithPlanRepository(repo mysql.PlanRepository) Option {
	return func(s *Service) {
		s.plans = repo
	}
}

// WithGuidance 配置兜底时回填的文档地址与支持邮箱。
func WithGuidance(docsURL, supportEmail string) Option {
	return func(s *Service) {
		s.docsURL = docsURL
		s.supportEmail = supportEmail
	}
}

// NewService 创建业务服务。注册表在启动阶段显式构建并注入，
// 请求路径上只读访问。
func NewService(p *planner.Planner, b *txbuilder.Builder, reg *offering.Registry, opts ...Option) *Service {
	s := &Service{
		planner:  p,
		builder:  b,
		registry: reg,
		log:      logger.Named("assist"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Respond 处理一条完整请求：规划意图、构建交易、组装计划。
// 规划与构建的内部失败全部降级为警告，err 仅在服务未初始化时返回。
func (s *Service) Respond(ctx context.Context, req Request) (*Plan, error) {
	if s.planner == nil || s.builder == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "服务组件未初始化")
	}

	intent := s.planner.Plan(ctx, req.Messages)

	var reqCtx txbuilder.RequestContext
	if req.Context != nil {
		reqCtx = *req.Context
	}
	txs, buildWarnings := s.builder.Build(intent, reqCtx, s.registry)

	plan := s.assemble(intent, txs, buildWarnings)
	s.record(ctx, plan)
	return plan, nil
}

// assemble 生成最终计划：新的不透明标识符、兼容字段 tx、
// 以及仅在意图未携带时回填的文档与支持渠道。
func (s *Service) assemble(intent *planner.Intent, txs []txbuilder.TxPreview, buildWarnings []string) *Plan {
	warnings := make([]string, 0, len(intent.Warnings)+len(buildWarnings))
	warnings = append(warnings, intent.Warnings...)
	warnings = append(warnings, buildWarnings...)

	if txs == nil {
		txs = []txbuilder.TxPreview{}
	}

	plan := &Plan{
		ID:             uuid.NewString(),
		ActionType:     intent.Action,
		Interpretation: intent.Interpretation,
		UserMessage:    intent.UserMessage,
		Warnings:       warnings,
		Txs:            txs,
		DocsURL:        intent.DocsURL,
		SupportEmail:   intent.SupportEmail,
	}
	if len(txs) > 0 {
		first := txs[0]
		plan.Tx = &first
	}
	if plan.DocsURL == "" {
		plan.DocsURL = s.docsURL
	}
	if plan.SupportEmail == "" {
		plan.SupportEmail = s.supportEmail
	}
	return plan
}

// record 写入计划历史。存储失败只记日志，绝不影响请求结果。
func (s *Service) record(ctx context.Context, plan *Plan) {
	if s.plans == nil {
		return
	}
	err := s.plans.Save(ctx, mysql.PlanRecord{
		PlanID:         plan.ID,
		ActionType:     string(plan.ActionType),
		Interpretation: plan.Interpretation,
		TxCount:        len(plan.Txs),
		CreatedAt:      time.Now().Unix(),
	})
	if err != nil {
		s.log.Warn("保存计划记录失败", "err", err, "plan_id", plan.ID)
	}
}

// RecentPlans 返回最近生成的计划记录。
func (s *Service) RecentPlans(ctx context.Context, limit int) ([]mysql.PlanRecord, error) {
	if s.plans == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "未配置计划存储")
	}
	records, err := s.plans.ListLatest(ctx, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询计划记录失败")
	}
	return records, nil
}
