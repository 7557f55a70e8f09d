package planner

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"IntentChain/internal/llm"
	"IntentChain/internal/offering"
	"IntentChain/pkg/logger"
)

// defaultTemperature 是结构化推理使用的低采样温度。
const defaultTemperature float32 = 0.1

const helpMessage = "I can help you stake or unstake tokens, buy offering shares, " +
	"vote on governance proposals, and claim vesting. " +
	"Try \"stake 100\", \"buy 10 MILANO\" or \"vote yes on proposal 3\"."

// Planner 把最近一条用户消息转换成结构化意图。寒暄走快捷路径；
// 其余情况调用外部补全服务，任何失败一律降级为固定的帮助意图，
// 调用方永远不会看到原始的模型或解析错误。
type Planner struct {
	client       llm.Client
	registry     *offering.Registry
	temperature  float32
	docsURL      string
	supportEmail string
	log          *slog.Logger
}

// Option 定义可选的 Planner 配置。
type Option func(*Planner)

// WithGuidance 配置兜底回复引用的文档地址与支持邮箱。
func WithGuidance(docsURL, supportEmail string) Option {
	return func(p *Planner) {
		p.docsURL = docsURL
		p.supportEmail = supportEmail
	}
}

// WithTemperature 覆盖默认的采样温度。
func WithTemperature(temperature float32) Option {
	return func(p *Planner) {
		if temperature >= 0 {
			p.temperature = temperature
		}
	}
}

// New 创建一个 Planner。client 允许为 nil，此时所有非寒暄请求都降级。
func New(client llm.Client, registry *offering.Registry, opts ...Option) *Planner {
	p := &Planner{
		client:      client,
		registry:    registry,
		temperature: defaultTemperature,
		log:         logger.Named("planner"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Plan 处理单条请求的两态状态机：SHORTCUT 与 MODEL_CALL。
func (p *Planner) Plan(ctx context.Context, messages []ChatMessage) *Intent {
	text := latestUserMessage(messages)

	// SHORTCUT：寒暄与求助不触发模型调用，这是一条硬保证。
	if isSmallTalk(text) {
		return p.helpIntent()
	}

	// MODEL_CALL：调用补全服务并严格校验输出。
	if p.client == nil {
		p.log.Warn("补全服务未配置，降级为帮助意图")
		return p.helpIntent()
	}

	output, err := p.client.Complete(ctx, llm.Request{
		Messages:    buildMessages(p.registry, messages),
		Temperature: p.temperature,
		ForceJSON:   true,
	})
	if err != nil {
		p.log.Warn("补全服务调用失败，降级为帮助意图", "err", err)
		return p.helpIntent()
	}

	intent, ok := p.parseReply(output)
	if !ok {
		return p.helpIntent()
	}

	return p.repair(intent, text)
}

// parseReply 把模型输出解析为意图。解析或校验失败时返回 false，
// 由调用方降级处理。
func (p *Planner) parseReply(output string) (*Intent, bool) {
	var reply modelReply
	if err := json.Unmarshal([]byte(output), &reply); err != nil {
		p.log.Warn("模型输出不是合法 JSON，降级为帮助意图", "err", err)
		return nil, false
	}

	action := Action(strings.ToUpper(strings.TrimSpace(reply.ActionType)))
	if !action.Valid() {
		p.log.Warn("模型输出包含未知动作，降级为帮助意图", "action", reply.ActionType)
		return nil, false
	}

	intent := &Intent{
		Action:         action,
		Interpretation: strings.TrimSpace(reply.Interpretation),
		UserMessage:    strings.TrimSpace(reply.UserMessage),
		Amount:         strings.TrimSpace(string(reply.Amount)),
		ProposalID:     reply.ProposalID,
		Vote:           reply.Vote,
	}

	if raw := strings.TrimSpace(string(reply.AssetID)); raw != "" {
		// 标识符的十六进制/十进制联合形式在此归一化，不再向下传递。
		id, err := offering.ParseIdentifier(raw)
		if err != nil {
			intent.Warnings = append(intent.Warnings, "The referenced asset identifier could not be parsed; please name the offering instead.")
		} else {
			intent.AssetID = id
		}
	}

	if intent.UserMessage == "" {
		intent.UserMessage = helpMessage
	}

	return intent, true
}

// helpIntent 返回固定的帮助意图，携带配置的文档与支持渠道。
func (p *Planner) helpIntent() *Intent {
	return &Intent{
		Action:         ActionQuestion,
		Interpretation: "General question or greeting.",
		UserMessage:    helpMessage,
		DocsURL:        p.docsURL,
		SupportEmail:   p.supportEmail,
	}
}

func latestUserMessage(messages []ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
