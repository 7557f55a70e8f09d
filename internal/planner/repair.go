package planner

import (
	"fmt"
	"regexp"
	"strings"
)

const sellRefusal = "Selling shares is not supported: the deployed market contract " +
	"only exposes a buy entry point. You can hold or transfer your shares instead."

// firstNumberPattern 捕获文本中首个两侧都不紧邻字母或数字的十进制数，
// 避免把 0x 前缀或十六进制标识符里的数字误认成数量。
var firstNumberPattern = regexp.MustCompile(`(?:^|[^0-9A-Za-z.])(\d+(?:\.\d+)?)(?:[^0-9A-Za-z]|$)`)

// draft 按显式构建器的方式累积修正与警告，最终一次性提交为不可变意图。
type draft struct {
	intent   *Intent
	warnings []string
}

func (d *draft) warn(message string) {
	d.warnings = append(d.warnings, message)
}

func (d *draft) commit() *Intent {
	d.intent.Warnings = append(d.intent.Warnings, d.warnings...)
	return d.intent
}

// repair 在拿到合法结构化意图后应用本地确定性修正，不再发起模型调用：
// (a) 缺失数量时从原文提取首个十进制数；(b) 购买缺失资产时做自由文本解析；
// (c) 结构上不支持的卖出请求改写为 UNSUPPORTED。
func (p *Planner) repair(intent *Intent, rawText string) *Intent {
	d := &draft{intent: intent}

	if intent.Action == ActionSellAsset {
		intent.Action = ActionUnsupported
		intent.UserMessage = sellRefusal
		return d.commit()
	}

	switch intent.Action {
	case ActionStake, ActionUnstake, ActionBuyAsset:
		if intent.Amount == "" {
			if number := firstNumber(rawText); number != "" {
				intent.Amount = number
			} else {
				d.warn(missingAmountWarning(intent.Action))
			}
		}
	}

	if intent.Action == ActionBuyAsset && intent.AssetID == "" {
		selection := p.registry.ResolveFromText(rawText)
		if selection.ID != "" {
			intent.AssetID = selection.ID
		} else {
			intent.UserMessage = p.clarifyOffering()
			d.warn("Missing asset: specify which offering to buy.")
		}
	}

	return d.commit()
}

func missingAmountWarning(action Action) string {
	switch action {
	case ActionStake:
		return `Missing amount. Tell me how much to stake, e.g. "stake 100".`
	case ActionUnstake:
		return `Missing amount. Tell me how much to unstake, e.g. "unstake 50".`
	default:
		return `Missing amount. Tell me how much to buy, e.g. "buy 10 shares".`
	}
}

// clarifyOffering 生成列出已知资产的澄清问题。
func (p *Planner) clarifyOffering() string {
	offerings := p.registry.All()
	if len(offerings) == 0 {
		return "Which asset would you like to buy? No offerings are configured right now."
	}
	names := make([]string, 0, len(offerings))
	for _, item := range offerings {
		names = append(names, fmt.Sprintf("%s (%s)", item.Name, item.Symbol))
	}
	return fmt.Sprintf("Which offering would you like to buy? Available: %s.", strings.Join(names, ", "))
}

func firstNumber(text string) string {
	match := firstNumberPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}
