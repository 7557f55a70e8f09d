package planner

import (
	"fmt"
	"strings"

	"IntentChain/internal/llm"
	"IntentChain/internal/offering"
)

const systemPromptHeader = "" +
	"You are the planning engine of an on-chain assistant. " +
	"Read the conversation and reply with exactly one compact JSON object:\n" +
	`{"actionType": string, "interpretation": string, "userMessage": string, ` +
	`"amount": string, "assetId": string, "proposalId": integer, "vote": boolean}` + "\n" +
	"actionType must be one of: STAKE, UNSTAKE, STAKE_ALL, UNSTAKE_ALL, BUY_ASSET, " +
	"SELL_ASSET, VOTE, CLAIM_VESTING, QUESTION, UNSUPPORTED.\n" +
	"Rules:\n" +
	"- STAKE, UNSTAKE and BUY_ASSET require \"amount\" as a decimal string.\n" +
	"- BUY_ASSET requires \"assetId\"; cite a known offering id from the list below when one matches.\n" +
	"- VOTE requires a non-negative integer \"proposalId\" and a boolean \"vote\".\n" +
	"- CLAIM_VESTING takes no parameters here; the caller supplies the vesting record.\n" +
	"- Pure questions use QUESTION; anything outside these actions uses UNSUPPORTED.\n" +
	"\"interpretation\" is a one-line summary of what the user wants. " +
	"\"userMessage\" is the sentence shown back to the user. Omit fields you cannot infer."

// buildMessages 构建固定指令提示词加上原始对话，注册表内容以
// name/symbol/id 紧凑列表附在系统消息中，便于模型直接引用已知标识符。
func buildMessages(reg *offering.Registry, conversation []ChatMessage) []llm.Message {
	var sb strings.Builder
	sb.WriteString(systemPromptHeader)

	offerings := reg.All()
	if len(offerings) > 0 {
		sb.WriteString("\nKnown offerings:\n")
		for _, item := range offerings {
			sb.WriteString(fmt.Sprintf("- %s (%s) id=%s\n", item.Name, item.Symbol, item.ID))
		}
	} else {
		sb.WriteString("\nNo offerings are configured.")
	}

	messages := make([]llm.Message, 0, len(conversation)+1)
	messages = append(messages, llm.Message{Role: "system", Content: sb.String()})
	for _, msg := range conversation {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return messages
}
