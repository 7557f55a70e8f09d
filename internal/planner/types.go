package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action 是封闭的意图动作集合。
type Action string

const (
	ActionStake        Action = "STAKE"
	ActionUnstake      Action = "UNSTAKE"
	ActionStakeAll     Action = "STAKE_ALL"
	ActionUnstakeAll   Action = "UNSTAKE_ALL"
	ActionBuyAsset     Action = "BUY_ASSET"
	ActionSellAsset    Action = "SELL_ASSET"
	ActionVote         Action = "VOTE"
	ActionClaimVesting Action = "CLAIM_VESTING"
	ActionQuestion     Action = "QUESTION"
	ActionUnsupported  Action = "UNSUPPORTED"
)

// Valid 判断动作是否属于封闭集合。
func (a Action) Valid() bool {
	switch a {
	case ActionStake, ActionUnstake, ActionStakeAll, ActionUnstakeAll,
		ActionBuyAsset, ActionSellAsset, ActionVote, ActionClaimVesting,
		ActionQuestion, ActionUnsupported:
		return true
	}
	return false
}

// ChatMessage 表示一条对话消息，最近的一条 user 消息驱动推理。
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Intent 是规划器对单条请求的结构化输出，每次请求新建，不做持久化。
type Intent struct {
	Action         Action  `json:"actionType"`
	Interpretation string  `json:"interpretation"`
	UserMessage    string  `json:"userMessage"`
	Amount         string  `json:"amount,omitempty"`
	AssetID        string  `json:"assetId,omitempty"`
	ProposalID     *uint64 `json:"proposalId,omitempty"`
	Vote           *bool   `json:"vote,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	DocsURL        string  `json:"docsUrl,omitempty"`
	SupportEmail   string  `json:"supportEmail,omitempty"`
}

// modelReply 是模型输出的宽松解码形式。数值字段允许以 JSON 数字或
// 字符串出现，归一化后不再向下传递。
type modelReply struct {
	ActionType     string     `json:"actionType"`
	Interpretation string     `json:"interpretation"`
	UserMessage    string     `json:"userMessage"`
	Amount         flexString `json:"amount"`
	AssetID        flexString `json:"assetId"`
	ProposalID     *uint64    `json:"proposalId"`
	Vote           *bool      `json:"vote"`
}

// flexString 接受 JSON 字符串或数字，统一保存为十进制字符串。
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("既不是字符串也不是数字: %s", string(data))
	}
	*f = flexString(n.String())
	return nil
}
