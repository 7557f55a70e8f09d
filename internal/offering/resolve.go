package offering

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	xerrors "IntentChain/internal/errors"
)

// Selection 是自由文本解析的结果。ID 为空表示没有任何匹配。
type Selection struct {
	ID       string
	Label    string
	Decimals uint8
}

var (
	hexIDPattern = regexp.MustCompile(`(?i)(?:0x)?[0-9a-f]{64}`)
	// 十进制标识符至少 10 位，避免与日常数量（如 "buy 100"）冲突。
	decimalIDPattern = regexp.MustCompile(`\d{10,}`)
)

// ResolveFromText 按固定优先级从自由文本中解析资产，首个命中即返回：
//  1. 文本中粘贴的 64 位十六进制标识符（或超长十进制标识符）；
//  2. 仅配置了一个资产时无条件默认该资产；
//  3. 资产符号或名称与文本的大小写不敏感子串匹配。
func (r *Registry) ResolveFromText(text string) Selection {
	if match := hexIDPattern.FindString(text); match != "" {
		id, _ := normalizeHexID(match)
		return r.selectionForID(id)
	}
	if match := decimalIDPattern.FindString(text); match != "" {
		if id, err := DecimalToID(match); err == nil {
			return r.selectionForID(id)
		}
	}

	if r == nil {
		return Selection{}
	}

	if len(r.items) == 1 {
		return selectionFor(r.items[0])
	}

	lowered := strings.ToLower(text)
	for _, item := range r.items {
		symbol := strings.ToLower(strings.TrimSpace(item.Symbol))
		if symbol != "" && strings.Contains(lowered, symbol) {
			return selectionFor(item)
		}
		name := strings.ToLower(strings.TrimSpace(item.Name))
		if name != "" && strings.Contains(lowered, name) {
			return selectionFor(item)
		}
	}

	return Selection{}
}

func (r *Registry) selectionForID(id string) Selection {
	if known := r.FindByID(id); known != nil {
		return selectionFor(*known)
	}
	// 标识符合法但不在目录中：按裸标识符返回，不带标签。
	return Selection{ID: id}
}

func selectionFor(item Offering) Selection {
	label := item.Symbol
	if label == "" {
		label = item.Name
	}
	return Selection{ID: item.ID, Label: label, Decimals: item.Decimals}
}

// ParseIdentifier 在边界处把十六进制或十进制形式的标识符归一化成
// 规范的 0x 前缀 64 位十六进制形式，联合类型不会越过该函数向下传递。
func ParseIdentifier(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", xerrors.New(xerrors.CodeInvalidArgument, "资产标识符为空")
	}
	if id, ok := normalizeHexID(trimmed); ok {
		return id, nil
	}
	if isDecimal(trimmed) {
		return DecimalToID(trimmed)
	}
	return "", xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("无法解析的资产标识符: %s", raw))
}

// DecimalToID 将十进制字符串转换为 64 位十六进制标识符：
// 取其大端十六进制表示并左侧补零到 64 位。数值必须在 256 位以内。
func DecimalToID(decimal string) (string, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(decimal), 10)
	if !ok || value.Sign() < 0 {
		return "", xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("非法的十进制标识符: %s", decimal))
	}
	if value.BitLen() > 256 {
		return "", xerrors.New(xerrors.CodeInvalidArgument, fmt.Sprintf("十进制标识符超出 256 位上限: %s", decimal))
	}
	return strings.ToLower(common.BigToHash(value).Hex()), nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
