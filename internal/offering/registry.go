package offering

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	xerrors "IntentChain/internal/errors"
)

// Offering 描述一个可交易资产：名称、符号、32 字节标识符、
// 代币合约地址以及可选的小数精度。加载后不可变。
type Offering struct {
	Name          string `yaml:"name" json:"name"`
	Symbol        string `yaml:"symbol" json:"symbol"`
	ID            string `yaml:"id" json:"id"`
	TokenContract string `yaml:"token_contract" json:"tokenContract"`
	// Decimals 为 0 表示未声明，使用全局默认精度。
	Decimals uint8 `yaml:"decimals" json:"decimals,omitempty"`
}

// Registry 持有按配置顺序排列的资产集合，加载后只读，
// 可被任意数量的并发请求安全读取。
type Registry struct {
	items []Offering
	byID  map[string]int
}

type catalogue struct {
	Offerings []Offering `yaml:"offerings"`
}

// Load 从 YAML 文件加载资产目录。文件路径为空或文件不存在时返回空注册表；
// 文件存在但内容不合法时返回 CONFIG_ERROR。
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return NewRegistry(nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(nil)
		}
		return nil, xerrors.Wrap(xerrors.CodeConfig, err, "读取资产目录失败")
	}

	var parsed catalogue
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfig, err, "解析资产目录失败")
	}

	return NewRegistry(parsed.Offerings)
}

// NewRegistry 校验并构建注册表。配置顺序即迭代顺序。
func NewRegistry(items []Offering) (*Registry, error) {
	reg := &Registry{
		items: make([]Offering, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}

	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, xerrors.New(xerrors.CodeConfig, fmt.Sprintf("资产 #%d 缺少名称", i))
		}
		id, ok := normalizeHexID(item.ID)
		if !ok {
			return nil, xerrors.New(xerrors.CodeConfig, fmt.Sprintf("资产 %s 的标识符非法: %s", item.Name, item.ID))
		}
		if !common.IsHexAddress(item.TokenContract) {
			return nil, xerrors.New(xerrors.CodeConfig, fmt.Sprintf("资产 %s 的代币合约地址非法: %s", item.Name, item.TokenContract))
		}

		item.ID = id
		item.TokenContract = common.HexToAddress(item.TokenContract).Hex()
		reg.items = append(reg.items, item)
		// id 作为直接查询的键，后配置的条目覆盖先前的映射。
		reg.byID[id] = len(reg.items) - 1
	}

	return reg, nil
}

// All 返回配置顺序的资产列表副本。
func (r *Registry) All() []Offering {
	if r == nil {
		return nil
	}
	out := make([]Offering, len(r.items))
	copy(out, r.items)
	return out
}

// Len 返回注册的资产数量。
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.items)
}

// FindByID 按标识符查找资产，对十六进制大小写与 0x 前缀不敏感。
func (r *Registry) FindByID(id string) *Offering {
	if r == nil {
		return nil
	}
	normalized, ok := normalizeHexID(id)
	if !ok {
		return nil
	}
	idx, ok := r.byID[normalized]
	if !ok {
		return nil
	}
	item := r.items[idx]
	return &item
}

// normalizeHexID 将带或不带 0x 前缀的 64 位十六进制标识符
// 规整为小写的 0x 规范形式。
func normalizeHexID(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(trimmed) != 64 {
		return "", false
	}
	for _, c := range trimmed {
		if !isHexDigit(c) {
			return "", false
		}
	}
	return "0x" + strings.ToLower(trimmed), true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
