package mysql

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PlanRecord 表示一次已生成计划的落库结构。仅记录计划元数据，
// 不保存对话内容。
type PlanRecord struct {
	PlanID         string `json:"plan_id"`
	ActionType     string `json:"action_type"`
	Interpretation string `json:"interpretation"`
	TxCount        int    `json:"tx_count"`
	CreatedAt      int64  `json:"created_at"`
}

// PlanRepository 抽象计划历史的持久化接口。
type PlanRepository interface {
	Save(ctx context.Context, record PlanRecord) error
	ListLatest(ctx context.Context, limit int) ([]PlanRecord, error)
}

// ErrUnsupportedDriver 在配置了未知存储驱动时使用。
var ErrUnsupportedDriver = errors.New("暂不支持的存储驱动")

// MemoryPlanRepository 使用本地 JSON 追加日志模拟 MySQL 的效果，
// 作为默认驱动避免开发环境的外部依赖。
type MemoryPlanRepository struct {
	mu       sync.RWMutex
	dataFile string
	records  []PlanRecord
}

const memoryRetention = 512

// NewMemoryPlanRepository 创建一个内存计划仓库。
func NewMemoryPlanRepository(dataDir string) (*MemoryPlanRepository, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	path := filepath.Join(dataDir, "plans.log")
	repo := &MemoryPlanRepository{dataFile: path}
	if err := repo.loadFromDisk(); err != nil {
		return nil, err
	}
	return repo, nil
}

// Save 以追加写的方式记录计划。
func (m *MemoryPlanRepository) Save(_ context.Context, record PlanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.OpenFile(m.dataFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("打开计划日志失败: %w", err)
	}
	defer file.Close()

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("序列化计划记录失败: %w", err)
	}

	if _, err := file.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("写入计划日志失败: %w", err)
	}

	m.records = append([]PlanRecord{record}, m.records...)
	if len(m.records) > memoryRetention {
		m.records = m.records[:memoryRetention]
	}
	return nil
}

// ListLatest 返回最近的计划记录，按时间倒序排列。
func (m *MemoryPlanRepository) ListLatest(_ context.Context, limit int) ([]PlanRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}

	results := make([]PlanRecord, limit)
	copy(results, m.records[:limit])
	return results, nil
}

func (m *MemoryPlanRepository) loadFromDisk() error {
	file, err := os.OpenFile(m.dataFile, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("读取计划日志失败: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var restored []PlanRecord
	for scanner.Scan() {
		var record PlanRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		restored = append([]PlanRecord{record}, restored...)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("解析计划日志失败: %w", err)
	}

	if len(restored) > memoryRetention {
		restored = restored[:memoryRetention]
	}
	m.records = restored
	return nil
}

var _ PlanRepository = (*MemoryPlanRepository)(nil)
