package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config 描述 MySQL 连接参数。
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SQLPlanRepository 将计划历史写入 MySQL。
type SQLPlanRepository struct {
	db *sql.DB
}

// NewSQLPlanRepository 建立连接并确保表结构存在。
func NewSQLPlanRepository(ctx context.Context, cfg Config) (*SQLPlanRepository, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	repo := &SQLPlanRepository{db: db}
	if err := repo.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLPlanRepository) ensureSchema(ctx context.Context) error {
	const ddl = `CREATE TABLE IF NOT EXISTS assistant_plans (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		plan_id VARCHAR(64) NOT NULL,
		action_type VARCHAR(32) NOT NULL,
		interpretation VARCHAR(512) NOT NULL DEFAULT '',
		tx_count INT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		UNIQUE KEY uk_plan_id (plan_id),
		KEY idx_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("初始化计划表失败: %w", err)
	}
	return nil
}

// Save 写入一条计划记录。
func (r *SQLPlanRepository) Save(ctx context.Context, record PlanRecord) error {
	const stmt = `INSERT INTO assistant_plans
		(plan_id, action_type, interpretation, tx_count, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, stmt,
		record.PlanID,
		record.ActionType,
		record.Interpretation,
		record.TxCount,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("保存计划记录失败: %w", err)
	}
	return nil
}

// ListLatest 返回最近的计划记录，按时间倒序排列。
func (r *SQLPlanRepository) ListLatest(ctx context.Context, limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `SELECT plan_id, action_type, interpretation, tx_count, created_at
		FROM assistant_plans ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("查询计划记录失败: %w", err)
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		var record PlanRecord
		if err := rows.Scan(
			&record.PlanID,
			&record.ActionType,
			&record.Interpretation,
			&record.TxCount,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描计划记录失败: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历计划记录失败: %w", err)
	}
	return records, nil
}

// Close 释放数据库连接。
func (r *SQLPlanRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

var _ PlanRepository = (*SQLPlanRepository)(nil)
