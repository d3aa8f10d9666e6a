package repo

import (
	"context"

	"github.com/go-orz/orz"
	"gorm.io/gorm"

	"github.com/guyueqh/sentinel/internal/models"
)

func NewLLMLogRepo(db *gorm.DB) *LLMLogRepo {
	return &LLMLogRepo{
		Repository: orz.NewRepository[models.LLMLog, string](db),
	}
}

type LLMLogRepo struct {
	orz.Repository[models.LLMLog, string]
}

// FindByRunID 根据批次ID查询所有日志
func (r LLMLogRepo) FindByRunID(ctx context.Context, runID string) ([]models.LLMLog, error) {
	var logs []models.LLMLog
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("run_id = ?", runID).
		Order("executed_at ASC").
		Find(&logs).Error
	return logs, err
}

// FindRecentLogs 获取最近的日志记录
func (r LLMLogRepo) FindRecentLogs(ctx context.Context, limit int) ([]models.LLMLog, error) {
	var logs []models.LLMLog
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("executed_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// CountByRunID 统计某批次的日志数量
func (r LLMLogRepo) CountByRunID(ctx context.Context, runID string) (int64, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("run_id = ?", runID).
		Count(&count).Error
	return count, err
}
