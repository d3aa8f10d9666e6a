package repo

import (
	"context"

	"github.com/go-orz/orz"
	"gorm.io/gorm"

	"github.com/guyueqh/sentinel/internal/models"
)

func NewAnalysisRepo(db *gorm.DB) *AnalysisRepo {
	return &AnalysisRepo{
		Repository: orz.NewRepository[models.Analysis, string](db),
	}
}

type AnalysisRepo struct {
	orz.Repository[models.Analysis, string]
}

// FindByRunID 查询某批次的全部分析结果，按信号强度降序
func (r AnalysisRepo) FindByRunID(ctx context.Context, runID string) ([]models.Analysis, error) {
	var items []models.Analysis
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("run_id = ?", runID).
		Order("signal_strength DESC, rr_ratio DESC").
		Find(&items).Error
	return items, err
}

// FindRecent 获取最近的分析记录
func (r AnalysisRepo) FindRecent(ctx context.Context, limit int) ([]models.Analysis, error) {
	var items []models.Analysis
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// FindRankedRecent 获取最近进入榜单的信号
func (r AnalysisRepo) FindRankedRecent(ctx context.Context, limit int) ([]models.Analysis, error) {
	var items []models.Analysis
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("ranked = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

// FindBySymbol 查询某合约的历史分析
func (r AnalysisRepo) FindBySymbol(ctx context.Context, symbol string, limit int) ([]models.Analysis, error) {
	var items []models.Analysis
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
