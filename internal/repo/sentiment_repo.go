package repo

import (
	"context"

	"github.com/go-orz/orz"
	"gorm.io/gorm"

	"github.com/guyueqh/sentinel/internal/models"
)

func NewSentimentRepo(db *gorm.DB) *SentimentRepo {
	return &SentimentRepo{
		Repository: orz.NewRepository[models.Sentiment, string](db),
	}
}

type SentimentRepo struct {
	orz.Repository[models.Sentiment, string]
}

// FindLatest 获取最近一次宏观情绪分析
func (r SentimentRepo) FindLatest(ctx context.Context) (*models.Sentiment, error) {
	var item models.Sentiment
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("created_at DESC").
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindRecent 获取最近的情绪记录
func (r SentimentRepo) FindRecent(ctx context.Context, limit int) ([]models.Sentiment, error) {
	var items []models.Sentiment
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	return items, err
}
