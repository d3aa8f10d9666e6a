//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/handler"
	"github.com/guyueqh/sentinel/internal/notifier"
	"github.com/guyueqh/sentinel/internal/repo"
	"github.com/guyueqh/sentinel/internal/service"
)

var (
	handlerSet = wire.NewSet(
		handler.NewAnalysisHandler,
		handler.NewModelHandler,
		handler.NewStrategyHandler,
		handler.NewMarketHandler,
	)

	repoSet = wire.NewSet(
		repo.NewAnalysisRepo,
		repo.NewSentimentRepo,
		repo.NewLLMLogRepo,
	)

	strategySet = wire.NewSet(
		provideFuturesClient,
		provideRegistry,
		service.NewIndicatorService,
		service.NewMarketService,
		service.NewNewsService,
		service.NewPromptService,
		service.NewChartService,
		service.NewStrategyService,
		service.NewScheduler,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		repoSet,
		strategySet,
		provideTelegram,
		notifier.New,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
