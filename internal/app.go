package internal

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/internal/handler"
	"github.com/guyueqh/sentinel/internal/models"
	"github.com/guyueqh/sentinel/internal/notifier"
	"github.com/guyueqh/sentinel/internal/registry"
	"github.com/guyueqh/sentinel/internal/service"
	"github.com/guyueqh/sentinel/internal/telegram"
	"github.com/guyueqh/sentinel/pkg/nostd"
	"github.com/guyueqh/sentinel/web"
)

func Run(configPath string) error {
	app := NewSentinelApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewSentinelApp() orz.Application {
	return &SentinelApp{}
}

var _ orz.Application = (*SentinelApp)(nil)

type AppComponents struct {
	AnalysisHandler *handler.AnalysisHandler
	ModelHandler    *handler.ModelHandler
	StrategyHandler *handler.StrategyHandler
	MarketHandler   *handler.MarketHandler

	StrategyService  *service.StrategyService
	Scheduler        *service.Scheduler
	MarketService    *service.MarketService
	IndicatorService *service.IndicatorService
	NewsService      *service.NewsService

	Registry *registry.Registry
	Notifier *notifier.Notifier
	Telegram *telegram.Telegram
}

type SentinelApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *SentinelApp) GetComponents() *AppComponents {
	return r.components
}

func (r *SentinelApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.Analysis{}, models.Sentiment{}, models.LLMLog{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().RequestURI
			if strings.HasPrefix(path, "/api") {
				return true
			}
			return false
		},
		Root:       "",
		Index:      "index.html",
		HTML5:      true,
		Browse:     false,
		IgnoreBase: false,
		Filesystem: http.FS(web.Assets()),
	}))

	api := e.Group("/api")
	{
		r.components.AnalysisHandler.RegisterRoutes(api)
		r.components.ModelHandler.RegisterRoutes(api)
		r.components.StrategyHandler.RegisterRoutes(api)
		r.components.MarketHandler.RegisterRoutes(api)
	}

	return nil
}

func (r *SentinelApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Sentinel Futures Analyst Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	if components.Telegram != nil {
		components.Telegram.Start()
	}

	if err := components.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}
