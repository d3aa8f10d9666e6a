package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
)

// tradingWindow 盘中检查允许的交易时段，endMinute小于startMinute表示跨午夜
type tradingWindow struct {
	startHour, startMinute int
	endHour, endMinute     int
}

// 国内期货主流品种的三个交易时段（日盘两段+夜盘）
var tradingWindows = []tradingWindow{
	{9, 0, 11, 30},
	{13, 30, 15, 0},
	{21, 0, 2, 30},
}

// Scheduler 定时任务调度器，所有任务按北京时间触发
type Scheduler struct {
	config   config.SchedulerConf
	logger   *zap.Logger
	strategy *StrategyService

	cron      *cron.Cron
	isRunning bool
}

func NewScheduler(conf *config.Config, logger *zap.Logger, strategy *StrategyService) *Scheduler {
	return &Scheduler{
		config:   conf.Scheduler,
		logger:   logger,
		strategy: strategy,
	}
}

func (s *Scheduler) macroCron() string {
	if s.config.MacroCron != "" {
		return s.config.MacroCron
	}
	return "30 8 * * *"
}

func (s *Scheduler) preMarketCron() string {
	if s.config.PreMarketCron != "" {
		return s.config.PreMarketCron
	}
	return "40 8 * * *"
}

func (s *Scheduler) intradayCron() string {
	interval := s.config.IntradayInterval
	if interval <= 0 {
		interval = 15
	}
	return fmt.Sprintf("*/%d * * * *", interval)
}

// Start 注册全部定时任务并启动调度
func (s *Scheduler) Start() error {
	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if !s.config.Enabled {
		s.logger.Info("scheduler disabled by config")
		return nil
	}

	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// 容器内缺少tzdata时退化为固定偏移
		loc = time.FixedZone("CST", 8*3600)
	}
	s.cron = cron.New(cron.WithLocation(loc))

	if _, err := s.cron.AddFunc(s.macroCron(), func() {
		s.logger.Info("scheduled macro sentiment analysis triggered")
		if _, err := s.strategy.RunMacro(context.Background()); err != nil {
			s.logger.Error("scheduled macro analysis failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to add macro cron job: %w", err)
	}

	if _, err := s.cron.AddFunc(s.preMarketCron(), func() {
		s.logger.Info("scheduled pre-market run triggered")
		s.runPipeline()
	}); err != nil {
		return fmt.Errorf("failed to add pre-market cron job: %w", err)
	}

	if _, err := s.cron.AddFunc(s.intradayCron(), func() {
		now := time.Now().In(loc)
		if !inTradingWindow(now) {
			return
		}
		s.logger.Info("scheduled intraday run triggered")
		s.runPipeline()
	}); err != nil {
		return fmt.Errorf("failed to add intraday cron job: %w", err)
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Info("scheduler started",
		zap.String("macro_cron", s.macroCron()),
		zap.String("pre_market_cron", s.preMarketCron()),
		zap.String("intraday_cron", s.intradayCron()))
	return nil
}

func (s *Scheduler) runPipeline() {
	err := s.strategy.Run(context.Background())
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			s.logger.Warn("pipeline still running, skip this trigger")
			return
		}
		s.logger.Error("scheduled pipeline run failed", zap.Error(err))
	}
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	if !s.isRunning {
		return
	}
	s.logger.Info("stopping scheduler...")
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.isRunning = false
	s.logger.Info("scheduler stopped")
}

// inTradingWindow 判断给定时刻是否处于期货交易时段
func inTradingWindow(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	for _, w := range tradingWindows {
		start := w.startHour*60 + w.startMinute
		end := w.endHour*60 + w.endMinute
		if start <= end {
			if minutes >= start && minutes <= end {
				return true
			}
		} else {
			// 跨午夜时段
			if minutes >= start || minutes <= end {
				return true
			}
		}
	}
	return false
}
