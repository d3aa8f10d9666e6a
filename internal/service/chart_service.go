package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"go.uber.org/zap"

	"github.com/guyueqh/sentinel/internal/config"
	"github.com/guyueqh/sentinel/pkg/futures"
	"github.com/guyueqh/sentinel/pkg/ta"
)

const (
	chartBackground    = "#060c1b"
	chartTextPrimary   = "#eceff4"
	chartTextSecondary = "#9ca3af"
	chartBull          = "#34d399"
	chartBear          = "#f87171"
	chartMA5Color      = "#3b82f6"
	chartMA10Color     = "#fbbf24"
	chartMA20Color     = "#f472b6"
	chartDIFColor      = "#22d3ee"
	chartDEAColor      = "#fb7185"

	chartWidthPx   = 1600
	klineHeightPx  = 600
	volumeHeightPx = 260
	macdHeightPx   = 260

	chartMaxBars = 120
)

// ChartService 将K线与指标渲染为PNG图表
type ChartService struct {
	logger *zap.Logger
	config *config.Config
}

func NewChartService(logger *zap.Logger, conf *config.Config) *ChartService {
	return &ChartService{logger: logger, config: conf}
}

var (
	headlessOnce sync.Once
	headlessErr  error
)

// EnsureHeadlessAvailable 检测本机是否有可用的headless浏览器，结果只探测一次
func EnsureHeadlessAvailable(ctx context.Context) error {
	headlessOnce.Do(func() {
		targetCtx := ctx
		if targetCtx == nil {
			targetCtx = context.Background()
		}
		parent, cancel := chromedp.NewContext(targetCtx)
		if cancel != nil {
			defer cancel()
		}
		headlessErr = chromedp.Run(parent)
	})
	return headlessErr
}

// Render 渲染单个合约的多周期技术分析图，返回写盘后的文件路径。
// 环境中没有Chrome时返回错误，调用方应降级为纯文本分析而不是中断流程。
func (s *ChartService) Render(ctx context.Context, market *MarketData) (string, error) {
	if s.config != nil && !s.config.Chart.Enabled {
		return "", fmt.Errorf("图表功能未启用")
	}
	if market == nil || market.Symbol == "" {
		return "", fmt.Errorf("缺少行情数据，无法渲染图表")
	}
	if err := EnsureHeadlessAvailable(ctx); err != nil {
		return "", fmt.Errorf("headless浏览器不可用: %w", err)
	}

	html, blocks, err := s.buildHTML(market)
	if err != nil {
		return "", err
	}

	height := blocks * (klineHeightPx + volumeHeightPx + macdHeightPx)
	if height < 520 {
		height = 520
	}
	png, err := renderHTMLToPNG(ctx, html, chartWidthPx, height)
	if err != nil {
		return "", err
	}

	outputDir := "charts"
	if s.config != nil && s.config.Chart.OutputDir != "" {
		outputDir = s.config.Chart.OutputDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.png", strings.ToLower(market.Symbol), time.Now().Format("20060102_150405"))
	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	s.logger.Info("图表渲染完成", zap.String("symbol", market.Symbol), zap.String("path", path))
	return path, nil
}

func (s *ChartService) buildHTML(market *MarketData) ([]byte, int, error) {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	blocks := 0
	for _, period := range scanPeriods {
		bars := market.Bars[period]
		if len(bars) == 0 {
			continue
		}
		window := bars
		if len(window) > chartMaxBars {
			window = window[len(window)-chartMaxBars:]
		}

		kline := s.buildKlineChart(market.Symbol, period, window, bars)
		volume := s.buildVolumeChart(period, window)
		macdChart := s.buildMACDChart(period, window, bars)
		page.AddCharts(kline, volume, macdChart)
		blocks++
	}
	if blocks == 0 {
		return nil, 0, fmt.Errorf("合约%s没有可渲染的K线数据", market.Symbol)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), blocks, nil
}

func (s *ChartService) buildKlineChart(symbol string, period futures.Period, window, full []futures.Bar) *charts.Kline {
	minPrice, maxPrice := priceBounds(window)
	padding := (maxPrice - minPrice) * 0.05
	if padding <= 0 {
		padding = math.Max(1, math.Abs(maxPrice)*0.01)
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", klineHeightPx),
			BackgroundColor: chartBackground,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: chartTextPrimary}}),
		charts.WithTitleOpts(opts.Title{
			Title:         fmt.Sprintf("%s %s", strings.ToUpper(symbol), periodLabel(period)),
			Left:          "left",
			Top:           "10",
			TitleStyle:    &opts.TextStyle{Color: chartTextPrimary, FontSize: 18},
			SubtitleStyle: &opts.TextStyle{Color: chartTextSecondary},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: chartTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: chartTextSecondary},
			Min:       chartRound(minPrice-padding, 4),
			Max:       chartRound(maxPrice+padding, 4),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartTextSecondary, Opacity: opts.Float(0.2)}},
		}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        chartBull,
			Color0:       chartBear,
			BorderColor:  chartBull,
			BorderColor0: chartBear,
		}),
	)

	xAxis := buildXAxis(window, period)
	klineData := make([]opts.KlineData, 0, len(window))
	for _, b := range window {
		klineData = append(klineData, opts.KlineData{Value: [4]float64{b.Open, b.Close, b.Low, b.High}})
	}
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", klineData)

	closes := make([]float64, len(full))
	for i, b := range full {
		closes[i] = b.Close
	}
	line := charts.NewLine()
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("MA5", toLineData(tailSeries(ta.MA(closes, 5), len(window)), len(window)), charts.WithLineStyleOpts(opts.LineStyle{Color: chartMA5Color, Width: 2}))
	line.AddSeries("MA10", toLineData(tailSeries(ta.MA(closes, 10), len(window)), len(window)), charts.WithLineStyleOpts(opts.LineStyle{Color: chartMA10Color, Width: 2}))
	line.AddSeries("MA20", toLineData(tailSeries(ta.MA(closes, 20), len(window)), len(window)), charts.WithLineStyleOpts(opts.LineStyle{Color: chartMA20Color, Width: 2}))
	kline.Overlap(line)
	return kline
}

func (s *ChartService) buildVolumeChart(period futures.Period, window []futures.Bar) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", volumeHeightPx),
			BackgroundColor: chartBackground,
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Volume %s", periodLabel(period)), Left: "left", TitleStyle: &opts.TextStyle{Color: chartTextPrimary}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 6,
			AxisLabel:   &opts.AxisLabel{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: chartTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)
	vols := make([]opts.BarData, len(window))
	for i, b := range window {
		color := chartBear
		if b.Close >= b.Open {
			color = chartBull
		}
		vols[i] = opts.BarData{
			Value: b.Volume,
			ItemStyle: &opts.ItemStyle{
				Color:   color,
				Opacity: opts.Float(0.6),
			},
		}
	}
	bar.SetXAxis(buildXAxis(window, period))
	bar.AddSeries("Volume", vols)
	return bar
}

func (s *ChartService) buildMACDChart(period futures.Period, window, full []futures.Bar) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           types.ThemeWesteros,
			Width:           fmt.Sprintf("%dpx", chartWidthPx),
			Height:          fmt.Sprintf("%dpx", macdHeightPx),
			BackgroundColor: chartBackground,
		}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("MACD %s", periodLabel(period)), Left: "left", TitleStyle: &opts.TextStyle{Color: chartTextPrimary}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), TextStyle: &opts.TextStyle{Color: chartTextSecondary}}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(false)}}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: chartTextSecondary},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartTextSecondary, Opacity: opts.Float(0.15)}},
		}),
	)
	closes := make([]float64, len(full))
	for i, b := range full {
		closes[i] = b.Close
	}
	dif, dea, hist := ta.MACD(closes, 12, 26, 9)
	dif = tailSeries(dif, len(window))
	dea = tailSeries(dea, len(window))
	hist = tailSeries(hist, len(window))

	xAxis := buildXAxis(window, period)
	histData := make([]opts.BarData, len(window))
	for i := range histData {
		histData[i] = opts.BarData{Value: nil}
	}
	offset := len(window) - len(hist)
	if offset < 0 {
		offset = 0
	}
	for i, v := range hist {
		if offset+i >= len(window) {
			break
		}
		if math.IsNaN(v) {
			continue
		}
		color := chartBear
		if v >= 0 {
			color = chartBull
		}
		histData[offset+i] = opts.BarData{
			Value: chartRound(v, 4),
			ItemStyle: &opts.ItemStyle{
				Color: color,
			},
		}
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("MACD Hist", histData)

	line := charts.NewLine()
	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("DIF", toLineData(dif, len(window)), charts.WithLineStyleOpts(opts.LineStyle{Color: chartDIFColor, Width: 2}))
	line.AddSeries("DEA", toLineData(dea, len(window)), charts.WithLineStyleOpts(opts.LineStyle{Color: chartDEAColor, Width: 2}))
	bar.Overlap(line)
	return bar
}

func periodLabel(period futures.Period) string {
	if period == futures.PeriodDay {
		return "日线"
	}
	return string(period) + "分钟"
}

func buildXAxis(bars []futures.Bar, period futures.Period) []string {
	layout := "01-02 15:04"
	if period == futures.PeriodDay {
		layout = "2006-01-02"
	}
	x := make([]string, len(bars))
	for i, b := range bars {
		x[i] = b.Time.Format(layout)
	}
	return x
}

func toLineData(series []float64, length int) []opts.LineData {
	line := make([]opts.LineData, length)
	offset := length - len(series)
	if offset < 0 {
		offset = 0
	}
	for i := 0; i < offset; i++ {
		line[i] = opts.LineData{Value: nil}
	}
	for i := 0; i < len(series) && offset+i < length; i++ {
		val := series[i]
		if math.IsNaN(val) {
			line[offset+i] = opts.LineData{Value: nil}
		} else {
			line[offset+i] = opts.LineData{Value: chartRound(val, 4)}
		}
	}
	return line
}

func tailSeries(series []float64, keep int) []float64 {
	if keep <= 0 || len(series) == 0 {
		return nil
	}
	if len(series) <= keep {
		return series
	}
	return series[len(series)-keep:]
}

func chartRound(val float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(val)
	}
	scale := math.Pow10(decimals)
	return math.Round(val*scale) / scale
}

func priceBounds(bars []futures.Bar) (minVal, maxVal float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	minVal = bars[0].Low
	maxVal = bars[0].High
	for _, b := range bars {
		if b.Low < minVal {
			minVal = b.Low
		}
		if b.High > maxVal {
			maxVal = b.High
		}
	}
	return minVal, maxVal
}

func renderHTMLToPNG(ctx context.Context, html []byte, width, height int) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, cancel := chromedp.NewContext(ctx)
	defer cancel()

	timeoutCtx, cancelTimeout := context.WithTimeout(parent, 20*time.Second)
	defer cancelTimeout()

	dataURI := "data:text/html;base64," + base64.StdEncoding.EncodeToString(html)
	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(dataURI),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500 * time.Millisecond),
		chromedp.FullScreenshot(&screenshot, 0),
	}
	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		return nil, err
	}
	return screenshot, nil
}
