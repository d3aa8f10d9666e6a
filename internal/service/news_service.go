package service

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// NewsService 财经新闻标题抓取服务
type NewsService struct {
	logger     *zap.Logger
	httpClient *http.Client
}

// NewNewsService 创建新闻服务
func NewNewsService(logger *zap.Logger) *NewsService {
	return &NewsService{
		logger:     logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// newsSource 单个新闻源的地址与标题选择器
type newsSource struct {
	name     string
	url      string
	selector string
}

var newsSources = []newsSource{
	{name: "新浪财经", url: "https://finance.sina.com.cn/", selector: "a"},
	{name: "东方财富", url: "https://finance.eastmoney.com/", selector: "a"},
}

var newsUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// FetchHeadlines 抓取各新闻源的标题并去重。
// 单个源失败只记日志，全部失败才报错。
func (s *NewsService) FetchHeadlines(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 30
	}

	seen := make(map[string]bool)
	var headlines []string
	failures := 0

	for _, source := range newsSources {
		titles, err := s.fetchSource(ctx, source)
		if err != nil {
			failures++
			s.logger.Warn("新闻源抓取失败", zap.String("source", source.name), zap.Error(err))
			continue
		}
		for _, title := range titles {
			if seen[title] {
				continue
			}
			seen[title] = true
			headlines = append(headlines, title)
			if len(headlines) >= limit {
				return headlines, nil
			}
		}

		// 随机间隔，降低被封风险
		select {
		case <-ctx.Done():
			return headlines, ctx.Err()
		case <-time.After(time.Duration(1000+rand.Intn(2000)) * time.Millisecond):
		}
	}

	if failures == len(newsSources) {
		return nil, fmt.Errorf("全部%d个新闻源抓取失败", len(newsSources))
	}
	return headlines, nil
}

func (s *NewsService) fetchSource(ctx context.Context, source newsSource) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", newsUserAgents[rand.Intn(len(newsUserAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.8,en;q=0.3")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("非预期状态码 %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var titles []string
	doc.Find(source.selector).Each(func(_ int, a *goquery.Selection) {
		title := normalizeHeadline(a.Text())
		if title != "" {
			titles = append(titles, title)
		}
	})
	s.logger.Debug("新闻源抓取完成",
		zap.String("source", source.name),
		zap.Int("titles", len(titles)))
	return titles, nil
}

// normalizeHeadline 清洗标题，过滤导航链接等噪音
func normalizeHeadline(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	// 过短的通常是栏目导航而不是新闻标题
	if len([]rune(title)) < 10 {
		return ""
	}
	return title
}
