package news

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"trading-bot-backend/internal/api"
	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/types"
)

const googleNewsSearchURL = "https://news.google.com/search"

// GoogleNewsProvider scrapes the Google News search page. It needs no key.
type GoogleNewsProvider struct {
	searchURL string
	timeout   time.Duration
}

var _ interfaces.NewsProvider = (*GoogleNewsProvider)(nil)

func NewGoogleNewsProvider(searchURL string, timeout time.Duration) *GoogleNewsProvider {
	if searchURL == "" {
		searchURL = googleNewsSearchURL
	}
	return &GoogleNewsProvider{searchURL: searchURL, timeout: timeout}
}

func (g *GoogleNewsProvider) Search(ctx context.Context, q types.NewsQuery) []types.NewsArticle {
	articles := make([]types.NewsArticle, 0, q.PageSize)

	u, err := url.Parse(g.searchURL)
	if err != nil {
		logger.ErrorWithErr(ctx, "Invalid Google News URL", err, "url", g.searchURL)
		return articles
	}
	params := u.Query()
	params.Set("q", q.Query)
	params.Set("hl", q.Language)
	u.RawQuery = params.Encode()

	c := colly.NewCollector(
		colly.AllowedDomains(u.Hostname()),
		colly.MaxDepth(1),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(g.timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range api.BrowserHeaders() {
			r.Headers.Set(k, v)
		}
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(articles) >= q.PageSize {
			return
		}
		title := strings.TrimSpace(e.ChildText("h3, h4"))
		link := e.ChildAttr("a", "href")
		if title == "" || link == "" {
			return
		}

		a := types.NewsArticle{
			Title:     title,
			URL:       e.Request.AbsoluteURL(link),
			Source:    "GoogleNews",
			Sentiment: ScoreParts(title),
		}
		if src := strings.TrimSpace(e.ChildText("[data-n-tid]")); src != "" {
			a.Source = src
		}
		if ts := e.ChildAttr("time", "datetime"); ts != "" {
			a.PublishedAt = &ts
		}
		articles = append(articles, a)
	})

	if err := c.Visit(u.String()); err != nil {
		logger.ErrorWithErr(ctx, "Google News scrape failed", err, "query", q.Query)
		return articles[:0]
	}
	c.Wait()

	logger.Info(ctx, "Google News scraping completed", "query", q.Query, "articles", len(articles))
	return articles
}
