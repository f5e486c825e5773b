package news

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"trading-bot-backend/internal/api"
	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/types"
)

// NewsAPIProvider queries the NewsAPI "everything" endpoint.
type NewsAPIProvider struct {
	client *api.Client
	apiKey string
	retry  *api.RetryConfig
}

var _ interfaces.NewsProvider = (*NewsAPIProvider)(nil)

func NewNewsAPIProvider(apiKey, baseURL string, timeout time.Duration) *NewsAPIProvider {
	return &NewsAPIProvider{
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithHeader("X-Api-Key", apiKey),
			api.WithTimeout(timeout),
			api.WithLogging(true),
		),
		apiKey: apiKey,
		retry:  api.DefaultRetryConfig(),
	}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Content     string  `json:"content"`
		URL         string  `json:"url"`
		PublishedAt *string `json:"publishedAt"`
	} `json:"articles"`
}

// Search returns scored articles. A missing key or any failure yields an
// empty slice and a log line.
func (p *NewsAPIProvider) Search(ctx context.Context, q types.NewsQuery) []types.NewsArticle {
	articles := make([]types.NewsArticle, 0)
	if p.apiKey == "" {
		logger.Warn(ctx, "NewsAPI key missing; returning empty articles", "component", "sentiment")
		return articles
	}

	req := api.NewRequest(http.MethodGet, "").
		WithContext(ctx).
		WithParam("q", q.Query).
		WithParam("pageSize", strconv.Itoa(q.PageSize)).
		WithParam("language", q.Language).
		WithParam("sortBy", "publishedAt")
	resp, err := p.client.DoWithRetry(req, p.retry)
	if err != nil {
		logger.ErrorWithErr(ctx, "NewsAPI request failed", err, "component", "sentiment")
		return articles
	}

	var body newsAPIResponse
	if err := resp.ParseJSON(&body); err != nil {
		logger.ErrorWithErr(ctx, "NewsAPI response invalid", err, "component", "sentiment")
		return articles
	}

	for _, a := range body.Articles {
		source := a.Source.Name
		if source == "" {
			source = "unknown"
		}
		articles = append(articles, types.NewsArticle{
			Title:       a.Title,
			URL:         a.URL,
			Source:      source,
			PublishedAt: a.PublishedAt,
			Sentiment:   ScoreParts(a.Title, a.Description, a.Content),
		})
	}
	return articles
}
