package interfaces

import (
	"context"

	"trading-bot-backend/internal/types"
)

// NewsProvider fetches scored articles. Failures yield an empty slice.
type NewsProvider interface {
	Search(ctx context.Context, q types.NewsQuery) []types.NewsArticle
}
