package library

import (
	"context"
	"log/slog"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/playback"
)

// CachingFetcher serves batches from the page cache and writes fetched pages through
type CachingFetcher struct {
	next   playback.Fetcher
	store  domain.LibraryStore
	logger *slog.Logger
}

// NewCachingFetcher wraps next with the store's page cache
func NewCachingFetcher(next playback.Fetcher, store domain.LibraryStore, logger *slog.Logger) *CachingFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingFetcher{next: next, store: store, logger: logger}
}

// FetchPages implements playback.Fetcher
func (f *CachingFetcher) FetchPages(ctx context.Context, bookID string, start, end int) ([]domain.PageMedia, error) {
	if pages, ok := f.store.GetPages(bookID, start, end); ok {
		f.logger.Debug("pages served from cache", "bookID", bookID, "start", start, "end", end)
		return pages, nil
	}

	pages, err := f.next.FetchPages(ctx, bookID, start, end)
	if err != nil {
		return nil, err
	}
	if err := f.store.SavePages(bookID, pages); err != nil {
		f.logger.Warn("failed to cache pages", "bookID", bookID, "start", start, "end", end, "error", err)
	}
	return pages, nil
}
