package conversion

import (
	"context"
	"log/slog"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// Mode selects which form pages are fetched in
type Mode string

const (
	ModeAudio Mode = "audio"
	ModeText  Mode = "text"
)

// ParseMode maps a config value to a Mode, defaulting to text
func ParseMode(s string) Mode {
	if Mode(s) == ModeAudio {
		return ModeAudio
	}
	return ModeText
}

// AudioFetcher resolves a batch with one audio batch request
type AudioFetcher struct {
	client *Client
}

// NewAudioFetcher creates a fetcher that returns pre-rendered page audio
func NewAudioFetcher(client *Client) *AudioFetcher {
	return &AudioFetcher{client: client}
}

// FetchPages implements playback.Fetcher
func (f *AudioFetcher) FetchPages(ctx context.Context, bookID string, start, end int) ([]domain.PageMedia, error) {
	urls, err := f.client.AudioBatch(ctx, bookID, start, end)
	if err != nil {
		return nil, err
	}
	pages := make([]domain.PageMedia, len(urls))
	for i, u := range urls {
		pages[i] = domain.AudioMedia(start+i, u)
	}
	return pages, nil
}

// TextFetcher resolves a batch with one text request per page
type TextFetcher struct {
	client *Client
	logger *slog.Logger
}

// NewTextFetcher creates a fetcher that returns page text for speech
func NewTextFetcher(client *Client, logger *slog.Logger) *TextFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextFetcher{client: client, logger: logger}
}

// FetchPages implements playback.Fetcher. The batch fails as a whole if any page fails.
func (f *TextFetcher) FetchPages(ctx context.Context, bookID string, start, end int) ([]domain.PageMedia, error) {
	pages := make([]domain.PageMedia, 0, end-start+1)
	for page := start; page <= end; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text, err := f.client.PageText(ctx, bookID, page)
		if err != nil {
			f.logger.Warn("page text failed", "bookID", bookID, "page", page, "error", err)
			return nil, err
		}
		pages = append(pages, domain.TextMedia(page, text))
	}
	return pages, nil
}
