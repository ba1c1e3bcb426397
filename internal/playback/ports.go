package playback

import (
	"context"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// Fetcher resolves the media of pages [start, end] (1-based, inclusive) of a book.
// Implementations return exactly end-start+1 entries in page order.
type Fetcher interface {
	FetchPages(ctx context.Context, bookID string, start, end int) ([]domain.PageMedia, error)
}

// RenderRequest describes one page to play
type RenderRequest struct {
	Media    domain.PageMedia
	Rate     domain.Rate
	FromWord int // text only; 0 starts at the beginning

	// OnBoundary receives the index of the word about to be spoken.
	OnBoundary func(word int)
	// OnDone fires once when the page finishes (nil) or fails.
	// It is not called after Stop.
	OnDone func(err error)
}

// Renderer plays page media on the device.
// Callbacks must be delivered from another goroutine, never from inside Start or Stop.
type Renderer interface {
	Start(ctx context.Context, req RenderRequest) error
	Stop() error
}

// Observer receives state changes of the open session
type Observer interface {
	SessionChanged(snap Snapshot)
	PlaybackFailed(err error)
}

type nopObserver struct{}

func (nopObserver) SessionChanged(Snapshot) {}
func (nopObserver) PlaybackFailed(error)    {}
