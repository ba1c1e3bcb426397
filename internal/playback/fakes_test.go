package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/mmcdole/hearlearn/internal/domain"
)

type fakeFetcher struct {
	mu          sync.Mutex
	calls       [][2]int
	failOnce    map[int]error // keyed by start page
	gate        chan struct{} // when set, fetches block until it is closed
	inFlight    int
	maxInFlight int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{failOnce: make(map[int]error)}
}

func (f *fakeFetcher) FetchPages(ctx context.Context, bookID string, start, end int) ([]domain.PageMedia, error) {
	f.mu.Lock()
	f.calls = append(f.calls, [2]int{start, end})
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	err, failing := f.failOnce[start]
	delete(f.failOnce, start)
	gate := f.gate
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failing {
		return nil, err
	}

	pages := make([]domain.PageMedia, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, domain.TextMedia(p, fmt.Sprintf("%s page %d one two three", bookID, p)))
	}
	return pages, nil
}

func (f *fakeFetcher) Calls() [][2]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]int(nil), f.calls...)
}

func (f *fakeFetcher) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

type fakeRenderer struct {
	mu       sync.Mutex
	starts   []RenderRequest
	stops    int
	startErr error
}

func (r *fakeRenderer) Start(ctx context.Context, req RenderRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.starts = append(r.starts, req)
	return nil
}

func (r *fakeRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	return nil
}

func (r *fakeRenderer) Starts() []RenderRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RenderRequest(nil), r.starts...)
}

func (r *fakeRenderer) Last() RenderRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts[len(r.starts)-1]
}

func (r *fakeRenderer) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

type fakeProgress struct {
	mu    sync.Mutex
	saved map[string]int
}

func (p *fakeProgress) UpdateBookProgress(id string, pageIndex int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saved == nil {
		p.saved = make(map[string]int)
	}
	p.saved[id] = pageIndex
	return nil
}

func (p *fakeProgress) Get(id string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.saved[id]
	return v, ok
}

type recordingObserver struct {
	mu       sync.Mutex
	last     Snapshot
	changes  int
	failures []error
}

func (o *recordingObserver) SessionChanged(snap Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if snap.Seq >= o.last.Seq {
		o.last = snap
	}
	o.changes++
}

func (o *recordingObserver) PlaybackFailed(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, err)
}

func (o *recordingObserver) Failures() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]error(nil), o.failures...)
}
