package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// Controller drives one player session: it fetches page media in batches
// ahead of the cursor and plays the current page through a Renderer.
// All state changes are serialized by a single mutex; at most one batch
// fetch runs at a time.
type Controller struct {
	fetcher  Fetcher
	renderer Renderer
	progress domain.ProgressStore
	opts     Options
	logger   *slog.Logger

	mu       sync.Mutex
	observer Observer
	sess     *session
	sessions uint64
	seq      uint64
	failures []error

	fetches sync.WaitGroup
}

type session struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc
	book   domain.Book
	slots  *pageSlots
	log    *slog.Logger // carries bookID and session

	current      int
	playing      bool
	pendingStart bool
	rate         domain.Rate
	word         int
	playGen      uint64

	inFlight bool
	fetchErr error
}

// NewController creates a controller. progress may be nil when nothing
// should be persisted.
func NewController(
	fetcher Fetcher,
	renderer Renderer,
	progress domain.ProgressStore,
	opts Options,
	logger *slog.Logger,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		fetcher:  fetcher,
		renderer: renderer,
		progress: progress,
		opts:     opts.normalized(),
		logger:   logger,
		observer: nopObserver{},
	}
}

// SetObserver registers the receiver of session changes
func (c *Controller) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	c.mu.Lock()
	c.observer = o
	c.mu.Unlock()
}

// OpenSession starts a session for book, closing any open one first.
// The cursor starts at the saved resume position and the first batch is
// requested from page 1.
func (c *Controller) OpenSession(ctx context.Context, book domain.Book) (Snapshot, error) {
	if book.TotalPages <= 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", domain.ErrEmptyBook, book.ID)
	}

	c.mu.Lock()
	if c.sess != nil {
		_ = c.closeLocked()
	}

	c.sessions++
	sctx, cancel := context.WithCancel(ctx)
	c.sess = &session{
		gen:     c.sessions,
		ctx:     sctx,
		cancel:  cancel,
		book:    book,
		slots:   newPageSlots(book.TotalPages),
		log:     c.logger.With("bookID", book.ID, "session", c.sessions),
		current: book.ResumeIndex(),
		rate:    c.opts.DefaultRate,
		word:    -1,
	}
	c.sess.log.Info("session opened", "pages", book.TotalPages, "page", c.sess.current)

	c.fetchBatchLocked(1)
	return c.unlockAndPublish(), nil
}

// EnsureAhead requests the batch the cursor at index needs: the page itself
// when it is empty, or the next unfetched batch when one page or less is
// buffered past it. Does nothing while a fetch is in flight.
func (c *Controller) EnsureAhead(index int) {
	c.mu.Lock()
	if c.sess == nil {
		c.mu.Unlock()
		return
	}
	c.ensureAheadLocked(index)
	c.unlockAndPublish()
}

// SelectPage moves the cursor to index. Playback of the previous page stops;
// if the session was playing, the new page starts as soon as it is loaded.
// Indexes outside the book are ignored.
func (c *Controller) SelectPage(index int) {
	c.mu.Lock()
	s := c.sess
	if s == nil || index < 0 || index >= s.slots.total() {
		c.mu.Unlock()
		return
	}
	c.selectLocked(index, s.playing || s.pendingStart)
	c.unlockAndPublish()
}

// Next moves to the following page
func (c *Controller) Next() { c.step(1) }

// Previous moves to the preceding page
func (c *Controller) Previous() { c.step(-1) }

func (c *Controller) step(delta int) {
	c.mu.Lock()
	s := c.sess
	if s == nil {
		c.mu.Unlock()
		return
	}
	index := s.current + delta
	if index < 0 || index >= s.slots.total() {
		c.mu.Unlock()
		return
	}
	c.selectLocked(index, s.playing || s.pendingStart)
	c.unlockAndPublish()
}

// TogglePlayPause pauses a playing page, cancels a pending start, or starts
// the current page. A page that is still loading gets a pending start.
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	s := c.sess
	if s == nil {
		c.mu.Unlock()
		return domain.ErrNoSession
	}

	var err error
	switch {
	case s.playing:
		c.stopLocked()
	case s.pendingStart:
		s.pendingStart = false
	case s.slots.isFilled(s.current):
		err = c.startLocked()
	default:
		s.pendingStart = true
		c.ensureAheadLocked(s.current)
	}
	c.unlockAndPublish()
	return err
}

// SetPlaybackRate changes the speed used for the next start.
// A page that is already playing keeps its current speed.
func (c *Controller) SetPlaybackRate(rate domain.Rate) error {
	r, err := domain.ParseRate(float64(rate))
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.sess == nil {
		c.mu.Unlock()
		return domain.ErrNoSession
	}
	c.sess.rate = r
	c.unlockAndPublish()
	return nil
}

// CloseSession stops playback, saves the current page and drops the session.
// Results of fetches still running are discarded.
func (c *Controller) CloseSession() error {
	c.mu.Lock()
	if c.sess == nil {
		c.mu.Unlock()
		return nil
	}
	err := c.closeLocked()
	c.unlockAndPublish()
	return err
}

// Snapshot returns the current session state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// LoadingProgress returns the percentage of pages loaded in the open session
func (c *Controller) LoadingProgress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return 0
	}
	return c.sess.slots.progress()
}

// Wait blocks until no fetch goroutine is running
func (c *Controller) Wait() {
	c.fetches.Wait()
}

func (c *Controller) ensureAheadLocked(index int) {
	s := c.sess
	if s.inFlight || index < 0 || index >= s.slots.total() {
		return
	}
	if !s.slots.isFilled(index) {
		c.fetchBatchLocked(index + 1)
		return
	}
	if s.slots.ahead(index) <= 1 && s.slots.watermark < s.slots.total() {
		c.fetchBatchLocked(s.slots.watermark + 1)
	}
}

func (c *Controller) fetchBatchLocked(startPage int) {
	s := c.sess
	if s == nil || s.inFlight {
		return
	}
	start, end, ok := s.slots.batchRange(startPage, c.opts.BatchSize)
	if !ok {
		return
	}

	s.inFlight = true
	gen := s.gen
	bookID := s.book.ID
	ctx, cancel := context.WithTimeout(s.ctx, c.opts.FetchTimeout)
	s.log.Debug("fetching pages", "start", start, "end", end)

	c.fetches.Add(1)
	go func() {
		defer c.fetches.Done()
		defer cancel()
		pages, err := c.fetcher.FetchPages(ctx, bookID, start, end)
		c.completeFetch(gen, start, end, pages, err)
	}()
}

func (c *Controller) completeFetch(gen uint64, start, end int, pages []domain.PageMedia, err error) {
	c.mu.Lock()
	s := c.sess
	if s == nil || s.gen != gen {
		c.mu.Unlock()
		c.logger.Debug("discarding pages of closed session", "session", gen, "start", start, "end", end)
		return
	}

	s.inFlight = false
	if err == nil {
		err = s.slots.fill(start, end, pages)
	}
	if err != nil {
		s.fetchErr = pageFetchError(start, end, err)
		s.log.Warn("page fetch failed", "start", start, "end", end, "error", err)
		c.unlockAndPublish()
		return
	}

	s.fetchErr = nil
	s.log.Debug("pages loaded", "start", start, "end", end, "watermark", s.slots.watermark)

	if s.pendingStart && s.slots.isFilled(s.current) {
		c.startAsyncLocked()
	}
	c.ensureAheadLocked(s.current)
	c.unlockAndPublish()
}

func (c *Controller) selectLocked(index int, resume bool) {
	s := c.sess
	c.stopLocked()
	s.current = index
	s.word = -1
	_ = c.flushProgressLocked()

	c.ensureAheadLocked(index)
	if !resume {
		return
	}
	if s.slots.isFilled(index) {
		c.startAsyncLocked()
	} else {
		s.pendingStart = true
	}
}

func (c *Controller) startLocked() error {
	s := c.sess
	media := s.slots.at(s.current)
	s.pendingStart = false
	s.playGen++

	gen, playGen := s.gen, s.playGen
	from := 0
	if media.Kind == domain.MediaKindText && s.word > 0 {
		from = s.word
	}

	err := c.renderer.Start(s.ctx, RenderRequest{
		Media:      media,
		Rate:       s.rate,
		FromWord:   from,
		OnBoundary: func(word int) { c.onBoundary(gen, playGen, word) },
		OnDone:     func(err error) { c.onDone(gen, playGen, err) },
	})
	if err != nil {
		s.playing = false
		return c.failLocked(err)
	}

	s.playing = true
	s.log.Debug("playing page", "page", media.Page, "rate", float64(s.rate), "fromWord", from)
	return nil
}

// startAsyncLocked starts the current page on behalf of an operation that
// cannot return the error; a failure goes to the observer instead.
func (c *Controller) startAsyncLocked() {
	if err := c.startLocked(); err != nil {
		c.failures = append(c.failures, err)
	}
}

func (c *Controller) stopLocked() {
	s := c.sess
	s.pendingStart = false
	if !s.playing {
		return
	}
	s.playing = false
	s.playGen++
	if err := c.renderer.Stop(); err != nil {
		s.log.Warn("failed to stop renderer", "error", err)
	}
}

func (c *Controller) closeLocked() error {
	s := c.sess
	c.stopLocked()
	err := c.flushProgressLocked()
	s.cancel()
	c.sess = nil
	s.log.Info("session closed", "page", s.current)
	return err
}

func (c *Controller) flushProgressLocked() error {
	s := c.sess
	s.book.Progress = s.current
	if c.progress == nil {
		return nil
	}
	if err := c.progress.UpdateBookProgress(s.book.ID, s.current); err != nil {
		s.log.Warn("failed to save progress", "page", s.current, "error", err)
		return err
	}
	return nil
}

func (c *Controller) onBoundary(gen, playGen uint64, word int) {
	c.mu.Lock()
	s := c.sess
	if s == nil || s.gen != gen || s.playGen != playGen {
		c.mu.Unlock()
		return
	}
	s.word = word
	c.unlockAndPublish()
}

func (c *Controller) onDone(gen, playGen uint64, err error) {
	c.mu.Lock()
	s := c.sess
	if s == nil || s.gen != gen || s.playGen != playGen {
		c.mu.Unlock()
		return
	}

	s.playing = false
	s.playGen++
	switch {
	case err != nil:
		c.failures = append(c.failures, c.failLocked(err))
	case c.opts.AutoAdvance && s.current < s.slots.total()-1:
		c.selectLocked(s.current+1, true)
	default:
		s.word = -1
	}
	c.unlockAndPublish()
}

func (c *Controller) failLocked(err error) error {
	if !errors.Is(err, domain.ErrPlaybackFailed) {
		err = fmt.Errorf("%w: %w", domain.ErrPlaybackFailed, err)
	}
	c.sess.log.Error("playback failed", "page", c.sess.current+1, "error", err)
	return err
}

// unlockAndPublish releases the lock and hands the new state to the observer
func (c *Controller) unlockAndPublish() Snapshot {
	c.seq++
	snap := c.snapshotLocked()
	failures := c.failures
	c.failures = nil
	obs := c.observer
	c.mu.Unlock()

	for _, err := range failures {
		obs.PlaybackFailed(err)
	}
	obs.SessionChanged(snap)
	return snap
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.sess
	if s == nil {
		return Snapshot{Seq: c.seq, Word: -1}
	}
	return Snapshot{
		Seq:          c.seq,
		Open:         true,
		BookID:       s.book.ID,
		Title:        s.book.Name,
		Page:         s.current,
		TotalPages:   s.slots.total(),
		Playing:      s.playing,
		PendingStart: s.pendingStart,
		Rate:         s.rate,
		Word:         s.word,
		Watermark:    s.slots.watermark,
		Progress:     s.slots.progress(),
		Fetching:     s.inFlight,
		FetchErr:     s.fetchErr,
		Media:        s.slots.at(s.current),
	}
}

func pageFetchError(start, end int, err error) error {
	if errors.Is(err, domain.ErrPageFetchFailed) {
		return fmt.Errorf("pages %d-%d: %w", start, end, err)
	}
	return fmt.Errorf("%w: pages %d-%d: %w", domain.ErrPageFetchFailed, start, end, err)
}
