package playback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/hearlearn/internal/domain"
)

type harness struct {
	ctrl     *Controller
	fetcher  *fakeFetcher
	renderer *fakeRenderer
	progress *fakeProgress
	observer *recordingObserver
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{
		fetcher:  newFakeFetcher(),
		renderer: &fakeRenderer{},
		progress: &fakeProgress{},
		observer: &recordingObserver{},
	}
	h.ctrl = NewController(h.fetcher, h.renderer, h.progress, opts, nil)
	h.ctrl.SetObserver(h.observer)
	t.Cleanup(func() {
		_ = h.ctrl.CloseSession()
		h.ctrl.Wait()
	})
	return h
}

func sevenPageBook() domain.Book {
	return domain.Book{ID: "book-1", Name: "Seven.pdf", TotalPages: 7, Status: domain.BookStatusReady}
}

func (h *harness) open(t *testing.T, book domain.Book) {
	t.Helper()
	_, err := h.ctrl.OpenSession(context.Background(), book)
	require.NoError(t, err)
	h.ctrl.Wait()
}

func TestOpenSessionFetchesFirstBatch(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, [][2]int{{1, 3}}, h.fetcher.Calls())
	assert.Equal(t, 3, snap.Watermark)
	assert.Equal(t, 0, snap.Page)
	assert.False(t, snap.Playing)
	assert.False(t, snap.Fetching)
	assert.Equal(t, 43, h.ctrl.LoadingProgress())
	assert.True(t, snap.Ready())
	assert.Equal(t, 1, snap.Media.Page)
}

func TestOpenSessionRejectsEmptyBook(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	_, err := h.ctrl.OpenSession(context.Background(), domain.Book{ID: "empty"})
	assert.ErrorIs(t, err, domain.ErrEmptyBook)
	assert.False(t, h.ctrl.Snapshot().Open)
}

func TestSelectPageFetchesAheadAndFinalPartialBatch(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())

	h.ctrl.SelectPage(3)
	h.ctrl.Wait()

	snap := h.ctrl.Snapshot()
	assert.Equal(t, [][2]int{{1, 3}, {4, 6}}, h.fetcher.Calls())
	assert.Equal(t, 6, snap.Watermark)
	assert.Equal(t, 86, snap.Progress)

	h.ctrl.SelectPage(6)
	h.ctrl.Wait()

	snap = h.ctrl.Snapshot()
	assert.Equal(t, [][2]int{{1, 3}, {4, 6}, {7, 7}}, h.fetcher.Calls())
	assert.Equal(t, 7, snap.Watermark)
	assert.Equal(t, 100, snap.Progress)
	assert.Equal(t, 7, snap.Media.Page)
}

func TestBackFillAfterForwardJump(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())

	h.ctrl.SelectPage(5)
	h.ctrl.Wait()
	require.Equal(t, 7, h.ctrl.Snapshot().Watermark)

	// Page 4 is behind the watermark but was never loaded
	h.ctrl.SelectPage(3)
	h.ctrl.Wait()

	snap := h.ctrl.Snapshot()
	assert.Equal(t, [][2]int{{1, 3}, {6, 7}, {4, 5}}, h.fetcher.Calls())
	assert.Equal(t, 7, snap.Watermark)
	assert.Equal(t, 100, snap.Progress)
	assert.True(t, snap.Ready())
}

func TestSelectPageOutOfRangeIsNoOp(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())

	before := h.ctrl.Snapshot()
	h.ctrl.SelectPage(7)
	h.ctrl.SelectPage(-1)
	after := h.ctrl.Snapshot()

	assert.Equal(t, before, after)
	assert.True(t, after.Playing)
	assert.Equal(t, 0, h.renderer.Stops())

	h.ctrl.Previous()
	assert.Equal(t, 0, h.ctrl.Snapshot().Page)
}

func TestFetchFailureKeepsWatermarkAndAllowsReissue(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.fetcher.failOnce[4] = errors.New("connection reset")
	h.open(t, sevenPageBook())

	h.ctrl.SelectPage(3)
	h.ctrl.Wait()

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 3, snap.Watermark)
	assert.False(t, snap.Fetching)
	assert.ErrorIs(t, snap.FetchErr, domain.ErrPageFetchFailed)
	assert.True(t, snap.Waiting())
	assert.Equal(t, [][2]int{{1, 3}, {4, 6}}, h.fetcher.Calls())

	h.ctrl.EnsureAhead(3)
	h.ctrl.Wait()

	snap = h.ctrl.Snapshot()
	assert.Equal(t, [][2]int{{1, 3}, {4, 6}, {4, 6}}, h.fetcher.Calls())
	assert.Equal(t, 6, snap.Watermark)
	assert.NoError(t, snap.FetchErr)
}

func TestSingleFetchInFlight(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	gate := make(chan struct{})
	h.fetcher.gate = gate

	_, err := h.ctrl.OpenSession(context.Background(), sevenPageBook())
	require.NoError(t, err)
	require.True(t, h.ctrl.Snapshot().Fetching)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.ctrl.SelectPage(i % 7)
			h.ctrl.EnsureAhead((i * 3) % 7)
			h.ctrl.Next()
		}(i)
	}
	wg.Wait()
	h.ctrl.SelectPage(5)

	close(gate)
	h.ctrl.Wait()

	assert.Equal(t, 1, h.fetcher.MaxInFlight())
	calls := h.fetcher.Calls()
	require.Len(t, calls, 2, "triggers during a fetch are dropped, completion re-issues one")
	assert.Equal(t, [2]int{1, 3}, calls[0])
	assert.Equal(t, [2]int{6, 7}, calls[1])
}

func TestSetPlaybackRateDoesNotRestart(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())

	require.NoError(t, h.ctrl.TogglePlayPause())
	require.Len(t, h.renderer.Starts(), 1)
	assert.Equal(t, domain.Rate(1.0), h.renderer.Last().Rate)

	require.NoError(t, h.ctrl.SetPlaybackRate(1.5))
	assert.Len(t, h.renderer.Starts(), 1)
	assert.Equal(t, 0, h.renderer.Stops())
	assert.True(t, h.ctrl.Snapshot().Playing)
	assert.Equal(t, domain.Rate(1.5), h.ctrl.Snapshot().Rate)

	h.ctrl.Next()
	require.Len(t, h.renderer.Starts(), 2)
	assert.Equal(t, domain.Rate(1.5), h.renderer.Last().Rate)
	assert.Equal(t, 2, h.renderer.Last().Media.Page)

	require.NoError(t, h.ctrl.TogglePlayPause())
	require.NoError(t, h.ctrl.SetPlaybackRate(2.0))
	require.NoError(t, h.ctrl.TogglePlayPause())
	assert.Equal(t, domain.Rate(2.0), h.renderer.Last().Rate)
}

func TestSetPlaybackRateRejectsUnknownRate(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	assert.ErrorIs(t, h.ctrl.SetPlaybackRate(1.5), domain.ErrNoSession)

	h.open(t, sevenPageBook())
	assert.ErrorIs(t, h.ctrl.SetPlaybackRate(3), domain.ErrInvalidRate)
	assert.Equal(t, domain.DefaultRate, h.ctrl.Snapshot().Rate)
}

func TestPendingStartBeginsWhenPageLoads(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	gate := make(chan struct{})
	h.fetcher.gate = gate

	_, err := h.ctrl.OpenSession(context.Background(), sevenPageBook())
	require.NoError(t, err)

	require.NoError(t, h.ctrl.TogglePlayPause())
	snap := h.ctrl.Snapshot()
	assert.True(t, snap.PendingStart)
	assert.False(t, snap.Playing)
	assert.Empty(t, h.renderer.Starts())

	close(gate)
	h.ctrl.Wait()

	snap = h.ctrl.Snapshot()
	assert.True(t, snap.Playing)
	assert.False(t, snap.PendingStart)
	require.Len(t, h.renderer.Starts(), 1)
	assert.Equal(t, 1, h.renderer.Last().Media.Page)
}

func TestToggleCancelsPendingStart(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	gate := make(chan struct{})
	h.fetcher.gate = gate

	_, err := h.ctrl.OpenSession(context.Background(), sevenPageBook())
	require.NoError(t, err)
	require.NoError(t, h.ctrl.TogglePlayPause())
	require.NoError(t, h.ctrl.TogglePlayPause())

	close(gate)
	h.ctrl.Wait()

	assert.False(t, h.ctrl.Snapshot().Playing)
	assert.Empty(t, h.renderer.Starts())
}

func TestSelectPageWhilePlayingDefersUntilLoaded(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())

	h.ctrl.SelectPage(5)
	snap := h.ctrl.Snapshot()
	assert.True(t, snap.PendingStart)
	assert.Equal(t, 1, h.renderer.Stops())

	h.ctrl.Wait()
	snap = h.ctrl.Snapshot()
	assert.True(t, snap.Playing)
	assert.Equal(t, 6, h.renderer.Last().Media.Page)
}

func TestAutoAdvance(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())

	h.renderer.Last().OnDone(nil)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.True(t, snap.Playing)
	assert.Equal(t, 2, h.renderer.Last().Media.Page)
	saved, ok := h.progress.Get("book-1")
	require.True(t, ok)
	assert.Equal(t, 1, saved)
}

func TestAutoAdvanceStopsOnLastPage(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	book := sevenPageBook()
	book.TotalPages = 2
	h.open(t, book)

	h.ctrl.SelectPage(1)
	require.NoError(t, h.ctrl.TogglePlayPause())
	h.renderer.Last().OnDone(nil)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.False(t, snap.Playing)
	assert.Equal(t, -1, snap.Word)
}

func TestAutoAdvanceDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoAdvance = false
	h := newHarness(t, opts)
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())

	h.renderer.Last().OnDone(nil)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 0, snap.Page)
	assert.False(t, snap.Playing)
}

func TestResumeFromHighlightedWord(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())

	h.renderer.Last().OnBoundary(4)
	assert.Equal(t, 4, h.ctrl.Snapshot().Word)

	require.NoError(t, h.ctrl.TogglePlayPause())
	require.NoError(t, h.ctrl.TogglePlayPause())
	assert.Equal(t, 4, h.renderer.Last().FromWord)

	h.ctrl.Next()
	assert.Equal(t, -1, h.ctrl.Snapshot().Word)
	assert.Equal(t, 0, h.renderer.Last().FromWord)
}

func TestCallbacksFromStoppedPageAreIgnored(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())
	stale := h.renderer.Last()

	h.ctrl.Next()
	stale.OnBoundary(9)
	stale.OnDone(errors.New("killed"))

	snap := h.ctrl.Snapshot()
	assert.Equal(t, -1, snap.Word)
	assert.True(t, snap.Playing)
	assert.Equal(t, 1, snap.Page)
	assert.Empty(t, h.observer.Failures())
}

func TestPlaybackFailure(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	h.renderer.startErr = errors.New("no audio device")

	err := h.ctrl.TogglePlayPause()
	assert.ErrorIs(t, err, domain.ErrPlaybackFailed)
	assert.False(t, h.ctrl.Snapshot().Playing)

	// the caller already has the error; the observer is not told again
	assert.Empty(t, h.observer.Failures())
}

func TestPlaybackFailureOnPageChangeGoesToObserver(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())
	h.renderer.mu.Lock()
	h.renderer.startErr = errors.New("no audio device")
	h.renderer.mu.Unlock()

	h.ctrl.Next()
	h.ctrl.Wait()

	assert.False(t, h.ctrl.Snapshot().Playing)
	failures := h.observer.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], domain.ErrPlaybackFailed)
}

func TestRendererErrorStopsPlayback(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())

	h.renderer.Last().OnDone(errors.New("decoder crashed"))

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Playing)
	assert.Equal(t, 0, snap.Page)
	require.Len(t, h.observer.Failures(), 1)
}

func TestCloseSessionFlushesProgressAndDiscardsLateResults(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	require.NoError(t, h.ctrl.TogglePlayPause())

	gate := make(chan struct{})
	h.fetcher.mu.Lock()
	h.fetcher.gate = gate
	h.fetcher.mu.Unlock()
	h.ctrl.SelectPage(4)
	require.True(t, h.ctrl.Snapshot().Fetching)

	require.NoError(t, h.ctrl.CloseSession())
	assert.GreaterOrEqual(t, h.renderer.Stops(), 1)
	saved, ok := h.progress.Get("book-1")
	require.True(t, ok)
	assert.Equal(t, 4, saved)

	close(gate)
	h.ctrl.Wait()

	snap := h.ctrl.Snapshot()
	assert.False(t, snap.Open)
	assert.Zero(t, h.ctrl.LoadingProgress())
	assert.ErrorIs(t, h.ctrl.TogglePlayPause(), domain.ErrNoSession)
}

func TestOpenSessionResumesSavedPage(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	book := sevenPageBook()
	book.Progress = 4
	h.open(t, book)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, 4, snap.Page)
	assert.Equal(t, [][2]int{{1, 3}, {5, 7}}, h.fetcher.Calls())
	assert.Equal(t, 5, snap.Media.Page)
	assert.Equal(t, 7, snap.Watermark)
}

func TestOpenSessionReplacesOpenSession(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())
	h.ctrl.SelectPage(2)

	other := domain.Book{ID: "book-2", Name: "Other.pdf", TotalPages: 2}
	h.open(t, other)

	saved, ok := h.progress.Get("book-1")
	require.True(t, ok)
	assert.Equal(t, 2, saved)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, "book-2", snap.BookID)
	assert.Equal(t, 2, snap.Watermark)
}

func TestObserverReceivesChanges(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.open(t, sevenPageBook())

	h.observer.mu.Lock()
	defer h.observer.mu.Unlock()
	assert.GreaterOrEqual(t, h.observer.changes, 2)
	assert.Equal(t, 3, h.observer.last.Watermark)
}
