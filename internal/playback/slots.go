package playback

import (
	"fmt"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// pageSlots holds the per-page media of one session and the fetch watermark.
// Watermark is the highest 1-based page confirmed fetched (0 = none).
type pageSlots struct {
	media     []domain.PageMedia
	filled    int
	watermark int
}

func newPageSlots(total int) *pageSlots {
	return &pageSlots{media: make([]domain.PageMedia, total)}
}

func (p *pageSlots) total() int { return len(p.media) }

func (p *pageSlots) isFilled(index int) bool {
	if index < 0 || index >= len(p.media) {
		return false
	}
	return !p.media[index].IsEmpty()
}

func (p *pageSlots) at(index int) domain.PageMedia {
	if index < 0 || index >= len(p.media) {
		return domain.PageMedia{}
	}
	return p.media[index]
}

// ahead counts pages fetched past the cursor, measured against the watermark
func (p *pageSlots) ahead(index int) int {
	return p.watermark - (index + 1)
}

// batchRange returns the pages to request for a batch starting at startPage.
// The batch ends early at the first page that is already filled, so a fetch
// never asks again for a slot it holds. ok is false when there is nothing to fetch.
func (p *pageSlots) batchRange(startPage, size int) (start, end int, ok bool) {
	if startPage < 1 || startPage > p.total() || p.isFilled(startPage-1) {
		return 0, 0, false
	}
	end = min(startPage+size-1, p.total())
	for page := startPage + 1; page <= end; page++ {
		if p.isFilled(page - 1) {
			end = page - 1
			break
		}
	}
	return startPage, end, true
}

// fill stores a batch response. Slots are write-once: a filled slot keeps its
// first value. The watermark only moves forward.
func (p *pageSlots) fill(start, end int, pages []domain.PageMedia) error {
	if start < 1 || end > p.total() || start > end {
		return fmt.Errorf("batch %d-%d outside 1-%d", start, end, p.total())
	}
	if want := end - start + 1; len(pages) != want {
		return fmt.Errorf("batch %d-%d returned %d pages, want %d", start, end, len(pages), want)
	}
	for i, media := range pages {
		if !media.Complete() {
			return fmt.Errorf("page %d returned no media", start+i)
		}
	}
	for i, media := range pages {
		index := start - 1 + i
		if p.isFilled(index) {
			continue
		}
		media.Page = start + i
		p.media[index] = media
		p.filled++
	}
	p.watermark = max(p.watermark, end)
	return nil
}

// progress is round(100*filled/total), held below 100 until every slot is filled
func (p *pageSlots) progress() int {
	total := p.total()
	if total == 0 {
		return 0
	}
	pct := (200*p.filled + total) / (2 * total)
	if pct == 100 && p.filled < total {
		return 99
	}
	return pct
}
