package playback

import "github.com/mmcdole/hearlearn/internal/domain"

// Snapshot is a read-only view of the player session
type Snapshot struct {
	Seq uint64 // increases with every published change

	Open       bool
	BookID     string
	Title      string
	Page       int // current 0-based page index
	TotalPages int

	Playing      bool
	PendingStart bool // start requested, waiting for the page to load
	Rate         domain.Rate
	Word         int // highlighted word, -1 for none

	Watermark int
	Progress  int // percentage of pages loaded
	Fetching  bool
	FetchErr  error

	Media domain.PageMedia // media of the current page, empty while loading
}

// Ready reports whether the current page can be played
func (s Snapshot) Ready() bool {
	return !s.Media.IsEmpty()
}

// Waiting reports whether the user is blocked on the current page loading
func (s Snapshot) Waiting() bool {
	return s.Open && s.Media.IsEmpty()
}
