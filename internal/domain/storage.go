package domain

// LibraryStore persists the book list and player preferences.
// The book list is a single serialized value; every mutation writes through.
type LibraryStore interface {
	// === Books ===
	LoadLibrary() ([]Book, error)
	SaveBook(book Book) error // insert-or-update keyed by Book.ID
	RemoveBook(id string) error
	UpdateBookProgress(id string, pageIndex int) error
	ClearLibrary() error

	// === Page cache (keyed by book ID + 1-based page) ===
	GetPages(bookID string, start, end int) ([]PageMedia, bool)
	SavePages(bookID string, pages []PageMedia) error
	InvalidateBook(bookID string)

	// === Preferences ===
	GetPreference(key string) (string, bool)
	SetPreference(key, value string) error

	// === Lifecycle ===
	Close() error
}

// ProgressStore receives the resume position of an open book
type ProgressStore interface {
	UpdateBookProgress(id string, pageIndex int) error
}
