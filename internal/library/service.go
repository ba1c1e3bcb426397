package library

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mmcdole/hearlearn/internal/conversion"
	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/playback"
)

// PreferenceVoice is the store key of the speech voice
const PreferenceVoice = "speech.voice"

// uploader abstracts the conversion service upload (consumer-defined interface)
type uploader interface {
	Upload(ctx context.Context, path string) (*conversion.UploadResult, error)
}

// Service orchestrates conversion client + store operations on the book list.
type Service struct {
	uploader uploader
	fetcher  playback.Fetcher // used to verify imports; may be nil
	store    domain.LibraryStore
	verify   bool
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates a new library service.
func NewService(
	uploader uploader,
	fetcher playback.Fetcher,
	store domain.LibraryStore,
	verifyOnImport bool,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uploader: uploader,
		fetcher:  fetcher,
		store:    store,
		verify:   verifyOnImport && fetcher != nil,
		now:      time.Now,
		logger:   logger,
	}
}

// Import uploads a PDF and adds it to the library. The book is stored as
// pending right after the upload, then marked ready or failed once its first
// page has been fetched. A failed verification returns the stored book and
// the fetch error.
func (s *Service) Import(ctx context.Context, path string, onProgress domain.ProgressFunc) (domain.Book, error) {
	report := func(stage domain.ImportStage, book domain.Book) {
		if onProgress != nil {
			onProgress(domain.ImportProgress{Stage: stage, FileName: book.Name, TotalPages: book.TotalPages})
		}
	}

	if err := ValidatePDF(path); err != nil {
		return domain.Book{}, err
	}

	report(domain.ImportStageUploading, domain.Book{Name: filepath.Base(path)})
	res, err := s.uploader.Upload(ctx, path)
	if err != nil {
		s.logger.Error("upload failed", "path", path, "error", err)
		return domain.Book{}, err
	}

	book := domain.Book{
		ID:         res.FileID,
		Name:       res.Name,
		TotalPages: res.TotalPages,
		Status:     domain.BookStatusPending,
		AddedAt:    s.now().Unix(),
	}
	if existing, err := s.Book(book.ID); err == nil {
		book.Progress = existing.ResumeIndex()
		book.AddedAt = existing.AddedAt
		// The upload may be a new revision of the same document
		s.store.InvalidateBook(book.ID)
	}
	if err := s.store.SaveBook(book); err != nil {
		s.logger.Error("failed to save book", "bookID", book.ID, "error", err)
		return domain.Book{}, fmt.Errorf("failed to save book: %w", err)
	}
	s.logger.Info("book uploaded", "bookID", book.ID, "name", book.Name, "pages", book.TotalPages)

	if s.verify {
		report(domain.ImportStageVerifying, book)
		book, err = s.verifyBook(ctx, book)
	} else {
		book.Status = domain.BookStatusReady
		if saveErr := s.store.SaveBook(book); saveErr != nil {
			s.logger.Error("failed to save book", "bookID", book.ID, "error", saveErr)
		}
	}

	report(domain.ImportStageSaved, book)
	return book, err
}

// Verify re-checks a book whose first page could not be fetched
func (s *Service) Verify(ctx context.Context, id string) (domain.Book, error) {
	book, err := s.Book(id)
	if err != nil {
		return domain.Book{}, err
	}
	if s.fetcher == nil {
		return book, nil
	}
	return s.verifyBook(ctx, book)
}

func (s *Service) verifyBook(ctx context.Context, book domain.Book) (domain.Book, error) {
	_, fetchErr := s.fetcher.FetchPages(ctx, book.ID, 1, 1)
	if fetchErr != nil {
		book.Status = domain.BookStatusFailed
		s.logger.Warn("first page unavailable", "bookID", book.ID, "error", fetchErr)
	} else {
		book.Status = domain.BookStatusReady
	}

	if err := s.store.SaveBook(book); err != nil {
		s.logger.Error("failed to save book", "bookID", book.ID, "error", err)
		return book, fmt.Errorf("failed to save book: %w", err)
	}
	return book, fetchErr
}

func (s *Service) Remove(id string) error {
	if err := s.store.RemoveBook(id); err != nil {
		s.logger.Error("failed to remove book", "bookID", id, "error", err)
		return err
	}
	s.logger.Info("book removed", "bookID", id)
	return nil
}

func (s *Service) Clear() error {
	if err := s.store.ClearLibrary(); err != nil {
		s.logger.Error("failed to clear library", "error", err)
		return err
	}
	s.logger.Info("library cleared")
	return nil
}

// UpdateBookProgress saves the resume position (implements domain.ProgressStore)
func (s *Service) UpdateBookProgress(id string, pageIndex int) error {
	return s.store.UpdateBookProgress(id, pageIndex)
}

func (s *Service) SetVoice(voice string) error {
	return s.store.SetPreference(PreferenceVoice, voice)
}
