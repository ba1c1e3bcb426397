package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrUploadFailed indicates the document could not be submitted for conversion
	ErrUploadFailed = errors.New("document upload failed")

	// ErrPageFetchFailed indicates a page batch could not be fetched or was malformed
	ErrPageFetchFailed = errors.New("page fetch failed")

	// ErrPlaybackFailed indicates the audio or speech engine reported an error
	ErrPlaybackFailed = errors.New("playback failed")

	// ErrServerOffline indicates the conversion service is unreachable
	ErrServerOffline = errors.New("conversion service is unreachable")

	// ErrBookNotFound indicates the requested book is not in the library
	ErrBookNotFound = errors.New("book not found")

	// ErrInvalidRate indicates a playback rate outside the supported set
	ErrInvalidRate = errors.New("unsupported playback rate")

	// ErrEmptyBook indicates a book without pages
	ErrEmptyBook = errors.New("book has no pages")

	// ErrNoSession indicates no player session is open
	ErrNoSession = errors.New("no open player session")

	// ErrNotPDF indicates the selected file is not a PDF document
	ErrNotPDF = errors.New("file is not a PDF document")
)
