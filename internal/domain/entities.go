package domain

import (
	"fmt"
	"strings"
	"time"
)

// BookStatus tracks where an uploaded document is in the conversion pipeline
type BookStatus string

const (
	BookStatusPending BookStatus = "pending"
	BookStatusReady   BookStatus = "ready"
	BookStatusFailed  BookStatus = "failed"
)

// Book is a document in the local library.
// JSON names follow the conversion service so upload responses decode directly.
type Book struct {
	ID         string     `json:"id_arquivo"`    // Conversion service file identifier
	Name       string     `json:"nome_original"` // Original file name, used as display title
	TotalPages int        `json:"total_paginas"`
	Status     BookStatus `json:"status"`
	Progress   int        `json:"progress"` // Resume position (0-based page index)
	AddedAt    int64      `json:"added_at"` // Unix timestamp
}

// ResumeIndex returns the saved page index clamped to the book's page range
func (b Book) ResumeIndex() int {
	if b.TotalPages <= 0 || b.Progress < 0 {
		return 0
	}
	if b.Progress >= b.TotalPages {
		return b.TotalPages - 1
	}
	return b.Progress
}

// Initials returns a two-letter badge for the book title
func (b Book) Initials() string {
	name := strings.TrimSpace(strings.TrimSuffix(b.Name, ".pdf"))
	if name == "" {
		return "??"
	}
	words := strings.Fields(name)
	if len(words) > 1 {
		first := []rune(words[0])
		second := []rune(words[1])
		return strings.ToUpper(string(first[0]) + string(second[0]))
	}
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

// FormattedProgress returns "Page n of N" for display
func (b Book) FormattedProgress() string {
	if b.TotalPages <= 0 {
		return ""
	}
	return fmt.Sprintf("Page %d of %d", b.ResumeIndex()+1, b.TotalPages)
}

// AddedTime returns the time the book was added to the library
func (b Book) AddedTime() time.Time {
	return time.Unix(b.AddedAt, 0)
}

// MediaKind distinguishes the two forms a page can be delivered in
type MediaKind int

const (
	MediaKindNone MediaKind = iota
	MediaKindAudio
	MediaKindText
)

func (k MediaKind) String() string {
	switch k {
	case MediaKindAudio:
		return "audio"
	case MediaKindText:
		return "text"
	default:
		return "none"
	}
}

// PageMedia is the resolved content of one page: a playable audio
// reference or the page text. The zero value is an empty slot.
type PageMedia struct {
	Page int       `json:"page"` // 1-based page number
	Kind MediaKind `json:"kind"`
	URL  string    `json:"url,omitempty"`
	Text string    `json:"text,omitempty"`
}

// IsEmpty reports whether the slot has not been resolved yet
func (m PageMedia) IsEmpty() bool {
	return m.Kind == MediaKindNone
}

// Complete reports whether the slot holds something a renderer can play.
// An audio slot without a URL is not complete.
func (m PageMedia) Complete() bool {
	switch m.Kind {
	case MediaKindAudio:
		return strings.TrimSpace(m.URL) != ""
	case MediaKindText:
		return true
	default:
		return false
	}
}

// Words splits the page text on whitespace, the unit used for highlighting
func (m PageMedia) Words() []string {
	return strings.Fields(m.Text)
}

// AudioMedia builds a filled audio slot
func AudioMedia(page int, url string) PageMedia {
	return PageMedia{Page: page, Kind: MediaKindAudio, URL: url}
}

// TextMedia builds a filled text slot
func TextMedia(page int, text string) PageMedia {
	return PageMedia{Page: page, Kind: MediaKindText, Text: text}
}
