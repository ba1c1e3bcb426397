package library

import (
	"fmt"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/search"
)

// Books returns the library in insertion order
func (s *Service) Books() ([]domain.Book, error) {
	return s.store.LoadLibrary()
}

func (s *Service) Book(id string) (domain.Book, error) {
	books, err := s.store.LoadLibrary()
	if err != nil {
		return domain.Book{}, err
	}
	for _, b := range books {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Book{}, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
}

// Filter fuzzy-matches query against book titles
func (s *Service) Filter(query string) ([]search.Result, error) {
	books, err := s.store.LoadLibrary()
	if err != nil {
		return nil, err
	}
	return search.NewIndex(books).Filter(query), nil
}

func (s *Service) Voice() string {
	voice, _ := s.store.GetPreference(PreferenceVoice)
	return voice
}
