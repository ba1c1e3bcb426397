package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/hearlearn/internal/domain"
)

// Bucket names
var (
	bucketBooks       = []byte("books")
	bucketPages       = []byte("pages")
	bucketPreferences = []byte("preferences")

	allBuckets = [][]byte{bucketBooks, bucketPages, bucketPreferences}
)

const (
	keyBookList = "list"
	dbFileName  = "hearlearn.db"
)

// LibraryStore implements domain.LibraryStore using BoltDB.
type LibraryStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte

	// Serializes read-modify-write cycles on the book list
	listMu sync.Mutex
}

// NewLibraryStore opens the database under dataDir. An empty dataDir keeps
// everything in memory.
func NewLibraryStore(dataDir string) (*LibraryStore, error) {
	if dataDir == "" {
		return &LibraryStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &LibraryStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *LibraryStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// get decodes the value at key into dest. A missing key is (false, nil);
// read and decode failures are returned so callers never mistake a
// corrupt value for an absent one.
func (s *LibraryStore) get(bucket []byte, key string, dest any) (bool, error) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	data, ok := s.cache[cacheKey]
	s.mu.RUnlock()

	if !ok {
		if s.db == nil {
			return false, nil
		}
		err := s.db.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
				data = slices.Clone(v)
			}
			return nil
		})
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", cacheKey, err)
		}
		if data == nil {
			return false, nil
		}

		s.mu.Lock()
		s.cache[cacheKey] = data
		s.mu.Unlock()
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", cacheKey, err)
	}
	return true, nil
}

func (s *LibraryStore) set(bucket []byte, key string, value any) error {
	return s.setMany(bucket, map[string]any{key: value})
}

// setMany writes several keys of one bucket in a single transaction
func (s *LibraryStore) setMany(bucket []byte, values map[string]any) error {
	encoded := make(map[string][]byte, len(values))
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		encoded[key] = data
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			b := tx.Bucket(bucket)
			for key, data := range encoded {
				if err := b.Put([]byte(key), data); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	for key, data := range encoded {
		s.cache[string(bucket)+":"+key] = data
	}
	s.mu.Unlock()
	return nil
}

func (s *LibraryStore) delete(bucket []byte, key string) error {
	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

func (s *LibraryStore) deletePrefix(bucket []byte, prefix string) error {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		c := b.Cursor()
		var keys [][]byte
		for k, _ := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, slices.Clone(k))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Books ===

func (s *LibraryStore) LoadLibrary() ([]domain.Book, error) {
	var books []domain.Book
	if _, err := s.get(bucketBooks, keyBookList, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// SaveBook inserts the book or replaces the entry with the same ID
func (s *LibraryStore) SaveBook(book domain.Book) error {
	return s.updateList(func(books []domain.Book) ([]domain.Book, error) {
		if i := indexOf(books, book.ID); i >= 0 {
			books[i] = book
			return books, nil
		}
		return append(books, book), nil
	})
}

func (s *LibraryStore) RemoveBook(id string) error {
	err := s.updateList(func(books []domain.Book) ([]domain.Book, error) {
		i := indexOf(books, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
		}
		return slices.Delete(books, i, i+1), nil
	})
	if err != nil {
		return err
	}
	return s.deletePrefix(bucketPages, pagePrefix(id))
}

func (s *LibraryStore) UpdateBookProgress(id string, pageIndex int) error {
	return s.updateList(func(books []domain.Book) ([]domain.Book, error) {
		i := indexOf(books, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrBookNotFound, id)
		}
		books[i].Progress = pageIndex
		return books, nil
	})
}

func (s *LibraryStore) ClearLibrary() error {
	s.listMu.Lock()
	defer s.listMu.Unlock()

	if err := s.delete(bucketBooks, keyBookList); err != nil {
		return err
	}
	return s.deletePrefix(bucketPages, "")
}

func (s *LibraryStore) updateList(mutate func([]domain.Book) ([]domain.Book, error)) error {
	s.listMu.Lock()
	defer s.listMu.Unlock()

	// A list that cannot be read is left alone rather than overwritten
	var books []domain.Book
	if _, err := s.get(bucketBooks, keyBookList, &books); err != nil {
		return err
	}

	books, err := mutate(books)
	if err != nil {
		return err
	}
	return s.set(bucketBooks, keyBookList, books)
}

func indexOf(books []domain.Book, id string) int {
	return slices.IndexFunc(books, func(b domain.Book) bool { return b.ID == id })
}

// === Page cache (key: book:{id}:page:{n}) ===

func pagePrefix(bookID string) string {
	return "book:" + bookID + ":page:"
}

func pageKey(bookID string, page int) string {
	return fmt.Sprintf("%s%06d", pagePrefix(bookID), page)
}

// GetPages returns pages [start, end] only if every one of them is cached
func (s *LibraryStore) GetPages(bookID string, start, end int) ([]domain.PageMedia, bool) {
	if start < 1 || end < start {
		return nil, false
	}
	pages := make([]domain.PageMedia, 0, end-start+1)
	for page := start; page <= end; page++ {
		var media domain.PageMedia
		if ok, err := s.get(bucketPages, pageKey(bookID, page), &media); !ok || err != nil || !media.Complete() {
			return nil, false
		}
		pages = append(pages, media)
	}
	return pages, true
}

func (s *LibraryStore) SavePages(bookID string, pages []domain.PageMedia) error {
	values := make(map[string]any, len(pages))
	for _, media := range pages {
		if !media.Complete() || media.Page < 1 {
			continue
		}
		values[pageKey(bookID, media.Page)] = media
	}
	if len(values) == 0 {
		return nil
	}
	return s.setMany(bucketPages, values)
}

func (s *LibraryStore) InvalidateBook(bookID string) {
	_ = s.deletePrefix(bucketPages, pagePrefix(bookID))
}

// === Preferences ===

func (s *LibraryStore) GetPreference(key string) (string, bool) {
	var value string
	ok, err := s.get(bucketPreferences, key, &value)
	return value, ok && err == nil
}

func (s *LibraryStore) SetPreference(key, value string) error {
	return s.set(bucketPreferences, key, value)
}
