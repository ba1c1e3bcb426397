package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/hearlearn/internal/domain"
)

func openStore(t *testing.T, dir string) *LibraryStore {
	t.Helper()
	s, err := NewLibraryStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveBookUpserts(t *testing.T) {
	s := openStore(t, t.TempDir())

	require.NoError(t, s.SaveBook(domain.Book{ID: "a", Name: "A.pdf", TotalPages: 3}))
	require.NoError(t, s.SaveBook(domain.Book{ID: "b", Name: "B.pdf", TotalPages: 5}))
	require.NoError(t, s.SaveBook(domain.Book{ID: "a", Name: "A.pdf", TotalPages: 3, Status: domain.BookStatusReady}))

	books, err := s.LoadLibrary()
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "a", books[0].ID)
	assert.Equal(t, domain.BookStatusReady, books[0].Status)
	assert.Equal(t, "b", books[1].ID)
}

func TestLibraryPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewLibraryStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveBook(domain.Book{ID: "a", Name: "A.pdf", TotalPages: 9}))
	require.NoError(t, s.UpdateBookProgress("a", 4))
	require.NoError(t, s.SetPreference("voice", "pt-br"))
	require.NoError(t, s.SavePages("a", []domain.PageMedia{domain.TextMedia(1, "um")}))
	require.NoError(t, s.Close())

	s = openStore(t, dir)
	books, err := s.LoadLibrary()
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 4, books[0].Progress)

	voice, ok := s.GetPreference("voice")
	assert.True(t, ok)
	assert.Equal(t, "pt-br", voice)

	pages, ok := s.GetPages("a", 1, 1)
	require.True(t, ok)
	assert.Equal(t, "um", pages[0].Text)
}

func TestRemoveBook(t *testing.T) {
	s := openStore(t, t.TempDir())
	require.NoError(t, s.SaveBook(domain.Book{ID: "a"}))
	require.NoError(t, s.SaveBook(domain.Book{ID: "b"}))
	require.NoError(t, s.SavePages("a", []domain.PageMedia{domain.TextMedia(1, "x")}))
	require.NoError(t, s.SavePages("b", []domain.PageMedia{domain.TextMedia(1, "y")}))

	require.NoError(t, s.RemoveBook("a"))
	assert.ErrorIs(t, s.RemoveBook("a"), domain.ErrBookNotFound)

	books, _ := s.LoadLibrary()
	require.Len(t, books, 1)
	assert.Equal(t, "b", books[0].ID)

	_, ok := s.GetPages("a", 1, 1)
	assert.False(t, ok)
	_, ok = s.GetPages("b", 1, 1)
	assert.True(t, ok)
}

func TestUpdateProgressUnknownBook(t *testing.T) {
	s := openStore(t, "")
	assert.ErrorIs(t, s.UpdateBookProgress("missing", 1), domain.ErrBookNotFound)
}

func TestClearLibrary(t *testing.T) {
	s := openStore(t, t.TempDir())
	require.NoError(t, s.SaveBook(domain.Book{ID: "a"}))
	require.NoError(t, s.SavePages("a", []domain.PageMedia{domain.AudioMedia(2, "b.mp3")}))
	require.NoError(t, s.SetPreference("voice", "en"))

	require.NoError(t, s.ClearLibrary())

	books, err := s.LoadLibrary()
	require.NoError(t, err)
	assert.Empty(t, books)
	_, ok := s.GetPages("a", 2, 2)
	assert.False(t, ok)

	voice, ok := s.GetPreference("voice")
	assert.True(t, ok, "preferences survive clearing the library")
	assert.Equal(t, "en", voice)
}

func TestGetPagesRequiresWholeRange(t *testing.T) {
	s := openStore(t, t.TempDir())
	require.NoError(t, s.SavePages("a", []domain.PageMedia{
		domain.TextMedia(1, "um"),
		domain.TextMedia(2, "dois"),
		domain.TextMedia(4, "quatro"),
		{},
	}))

	pages, ok := s.GetPages("a", 1, 2)
	require.True(t, ok)
	assert.Equal(t, []domain.PageMedia{domain.TextMedia(1, "um"), domain.TextMedia(2, "dois")}, pages)

	_, ok = s.GetPages("a", 2, 4)
	assert.False(t, ok)
	_, ok = s.GetPages("a", 0, 1)
	assert.False(t, ok)

	s.InvalidateBook("a")
	_, ok = s.GetPages("a", 1, 1)
	assert.False(t, ok)
}

func TestSavePagesSkipsAudioWithoutURL(t *testing.T) {
	s := openStore(t, t.TempDir())
	require.NoError(t, s.SavePages("a", []domain.PageMedia{
		domain.AudioMedia(1, "https://cdn.example/1.mp3"),
		domain.AudioMedia(2, " "),
	}))

	_, ok := s.GetPages("a", 1, 1)
	assert.True(t, ok)
	_, ok = s.GetPages("a", 2, 2)
	assert.False(t, ok)
}

func TestMemoryOnlyMode(t *testing.T) {
	s := openStore(t, "")
	require.NoError(t, s.SaveBook(domain.Book{ID: "a", TotalPages: 2}))
	require.NoError(t, s.SavePages("a", []domain.PageMedia{domain.TextMedia(1, "um"), domain.TextMedia(2, "dois")}))

	books, err := s.LoadLibrary()
	require.NoError(t, err)
	assert.Len(t, books, 1)
	pages, ok := s.GetPages("a", 1, 2)
	assert.True(t, ok)
	assert.Len(t, pages, 2)

	require.NoError(t, s.RemoveBook("a"))
	_, ok = s.GetPages("a", 1, 2)
	assert.False(t, ok)
}

func TestCorruptLibraryIsNotOverwritten(t *testing.T) {
	s := openStore(t, t.TempDir())
	require.NoError(t, s.SaveBook(domain.Book{ID: "a", Name: "A.pdf", TotalPages: 3}))

	corrupt := []byte(`[{"id_arquivo":"a",`)
	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBooks).Put([]byte(keyBookList), corrupt)
	}))
	s.cache = make(map[string][]byte)

	_, err := s.LoadLibrary()
	assert.Error(t, err)
	assert.Error(t, s.SaveBook(domain.Book{ID: "b", Name: "B.pdf", TotalPages: 1}))
	assert.Error(t, s.UpdateBookProgress("a", 2))

	var raw []byte
	require.NoError(t, s.db.View(func(tx *bolt.Tx) error {
		raw = append(raw, tx.Bucket(bucketBooks).Get([]byte(keyBookList))...)
		return nil
	}))
	assert.Equal(t, corrupt, raw)
}
