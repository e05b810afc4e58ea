package catalog

import (
	"context"
	"fmt"
	"strings"

	"libris.org/internal/ids"
	"libris.org/internal/obs"
)

// Service defines the catalog operations exposed to transports.
type Service interface {
	// AddBook resolves the author by name (creating one if absent), then
	// persists a new book linked to it. The whole sequence is atomic: a
	// failed book write also rolls back a freshly created author.
	AddBook(ctx context.Context, title, authorName string) (Book, error)

	// ListBooks returns every book with its author populated, in store
	// order. An empty catalog yields an empty slice, never an error.
	ListBooks(ctx context.Context) ([]Book, error)
}

// Library implements Service on top of a node Store.
type Library struct {
	store Store
}

// NewLibrary creates the catalog service.
func NewLibrary(store Store) *Library {
	return &Library{store: store}
}

var _ Service = (*Library)(nil)

func (l *Library) AddBook(ctx context.Context, title, authorName string) (Book, error) {
	if strings.TrimSpace(title) == "" {
		return Book{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(authorName) == "" {
		return Book{}, fmt.Errorf("%w: authorName is required", ErrInvalidInput)
	}

	var book Book
	err := l.store.InTx(ctx, func(s Store) error {
		author, err := NewResolver(s.Authors()).Resolve(ctx, authorName)
		if err != nil {
			return err
		}
		book = Book{ID: ids.New(), Title: title, Author: author}
		return s.Books().Save(ctx, &book)
	})
	if err != nil {
		return Book{}, err
	}
	obs.BookAdded()
	return book, nil
}

func (l *Library) ListBooks(ctx context.Context) ([]Book, error) {
	books, err := l.store.Books().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}
