package catalog

import "context"

// AuthorStore manages Author nodes.
//
// Save persists a new author node. Author names are unique in every
// implementation; if another node already holds the same name, Save adopts
// it ("fetch the winner") and updates the receiver with the stored identity.
type AuthorStore interface {
	Save(ctx context.Context, a *Author) error
	FindByID(ctx context.Context, id string) (Author, error)
	FindAll(ctx context.Context) ([]Author, error)
	FindByName(ctx context.Context, name string) (Author, error)
}

// BookStore manages Book nodes. Save persists the book together with its
// WRITTEN_BY edge; a book is never stored without one.
type BookStore interface {
	Save(ctx context.Context, b *Book) error
	FindByID(ctx context.Context, id string) (Book, error)
	FindAll(ctx context.Context) ([]Book, error)
}

// Store aggregates the node repositories and provides atomic execution.
type Store interface {
	Authors() AuthorStore
	Books() BookStore

	// InTx runs fn against a transactional view of the store. All writes
	// made through the view commit together or not at all.
	InTx(ctx context.Context, fn func(Store) error) error
}
