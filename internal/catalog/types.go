package catalog

import (
	"errors"
	"time"
)

// Author is a node identified by a store-assigned ID. Name is the natural
// lookup key; the store enforces its uniqueness so concurrent resolvers
// converge on a single node.
type Author struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Book is a node with exactly one outbound WRITTEN_BY relationship to an
// Author. Books are immutable after creation; co-authorship is unsupported.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable indicates the backing store could not be reached or a
	// read/write failed. Never retried by the catalog; callers map it to 5xx.
	ErrUnavailable = errors.New("store unavailable")
)
