package catalog

import (
	"context"
	"sync"
	"time"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and the -store=memory development mode; production runs on the
// Postgres store.
type InMemory struct {
	mu              sync.Mutex
	authorsByID     map[string]Author
	authorIDsByName map[string]string
	books           []Book
}

// NewInMemory creates an empty catalog store.
func NewInMemory() *InMemory {
	return &InMemory{
		authorsByID:     make(map[string]Author),
		authorIDsByName: make(map[string]string),
	}
}

var _ Store = (*InMemory)(nil)

func (s *InMemory) Authors() AuthorStore { return memAuthors{s: s, lock: true} }
func (s *InMemory) Books() BookStore     { return memBooks{s: s, lock: true} }

// InTx serializes the callback under the store mutex; all operations inside
// observe and mutate one consistent snapshot. The in-memory store cannot
// roll back, so fn must not leave partial state behind on error — the
// catalog service writes the book last, after the author resolved.
func (s *InMemory) InTx(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(memTx{s: s})
}

// memTx is the already-locked view handed to InTx callbacks.
type memTx struct{ s *InMemory }

func (v memTx) Authors() AuthorStore { return memAuthors{s: v.s} }
func (v memTx) Books() BookStore     { return memBooks{s: v.s} }
func (v memTx) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(v)
}

// Author repository ---------------------------------------------------------

type memAuthors struct {
	s    *InMemory
	lock bool
}

func (m memAuthors) Save(ctx context.Context, a *Author) error {
	if m.lock {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
	}
	if id, ok := m.s.authorIDsByName[a.Name]; ok {
		// Name already taken: adopt the winner.
		*a = m.s.authorsByID[id]
		return nil
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.s.authorsByID[a.ID] = *a
	m.s.authorIDsByName[a.Name] = a.ID
	return nil
}

func (m memAuthors) FindByID(ctx context.Context, id string) (Author, error) {
	if m.lock {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
	}
	a, ok := m.s.authorsByID[id]
	if !ok {
		return Author{}, ErrNotFound
	}
	return a, nil
}

func (m memAuthors) FindAll(ctx context.Context) ([]Author, error) {
	if m.lock {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
	}
	res := make([]Author, 0, len(m.s.authorsByID))
	for _, a := range m.s.authorsByID {
		res = append(res, a)
	}
	return res, nil
}

func (m memAuthors) FindByName(ctx context.Context, name string) (Author, error) {
	if m.lock {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
	}
	id, ok := m.s.authorIDsByName[name]
	if !ok {
		return Author{}, ErrNotFound
	}
	return m.s.authorsByID[id], nil
}

// Book repository -----------------------------------------------------------

type memBooks struct {
	s    *InMemory
	lock bool
}

func (m memBooks) Save(ctx context.Context, b *Book) error {
	if m.lock {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
	}
	if _, ok := m.s.authorsByID[b.Author.ID]; !ok {
		// Invariant: no book without its WRITTEN_BY edge.
		return ErrNotFound
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	m.s.books = append(m.s.books, *b)
	return nil
}

func (m memBooks) FindByID(ctx context.Context, id string) (Book, error) {
	if m.lock {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
	}
	for _, b := range m.s.books {
		if b.ID == id {
			return b, nil
		}
	}
	return Book{}, ErrNotFound
}

func (m memBooks) FindAll(ctx context.Context) ([]Book, error) {
	if m.lock {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
	}
	res := make([]Book, len(m.s.books))
	copy(res, m.s.books)
	return res, nil
}
