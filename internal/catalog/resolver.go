package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"libris.org/internal/ids"
	"libris.org/internal/obs"
)

// Resolver finds an author node by exact name or creates one if absent.
// Lookup performs no normalization: "J.R.R. Tolkien" and "j.r.r. tolkien"
// are distinct authors.
type Resolver struct {
	authors AuthorStore
}

// NewResolver wires a resolver to an author repository.
func NewResolver(authors AuthorStore) *Resolver {
	return &Resolver{authors: authors}
}

// Resolve returns the existing author with the given name, or persists a new
// node and returns it. Creates at most one author per call and never mutates
// an existing one. Store failures propagate unretried.
func (r *Resolver) Resolve(ctx context.Context, name string) (Author, error) {
	if strings.TrimSpace(name) == "" {
		return Author{}, fmt.Errorf("%w: author name is required", ErrInvalidInput)
	}

	author, err := r.authors.FindByName(ctx, name)
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Author{}, err
	}

	author = Author{ID: ids.New(), Name: name}
	if err := r.authors.Save(ctx, &author); err != nil {
		return Author{}, err
	}
	obs.AuthorCreated()
	return author, nil
}
