package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestResolveCreatesOnMiss(t *testing.T) {
	store := NewInMemory()
	r := NewResolver(store.Authors())
	ctx := context.Background()

	a, err := r.Resolve(ctx, "William Gibson")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == "" || a.Name != "William Gibson" {
		t.Fatalf("unexpected author: %#v", a)
	}

	got, err := store.Authors().FindByName(ctx, "William Gibson")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != a.ID {
		t.Fatalf("resolver did not persist: %s vs %s", got.ID, a.ID)
	}
}

func TestResolveReturnsExistingUnchanged(t *testing.T) {
	store := NewInMemory()
	r := NewResolver(store.Authors())
	ctx := context.Background()

	first, err := r.Resolve(ctx, "William Gibson")
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(ctx, "William Gibson")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("resolve created a duplicate: %s vs %s", first.ID, second.ID)
	}

	authors, err := store.Authors().FindAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(authors) != 1 {
		t.Fatalf("expected one author, got %d", len(authors))
	}
}

func TestResolveRejectsEmptyName(t *testing.T) {
	r := NewResolver(NewInMemory().Authors())

	if _, err := r.Resolve(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAuthorSaveAdoptsWinnerOnNameConflict(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	winner := Author{ID: "a-1", Name: "Frank Herbert"}
	if err := store.Authors().Save(ctx, &winner); err != nil {
		t.Fatal(err)
	}

	loser := Author{ID: "a-2", Name: "Frank Herbert"}
	if err := store.Authors().Save(ctx, &loser); err != nil {
		t.Fatal(err)
	}
	if loser.ID != winner.ID {
		t.Fatalf("conflicting save must adopt the winner, got %s", loser.ID)
	}
}
