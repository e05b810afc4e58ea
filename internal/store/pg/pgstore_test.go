package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"libris.org/internal/catalog"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestAuthorSaveAdoptsConflictWinner(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Now().UTC()

	// The upsert returns the existing row when the name is taken.
	mock.ExpectQuery("insert into authors").
		WithArgs(sqlmock.AnyArg(), "Frank Herbert").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("winner-id", created))

	a := catalog.Author{Name: "Frank Herbert"}
	if err := store.Authors().Save(context.Background(), &a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a.ID != "winner-id" {
		t.Fatalf("id = %q, want winner-id", a.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindAuthorByNameNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, name, created_at from authors where name").
		WithArgs("Nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Authors().FindByName(context.Background(), "Nobody")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want catalog.ErrNotFound", err)
	}
}

func TestAddBookCommitsNodeAndEdge(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("select id, name, created_at from authors where name").
		WithArgs("William Gibson").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("insert into authors").
		WithArgs(sqlmock.AnyArg(), "William Gibson").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("author-1", created))
	mock.ExpectQuery("insert into books").
		WithArgs(sqlmock.AnyArg(), "Neuromancer").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectExec("insert into written_by").
		WithArgs(sqlmock.AnyArg(), "author-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	lib := catalog.NewLibrary(store)
	book, err := lib.AddBook(context.Background(), "Neuromancer", "William Gibson")
	if err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	if book.Author.ID != "author-1" {
		t.Fatalf("author id = %q, want author-1", book.Author.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAddBookRollsBackOnMissingAuthor(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("select id, name, created_at from authors where name").
		WithArgs("Ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("author-9", "Ghost", created))
	mock.ExpectQuery("insert into books").
		WithArgs(sqlmock.AnyArg(), "Phantom").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
	// Author row vanished between resolve and edge insert; nothing commits.
	mock.ExpectExec("insert into written_by").
		WithArgs(sqlmock.AnyArg(), "author-9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	lib := catalog.NewLibrary(store)
	if _, err := lib.AddBook(context.Background(), "Phantom", "Ghost"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want catalog.ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListBooksJoinsAuthors(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "title", "created_at", "id", "name", "created_at"}).
		AddRow("b-1", "The Lord of the Rings", created, "a-1", "J.R.R. Tolkien", created).
		AddRow("b-2", "Neuromancer", created, "a-2", "William Gibson", created)
	mock.ExpectQuery("from books b").WillReturnRows(rows)

	books, err := store.Books().FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("books = %d, want 2", len(books))
	}
	if books[0].Author.Name != "J.R.R. Tolkien" {
		t.Fatalf("author = %q", books[0].Author.Name)
	}
}
