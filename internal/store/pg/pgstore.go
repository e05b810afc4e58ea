package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"libris.org/internal/catalog"
	"libris.org/internal/ids"
)

// Store implements catalog.Store on PostgreSQL. Graph nodes live in the
// authors and books tables; the WRITTEN_BY edge is the written_by table.
type Store struct {
	db *sql.DB
	q  querier
}

var _ catalog.Store = (*Store)(nil)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// the same repository code serves both plain calls and InTx bodies.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return catalog.ErrUnavailable
	}
	return nil
}

func (s *Store) Authors() catalog.AuthorStore { return &authorRepo{q: s.q} }
func (s *Store) Books() catalog.BookStore     { return &bookRepo{q: s.q} }

// InTx runs fn against a transactional view of the store. A nested call
// reuses the surrounding transaction.
func (s *Store) InTx(ctx context.Context, fn func(catalog.Store) error) error {
	if _, nested := s.q.(*sql.Tx); nested {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Author repository --------------------------------------------------------
type authorRepo struct{ q querier }

// Save upserts by name. When another writer already created the name, the
// returning clause hands back that row and the passed author adopts it.
func (r *authorRepo) Save(ctx context.Context, a *catalog.Author) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	return r.q.QueryRowContext(ctx, `
		insert into authors(id, name) values($1,$2)
		on conflict (name) do update set name=excluded.name
		returning id, created_at
	`, a.ID, a.Name).Scan(&a.ID, &a.CreatedAt)
}

func (r *authorRepo) FindByID(ctx context.Context, id string) (catalog.Author, error) {
	var a catalog.Author
	err := r.q.QueryRowContext(ctx,
		`select id, name, created_at from authors where id=$1`, id,
	).Scan(&a.ID, &a.Name, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Author{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Author{}, err
	}
	return a, nil
}

func (r *authorRepo) FindByName(ctx context.Context, name string) (catalog.Author, error) {
	var a catalog.Author
	err := r.q.QueryRowContext(ctx,
		`select id, name, created_at from authors where name=$1`, name,
	).Scan(&a.ID, &a.Name, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Author{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Author{}, err
	}
	return a, nil
}

func (r *authorRepo) FindAll(ctx context.Context) ([]catalog.Author, error) {
	rows, err := r.q.QueryContext(ctx,
		`select id, name, created_at from authors order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	authors := []catalog.Author{}
	for rows.Next() {
		var a catalog.Author
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			return nil, err
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

// Book repository -----------------------------------------------------------
type bookRepo struct{ q querier }

// Save inserts the book node and its WRITTEN_BY edge. The edge insert
// selects from authors so a dangling author id fails as not found instead
// of a constraint error.
func (r *bookRepo) Save(ctx context.Context, b *catalog.Book) error {
	if b.ID == "" {
		b.ID = ids.New()
	}
	err := r.q.QueryRowContext(ctx,
		`insert into books(id, title) values($1,$2) returning created_at`,
		b.ID, b.Title,
	).Scan(&b.CreatedAt)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx, `
		insert into written_by(book_id, author_id)
		select $1, id from authors where id=$2
	`, b.ID, b.Author.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (r *bookRepo) FindByID(ctx context.Context, id string) (catalog.Book, error) {
	var b catalog.Book
	err := r.q.QueryRowContext(ctx, `
		select b.id, b.title, b.created_at, a.id, a.name, a.created_at
		from books b
		join written_by w on w.book_id=b.id
		join authors a on a.id=w.author_id
		where b.id=$1
	`, id).Scan(&b.ID, &b.Title, &b.CreatedAt, &b.Author.ID, &b.Author.Name, &b.Author.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Book{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Book{}, err
	}
	return b, nil
}

func (r *bookRepo) FindAll(ctx context.Context) ([]catalog.Book, error) {
	rows, err := r.q.QueryContext(ctx, `
		select b.id, b.title, b.created_at, a.id, a.name, a.created_at
		from books b
		join written_by w on w.book_id=b.id
		join authors a on a.id=w.author_id
		order by b.created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []catalog.Book{}
	for rows.Next() {
		var b catalog.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.CreatedAt, &b.Author.ID, &b.Author.Name, &b.Author.CreatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
