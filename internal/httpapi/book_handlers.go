package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"libris.org/internal/audit"
	"libris.org/internal/auth"
	"libris.org/internal/catalog"
)

type addBookRequest struct {
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
}

func (a *API) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listBooks(w, r)
	case http.MethodPost:
		a.addBook(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listBooks(w http.ResponseWriter, r *http.Request) {
	if !a.requireRoles(w, r, auth.RoleAdmin, auth.RoleUser) {
		return
	}
	books, err := a.library.ListBooks(r.Context())
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (a *API) addBook(w http.ResponseWriter, r *http.Request) {
	if !a.requireRoles(w, r, auth.RoleAdmin) {
		return
	}

	var req addBookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	title := strings.TrimSpace(req.Title)
	authorName := strings.TrimSpace(req.AuthorName)
	if title == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}
	if authorName == "" {
		writeError(w, r, http.StatusBadRequest, "authorName is required")
		return
	}

	book, err := a.library.AddBook(r.Context(), title, authorName)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "catalog.book.add", map[string]any{
		"book_id":   book.ID,
		"title":     book.Title,
		"author_id": book.Author.ID,
		"author":    book.Author.Name,
	})

	writeJSON(w, http.StatusCreated, book)
}

func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "catalog unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
