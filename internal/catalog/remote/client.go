// Package remote implements catalog.Service against a running libris-api
// instance. It backs the smoke binary and gives other Go services a typed
// client for the REST surface.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"libris.org/internal/catalog"
)

// Client talks to the books API over HTTP with Basic credentials.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

var _ catalog.Service = (*Client)(nil)

func New(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type addBookRequest struct {
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func (c *Client) AddBook(ctx context.Context, title, authorName string) (catalog.Book, error) {
	payload, err := json.Marshal(addBookRequest{Title: title, AuthorName: authorName})
	if err != nil {
		return catalog.Book{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/books", bytes.NewReader(payload))
	if err != nil {
		return catalog.Book{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return catalog.Book{}, fmt.Errorf("add book: %w", catalog.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return catalog.Book{}, c.asError(resp)
	}
	var book catalog.Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return catalog.Book{}, fmt.Errorf("decode book: %w", err)
	}
	return book, nil
}

func (c *Client) ListBooks(ctx context.Context) ([]catalog.Book, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/books", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", catalog.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.asError(resp)
	}
	var books []catalog.Book
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

// asError maps the wire status back onto the catalog error set so remote
// callers can branch the same way local ones do.
func (c *Client) asError(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := strings.TrimSpace(body.Error)
	if msg == "" {
		msg = resp.Status
	}
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%s: %w", msg, catalog.ErrInvalidInput)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, catalog.ErrNotFound)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%s: %w", msg, catalog.ErrUnavailable)
	default:
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, msg)
	}
}
