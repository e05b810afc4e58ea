package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"libris.org/internal/catalog/remote"
)

func main() {
	baseURL := os.Getenv("LIBRIS_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	username := os.Getenv("LIBRIS_SMOKE_USER")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("LIBRIS_SMOKE_PASS")
	if password == "" {
		password = "adminpass"
	}

	client := remote.New(baseURL, username, password)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	before, err := client.ListBooks(ctx)
	if err != nil {
		log.Fatalf("list books: %v", err)
	}

	stamp := time.Now().UnixNano()
	title1 := fmt.Sprintf("Smoke Volume I %d", stamp)
	title2 := fmt.Sprintf("Smoke Volume II %d", stamp)
	authorName := fmt.Sprintf("Smoke Author %d", stamp)

	first, err := client.AddBook(ctx, title1, authorName)
	if err != nil {
		log.Fatalf("add first book: %v", err)
	}
	second, err := client.AddBook(ctx, title2, authorName)
	if err != nil {
		log.Fatalf("add second book: %v", err)
	}

	if first.Author.ID != second.Author.ID {
		log.Fatalf("author duplicated across books: %s vs %s", first.Author.ID, second.Author.ID)
	}

	after, err := client.ListBooks(ctx)
	if err != nil {
		log.Fatalf("list books after insert: %v", err)
	}
	if len(after) != len(before)+2 {
		log.Fatalf("expected %d books, got %d", len(before)+2, len(after))
	}

	fmt.Printf("catalog smoke test passed: author=%s books=%s,%s\n",
		first.Author.ID, first.ID, second.ID)
}
