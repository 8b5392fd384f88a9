// Package search provides full-text search over the book catalog using Bleve.
package search

import "github.com/listenupapp/librarian/internal/domain"

// BookDocument is what gets indexed for a book. The author's name is
// denormalized so one query covers titles and authors.
type BookDocument struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Genres    []string `json:"genres,omitempty"`
	Published int      `json:"published"`
}

// NewBookDocument builds the index document for book written by authorName.
func NewBookDocument(book *domain.Book, authorName string) *BookDocument {
	return &BookDocument{
		ID:        book.ID,
		Title:     book.Title,
		Author:    authorName,
		Genres:    book.Genres,
		Published: book.Published,
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":        d.ID,
		"title":     d.Title,
		"author":    d.Author,
		"published": float64(d.Published),
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	return m
}
