package domain

import "slices"

// Book is a catalog entry. It references its author by ID.
type Book struct {
	Record
	Title     string   `json:"title"`
	Published int      `json:"published"`
	AuthorID  string   `json:"author_id"`
	Genres    []string `json:"genres"`
}

// HasGenre reports whether genre is one of the book's tags (exact match).
func (b *Book) HasGenre(genre string) bool {
	return slices.Contains(b.Genres, genre)
}
