package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Author is a person books are attributed to. Name is unique across the catalog.
type Author struct {
	Record
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Born  *int   `json:"born,omitempty"`
}

// NewAuthor returns an author with only the name set, as created implicitly
// when a book references an unknown author.
func NewAuthor(id, name string) *Author {
	a := &Author{Record: Record{ID: id}, Name: NormalizeAuthorName(name)}
	a.InitTimestamps()
	return a
}

// SetBorn records the author's birth year.
func (a *Author) SetBorn(year int) {
	a.Born = &year
	a.Touch()
}

// NormalizeAuthorName trims surrounding whitespace and puts the name in
// Unicode NFC form, so composed and decomposed spellings are the same author.
// Matching stays exact otherwise.
func NormalizeAuthorName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
