package domain

import "time"

// PageType is the closed tag set of page variants
type PageType string

const (
	PageTypeDatabase PageType = "database" // a board: ordered columns of cards
	PageTypeDocument PageType = "document"
	PageTypeNote     PageType = "note"
)

// ValidPageType reports whether t is a known page type
func ValidPageType(t PageType) bool {
	switch t {
	case PageTypeDatabase, PageTypeDocument, PageTypeNote:
		return true
	}
	return false
}

// Page is a node in a per-workspace tree. ParentPageID is empty for root
// pages; deleting a page cascades to all descendants.
type Page struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspaceId"`
	ParentPageID string    `json:"parentPageId,omitempty"`
	Type         PageType  `json:"type"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`

	// Board fields, only populated when Type == PageTypeDatabase
	Columns    []Column        `json:"columns,omitempty"`
	Cards      map[string]Card `json:"cards,omitempty"`
	Categories []Category      `json:"categories,omitempty"`

	// Document fields
	Content string `json:"content,omitempty"`
}

// IsBoard reports whether the page is a board
func (p Page) IsBoard() bool {
	return p.Type == PageTypeDatabase
}

// Clone returns a deep copy of the page
func (p Page) Clone() Page {
	out := p
	if p.Columns != nil {
		out.Columns = make([]Column, len(p.Columns))
		for i, col := range p.Columns {
			out.Columns[i] = col.Clone()
		}
	}
	if p.Cards != nil {
		out.Cards = make(map[string]Card, len(p.Cards))
		for id, c := range p.Cards {
			out.Cards[id] = c.Clone()
		}
	}
	if p.Categories != nil {
		out.Categories = make([]Category, len(p.Categories))
		copy(out.Categories, p.Categories)
	}
	return out
}

// Column is an ordered sequence of card references within a board. It does
// not own card objects, only their IDs; CardIDs order is the canonical
// visible order.
type Column struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	CardIDs []string `json:"cardIds"`
}

// Clone returns a deep copy of the column
func (c Column) Clone() Column {
	out := c
	out.CardIDs = make([]string, len(c.CardIDs))
	copy(out.CardIDs, c.CardIDs)
	return out
}

// Category is a label that cards can reference by ID
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}
