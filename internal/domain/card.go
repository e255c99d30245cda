package domain

import "time"

// Priority represents the priority of a card
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Card is the atomic task entity. A card is owned by exactly one column at a
// time: its ID appears in exactly one column's CardIDs across the page.
type Card struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status,omitempty"`
	Priority    Priority        `json:"priority"`
	CategoryIDs []string        `json:"categoryIds,omitempty"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	Links       []CardLink      `json:"links,omitempty"`
	Files       []CardFile      `json:"files,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
}

// Clone returns a deep copy of the card
func (c Card) Clone() Card {
	out := c
	if c.CategoryIDs != nil {
		out.CategoryIDs = make([]string, len(c.CategoryIDs))
		copy(out.CategoryIDs, c.CategoryIDs)
	}
	if c.DueDate != nil {
		due := *c.DueDate
		out.DueDate = &due
	}
	if c.Links != nil {
		out.Links = make([]CardLink, len(c.Links))
		copy(out.Links, c.Links)
	}
	if c.Files != nil {
		out.Files = make([]CardFile, len(c.Files))
		copy(out.Files, c.Files)
	}
	if c.Checklist != nil {
		out.Checklist = make([]ChecklistItem, len(c.Checklist))
		copy(out.Checklist, c.Checklist)
	}
	return out
}

// CardLink is an external URL attached to a card
type CardLink struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// CardFile is an opaque reference to an externally stored file
type CardFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

// ChecklistItem is a single checklist entry on a card
type ChecklistItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}
