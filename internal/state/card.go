package state

import (
	"time"

	"github.com/google/uuid"

	"workspace-state-engine/internal/domain"
	"workspace-state-engine/internal/response"
)

func boardPage(s domain.WorkspaceState, pageID string) (domain.Page, error) {
	p, ok := s.Pages[pageID]
	if !ok {
		return domain.Page{}, response.NewAppError(response.ErrCodeNotFound, "Page not found", pageID)
	}
	if !p.IsBoard() {
		return domain.Page{}, response.NewAppError(response.ErrCodeValidation, "Page is not a board", pageID)
	}
	return p, nil
}

func columnIndex(p domain.Page, columnID string) int {
	for i, col := range p.Columns {
		if col.ID == columnID {
			return i
		}
	}
	return -1
}

// AddColumn appends a column to a board
func AddColumn(s domain.WorkspaceState, pageID, name string) (domain.WorkspaceState, error) {
	if _, err := boardPage(s, pageID); err != nil {
		return s, err
	}
	next := s.Clone()
	p := next.Pages[pageID]
	p.Columns = append(p.Columns, domain.Column{
		ID:      uuid.NewString(),
		Name:    name,
		CardIDs: []string{},
	})
	next.Pages[pageID] = p
	return next, nil
}

// RenameColumn updates a column's name
func RenameColumn(s domain.WorkspaceState, pageID, columnID, name string) (domain.WorkspaceState, error) {
	p, err := boardPage(s, pageID)
	if err != nil {
		return s, err
	}
	if columnIndex(p, columnID) < 0 {
		return s, response.NewAppError(response.ErrCodeNotFound, "Column not found", columnID)
	}
	next := s.Clone()
	p = next.Pages[pageID]
	p.Columns[columnIndex(p, columnID)].Name = name
	next.Pages[pageID] = p
	return next, nil
}

// DeleteColumn removes a column and every card it owns
func DeleteColumn(s domain.WorkspaceState, pageID, columnID string) (domain.WorkspaceState, error) {
	p, err := boardPage(s, pageID)
	if err != nil {
		return s, err
	}
	idx := columnIndex(p, columnID)
	if idx < 0 {
		return s, response.NewAppError(response.ErrCodeNotFound, "Column not found", columnID)
	}
	next := s.Clone()
	p = next.Pages[pageID]
	for _, cardID := range p.Columns[idx].CardIDs {
		delete(p.Cards, cardID)
	}
	p.Columns = append(p.Columns[:idx], p.Columns[idx+1:]...)
	next.Pages[pageID] = p
	return next, nil
}

// ReorderColumns moves the column at fromIndex to toIndex, with the same
// remove-then-clamped-insert splice used for card moves
func ReorderColumns(s domain.WorkspaceState, pageID string, fromIndex, toIndex int) (domain.WorkspaceState, error) {
	p, err := boardPage(s, pageID)
	if err != nil {
		return s, err
	}
	if fromIndex < 0 || fromIndex >= len(p.Columns) {
		return s, response.NewAppError(response.ErrCodeNotFound, "Column index out of range", "")
	}
	next := s.Clone()
	p = next.Pages[pageID]
	ids := make([]string, len(p.Columns))
	byID := make(map[string]domain.Column, len(p.Columns))
	for i, col := range p.Columns {
		ids[i] = col.ID
		byID[col.ID] = col
	}
	ids = spliceMove(ids, fromIndex, toIndex)
	for i, id := range ids {
		p.Columns[i] = byID[id]
	}
	next.Pages[pageID] = p
	return next, nil
}

// NewCard allocates a card with a fresh ID
func NewCard(title string) domain.Card {
	return domain.Card{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  domain.PriorityMedium,
		CreatedAt: time.Now().UTC(),
	}
}

// AddCard inserts a card at the end of a column
func AddCard(s domain.WorkspaceState, pageID, columnID string, card domain.Card) (domain.WorkspaceState, error) {
	p, err := boardPage(s, pageID)
	if err != nil {
		return s, err
	}
	if card.ID == "" {
		return s, response.NewAppError(response.ErrCodeValidation, "Card ID is required", "")
	}
	if _, ok := p.Cards[card.ID]; ok {
		return s, response.NewAppError(response.ErrCodeAlreadyExists, "Card already exists", card.ID)
	}
	idx := columnIndex(p, columnID)
	if idx < 0 {
		return s, response.NewAppError(response.ErrCodeNotFound, "Column not found", columnID)
	}
	next := s.Clone()
	p = next.Pages[pageID]
	p.Cards[card.ID] = card.Clone()
	p.Columns[idx].CardIDs = append(p.Columns[idx].CardIDs, card.ID)
	next.Pages[pageID] = p
	return next, nil
}

// CardUpdate holds the mutable card fields; nil means unchanged. Slice fields
// replace the whole value when non-nil.
type CardUpdate struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *domain.Priority
	CategoryIDs  []string
	DueDate      *time.Time
	ClearDueDate bool
	Links        []domain.CardLink
	Files        []domain.CardFile
	Checklist    []domain.ChecklistItem
}

// UpdateCard merges updates into the named card
func UpdateCard(s domain.WorkspaceState, pageID, cardID string, upd CardUpdate) (domain.WorkspaceState, error) {
	p, err := boardPage(s, pageID)
	if err != nil {
		return s, err
	}
	if _, ok := p.Cards[cardID]; !ok {
		return s, response.NewAppError(response.ErrCodeNotFound, "Card not found", cardID)
	}
	next := s.Clone()
	p = next.Pages[pageID]
	card := p.Cards[cardID]
	if upd.Title != nil {
		card.Title = *upd.Title
	}
	if upd.Description != nil {
		card.Description = *upd.Description
	}
	if upd.Status != nil {
		card.Status = *upd.Status
	}
	if upd.Priority != nil {
		card.Priority = *upd.Priority
	}
	if upd.CategoryIDs != nil {
		card.CategoryIDs = append([]string(nil), upd.CategoryIDs...)
	}
	if upd.ClearDueDate {
		card.DueDate = nil
	} else if upd.DueDate != nil {
		due := *upd.DueDate
		card.DueDate = &due
	}
	if upd.Links != nil {
		card.Links = append([]domain.CardLink(nil), upd.Links...)
	}
	if upd.Files != nil {
		card.Files = append([]domain.CardFile(nil), upd.Files...)
	}
	if upd.Checklist != nil {
		card.Checklist = append([]domain.ChecklistItem(nil), upd.Checklist...)
	}
	p.Cards[cardID] = card
	next.Pages[pageID] = p
	return next, nil
}

// DeleteCard removes a card from its column and from the card map
func DeleteCard(s domain.WorkspaceState, pageID, cardID string) (domain.WorkspaceState, error) {
	p, err := boardPage(s, pageID)
	if err != nil {
		return s, err
	}
	if _, ok := p.Cards[cardID]; !ok {
		return s, response.NewAppError(response.ErrCodeNotFound, "Card not found", cardID)
	}
	next := s.Clone()
	p = next.Pages[pageID]
	delete(p.Cards, cardID)
	for i := range p.Columns {
		if seq, found := removeID(p.Columns[i].CardIDs, cardID); found {
			p.Columns[i].CardIDs = seq
			break
		}
	}
	next.Pages[pageID] = p
	return next, nil
}

// MoveCardArgs describes a card move produced by drag-and-drop
type MoveCardArgs struct {
	CardID       string
	FromColumnID string
	ToColumnID   string
	ToIndex      int
}

// MoveCard moves a card within or across columns. The removal from the source
// sequence and the clamped insertion into the destination are computed as one
// transformation, so the card can never end up duplicated or absent.
func MoveCard(s domain.WorkspaceState, pageID string, args MoveCardArgs) (domain.WorkspaceState, error) {
	p, err := boardPage(s, pageID)
	if err != nil {
		return s, err
	}
	fromIdx := columnIndex(p, args.FromColumnID)
	if fromIdx < 0 {
		return s, response.NewAppError(response.ErrCodeNotFound, "Source column not found", args.FromColumnID)
	}
	toIdx := columnIndex(p, args.ToColumnID)
	if toIdx < 0 {
		return s, response.NewAppError(response.ErrCodeNotFound, "Target column not found", args.ToColumnID)
	}

	next := s.Clone()
	p = next.Pages[pageID]

	source, found := removeID(p.Columns[fromIdx].CardIDs, args.CardID)
	if !found {
		return s, response.NewAppError(response.ErrCodeNotFound, "Card not found in source column", args.CardID)
	}
	p.Columns[fromIdx].CardIDs = source
	p.Columns[toIdx].CardIDs = insertClamped(p.Columns[toIdx].CardIDs, args.CardID, args.ToIndex)

	next.Pages[pageID] = p
	return next, nil
}
