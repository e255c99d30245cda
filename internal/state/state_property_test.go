package state

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"workspace-state-engine/internal/domain"
)

// findColumn returns the column currently holding cardID
func findColumn(s domain.WorkspaceState, cardID string) string {
	for _, col := range s.Pages["b1"].Columns {
		for _, id := range col.CardIDs {
			if id == cardID {
				return col.ID
			}
		}
	}
	return ""
}

// For any move sequence the board never duplicates or loses a card: the
// multiset of card IDs across all columns stays identical to the card map.
func TestProperty_MoveCardPreservesCardSet(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	columnIDs := []string{"col1", "col2"}

	properties.Property("random card moves preserve the card set", prop.ForAll(
		func(moves []int) bool {
			s := twoWorkspaceState()
			cards := []string{"c1", "c2", "c3"}

			for _, m := range moves {
				cardID := cards[abs(m)%len(cards)]
				from := findColumn(s, cardID)
				to := columnIDs[abs(m/7)%len(columnIDs)]
				toIndex := abs(m/31) % 5

				next, err := MoveCard(s, "b1", MoveCardArgs{
					CardID:       cardID,
					FromColumnID: from,
					ToColumnID:   to,
					ToIndex:      toIndex,
				})
				if err != nil {
					return false
				}
				s = next
			}

			seen := map[string]int{}
			for _, col := range s.Pages["b1"].Columns {
				for _, id := range col.CardIDs {
					seen[id]++
				}
			}
			if len(seen) != len(s.Pages["b1"].Cards) {
				return false
			}
			for id, count := range seen {
				if count != 1 {
					return false
				}
				if _, ok := s.Pages["b1"].Cards[id]; !ok {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.TestingRun(t)
}

// insertClamped must respect list bounds for any index and place the ID at
// the clamped position.
func TestProperty_InsertClampedBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("clamped insert keeps length and position invariants", prop.ForAll(
		func(size, index int) bool {
			seq := make([]string, size)
			for i := range seq {
				seq[i] = string(rune('a' + i%26))
			}

			out := insertClamped(seq, "inserted", index)
			if len(out) != size+1 {
				return false
			}

			want := index
			if want < 0 {
				want = 0
			}
			if want > size {
				want = size
			}
			return out[want] == "inserted"
		},
		gen.IntRange(0, 20),
		gen.IntRange(-50, 50),
	))

	properties.TestingRun(t)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
