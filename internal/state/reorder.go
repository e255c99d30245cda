// Package state holds the pure mutation library of the workspace engine.
// Every operation takes a WorkspaceState and returns a new one; no input
// value is ever modified in place.
package state

// removeID returns seq without id. The second return reports whether id was
// present.
func removeID(seq []string, id string) ([]string, bool) {
	out := make([]string, 0, len(seq))
	found := false
	for _, v := range seq {
		if v == id && !found {
			found = true
			continue
		}
		out = append(out, v)
	}
	return out, found
}

// insertClamped inserts id at index, clamping index to [0, len(seq)].
// An out-of-range index is a clamp, not a validation failure.
func insertClamped(seq []string, id string, index int) []string {
	if index < 0 {
		index = 0
	}
	if index > len(seq) {
		index = len(seq)
	}
	out := make([]string, 0, len(seq)+1)
	out = append(out, seq[:index]...)
	out = append(out, id)
	out = append(out, seq[index:]...)
	return out
}

// spliceMove moves the element at from to index to within a single sequence,
// clamping to. Used for column and workspace reordering.
func spliceMove(seq []string, from, to int) []string {
	if from < 0 || from >= len(seq) {
		return seq
	}
	id := seq[from]
	rest := make([]string, 0, len(seq)-1)
	rest = append(rest, seq[:from]...)
	rest = append(rest, seq[from+1:]...)
	return insertClamped(rest, id, to)
}
