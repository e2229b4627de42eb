package naming

import (
	"fmt"

	"github.com/parasol-run/parasol/pkg/sweep"
)

// List hands out a pre-supplied ordered sequence of IDs.
type List struct {
	ids  []string
	next int
}

// NewList wraps the given IDs in supplied order.
func NewList(ids []string) *List {
	stored := make([]string, len(ids))
	copy(stored, ids)
	return &List{ids: stored}
}

// Start resets the cursor and checks the sweep fits the supplied IDs.
func (l *List) Start(length int) error {
	if length > len(l.ids) {
		return fmt.Errorf("list namer holds %d IDs for a sweep of %d sets", len(l.ids), length)
	}
	l.next = 0
	return nil
}

// GenerateID returns the next supplied ID, or ErrExhausted past the end.
func (l *List) GenerateID(_ sweep.Params, _ string) (string, error) {
	if l.next >= len(l.ids) {
		return "", fmt.Errorf("list namer past %d IDs: %w", len(l.ids), ErrExhausted)
	}
	id := l.ids[l.next]
	l.next++
	return id, nil
}
