package naming

import (
	"fmt"
	"strconv"

	"github.com/parasol-run/parasol/pkg/sweep"
)

// Sequential numbers simulations with a zero-padded counter.
type Sequential struct {
	// ZeroFill fixes the padding width. When 0 the width is derived from
	// the sweep length at Start, wide enough for the largest counter value.
	ZeroFill int
	// StartAt is the first counter value.
	StartAt int

	width   int
	next    int
	limit   int
	started bool
}

// NewSequential returns a Sequential starting at 0 with derived padding.
func NewSequential() *Sequential {
	return &Sequential{}
}

// Start resets the counter and recomputes the padding width for this sweep's
// length. The configured ZeroFill is never mutated, so a width derived for
// one sweep cannot leak into the next.
func (s *Sequential) Start(length int) error {
	if length < 0 {
		return fmt.Errorf("sequential namer: negative sweep length %d", length)
	}
	width := s.ZeroFill
	if width <= 0 {
		if length <= 1 {
			width = 1
		} else {
			width = len(strconv.Itoa(length - 1))
		}
	}
	s.width = width
	s.next = s.StartAt
	s.limit = s.StartAt + length
	s.started = true
	return nil
}

// GenerateID returns the next counter value, left-padded with zeros. Calling
// past StartAt+length-1 returns ErrExhausted.
func (s *Sequential) GenerateID(_ sweep.Params, _ string) (string, error) {
	if !s.started {
		return "", fmt.Errorf("sequential namer: GenerateID before Start")
	}
	if s.next >= s.limit {
		return "", fmt.Errorf("sequential namer past %d IDs: %w", s.limit-s.StartAt, ErrExhausted)
	}
	id := fmt.Sprintf("%0*d", s.width, s.next)
	s.next++
	return id, nil
}
