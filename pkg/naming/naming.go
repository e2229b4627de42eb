// Package naming assigns simulation IDs to parameter sets. A Namer hands out
// one ID per set, in enumeration order; counter- and sequence-backed namers
// are told the sweep length up front and refuse to produce IDs past it.
package naming

import (
	"errors"

	"github.com/parasol-run/parasol/pkg/sweep"
)

// ErrExhausted is returned when a namer is asked for more IDs than the sweep
// length permits. It signals a length mismatch between the parameter space
// and the namer, a caller bug rather than a recoverable condition.
var ErrExhausted = errors.New("simulation IDs exhausted")

// Namer produces simulation IDs for one sweep.
type Namer interface {
	// Start is called once before enumeration with the total number of
	// parameter sets. Implementations reset any derived state here so a
	// namer can be reused across sweeps.
	Start(length int) error

	// GenerateID returns the ID for the next parameter set.
	GenerateID(set sweep.Params, sweepID string) (string, error)
}
