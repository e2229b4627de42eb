// Package engine runs parameter sweeps end to end: it renders one
// configuration file set per parameter set, hands each simulation to a
// dispatcher, and records the simulation ID mapping.
package engine

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the sweep phase an error belongs to. Sweeps never
// retry; the kind tells the caller what to fix before running again.
type ErrorKind string

const (
	// ErrorKindConfig indicates an invalid sweep request: bad parameter
	// space, missing templates, or conflicting options.
	ErrorKindConfig ErrorKind = "config"

	// ErrorKindNaming indicates a simulation ID failure: an exhausted
	// namer or a duplicate generated ID.
	ErrorKindNaming ErrorKind = "naming"

	// ErrorKindTemplate indicates a template rendering failure, including
	// missing or unused parameter names.
	ErrorKindTemplate ErrorKind = "template"

	// ErrorKindFileExists indicates a rendered configuration file would
	// overwrite an existing file while overwriting is disabled.
	ErrorKindFileExists ErrorKind = "file-exists"

	// ErrorKindDispatch indicates the dispatcher could not start or track
	// a simulation command.
	ErrorKindDispatch ErrorKind = "dispatch"

	// ErrorKindPersist indicates a sweep artifact could not be written
	// or removed: a configuration file or the simulation ID mapping.
	ErrorKindPersist ErrorKind = "persist"

	// ErrorKindStore indicates the sweep journal could not record the
	// run.
	ErrorKindStore ErrorKind = "store"
)

// SweepError is a classified error with sweep context.
type SweepError struct {
	// Kind is the sweep phase classification.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// SweepID is the sweep the error occurred in, if known.
	SweepID string `json:"sweep_id,omitempty"`

	// Simulation is the simulation ID the error applies to, if any.
	Simulation string `json:"simulation,omitempty"`

	// Path is the file path involved, if any.
	Path string `json:"path,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *SweepError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	switch {
	case e.Simulation != "" && e.Path != "":
		msg += fmt.Sprintf(" (simulation=%s, path=%s)", e.Simulation, e.Path)
	case e.Simulation != "":
		msg += fmt.Sprintf(" (simulation=%s)", e.Simulation)
	case e.Path != "":
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *SweepError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a SweepError of the same kind.
func (e *SweepError) Is(target error) bool {
	t, ok := target.(*SweepError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewConfigError creates a config-phase error.
func NewConfigError(message string, err error) *SweepError {
	return &SweepError{Kind: ErrorKindConfig, Message: message, Err: err}
}

// NewNamingError creates a naming-phase error.
func NewNamingError(message string, err error) *SweepError {
	return &SweepError{Kind: ErrorKindNaming, Message: message, Err: err}
}

// NewTemplateError creates a template-phase error.
func NewTemplateError(message string, err error) *SweepError {
	return &SweepError{Kind: ErrorKindTemplate, Message: message, Err: err}
}

// NewFileExistsError creates an overwrite-refused error.
func NewFileExistsError(message string, err error) *SweepError {
	return &SweepError{Kind: ErrorKindFileExists, Message: message, Err: err}
}

// NewDispatchError creates a dispatch-phase error.
func NewDispatchError(message string, err error) *SweepError {
	return &SweepError{Kind: ErrorKindDispatch, Message: message, Err: err}
}

// NewPersistError creates a mapping persistence error.
func NewPersistError(message string, err error) *SweepError {
	return &SweepError{Kind: ErrorKindPersist, Message: message, Err: err}
}

// NewStoreError creates a journal error.
func NewStoreError(message string, err error) *SweepError {
	return &SweepError{Kind: ErrorKindStore, Message: message, Err: err}
}

// WithSweep adds the sweep ID to the error context.
func (e *SweepError) WithSweep(sweepID string) *SweepError {
	e.SweepID = sweepID
	return e
}

// WithSimulation adds the simulation ID to the error context.
func (e *SweepError) WithSimulation(simID string) *SweepError {
	e.Simulation = simID
	return e
}

// WithPath adds the file path to the error context.
func (e *SweepError) WithPath(path string) *SweepError {
	e.Path = path
	return e
}

func kindOf(err error) (ErrorKind, bool) {
	var e *SweepError
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsConfig reports whether err is classified as a config error.
func IsConfig(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrorKindConfig
}

// IsNaming reports whether err is classified as a naming error.
func IsNaming(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrorKindNaming
}

// IsTemplate reports whether err is classified as a template error.
func IsTemplate(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrorKindTemplate
}

// IsFileExists reports whether err is classified as an overwrite refusal.
func IsFileExists(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrorKindFileExists
}

// IsDispatch reports whether err is classified as a dispatch error.
func IsDispatch(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrorKindDispatch
}

// IsPersist reports whether err is classified as a persistence error.
func IsPersist(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrorKindPersist
}

// IsStore reports whether err is classified as a journal error.
func IsStore(err error) bool {
	k, ok := kindOf(err)
	return ok && k == ErrorKindStore
}
