// Package status holds the ticket status workflow: which transitions exist, what
// each one must carry, and how one is applied against the backend.
package status

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotAllowed = errors.New("status: transition not allowed")
	ErrDeclined   = errors.New("status: transition declined")
	ErrInFlight   = errors.New("status: ticket update already in progress")
	ErrResync     = errors.New("status: ticket list refresh failed")
)

// ValidationError carries field-level messages for a transition rejected before any
// request was built.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "status: invalid transition data: " + strings.Join(parts, "; ")
}

// ConfirmationRequiredError is returned when a confirm-gated transition reaches a
// confirmer that cannot prompt.
type ConfirmationRequiredError struct {
	Prompt string
}

func (e *ConfirmationRequiredError) Error() string {
	return "status: confirmation required: " + e.Prompt
}
