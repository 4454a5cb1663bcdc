package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a failed backend call.
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota + 1
	// KindStatus is a non-success HTTP status.
	KindStatus
	// KindUnauthorized is a 401 or 403; the session must be dropped.
	KindUnauthorized
	// KindValidation is a local check that failed before any request was built.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// NetworkErrorMessage is shown when the backend could not be reached.
const NetworkErrorMessage = "Network error. Please try again."

type Error struct {
	Kind Kind
	// Op is the client operation, e.g. "ListTickets".
	Op      string
	Status  int
	Message string
	// Fields holds per-field messages from a validation response.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("backend: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a backend error anywhere in err's chain, or 0.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return KindOf(err) == KindUnauthorized
}

// Message is the user-facing text for err.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return "Request failed"
}

// NewValidationError reports local field checks that failed before a request was built.
func NewValidationError(op string, fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, k+": "+fields[k])
	}
	return &Error{Kind: KindValidation, Op: op, Message: strings.Join(msgs, "\n"), Fields: fields}
}

// statusError builds the error for a non-success response. The message comes from
// the body's "error", "detail" or "message" field, in that order, then from field
// errors, then falls back to fallback.
func statusError(op string, status int, body []byte, fallback string) *Error {
	kind := KindStatus
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		kind = KindUnauthorized
	}
	e := &Error{Kind: kind, Op: op, Status: status}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
			e.Message = text
		} else {
			e.Message = fallback
		}
		return e
	}

	for _, key := range []string{"error", "detail", "message"} {
		var s string
		if raw, ok := payload[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			e.Message = s
			return e
		}
	}

	fields := fieldErrors(payload)
	if len(fields) > 0 {
		e.Fields = fields
		e.Message = NewValidationError(op, fields).Message
		return e
	}

	e.Message = fallback
	return e
}

func fieldErrors(payload map[string]json.RawMessage) map[string]string {
	fields := make(map[string]string)
	for key, raw := range payload {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			fields[key] = strings.Join(list, ", ")
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			fields[key] = s
		}
	}
	return fields
}
