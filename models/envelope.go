package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ListPayload is a list response: either a bare JSON array or a paginated
// {"count": n, "next": url, "results": [...]} object.
type ListPayload[T any] struct {
	Items     []T
	Paginated bool
	Count     *int
	Next      string
}

func (p *ListPayload[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		p.Items = nil
		return nil
	}

	switch b[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("list payload: array: %w", err)
		}
		p.Items = items
		return nil

	case '{':
		var page struct {
			Count   *int    `json:"count"`
			Next    *string `json:"next"`
			Results []T     `json:"results"`
		}
		if err := json.Unmarshal(b, &page); err != nil {
			return fmt.Errorf("list payload: page: %w", err)
		}
		p.Items = page.Results
		p.Paginated = true
		p.Count = page.Count
		if page.Next != nil {
			p.Next = *page.Next
		}
		return nil
	}

	return fmt.Errorf("list payload: unexpected %q", b[:1])
}
