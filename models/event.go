package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LegacyImageSeparator joins poster URLs in the old single-string event_image field.
const LegacyImageSeparator = "|||SEPARATOR|||"

type Event struct {
	ID       Ref        `json:"id"`
	Name     string     `json:"event_name"`
	Dates    DateList   `json:"event_date"`
	Location Text       `json:"event_location"`
	Time     Text       `json:"event_time"`
	SaleDate Text       `json:"sale_date"`
	Prices   PriceTiers `json:"ticket_price"`
	Category Ref        `json:"category"`

	Images      []EventImage `json:"images"`
	LegacyImage string       `json:"event_image,omitempty"`
}

type EventImage struct {
	ImageURL string `json:"image_url"`
}

// Posters returns the poster URLs in display order.
func (e Event) Posters() []string {
	if len(e.Images) > 0 {
		urls := make([]string, 0, len(e.Images))
		for _, img := range e.Images {
			if img.ImageURL != "" {
				urls = append(urls, img.ImageURL)
			}
		}
		return urls
	}
	if e.LegacyImage == "" {
		return nil
	}
	return strings.Split(e.LegacyImage, LegacyImageSeparator)
}

func (e Event) DisplayDate() string {
	return strings.Join(e.Dates, ", ")
}

// DateList accepts a JSON array, a JSON-encoded array inside a string, or a bare
// string.
type DateList []string

func (d *DateList) UnmarshalJSON(b []byte) error {
	values, err := decodeLooseList(b)
	if err != nil {
		return fmt.Errorf("event_date: %w", err)
	}
	*d = values
	return nil
}

// PriceTiers accepts an array, an object of tier -> price (rendered "tier: price" in
// key order) or either of them JSON-encoded inside a string.
type PriceTiers []string

func (p *PriceTiers) UnmarshalJSON(b []byte) error {
	values, err := decodeLooseList(b)
	if err != nil {
		return fmt.Errorf("ticket_price: %w", err)
	}
	*p = values
	return nil
}

func decodeLooseList(b []byte) ([]string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}

	switch b[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			out = append(out, scalarString(item))
		}
		return out, nil

	case '{':
		return decodeOrderedObject(b)

	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			if values, err := decodeLooseList([]byte(trimmed)); err == nil {
				return values, nil
			}
		}
		if trimmed == "" {
			return nil, nil
		}
		return []string{s}, nil
	}

	return []string{string(b)}, nil
}

// decodeOrderedObject keeps the backend's key order, which a map would lose.
func decodeOrderedObject(b []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var out []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("%s: %s", key, scalarString(val)))
	}
	return out, nil
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
