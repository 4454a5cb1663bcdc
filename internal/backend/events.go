package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"ticket-admin/models"
)

// Upload is a file to send in a multipart body.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EventForm is the event create/update payload. Dates and Prices travel as
// JSON-encoded strings inside the multipart body, or "null" when empty.
type EventForm struct {
	Name     string
	Location string
	Time     string
	Dates    []string
	Prices   []string
	SaleDate string
	Category string
	Images   []Upload
	// ExistingImages are the poster urls to keep on update, in display order.
	ExistingImages []string
}

func (c *Client) ListEvents(ctx context.Context, sess *Session) ([]models.Event, error) {
	return list[models.Event](ctx, c, sess, "ListEvents", "events/")
}

func (c *Client) GetEvent(ctx context.Context, sess *Session, id int64) (models.Event, error) {
	var e models.Event
	err := c.doJSON(ctx, sess, "GetEvent", http.MethodGet, resourcePath("events", id), nil, &e)
	return e, err
}

func (c *Client) CreateEvent(ctx context.Context, sess *Session, form EventForm) (models.Event, error) {
	return c.sendEvent(ctx, sess, "CreateEvent", http.MethodPost, "events/", form, false)
}

func (c *Client) UpdateEvent(ctx context.Context, sess *Session, id int64, form EventForm) (models.Event, error) {
	return c.sendEvent(ctx, sess, "UpdateEvent", http.MethodPut, resourcePath("events", id), form, true)
}

func (c *Client) DeleteEvent(ctx context.Context, sess *Session, id int64) error {
	return c.doJSON(ctx, sess, "DeleteEvent", http.MethodDelete, resourcePath("events", id), nil, nil)
}

func (c *Client) sendEvent(ctx context.Context, sess *Session, op, method, path string, form EventForm, update bool) (models.Event, error) {
	body, contentType, err := encodeEventForm(form, update)
	if err != nil {
		return models.Event{}, fmt.Errorf("backend: %s: %w", op, err)
	}

	r, err := c.send(ctx, sess, call{
		op:          op,
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
		fallback:    "Failed to save event",
	})
	if err != nil {
		return models.Event{}, err
	}

	var e models.Event
	if err := decodeInto(op, r.body, &e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func encodeEventForm(form EventForm, update bool) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	dates, err := jsonList(form.Dates)
	if err != nil {
		return nil, "", fmt.Errorf("encode event_date: %w", err)
	}
	prices, err := jsonList(form.Prices)
	if err != nil {
		return nil, "", fmt.Errorf("encode ticket_price: %w", err)
	}

	fields := [][2]string{
		{"event_name", form.Name},
		{"event_location", form.Location},
		{"event_time", form.Time},
		{"event_date", dates},
		{"ticket_price", prices},
		{"sale_date", form.SaleDate},
		{"category", form.Category},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write %s: %w", f[0], err)
		}
	}

	for _, img := range form.Images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, escapeQuotes(img.Filename)))
		ct := img.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", fmt.Errorf("write image %s: %w", img.Filename, err)
		}
	}

	if update {
		for i, u := range form.ExistingImages {
			if err := w.WriteField(fmt.Sprintf("existing_images[%d]", i), u); err != nil {
				return nil, "", fmt.Errorf("write existing_images: %w", err)
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func jsonList(values []string) (string, error) {
	var kept []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return "null", nil
	}
	b, err := json.Marshal(kept)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
