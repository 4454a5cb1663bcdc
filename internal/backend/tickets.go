package backend

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"ticket-admin/models"
)

func (c *Client) ListTickets(ctx context.Context, sess *Session) ([]models.Ticket, error) {
	return list[models.Ticket](ctx, c, sess, "ListTickets", "tickets/")
}

func (c *Client) GetTicket(ctx context.Context, sess *Session, id int64) (models.Ticket, error) {
	var t models.Ticket
	err := c.doJSON(ctx, sess, "GetTicket", http.MethodGet, resourcePath("tickets", id), nil, &t)
	return t, err
}

// PatchTicket sends a partial update; patch should hold only the changed fields.
func (c *Client) PatchTicket(ctx context.Context, sess *Session, id int64, patch any) (models.Ticket, error) {
	var t models.Ticket
	err := c.doJSON(ctx, sess, "PatchTicket", http.MethodPatch, resourcePath("tickets", id), patch, &t)
	return t, err
}

// Export is a downloaded file.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (c *Client) ExportTicketsCSV(ctx context.Context, sess *Session) (*Export, error) {
	r, err := c.send(ctx, sess, call{
		op:     "ExportTicketsCSV",
		method: http.MethodGet,
		path:   "tickets/export_csv/",
		accept: "text/csv",
	})
	if err != nil {
		return nil, err
	}

	name := FilenameFromDisposition(r.header.Get("Content-Disposition"))
	if name == "" {
		name = DefaultExportFilename(c.now())
	}
	ct := r.header.Get("Content-Type")
	if ct == "" {
		ct = "text/csv"
	}
	return &Export{Filename: name, ContentType: ct, Data: r.body}, nil
}

var dispositionFilename = regexp.MustCompile(`(?i)filename\*=UTF-8''([^;]+)|filename=([^;]+)`)

// FilenameFromDisposition extracts the download name from a Content-Disposition
// header. The RFC 5987 filename* form wins over filename; quotes are stripped and
// percent-escapes decoded. It returns "" when no name is present.
func FilenameFromDisposition(header string) string {
	var plain string
	for _, m := range dispositionFilename.FindAllStringSubmatch(header, -1) {
		if m[1] != "" {
			return cleanFilename(m[1])
		}
		if plain == "" && m[2] != "" {
			plain = m[2]
		}
	}
	if plain == "" {
		return ""
	}
	return cleanFilename(plain)
}

func cleanFilename(v string) string {
	v = strings.Trim(strings.TrimSpace(v), `"'`)
	if decoded, err := url.PathUnescape(v); err == nil {
		v = decoded
	}
	return v
}

// DefaultExportFilename is tickets_export_<UTC ISO timestamp>.csv with ':' and '.'
// replaced by '-'.
func DefaultExportFilename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return "tickets_export_" + strings.NewReplacer(":", "-", ".", "-").Replace(stamp) + ".csv"
}
