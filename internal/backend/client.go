// Package backend is the typed client for the ticket platform's REST API, which owns
// all persistent state. Every call takes the caller's context and the admin session
// explicitly; a response that arrives after the context is done is discarded.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ticket-admin/models"
	"ticket-admin/monitoring"
	"ticket-admin/utils"
)

// maxPages bounds how many "next" links a list call follows.
const maxPages = 50

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Breaker guards every round trip. A default breaker is used when nil.
	Breaker *utils.CircuitBreaker
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

type Client struct {
	// baseURL always ends with a slash.
	baseURL *url.URL

	// hc is the http client.
	hc *http.Client

	// breaker stops calling a backend that keeps failing.
	breaker *utils.CircuitBreaker

	// now is the clock used for default export filenames.
	now func() time.Time
}

func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("backend: New: base url is empty")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("backend: New: url.Parse: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: New: base url %q is not absolute", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	breaker := cfg.Breaker
	if breaker == nil {
		breaker = utils.NewCircuitBreaker(utils.Settings{Name: "backend"})
	}

	return &Client{baseURL: base, hc: hc, breaker: breaker, now: time.Now}, nil
}

// BaseURL is the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// endpoint joins path onto the base url, tolerating missing or doubled slashes, and
// keeps the trailing slash the API expects. Absolute urls (pagination links) pass
// through unchanged.
func (c *Client) endpoint(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	p, query, _ := strings.Cut(path, "?")
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + strings.Join(parts, "/")
	if len(parts) > 0 {
		u.Path += "/"
	}
	u.RawQuery = query
	return u.String()
}

func resourcePath(collection string, id int64, action ...string) string {
	parts := append([]string{collection, strconv.FormatInt(id, 10)}, action...)
	return strings.Join(parts, "/") + "/"
}

type call struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	accept      string
	// fallback is the message used when an error response carries none.
	fallback string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// errServerStatus marks 5xx responses as failures for the breaker only.
var errServerStatus = errors.New("backend: server error status")

func (c *Client) send(ctx context.Context, sess *Session, cl call) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.endpoint(cl.path), cl.body)
	if err != nil {
		return nil, fmt.Errorf("backend: %s: http.NewRequest: %w", cl.op, err)
	}
	accept := cl.accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if sess != nil && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	start := time.Now()
	out, err := c.breaker.Execute(ctx, func() (any, error) {
		resp, err := c.hc.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		r := &response{status: resp.StatusCode, header: resp.Header, body: data}
		if resp.StatusCode >= http.StatusInternalServerError {
			return r, errServerStatus
		}
		return r, nil
	})
	elapsed := time.Since(start)

	// the caller is gone; whatever arrived is dropped
	if ctxErr := ctx.Err(); ctxErr != nil {
		monitoring.ObserveBackendRequest(cl.op, "canceled", elapsed)
		return nil, ctxErr
	}

	if err != nil && !errors.Is(err, errServerStatus) {
		monitoring.ObserveBackendRequest(cl.op, "network", elapsed)
		zap.L().Warn("backend request failed",
			zap.String("op", cl.op),
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindNetwork, Op: cl.op, Message: NetworkErrorMessage, Err: err}
	}

	r := out.(*response)
	monitoring.ObserveBackendRequest(cl.op, strconv.Itoa(r.status), elapsed)
	zap.L().Debug("backend request",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", r.status),
		zap.Duration("elapsed", elapsed),
	)

	if r.status < 200 || r.status >= 300 {
		fallback := cl.fallback
		if fallback == "" {
			fallback = fmt.Sprintf("Request failed (HTTP %d)", r.status)
		}
		return r, statusError(cl.op, r.status, r.body, fallback)
	}
	return r, nil
}

// doJSON sends in as a JSON body when non-nil and decodes the reply into out when
// non-nil.
func (c *Client) doJSON(ctx context.Context, sess *Session, op, method, path string, in, out any) error {
	cl := call{op: op, method: method, path: path}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: %s: json.Marshal: %w", op, err)
		}
		cl.body = bytes.NewReader(payload)
		cl.contentType = "application/json"
	}

	r, err := c.send(ctx, sess, cl)
	if err != nil {
		return err
	}
	return decodeInto(op, r.body, out)
}

func decodeInto(op string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(out); err != nil {
		return fmt.Errorf("backend: %s: json.Decode: %w", op, err)
	}
	return nil
}

// list fetches a collection, following pagination links when the backend pages.
func list[T any](ctx context.Context, c *Client, sess *Session, op, path string) ([]T, error) {
	var items []T
	next := path
	for page := 0; next != "" && page < maxPages; page++ {
		var payload models.ListPayload[T]
		if err := c.doJSON(ctx, sess, op, http.MethodGet, next, nil, &payload); err != nil {
			return nil, err
		}
		items = append(items, payload.Items...)
		next = payload.Next
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
