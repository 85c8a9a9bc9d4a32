package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Backend is the persistence collaborator for one entity type.
type Backend[T Record] interface {
	GetAll(ctx context.Context) ([]T, error)
	Create(ctx context.Context, p Payload) (T, error)
	Update(ctx context.Context, id string, p Payload) (T, error)
	Delete(ctx context.Context, id string) error
}

// Kind names an entity type on the wire and in messages.
type Kind struct {
	Route  string // path segment, e.g. "author"
	Label  string // "Author"
	Plural string // "authors"
}

var (
	AuthorKind = Kind{Route: "author", Label: "Author", Plural: "authors"}
	BookKind   = Kind{Route: "book", Label: "Book", Plural: "books"}
	UserKind   = Kind{Route: "user", Label: "User", Plural: "users"}
	GenreKind  = Kind{Route: "genre", Label: "Genre", Plural: "genres"}
)

func (k Kind) listKey() string    { return k.Plural + "List" }
func (k Kind) createdKey() string { return "new" + k.Label }
func (k Kind) updatedKey() string { return "updated" + k.Label }

// ---------------------------------------------------------------------------
// REST client
// ---------------------------------------------------------------------------

// DefaultBaseURL is where the dashboard expected the API to live.
const DefaultBaseURL = "http://localhost:8080/api"

// Client holds the base URL and transport shared by every REST backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient parses baseURL. A zero timeout keeps the transport default.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q must be http or https", baseURL)
	}
	return &Client{baseURL: u, http: &http.Client{Timeout: timeout}}, nil
}

// NewClientWithHTTP is NewClient with a caller-supplied transport.
func NewClientWithHTTP(baseURL string, hc *http.Client) (*Client, error) {
	c, err := NewClient(baseURL, 0)
	if err != nil {
		return nil, err
	}
	if hc != nil {
		c.http = hc
	}
	return c, nil
}

func (c *Client) endpoint(parts ...string) string {
	u := *c.baseURL
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(escaped, "/")
	u.RawPath = ""
	return u.String()
}

// do sends req and decodes a 2xx JSON body into out (when out is non-nil).
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: req.Method, Path: req.URL.Path, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return wrapResponseError(fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err), "backend sent an unreadable response")
	}
	return nil
}

// StatusError is a completed request with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrRequestFailed }

// ---------------------------------------------------------------------------
// REST backend
// ---------------------------------------------------------------------------

// RESTBackend speaks the dashboard's REST contract for one entity type.
type RESTBackend[T Record] struct {
	client *Client
	kind   Kind
}

func NewRESTBackend[T Record](client *Client, kind Kind) *RESTBackend[T] {
	return &RESTBackend[T]{client: client, kind: kind}
}

func (b *RESTBackend[T]) GetAll(ctx context.Context) ([]T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.client.endpoint(b.kind.Route, "getAll"), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var envelope map[string]json.RawMessage
	if err := b.client.do(req, &envelope); err != nil {
		return nil, wrapRequestError(err, "load "+b.kind.Plural)
	}
	raw, ok := envelope[b.kind.listKey()]
	if !ok || isNull(raw) {
		return []T{}, nil
	}
	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, wrapResponseError(fmt.Errorf("decode %s: %w", b.kind.listKey(), err), "backend sent an unreadable "+b.kind.Route+" list")
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (b *RESTBackend[T]) Create(ctx context.Context, p Payload) (T, error) {
	return b.send(ctx, http.MethodPost, b.client.endpoint(b.kind.Route), p, b.kind.createdKey())
}

func (b *RESTBackend[T]) Update(ctx context.Context, id string, p Payload) (T, error) {
	return b.send(ctx, http.MethodPut, b.client.endpoint(b.kind.Route, id), p, b.kind.updatedKey())
}

func (b *RESTBackend[T]) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.client.endpoint(b.kind.Route, id), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return wrapRequestError(b.client.do(req, nil), "delete "+b.kind.Route)
}

func (b *RESTBackend[T]) send(ctx context.Context, method, target string, p Payload, key string) (T, error) {
	var zero T
	body, contentType, err := p.Encode()
	if err != nil {
		return zero, err
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	var envelope map[string]json.RawMessage
	if err := b.client.do(req, &envelope); err != nil {
		return zero, wrapRequestError(err, strings.ToLower(method)+" "+b.kind.Route)
	}
	raw, ok := envelope[key]
	if !ok || isNull(raw) {
		// The record is refetched with the collection anyway.
		return zero, nil
	}
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return zero, wrapResponseError(fmt.Errorf("decode %s: %w", key, err), "backend sent an unreadable "+b.kind.Route)
	}
	return rec, nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
