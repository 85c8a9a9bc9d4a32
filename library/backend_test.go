package library

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

type recordedRequest struct {
	Method string
	Path   string
	Fields map[string]string
	Files  map[string][]byte
}

// fakeAPI serves canned JSON per "METHOD path" and records every request.
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]string
	status    map[string]int
	requests  []recordedRequest
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{responses: map[string]string{}, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	client, err := NewClientWithHTTP(srv.URL+"/api", srv.Client())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return api, client
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Fields: map[string]string{}, Files: map[string][]byte{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			for k, v := range r.MultipartForm.Value {
				rec.Fields[k] = v[0]
			}
			for k, fh := range r.MultipartForm.File {
				file, err := fh[0].Open()
				if err == nil {
					rec.Files[k], _ = io.ReadAll(file)
					file.Close()
				}
			}
		}
	}
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	body, ok := f.responses[key]
	status := f.status[key]
	f.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		w.Write([]byte(body))
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func TestRESTGetAllReadsEnvelope(t *testing.T) {
	api, client := newFakeAPI(t)
	api.responses["GET /api/author/getAll"] = `{"authorsList":[
        {"_id":"1","name":"Jane","photoUrl":{"url":"http://x/j.png"}},
        {"_id":"2","name":"Mark","photoUrl":"http://x/m.png"},
        {"_id":"3","name":"Anon"}
    ]}`

	got, err := NewRESTBackend[Author](client, AuthorKind).GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 authors, got %d", len(got))
	}
	if got[0].Photo.Kind != UploadedObject || got[1].Photo.Kind != RemoteURL || got[2].Photo.Kind != NoPhoto {
		t.Fatalf("photo kinds = %v %v %v", got[0].Photo.Kind, got[1].Photo.Kind, got[2].Photo.Kind)
	}
}

func TestRESTGetAllMissingListIsEmpty(t *testing.T) {
	api, client := newFakeAPI(t)
	api.responses["GET /api/book/getAll"] = `{"booksList":null}`
	got, err := NewRESTBackend[Book](client, BookKind).GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestRESTCreateSendsMultipart(t *testing.T) {
	api, client := newFakeAPI(t)
	api.responses["POST /api/book"] = `{"newBook":{"_id":"b1","name":"Emma"}}`

	d := BookDraft{Name: "Emma", ISBN: "42", IsAvailable: true, AuthorID: "a1"}
	created, err := NewRESTBackend[Book](client, BookKind).Create(context.Background(), Payload{Fields: d.Fields(), Attachment: pngAttachment(t)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "b1" {
		t.Fatalf("created = %+v", created)
	}
	req := api.last()
	if req.Fields["isAvailable"] != "true" || req.Fields["authorId"] != "a1" || req.Fields["isbn"] != "42" {
		t.Fatalf("fields = %v", req.Fields)
	}
	if len(req.Files[PhotoFieldName]) != len(pngBytes) {
		t.Fatalf("photo not uploaded: %v", req.Files)
	}
}

func TestRESTUpdateAndDeleteRoutes(t *testing.T) {
	api, client := newFakeAPI(t)
	api.responses["PUT /api/user/u 1"] = `{"updatedUser":{"_id":"u 1","name":"Joe"}}`
	api.responses["DELETE /api/user/u 1"] = `{}`

	backend := NewRESTBackend[User](client, UserKind)
	u, err := backend.Update(context.Background(), "u 1", Payload{Fields: UserDraft{Name: "Joe"}.Fields()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Name != "Joe" {
		t.Fatalf("updated = %+v", u)
	}
	if req := api.last(); req.Method != http.MethodPut || len(req.Files) != 0 {
		t.Fatalf("unexpected request %+v", req)
	}
	if err := backend.Delete(context.Background(), "u 1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if req := api.last(); req.Method != http.MethodDelete || req.Path != "/api/user/u 1" {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestRESTNon2xxIsRequestFailure(t *testing.T) {
	api, client := newFakeAPI(t)
	api.status["DELETE /api/author/1"] = http.StatusInternalServerError
	api.responses["DELETE /api/author/1"] = `{"message":"boom"}`

	err := NewRESTBackend[Author](client, AuthorKind).Delete(context.Background(), "1")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusInternalServerError {
		t.Fatalf("expected StatusError 500, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryExternal) {
		t.Fatalf("expected external category, got %v", err)
	}
}

func TestRESTUnreadableResponse(t *testing.T) {
	api, client := newFakeAPI(t)
	api.responses["GET /api/genre/getAll"] = `not json`
	_, err := NewRESTBackend[Genre](client, GenreKind).GetAll(context.Background())
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryExternal) {
		t.Fatalf("expected external category, got %v", err)
	}
}

func TestRESTTransportFailure(t *testing.T) {
	client, err := NewClient("http://127.0.0.1:1/api", 0)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	_, err = NewRESTBackend[Author](client, AuthorKind).GetAll(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestNewClientValidatesURL(t *testing.T) {
	if _, err := NewClient("ftp://example.com", 0); err == nil {
		t.Fatalf("expected scheme error")
	}
	c, err := NewClient("", 0)
	if err != nil {
		t.Fatalf("default url: %v", err)
	}
	if got := c.endpoint("author", "getAll"); got != DefaultBaseURL+"/author/getAll" {
		t.Fatalf("endpoint = %q", got)
	}
}

func TestBookEnvelopeDecodesRefs(t *testing.T) {
	api, client := newFakeAPI(t)
	api.responses["GET /api/book/getAll"] = `{"booksList":[{"_id":"b1","name":"Emma","isAvailable":true,
        "authorId":{"_id":"a1","name":"Jane"},"genreId":"g1"}]}`
	books, err := NewRESTBackend[Book](client, BookKind).GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if books[0].AuthorLabel() != "Jane" || books[0].GenreID.ID != "g1" {
		out, _ := json.Marshal(books[0])
		t.Fatalf("book = %s", out)
	}
}
