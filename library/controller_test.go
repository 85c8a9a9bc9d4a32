package library

import (
	"context"
	"errors"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

// memBackend is an in-memory Backend with injectable failures.
type memBackend[T Record] struct {
	mu        sync.Mutex
	records   []T
	getErr    error
	createErr error
	updateErr error
	deleteErr error

	getCalls int
	created  []Payload
	updated  map[string]Payload
	deleted  []string
}

func newMemBackend[T Record](records ...T) *memBackend[T] {
	return &memBackend[T]{records: records, updated: map[string]Payload{}}
}

func (m *memBackend[T]) GetAll(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	return append([]T(nil), m.records...), nil
}

func (m *memBackend[T]) Create(_ context.Context, p Payload) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.created = append(m.created, p)
	return zero, m.createErr
}

func (m *memBackend[T]) Update(_ context.Context, id string, p Payload) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	m.updated[id] = p
	return zero, m.updateErr
}

func (m *memBackend[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

func (m *memBackend[T]) loads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

type noticeRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *noticeRecorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) last() Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}
	}
	return r.notices[len(r.notices)-1]
}

func newAuthorFixture(t *testing.T, records ...Author) (*Controller[Author, AuthorDraft], *memBackend[Author], *noticeRecorder) {
	t.Helper()
	backend := newMemBackend(records...)
	notices := &noticeRecorder{}
	c := NewAuthorController(backend, Options{Notifier: notices})
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	return c, backend, notices
}

func TestLoadAllPopulatesSortedRecords(t *testing.T) {
	c, _, _ := newAuthorFixture(t, Author{ID: "2", Name: "Mark"}, Author{ID: "1", Name: "alice"})
	if s := c.State(); s.Status != Ready {
		t.Fatalf("status = %v", s.Status)
	}
	got := c.Records()
	if len(got) != 2 || got[0].Name != "alice" {
		t.Fatalf("records = %+v", got)
	}
}

func TestLoadAllFailureEmptiesCollectionAndNotifies(t *testing.T) {
	c, backend, notices := newAuthorFixture(t, Author{ID: "1", Name: "Jane"})
	backend.getErr = errors.New("connection refused")

	if err := c.LoadAll(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if len(c.Records()) != 0 {
		t.Fatalf("collection should be empty after a failed load")
	}
	if n := notices.last(); n.Level != NoticeError || n.Message != "Failed to load authors" {
		t.Fatalf("notice = %+v", n)
	}
	if c.Loading() {
		t.Fatalf("loading should be false after failure")
	}
}

// blockingBackend holds GetAll until released so loads can overlap.
type blockingBackend struct {
	*memBackend[Author]
	calls chan chan []Author
}

func (b *blockingBackend) GetAll(ctx context.Context) ([]Author, error) {
	reply := make(chan []Author)
	b.calls <- reply
	return <-reply, nil
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	backend := &blockingBackend{memBackend: newMemBackend[Author](), calls: make(chan chan []Author)}
	c := NewAuthorController(backend, Options{})

	firstErr := make(chan error, 1)
	go func() { firstErr <- c.LoadAll(context.Background()) }()
	first := <-backend.calls

	secondErr := make(chan error, 1)
	go func() { secondErr <- c.LoadAll(context.Background()) }()
	second := <-backend.calls

	second <- []Author{{ID: "new", Name: "Fresh"}}
	if err := <-secondErr; err != nil {
		t.Fatalf("second load: %v", err)
	}
	first <- []Author{{ID: "old", Name: "Stale"}}
	if err := <-firstErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first load err = %v, want ErrSuperseded", err)
	}

	got := c.Records()
	if len(got) != 1 || got[0].ID != "new" {
		t.Fatalf("stale response overwrote newer one: %+v", got)
	}
}

// blockingUpdates holds Update until released.
type blockingUpdates struct {
	*memBackend[Author]
	started chan struct{}
	release chan struct{}
}

func (b *blockingUpdates) Update(ctx context.Context, id string, p Payload) (Author, error) {
	b.started <- struct{}{}
	<-b.release
	return b.memBackend.Update(ctx, id, p)
}

func TestSubmitFromClosedFormIsDiscarded(t *testing.T) {
	backend := &blockingUpdates{
		memBackend: newMemBackend(Author{ID: "1", Name: "Jane"}, Author{ID: "2", Name: "Mark"}),
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	notices := &noticeRecorder{}
	c := NewAuthorController(backend, Options{Notifier: notices})
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	loadsBefore := backend.loads()

	if err := c.BeginEdit("1"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	c.SetDraft(AuthorDraft{Name: "Jane Austen"})
	submitErr := make(chan error, 1)
	go func() { submitErr <- c.Submit(context.Background()) }()
	<-backend.started

	c.CancelForm()
	if err := c.BeginEdit("2"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	c.SetDraft(AuthorDraft{Name: "Mark Twain"})
	close(backend.release)

	if err := <-submitErr; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("submit err = %v, want ErrSuperseded", err)
	}
	s := c.State()
	if s.Overlay != OverlayForm || s.Mode != EditMode || s.SelectedID != "2" {
		t.Fatalf("second form should stay open: %+v", s)
	}
	if d := c.Draft(); d.Name != "Mark Twain" {
		t.Fatalf("draft of the open form was replaced: %+v", d)
	}
	if len(notices.notices) != 0 {
		t.Fatalf("no notice expected, got %+v", notices.notices)
	}
	if backend.loads() != loadsBefore {
		t.Fatalf("superseded submit must not reload")
	}
}

func TestMenuAndDialogTransitions(t *testing.T) {
	c, _, _ := newAuthorFixture(t, Author{ID: "1", Name: "Jane"})

	if err := c.OpenConfirm(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("OpenConfirm without selection = %v", err)
	}
	c.OpenMenu("1")
	if s := c.State(); !s.MenuOpen() || s.SelectedID != "1" {
		t.Fatalf("state = %+v", s)
	}
	if err := c.OpenConfirm(); err != nil {
		t.Fatalf("OpenConfirm: %v", err)
	}
	if s := c.State(); !s.DialogOpen() || !s.MenuOpen() {
		t.Fatalf("dialog should open over the menu: %+v", s)
	}
	c.CancelConfirm()
	if s := c.State(); s.DialogOpen() || !s.MenuOpen() {
		t.Fatalf("cancel should return to the menu: %+v", s)
	}
	c.CloseMenu()
	if s := c.State(); s.MenuOpen() || s.Overlay != OverlayNone {
		t.Fatalf("menu should be closed: %+v", s)
	}
}

func TestBeginEditUnknownIDLeavesStateUnchanged(t *testing.T) {
	c, _, _ := newAuthorFixture(t, Author{ID: "1", Name: "Jane"})
	before := c.State()

	err := c.BeginEdit("missing")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("err = %v, want ErrRecordNotFound", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) {
		t.Fatalf("expected not-found category, got %v", err)
	}
	if after := c.State(); after != before {
		t.Fatalf("state changed: %+v -> %+v", before, after)
	}
}

func TestBeginEditPopulatesDraft(t *testing.T) {
	c, _, _ := newAuthorFixture(t, Author{ID: "1", Name: "Jane", Description: "Novelist"})
	if err := c.BeginEdit("1"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	s := c.State()
	if !s.ModalOpen() || s.Mode != EditMode || s.SelectedID != "1" {
		t.Fatalf("state = %+v", s)
	}
	if d := c.Draft(); d.Name != "Jane" || d.Description != "Novelist" {
		t.Fatalf("draft = %+v", d)
	}
}

func TestFindIgnoresFilter(t *testing.T) {
	c, _, _ := newAuthorFixture(t, Author{ID: "1", Name: "Jane"}, Author{ID: "2", Name: "Mark"})
	c.SetFilter("mark")
	if len(c.Records()) != 1 {
		t.Fatalf("filter should hide Jane")
	}
	if a, ok := c.Find("1"); !ok || a.Name != "Jane" {
		t.Fatalf("Find(1) = %+v, %v", a, ok)
	}
	if _, ok := c.Find("zz"); ok {
		t.Fatalf("unknown id should not be found")
	}
}

func TestSubmitRejectsInvalidDraft(t *testing.T) {
	c, backend, _ := newAuthorFixture(t)
	c.BeginCreate()
	if c.CanSubmit() == nil {
		t.Fatalf("empty draft should not be submittable")
	}
	err := c.Submit(context.Background())
	if !errors.Is(err, ErrDraftInvalid) {
		t.Fatalf("err = %v, want ErrDraftInvalid", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(backend.created) != 0 {
		t.Fatalf("backend should not be called")
	}
}

func TestSubmitCreateSuccess(t *testing.T) {
	c, backend, notices := newAuthorFixture(t)
	loadsBefore := backend.loads()

	c.BeginCreate()
	c.SetDraft(AuthorDraft{Name: "Jane", Description: "Novelist"})
	c.Attach(pngAttachment(t))
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(backend.created) != 1 {
		t.Fatalf("create calls = %d", len(backend.created))
	}
	p := backend.created[0]
	if v, _ := p.Get("name"); v != "Jane" || p.Attachment == nil {
		t.Fatalf("payload = %+v", p)
	}
	if s := c.State(); s.ModalOpen() {
		t.Fatalf("form should close on success")
	}
	if c.Draft() != (AuthorDraft{}) || c.Attachment() != nil {
		t.Fatalf("draft and attachment should reset")
	}
	if n := notices.last(); n.Level != NoticeSuccess || n.Message != "Author added" {
		t.Fatalf("notice = %+v", n)
	}
	if backend.loads() != loadsBefore+1 {
		t.Fatalf("collection should reload after submit")
	}
}

func TestSubmitFailureKeepsFormOpen(t *testing.T) {
	c, backend, notices := newAuthorFixture(t, Author{ID: "1", Name: "Jane"})
	backend.updateErr = errors.New("status 500")
	loadsBefore := backend.loads()

	if err := c.BeginEdit("1"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	c.SetDraft(AuthorDraft{Name: "Jane Austen"})
	att := pngAttachment(t)
	c.Attach(att)

	if err := c.Submit(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if s := c.State(); !s.ModalOpen() || s.Mode != EditMode {
		t.Fatalf("form should stay open: %+v", s)
	}
	if d := c.Draft(); d.Name != "Jane Austen" {
		t.Fatalf("draft lost: %+v", d)
	}
	if c.Attachment() != att {
		t.Fatalf("attachment should be kept for retry")
	}
	if n := notices.last(); n.Level != NoticeError || n.Message != GenericFailureMessage {
		t.Fatalf("notice = %+v", n)
	}
	if backend.loads() != loadsBefore {
		t.Fatalf("failed submit must not reload")
	}
	if _, ok := backend.updated["1"]; !ok {
		t.Fatalf("update should target the selected id")
	}
}

func TestSubmitUpdateWithoutAttachmentOmitsPhoto(t *testing.T) {
	c, backend, notices := newAuthorFixture(t, Author{ID: "1", Name: "Jane", Photo: RemotePhoto("http://x/j.png")})
	if err := c.BeginEdit("1"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if backend.updated["1"].Attachment != nil {
		t.Fatalf("no attachment should be sent")
	}
	if n := notices.last(); n.Message != "Author updated" {
		t.Fatalf("notice = %+v", n)
	}
}

func TestCancelFormDropsAttachment(t *testing.T) {
	c, _, _ := newAuthorFixture(t)
	c.BeginCreate()
	c.SetDraft(AuthorDraft{Name: "Draft"})
	c.Attach(pngAttachment(t))
	c.CancelForm()
	if c.State().ModalOpen() || c.Attachment() != nil {
		t.Fatalf("cancel should close the form and drop the attachment")
	}
	c.BeginCreate()
	if c.Draft().Name != "" {
		t.Fatalf("BeginCreate should start from an empty draft")
	}
}

func TestRemoveSuccessClosesAndReloads(t *testing.T) {
	c, backend, notices := newAuthorFixture(t, Author{ID: "1", Name: "Jane"}, Author{ID: "2", Name: "Mark"})
	loadsBefore := backend.loads()

	c.OpenMenu("1")
	if err := c.OpenConfirm(); err != nil {
		t.Fatalf("OpenConfirm: %v", err)
	}
	if err := c.Remove(context.Background(), ""); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != "1" {
		t.Fatalf("deleted = %v", backend.deleted)
	}
	s := c.State()
	if s.DialogOpen() || s.MenuOpen() || s.SelectedID != "" {
		t.Fatalf("dialog and menu should close: %+v", s)
	}
	if n := notices.last(); n.Level != NoticeSuccess || n.Message != "Author deleted" {
		t.Fatalf("notice = %+v", n)
	}
	if backend.loads() != loadsBefore+1 {
		t.Fatalf("collection should reload after delete")
	}
}

func TestRemoveFailureKeepsDialogOpen(t *testing.T) {
	c, backend, notices := newAuthorFixture(t, Author{ID: "1", Name: "Jane"})
	backend.deleteErr = errors.New("status 500")

	c.OpenMenu("1")
	_ = c.OpenConfirm()
	if err := c.Remove(context.Background(), ""); err == nil {
		t.Fatalf("expected error")
	}
	if !c.State().DialogOpen() {
		t.Fatalf("dialog should stay open on failure")
	}
	if n := notices.last(); n.Message != GenericFailureMessage {
		t.Fatalf("notice = %+v", n)
	}
	if len(c.Records()) != 1 {
		t.Fatalf("collection should be unchanged")
	}
}

func TestRemoveWithoutSelection(t *testing.T) {
	c, backend, _ := newAuthorFixture(t)
	if err := c.Remove(context.Background(), ""); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("err = %v", err)
	}
	if len(backend.deleted) != 0 {
		t.Fatalf("backend should not be called")
	}
}

func TestPaginationThroughController(t *testing.T) {
	var records []Author
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		records = append(records, Author{ID: n, Name: n})
	}
	c, _, _ := newAuthorFixture(t, records...)

	c.SetPage(1)
	if got := c.PageRecords(); len(got) != 2 || got[0].Name != "f" {
		t.Fatalf("page 1 = %+v", got)
	}
	c.RequestSort("name")
	if s := c.State(); s.View.Page != 1 || s.View.Direction != Desc {
		t.Fatalf("sort should keep the page: %+v", s.View)
	}
	c.SetRowsPerPage(10)
	if s := c.State(); s.View.Page != 0 {
		t.Fatalf("rows per page should reset the page: %+v", s.View)
	}
	c.SetPage(1)
	c.SetFilter("a")
	if s := c.State(); s.View.Page != 0 {
		t.Fatalf("filter should reset the page: %+v", s.View)
	}
	if got := c.Records(); len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("filtered = %+v", got)
	}
}

func TestResolvePhotoPreviewOnlyForEditedRecord(t *testing.T) {
	jane := Author{ID: "1", Name: "Jane"}
	mark := Author{ID: "2", Name: "Mark", Photo: RemotePhoto("http://x/m.png")}
	c, _, _ := newAuthorFixture(t, jane, mark)

	if got, _ := c.ResolvePhoto(jane); got != AvatarURL("Jane") {
		t.Fatalf("jane = %q", got)
	}
	if err := c.BeginEdit("1"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	att := pngAttachment(t)
	c.Attach(att)
	if got, _ := c.ResolvePhoto(jane); got != att.PreviewURL() {
		t.Fatalf("edited record should show the preview, got %q", got)
	}
	if got, _ := c.ResolvePhoto(mark); got != "http://x/m.png" {
		t.Fatalf("other records keep their photo, got %q", got)
	}
	if got, _ := c.FormPhoto(); got != att.PreviewURL() {
		t.Fatalf("form photo = %q", got)
	}
}

func TestFormPhotoSeedsAvatarFromDraft(t *testing.T) {
	backend := newMemBackend[User]()
	c := NewUserController(backend, Options{})
	c.BeginCreate()
	if got, _ := c.FormPhoto(); got != AvatarURL("User") {
		t.Fatalf("empty draft = %q", got)
	}
	c.SetDraft(UserDraft{Name: "Joe"})
	if got, _ := c.FormPhoto(); got != AvatarURL("Joe") {
		t.Fatalf("named draft = %q", got)
	}
}

func TestBookControllerHasNoFallbackImage(t *testing.T) {
	backend := newMemBackend(Book{ID: "b1", Name: "Emma"})
	c := NewBookController(backend, Options{})
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if _, ok := c.ResolvePhoto(c.Records()[0]); ok {
		t.Fatalf("books without a cover should have no image")
	}
	c.BeginCreate()
	if !c.Draft().IsAvailable {
		t.Fatalf("new book drafts default to available")
	}
}
