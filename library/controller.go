package library

import (
	"context"
	"errors"
	"sync"

	"library-admin/internal/logging"
)

// ---------------------------------------------------------------------------
// Notices
// ---------------------------------------------------------------------------

// NoticeLevel distinguishes success and error notices.
type NoticeLevel int

const (
	NoticeSuccess NoticeLevel = iota
	NoticeError
)

// Notice is a transient user-facing message.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier displays notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

// ---------------------------------------------------------------------------
// Screen state
// ---------------------------------------------------------------------------

// LoadStatus tracks the collection fetch.
type LoadStatus int

const (
	Idle LoadStatus = iota
	Loading
	Ready
)

func (s LoadStatus) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "idle"
	}
}

// Overlay is the single surface open on top of the listing. The confirm
// dialog is opened from the context menu, so both count as open while it
// is shown.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayMenu
	OverlayForm
	OverlayConfirm
)

// FormMode says whether the form creates or updates a record.
type FormMode int

const (
	CreateMode FormMode = iota
	EditMode
)

// ScreenState is everything about one screen except the data itself.
type ScreenState struct {
	Status     LoadStatus
	View       ViewState
	SelectedID string
	Overlay    Overlay
	Mode       FormMode
}

func (s ScreenState) MenuOpen() bool   { return s.Overlay == OverlayMenu || s.Overlay == OverlayConfirm }
func (s ScreenState) ModalOpen() bool  { return s.Overlay == OverlayForm }
func (s ScreenState) DialogOpen() bool { return s.Overlay == OverlayConfirm }

// ---------------------------------------------------------------------------
// Controller
// ---------------------------------------------------------------------------

// Resource describes how a controller treats one entity type.
type Resource[T Record, D Draft] struct {
	Kind      Kind
	SortKey   string
	Photo     PhotoPolicy
	NewDraft  func() D
	DraftFrom func(T) D
}

// Options carries the controller's collaborators. Zero values are replaced
// with silent defaults.
type Options struct {
	Notifier Notifier
	Logger   logging.Logger
}

// Controller owns the collection, selection, overlay and draft of one
// screen and runs create/update/delete against a Backend. It is safe for
// concurrent use; backend calls run without holding the lock.
type Controller[T Record, D Draft] struct {
	res      Resource[T, D]
	backend  Backend[T]
	notifier Notifier
	logger   logging.Logger

	mu          sync.Mutex
	state       ScreenState
	records     []T
	draft       D
	attachment  *Attachment
	loadEpoch   uint64
	submitEpoch uint64
}

// NewController builds a controller in the Idle state.
func NewController[T Record, D Draft](res Resource[T, D], backend Backend[T], opts Options) *Controller[T, D] {
	if opts.Notifier == nil {
		opts.Notifier = discardNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOp()
	}
	return &Controller[T, D]{
		res:      res,
		backend:  backend,
		notifier: opts.Notifier,
		logger:   logging.WithFields(opts.Logger, map[string]any{"resource": res.Kind.Route}),
		state:    ScreenState{View: NewViewState(res.SortKey)},
		records:  []T{},
		draft:    res.NewDraft(),
	}
}

func NewAuthorController(backend Backend[Author], opts Options) *Controller[Author, AuthorDraft] {
	return NewController(Resource[Author, AuthorDraft]{
		Kind:      AuthorKind,
		SortKey:   "name",
		Photo:     AuthorPhotoPolicy,
		NewDraft:  NewAuthorDraft,
		DraftFrom: AuthorDraftFrom,
	}, backend, opts)
}

func NewBookController(backend Backend[Book], opts Options) *Controller[Book, BookDraft] {
	return NewController(Resource[Book, BookDraft]{
		Kind:      BookKind,
		SortKey:   "name",
		Photo:     BookPhotoPolicy,
		NewDraft:  NewBookDraft,
		DraftFrom: BookDraftFrom,
	}, backend, opts)
}

func NewUserController(backend Backend[User], opts Options) *Controller[User, UserDraft] {
	return NewController(Resource[User, UserDraft]{
		Kind:      UserKind,
		SortKey:   "name",
		Photo:     UserPhotoPolicy,
		NewDraft:  NewUserDraft,
		DraftFrom: UserDraftFrom,
	}, backend, opts)
}

// Kind returns the entity type this controller manages.
func (c *Controller[T, D]) Kind() Kind { return c.res.Kind }

// ------------------ Loading ------------------

// LoadAll fetches the full collection. A failure is reported to the user and
// leaves an empty collection; a response overtaken by a later LoadAll is
// dropped and ErrSuperseded returned.
func (c *Controller[T, D]) LoadAll(ctx context.Context) error {
	c.mu.Lock()
	c.loadEpoch++
	epoch := c.loadEpoch
	c.state.Status = Loading
	c.mu.Unlock()

	records, err := c.backend.GetAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.loadEpoch {
		c.logger.Debug("discarding superseded load", "epoch", epoch, "latest", c.loadEpoch)
		return ErrSuperseded
	}
	c.state.Status = Ready
	if err != nil {
		c.logger.Error("load failed", "error", err)
		c.records = []T{}
		c.notifier.Notify(Notice{Level: NoticeError, Message: "Failed to load " + c.res.Kind.Plural})
		return err
	}
	if records == nil {
		records = []T{}
	}
	c.records = records
	c.logger.Debug("collection loaded", "count", len(records))
	return nil
}

// ------------------ Reads ------------------

// State returns a snapshot of the screen state.
func (c *Controller[T, D]) State() ScreenState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether a collection fetch is in flight.
func (c *Controller[T, D]) Loading() bool { return c.State().Status == Loading }

// Records returns the collection sorted and filtered by the current view.
func (c *Controller[T, D]) Records() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// PageRecords returns only the rows on the current page.
func (c *Controller[T, D]) PageRecords() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Paginate(c.state.View, c.viewLocked())
}

func (c *Controller[T, D]) viewLocked() []T {
	v := c.state.View
	return View(c.records, v.SortKey, v.Direction, v.Filter)
}

// Selected returns the selected record from the loaded collection.
func (c *Controller[T, D]) Selected() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(c.state.SelectedID)
}

// Find looks id up in the whole loaded collection, ignoring the filter.
func (c *Controller[T, D]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(id)
}

func (c *Controller[T, D]) findLocked(id string) (T, bool) {
	var zero T
	if id == "" {
		return zero, false
	}
	for _, r := range c.records {
		if r.RecordID() == id {
			return r, true
		}
	}
	return zero, false
}

// ------------------ View transitions ------------------

func (c *Controller[T, D]) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = c.state.View.WithPage(page)
}

func (c *Controller[T, D]) SetRowsPerPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = c.state.View.WithRowsPerPage(n)
}

func (c *Controller[T, D]) RequestSort(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = c.state.View.RequestSort(key)
}

func (c *Controller[T, D]) SetSort(key string, dir Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = c.state.View.WithSort(key, dir)
}

func (c *Controller[T, D]) SetFilter(filter string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.View = c.state.View.WithFilter(filter)
}

// ------------------ Menu and dialog ------------------

// OpenMenu selects id and opens its context menu.
func (c *Controller[T, D]) OpenMenu(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedID = id
	c.state.Overlay = OverlayMenu
}

// CloseMenu closes the context menu if it is the open overlay.
func (c *Controller[T, D]) CloseMenu() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Overlay == OverlayMenu {
		c.state.Overlay = OverlayNone
	}
}

// OpenConfirm shows the delete confirmation for the selected record.
func (c *Controller[T, D]) OpenConfirm() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.SelectedID == "" {
		return ErrNoSelection
	}
	c.state.Overlay = OverlayConfirm
	return nil
}

// CancelConfirm closes the dialog and returns to the menu it came from.
func (c *Controller[T, D]) CancelConfirm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Overlay == OverlayConfirm {
		c.state.Overlay = OverlayMenu
	}
}

// ------------------ Form ------------------

// BeginCreate clears the draft and opens the form in create mode. Opening a
// form starts a new form session; responses to earlier submits are dropped.
func (c *Controller[T, D]) BeginCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitEpoch++
	c.draft = c.res.NewDraft()
	c.attachment = nil
	c.state.Mode = CreateMode
	c.state.Overlay = OverlayForm
}

// BeginEdit loads the record id from the in-memory collection into the
// draft and opens the form in edit mode. Unknown ids leave the screen as
// it was and return a not-found error.
func (c *Controller[T, D]) BeginEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.findLocked(id)
	if !ok {
		c.logger.Warn("edit requested for unknown record", "id", id)
		return notFoundError(id)
	}
	c.submitEpoch++
	c.state.SelectedID = id
	c.draft = c.res.DraftFrom(rec)
	c.attachment = nil
	c.state.Mode = EditMode
	c.state.Overlay = OverlayForm
	return nil
}

// Draft returns the current draft.
func (c *Controller[T, D]) Draft() D {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the draft.
func (c *Controller[T, D]) SetDraft(d D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = d
}

// Attach selects a new photo for the form. nil clears the selection.
func (c *Controller[T, D]) Attach(a *Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attachment = a
}

// Attachment returns the selected, not yet submitted photo.
func (c *Controller[T, D]) Attachment() *Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attachment
}

// CanSubmit reports nil when the draft has every required field.
func (c *Controller[T, D]) CanSubmit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Validate()
}

// CancelForm closes the form and drops the selected photo. The draft is kept
// until the next BeginCreate or BeginEdit. A submit still in flight for this
// form returns ErrSuperseded and changes nothing.
func (c *Controller[T, D]) CancelForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitEpoch++
	c.attachment = nil
	if c.state.Overlay == OverlayForm {
		c.state.Overlay = OverlayNone
	}
}

// Submit sends the draft as a create or update depending on the form mode.
// On success the form and menu close, the draft resets and the collection is
// reloaded. On failure the form stays open with the draft and photo intact.
func (c *Controller[T, D]) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.draft.Validate(); err != nil {
		c.mu.Unlock()
		return draftError(err)
	}
	mode := c.state.Mode
	id := c.state.SelectedID
	if mode == EditMode && id == "" {
		c.mu.Unlock()
		return ErrNoSelection
	}
	payload := Payload{Fields: c.draft.Fields(), Attachment: c.attachment}
	c.submitEpoch++
	epoch := c.submitEpoch
	c.mu.Unlock()

	logger := logging.WithFields(c.logger, payload.describe())
	var err error
	if mode == CreateMode {
		logger.Debug("creating record")
		_, err = c.backend.Create(ctx, payload)
	} else {
		logger.Debug("updating record", "id", id)
		_, err = c.backend.Update(ctx, id, payload)
	}

	c.mu.Lock()
	if epoch != c.submitEpoch {
		c.mu.Unlock()
		logger.Debug("discarding superseded submit", "epoch", epoch)
		return ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		logger.Error("submit failed", "error", err)
		c.notifier.Notify(Notice{Level: NoticeError, Message: GenericFailureMessage})
		return err
	}
	c.state.Overlay = OverlayNone
	c.draft = c.res.NewDraft()
	c.attachment = nil
	verb := " added"
	if mode == EditMode {
		verb = " updated"
	}
	c.mu.Unlock()

	c.notifier.Notify(Notice{Level: NoticeSuccess, Message: c.res.Kind.Label + verb})
	if err := c.LoadAll(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		logger.Warn("reload after submit failed", "error", err)
	}
	return nil
}

// ------------------ Delete ------------------

// Remove deletes id, or the selected record when id is empty. On success the
// dialog and menu close and the collection is reloaded; on failure the
// dialog stays open.
func (c *Controller[T, D]) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	if id == "" {
		id = c.state.SelectedID
	}
	c.mu.Unlock()
	if id == "" {
		return ErrNoSelection
	}

	if err := c.backend.Delete(ctx, id); err != nil {
		c.logger.Error("delete failed", "id", id, "error", err)
		c.notifier.Notify(Notice{Level: NoticeError, Message: GenericFailureMessage})
		return err
	}

	c.mu.Lock()
	c.state.Overlay = OverlayNone
	if c.state.SelectedID == id {
		c.state.SelectedID = ""
	}
	c.mu.Unlock()

	c.notifier.Notify(Notice{Level: NoticeSuccess, Message: c.res.Kind.Label + " deleted"})
	if err := c.LoadAll(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		c.logger.Warn("reload after delete failed", "error", err)
	}
	return nil
}

// ------------------ Photos ------------------

// ResolvePhoto returns the display URL for rec. While the form is editing
// rec, a newly selected photo previews in place of the stored one.
func (c *Controller[T, D]) ResolvePhoto(rec T) (string, bool) {
	c.mu.Lock()
	preview := ""
	if c.state.Overlay == OverlayForm && c.state.Mode == EditMode && c.state.SelectedID == rec.RecordID() {
		preview = c.attachment.PreviewURL()
	}
	c.mu.Unlock()
	return c.res.Photo.Resolve(rec.PhotoField(), rec.DisplayName(), preview)
}

// FormPhoto returns what the open form shows as its photo: the local
// preview, then the edited record's photo, then the policy fallback seeded
// by the draft name.
func (c *Controller[T, D]) FormPhoto() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	preview := c.attachment.PreviewURL()
	name := c.draft.DisplayName()
	if c.state.Mode == EditMode {
		if rec, ok := c.findLocked(c.state.SelectedID); ok {
			return c.res.Photo.Resolve(rec.PhotoField(), name, preview)
		}
	}
	return c.res.Photo.Resolve(Photo{}, name, preview)
}
