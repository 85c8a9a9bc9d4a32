package library

import (
	"context"
	"errors"
	"time"
)

// Source bundles the backends of every entity type the console manages.
type Source struct {
	Authors Backend[Author]
	Books   Backend[Book]
	Users   Backend[User]
	Genres  Backend[Genre]
	// Close releases whatever the backends hold open; may be nil.
	Close func() error
}

// RESTSource returns backends speaking the REST contract through client.
func RESTSource(client *Client) Source {
	return Source{
		Authors: NewRESTBackend[Author](client, AuthorKind),
		Books:   NewRESTBackend[Book](client, BookKind),
		Users:   NewRESTBackend[User](client, UserKind),
		Genres:  NewRESTBackend[Genre](client, GenreKind),
	}
}

// Source returns backends that store everything in the sandbox database.
func (s *Sandbox) Source() Source {
	return Source{
		Authors: s.Authors(),
		Books:   s.Books(),
		Users:   s.Users(),
		Genres:  s.Genres(),
		Close:   s.Close,
	}
}

// LibraryManager is a thin façade over the three screen controllers, keeping
// CLI code simple.
type LibraryManager struct {
	Authors *Controller[Author, AuthorDraft]
	Books   *Controller[Book, BookDraft]
	Users   *Controller[User, UserDraft]

	src  Source
	opts Options
}

// NewLibraryManager wires one controller per entity type to src.
func NewLibraryManager(src Source, opts Options) *LibraryManager {
	return &LibraryManager{
		Authors: NewAuthorController(src.Authors, opts),
		Books:   NewBookController(src.Books, opts),
		Users:   NewUserController(src.Users, opts),
		src:     src,
		opts:    opts,
	}
}

// NewRESTManager talks to the API at baseURL.
func NewRESTManager(baseURL string, timeout time.Duration, opts Options) (*LibraryManager, error) {
	client, err := NewClient(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return NewLibraryManager(RESTSource(client), opts), nil
}

// NewSandboxManager opens (or creates) the sandbox database at dbPath.
func NewSandboxManager(dbPath string, opts Options) (*LibraryManager, error) {
	sb, err := NewSandbox(dbPath)
	if err != nil {
		return nil, err
	}
	return NewLibraryManager(sb.Source(), opts), nil
}

// Close closes the underlying backends.
func (lm *LibraryManager) Close() error {
	if lm.src.Close == nil {
		return nil
	}
	return lm.src.Close()
}

// LoadAll refreshes every screen and returns the joined failures.
func (lm *LibraryManager) LoadAll(ctx context.Context) error {
	return errors.Join(
		lm.Authors.LoadAll(ctx),
		lm.Books.LoadAll(ctx),
		lm.Users.LoadAll(ctx),
	)
}

// ------------------ Lookups ------------------

// BookFormOptions fetches the author and genre pickers for the book form.
func (lm *LibraryManager) BookFormOptions(ctx context.Context) BookFormOptions {
	return LoadBookFormOptions(ctx, lm.src.Authors, lm.src.Genres, lm.opts)
}

// Genres lists genres sorted by name.
func (lm *LibraryManager) Genres(ctx context.Context) ([]Genre, error) {
	genres, err := lm.src.Genres.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return View(genres, "name", Asc, ""), nil
}

// ------------------ Book helpers ------------------

// AddBookFromFile creates a book whose cover is the image at photoPath
// (relative paths resolve from cwd). An empty photoPath creates it without a cover.
func (lm *LibraryManager) AddBookFromFile(ctx context.Context, draft BookDraft, photoPath string) error {
	var att *Attachment
	if photoPath != "" {
		var err error
		if att, err = LoadAttachment(photoPath); err != nil {
			return err
		}
	}
	lm.Books.BeginCreate()
	lm.Books.SetDraft(draft)
	lm.Books.Attach(att)
	if err := lm.Books.Submit(ctx); err != nil {
		lm.Books.CancelForm()
		return err
	}
	return nil
}
