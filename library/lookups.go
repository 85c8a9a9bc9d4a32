package library

import (
	"context"

	"library-admin/internal/logging"
)

// BookFormOptions are the author and genre choices offered by the book form.
type BookFormOptions struct {
	Authors []Author
	Genres  []Genre
}

// LoadBookFormOptions fetches the pickers for the book form. Each list that
// fails to load is reported on its own and left empty; the form stays usable.
func LoadBookFormOptions(ctx context.Context, authors Backend[Author], genres Backend[Genre], opts Options) BookFormOptions {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = discardNotifier{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	out := BookFormOptions{Authors: []Author{}, Genres: []Genre{}}
	if list, err := authors.GetAll(ctx); err != nil {
		logger.Error("fetch authors for book form", "error", err)
		notifier.Notify(Notice{Level: NoticeError, Message: "Error fetching authors"})
	} else if list != nil {
		out.Authors = View(list, "name", Asc, "")
	}
	if list, err := genres.GetAll(ctx); err != nil {
		logger.Error("fetch genres for book form", "error", err)
		notifier.Notify(Notice{Level: NoticeError, Message: "Error fetching genres"})
	} else if list != nil {
		out.Genres = View(list, "name", Asc, "")
	}
	return out
}

// FindAuthor looks up an author option by id.
func (o BookFormOptions) FindAuthor(id string) (Author, bool) {
	for _, a := range o.Authors {
		if a.ID == id {
			return a, true
		}
	}
	return Author{}, false
}

// FindGenre looks up a genre option by id.
func (o BookFormOptions) FindGenre(id string) (Genre, bool) {
	for _, g := range o.Genres {
		if g.ID == id {
			return g, true
		}
	}
	return Genre{}, false
}
