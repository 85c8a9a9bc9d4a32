package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-admin/library"

	"golang.org/x/term"
)

var errInputClosed = errors.New("input closed")

// prompter reads form answers line by line from the app input.
type prompter struct {
	sc  *bufio.Scanner
	in  io.Reader
	out io.Writer
}

func (a *app) prompter() *prompter {
	return &prompter{sc: a.scanner(), in: a.in, out: a.out}
}

// scanner returns the one scanner reading a.in, so prompts from different
// commands never split buffered input between them.
func (a *app) scanner() *bufio.Scanner {
	if a.sc == nil {
		a.sc = bufio.NewScanner(a.in)
	}
	return a.sc
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.sc.Scan() {
		return "", errInputClosed
	}
	return strings.TrimSpace(p.sc.Text()), nil
}

// field asks for a text value. Enter keeps current and "-" clears it.
func (p *prompter) field(label, current string) (string, error) {
	prompt := label + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, current)
	}
	v, err := p.line(prompt)
	switch {
	case err != nil:
		return current, err
	case v == "":
		return current, nil
	case v == "-":
		return "", nil
	}
	return v, nil
}

func (p *prompter) flag(label string, current bool) (bool, error) {
	def := "n"
	if current {
		def = "y"
	}
	for {
		v, err := p.line(fmt.Sprintf("%s (y/n) [%s]: ", label, def))
		if err != nil {
			return current, err
		}
		switch strings.ToLower(v) {
		case "":
			return current, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

func (p *prompter) confirm(question string) bool {
	v, err := p.line(question + " [y/N]: ")
	if err != nil {
		return false
	}
	v = strings.ToLower(v)
	return v == "y" || v == "yes"
}

// pick asks for one of the numbered ids until the answer is valid.
func (p *prompter) pick(label, currentLabel, current string, ids []string) (string, error) {
	for {
		v, err := p.line(fmt.Sprintf("%s (number, id, - for none) [%s]: ", label, currentLabel))
		if err != nil {
			return current, err
		}
		id, err := chooseOption(v, current, ids)
		if err == nil {
			return id, nil
		}
		fmt.Fprintf(p.out, "Error: %v\n", err)
	}
}

// password reads a password with masking when input is a terminal.
func (p *prompter) password(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, label)
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(p.out) // Add newline after password input
		return strings.TrimSpace(string(bytePassword)), nil
	}
	return p.line(label)
}

// ------------------ Draft forms ------------------

func promptAuthorDraft(ctx context.Context, a *app, p *prompter, d *library.AuthorDraft) error {
	var err error
	if d.Name, err = p.field("Name", d.Name); err != nil {
		return err
	}
	d.Description, err = p.field("Description", d.Description)
	return err
}

func promptBookDraft(ctx context.Context, a *app, p *prompter, d *library.BookDraft) error {
	var err error
	if d.Name, err = p.field("Name", d.Name); err != nil {
		return err
	}
	if d.ISBN, err = p.field("ISBN", d.ISBN); err != nil {
		return err
	}
	if d.Summary, err = p.field("Summary", d.Summary); err != nil {
		return err
	}
	if d.IsAvailable, err = p.flag("Available", d.IsAvailable); err != nil {
		return err
	}

	opts := a.mgr.BookFormOptions(ctx)

	authorIDs := make([]string, len(opts.Authors))
	for i, au := range opts.Authors {
		authorIDs[i] = au.ID
		fmt.Fprintf(p.out, "  %2d. %s\n", i+1, au.Name)
	}
	label := d.AuthorID
	if au, ok := opts.FindAuthor(d.AuthorID); ok {
		label = au.Name
	}
	if d.AuthorID, err = p.pick("Author", label, d.AuthorID, authorIDs); err != nil {
		return err
	}

	genreIDs := make([]string, len(opts.Genres))
	for i, g := range opts.Genres {
		genreIDs[i] = g.ID
		fmt.Fprintf(p.out, "  %2d. %s\n", i+1, g.Name)
	}
	label = d.GenreID
	if g, ok := opts.FindGenre(d.GenreID); ok {
		label = g.Name
	}
	d.GenreID, err = p.pick("Genre", label, d.GenreID, genreIDs)
	return err
}

func promptUserDraft(ctx context.Context, a *app, p *prompter, d *library.UserDraft) error {
	var err error
	if d.Name, err = p.field("Name", d.Name); err != nil {
		return err
	}
	if d.DOB, err = p.field("Date of birth (YYYY-MM-DD)", d.DOB); err != nil {
		return err
	}
	if d.Email, err = p.field("Email", d.Email); err != nil {
		return err
	}
	if d.Phone, err = p.field("Phone", d.Phone); err != nil {
		return err
	}
	if d.IsAdmin, err = p.flag("Admin", d.IsAdmin); err != nil {
		return err
	}
	d.Password, err = p.password("Password (leave blank to keep): ")
	return err
}

// ------------------ Screens ------------------

// controls is the part of a controller the shell drives without knowing
// the record type.
type controls interface {
	Kind() library.Kind
	LoadAll(ctx context.Context) error
	State() library.ScreenState
	SetPage(page int)
	SetRowsPerPage(n int)
	RequestSort(key string)
	SetFilter(filter string)
	OpenMenu(id string)
	CloseMenu()
	OpenConfirm() error
	CancelConfirm()
	BeginCreate()
	BeginEdit(id string) error
	CanSubmit() error
	CancelForm()
	Attach(a *library.Attachment)
	Submit(ctx context.Context) error
	Remove(ctx context.Context, id string) error
}

type screen struct {
	controls
	list      func()
	fill      func(ctx context.Context) error
	nameOf    func(id string) (string, bool)
	formPic   func() string
	pageCount func() int
}

func newScreen[T library.Record, D library.Draft](a *app, r resource[T, D], p *prompter) *screen {
	c := r.ctrl(a.mgr)
	return &screen{
		controls: c,
		list:     func() { printListing(a.out, c, r.columns(c)) },
		fill: func(ctx context.Context) error {
			d := c.Draft()
			if err := r.prompt(ctx, a, p, &d); err != nil {
				return err
			}
			c.SetDraft(d)
			return nil
		},
		nameOf: func(id string) (string, bool) {
			rec, ok := c.Find(id)
			if !ok {
				return "", false
			}
			return rec.DisplayName(), true
		},
		formPic: func() string { return photoCell(c.FormPhoto()) },
		pageCount: func() int {
			return c.State().View.PageCount(len(c.Records()))
		},
	}
}

func printShellHelp(out io.Writer) {
	fmt.Fprintln(out, "Available commands:")
	fmt.Fprintln(out, "  Screens: authors, books, users, genres")
	fmt.Fprintln(out, "  Listing: list, refresh, next, prev, page N, rows N, sort FIELD, filter [TEXT]")
	fmt.Fprintln(out, "  Records: add, open ID, edit ID, delete ID")
	fmt.Fprintln(out, "  System: help, exit")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Tips:")
	fmt.Fprintln(out, "  • 'sort FIELD' twice flips the direction")
	fmt.Fprintln(out, "  • In forms press Enter to keep a value, '-' to clear it")
}

func runShell(ctx context.Context, a *app) error {
	p := a.prompter()
	screens := map[string]*screen{
		"authors": newScreen(a, authorsResource, p),
		"books":   newScreen(a, booksResource, p),
		"users":   newScreen(a, usersResource, p),
	}
	current := screens["authors"]

	fmt.Fprintln(a.out, "Welcome to the Library Admin Console!")
	printShellHelp(a.out)
	if err := current.LoadAll(ctx); err == nil {
		current.list()
	}

	for {
		cmd, err := p.line(fmt.Sprintf("\n%s> ", current.Kind().Plural))
		if err != nil {
			return nil
		}
		verb, arg, _ := strings.Cut(cmd, " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "":
		case "authors", "books", "users":
			current = screens[verb]
			if err := current.LoadAll(ctx); err == nil {
				current.list()
			}
		case "genres":
			handleGenres(ctx, a)
		case "list":
			current.list()
		case "refresh":
			if err := current.LoadAll(ctx); err == nil {
				current.list()
			}
		case "next":
			page := current.State().View.Page
			if page+1 < current.pageCount() {
				current.SetPage(page + 1)
			}
			current.list()
		case "prev":
			current.SetPage(current.State().View.Page - 1)
			current.list()
		case "page":
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				fmt.Fprintf(a.out, "Invalid page: %s\n", arg)
				continue
			}
			current.SetPage(n - 1)
			current.list()
		case "rows":
			n, err := strconv.Atoi(arg)
			if err != nil || n < 1 {
				fmt.Fprintf(a.out, "Invalid rows per page: %s (try %v)\n", arg, library.RowsPerPageOptions)
				continue
			}
			current.SetRowsPerPage(n)
			current.list()
		case "sort":
			if arg == "" {
				fmt.Fprintln(a.out, "Usage: sort FIELD")
				continue
			}
			current.RequestSort(arg)
			current.list()
		case "filter":
			current.SetFilter(arg)
			current.list()
		case "add":
			current.BeginCreate()
			handleForm(ctx, a, p, current)
		case "edit":
			handleEdit(ctx, a, p, current, arg)
		case "open":
			handleMenu(ctx, a, p, current, arg)
		case "delete":
			if openMenu(a, current, arg) {
				handleDelete(ctx, a, p, current, arg)
			}
		case "help":
			printShellHelp(a.out)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(a.out, "Unknown command. Type 'help' to see the available commands.")
		}
	}
}

func handleGenres(ctx context.Context, a *app) {
	genres, err := a.mgr.Genres(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	if len(genres) == 0 {
		fmt.Fprintln(a.out, "No genres found.")
		return
	}
	printTable(a.out, genreColumns(), genres)
}

// openMenu selects id, reporting ids that are not on the screen.
func openMenu(a *app, s *screen, id string) bool {
	if id == "" {
		fmt.Fprintln(a.out, "Usage: open ID")
		return false
	}
	if _, ok := s.nameOf(id); !ok {
		fmt.Fprintf(a.out, "No %s with ID %s\n", s.Kind().Route, id)
		return false
	}
	s.OpenMenu(id)
	return true
}

func handleMenu(ctx context.Context, a *app, p *prompter, s *screen, id string) {
	if !openMenu(a, s, id) {
		return
	}
	name, _ := s.nameOf(id)
	fmt.Fprintf(a.out, "%s %q: [e]dit, [d]elete, [c]lose\n", s.Kind().Label, name)
	choice, err := p.line("> ")
	if err != nil {
		s.CloseMenu()
		return
	}
	switch strings.ToLower(choice) {
	case "e", "edit":
		handleEdit(ctx, a, p, s, id)
	case "d", "delete":
		handleDelete(ctx, a, p, s, id)
	default:
		s.CloseMenu()
	}
}

func handleEdit(ctx context.Context, a *app, p *prompter, s *screen, id string) {
	if id == "" {
		fmt.Fprintln(a.out, "Usage: edit ID")
		return
	}
	if err := s.BeginEdit(id); err != nil {
		fmt.Fprintf(a.out, "No %s with ID %s\n", s.Kind().Route, id)
		return
	}
	handleForm(ctx, a, p, s)
}

// handleForm runs the open form until it is submitted or cancelled. A failed
// submit keeps the draft so the user can retry.
func handleForm(ctx context.Context, a *app, p *prompter, s *screen) {
	mode := "New"
	if s.State().Mode == library.EditMode {
		mode = "Edit"
	}
	fmt.Fprintf(a.out, "%s %s\n", mode, strings.ToLower(s.Kind().Label))

	for {
		if err := s.fill(ctx); err != nil {
			s.CancelForm()
			return
		}
		path, err := p.line("Photo path (optional): ")
		if err != nil {
			s.CancelForm()
			return
		}
		if path != "" {
			att, err := library.LoadAttachment(path)
			if err != nil {
				fmt.Fprintf(a.out, "Photo error: %v. Keeping the current photo.\n", err)
			} else {
				s.Attach(att)
			}
		}
		fmt.Fprintf(a.out, "Photo: %s\n", s.formPic())

		if err := s.CanSubmit(); err != nil {
			fmt.Fprintf(a.out, "Cannot save yet: %v\n", err)
			if p.confirm("Keep editing?") {
				continue
			}
			s.CancelForm()
			return
		}
		if err := s.Submit(ctx); err != nil {
			if p.confirm("Try again?") {
				continue
			}
			s.CancelForm()
			return
		}
		s.list()
		return
	}
}

func handleDelete(ctx context.Context, a *app, p *prompter, s *screen, id string) {
	if err := s.OpenConfirm(); err != nil {
		fmt.Fprintf(a.out, "Error: %v\n", err)
		return
	}
	name, _ := s.nameOf(id)
	for {
		if !p.confirm(fmt.Sprintf("Delete %s %q?", strings.ToLower(s.Kind().Label), name)) {
			s.CancelConfirm()
			s.CloseMenu()
			fmt.Fprintln(a.out, "Cancelled.")
			return
		}
		if err := s.Remove(ctx, id); err == nil {
			s.list()
			return
		}
	}
}
