package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"library-admin/library"

	"github.com/spf13/cobra"
)

// resource ties one entity type to its controller, table and form inputs.
type resource[T library.Record, D library.Draft] struct {
	use     string
	short   string
	ctrl    func(*library.LibraryManager) *library.Controller[T, D]
	columns func(*library.Controller[T, D]) []column[T]
	// flags registers the draft flags of add and edit; apply copies the
	// ones the user set onto d.
	flags func(cmd *cobra.Command)
	apply func(a *app, cmd *cobra.Command, d *D) error
	// prompt fills d interactively in the shell.
	prompt func(ctx context.Context, a *app, p *prompter, d *D) error
}

var authorsResource = resource[library.Author, library.AuthorDraft]{
	use:     "authors",
	short:   "List, add, edit and delete authors",
	ctrl:    func(m *library.LibraryManager) *library.Controller[library.Author, library.AuthorDraft] { return m.Authors },
	columns: authorColumns,
	flags: func(cmd *cobra.Command) {
		cmd.Flags().String("name", "", "author name")
		cmd.Flags().String("description", "", "short biography")
	},
	apply: func(a *app, cmd *cobra.Command, d *library.AuthorDraft) error {
		fs := cmd.Flags()
		if fs.Changed("name") {
			d.Name, _ = fs.GetString("name")
		}
		if fs.Changed("description") {
			d.Description, _ = fs.GetString("description")
		}
		return nil
	},
	prompt: promptAuthorDraft,
}

var booksResource = resource[library.Book, library.BookDraft]{
	use:     "books",
	short:   "List, add, edit and delete books",
	ctrl:    func(m *library.LibraryManager) *library.Controller[library.Book, library.BookDraft] { return m.Books },
	columns: bookColumns,
	flags: func(cmd *cobra.Command) {
		cmd.Flags().String("name", "", "book title")
		cmd.Flags().String("isbn", "", "ISBN")
		cmd.Flags().String("summary", "", "summary")
		cmd.Flags().Bool("available", true, "whether the book can be borrowed")
		cmd.Flags().String("author-id", "", "author id")
		cmd.Flags().String("genre-id", "", "genre id")
	},
	apply: func(a *app, cmd *cobra.Command, d *library.BookDraft) error {
		fs := cmd.Flags()
		if fs.Changed("name") {
			d.Name, _ = fs.GetString("name")
		}
		if fs.Changed("isbn") {
			d.ISBN, _ = fs.GetString("isbn")
		}
		if fs.Changed("summary") {
			d.Summary, _ = fs.GetString("summary")
		}
		if fs.Changed("available") {
			d.IsAvailable, _ = fs.GetBool("available")
		}
		if fs.Changed("author-id") {
			d.AuthorID, _ = fs.GetString("author-id")
		}
		if fs.Changed("genre-id") {
			d.GenreID, _ = fs.GetString("genre-id")
		}
		return nil
	},
	prompt: promptBookDraft,
}

var usersResource = resource[library.User, library.UserDraft]{
	use:     "users",
	short:   "List, add, edit and delete users",
	ctrl:    func(m *library.LibraryManager) *library.Controller[library.User, library.UserDraft] { return m.Users },
	columns: userColumns,
	flags: func(cmd *cobra.Command) {
		cmd.Flags().String("name", "", "full name")
		cmd.Flags().String("dob", "", "date of birth (YYYY-MM-DD)")
		cmd.Flags().String("email", "", "email address")
		cmd.Flags().String("phone", "", "phone number")
		cmd.Flags().Bool("admin", false, "grant admin rights")
		cmd.Flags().String("password", "", "set the password")
		cmd.Flags().Bool("ask-password", false, "prompt for the password without echo")
	},
	apply: func(a *app, cmd *cobra.Command, d *library.UserDraft) error {
		fs := cmd.Flags()
		if fs.Changed("name") {
			d.Name, _ = fs.GetString("name")
		}
		if fs.Changed("dob") {
			d.DOB, _ = fs.GetString("dob")
		}
		if fs.Changed("email") {
			d.Email, _ = fs.GetString("email")
		}
		if fs.Changed("phone") {
			d.Phone, _ = fs.GetString("phone")
		}
		if fs.Changed("admin") {
			d.IsAdmin, _ = fs.GetBool("admin")
		}
		if fs.Changed("password") {
			d.Password, _ = fs.GetString("password")
		}
		if ask, _ := fs.GetBool("ask-password"); ask {
			pw, err := a.prompter().password("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			d.Password = pw
		}
		return nil
	},
	prompt: promptUserDraft,
}

func newResourceCmd[T library.Record, D library.Draft](a *app, r resource[T, D]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   r.use,
		Short: r.short,
	}
	cmd.AddCommand(
		newListCmd(a, r),
		newAddCmd(a, r),
		newEditCmd(a, r),
		newDeleteCmd(a, r),
	)
	return cmd
}

func newListCmd[T library.Record, D library.Draft](a *app, r resource[T, D]) *cobra.Command {
	var (
		filter string
		sortBy string
		order  string
		page   int
		rows   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records sorted, filtered and paginated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := r.ctrl(a.mgr)
			if err := c.LoadAll(cmd.Context()); err != nil {
				return err
			}
			if sortBy != "" {
				dir, err := library.ParseDirection(order)
				if err != nil {
					return err
				}
				c.SetSort(sortBy, dir)
			}
			c.SetRowsPerPage(rows)
			c.SetFilter(filter)
			c.SetPage(page - 1)
			printListing(a.out, c, r.columns(c))
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only show records whose name contains this text")
	cmd.Flags().StringVar(&sortBy, "sort", "", "field to sort by (default name)")
	cmd.Flags().StringVar(&order, "order", "asc", "sort direction, asc or desc")
	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	cmd.Flags().IntVar(&rows, "rows", library.DefaultRowsPerPage, fmt.Sprintf("rows per page %v", library.RowsPerPageOptions))
	return cmd
}

func newAddCmd[T library.Record, D library.Draft](a *app, r resource[T, D]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := r.ctrl(a.mgr)
			c.BeginCreate()
			return submitFromFlags(a, cmd, r, c)
		},
	}
	r.flags(cmd)
	cmd.Flags().String("photo", "", "path to a jpeg or png photo")
	return cmd
}

func newEditCmd[T library.Record, D library.Draft](a *app, r resource[T, D]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Update a record; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := r.ctrl(a.mgr)
			if err := c.LoadAll(cmd.Context()); err != nil {
				return err
			}
			if err := c.BeginEdit(args[0]); err != nil {
				return err
			}
			return submitFromFlags(a, cmd, r, c)
		},
	}
	r.flags(cmd)
	cmd.Flags().String("photo", "", "path to a new jpeg or png photo")
	return cmd
}

func submitFromFlags[T library.Record, D library.Draft](a *app, cmd *cobra.Command, r resource[T, D], c *library.Controller[T, D]) error {
	d := c.Draft()
	if err := r.apply(a, cmd, &d); err != nil {
		c.CancelForm()
		return err
	}
	c.SetDraft(d)
	if path, _ := cmd.Flags().GetString("photo"); path != "" {
		att, err := library.LoadAttachment(path)
		if err != nil {
			c.CancelForm()
			return err
		}
		c.Attach(att)
	}
	if err := c.Submit(cmd.Context()); err != nil {
		c.CancelForm()
		return err
	}
	return nil
}

func newDeleteCmd[T library.Record, D library.Draft](a *app, r resource[T, D]) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a record after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := r.ctrl(a.mgr)
			if err := c.LoadAll(cmd.Context()); err != nil {
				return err
			}
			c.OpenMenu(args[0])
			rec, ok := c.Selected()
			if !ok {
				c.CloseMenu()
				return fmt.Errorf("%s %s not found", c.Kind().Route, args[0])
			}
			if err := c.OpenConfirm(); err != nil {
				return err
			}
			if !yes && !a.prompter().confirm(fmt.Sprintf("Delete %s %q?", c.Kind().Route, rec.DisplayName())) {
				c.CancelConfirm()
				c.CloseMenu()
				fmt.Fprintln(a.out, "Cancelled.")
				return nil
			}
			return c.Remove(cmd.Context(), "")
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newGenresCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genres",
		Short: "Show the genres offered by the book form",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List genres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			genres, err := a.mgr.Genres(cmd.Context())
			if err != nil {
				return err
			}
			if len(genres) == 0 {
				fmt.Fprintln(a.out, "No genres found.")
				return nil
			}
			printTable(a.out, genreColumns(), genres)
			return nil
		},
	})
	return cmd
}

// chooseOption resolves input against a numbered list of options: a 1-based
// index or an id. Empty input keeps current; "-" clears it.
func chooseOption(input, current string, ids []string) (string, error) {
	input = strings.TrimSpace(input)
	switch input {
	case "":
		return current, nil
	case "-":
		return "", nil
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(ids) {
			return "", fmt.Errorf("choose a number between 1 and %d", len(ids))
		}
		return ids[n-1], nil
	}
	for _, id := range ids {
		if id == input {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown option %q", input)
}
