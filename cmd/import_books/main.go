package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"library-admin/internal/logging"
	"library-admin/library"

	"github.com/spf13/cobra"
)

// bookMetadata maps a cover file name (without extension) to title, author and ISBN.
var bookMetadata = map[string][3]string{
	"1984":                   {"1984", "George Orwell", "9780451524935"},
	"animal_farm":            {"Animal Farm", "George Orwell", "9780451526342"},
	"anne_frank":             {"The Diary of a Young Girl", "Anne Frank", "9780553296983"},
	"art_of_war":             {"The Art of War", "Sun Tzu", "9781590302255"},
	"fellowship_of_the_ring": {"The Fellowship of the Ring", "J.R.R. Tolkien", "9780547928210"},
	"return_of_the_king":     {"The Return of the King", "J.R.R. Tolkien", "9780547928197"},
	"romeo_and_juliet":       {"Romeo and Juliet", "William Shakespeare", "9780743477116"},
	"the_two_towers":         {"The Two Towers", "J.R.R. Tolkien", "9780547928203"},
	"three_musketeers":       {"The Three Musketeers", "Alexandre Dumas", "9780140449266"},
}

type importOptions struct {
	dir      string
	apiURL   string
	sandbox  string
	logLevel string
	timeout  time.Duration
}

func main() {
	var opts importOptions
	cmd := &cobra.Command{
		Use:           "import_books",
		Short:         "Create books with cover photos from a directory of images",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "covers", "directory with <name>.png or <name>.jpg covers")
	cmd.Flags().StringVar(&opts.apiURL, "api", os.Getenv("LIBRARY_API_URL"), "base URL of the library REST API")
	cmd.Flags().StringVar(&opts.sandbox, "sandbox", os.Getenv("LIBRARY_SANDBOX"), "import into a local SQLite sandbox instead")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runImport(ctx context.Context, opts importOptions, out io.Writer) error {
	provider, err := logging.NewProvider(logging.Config{Level: opts.logLevel})
	if err != nil {
		return err
	}
	logger := provider.GetLogger("import_books")
	notices := library.NotifierFunc(func(n library.Notice) {
		if n.Level == library.NoticeError {
			logger.Warn(n.Message)
		}
	})
	libOpts := library.Options{Notifier: notices, Logger: logger}

	var manager *library.LibraryManager
	if opts.sandbox != "" {
		manager, err = library.NewSandboxManager(opts.sandbox, libOpts)
	} else {
		manager, err = library.NewRESTManager(opts.apiURL, opts.timeout, libOpts)
	}
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer manager.Close()

	files, err := os.ReadDir(opts.dir)
	if err != nil {
		return fmt.Errorf("reading covers directory: %w", err)
	}

	if err := manager.Authors.LoadAll(ctx); err != nil {
		return err
	}
	form := manager.BookFormOptions(ctx)
	authorIDs := map[string]string{}
	for _, a := range form.Authors {
		authorIDs[a.Name] = a.ID
	}

	fmt.Fprintf(out, "Importing books from %s directory...\n", opts.dir)
	successCount := 0
	errorCount := 0

	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if file.IsDir() || (ext != ".png" && ext != ".jpg" && ext != ".jpeg") {
			continue
		}
		key := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		metadata, exists := bookMetadata[key]
		if !exists {
			fmt.Fprintf(out, "Warning: No metadata found for %s, skipping\n", file.Name())
			continue
		}
		title, author, isbn := metadata[0], metadata[1], metadata[2]

		fmt.Fprintf(out, "Importing: %s by %s... ", title, author)

		authorID, err := ensureAuthor(ctx, manager, authorIDs, author)
		if err != nil {
			fmt.Fprintf(out, "ERROR - author: %v\n", err)
			errorCount++
			continue
		}

		draft := library.NewBookDraft()
		draft.Name = title
		draft.ISBN = isbn
		draft.AuthorID = authorID
		if err := manager.AddBookFromFile(ctx, draft, filepath.Join(opts.dir, file.Name())); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}

		fmt.Fprintln(out, "SUCCESS")
		successCount++
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Fprintln(out, "\nImported books:")
		books := manager.Books.Records()
		fmt.Fprintf(out, "%-40s %-30s %-15s\n", "Title", "Author", "Genre")
		fmt.Fprintln(out, strings.Repeat("-", 87))
		for _, book := range books {
			fmt.Fprintf(out, "%-40s %-30s %-15s\n", truncateString(book.Name, 40), truncateString(book.AuthorLabel(), 30), book.GenreLabel())
		}
	}
	return nil
}

// ensureAuthor returns the id of the author called name, creating it first
// when the backend does not know it yet.
func ensureAuthor(ctx context.Context, manager *library.LibraryManager, known map[string]string, name string) (string, error) {
	if id, ok := known[name]; ok {
		return id, nil
	}
	manager.Authors.BeginCreate()
	manager.Authors.SetDraft(library.AuthorDraft{Name: name})
	if err := manager.Authors.Submit(ctx); err != nil {
		manager.Authors.CancelForm()
		return "", err
	}
	for _, a := range manager.Authors.Records() {
		if a.Name == name {
			known[name] = a.ID
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("author %q was created but is not listed", name)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
