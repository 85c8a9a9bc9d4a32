package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"library-admin/library"

	"golang.org/x/term"
)

const defaultWidth = 120

// column is one table column. A zero width takes whatever the terminal has left.
type column[T any] struct {
	title string
	width int
	value func(rec T) string
}

// terminalWidth returns the width of w when it is a terminal.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
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

func printTable[T any](w io.Writer, cols []column[T], rows []T) {
	width := terminalWidth(w)
	fixed := 0
	for _, c := range cols {
		if c.width > 0 {
			fixed += c.width + 1
		}
	}
	flex := width - fixed
	if flex < 10 {
		flex = 10
	}

	widths := make([]int, len(cols))
	header := make([]string, len(cols))
	for i, c := range cols {
		widths[i] = c.width
		if widths[i] == 0 {
			widths[i] = flex
		}
		header[i] = pad(c.title, widths[i])
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(header, " "), " "))
	fmt.Fprintln(w, strings.Repeat("-", min(width, fixed+flex)))

	for _, rec := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = pad(truncateString(c.value(rec), widths[i]), widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}
}

func pad(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// photoCell shows the resolved photo URL, or "No image" when the policy has none.
func photoCell(url string, ok bool) string {
	if !ok {
		return "No image"
	}
	if strings.HasPrefix(url, "data:") {
		return "(preview)"
	}
	return url
}

// printListing renders the current page of c followed by a status line.
func printListing[T library.Record, D library.Draft](w io.Writer, c *library.Controller[T, D], cols []column[T]) {
	kind := c.Kind()
	state := c.State()
	if state.Status == library.Loading {
		fmt.Fprintf(w, "Loading %s...\n", kind.Plural)
		return
	}

	all := c.Records()
	page := c.PageRecords()
	if len(all) == 0 {
		if state.View.Filter != "" {
			fmt.Fprintf(w, "No %s match %q.\n", kind.Plural, state.View.Filter)
		} else {
			fmt.Fprintf(w, "No %s found.\n", kind.Plural)
		}
		return
	}

	printTable(w, cols, page)

	v := state.View
	pages := v.PageCount(len(all))
	status := fmt.Sprintf("Page %d of %d, %d %s, sorted by %s %s", v.Page+1, pages, len(all), kind.Plural, v.SortKey, v.Direction)
	if v.Filter != "" {
		status += fmt.Sprintf(", filter %q", v.Filter)
	}
	fmt.Fprintln(w, status)
}

// ------------------ Columns ------------------

func authorColumns(c *library.Controller[library.Author, library.AuthorDraft]) []column[library.Author] {
	return []column[library.Author]{
		{title: "ID", width: 36, value: func(a library.Author) string { return a.ID }},
		{title: "Name", width: 25, value: func(a library.Author) string { return a.Name }},
		{title: "Description", width: 40, value: func(a library.Author) string { return a.Description }},
		{title: "Photo", value: func(a library.Author) string { return photoCell(c.ResolvePhoto(a)) }},
	}
}

func bookColumns(c *library.Controller[library.Book, library.BookDraft]) []column[library.Book] {
	return []column[library.Book]{
		{title: "ID", width: 36, value: func(b library.Book) string { return b.ID }},
		{title: "Name", width: 30, value: func(b library.Book) string { return b.Name }},
		{title: "ISBN", width: 15, value: func(b library.Book) string { return b.ISBN }},
		{title: "Author", width: 20, value: func(b library.Book) string { return b.AuthorLabel() }},
		{title: "Genre", width: 15, value: func(b library.Book) string { return b.GenreLabel() }},
		{title: "Available", width: 9, value: func(b library.Book) string { return yesNo(b.IsAvailable) }},
		{title: "Cover", value: func(b library.Book) string { return photoCell(c.ResolvePhoto(b)) }},
	}
}

func userColumns(c *library.Controller[library.User, library.UserDraft]) []column[library.User] {
	return []column[library.User]{
		{title: "ID", width: 36, value: func(u library.User) string { return u.ID }},
		{title: "Name", width: 25, value: func(u library.User) string { return u.Name }},
		{title: "Email", width: 28, value: func(u library.User) string { return u.Email }},
		{title: "Phone", width: 14, value: func(u library.User) string { return u.Phone }},
		{title: "DOB", width: 10, value: func(u library.User) string { return u.DOB }},
		{title: "Admin", width: 5, value: func(u library.User) string { return yesNo(u.IsAdmin) }},
		{title: "Photo", value: func(u library.User) string { return photoCell(c.ResolvePhoto(u)) }},
	}
}

func genreColumns() []column[library.Genre] {
	return []column[library.Genre]{
		{title: "ID", width: 36, value: func(g library.Genre) string { return g.ID }},
		{title: "Name", value: func(g library.Genre) string { return g.Name }},
	}
}
