package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(context.Background(), strings.NewReader(input), &out, args)
	return out.String(), err
}

func TestScriptedAuthorLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")

	out, err := run(t, "", "--sandbox", db, "authors", "add", "--name", "Jane Austen", "--description", "Novelist")
	if err != nil {
		t.Fatalf("add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Author added") {
		t.Fatalf("missing success notice:\n%s", out)
	}

	out, err = run(t, "", "--sandbox", db, "authors", "list", "--filter", "jane")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "Jane Austen") || !strings.Contains(out, "Novelist") {
		t.Fatalf("listing should show the author:\n%s", out)
	}

	out, err = run(t, "", "--sandbox", db, "authors", "list", "--filter", "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, `No authors match "nobody"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestScriptedAddRejectsMissingFields(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")
	if _, err := run(t, "", "--sandbox", db, "books", "add", "--name", "No ISBN"); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestScriptedDeleteCanBeCancelled(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")
	if _, err := run(t, "", "--sandbox", db, "users", "add", "--name", "Joe", "--password", "pw"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := run(t, "", "--sandbox", db, "users", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	id := strings.Fields(strings.Split(out, "\n")[2])[0]

	out, err = run(t, "n\n", "--sandbox", db, "users", "delete", id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "Cancelled.") {
		t.Fatalf("expected cancellation:\n%s", out)
	}

	out, err = run(t, "", "--sandbox", db, "users", "delete", "--yes", id)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, "User deleted") {
		t.Fatalf("expected delete notice:\n%s", out)
	}

	if _, err := run(t, "", "--sandbox", db, "users", "delete", "--yes", id); err == nil {
		t.Fatalf("deleting a missing user should fail")
	}
}

func TestShellCreatesAuthor(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")
	input := strings.Join([]string{
		"add",
		"Mark Twain", // name
		"Humorist",   // description
		"",           // photo
		"sort name",
		"filter twain",
		"exit",
	}, "\n") + "\n"

	out, err := run(t, input, "--sandbox", db)
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	for _, want := range []string{"New author", "Author added", "Mark Twain", "sorted by name desc", "Goodbye!"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestShellDeletesRecordHiddenByFilter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")
	if _, err := run(t, "", "--sandbox", db, "authors", "add", "--name", "Jane Austen"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := run(t, "", "--sandbox", db, "authors", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	id := strings.Fields(strings.Split(out, "\n")[2])[0]

	input := strings.Join([]string{"filter nobody", "delete " + id, "y", "exit"}, "\n") + "\n"
	out, err = run(t, input, "--sandbox", db)
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if !strings.Contains(out, "Author deleted") {
		t.Fatalf("expected delete notice:\n%s", out)
	}
}

func TestShellGenres(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lib.db")
	out, err := run(t, "genres\nexit\n", "--sandbox", db)
	if err != nil {
		t.Fatalf("shell: %v", err)
	}
	if !strings.Contains(out, "Fantasy") {
		t.Fatalf("expected seeded genres:\n%s", out)
	}
}

func TestChooseOption(t *testing.T) {
	ids := []string{"a1", "a2"}
	tests := []struct {
		input, current, want string
		wantErr              bool
	}{
		{"", "a1", "a1", false},
		{"-", "a1", "", false},
		{"2", "", "a2", false},
		{"a1", "", "a1", false},
		{"3", "", "", true},
		{"zz", "", "", true},
	}
	for _, tt := range tests {
		got, err := chooseOption(tt.input, tt.current, ids)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("chooseOption(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("hello world", 8); got != "hello..." {
		t.Fatalf("got %q", got)
	}
	if got := truncateString("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncateString("héllo", 2); got != "hé" {
		t.Fatalf("got %q", got)
	}
}
