package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCover(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestImportIntoSandbox(t *testing.T) {
	dir := t.TempDir()
	covers := filepath.Join(dir, "covers")
	if err := os.Mkdir(covers, 0o755); err != nil {
		t.Fatal(err)
	}
	writeCover(t, filepath.Join(covers, "1984.png"))
	writeCover(t, filepath.Join(covers, "animal_farm.png"))
	writeCover(t, filepath.Join(covers, "unknown.png"))
	if err := os.WriteFile(filepath.Join(covers, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	opts := importOptions{dir: covers, sandbox: filepath.Join(dir, "lib.db"), logLevel: "error"}
	if err := runImport(context.Background(), opts, &out); err != nil {
		t.Fatalf("import: %v\n%s", err, out.String())
	}

	got := out.String()
	for _, want := range []string{
		"No metadata found for unknown.png",
		"Successfully imported: 2 books",
		"Errors: 0",
		"Animal Farm",
		"George Orwell",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "notes.txt") {
		t.Fatalf("non-image files should be ignored silently:\n%s", got)
	}
}

func TestImportMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	opts := importOptions{dir: filepath.Join(dir, "nope"), sandbox: filepath.Join(dir, "lib.db"), logLevel: "error"}
	if err := runImport(context.Background(), opts, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected an error for a missing directory")
	}
}
