package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage failed: %v", err)
	}

	content := []byte("%PDF-1.4 test document")

	t.Run("save open delete round trip", func(t *testing.T) {
		path, err := store.Save(ctx, "applications/APP-202508-1234", "passport.pdf", bytes.NewReader(content))
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if !strings.HasPrefix(path, "applications/APP-202508-1234/") {
			t.Errorf("Expected path under the application subdir, got %q", path)
		}
		if !strings.HasSuffix(path, ".pdf") {
			t.Errorf("Stored name should keep the extension, got %q", path)
		}

		reader, err := store.Open(ctx, path)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !bytes.Equal(data, content) {
			t.Error("Read bytes do not match the saved content")
		}

		if err := store.Delete(ctx, path); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Open(ctx, path); err == nil {
			t.Error("Open should fail after delete")
		}
	})

	t.Run("same file name never collides", func(t *testing.T) {
		first, err := store.Save(ctx, "applications/APP-202508-1234", "passport.pdf", bytes.NewReader(content))
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		second, err := store.Save(ctx, "applications/APP-202508-1234", "passport.pdf", bytes.NewReader(content))
		if err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if first == second {
			t.Error("Two saves of the same name should get distinct paths")
		}
	})

	t.Run("deleting a missing file is not an error", func(t *testing.T) {
		if err := store.Delete(ctx, "applications/none/missing.pdf"); err != nil {
			t.Errorf("Delete of a missing file failed: %v", err)
		}
	})

	t.Run("path traversal is rejected", func(t *testing.T) {
		if _, err := store.Save(ctx, "../outside", "escape.pdf", bytes.NewReader(content)); err == nil {
			t.Error("Save outside the root should fail")
		}
		if _, err := store.Open(ctx, "../../etc/passwd"); err == nil {
			t.Error("Open outside the root should fail")
		}
		if err := store.Delete(ctx, "../elsewhere/file.pdf"); err == nil {
			t.Error("Delete outside the root should fail")
		}
		if _, err := store.Open(ctx, "/etc/passwd"); err == nil {
			t.Error("Absolute paths should fail")
		}
	})
}
