package msgcat

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedLabels(t *testing.T) {
	l := NewLabels(Default())
	if got := l.PositionAfter("1.e4"); got != "Position after 1.e4" {
		t.Fatalf("PositionAfter: %q", got)
	}
	if got := l.For("1.e4", true); got != "Initial position" {
		t.Fatalf("For initial: %q", got)
	}
	if got := l.Clickable(); got != "Moves are clickable" {
		t.Fatalf("Clickable: %q", got)
	}
}

func TestNilCatalogFallsBack(t *testing.T) {
	var l Labels
	if got := l.PositionAfter("3...a6"); got != "Position after 3...a6" {
		t.Fatalf("fallback: %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("label:\n  clickable: \"Click a move\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := NewLabels(c).Clickable(); got != "Click a move" {
		t.Fatalf("override not applied: %q", got)
	}
	// untouched keys keep the embedded text
	if got := NewLabels(c).Initial(); got != "Initial position" {
		t.Fatalf("Initial: %q", got)
	}
}

func TestOverrideDuplicateKey(t *testing.T) {
	dir := t.TempDir()
	body := []byte("label:\n  clickable: x\n")
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), body, 0o644)
	_ = os.WriteFile(filepath.Join(dir, "b.yml"), body, 0o644)
	if _, err := New(dir); err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestRenderMissingField(t *testing.T) {
	c := Default()
	if _, err := c.Render("label.position_after", map[string]any{}); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := c.Render("nope", nil); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestFlattenRejectsNonStringLeaves(t *testing.T) {
	if _, err := flatten([]byte("label:\n  clickable: 3\n")); err == nil || !strings.Contains(err.Error(), "label.clickable") {
		t.Fatalf("expected error naming the key, got %v", err)
	}
	msgs, err := flatten([]byte("a:\n  b: \"x\"\n  c: ~\n  d: \"  \"\n"))
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(msgs) != 1 || msgs["a.b"] != "x" {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestOverrideWithBadTemplate(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("label:\n  clickable: \"{{.Oops\"\n"), 0o644)
	if _, err := New(dir); err == nil {
		t.Fatalf("expected template parse error")
	}
}
