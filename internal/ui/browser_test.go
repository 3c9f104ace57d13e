package ui

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestEmbeddedBrowserFileSelectionReturnsMessage(t *testing.T) {
	restore := chdirTemp(t, map[string]string{
		"take1.mov": "data",
		"notes.txt": "data",
		"Beep.wav":  "data",
	})
	defer restore()

	m := NewEmbeddedBrowser()
	if n := len(m.list.Items()); n != 2 {
		t.Fatalf("expected 2 supported files, got %d", n)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected selection command")
	}

	msg := cmd()
	selected, ok := msg.(BrowserSelectedMsg)
	if !ok {
		t.Fatalf("expected BrowserSelectedMsg, got %T", msg)
	}
	if !slices.Equal(selected.Paths, []string{"Beep.wav"}) {
		t.Fatalf("expected Beep.wav first, got %v", selected.Paths)
	}
}

func TestEmbeddedBrowserAnalyzeAll(t *testing.T) {
	restore := chdirTemp(t, map[string]string{
		"a.mp4": "data",
		"b.mkv": "data",
	})
	defer restore()

	m := NewEmbeddedBrowser()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if cmd == nil {
		t.Fatal("expected selection command")
	}
	selected, ok := cmd().(BrowserSelectedMsg)
	if !ok {
		t.Fatalf("expected BrowserSelectedMsg, got %T", cmd())
	}
	if !slices.Equal(selected.Paths, []string{"a.mp4", "b.mkv"}) {
		t.Fatalf("expected both files, got %v", selected.Paths)
	}
}

func TestEmbeddedBrowserCancelReturnsMessage(t *testing.T) {
	restore := chdirTemp(t, map[string]string{})
	defer restore()

	m := NewEmbeddedBrowser()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected cancel command")
	}

	if _, ok := cmd().(BrowserCancelledMsg); !ok {
		t.Fatalf("expected BrowserCancelledMsg, got %T", cmd())
	}
}

func TestStandaloneBrowserSelectionStoresResult(t *testing.T) {
	restore := chdirTemp(t, map[string]string{
		"take1.mov": "data",
	})
	defer restore()

	m := NewBrowser()

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(BrowserModel)

	result := m.Result()
	if result.Cancelled || !slices.Equal(result.Paths, []string{"take1.mov"}) {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestBrowserDescribesKinds(t *testing.T) {
	tests := []struct {
		item fileItem
		want string
	}{
		{fileItem{name: "clip", ext: ".MOV"}, ".MOV  video"},
		{fileItem{name: "take", ext: ".pcm"}, ".pcm  raw pcm"},
		{fileItem{name: "song", ext: ".m4a"}, ".m4a  audio"},
	}
	for _, tt := range tests {
		if got := tt.item.Description(); got != tt.want {
			t.Fatalf("Description(%s) = %q, want %q", tt.item.path(), got, tt.want)
		}
	}
}

func chdirTemp(t *testing.T, files map[string]string) func() {
	t.Helper()

	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	dir := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir temp dir: %v", err)
	}

	return func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatalf("restore cwd: %v", err)
		}
	}
}
