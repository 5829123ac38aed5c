package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ryanlewis/figpad"
)

func newTestModel(t *testing.T, font figpad.FontID, text string) (tuiModel, *bytes.Buffer) {
	t.Helper()
	a := newTestApp(t)
	loader, err := a.newLoader()
	if err != nil {
		t.Fatal(err)
	}
	clip := &bytes.Buffer{}
	m := newTUIModel(context.Background(), loader, tuiConfig{
		font:   font,
		text:   text,
		logger: a.logger,
		clip:   clip,
	})
	return m, clip
}

// settle runs the next posted load continuation through Update.
func settle(t *testing.T, m tuiModel) tuiModel {
	t.Helper()
	msgs := make(chan tea.Msg, 1)
	go func() { msgs <- m.waitForContinuation()() }()
	select {
	case msg := <-msgs:
		return update(t, m, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no load continuation posted")
	}
	return m
}

func update(t *testing.T, m tuiModel, msg tea.Msg) tuiModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(tuiModel)
}

func typeText(t *testing.T, m tuiModel, s string) tuiModel {
	t.Helper()
	for _, r := range s {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		if r == ' ' {
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{r}}
		}
		m = update(t, m, msg)
	}
	return m
}

func output(m tuiModel) string {
	out, _, _ := m.screen.snapshot()
	return out
}

func TestTUILoadsThenRenders(t *testing.T) {
	m, _ := newTestModel(t, "ascii_small", "Hi")
	if _, st, _ := m.screen.snapshot(); st.State != figpad.Loading || !st.SelectionLocked {
		t.Fatalf("status = %+v, want loading", st)
	}
	if output(m) != "" {
		t.Fatal("rendered before the font loaded")
	}

	m = settle(t, m)
	if want := bundledRender(t, "ascii_small", "Hi", 0); output(m) != want {
		t.Errorf("output =\n%s\nwant\n%s", output(m), want)
	}
	if _, st, _ := m.screen.snapshot(); st.Notice != "Loaded ascii_small" {
		t.Errorf("notice = %q", st.Notice)
	}
	if !strings.Contains(m.View(), "ascii_small") {
		t.Error("view does not name the font")
	}
}

func TestTUIEditing(t *testing.T) {
	m, _ := newTestModel(t, "solid_box_small", "")
	m = settle(t, m)

	m = typeText(t, m, "ab c")
	if want := bundledRender(t, "solid_box_small", "ab c", 0); output(m) != want {
		t.Errorf("after typing:\n%s\nwant\n%s", output(m), want)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.input.Value(); got != "ab" {
		t.Errorf("text = %q, want ab", got)
	}
	if want := bundledRender(t, "solid_box_small", "ab", 0); output(m) != want {
		t.Errorf("after backspace:\n%s\nwant\n%s", output(m), want)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	if got := m.input.Value(); got != "" || output(m) != bundledRender(t, "solid_box_small", "", 0) {
		t.Errorf("ctrl+u left %q", got)
	}
}

func TestTUICursorEditing(t *testing.T) {
	m, _ := newTestModel(t, "ascii_small", "")
	m = settle(t, m)

	tests := []struct {
		name string
		keys []tea.KeyMsg
		want string
	}{
		{
			name: "insert before last character",
			keys: []tea.KeyMsg{{Type: tea.KeyLeft}, {Type: tea.KeyRunes, Runes: []rune("X")}},
			want: "HELLXO",
		},
		{
			name: "delete under cursor",
			keys: []tea.KeyMsg{{Type: tea.KeyDelete}},
			want: "HELLX",
		},
		{
			name: "new line",
			keys: []tea.KeyMsg{{Type: tea.KeyEnter}, {Type: tea.KeyRunes, Runes: []rune("Y")}},
			want: "HELLX\nY",
		},
	}

	m = typeText(t, m, "HELLO")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.keys {
				m = update(t, m, k)
			}
			if got := m.input.Value(); got != tt.want {
				t.Fatalf("text = %q, want %q", got, tt.want)
			}
			if got := m.ctrl.State().Text; got != tt.want {
				t.Errorf("session text = %q, want %q", got, tt.want)
			}
			if want := bundledRender(t, "ascii_small", tt.want, 0); output(m) != want {
				t.Errorf("output =\n%s\nwant\n%s", output(m), want)
			}
		})
	}
}

func TestTUIAppKeysBypassEditor(t *testing.T) {
	m, _ := newTestModel(t, "ascii_small", "keep")
	m = settle(t, m)

	for _, k := range []tea.KeyMsg{{Type: tea.KeyCtrlA}, {Type: tea.KeyCtrlY}, {Type: tea.KeyTab}} {
		m = update(t, m, k)
	}
	if got := m.input.Value(); got != "keep" {
		t.Errorf("text = %q, want keep", got)
	}
	if !m.autoWidth {
		t.Error("ctrl+a did not toggle auto width")
	}
}

func TestTUISwitchFont(t *testing.T) {
	m, _ := newTestModel(t, "ascii_small", "ok")
	m = settle(t, m)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.fonts[m.cursor]; got != "ascii_big" {
		t.Fatalf("tab selected %s, want ascii_big", got)
	}
	m = settle(t, m)
	if want := bundledRender(t, "ascii_big", "ok", 0); output(m) != want {
		t.Errorf("output =\n%s\nwant\n%s", output(m), want)
	}

	// wraps around backwards, and a loaded font renders at once
	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := m.fonts[m.cursor]; got != "braille_dots" {
		t.Fatalf("shift+tab selected %s, want braille_dots", got)
	}
	m = settle(t, m)
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if want := bundledRender(t, "ascii_small", "ok", 0); output(m) != want {
		t.Errorf("cached font output =\n%s\nwant\n%s", output(m), want)
	}
}

func TestTUIAutoWidth(t *testing.T) {
	m, _ := newTestModel(t, "ascii_small", "wrap these words")
	m = settle(t, m)

	m = update(t, m, tea.WindowSizeMsg{Width: 24, Height: 20})
	if m.ctrl.State().Width != 0 {
		t.Fatal("resize without auto width changed the width")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if got := m.ctrl.State().Width; got != 24-bannerPadding {
		t.Fatalf("width = %d, want %d", got, 24-bannerPadding)
	}
	if want := bundledRender(t, "ascii_small", "wrap these words", 24-bannerPadding); output(m) != want {
		t.Errorf("output =\n%s\nwant\n%s", output(m), want)
	}

	m = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 20})
	if got := m.ctrl.State().Width; got != 40-bannerPadding {
		t.Errorf("width after resize = %d", got)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if got := m.ctrl.State().Width; got != 0 {
		t.Errorf("width after turning auto off = %d, want 0", got)
	}
}

func TestTUICopy(t *testing.T) {
	t.Setenv("TMUX", "")
	t.Setenv("TERM", "xterm-256color")
	m, clip := newTestModel(t, "ascii_small", "Hi")
	m = settle(t, m)

	msg := m.copyOutput()()
	if cm, ok := msg.(copiedMsg); !ok || cm.err != nil {
		t.Fatalf("copy returned %#v", msg)
	}
	want := base64.StdEncoding.EncodeToString([]byte(output(m)))
	if got := clip.String(); !strings.HasPrefix(got, "\x1b]52;c;") || !strings.Contains(got, want) {
		t.Errorf("clipboard sequence = %q", got)
	}

	m = update(t, m, msg)
	if _, st, _ := m.screen.snapshot(); st.Notice != "Copied to clipboard" {
		t.Errorf("notice = %q", st.Notice)
	}
}

func TestTUINoticeClears(t *testing.T) {
	m, _ := newTestModel(t, "ascii_small", "x")
	m = settle(t, m)

	_, _, seq := m.screen.snapshot()
	m = update(t, m, clearNoticeMsg{seq: seq - 1})
	if _, st, _ := m.screen.snapshot(); st.Notice == "" {
		t.Fatal("an older timer cleared a newer notice")
	}
	m = update(t, m, clearNoticeMsg{seq: seq})
	if _, st, _ := m.screen.snapshot(); st.Notice != "" {
		t.Errorf("notice = %q, want cleared", st.Notice)
	}
}

func TestTUIQuit(t *testing.T) {
	m, _ := newTestModel(t, "ascii_small", "")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc should quit")
	}
	if next.(tuiModel).View() != "" {
		t.Error("view should be empty after quitting")
	}
}
