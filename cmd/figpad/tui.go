package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ryanlewis/figpad"
)

// noticeTTL is how long a notice stays on screen.
const noticeTTL = 4 * time.Second

// bannerPadding is the horizontal padding styleBanner adds around output.
const bannerPadding = 4

// inputHeight is the number of text rows the editor shows.
const inputHeight = 3

type tuiOptions struct {
	font  string
	width int
	text  string
}

func (o *tuiOptions) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.font, "font", "f", "", fontFlagUsage)
	fs.IntVarP(&o.width, "width", "w", 0, "output width in columns (0 = no wrapping)")
	fs.StringVarP(&o.text, "text", "t", "", "initial text")
}

func newTUICmd(a *app) *cobra.Command {
	opts := &tuiOptions{}
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Edit a banner interactively (the default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, a, opts)
		},
	}
	opts.bind(cmd.Flags())
	return cmd
}

func runTUI(cmd *cobra.Command, a *app, opts *tuiOptions) error {
	// the alt screen owns the terminal, so log lines go to FIGPAD_LOG or nowhere
	logOut := io.Discard
	if p := os.Getenv("FIGPAD_LOG"); p != "" {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	a.logger.SetOutput(logOut)

	loader, err := a.newLoader()
	if err != nil {
		return err
	}
	query := fontOrDefault(opts.font, a.cfg.Font)
	id, err := loader.Catalog().Resolve(query)
	if err != nil {
		return err
	}

	var pipelineOpts []figpad.Option
	if a.cfg.Trim {
		pipelineOpts = append(pipelineOpts, figpad.WithTrimWhitespace(true))
	}
	m := newTUIModel(cmd.Context(), loader, tuiConfig{
		font:     id,
		width:    changedInt(cmd.Flags(), "width", opts.width, a.cfg.Width),
		text:     opts.text,
		pipeline: figpad.NewPipeline(pipelineOpts...),
		logger:   a.logger,
		clip:     os.Stderr,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
			return cmd.Context().Err()
		}
		return err
	}
	return nil
}

// screen is the figpad.View the controller draws into. The model reads it
// when painting.
type screen struct {
	mu        sync.Mutex
	output    string
	status    figpad.Status
	noticeSeq int
}

func (s *screen) ShowStatus(st figpad.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Notice != "" && st.Notice != s.status.Notice {
		s.noticeSeq++
	}
	s.status = st
}

func (s *screen) ShowOutput(out string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = out
}

func (s *screen) notify(notice string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Notice = notice
	s.noticeSeq++
	return s.noticeSeq
}

func (s *screen) clearNotice(seq int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == s.noticeSeq {
		s.status.Notice = ""
	}
}

func (s *screen) snapshot() (string, figpad.Status, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output, s.status, s.noticeSeq
}

type (
	// continuationMsg carries a load continuation onto the UI loop
	continuationMsg struct{ run func() }
	clearNoticeMsg  struct{ seq int }
	copiedMsg       struct{ err error }
)

type tuiConfig struct {
	font     figpad.FontID
	width    int
	text     string
	pipeline *figpad.Pipeline
	logger   *log.Logger
	clip     io.Writer
}

type tuiModel struct {
	ctx    context.Context
	ctrl   *figpad.Controller
	screen *screen
	posted chan func()
	clip   io.Writer

	input     textarea.Model
	fonts     []figpad.FontID
	cursor    int
	width     int
	autoWidth bool
	termWidth int
	shownSeq  int
	quitting  bool
}

func newTUIModel(ctx context.Context, loader *figpad.Loader, cfg tuiConfig) tuiModel {
	posted := make(chan func(), 16)
	m := tuiModel{
		ctx:    ctx,
		screen: &screen{},
		posted: posted,
		clip:   cfg.clip,
		input:  newInput(cfg.text),
		fonts:  loader.Catalog().IDs(),
		width:  cfg.width,
	}
	opts := []figpad.ControllerOption{
		figpad.WithScheduler(func(f func()) { posted <- f }),
		figpad.WithInitialWidth(cfg.width),
	}
	if cfg.pipeline != nil {
		opts = append(opts, figpad.WithPipeline(cfg.pipeline))
	}
	if cfg.logger != nil {
		opts = append(opts, figpad.WithLogger(cfg.logger))
	}
	m.ctrl = figpad.NewController(loader, m.screen, opts...)

	for i, id := range m.fonts {
		if id == cfg.font {
			m.cursor = i
		}
	}
	m.ctrl.SetText(m.input.Value())
	if len(m.fonts) > 0 {
		// unknown fonts are reported on screen
		_, _ = m.ctrl.SelectFont(ctx, m.fonts[m.cursor])
	}
	return m
}

// newInput returns the focused banner text editor. ctrl+a is taken by the
// auto width toggle; home still moves to the line start.
func newInput(text string) textarea.Model {
	ta := textarea.New()
	ta.Prompt = "> "
	ta.Placeholder = "Type a banner…"
	ta.ShowLineNumbers = false
	ta.CharLimit = maxRenderText
	ta.SetHeight(inputHeight)
	ta.KeyMap.LineStart.SetKeys("home")
	ta.FocusedStyle.Prompt = styleCursor
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = styleDim
	ta.SetValue(text)
	ta.Focus()
	return ta
}

func (m tuiModel) waitForContinuation() tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-m.posted:
			return continuationMsg{run: f}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForContinuation())
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case continuationMsg:
		msg.run()
		cmd = m.waitForContinuation()
	case clearNoticeMsg:
		m.screen.clearNotice(msg.seq)
	case copiedMsg:
		if msg.err != nil {
			m.screen.notify("Copy failed: " + msg.err.Error())
		} else {
			m.screen.notify("Copied to clipboard")
		}
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.input.SetWidth(msg.Width)
		if m.autoWidth {
			m.setWidth(m.suggestedWidth())
		}
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyTab:
			m.selectFont(m.cursor + 1)
		case tea.KeyShiftTab:
			m.selectFont(m.cursor - 1)
		case tea.KeyCtrlA:
			m.autoWidth = !m.autoWidth
			if m.autoWidth {
				m.setWidth(m.suggestedWidth())
			} else {
				m.setWidth(0)
			}
		case tea.KeyCtrlY:
			cmd = m.copyOutput()
		default:
			cmd = m.edit(msg)
		}
	default:
		// cursor blink
		m.input, cmd = m.input.Update(msg)
	}
	timer := m.noticeTimer()
	return m, tea.Batch(cmd, timer)
}

func (m *tuiModel) selectFont(i int) {
	if len(m.fonts) == 0 {
		return
	}
	m.cursor = (i + len(m.fonts)) % len(m.fonts)
	_, _ = m.ctrl.SelectFont(m.ctx, m.fonts[m.cursor])
}

// edit passes msg to the editor and re-renders when the text changed.
func (m *tuiModel) edit(msg tea.KeyMsg) tea.Cmd {
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if text := m.input.Value(); text != before {
		m.ctrl.SetText(text)
	}
	return cmd
}

func (m *tuiModel) setWidth(width int) {
	m.width = width
	m.ctrl.SetWidth(width)
}

func (m tuiModel) suggestedWidth() int {
	if w := m.termWidth - bannerPadding; w > 0 {
		return w
	}
	return 0
}

// noticeTimer arms a clear for a notice that appeared since the last update.
func (m *tuiModel) noticeTimer() tea.Cmd {
	_, st, seq := m.screen.snapshot()
	if seq == m.shownSeq || st.Notice == "" {
		return nil
	}
	m.shownSeq = seq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{seq: seq} })
}

func (m tuiModel) copyOutput() tea.Cmd {
	out, _, _ := m.screen.snapshot()
	w := m.clip
	return func() tea.Msg {
		seq := osc52.New(out)
		if os.Getenv("TMUX") != "" {
			seq = seq.Tmux()
		} else if strings.HasPrefix(os.Getenv("TERM"), "screen") {
			seq = seq.Screen()
		}
		_, err := seq.WriteTo(w)
		return copiedMsg{err: err}
	}
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}
	out, st, _ := m.screen.snapshot()

	var b strings.Builder
	b.WriteString(styleTitle.Render("figpad"))
	b.WriteString("  ")
	b.WriteString(m.fontLine(st))
	b.WriteString("\n")

	width := "none"
	if m.width > 0 {
		width = fmt.Sprintf("%d", m.width)
	}
	if m.autoWidth {
		width += " (auto)"
	}
	b.WriteString(styleDim.Render("width " + width))
	b.WriteString("\n\n")

	b.WriteString(m.input.View())
	b.WriteString("\n")

	b.WriteString(styleBanner.Render(out))
	b.WriteString("\n")

	if st.Notice != "" {
		b.WriteString(noticeStyle(st).Render(st.Notice))
	}
	b.WriteString("\n")
	b.WriteString(styleDim.Render("tab/shift+tab font  ctrl+a auto width  ctrl+y copy  enter new line  esc quit"))
	return b.String()
}

func (m tuiModel) fontLine(st figpad.Status) string {
	if len(m.fonts) == 0 {
		return styleError.Render("no fonts")
	}
	name := string(m.fonts[m.cursor])
	switch st.State {
	case figpad.Loading:
		return styleWarning.Render(name + " " + iconPending)
	case figpad.Failed:
		return styleError.Render(name + " " + iconError)
	}
	return styleSuccess.Render(name)
}

func noticeStyle(st figpad.Status) lipgloss.Style {
	switch {
	case st.State == figpad.Failed || strings.HasPrefix(st.Notice, "Copy failed"):
		return styleError
	case st.State == figpad.Loading:
		return styleWarning
	}
	return styleDim
}
