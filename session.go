package figpad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ryanlewis/figpad/internal/debug"
)

// Event is a user action the controller reacts to.
type Event interface {
	sessionEvent()
}

// FontSelected picks the font to render with.
type FontSelected struct{ ID FontID }

// TextChanged replaces the text to render.
type TextChanged struct{ Text string }

// WidthChanged sets the output width; zero or less means no wrapping.
type WidthChanged struct{ Width int }

func (FontSelected) sessionEvent() {}
func (TextChanged) sessionEvent()  {}
func (WidthChanged) sessionEvent() {}

// Status is what a view shows besides the banner itself.
type Status struct {
	Font   FontID
	State  LoadState
	Notice string
	// SelectionLocked is set while the selected font is loading
	SelectionLocked bool
}

// View receives output and status updates. Calls are made with the
// controller's lock held, so implementations must not call back into the
// controller.
type View interface {
	ShowStatus(Status)
	ShowOutput(string)
}

// SessionState is a snapshot of an interactive session.
type SessionState struct {
	Font      FontID
	FontState LoadState
	Text      string
	Width     int
	Output    string
	// Rendered is false until the first successful render
	Rendered        bool
	Notice          string
	SelectionLocked bool
}

// Scheduler runs a load continuation, typically by posting it onto the
// caller's UI loop.
type Scheduler func(func())

// Controller reacts to session events: it requests fonts from the loader
// and re-renders whenever the selected font is ready and the text or width
// changes. Renders always use the current text and width.
//
// Selecting a font that is not loaded yet locks the selection
// (Status.SelectionLocked) and starts the load without blocking. Text and
// width changes made meanwhile are stored, and the load's continuation
// renders them once, through the Scheduler. A continuation for a font that
// is no longer selected renders nothing.
//
// Failures never clear the output: a failed load or render leaves the last
// good banner in place and reports the error as a notice.
//
// Example:
//
//	ctrl := figpad.NewController(loader, view, figpad.WithScheduler(post))
//	ctrl.SetText("Hello")
//	ctrl.SelectFont(ctx, "solid_box_small") // Loading; renders when loaded
//
// All methods are safe for concurrent use.
type Controller struct {
	loader   *Loader
	pipeline *Pipeline
	view     View
	schedule Scheduler
	logger   *log.Logger
	tracer   *Tracer

	mu      sync.Mutex
	state   SessionState
	waiting map[FontID]<-chan struct{}
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithScheduler sets how load continuations are run. The default runs
// them directly on the goroutine that observed the load settle.
func WithScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) { c.schedule = s }
}

// WithPipeline sets the render pipeline.
func WithPipeline(p *Pipeline) ControllerOption {
	return func(c *Controller) { c.pipeline = p }
}

// WithLogger sets the controller's logger.
func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithTracer records session and render events.
func WithTracer(t *Tracer) ControllerOption {
	return func(c *Controller) { c.tracer = t }
}

// WithInitialWidth sets the width before any event arrives.
func WithInitialWidth(width int) ControllerOption {
	return func(c *Controller) { c.state.Width = width }
}

type nopView struct{}

func (nopView) ShowStatus(Status)  {}
func (nopView) ShowOutput(string) {}

// NewController returns a controller with no font selected. A nil view
// discards updates.
func NewController(loader *Loader, view View, opts ...ControllerOption) *Controller {
	if view == nil {
		view = nopView{}
	}
	c := &Controller{
		loader:   loader,
		pipeline: NewPipeline(),
		view:     view,
		schedule: func(f func()) { f() },
		logger:   log.New(io.Discard),
		waiting:  make(map[FontID]<-chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer != nil {
		c.pipeline = c.pipeline.WithTracer(c.tracer)
	}
	return c
}

// State returns a snapshot of the session.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handle dispatches ev to SelectFont, SetText or SetWidth.
func (c *Controller) Handle(ctx context.Context, ev Event) (SessionState, error) {
	switch e := ev.(type) {
	case FontSelected:
		return c.SelectFont(ctx, e.ID)
	case TextChanged:
		return c.SetText(e.Text), nil
	case WidthChanged:
		return c.SetWidth(e.Width), nil
	}
	return c.State(), fmt.Errorf("unknown session event %T", ev)
}

// SelectFont makes id the selected font. A ready font renders at once; a
// font that is not ready starts or joins a load and renders when it
// settles, provided it is still selected then. Unknown IDs leave the
// selection unchanged.
func (c *Controller) SelectFont(ctx context.Context, id FontID) (SessionState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.loader.EnsureLoaded(ctx, id)
	if err != nil {
		c.state.Notice = err.Error()
		c.logger.Warn("font selection rejected", "font", id, "err", err)
		c.showStatus()
		c.traceEvent("font", id, false)
		return c.state, err
	}

	c.state.Font = id
	c.state.FontState = res.State
	switch res.State {
	case Ready:
		c.state.Notice = ""
		c.render()
	case Loading:
		c.state.Notice = fmt.Sprintf("Loading %s…", id)
		c.watch(id, res.Done)
	}
	c.showStatus()
	c.traceEvent("font", id, res.State == Ready)
	return c.state, nil
}

// SetText stores text and renders if the selected font is ready.
func (c *Controller) SetText(text string) SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Text = text
	rendered := c.render()
	c.traceEvent("text", c.state.Font, rendered)
	return c.state
}

// SetWidth stores width and renders if the selected font is ready.
func (c *Controller) SetWidth(width int) SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Width = width
	rendered := c.render()
	c.traceEvent("width", c.state.Font, rendered)
	return c.state
}

// watch schedules one continuation per in-flight load. Must hold mu.
func (c *Controller) watch(id FontID, done <-chan struct{}) {
	if c.waiting[id] == done {
		return
	}
	c.waiting[id] = done
	go func() {
		<-done
		c.schedule(func() { c.settled(id, done) })
	}()
}

// settled runs after a load completes. Only the currently selected font is
// rendered; a failure is reported whichever font is selected.
func (c *Controller) settled(id FontID, done <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.waiting[id] == done {
		delete(c.waiting, id)
	}
	state := c.loader.State(id)
	selected := id == c.state.Font

	switch state {
	case Ready:
		if !selected {
			c.logger.Debug("loaded font no longer selected", "font", id)
			return
		}
		c.state.FontState = Ready
		c.state.Notice = fmt.Sprintf("Loaded %s", id)
		c.render()
	case Failed:
		loadErr := c.loader.Registry().Err(id)
		c.state.Notice = fmt.Sprintf("Failed to load %s: %v", id, errors.Unwrap(loadErr))
		if selected {
			c.state.FontState = Failed
		}
		c.logger.Error("font unavailable", "font", id, "err", loadErr)
	default:
		// a newer load is in flight and has its own continuation
		return
	}
	c.showStatus()
	c.traceEvent("continuation", id, state == Ready && selected)
}

// render re-renders from the current state if the selected font is ready.
// A failed render keeps the previous output. Must hold mu.
func (c *Controller) render() bool {
	if c.state.Font == "" {
		return false
	}
	font, ok := c.loader.Registry().Get(c.state.Font)
	if !ok {
		return false
	}
	// the load can finish before its continuation runs
	promoted := c.state.FontState != Ready
	if promoted {
		c.state.FontState = Ready
		c.state.Notice = fmt.Sprintf("Loaded %s", c.state.Font)
	}

	out, err := c.pipeline.Render(font, c.state.Text, c.state.Width)
	if err != nil {
		c.state.Notice = err.Error()
		c.logger.Warn("render failed", "font", c.state.Font, "err", err)
		c.showStatus()
		return false
	}
	c.state.Output = out
	c.state.Rendered = true
	c.view.ShowOutput(out)
	if promoted {
		c.showStatus()
	}
	return true
}

func (c *Controller) showStatus() {
	c.state.SelectionLocked = c.state.FontState == Loading
	c.view.ShowStatus(Status{
		Font:            c.state.Font,
		State:           c.state.FontState,
		Notice:          c.state.Notice,
		SelectionLocked: c.state.SelectionLocked,
	})
}

func (c *Controller) traceEvent(kind string, id FontID, rendered bool) {
	if c.tracer == nil {
		return
	}
	sess := c.tracer.session("session")
	sess.Emit("session", "Event", debug.SessionEventData{
		Kind:     kind,
		FontID:   string(id),
		State:    c.state.FontState.String(),
		Width:    c.state.Width,
		Rendered: rendered,
		Notice:   c.state.Notice,
	})
	sess.End()
}
