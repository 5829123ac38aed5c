package figpad

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingView struct {
	mu       sync.Mutex
	outputs  []string
	statuses []Status
}

func (v *recordingView) ShowStatus(s Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, s)
}

func (v *recordingView) ShowOutput(out string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outputs = append(v.outputs, out)
}

func (v *recordingView) Outputs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.outputs...)
}

func (v *recordingView) noticesContaining(substr string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, s := range v.statuses {
		if strings.Contains(s.Notice, substr) {
			n++
		}
	}
	return n
}

func (v *recordingView) lastStatus() (Status, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return Status{}, false
	}
	return v.statuses[len(v.statuses)-1], true
}

// postedScheduler queues continuations the way a UI loop would, so tests
// decide when they run.
type postedScheduler chan func()

func (p postedScheduler) schedule(f func()) { p <- f }

func (p postedScheduler) runNext(t *testing.T) {
	t.Helper()
	select {
	case f := <-p:
		f()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a load continuation")
	}
}

func (p postedScheduler) expectNone(t *testing.T) {
	t.Helper()
	select {
	case <-p:
		t.Fatal("unexpected continuation")
	case <-time.After(20 * time.Millisecond):
	}
}

type sessionFixture struct {
	fetcher *fakeFetcher
	loader  *Loader
	view    *recordingView
	posted  postedScheduler
	ctrl    *Controller
}

func newSessionFixture(t *testing.T, ids ...FontID) *sessionFixture {
	t.Helper()
	fx := &sessionFixture{
		fetcher: newFakeFetcher(),
		view:    &recordingView{},
		posted:  make(postedScheduler, 8),
	}
	for _, id := range ids {
		fx.fetcher.add(string(id)+".flf", testFontData(2))
	}
	fx.loader = NewLoader(testCatalog(t, ids...), fx.fetcher)
	fx.ctrl = NewController(fx.loader, fx.view, WithScheduler(fx.posted.schedule))
	return fx
}

func TestSessionTypingWhileLoading(t *testing.T) {
	fx := newSessionFixture(t, "a")
	release := fx.fetcher.gate("a.flf")
	ctx := context.Background()

	st, err := fx.ctrl.SelectFont(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if st.FontState != Loading || !st.SelectionLocked {
		t.Fatalf("state = %+v, want a locked loading selection", st)
	}
	if st.Notice != "Loading a…" {
		t.Errorf("notice = %q, want loading notice", st.Notice)
	}

	fx.ctrl.SetText("H")
	fx.ctrl.SetText("HI")
	if n := len(fx.view.Outputs()); n != 0 {
		t.Fatalf("%d renders before the font loaded, want 0", n)
	}

	release()
	fx.posted.runNext(t)

	outs := fx.view.Outputs()
	if len(outs) != 1 {
		t.Fatalf("%d renders after load, want 1", len(outs))
	}
	if want := "HHII\nHHII"; outs[0] != want {
		t.Errorf("output = %q, want %q", outs[0], want)
	}
	st = fx.ctrl.State()
	if !st.Rendered || st.FontState != Ready || st.SelectionLocked {
		t.Errorf("state = %+v, want rendered and ready", st)
	}
	if n := fx.fetcher.Calls("a.flf"); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

func TestSessionAppliesLatestWidthAfterLoad(t *testing.T) {
	fx := newSessionFixture(t, "a")
	release := fx.fetcher.gate("a.flf")
	ctx := context.Background()

	fx.ctrl.SetText("AB CD")
	if _, err := fx.ctrl.SelectFont(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	fx.ctrl.SetWidth(40)
	fx.ctrl.SetWidth(7)

	release()
	fx.posted.runNext(t)

	outs := fx.view.Outputs()
	if len(outs) != 1 {
		t.Fatalf("%d renders, want 1", len(outs))
	}
	if want := "AABB\nAABB\nCCDD\nCCDD"; outs[0] != want {
		t.Errorf("output = %q, want %q", outs[0], want)
	}
}

func TestSessionRepeatedSelectWatchesOnce(t *testing.T) {
	fx := newSessionFixture(t, "a")
	release := fx.fetcher.gate("a.flf")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := fx.ctrl.SelectFont(ctx, "a"); err != nil {
			t.Fatal(err)
		}
	}
	fx.ctrl.SetText("A")
	release()
	fx.posted.runNext(t)
	fx.posted.expectNone(t)

	if n := len(fx.view.Outputs()); n != 1 {
		t.Errorf("%d renders, want 1", n)
	}
}

func TestSessionFetchFailure(t *testing.T) {
	fx := newSessionFixture(t, "a", "b")
	fx.fetcher.failWith("b.flf", errors.New("connection refused"))
	ctx := context.Background()

	if _, err := fx.loader.Load(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.ctrl.SelectFont(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	fx.ctrl.SetText("HI")
	before := fx.ctrl.State().Output

	if _, err := fx.ctrl.SelectFont(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	fx.posted.runNext(t)

	st := fx.ctrl.State()
	if st.Output != before {
		t.Errorf("output changed after failed load: %q", st.Output)
	}
	if st.Font != "b" || st.FontState != Failed {
		t.Errorf("selection = %s (%v), want b failed", st.Font, st.FontState)
	}
	if !strings.HasPrefix(st.Notice, "Failed to load b: ") {
		t.Errorf("notice = %q", st.Notice)
	}
	if n := fx.view.noticesContaining("Failed to load b"); n != 1 {
		t.Errorf("failure reported %d times, want 1", n)
	}

	fx.ctrl.SetText("HELLO")
	if got := fx.ctrl.State().Output; got != before {
		t.Errorf("typing with a failed font rendered %q", got)
	}

	fx.fetcher.add("b.flf", testFontData(2))
	st, err := fx.ctrl.SelectFont(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if st.FontState != Loading {
		t.Fatalf("reselect state = %v, want loading", st.FontState)
	}
	fx.posted.runNext(t)

	if n := fx.fetcher.Calls("b.flf"); n != 2 {
		t.Errorf("fetch called %d times, want 2", n)
	}
	if got := fx.ctrl.State().Output; got == before || !strings.Contains(got, "HHEELLLLOO") {
		t.Errorf("output after retry = %q", got)
	}
}

func TestSessionStaleCompletion(t *testing.T) {
	fx := newSessionFixture(t, "a", "c")
	release := fx.fetcher.gate("a.flf")
	ctx := context.Background()

	if _, err := fx.loader.Load(ctx, "c"); err != nil {
		t.Fatal(err)
	}
	fx.ctrl.SetText("X")
	if _, err := fx.ctrl.SelectFont(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.ctrl.SelectFont(ctx, "c"); err != nil {
		t.Fatal(err)
	}
	rendered := len(fx.view.Outputs())

	release()
	fx.posted.runNext(t)

	if n := len(fx.view.Outputs()); n != rendered {
		t.Errorf("stale completion rendered: %d outputs, want %d", n, rendered)
	}
	st := fx.ctrl.State()
	if st.Font != "c" || st.FontState != Ready {
		t.Errorf("selection = %s (%v), want c ready", st.Font, st.FontState)
	}
	if fx.loader.State("a") != Ready {
		t.Error("a should still be cached after a stale completion")
	}
}

func TestSessionUnknownFontKeepsSelection(t *testing.T) {
	fx := newSessionFixture(t, "a")
	ctx := context.Background()
	if _, err := fx.loader.Load(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.ctrl.SelectFont(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	st, err := fx.ctrl.SelectFont(ctx, "zzz")
	if !errors.Is(err, ErrUnknownFont) {
		t.Fatalf("err = %v, want ErrUnknownFont", err)
	}
	if st.Font != "a" || st.Notice == "" {
		t.Errorf("state = %+v, want a kept with a notice", st)
	}
}

func TestSessionHandle(t *testing.T) {
	fx := newSessionFixture(t, "a")
	ctx := context.Background()
	if _, err := fx.loader.Load(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	events := []Event{FontSelected{ID: "a"}, TextChanged{Text: "AB CD"}, WidthChanged{Width: 7}}
	var st SessionState
	for _, ev := range events {
		var err error
		if st, err = fx.ctrl.Handle(ctx, ev); err != nil {
			t.Fatalf("Handle(%T): %v", ev, err)
		}
	}
	if want := "AABB\nAABB\nCCDD\nCCDD"; st.Output != want {
		t.Errorf("output = %q, want %q", st.Output, want)
	}
	if n := len(fx.view.Outputs()); n != 3 {
		t.Errorf("%d renders, want 3", n)
	}
}

func TestSessionEmptyTextRendersBlank(t *testing.T) {
	fx := newSessionFixture(t, "a")
	ctx := context.Background()
	if _, err := fx.loader.Load(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	st, err := fx.ctrl.SelectFont(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Rendered || st.Output != "\n" {
		t.Errorf("state = %+v, want a blank two-row block", st)
	}
}

func TestSessionInlineScheduler(t *testing.T) {
	fetcher := newFakeFetcher().add("a.flf", testFontData(2))
	release := fetcher.gate("a.flf")
	loader := NewLoader(testCatalog(t, "a"), fetcher)
	view := &recordingView{}
	ctrl := NewController(loader, view)

	if _, err := ctrl.SelectFont(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	ctrl.SetText("A")
	release()

	waitFor(t, "render after load", func() bool { return ctrl.State().Rendered })
	if got := ctrl.State().Output; got != "AA\nAA" {
		t.Errorf("output = %q", got)
	}
}

func TestSessionRenderErrorKeepsOutput(t *testing.T) {
	fx := newSessionFixture(t, "a")
	ctx := context.Background()
	if _, err := fx.loader.Load(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.ctrl.SelectFont(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	before := fx.ctrl.SetText("HI")
	if want := "HHII\nHHII"; before.Output != want {
		t.Fatalf("output = %q, want %q", before.Output, want)
	}
	renders := len(fx.view.Outputs())

	st := fx.ctrl.SetText("HI中")
	if st.Output != before.Output {
		t.Errorf("output = %q after a failed render, want %q", st.Output, before.Output)
	}
	if !strings.Contains(st.Notice, "unsupported character") {
		t.Errorf("notice = %q, want the render error", st.Notice)
	}
	if n := len(fx.view.Outputs()); n != renders {
		t.Errorf("%d renders, want %d", n, renders)
	}
	if n := fx.view.noticesContaining("render with a"); n != 1 {
		t.Errorf("render error shown %d times, want 1", n)
	}
}

func TestSessionWidthClearedWhileReady(t *testing.T) {
	fx := newSessionFixture(t, "a")
	ctx := context.Background()
	font, err := fx.loader.Load(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fx.ctrl.SelectFont(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	fx.ctrl.SetText("AB CD")

	if st := fx.ctrl.SetWidth(7); st.Output != "AABB\nAABB\nCCDD\nCCDD" {
		t.Fatalf("output at width 7 = %q", st.Output)
	}
	st := fx.ctrl.SetWidth(0)

	want, err := NewPipeline().Render(font, "AB CD", 0)
	if err != nil {
		t.Fatal(err)
	}
	if st.Output != want {
		t.Errorf("output = %q, want %q", st.Output, want)
	}
	if st.Width != 0 {
		t.Errorf("width = %d, want 0", st.Width)
	}
}

func TestSessionEditAfterLoadUnlocksSelection(t *testing.T) {
	fx := newSessionFixture(t, "a")
	release := fx.fetcher.gate("a.flf")
	if _, err := fx.ctrl.SelectFont(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	release()
	waitFor(t, "font ready", func() bool { return fx.loader.State("a") == Ready })

	// the continuation is still queued
	st := fx.ctrl.SetText("A")
	if st.FontState != Ready || st.SelectionLocked {
		t.Fatalf("state = %+v, want ready and unlocked", st)
	}
	last, ok := fx.view.lastStatus()
	if !ok || last.State != Ready || last.SelectionLocked {
		t.Errorf("last status = %+v, want ready and unlocked", last)
	}
	if last.Notice != "Loaded a" {
		t.Errorf("notice = %q, want %q", last.Notice, "Loaded a")
	}

	fx.posted.runNext(t)
	if got := fx.ctrl.State().Output; got != "AA\nAA" {
		t.Errorf("output = %q", got)
	}
}
