package renderer

import (
	"sync"

	"github.com/ryanlewis/figpad/internal/parser"
)

// statePool recycles render state between renders. The session controller
// re-renders on every keystroke, so the row buffers are worth keeping.
var statePool = sync.Pool{
	New: func() any {
		return &renderState{glyphCache: make(map[rune][][]rune, 64)}
	},
}

// maxPooledRowCap bounds the row buffers kept in the pool.
const maxPooledRowCap = 4096

func acquireRenderState(font *parser.Font, opts *Options) *renderState {
	st, ok := statePool.Get().(*renderState)
	if !ok {
		st = &renderState{glyphCache: make(map[rune][][]rune, 64)}
	}

	st.font = font
	st.opts = opts
	st.height = font.Height
	st.hardblank = font.Hardblank
	st.smushMode = opts.SmushMode
	st.right2left = opts.PrintDirection == 1
	st.trim = opts.TrimWhitespace
	st.trace = opts.Trace

	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	// figlet keeps the last column free
	st.limit = width - 1

	if cap(st.outputLine) < st.height {
		st.outputLine = make([][]rune, st.height)
	}
	st.outputLine = st.outputLine[:st.height]
	for i := range st.outputLine {
		st.outputLine[i] = st.outputLine[i][:0]
	}
	st.inchrline = st.inchrline[:0]
	st.out = st.out[:0]
	st.outlineLen, st.currentCharWidth, st.previousCharWidth = 0, 0, 0
	st.glyphs, st.lines = 0, 0
	return st
}

func releaseRenderState(st *renderState) {
	for i, row := range st.outputLine {
		if cap(row) > maxPooledRowCap {
			st.outputLine[i] = nil
		}
	}
	if cap(st.out) > maxPooledRowCap*16 {
		st.out = nil
	}
	clear(st.glyphCache)
	st.font, st.opts, st.currentChar, st.trace = nil, nil, nil, nil
	statePool.Put(st)
}
