package debug

// RenderStartData describes a render request.
type RenderStartData struct {
	Text       string   `json:"text"`
	TextLength int      `json:"text_length"`
	CharHeight int      `json:"char_height"`
	Hardblank  rune     `json:"hardblank"`
	WidthLimit int      `json:"width_limit"`
	PrintDir   int      `json:"print_dir"`
	SmushMode  int      `json:"smush_mode"`
	SmushRules []string `json:"smush_rules"`
}

// RenderEndData summarizes a finished render.
type RenderEndData struct {
	TotalLines  int   `json:"total_lines"`
	TotalRunes  int   `json:"total_runes"`
	TotalGlyphs int   `json:"total_glyphs"`
	ElapsedMs   int64 `json:"elapsed_ms"`
	Bytes       int   `json:"bytes"`
}

// GlyphData describes one glyph added to the output line.
type GlyphData struct {
	Index        int  `json:"index"`
	Rune         rune `json:"rune"`
	Width        int  `json:"width"`
	SmushAmount  int  `json:"smush_amount"`
	UnknownSubst bool `json:"unknown_subst,omitempty"`
}

// SmushDecisionData records a single character merge.
type SmushDecisionData struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Lch    rune   `json:"lch"`
	Rch    rune   `json:"rch"`
	Result rune   `json:"result"`
	Rule   string `json:"rule"`
}

// SplitData records a line break.
type SplitData struct {
	Reason     string `json:"reason"` // "newline", "wordbreak", "width", "oversize"
	FSMPrev    int    `json:"fsm_prev"`
	FSMNext    int    `json:"fsm_next"`
	OutlineLen int    `json:"outline_len"`
}

// LoadStartData is emitted when a font fetch begins.
type LoadStartData struct {
	FontID   string `json:"font_id"`
	Location string `json:"location"`
	Attempt  int    `json:"attempt"`
}

// LoadEndData is emitted when a font fetch settles.
type LoadEndData struct {
	FontID    string `json:"font_id"`
	State     string `json:"state"`
	Bytes     int    `json:"bytes"`
	Glyphs    int    `json:"glyphs"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// FontHeaderData contains parsed font header values.
type FontHeaderData struct {
	Hardblank    rune `json:"hardblank"`
	Height       int  `json:"height"`
	Baseline     int  `json:"baseline"`
	MaxLength    int  `json:"max_length"`
	OldLayout    int  `json:"old_layout"`
	FullLayout   int  `json:"full_layout"`
	PrintDir     int  `json:"print_dir"`
	CommentLines int  `json:"comment_lines"`
	CodetagCount int  `json:"codetag_count"`
}

// SessionEventData records an interactive session event and its outcome.
type SessionEventData struct {
	Kind     string `json:"kind"` // "font", "text", "width", "continuation"
	FontID   string `json:"font_id"`
	State    string `json:"state"`
	Width    int    `json:"width"`
	Rendered bool   `json:"rendered"`
	Notice   string `json:"notice,omitempty"`
}
