package renderer

import "github.com/ryanlewis/figpad/internal/debug"

// hierarchy ranks the classes of the hierarchy rule, strongest first.
var hierarchy = map[rune]int{
	'|': 1,
	'/': 2, '\\': 2,
	'[': 3, ']': 3,
	'{': 4, '}': 4,
	'(': 5, ')': 5,
	'<': 6, '>': 6,
}

// smush merges lch (left) and rch (right) into one character, or returns 0
// when they cannot overlap.
//
// Controlled rules are tried in figlet's order: hardblank, equal,
// underscore, hierarchy, opposite pair, big X.
func (st *renderState) smush(lch, rch rune) rune {
	if lch == ' ' || lch == 0 {
		return rch
	}
	if rch == ' ' || rch == 0 {
		return lch
	}
	if st.previousCharWidth < 2 || st.currentCharWidth < 2 {
		return 0
	}
	if st.smushMode&SMSmush == 0 {
		return 0
	}

	if st.smushMode&smRuleMask == 0 {
		switch {
		case lch == st.hardblank:
			return rch
		case rch == st.hardblank:
			return lch
		case st.right2left:
			return lch
		}
		return rch
	}

	if st.smushMode&SMHardblank != 0 && lch == st.hardblank && rch == st.hardblank {
		return lch
	}
	if lch == st.hardblank || rch == st.hardblank {
		return 0
	}

	if st.smushMode&SMEqual != 0 && lch == rch {
		return lch
	}

	if st.smushMode&SMLowline != 0 {
		if lch == '_' && isBorder(rch) {
			return rch
		}
		if rch == '_' && isBorder(lch) {
			return lch
		}
	}

	if st.smushMode&SMHierarchy != 0 {
		l, lok := hierarchy[lch]
		r, rok := hierarchy[rch]
		if lok && rok && l != r {
			if l > r {
				return lch
			}
			return rch
		}
	}

	if st.smushMode&SMPair != 0 {
		switch string([]rune{lch, rch}) {
		case "[]", "][", "{}", "}{", "()", ")(":
			return '|'
		}
	}

	if st.smushMode&SMBigX != 0 {
		switch {
		case lch == '/' && rch == '\\':
			return '|'
		case lch == '\\' && rch == '/':
			return 'Y'
		case lch == '>' && rch == '<':
			return 'X'
		}
	}

	return 0
}

func isBorder(r rune) bool {
	switch r {
	case '|', '/', '\\', '[', ']', '{', '}', '(', ')', '<', '>':
		return true
	}
	return false
}

// smushAmount returns how many columns the current glyph may overlap the
// output line: the minimum over all rows of the gap between the line's
// last visible character and the glyph's first one, plus one when the
// boundary characters can merge.
func (st *renderState) smushAmount() int {
	if st.smushMode&(SMSmush|SMKern) == 0 {
		return 0
	}

	maxSmush := st.currentCharWidth
	for row := 0; row < st.height; row++ {
		line := st.outputLine[row]
		glyph := st.currentChar[row]
		var amt int
		var ch1, ch2 rune

		if st.right2left {
			if maxSmush > len(line) {
				maxSmush = len(line)
			}
			charbd := len(glyph)
			for {
				ch1 = at(glyph, charbd)
				if charbd > 0 && (ch1 == 0 || ch1 == ' ') {
					charbd--
					continue
				}
				break
			}
			linebd := 0
			for ch2 = at(line, 0); ch2 == ' '; ch2 = at(line, linebd) {
				linebd++
			}
			amt = linebd + st.currentCharWidth - 1 - charbd
		} else {
			linebd := len(line)
			for {
				ch1 = at(line, linebd)
				if linebd > 0 && (ch1 == 0 || ch1 == ' ') {
					linebd--
					continue
				}
				break
			}
			charbd := 0
			for ch2 = at(glyph, 0); ch2 == ' '; ch2 = at(glyph, charbd) {
				charbd++
			}
			amt = charbd + st.outlineLen - 1 - linebd
		}

		if ch1 == 0 || ch1 == ' ' {
			amt++
		} else if ch2 != 0 && st.smush(ch1, ch2) != 0 {
			amt++
		}
		if amt < maxSmush {
			maxSmush = amt
		}
	}
	if maxSmush < 0 {
		return 0
	}
	return maxSmush
}

// at returns s[i], or 0 past the end.
func at(s []rune, i int) rune {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

func (st *renderState) traceSmush(row, col int, lch, rch, result rune) {
	if st.trace == nil || lch == ' ' || rch == ' ' || lch == 0 || rch == 0 {
		return
	}
	st.trace.Emit("render", "SmushDecision", debug.SmushDecisionData{
		Row:    row,
		Col:    col,
		Lch:    lch,
		Rch:    rch,
		Result: result,
		Rule:   debug.ClassifySmushRule(lch, rch, result, st.hardblank, st.smushMode),
	})
}
