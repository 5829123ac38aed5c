package debug

// Smush mode bits, mirrored from the renderer.
const (
	smSmush     = 128
	smKern      = 64
	smEqual     = 1
	smLowline   = 2
	smHierarchy = 4
	smPair      = 8
	smBigX      = 16
	smHardblank = 32
)

var ruleNames = []struct {
	bit  int
	name string
}{
	{smSmush, "SMSmush"},
	{smKern, "SMKern"},
	{smEqual, "Equal"},
	{smLowline, "Lowline"},
	{smHierarchy, "Hierarchy"},
	{smPair, "Pair"},
	{smBigX, "BigX"},
	{smHardblank, "Hardblank"},
}

// FormatSmushRules names the bits set in smushMode.
func FormatSmushRules(smushMode int) []string {
	var rules []string
	for _, r := range ruleNames {
		if smushMode&r.bit != 0 {
			rules = append(rules, r.name)
		}
	}
	if len(rules) == 0 {
		return []string{"None"}
	}
	return rules
}

// ClassifySmushRule names the rule that merged lch and rch into result.
func ClassifySmushRule(lch, rch, result, hardblank rune, smushMode int) string {
	switch {
	case lch == ' ' || rch == ' ' || lch == 0 || rch == 0:
		return "space"
	case smushMode&smSmush == 0:
		return "kerning"
	case smushMode&63 == 0:
		return "universal"
	case lch == hardblank && rch == hardblank && smushMode&smHardblank != 0:
		return "hardblank"
	case smushMode&smEqual != 0 && lch == rch:
		return "equal"
	case smushMode&smLowline != 0 && (lch == '_' || rch == '_') && result != '_':
		return "underscore"
	case smushMode&smHierarchy != 0 && result != '|' && (result == lch || result == rch):
		return "hierarchy"
	case smushMode&smPair != 0 && result == '|' && isPair(lch, rch):
		return "pair"
	case smushMode&smBigX != 0 && (result == '|' || result == 'Y' || result == 'X'):
		return "bigx"
	}
	return "unknown"
}

func isPair(lch, rch rune) bool {
	switch string([]rune{lch, rch}) {
	case "[]", "][", "{}", "}{", "()", ")(":
		return true
	}
	return false
}
