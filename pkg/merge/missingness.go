package merge

import "strings"

// placeholderSentinels are string values that mean "no data" even though
// they are non-empty, matching upstream providers' conventions for
// marking an absent field instead of omitting it.
var placeholderSentinels = map[string]struct{}{
	"N/A": {}, "n/a": {}, "NA": {}, "-": {}, "–": {}, "—": {},
}

// IsMissing reports whether v should be treated as absent data: nil, an
// empty/whitespace-only string, or one of the known placeholder
// sentinels. Zero numbers, false booleans, and empty collections are NOT
// missing — a source explicitly reporting "0 parking spaces" is real data.
func IsMissing(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return true
	}
	_, placeholder := placeholderSentinels[trimmed]
	return placeholder
}
