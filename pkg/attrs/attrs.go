// Package attrs provides helpers for slog-style alternating key/value lists.
package attrs

import "fmt"

// ExtractString scans an alternating key/value list for the given key and
// returns its value rendered as a string. Returns "" when the key is absent.
func ExtractString(attrList []any, key string) string {
	for i := 0; i+1 < len(attrList); i += 2 {
		k, ok := attrList[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := attrList[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}
