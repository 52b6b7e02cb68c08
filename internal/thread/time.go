package thread

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ParseEpoch interprets the timestamp shapes Intercom uses across its
// payloads: unix seconds as a number, a bare digit string, or an
// ISO-8601 string with a Z or numeric offset. It is the only place
// timestamps are decoded; callers treat ok=false as "sort first".
func ParseEpoch(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, true
		}
		return 0, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if isDigits(s) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return 0, false
			}
			return n, true
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			return parsed.Unix(), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
