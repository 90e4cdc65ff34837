package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// dateLayouts are tried after the general parser gives up.
var dateLayouts = []string{
	"2006-01-02",
	"2 Jan 2006",
	"2 January 2006",
	"01/02/2006",
	"02/01/2006",
}

// Date interprets a model-supplied date. Numbers are read as Unix seconds.
// The boolean is false when nothing could be parsed; the caller decides the fallback.
func Date(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t.UTC(), !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return Date(*t)
	case float64:
		return unixSeconds(t)
	case int:
		return unixSeconds(float64(t))
	case int64:
		return unixSeconds(float64(t))
	case json.Number:
		return parseDateString(t.String())
	case string:
		return parseDateString(t)
	default:
		return time.Time{}, false
	}
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return time.Time{}, false
	}
	if ts, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return ts.UTC(), true
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return unixSeconds(f)
	}
	return time.Time{}, false
}

func unixSeconds(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}
