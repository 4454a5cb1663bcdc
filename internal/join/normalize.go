// Package join turns the independently fetched ticket, order, customer and event
// collections into the denormalized rows the admin views render.
//
// Every function here is pure: inputs are never mutated, broken references resolve
// to nil rather than errors, and the output depends only on input order.
package join

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"

	"ticket-admin/models"
)

var digitRun = regexp.MustCompile(`\d+`)

// NormalizeID coerces a raw backend id into an integer.
//
// Numbers pass through when whole. Strings yield their last run of digits, so
// "ORD-00042" is 42 and "123Y45" is 45. Objects carrying "id" or "pk" are
// unwrapped. Anything else, including digit runs that overflow int64, is not ok.
func NormalizeID(v any) (int64, bool) {
	switch id := v.(type) {
	case nil:
		return 0, false
	case models.Ref:
		return NormalizeID(id.Value())
	case *models.Ref:
		if id == nil {
			return 0, false
		}
		return NormalizeID(id.Value())
	case int:
		return int64(id), true
	case int32:
		return int64(id), true
	case int64:
		return id, true
	case uint32:
		return int64(id), true
	case uint64:
		if id > math.MaxInt64 {
			return 0, false
		}
		return int64(id), true
	case float64:
		return wholeFloat(id)
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return n, true
		}
		f, err := id.Float64()
		if err != nil {
			return 0, false
		}
		return wholeFloat(f)
	case string:
		runs := digitRun.FindAllString(id, -1)
		if len(runs) == 0 {
			return 0, false
		}
		n, err := strconv.ParseInt(runs[len(runs)-1], 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case map[string]any:
		if n, ok := NormalizeID(id["id"]); ok {
			return n, true
		}
		return NormalizeID(id["pk"])
	}
	return 0, false
}

func wholeFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// idPtr normalizes v, returning nil when it does not resolve.
func idPtr(v any) *int64 {
	n, ok := NormalizeID(v)
	if !ok {
		return nil
	}
	return &n
}
