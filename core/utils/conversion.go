package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToString converts a loosely typed value to string. Provider payloads
// carry identifiers as JSON strings or numbers depending on endpoint,
// so decoded values arrive as string, float64, or json.Number.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		// Identifiers are integral; avoid the %v scientific notation.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToInt converts a loosely typed value to int, tolerating the numeric
// and string encodings seen in provider and database payloads.
func ToInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		i, _ := v.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(v)
		return i
	case []byte:
		i, _ := strconv.Atoi(string(v))
		return i
	default:
		i, _ := strconv.Atoi(fmt.Sprintf("%v", v))
		return i
	}
}

// ToBool converts a loosely typed value to bool. Flags arrive as JSON
// booleans, 0/1 numbers, or "true"/"1" strings.
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case int:
		return v == 1
	case json.Number:
		return v.String() == "1"
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	default:
		return false
	}
}
