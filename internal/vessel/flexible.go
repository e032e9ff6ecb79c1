package vessel

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexibleField holds a JSON scalar that may arrive as a number, a string
// or a boolean. A missing or null field stays unset so callers can tell
// "absent" apart from an explicit zero.
type FlexibleField struct {
	value any
}

// UnmarshalJSON implements custom JSON unmarshaling for FlexibleField.
// Values of any other shape (objects, arrays) leave the field unset.
func (f *FlexibleField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.value = nil
		return nil
	}

	// Try to unmarshal as a number first
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.value = num
		return nil
	}

	// If that fails, try to unmarshal as a string
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		f.value = str
		return nil
	}

	// If both fail, try to unmarshal as a boolean
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		f.value = b
		return nil
	}

	f.value = nil
	return nil
}

// IsSet reports whether the field was present and non-null
func (f FlexibleField) IsSet() bool {
	return f.value != nil
}

// Float64Or returns the value as a float64, or def when the field is unset
// or cannot be read as a number
func (f FlexibleField) Float64Or(def float64) float64 {
	switch v := f.value.(type) {
	case float64:
		return v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return def
		}
		return parsed
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return def
	}
}

// Int64Or returns the value as an int64, or def when the field is unset
// or cannot be read as an integer
func (f FlexibleField) Int64Or(def int64) int64 {
	switch v := f.value.(type) {
	case float64:
		return int64(v)
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if fl, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(fl)
		}
		return def
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return def
	}
}

// StringOr returns the value as a string, or def when the field is unset
func (f FlexibleField) StringOr(def string) string {
	switch v := f.value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}
