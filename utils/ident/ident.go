package ident

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ID is an entity identifier. Upstream responses expose identifiers both as
// JSON numbers (the mutable numeric id) and as JSON strings (the stable
// document id), and either scheme can appear in either position depending on
// the API version, so an ID keeps the raw textual form and comparisons are
// tolerant of the numeric/string split.
type ID string

// FromAny converts a decoded JSON value into an ID. Only strings and numbers
// are identifiers; everything else reports false.
func FromAny(v any) (ID, bool) {
	switch val := v.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return "", false
		}
		return ID(trimmed), true
	case float64:
		return ID(strconv.FormatFloat(val, 'f', -1, 64)), true
	case int:
		return ID(strconv.Itoa(val)), true
	case int64:
		return ID(strconv.FormatInt(val, 10)), true
	case json.Number:
		return ID(val.String()), true
	}
	return "", false
}

// IsZero reports whether the ID carries no value.
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts string, number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits the identifier as a string, the representation every
// consumer tolerates.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Same reports whether two identifiers denote the same logical entity. They
// match when equal as strings, or when both parse as finite numbers with
// equal numeric value ("7" and 7 and "07" all match). Symmetric by
// construction.
func Same(a, b ID) bool {
	as := strings.TrimSpace(string(a))
	bs := strings.TrimSpace(string(b))
	if as == "" || bs == "" {
		return false
	}
	if as == bs {
		return true
	}

	an, aerr := strconv.ParseFloat(as, 64)
	bn, berr := strconv.ParseFloat(bs, 64)
	if aerr != nil || berr != nil {
		return false
	}
	if math.IsInf(an, 0) || math.IsNaN(an) || math.IsInf(bn, 0) || math.IsNaN(bn) {
		return false
	}
	return an == bn
}

// MatchesAny reports whether the candidate matches any of the target
// identifiers. Matching any single target is sufficient.
func MatchesAny(candidate ID, targets ...ID) bool {
	for _, t := range targets {
		if Same(candidate, t) {
			return true
		}
	}
	return false
}
