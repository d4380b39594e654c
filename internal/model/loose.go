package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Loose decoders for the LLM wire format. The model is instructed to return
// strict JSON but fields still come back missing or mistyped; these types
// absorb that at the deserialization boundary so downstream code never
// touches raw JSON.

// looseString decodes a JSON string, or stringifies a number; anything else
// becomes "".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err == nil {
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*s = looseString(n.String())
		return nil
	}
	*s = ""
	return nil
}

// looseStrings decodes a JSON array keeping its string elements; non-array
// values become nil.
type looseStrings []string

func (l *looseStrings) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		*l = nil
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err == nil {
			out = append(out, n.String())
		}
	}
	*l = out
	return nil
}

// looseInt decodes a JSON number (truncating floats) or a numeric string;
// anything else becomes 0.
type looseInt int

func (i *looseInt) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*i = looseInt(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*i = looseInt(f)
			return nil
		}
	}
	*i = 0
	return nil
}
