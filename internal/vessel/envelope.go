package vessel

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope names which wrapping a vessel list arrived in
type Envelope string

const (
	EnvelopeArray    Envelope = "array"    // [...]
	EnvelopeResponse Envelope = "response" // {"response": [...]}
	EnvelopeVessels  Envelope = "vessels"  // {"vessels": [...]}
	EnvelopeNone     Envelope = "none"     // valid JSON without a recognizable list
)

// DecodeResult is the outcome of decoding a vessel list body
type DecodeResult struct {
	Records  []Record
	Envelope Envelope
	Dropped  int // null or non-object entries that were skipped
}

var jsonNull = []byte("null")

// DecodeList decodes a vessel list from any of the supported envelopes.
// The shapes are tried in order: bare array, {"response": [...]},
// {"vessels": [...]}. A body that is valid JSON but matches none of them
// yields an empty list; only malformed JSON is an error.
func DecodeList(body []byte) (*DecodeResult, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, fmt.Errorf("malformed vessel list body")
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err == nil && entries != nil {
		return normalizeEntries(entries, EnvelopeArray), nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapped); err == nil {
		for _, env := range []Envelope{EnvelopeResponse, EnvelopeVessels} {
			raw, ok := wrapped[string(env)]
			if !ok {
				continue
			}
			if err := json.Unmarshal(raw, &entries); err == nil && entries != nil {
				return normalizeEntries(entries, env), nil
			}
		}
	}

	return &DecodeResult{Records: []Record{}, Envelope: EnvelopeNone}, nil
}

func normalizeEntries(entries []json.RawMessage, env Envelope) *DecodeResult {
	result := &DecodeResult{
		Records:  make([]Record, 0, len(entries)),
		Envelope: env,
	}

	for _, entry := range entries {
		entry = bytes.TrimSpace(entry)
		if len(entry) == 0 || bytes.Equal(entry, jsonNull) || entry[0] != '{' {
			result.Dropped++
			continue
		}

		var raw RawRecord
		if err := json.Unmarshal(entry, &raw); err != nil {
			result.Dropped++
			continue
		}
		result.Records = append(result.Records, raw.Normalize())
	}

	return result
}
