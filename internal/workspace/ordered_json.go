package workspace

import (
	"bytes"
	"encoding/json"
)

// orderedObject decodes a JSON object while preserving key declaration
// order, since ExportsTree.Entries must retain that order (spec.md §3:
// "Patterns are stored in declaration order").
type orderedObject struct {
	pairs []orderedPair
}

type orderedPair struct {
	key   string
	value json.RawMessage
}

func (o *orderedObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return errNotObject
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return errNotObject
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		o.pairs = append(o.pairs, orderedPair{key: key, value: raw})
	}

	return nil
}

var errNotObject = jsonError("expected a JSON object")

type jsonError string

func (e jsonError) Error() string { return string(e) }
