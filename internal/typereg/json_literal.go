package typereg

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
)

// Composite cell literals (arrays, maps, tuples, records reached outside
// the exploded-column path) are encoded as JSON text. spec.md specifies no
// literal syntax for this case; JSON is the one unambiguous, recursively
// composable text format available without pulling in a bespoke grammar,
// and Go's encoding/json already gives token-level access needed to
// preserve object key order on decode. See DESIGN.md.

type jsonKV struct{ key, value string }

func decodeJSONList(text string) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, errors.Wrap(err, "invalid JSON array literal")
	}
	out := make([]string, len(raw))
	for i, r := range raw {
		out[i] = jsonRawToText(r)
	}
	return out, nil
}

func decodeJSONObject(text string) ([]jsonKV, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "invalid JSON object literal")
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, errors.New("expected JSON object literal")
	}
	var out []jsonKV
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.New("object key must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, jsonKV{key: key, value: jsonRawToText(raw)})
	}
	return out, nil
}

func decodeJSONObjectOrdered(text string, names []string) (map[string]string, error) {
	kvs, err := decodeJSONObject(text)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		byName[kv.key] = kv.value
	}
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return nil, errors.Errorf("missing field %q", name)
		}
	}
	return byName, nil
}

func jsonRawToText(r json.RawMessage) string {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(r))
}

func encodeJSON(v cellvalue.Value) string {
	b, err := json.Marshal(valueToJSON(v))
	if err != nil {
		return v.GoString()
	}
	return string(b)
}

func valueToJSON(v cellvalue.Value) interface{} {
	switch v.Kind() {
	case cellvalue.KindNil:
		return nil
	case cellvalue.KindBool:
		return v.Bool()
	case cellvalue.KindInt:
		return v.Int()
	case cellvalue.KindFloat:
		return v.Float()
	case cellvalue.KindString:
		return v.Str()
	case cellvalue.KindList, cellvalue.KindTuple:
		items := v.List()
		out := make([]interface{}, len(items))
		for i, it := range items {
			out[i] = valueToJSON(it)
		}
		return out
	case cellvalue.KindMap:
		out := make(map[string]interface{}, len(v.Entries()))
		for _, e := range v.Entries() {
			out[e.Key.StringKey()] = valueToJSON(e.Value)
		}
		return out
	case cellvalue.KindRecord:
		out := make(map[string]interface{}, len(v.Fields()))
		for _, f := range v.Fields() {
			out[f.Name] = valueToJSON(f.Value)
		}
		return out
	default:
		return nil
	}
}
