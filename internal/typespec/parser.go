package typespec

import (
	"strings"

	"github.com/pkg/errors"
)

// cursor is a minimal rune cursor sized for a grammar with a handful of
// fixed productions instead of an open-ended regular language.
type cursor struct {
	s   []rune
	pos int
}

func newCursor(s string) *cursor { return &cursor{s: []rune(s)} }

func (c *cursor) eof() bool { return c.pos >= len(c.s) }

func (c *cursor) peek() rune {
	if c.eof() {
		return 0
	}
	return c.s[c.pos]
}

func (c *cursor) rest() string { return string(c.s[c.pos:]) }

// Parse parses spec as a complete type spec; any unconsumed trailing input
// is an error. This is the non-partial mode of spec §4.B.
func Parse(spec string) (*Node, error) {
	node, remainder, err := ParsePartial(spec)
	if err != nil {
		return nil, err
	}
	if remainder != "" {
		return nil, errors.Errorf("type spec: unexpected trailing input %q", remainder)
	}
	return node, nil
}

// ParsePartial consumes a valid type-spec prefix of spec and returns the
// unconsumed remainder, used by header parsing to split
// "name:TYPE:default_expr" (spec §4.B "partial" variant).
func ParsePartial(spec string) (*Node, string, error) {
	c := newCursor(spec)
	node, err := parseUnion(c)
	if err != nil {
		return nil, "", err
	}
	return node, c.rest(), nil
}

func parseUnion(c *cursor) (*Node, error) {
	start := c.pos
	first, err := parseTerm(c)
	if err != nil {
		return nil, err
	}

	alts := []*Node{first}
	for c.peek() == '|' {
		c.pos++
		next, err := parseTerm(c)
		if err != nil {
			return nil, err
		}
		alts = append(alts, next)
	}

	if len(alts) == 1 {
		return first, nil
	}

	if err := validateUnionOrder(alts); err != nil {
		return nil, err
	}

	return &Node{Tag: TagUnion, Alternatives: alts, Source: string(c.s[start:c.pos])}, nil
}

// validateUnionOrder enforces spec §4.B: "nil must be last; a string
// alternative must be last or second-to-last".
func validateUnionOrder(alts []*Node) error {
	for i, a := range alts {
		if a.Tag == TagName && a.Name == "nil" && i != len(alts)-1 {
			return errors.New("type spec: nil must be the last union alternative")
		}
	}
	for i, a := range alts {
		if a.Tag == TagName && a.Name == "string" {
			if i != len(alts)-1 && i != len(alts)-2 {
				return errors.New("type spec: string union alternative must be last or second-to-last")
			}
		}
	}
	return nil
}

func parseTerm(c *cursor) (*Node, error) {
	if c.peek() == '{' {
		return parseBraced(c)
	}
	return parseName(c)
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func parseIdent(c *cursor) (string, error) {
	start := c.pos
	if c.eof() || !isIdentStart(c.peek()) {
		return "", errors.Errorf("type spec: expected identifier at %q", c.rest())
	}
	for !c.eof() && isIdentChar(c.peek()) {
		c.pos++
	}
	return string(c.s[start:c.pos]), nil
}

func parseName(c *cursor) (*Node, error) {
	start := c.pos
	name, err := parseIdent(c)
	if err != nil {
		return nil, err
	}

	if name == "self" && c.peek() == '.' {
		c.pos++
		seg, err := parseIdent(c)
		if err != nil {
			return nil, errors.Wrap(err, "type spec: malformed self-reference")
		}
		full := "self." + seg
		return &Node{Tag: TagSelfRef, Name: full, Source: string(c.s[start:c.pos])}, nil
	}

	return &Node{Tag: TagName, Name: name, Source: string(c.s[start:c.pos])}, nil
}

func parseBraced(c *cursor) (*Node, error) {
	start := c.pos
	c.pos++ // consume '{'
	body, err := readBalanced(c)
	if err != nil {
		return nil, err
	}
	// c is now positioned just after the matching '}'.

	node, err := parseBracedBody(body)
	if err != nil {
		return nil, err
	}
	node.Source = string(c.s[start:c.pos])
	return node, nil
}

// readBalanced reads up to (and consumes) the '}' matching the '{' the
// cursor just passed, respecting nested braces, and returns the body text.
func readBalanced(c *cursor) (string, error) {
	depth := 1
	start := c.pos
	for !c.eof() {
		switch c.s[c.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				body := string(c.s[start:c.pos])
				c.pos++
				return body, nil
			}
		}
		c.pos++
	}
	return "", errors.New("type spec: unterminated '{'")
}

func parseBracedBody(body string) (*Node, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return &Node{Tag: TagTable}, nil
	}

	switch {
	case strings.HasPrefix(trimmed, "enum:"):
		return parseEnumBody(trimmed[len("enum:"):])
	case strings.HasPrefix(trimmed, "extends,"):
		return parseExtendsCommaBody(trimmed[len("extends,"):])
	case strings.HasPrefix(trimmed, "extends:"):
		return parseExtendsColonBody(trimmed[len("extends:"):])
	default:
		return parseGeneralBody(trimmed)
	}
}

func parseEnumBody(rest string) (*Node, error) {
	labels := strings.Split(rest, "|")
	for i, l := range labels {
		labels[i] = strings.TrimSpace(l)
		if labels[i] == "" {
			return nil, errors.New("type spec: empty enum label")
		}
	}
	return &Node{Tag: TagEnum, EnumLabels: labels}, nil
}

func parseExtendsCommaBody(rest string) (*Node, error) {
	elems := splitTopLevel(rest, ',')
	if len(elems) == 0 {
		return nil, errors.New("type spec: {extends,...} requires at least one type")
	}
	if len(elems) == 1 {
		base, err := parseFullTerm(elems[0])
		if err != nil {
			return nil, err
		}
		return &Node{Tag: TagName, Extends: base}, nil
	}

	baseName, err := parseFullTerm(elems[0])
	if err != nil {
		return nil, errors.Wrap(err, "type spec: {extends,BaseTuple,...} base")
	}
	fields := make([]*Node, 0, len(elems)-1)
	for _, e := range elems[1:] {
		f, err := parseFullTerm(e)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return &Node{Tag: TagTuple, Extends: baseName, TupleFields: fields}, nil
}

func parseExtendsColonBody(rest string) (*Node, error) {
	elems := splitTopLevel(rest, ',')
	if len(elems) == 0 {
		return nil, errors.New("type spec: {extends:...} requires a base type")
	}
	if len(elems) == 1 && findTopLevelColon(elems[0]) < 0 {
		base, err := parseFullTerm(elems[0])
		if err != nil {
			return nil, err
		}
		return &Node{Tag: TagName, Extends: base}, nil
	}

	baseName, err := parseFullTerm(elems[0])
	if err != nil {
		return nil, errors.Wrap(err, "type spec: {extends:BaseRecord,...} base")
	}

	fields := make([]Field, 0, len(elems)-1)
	for _, e := range elems[1:] {
		idx := findTopLevelColon(e)
		if idx < 0 {
			return nil, errors.New("type spec: {extends:BaseRecord,...} fields must be name:Type")
		}
		fname := strings.TrimSpace(e[:idx])
		ftype, err := parseFullTerm(e[idx+1:])
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: fname, Type: ftype})
	}
	return &Node{Tag: TagRecord, Extends: baseName, RecordFields: fields}, nil
}

func parseGeneralBody(body string) (*Node, error) {
	elems := splitTopLevel(body, ',')

	type parsedElem struct {
		name    string
		hasName bool
		typ     *Node
	}
	parsed := make([]parsedElem, 0, len(elems))
	for _, e := range elems {
		idx := findTopLevelColon(e)
		if idx < 0 {
			t, err := parseFullTerm(e)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, parsedElem{typ: t})
		} else {
			name := strings.TrimSpace(e[:idx])
			t, err := parseFullTerm(e[idx+1:])
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, parsedElem{name: name, hasName: true, typ: t})
		}
	}

	// A single colon-bearing element is ambiguous between {K:V} (map, where
	// the left side is a type) and a one-field record; spec §4.B resolves
	// this in favor of map. Re-parse the left side as a type for that case.

	namedCount := 0
	for _, p := range parsed {
		if p.hasName {
			namedCount++
		}
	}
	if namedCount != 0 && namedCount != len(parsed) {
		return nil, errors.New("type spec: braced body mixes colon and non-colon elements")
	}

	switch {
	case len(parsed) == 1 && !parsed[0].hasName:
		return &Node{Tag: TagArray, Elem: parsed[0].typ}, nil
	case len(parsed) == 1 && parsed[0].hasName:
		keyType, err := parseFullTerm(parsed[0].name)
		if err != nil {
			return nil, err
		}
		return &Node{Tag: TagMap, KeyType: keyType, ValueType: parsed[0].typ}, nil
	case namedCount == 0:
		fields := make([]*Node, len(parsed))
		for i, p := range parsed {
			fields[i] = p.typ
		}
		return &Node{Tag: TagTuple, TupleFields: fields}, nil
	default:
		fields := make([]Field, len(parsed))
		for i, p := range parsed {
			fields[i] = Field{Name: p.name, Type: p.typ}
		}
		return &Node{Tag: TagRecord, RecordFields: fields}, nil
	}
}

// parseFullTerm parses s as a complete union-or-term type spec, requiring
// every rune be consumed. Used for sub-expressions split out of a braced
// body, where trailing input indicates malformed nesting.
func parseFullTerm(s string) (*Node, error) {
	return Parse(strings.TrimSpace(s))
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside {}.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth := 0
	last := 0
	runes := []rune(s)
	for i, r := range runes {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, string(runes[last:i]))
				last = i + 1
			}
		}
	}
	parts = append(parts, string(runes[last:]))
	return parts
}

// findTopLevelColon returns the index of the first ':' not nested inside {}.
func findTopLevelColon(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
