// Package colname parses the column-name syntax described in spec §6.2:
// plain identifiers, dotted explode paths, and bracketed collection
// forms (`base[N]` for an array element or map key, `base[N]=` for a map
// value). Shared by internal/explode (structure synthesis) and
// internal/dataset (column-name validation), since both need the same
// parse without depending on each other.
package colname

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var segmentPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(\[(\d+)\](=)?)?$`)

// Segment is one dot-separated piece of a column name.
type Segment struct {
	Name         string
	IsCollection bool
	Index        int // 1-based; only meaningful when IsCollection
	IsMapValue   bool
}

// Ref is a fully parsed column name.
type Ref struct {
	Segments []Segment
	Published bool // trailing "!" was present and stripped (spec §6.2)
}

// Last returns the final segment, the one that may carry a collection suffix.
func (r Ref) Last() Segment { return r.Segments[len(r.Segments)-1] }

// BasePath renders the dotted path up to and including the base name of
// the last segment (collection index/suffix stripped), used as the
// grouping key for collection columns sharing the same collection root.
func (r Ref) BasePath() string {
	parts := make([]string, len(r.Segments))
	for i, s := range r.Segments {
		parts[i] = s.Name
	}
	return strings.Join(parts, ".")
}

// ParentPath renders the dotted path of every segment except the last,
// the tree position a column's value is attached under.
func (r Ref) ParentPath() []string {
	if len(r.Segments) <= 1 {
		return nil
	}
	parts := make([]string, len(r.Segments)-1)
	for i, s := range r.Segments[:len(r.Segments)-1] {
		parts[i] = s.Name
	}
	return parts
}

// IsDotted reports whether the name explodes into a nested path (more
// than one segment).
func (r Ref) IsDotted() bool { return len(r.Segments) > 1 }

// IsCollection reports whether the name's final segment carries a
// bracketed collection index.
func (r Ref) IsCollection() bool { return r.Last().IsCollection }

// Parse parses raw (with any trailing "!" publish marker already
// recognized and stripped by the caller, or present here for convenience)
// into a Ref. A bare identifier with no dot and no bracket yields a
// single-segment, non-collection Ref.
func Parse(raw string) (Ref, error) {
	name := raw
	published := false
	if strings.HasSuffix(name, "!") {
		published = true
		name = strings.TrimSuffix(name, "!")
	}
	if name == "" {
		return Ref{}, errors.New("column name: empty")
	}

	pieces := strings.Split(name, ".")
	segments := make([]Segment, len(pieces))
	for i, p := range pieces {
		seg, err := parseSegment(p)
		if err != nil {
			return Ref{}, errors.Wrapf(err, "column name %q", raw)
		}
		segments[i] = seg
	}
	return Ref{Segments: segments, Published: published}, nil
}

func parseSegment(p string) (Segment, error) {
	m := segmentPattern.FindStringSubmatch(p)
	if m == nil {
		return Segment{}, errors.Errorf("invalid segment %q", p)
	}
	seg := Segment{Name: m[1]}
	if m[2] != "" {
		idx, err := strconv.Atoi(m[3])
		if err != nil || idx < 1 {
			return Segment{}, errors.Errorf("invalid collection index in %q", p)
		}
		seg.IsCollection = true
		seg.Index = idx
		seg.IsMapValue = m[4] == "="
	}
	return seg, nil
}

// IsValidPlainName reports whether raw (after any "!" is stripped) is a
// well-formed identifier, dotted path, or bracketed collection form
// (spec §3 Column: "Column names must be either identifiers, dotted
// paths, or bracketed collection forms").
func IsValidPlainName(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// IsIdentifier reports whether s is a bare identifier with no dots or
// brackets.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
