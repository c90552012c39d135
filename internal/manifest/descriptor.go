package manifest

import (
	"strings"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/codec"
	"github.com/tabulua/tabulua/internal/dataset"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/typereg"
)

// FileDescriptor is one row of a package's Files.tsv: it tells the
// orchestrator how to interpret a physical file before generic type
// inference would otherwise apply (spec §4.H "file descriptors").
type FileDescriptor struct {
	FileName        string // suffix matched case-insensitively against a candidate path
	TypeName        string
	Priority        int
	PublishContext  string
	PublishColumn   string
	JoinInto        string
	JoinColumn      string
	Export          bool
	JoinedTypeName  string
	RowValidators   []ValidatorSpec
	FileValidators  []ValidatorSpec
}

// LoadDescriptors parses a package's Files.tsv via the regular dataset
// pipeline (it is an ordinary typed TSV, not a specialized format like
// Manifest.transposed.tsv) and extracts its rows as FileDescriptors.
func LoadDescriptors(sink *diag.Sink, path string, lines []codec.Line, reg *typereg.Registry) ([]*FileDescriptor, error) {
	ds, err := dataset.Build(sink.ForFile(path, false), path, lines, reg, false)
	if err != nil {
		return nil, err
	}

	col := func(row *dataset.Row, name string) string {
		v, ok := row.Get(name)
		if !ok || v.IsNil() {
			return ""
		}
		return v.Str()
	}
	intCol := func(row *dataset.Row, name string) int {
		v, ok := row.Get(name)
		if !ok || v.IsNil() {
			return 0
		}
		return int(v.Int())
	}
	boolCol := func(row *dataset.Row, name string) bool {
		v, ok := row.Get(name)
		if !ok || v.IsNil() {
			return false
		}
		return v.Kind() == cellvalue.KindBool && v.Bool()
	}

	out := make([]*FileDescriptor, 0, len(ds.Rows()))
	for _, row := range ds.Rows() {
		fd := &FileDescriptor{
			FileName:       col(row, "filename"),
			TypeName:       col(row, "type"),
			Priority:       intCol(row, "priority"),
			PublishContext: col(row, "publish_context"),
			PublishColumn:  col(row, "publish_column"),
			JoinInto:       col(row, "join_into"),
			JoinColumn:     col(row, "join_column"),
			Export:         boolCol(row, "export"),
			JoinedTypeName: col(row, "joined_type_name"),
		}
		if raw := col(row, "row_validators"); raw != "" {
			if specs, err := parseValidatorSpecs(raw); err == nil {
				fd.RowValidators = specs
			}
		}
		if raw := col(row, "file_validators"); raw != "" {
			if specs, err := parseValidatorSpecs(raw); err == nil {
				fd.FileValidators = specs
			}
		}
		out = append(out, fd)
	}

	// Priority-ordering rule (SPEC_FULL.md supplemented feature): keep
	// descriptors in ascending priority, stable for equal priorities. Match
	// does not depend on this order; it picks the longest suffix.
	sortDescriptorsByPriority(out)
	return out, nil
}

func sortDescriptorsByPriority(ds []*FileDescriptor) {
	for i := 1; i < len(ds); i++ {
		j := i
		for j > 0 && ds[j-1].Priority > ds[j].Priority {
			ds[j-1], ds[j] = ds[j], ds[j-1]
			j--
		}
	}
}

// Match resolves a package-relative path against a package's descriptors by
// case-insensitive suffix, preferring the longest (most specific) suffix
// match. Descriptors never see paths outside their declaring package, so
// the "descriptors may only target files inside their own package" rule
// (Open Question resolution, DESIGN.md) holds structurally: a descriptor
// loaded for package P is only ever matched against P's own relative paths.
func Match(descriptors []*FileDescriptor, relPath string) (*FileDescriptor, bool) {
	lower := strings.ToLower(relPath)
	var best *FileDescriptor
	bestLen := -1
	for _, d := range descriptors {
		suffix := strings.ToLower(d.FileName)
		if strings.HasSuffix(lower, suffix) && len(suffix) > bestLen {
			best = d
			bestLen = len(suffix)
		}
	}
	return best, best != nil
}
