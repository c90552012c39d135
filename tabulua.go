// Package tabulua implements the orchestrator of spec §4.L: given a set
// of package directories, it resolves manifests and package order,
// matches file descriptors, decodes and builds every data file, runs
// validators, and returns a sealed ProcessResult.
package tabulua

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellparse"
	"github.com/tabulua/tabulua/internal/codec"
	"github.com/tabulua/tabulua/internal/dataset"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/manifest"
	"github.com/tabulua/tabulua/internal/readonly"
	"github.com/tabulua/tabulua/internal/template"
	"github.com/tabulua/tabulua/internal/typereg"
	"github.com/tabulua/tabulua/internal/validate"
)

// candidateExtensions is the known extension set step 2 collects
// (spec §4.H step 1: "known extension set").
var candidateExtensions = []string{".transposed.tsv", ".tsv"}

// manifestFileName and descriptorFileName are the two fixed, well-known
// file names spec §4.H step 2/5 singles out for special handling; every
// other candidate file is ordinary package data.
const (
	manifestFileName   = "Manifest.transposed.tsv"
	descriptorFileName = "Files.tsv"
)

// JoinMeta is the per-file join metadata a descriptor row may declare
// (spec §4.H step 6: "join metadata (JoinInto, JoinColumn, Export,
// JoinedTypeName)").
type JoinMeta struct {
	JoinInto       string
	JoinColumn     string
	Export         bool
	JoinedTypeName string
}

// ProcessResult is the sealed, read-only outcome of a run (spec §3
// ProcessResult). Every collection is wrapped with internal/readonly so
// consumers can iterate but never mutate it after the orchestrator
// returns (spec §5 "after the ProcessResult is returned, all public
// structures are sealed immutable").
type ProcessResult struct {
	RawFiles         readonly.Map[string, string]
	TSVFiles         readonly.Map[string, *dataset.Dataset]
	PackageOrder     readonly.Slice[string]
	Packages         readonly.Map[string, *manifest.Manifest]
	JoinMeta         readonly.Map[string, JoinMeta]
	File2Dir         readonly.Map[string, string]
	ValidationPassed bool
	ValidationWarnings readonly.Slice[validate.Warning]
}

// candidateFile is one file discovered under a package directory.
type candidateFile struct {
	absPath string
	relPath string // relative to the file's package directory
	pkgDir  string
}

// ProcessFiles implements spec §4.L's processFiles. sink may be nil (step
// 1: "initialize badVal if absent"), in which case a fresh discarding
// sink is constructed. Returns (nil, err) if package resolution fails
// (step 3's "abort on failure").
func ProcessFiles(directories []string, sink *diag.Sink) (*ProcessResult, error) {
	if sink == nil {
		sink = diag.NewSink(nil)
	}

	reg := typereg.NewRegistry(cellparse.Builtins())

	manifests, pkgDirByID, err := loadManifests(sink, directories)
	if err != nil {
		return nil, err
	}

	if errs := manifest.CheckDependencies(manifests); len(errs) > 0 {
		return nil, errors.Wrap(errs[0], "dependency resolution failed")
	}
	order, err := manifest.Order(manifests)
	if err != nil {
		return nil, err
	}

	manifestByID := make(map[string]*manifest.Manifest, len(manifests))
	for _, m := range manifests {
		manifestByID[m.PackageID] = m
	}

	kinds := newTypeKindTracker()
	rawFiles := map[string]string{}
	tsvFiles := map[string]*dataset.Dataset{}
	joinMeta := map[string]JoinMeta{}
	file2Dir := map[string]string{}

	type packageFiles struct {
		rows map[string][]*dataset.Row
		descByFile map[string]*manifest.FileDescriptor
		fileOrder []string
	}
	filesByPkg := make(map[string]*packageFiles, len(order))

	for _, pkgID := range order {
		m := manifestByID[pkgID]
		pkgDir := pkgDirByID[pkgID]

		// Step 4: register custom types/code libraries before any data
		// file in the package is parsed.
		registerCustomTypes(sink.ForFile(m.Path, false), reg, kinds, m)

		descriptors, err := loadDescriptors(sink, reg, pkgDir, m.PackageID)
		if err != nil {
			return nil, err
		}

		candidates, err := collectPackageFiles(pkgDir)
		if err != nil {
			return nil, err
		}

		ordered := orderFiles(candidates, descriptors)

		pf := &packageFiles{rows: map[string][]*dataset.Row{}, descByFile: map[string]*manifest.FileDescriptor{}}
		filesByPkg[pkgID] = pf

		for _, cf := range ordered {
			raw, err := os.ReadFile(cf.absPath)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s", cf.absPath)
			}
			rawText := string(raw)
			rawFiles[cf.relPath] = rawText
			file2Dir[cf.relPath] = pkgDir

			desc, matched := manifest.Match(descriptors, cf.relPath)
			if matched {
				pf.descByFile[cf.relPath] = desc
				if desc.JoinInto != "" {
					joinMeta[cf.relPath] = JoinMeta{
						JoinInto:       desc.JoinInto,
						JoinColumn:     desc.JoinColumn,
						Export:         desc.Export,
						JoinedTypeName: desc.JoinedTypeName,
					}
				}
			}

			preprocessed, err := template.Process(rawText)
			if err != nil {
				return nil, errors.Wrapf(err, "template pass on %s", cf.relPath)
			}

			transposed := strings.HasSuffix(strings.ToLower(cf.relPath), ".transposed.tsv")
			lines, err := codec.Decode(preprocessed)
			if err != nil {
				return nil, errors.Wrapf(err, "decoding %s", cf.relPath)
			}
			if transposed {
				lines = codec.Transpose(lines)
			}

			fileSink := sink.ForFile(cf.relPath, transposed)
			ds, err := dataset.Build(fileSink, cf.relPath, lines, reg, transposed)
			if err != nil {
				return nil, err
			}
			tsvFiles[cf.relPath] = ds
			pf.fileOrder = append(pf.fileOrder, cf.relPath)
			pf.rows[cf.relPath] = ds.Rows()

			declared := declaredTypeName(desc, cf.relPath)
			registerFileType(fileSink, reg, kinds, declared, ds)
		}
	}

	// Step 6: run validators row -> file -> package.
	passed := true
	var warnings []validate.Warning

	for _, pkgID := range order {
		m := manifestByID[pkgID]
		pf := filesByPkg[pkgID]

		for _, relPath := range pf.fileOrder {
			desc := pf.descByFile[relPath]
			rows := pf.rows[relPath]

			if desc != nil && len(desc.RowValidators) > 0 {
				for i, row := range rows {
					ok, ws := validate.RunRowValidators(sink.ForFile(relPath, false), desc.RowValidators, row, rows, i, relPath, pkgID)
					warnings = append(warnings, ws...)
					if !ok {
						passed = false
					}
				}
			}
			if desc != nil && len(desc.FileValidators) > 0 {
				ok, ws := validate.RunFileValidators(sink.ForFile(relPath, false), desc.FileValidators, rows, relPath, pkgID)
				warnings = append(warnings, ws...)
				if !ok {
					passed = false
				}
			}
		}

		if len(m.PackageValidators) > 0 {
			ok, ws := validate.RunPackageValidators(sink.ForFile(m.Path, false), m.PackageValidators, pf.rows, pkgID)
			warnings = append(warnings, ws...)
			if !ok {
				passed = false
			}
		}
	}

	return &ProcessResult{
		RawFiles:           readonly.NewMap(rawFiles, sortedKeys(rawFiles)),
		TSVFiles:           readonly.NewMap(tsvFiles, sortedKeys(tsvFiles)),
		PackageOrder:       readonly.NewSlice(order),
		Packages:           readonly.NewMap(manifestByID, order),
		JoinMeta:           readonly.NewMap(joinMeta, sortedKeys(joinMeta)),
		File2Dir:           readonly.NewMap(file2Dir, sortedKeys(file2Dir)),
		ValidationPassed:   passed,
		ValidationWarnings: readonly.NewSlice(warnings),
	}, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// loadManifests implements spec §4.H steps 1-2: collect candidate files
// under each given directory, find and parse each package's
// Manifest.transposed.tsv.
func loadManifests(sink *diag.Sink, directories []string) ([]*manifest.Manifest, map[string]string, error) {
	manifests := make([]*manifest.Manifest, 0, len(directories))
	pkgDirByID := make(map[string]string, len(directories))

	for _, dir := range directories {
		path := filepath.Join(dir, manifestFileName)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "reading %s", path)
		}
		m, err := manifest.Parse(sink.ForFile(path, true), path, string(data))
		if err != nil {
			return nil, nil, err
		}
		manifests = append(manifests, m)
		pkgDirByID[m.PackageID] = dir
	}
	return manifests, pkgDirByID, nil
}

// loadDescriptors reads a package's Files.tsv, if present; a package
// without one simply has no descriptors (every file in it is "remaining").
func loadDescriptors(sink *diag.Sink, reg *typereg.Registry, pkgDir, pkgID string) ([]*manifest.FileDescriptor, error) {
	path := filepath.Join(pkgDir, descriptorFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	lines, err := codec.Decode(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return manifest.LoadDescriptors(sink.ForFile(path, false), path, lines, reg)
}

// collectPackageFiles implements spec §4.H step 1 for a single package
// directory: every file with a known extension, excluding the manifest
// and descriptor files themselves (those are consumed by steps 2 and 5,
// never processed again as ordinary data).
func collectPackageFiles(pkgDir string) ([]candidateFile, error) {
	var out []candidateFile
	err := filepath.WalkDir(pkgDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.EqualFold(name, manifestFileName) || strings.EqualFold(name, descriptorFileName) {
			return nil
		}
		if !hasKnownExtension(name) {
			return nil
		}
		rel, err := filepath.Rel(pkgDir, path)
		if err != nil {
			return err
		}
		out = append(out, candidateFile{absPath: path, relPath: filepath.ToSlash(rel), pkgDir: pkgDir})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "collecting files under %s", pkgDir)
	}
	return out, nil
}

func hasKnownExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range candidateExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// orderFiles implements spec §4.L step 5's ordering: files matched by a
// descriptor are processed first (in ascending descriptor priority:
// "they define priorities, types, join metadata"), then unmatched files,
// each group broken alphabetically.
func orderFiles(candidates []candidateFile, descriptors []*manifest.FileDescriptor) []candidateFile {
	type scored struct {
		cf       candidateFile
		priority int
		matched  bool
	}
	scoredFiles := make([]scored, len(candidates))
	for i, cf := range candidates {
		desc, ok := manifest.Match(descriptors, cf.relPath)
		if ok {
			scoredFiles[i] = scored{cf: cf, priority: desc.Priority, matched: true}
		} else {
			scoredFiles[i] = scored{cf: cf, priority: 1, matched: false}
		}
	}
	sort.SliceStable(scoredFiles, func(i, j int) bool {
		a, b := scoredFiles[i], scoredFiles[j]
		if a.matched != b.matched {
			return a.matched // matched files sort first
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.cf.relPath < b.cf.relPath
	})

	out := make([]candidateFile, len(scoredFiles))
	for i, s := range scoredFiles {
		out[i] = s.cf
	}
	return out
}

func declaredTypeName(desc *manifest.FileDescriptor, relPath string) string {
	if desc != nil && desc.TypeName != "" {
		return desc.TypeName
	}
	base := filepath.Base(relPath)
	base = strings.TrimSuffix(base, ".transposed.tsv")
	base = strings.TrimSuffix(base, ".tsv")
	return base
}
