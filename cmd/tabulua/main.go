// Command tabulua is the CLI collaborator of spec §6.4: it accepts a list
// of package directories plus formatting/export options, runs the
// orchestrator, and reports validator diagnostics.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	renameio "github.com/google/renameio/v2"

	"github.com/tabulua/tabulua"
	"github.com/tabulua/tabulua/internal/config"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/logging"
	"github.com/tabulua/tabulua/internal/validate"
)

// repeatableFlag collects every occurrence of a repeatable flag, the
// standard library's documented way to accept `--file=a --file=b`
// (flag.Value has no built-in "repeatable string" variant).
type repeatableFlag []string

func (r *repeatableFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatableFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

var (
	fileFormats repeatableFlag
	dataFormat  = flag.String("data", "", "default data format")
	exportDir   = flag.String("export-dir", "", "directory to write diagnostics/export output to")
	logLevel    = flag.String("log-level", "", "log level (debug, info, warn, error)")
	configPath  = flag.String("config", "", "path to a .tabulua.yml settings file")
)

func main() {
	flag.Var(&fileFormats, "file", "accepted file format (repeatable)")
	flag.Usage = printUsage
	flag.Parse()

	directories := flag.Args()
	if len(directories) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Resolve(*configPath, config.Config{
		FileFormats: []string(fileFormats),
		DataFormat:  *dataFormat,
		ExportDir:   *exportDir,
		LogLevel:    *logLevel,
	})
	if err != nil {
		exitWithError(err)
	}

	logger := logging.Discard()
	if cfg.ExportDir != "" {
		if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
			exitWithError(err)
		}
		logFile, err := os.Create(filepath.Join(cfg.ExportDir, "tabulua.log"))
		if err != nil {
			exitWithError(err)
		}
		defer logFile.Close()
		logger = logging.New(logFile, cfg.LogLevel)
	}

	sink := diag.NewSink(logger)
	result, err := tabulua.ProcessFiles(directories, sink)
	if err != nil {
		exitWithError(err)
	}

	result.ValidationWarnings.Range(func(_ int, w validate.Warning) bool {
		fmt.Fprintf(os.Stderr, "warn [%s] %s: %s\n", w.Scope, w.Validator, w.Message)
		return true
	})

	if cfg.ExportDir != "" {
		if err := writeDiagnostics(cfg.ExportDir, result); err != nil {
			exitWithError(err)
		}
	}

	if !result.ValidationPassed {
		os.Exit(1)
	}
}

// writeDiagnostics atomically writes a summary of the run's warnings, the
// way renameio guarantees callers never observe a half-written file. This
// matters here since a diagnostics file may be read by another process
// while this one is still running.
func writeDiagnostics(dir string, result *tabulua.ProcessResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "packages processed: %d\n", result.PackageOrder.Len())
	fmt.Fprintf(&b, "files processed: %d\n", result.TSVFiles.Len())
	fmt.Fprintf(&b, "validation passed: %t\n", result.ValidationPassed)
	result.ValidationWarnings.Range(func(_ int, w validate.Warning) bool {
		fmt.Fprintf(&b, "warn [%s] %s: %s\n", w.Scope, w.Validator, w.Message)
		return true
	})

	return renameio.WriteFile(filepath.Join(dir, "summary.txt"), []byte(b.String()), 0o644)
}

func printUsage() {
	f := flag.CommandLine.Output()
	fmt.Fprintf(f, "Usage: %s [OPTIONS] directory...\n", os.Args[0])
	flag.PrintDefaults()
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "%v\n", err)
	os.Exit(1)
}
