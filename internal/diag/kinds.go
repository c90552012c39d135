// Package diag implements the structured diagnostics accumulator ("badVal")
// described in spec §4.J, and the six error-taxonomy kinds from spec §7.
package diag

import goerrors "gopkg.in/src-d/go-errors.v1"

// Kind is a go-errors.v1 error kind: a reusable error category that supports
// both construction (Kind.New) and membership testing (Kind.Is(err)).
type Kind = goerrors.Kind

// The six error-taxonomy kinds from spec.md §7. Each is a go-errors.v1 Kind,
// so callers can test membership with Kind.Is(err) the same way a wrapped
// file error is tested with os.IsNotExist(err).
var (
	KindStructural  = goerrors.NewKind("structural error: %s")
	KindSchema      = goerrors.NewKind("schema error: %s")
	KindValue       = goerrors.NewKind("value error: %s")
	KindExpression  = goerrors.NewKind("expression error: %s")
	KindValidation  = goerrors.NewKind("validation error: %s")
	KindDependency  = goerrors.NewKind("dependency error: %s")
)
