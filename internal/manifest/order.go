package manifest

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// semver is a minimal x.y.z parse, since the corpus carries no dedicated
// semver library; comparison only needs the three numeric components spec
// §3 Manifest's req_op/req_version pairs exercise.
type semver struct {
	major, minor, patch int
}

func parseSemver(s string) (semver, error) {
	parts := strings.SplitN(s, ".", 3)
	var v semver
	nums := [3]*int{&v.major, &v.minor, &v.patch}
	for i, p := range parts {
		if i >= 3 {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return semver{}, errors.Errorf("invalid version %q", s)
		}
		*nums[i] = n
	}
	return v, nil
}

func (a semver) compare(b semver) int {
	switch {
	case a.major != b.major:
		return a.major - b.major
	case a.minor != b.minor:
		return a.minor - b.minor
	default:
		return a.patch - b.patch
	}
}

// satisfies reports whether actual satisfies op against required, per spec
// §3's operator set. ~ pins major.minor (patch >= required); ^ pins major
// (minor.patch >= required), the conventional tilde/caret semantics.
func satisfies(actual semver, op ReqOp, required semver) bool {
	switch op {
	case OpEqual:
		return actual.compare(required) == 0
	case OpGreater:
		return actual.compare(required) > 0
	case OpGreaterEq:
		return actual.compare(required) >= 0
	case OpLess:
		return actual.compare(required) < 0
	case OpLessEq:
		return actual.compare(required) <= 0
	case OpTilde:
		return actual.major == required.major && actual.minor == required.minor && actual.patch >= required.patch
	case OpCaret:
		return actual.major == required.major && actual.compare(required) >= 0
	default:
		return false
	}
}

// CheckDependencies verifies every manifest's Dependencies are satisfied by
// some other manifest in the set, returning one KindDependency-worthy error
// per unmet dependency (the caller decides whether to report or abort).
func CheckDependencies(manifests []*Manifest) []error {
	byID := make(map[string]*Manifest, len(manifests))
	for _, m := range manifests {
		byID[m.PackageID] = m
	}

	var errs []error
	for _, m := range manifests {
		for _, dep := range m.Dependencies {
			other, ok := byID[dep.PackageID]
			if !ok {
				errs = append(errs, errors.Errorf("%s depends on unknown package %s", m.PackageID, dep.PackageID))
				continue
			}
			actual, err := parseSemver(other.Version)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			required, err := parseSemver(dep.ReqVersion)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !satisfies(actual, dep.ReqOp, required) {
				errs = append(errs, errors.Errorf("%s requires %s %s %s, found %s",
					m.PackageID, dep.PackageID, dep.ReqOp, dep.ReqVersion, other.Version))
			}
		}
	}
	return errs
}

// Order implements spec §4.H's package load order: a topological sort over
// both Dependencies and LoadAfter edges (both mean "load after"), breaking
// ties alphabetically by package_id for determinism, and reporting a cycle
// rather than looping.
func Order(manifests []*Manifest) ([]string, error) {
	byID := make(map[string]*Manifest, len(manifests))
	indegree := make(map[string]int, len(manifests))
	after := make(map[string][]string, len(manifests)) // id -> ids that must load after it

	for _, m := range manifests {
		byID[m.PackageID] = m
		if _, ok := indegree[m.PackageID]; !ok {
			indegree[m.PackageID] = 0
		}
	}
	addEdge := func(before, afterID string) {
		if _, ok := byID[before]; !ok {
			return
		}
		after[before] = append(after[before], afterID)
		indegree[afterID]++
	}
	for _, m := range manifests {
		for _, dep := range m.Dependencies {
			addEdge(dep.PackageID, m.PackageID)
		}
		for _, before := range m.LoadAfter {
			addEdge(before, m.PackageID)
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	var order []string
	for len(ready) > 0 {
		sort.Strings(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var unlocked []string
		for _, next := range after[id] {
			indegree[next]--
			if indegree[next] == 0 {
				unlocked = append(unlocked, next)
			}
		}
		sort.Strings(unlocked)
		ready = append(ready, unlocked...)
	}

	if len(order) != len(manifests) {
		var stuck []string
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		sort.Strings(stuck)
		return nil, errors.Errorf("cyclic package dependency among: %s", strings.Join(stuck, ", "))
	}
	return order, nil
}
