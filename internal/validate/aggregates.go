package validate

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/sandbox"
)

// Aggregate helpers exposed to validator expressions (spec §4.I step 2).
// The sandbox has no function literals (cell/validator expressions are a
// loop-free, assignment-free subset of Lua: see internal/sandbox's
// package doc), so helpers that would elsewhere take a predicate closure
// instead take an explicit comparison value or field name; this is an
// Open Question resolution recorded in DESIGN.md.
func aggregateFuncs() map[string]sandbox.HostFunc {
	return map[string]sandbox.HostFunc{
		"unique":            hfUnique,
		"sum":               hfSum,
		"min":               hfMin,
		"max":               hfMax,
		"avg":               hfAvg,
		"count":             hfCount,
		"all":               hfAll,
		"any":               hfAny,
		"none":              hfNone,
		"filter":            hfFilter,
		"find":              hfFind,
		"lookup":            hfLookup,
		"groupBy":           hfGroupBy,
		"listMembersOfTag":  hfListMembersOfTag,
		"isMemberOfTag":     hfIsMemberOfTag,
	}
}

func elementsOf(v cellvalue.Value) ([]cellvalue.Value, error) {
	switch v.Kind() {
	case cellvalue.KindList, cellvalue.KindTuple:
		return v.List(), nil
	default:
		return nil, errors.Errorf("expected an array, got %s", v.Kind())
	}
}

func requireArgs(fn string, args []cellvalue.Value, n int) error {
	if len(args) < n {
		return errors.Errorf("%s: expected at least %d argument(s), got %d", fn, n, len(args))
	}
	return nil
}

func hfUnique(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("unique", args, 1); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	var out []cellvalue.Value
	for _, v := range items {
		dup := false
		for _, o := range out {
			if o.Equal(v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return cellvalue.List(out), nil
}

func numbersOf(items []cellvalue.Value) ([]float64, error) {
	nums := make([]float64, 0, len(items))
	for _, v := range items {
		switch v.Kind() {
		case cellvalue.KindInt:
			nums = append(nums, float64(v.Int()))
		case cellvalue.KindFloat:
			nums = append(nums, v.Float())
		default:
			return nil, errors.Errorf("expected a number, got %s", v.Kind())
		}
	}
	return nums, nil
}

func hfSum(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("sum", args, 1); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	nums, err := numbersOf(items)
	if err != nil {
		return cellvalue.Nil, err
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return cellvalue.Float(total), nil
}

func hfAvg(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("avg", args, 1); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	nums, err := numbersOf(items)
	if err != nil {
		return cellvalue.Nil, err
	}
	if len(nums) == 0 {
		return cellvalue.Nil, errors.New("avg: empty array")
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return cellvalue.Float(total / float64(len(nums))), nil
}

func hfMin(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("min", args, 1); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	nums, err := numbersOf(items)
	if err != nil {
		return cellvalue.Nil, err
	}
	if len(nums) == 0 {
		return cellvalue.Nil, errors.New("min: empty array")
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return cellvalue.Float(m), nil
}

func hfMax(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("max", args, 1); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	nums, err := numbersOf(items)
	if err != nil {
		return cellvalue.Nil, err
	}
	if len(nums) == 0 {
		return cellvalue.Nil, errors.New("max: empty array")
	}
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return cellvalue.Float(m), nil
}

// hfCount(array) returns its length; hfCount(array, value) counts elements
// equal to value.
func hfCount(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("count", args, 1); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	if len(args) == 1 {
		return cellvalue.Int(int64(len(items))), nil
	}
	n := 0
	for _, v := range items {
		if v.Equal(args[1]) {
			n++
		}
	}
	return cellvalue.Int(int64(n)), nil
}

func truthyVal(v cellvalue.Value) bool {
	if v.IsNil() {
		return false
	}
	if v.Kind() == cellvalue.KindBool {
		return v.Bool()
	}
	return true
}

func hfAll(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("all", args, 1); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	for _, v := range items {
		if !truthyVal(v) {
			return cellvalue.Bool(false), nil
		}
	}
	return cellvalue.Bool(true), nil
}

func hfAny(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("any", args, 1); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	for _, v := range items {
		if truthyVal(v) {
			return cellvalue.Bool(true), nil
		}
	}
	return cellvalue.Bool(false), nil
}

func hfNone(args []cellvalue.Value) (cellvalue.Value, error) {
	r, err := hfAny(args)
	if err != nil {
		return cellvalue.Nil, err
	}
	return cellvalue.Bool(!r.Bool()), nil
}

// hfFilter(array, value) returns the elements equal to value.
func hfFilter(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("filter", args, 2); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	var out []cellvalue.Value
	for _, v := range items {
		if v.Equal(args[1]) {
			out = append(out, v)
		}
	}
	return cellvalue.List(out), nil
}

// hfFind(array, value) returns the first element equal to value, or nil.
func hfFind(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("find", args, 2); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	for _, v := range items {
		if v.Equal(args[1]) {
			return v, nil
		}
	}
	return cellvalue.Nil, nil
}

// hfLookup(map, key) mirrors cellvalue.Value.Lookup as a callable helper.
func hfLookup(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("lookup", args, 2); err != nil {
		return cellvalue.Nil, err
	}
	if args[0].Kind() != cellvalue.KindMap {
		return cellvalue.Nil, errors.Errorf("lookup: expected a map, got %s", args[0].Kind())
	}
	v, _ := args[0].Lookup(args[1])
	return v, nil
}

// hfGroupBy(array-of-records, fieldName) groups records by the stringified
// value of fieldName, returning a map of group key -> array of records.
func hfGroupBy(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("groupBy", args, 2); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	if args[1].Kind() != cellvalue.KindString {
		return cellvalue.Nil, errors.New("groupBy: field name must be a string")
	}
	field := args[1].Str()

	order := []string{}
	groups := map[string][]cellvalue.Value{}
	for _, v := range items {
		if v.Kind() != cellvalue.KindRecord {
			return cellvalue.Nil, errors.Errorf("groupBy: expected an array of records, got %s", v.Kind())
		}
		fv, ok := v.Field(field)
		if !ok {
			continue
		}
		key := fv.StringKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], v)
	}
	sort.Strings(order)
	entries := make([]cellvalue.MapEntry, 0, len(order))
	for _, k := range order {
		entries = append(entries, cellvalue.MapEntry{Key: cellvalue.String(k), Value: cellvalue.List(groups[k])})
	}
	return cellvalue.Map(entries), nil
}

// tagFieldOf reads a record's tag-list field, treating any array-typed
// field holding the tag as the membership source.
func tagFieldOf(rec cellvalue.Value, tagField string) ([]cellvalue.Value, bool) {
	v, ok := rec.Field(tagField)
	if !ok {
		return nil, false
	}
	switch v.Kind() {
	case cellvalue.KindList, cellvalue.KindTuple:
		return v.List(), true
	default:
		return nil, false
	}
}

// hfListMembersOfTag(records, tagField, tagValue) returns the records whose
// tagField array contains tagValue.
func hfListMembersOfTag(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("listMembersOfTag", args, 3); err != nil {
		return cellvalue.Nil, err
	}
	items, err := elementsOf(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	if args[1].Kind() != cellvalue.KindString {
		return cellvalue.Nil, errors.New("listMembersOfTag: tag field name must be a string")
	}
	field := args[1].Str()
	target := args[2]

	var out []cellvalue.Value
	for _, rec := range items {
		tags, ok := tagFieldOf(rec, field)
		if !ok {
			continue
		}
		for _, t := range tags {
			if t.Equal(target) {
				out = append(out, rec)
				break
			}
		}
	}
	return cellvalue.List(out), nil
}

// hfIsMemberOfTag(record, tagField, tagValue) reports whether a single
// record's tagField array contains tagValue.
func hfIsMemberOfTag(args []cellvalue.Value) (cellvalue.Value, error) {
	if err := requireArgs("isMemberOfTag", args, 3); err != nil {
		return cellvalue.Nil, err
	}
	if args[0].Kind() != cellvalue.KindRecord {
		return cellvalue.Nil, errors.Errorf("isMemberOfTag: expected a record, got %s", args[0].Kind())
	}
	if args[1].Kind() != cellvalue.KindString {
		return cellvalue.Nil, errors.New("isMemberOfTag: tag field name must be a string")
	}
	tags, ok := tagFieldOf(args[0], args[1].Str())
	if !ok {
		return cellvalue.Bool(false), nil
	}
	for _, t := range tags {
		if t.Equal(args[2]) {
			return cellvalue.Bool(true), nil
		}
	}
	return cellvalue.Bool(false), nil
}
