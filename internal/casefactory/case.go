package casefactory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fz-run/fz/internal/value"
	"github.com/fz-run/fz/pkg/cerr"
)

// Case is one concrete variable-value combination.
type Case struct {
	Values map[string]value.Scalar
	Keys   []string // key order for directory naming (see Expand, ExpandRows)
}

// Key builds the case's human-readable directory name:
// "<k1>=<v1>,<k2>=<v2>,…" in Keys order.
func (c *Case) Key() string {
	if len(c.Keys) == 0 {
		return ""
	}
	parts := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		parts[i] = fmt.Sprintf("%s=%s", k, c.Values[k].Canonical())
	}
	return strings.Join(parts, ",")
}

// VarSpec is a variable specification in mapping form: name -> one or more
// values. A single-element Values slice behaves like a scalar but still
// participates in directory naming once the mapping is non-empty.
type VarSpec struct {
	Name   string
	Values []value.Scalar
}

// Expand computes the case sequence for the mapping form: the full
// Cartesian product of sequence-valued entries with scalar entries held
// fixed, iteration order the declaration order of keys with the last key
// varying fastest.
func Expand(specs []VarSpec) ([]Case, error) {
	if len(specs) == 0 {
		return []Case{{Values: map[string]value.Scalar{}}}, nil
	}
	for _, s := range specs {
		if len(s.Values) == 0 {
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("variable %q has no values", s.Name), nil)
		}
	}

	keys := make([]string, len(specs))
	for i, s := range specs {
		keys[i] = s.Name
	}

	total := 1
	for _, s := range specs {
		total *= len(s.Values)
	}

	cases := make([]Case, 0, total)
	indices := make([]int, len(specs))
	for {
		values := make(map[string]value.Scalar, len(specs))
		for i, s := range specs {
			values[s.Name] = s.Values[indices[i]]
		}
		cases = append(cases, Case{Values: values, Keys: append([]string(nil), keys...)})

		// Advance indices, last key varying fastest.
		pos := len(specs) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(specs[pos].Values) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}
	return cases, nil
}

// ExpandRows builds the case sequence for the explicit row-set form: the
// rows in order, unchanged. Every case's Keys are the first row's names
// sorted alphabetically; the key order of the input rows is not kept.
func ExpandRows(rows []map[string]value.Scalar) ([]Case, error) {
	if len(rows) == 0 {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "row set must not be empty", nil)
	}
	var keys []string
	for k := range rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cases := make([]Case, 0, len(rows))
	for _, row := range rows {
		cases = append(cases, Case{Values: row, Keys: append([]string(nil), keys...)})
	}
	return cases, nil
}

// ValidateUnique checks that no two cases in seq share a directory name.
func ValidateUnique(seq []Case) error {
	seen := make(map[string]bool, len(seq))
	for _, c := range seq {
		k := c.Key()
		if seen[k] {
			return cerr.New(cerr.KindConfig, cerr.AlreadyExists, fmt.Sprintf("duplicate case directory name %q", k), nil)
		}
		seen[k] = true
	}
	return nil
}
