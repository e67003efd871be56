package cliapp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fz-run/fz/internal/casefactory"
	"github.com/fz-run/fz/internal/value"
	"github.com/fz-run/fz/pkg/cerr"
)

// rawScalar is the JSON shape one variable value takes before it is lifted
// into value.Scalar: a bare number/string, or an array of those for the
// mapping form's sequence-valued entries.
type rawScalar = any

// ParseVariables interprets the `--input_variables` payload: raw is either
// inline JSON text or, prefixed with "@", a path to a JSON file. A JSON
// object is the mapping form; a JSON array of objects is the row-set
// form. Returns the expanded case sequence either way.
func ParseVariables(raw string) ([]casefactory.Case, error) {
	text := raw
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, cerr.New(cerr.KindConfig, cerr.NotFound, fmt.Sprintf("read input variables file %s", raw[1:]), err)
		}
		text = string(data)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return casefactory.Expand(nil)
	}

	switch text[0] {
	case '[':
		var rows []map[string]rawScalar
		if err := json.Unmarshal([]byte(text), &rows); err != nil {
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "parse input variables as a row set", err)
		}
		scalarRows := make([]map[string]value.Scalar, len(rows))
		for i, row := range rows {
			scalarRows[i] = toScalarMap(row)
		}
		return casefactory.ExpandRows(scalarRows)

	case '{':
		var mapping map[string]rawScalar
		if err := json.Unmarshal([]byte(text), &mapping); err != nil {
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "parse input variables as a mapping", err)
		}
		// Take the keys in document order: the case sequence and the
		// directory names follow the mapping's declaration order.
		dec := json.NewDecoder(strings.NewReader(text))
		_, _ = dec.Token() // the opening '{'
		specs := make([]casefactory.VarSpec, 0, len(mapping))
		for dec.More() {
			tok, _ := dec.Token()
			var skip json.RawMessage
			_ = dec.Decode(&skip)
			name, _ := tok.(string)
			if v, ok := mapping[name]; ok {
				specs = append(specs, casefactory.VarSpec{Name: name, Values: toScalarSlice(v)})
				delete(mapping, name)
			}
		}
		return casefactory.Expand(specs)

	default:
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "input variables must be a JSON object (mapping form) or array (row-set form)", nil)
	}
}

func toScalarMap(row map[string]rawScalar) map[string]value.Scalar {
	out := make(map[string]value.Scalar, len(row))
	for k, v := range row {
		out[k] = toScalar(v)
	}
	return out
}

func toScalarSlice(v rawScalar) []value.Scalar {
	if arr, ok := v.([]any); ok {
		out := make([]value.Scalar, len(arr))
		for i, e := range arr {
			out[i] = toScalar(e)
		}
		return out
	}
	return []value.Scalar{toScalar(v)}
}

func toScalar(v rawScalar) value.Scalar {
	switch tv := v.(type) {
	case string:
		return value.Parse(tv)
	case float64:
		if tv == float64(int64(tv)) {
			return value.Int(int64(tv))
		}
		return value.Float(tv)
	case bool:
		if tv {
			return value.String("true")
		}
		return value.String("false")
	default:
		return value.String(fmt.Sprintf("%v", tv))
	}
}
