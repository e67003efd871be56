package cliapp

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fz-run/fz/internal/adaptive"
	"github.com/fz-run/fz/pkg/cerr"
)

// ParseDesignVariables interprets a `design`/`fzd` variable mapping: a
// JSON object whose values are either a bare scalar (fixed) or a
// two-element array of numbers (ranged, [low, high]).
func ParseDesignVariables(raw string) (map[string]adaptive.VarInput, error) {
	text := raw
	if strings.HasPrefix(raw, "@") {
		data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, cerr.New(cerr.KindConfig, cerr.NotFound, fmt.Sprintf("read design variables file %s", raw[1:]), err)
		}
		text = string(data)
	}

	var mapping map[string]any
	if err := json.Unmarshal([]byte(text), &mapping); err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "parse design variables as a mapping", err)
	}

	out := make(map[string]adaptive.VarInput, len(mapping))
	for name, v := range mapping {
		arr, ok := v.([]any)
		if !ok {
			s := toScalar(v)
			out[name] = adaptive.VarInput{Fixed: &s}
			continue
		}
		if len(arr) != 2 {
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("ranged variable %q must give exactly [low, high]", name), nil)
		}
		low, lok := arr[0].(float64)
		high, hok := arr[1].(float64)
		if !lok || !hok {
			return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("ranged variable %q bounds must be numbers", name), nil)
		}
		bounds := [2]float64{low, high}
		out[name] = adaptive.VarInput{Range: &bounds}
	}
	return out, nil
}
