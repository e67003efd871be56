// Package adaptive implements the adaptive-sampling driver: the plug-in
// contract, the iteration loop, and per-iteration artifact production.
// Algorithm plug-ins are Go source files hosted in an embedded interpreter,
// so they can be installed and swapped without rebuilding fz.
package adaptive

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/fz-run/fz/pkg/cerr"
)

// Header is a plug-in's declarative option block: leading "#key=value"
// lines before the Go source body. Required-package declarations may
// appear here; fz does not auto-install them.
type Header map[string]string

// Payload is the shape every plug-in analysis call returns: free text plus
// optional structured data.
type Payload struct {
	Text string
	Data map[string]any
}

// Algorithm hosts one adaptive-sampling plug-in's four operations inside a
// dedicated yaegi interpreter instance, sandboxed per plug-in load, no
// state shared across algorithms.
type Algorithm struct {
	Name   string
	Header Header

	initialDesign        reflect.Value
	nextDesign           reflect.Value
	analysis             reflect.Value
	analysisIntermediate reflect.Value // zero Value when the plug-in omits it
}

// Load parses src as one algorithm plug-in file: a leading declarative
// header followed by Go source declaring InitialDesign, NextDesign,
// Analysis, and optionally AnalysisIntermediate. options overrides/extends
// values parsed from the header.
func Load(name string, src []byte, options map[string]string) (*Algorithm, error) {
	header, body := splitHeader(string(src))
	for k, v := range options {
		header[k] = v
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, cerr.New(cerr.KindFatal, cerr.Internal, "load interpreter stdlib for algorithm plug-in", err)
	}
	if _, err := i.Eval(body); err != nil {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("parse algorithm plug-in %q", name), err)
	}

	a := &Algorithm{Name: name, Header: header}

	var err error
	if a.initialDesign, err = lookup(i, "InitialDesign"); err != nil {
		return nil, err
	}
	if a.nextDesign, err = lookup(i, "NextDesign"); err != nil {
		return nil, err
	}
	if a.analysis, err = lookup(i, "Analysis"); err != nil {
		return nil, err
	}
	// AnalysisIntermediate is optional: its absence means "no intermediate
	// analysis", not a load error.
	if v, lookupErr := lookup(i, "AnalysisIntermediate"); lookupErr == nil {
		a.analysisIntermediate = v
	}
	return a, nil
}

func splitHeader(src string) (Header, string) {
	header := Header{}
	lines := strings.Split(src, "\n")
	i := 0
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "#") {
			break
		}
		kv := strings.TrimPrefix(trimmed, "#")
		if k, v, ok := strings.Cut(kv, "="); ok {
			header[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return header, strings.Join(lines[i:], "\n")
}

func lookup(i *interp.Interpreter, name string) (reflect.Value, error) {
	v, err := i.Eval(name)
	if err != nil {
		return reflect.Value{}, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("algorithm plug-in missing %s", name), err)
	}
	return v, nil
}

// InitialDesign asks the plug-in for its starting batch of design points
// given the ranged-only variable bounds and the declared output names.
func (a *Algorithm) InitialDesign(varRanges map[string][2]float64, outputNames []string) ([]map[string]float64, error) {
	fn, ok := a.initialDesign.Interface().(func(map[string][2]float64, []string) []map[string]float64)
	if !ok {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "InitialDesign has an unexpected signature", nil)
	}
	return fn(varRanges, outputNames), nil
}

// NextDesign asks the plug-in for the next batch of points given the full
// history so far; an empty return means "stop".
func (a *Algorithm) NextDesign(historyX []map[string]float64, historyY []*float64) ([]map[string]float64, error) {
	fn, ok := a.nextDesign.Interface().(func([]map[string]float64, []*float64) []map[string]float64)
	if !ok {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "NextDesign has an unexpected signature", nil)
	}
	return fn(historyX, historyY), nil
}

// Analysis asks the plug-in for its final payload over the complete
// history.
func (a *Algorithm) Analysis(historyX []map[string]float64, historyY []*float64) (Payload, error) {
	fn, ok := a.analysis.Interface().(func([]map[string]float64, []*float64) (string, map[string]any))
	if !ok {
		return Payload{}, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "Analysis has an unexpected signature", nil)
	}
	text, data := fn(historyX, historyY)
	return Payload{Text: text, Data: data}, nil
}

// HasAnalysisIntermediate reports whether the plug-in supplied the
// optional intermediate-analysis operation.
func (a *Algorithm) HasAnalysisIntermediate() bool {
	return a.analysisIntermediate.IsValid()
}

// AnalysisIntermediate asks the plug-in for a payload over the partial
// history accumulated so far. Callers must check HasAnalysisIntermediate
// first.
func (a *Algorithm) AnalysisIntermediate(historyX []map[string]float64, historyY []*float64) (Payload, error) {
	fn, ok := a.analysisIntermediate.Interface().(func([]map[string]float64, []*float64) (string, map[string]any))
	if !ok {
		return Payload{}, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "AnalysisIntermediate has an unexpected signature", nil)
	}
	text, data := fn(historyX, historyY)
	return Payload{Text: text, Data: data}, nil
}
