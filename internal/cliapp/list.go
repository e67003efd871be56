package cliapp

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/internal/toolpath"
)

// ListOptions is the `list`/`fzl` subcommand's flag set.
type ListOptions struct {
	Models      bool
	Calculators bool
	Check       bool
}

// CheckResult is one alias descriptor's validation outcome for `list --check`.
type CheckResult struct {
	Name  string
	OK    bool
	Issue string
	Diff  string // set when the alias re-renders differently than stored, for human inspection
}

// ListResult is everything `list` can report, populated per the requested
// flags.
type ListResult struct {
	Models      []string
	Calculators []string
	Checks      []CheckResult
}

// List enumerates registered models/calculators and, if requested,
// validates every calculator alias.
func List(dirs *config.Dirs, opts ListOptions) (*ListResult, error) {
	res := &ListResult{}
	if opts.Models {
		res.Models = dirs.ListNames("models")
	}
	if opts.Calculators || opts.Check {
		res.Calculators = dirs.ListNames("calculators")
	}
	if opts.Check {
		checks := make([]CheckResult, 0, len(res.Calculators))
		for _, name := range res.Calculators {
			checks = append(checks, checkCalculator(dirs, name))
		}
		res.Checks = checks
	}
	return res, nil
}

func checkCalculator(dirs *config.Dirs, name string) CheckResult {
	path := dirs.FindCalculator(name)
	if path == "" {
		return CheckResult{Name: name, Issue: "alias file not found"}
	}
	alias, err := config.LoadCalculatorAlias(path)
	if err != nil {
		return CheckResult{Name: name, Issue: err.Error()}
	}

	for modelName, tail := range alias.Models {
		resolved, err := alias.Resolve(modelName)
		if err != nil {
			return CheckResult{Name: name, Issue: err.Error()}
		}
		uri, err := model.ParseCalculatorURI(resolved)
		if err != nil {
			return CheckResult{Name: name, Issue: fmt.Sprintf("model %q: %s", modelName, err)}
		}
		if issue := checkToolAvailable(uri); issue != "" {
			return CheckResult{Name: name, Issue: issue}
		}

		// Round-trip the parsed URI back to text and diff it against the
		// resolved alias URI (base plus command-tail), surfacing any lossy
		// parse/render.
		roundTrip := uri.String()
		if roundTrip != resolved {
			diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(resolved),
				B:        difflib.SplitLines(roundTrip),
				FromFile: "stored",
				ToFile:   "resolved",
				Context:  1,
			})
			return CheckResult{Name: name, OK: true, Diff: diff}
		}
		_ = tail
	}
	return CheckResult{Name: name, OK: true}
}

// checkToolAvailable verifies the external tool a URI's backend depends on
// is resolvable via internal/toolpath, when that backend shells out at all
// (sh directly, slurm's srun; ssh and funz use pure-Go protocol clients and
// have nothing to check here).
func checkToolAvailable(uri *model.CalculatorURI) string {
	switch uri.Scheme {
	case model.SchemeSh:
		if _, ok := toolpath.Resolve("sh"); !ok {
			return "no sh-compatible shell found on the configured search path (embedded shell interpreter will be used as fallback)"
		}
	case model.SchemeSlurm:
		if _, ok := toolpath.Resolve("srun"); !ok {
			return "srun not found on the configured search path"
		}
	}
	return ""
}
