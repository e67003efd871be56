// Command fzl is the `list` subcommand's standalone binary, accepting the
// same arguments as `fz list`.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/fz-run/fz/internal/cliapp"
	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/toolpath"
	"github.com/fz-run/fz/pkg/cerr"
)

var (
	app = kingpin.New("fzl", "List registered models and calculator aliases")

	models      = app.Flag("models", "List registered models").Bool()
	calculators = app.Flag("calculators", "List registered calculator aliases").Bool()
	check       = app.Flag("check", "Validate every registered calculator alias").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fatal(err)
	}
	toolpath.Init(env.ShellPath)

	dirs, err := config.DefaultDirs()
	if err != nil {
		fatal(err)
	}

	opts := cliapp.ListOptions{Models: *models, Calculators: *calculators, Check: *check}
	if !opts.Models && !opts.Calculators && !opts.Check {
		opts.Models, opts.Calculators = true, true
	}

	res, err := cliapp.List(dirs, opts)
	if err != nil {
		fatal(err)
	}

	for _, name := range res.Models {
		fmt.Printf("model\t%s\n", name)
	}
	for _, name := range res.Calculators {
		fmt.Printf("calculator\t%s\n", name)
	}
	failed := false
	for _, c := range res.Checks {
		status := "ok"
		if !c.OK {
			status = "FAIL"
			failed = true
		}
		fmt.Printf("check\t%s\t%s\t%s\n", c.Name, status, c.Issue)
		if c.Diff != "" {
			fmt.Print(c.Diff)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(cerr.ExitCode(err))
}
