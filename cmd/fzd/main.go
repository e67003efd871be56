// Command fzd is the `design` subcommand's standalone binary, accepting
// the same arguments as `fz design`.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/fz-run/fz/internal/cliapp"
	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/progress"
	"github.com/fz-run/fz/internal/toolpath"
	"github.com/fz-run/fz/pkg/cerr"
)

var (
	app = kingpin.New("fzd", "Run an adaptive-sampling design session")

	input       = app.Flag("input_path", "Input tree path").Short('i').Required().String()
	inputVars   = app.Flag("input_variables", "Design variable spec: fixed scalars or [low, high] ranges, inline JSON or @path").Short('v').Default("{}").String()
	modelRef    = app.Flag("model", "Model name, file, or inline descriptor").Short('m').String()
	calculators = app.Flag("calculator", "Calculator URI or alias (repeatable, fallback chain order)").Short('c').Required().Strings()
	resultsDir  = app.Flag("results_dir", "Destination directory for case results").Short('r').Default(".").String()
	algorithm   = app.Flag("algorithm", "Algorithm plug-in name or file").Short('a').Required().String()
	outputExpr  = app.Flag("output-expression", "Scalar output expression over declared output fields").Short('e').Required().String()
	algoOptions = app.Flag("algorithm-options", "Algorithm plug-in option, key=value (repeatable)").Short('o').Strings()
	analysisDir = app.Flag("analysis-dir", "Destination directory for analysis artifacts").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fatal(err)
	}
	slog.SetDefault(cliapp.NewLogger(env.LogLevel))
	toolpath.Init(env.ShellPath)
	dirs, err := config.DefaultDirs()
	if err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	algoOpts, err := cliapp.ParseAlgorithmOptions(*algoOptions)
	if err != nil {
		fatal(err)
	}

	bus := progress.New()
	wait := cliapp.WatchProgress(bus, os.Stderr)
	ret, err := cliapp.Design(ctx, dirs, env, bus, cliapp.DesignOptions{
		InputPath: *input, InputVariables: *inputVars, Model: *modelRef, Calculators: *calculators,
		ResultsDir: *resultsDir, Algorithm: *algorithm, OutputExpression: *outputExpr,
		AlgorithmOptions: algoOpts, AnalysisDir: *analysisDir,
	})
	wait()
	if err != nil {
		fatal(err)
	}
	fmt.Println(ret.Summary)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(cerr.ExitCode(err))
}
