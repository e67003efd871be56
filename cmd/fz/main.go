// Command fz is the parametric computational study engine's front end: one
// binary hosting the `input`, `compile`, `output`, `run`, `design`, `list`,
// `install`, `uninstall` subcommands. Flag parsing stays here; behavior
// lives in internal/cliapp.
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
	app = kingpin.New("fz", "Parametric computational study engine")

	inputCmd       = app.Command("input", "List variables referenced by an input tree")
	inputPath      = inputCmd.Flag("input_path", "Input tree path").Short('i').Required().String()
	inputModel     = inputCmd.Flag("model", "Model name, file, or inline descriptor").Short('m').String()
	inputVarPrefix = inputCmd.Flag("varprefix", "Override the model's variable prefix").String()
	inputDelim     = inputCmd.Flag("delim", "Override the model's delimiter pair, \"left,right\"").String()

	compileCmd     = app.Command("compile", "Compile one or more cases' inputs without running a calculator")
	compileInput   = compileCmd.Flag("input_path", "Input tree path").Short('i').Required().String()
	compileVars    = compileCmd.Flag("input_variables", "Input variable spec: inline JSON or @path").Short('v').Default("{}").String()
	compileModel   = compileCmd.Flag("model", "Model name, file, or inline descriptor").Short('m').String()
	compileOut     = compileCmd.Flag("results_dir", "Destination directory for compiled cases").Short('r').Default(".").String()
	compileVarpfx  = compileCmd.Flag("varprefix", "Override the model's variable prefix").String()
	compileDelim   = compileCmd.Flag("delim", "Override the model's delimiter pair, \"left,right\"").String()
	compileFormpfx = compileCmd.Flag("formulaprefix", "Override the model's formula prefix").String()
	compileComment = compileCmd.Flag("commentline", "Override the model's comment-line marker").String()
	compileOutCmds = compileCmd.Flag("output-cmd", "Add/override an output field command, name=command").Strings()

	outputCmd     = app.Command("output", "Extract declared output fields from an existing case directory")
	outputCaseDir = outputCmd.Arg("case_dir", "Case directory").Required().String()
	outputModel   = outputCmd.Flag("model", "Model name, file, or inline descriptor").Short('m').String()
	outputOutCmds = outputCmd.Flag("output-cmd", "Add/override an output field command, name=command").Strings()

	runCmd         = app.Command("run", "Run a parameter study")
	runInput       = runCmd.Flag("input_path", "Input tree path").Short('i').Required().String()
	runVars        = runCmd.Flag("input_variables", "Input variable spec: inline JSON or @path").Short('v').Default("{}").String()
	runModel       = runCmd.Flag("model", "Model name, file, or inline descriptor").Short('m').String()
	runCalculators = runCmd.Flag("calculator", "Calculator URI or alias (repeatable, fallback chain order)").Short('c').Required().Strings()
	runResultsDir  = runCmd.Flag("results_dir", "Destination directory for case results").Short('r').Default(".").String()
	runFormat      = runCmd.Flag("format", "Output format: json, table, csv, markdown, html").Short('f').Default("json").String()
	runVarpfx      = runCmd.Flag("varprefix", "Override the model's variable prefix").String()
	runDelim       = runCmd.Flag("delim", "Override the model's delimiter pair, \"left,right\"").String()
	runFormpfx     = runCmd.Flag("formulaprefix", "Override the model's formula prefix").String()
	runComment     = runCmd.Flag("commentline", "Override the model's comment-line marker").String()
	runOutCmds     = runCmd.Flag("output-cmd", "Add/override an output field command, name=command").Strings()

	designCmd         = app.Command("design", "Run an adaptive-sampling design session")
	designInput       = designCmd.Flag("input_path", "Input tree path").Short('i').Required().String()
	designVars        = designCmd.Flag("input_variables", "Design variable spec: fixed scalars or [low, high] ranges, inline JSON or @path").Short('v').Default("{}").String()
	designModel       = designCmd.Flag("model", "Model name, file, or inline descriptor").Short('m').String()
	designCalculators = designCmd.Flag("calculator", "Calculator URI or alias (repeatable, fallback chain order)").Short('c').Required().Strings()
	designResultsDir  = designCmd.Flag("results_dir", "Destination directory for case results").Short('r').Default(".").String()
	designAlgorithm   = designCmd.Flag("algorithm", "Algorithm plug-in name or file").Short('a').Required().String()
	designOutputExpr  = designCmd.Flag("output-expression", "Scalar output expression over declared output fields").Short('e').Required().String()
	designAlgoOptions = designCmd.Flag("algorithm-options", "Algorithm plug-in option, key=value (repeatable)").Short('o').Strings()
	designAnalysisDir = designCmd.Flag("analysis-dir", "Destination directory for analysis artifacts").String()

	listCmd         = app.Command("list", "List registered models and calculators")
	listModels      = listCmd.Flag("models", "List registered models").Bool()
	listCalculators = listCmd.Flag("calculators", "List registered calculators").Bool()
	listCheck       = listCmd.Flag("check", "Validate every registered calculator alias").Bool()

	installCmd  = app.Command("install", "Register a model, calculator, or algorithm descriptor")
	installKind = installCmd.Arg("kind", "model, calculator, or algorithm").Required().Enum("model", "calculator", "algorithm")
	installName = installCmd.Arg("name", "Registered name").Required().String()
	installSrc  = installCmd.Arg("path", "Descriptor/plug-in file to install").Required().String()

	uninstallCmd  = app.Command("uninstall", "Remove a registered model, calculator, or algorithm descriptor")
	uninstallKind = uninstallCmd.Arg("kind", "model, calculator, or algorithm").Required().Enum("model", "calculator", "algorithm")
	uninstallName = uninstallCmd.Arg("name", "Registered name").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(cliapp.NewLogger(env.LogLevel))
	toolpath.Init(env.ShellPath)
	dirs, err := config.DefaultDirs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	var runErr error
	switch command {
	case inputCmd.FullCommand():
		runErr = runInputCmd(dirs)
	case compileCmd.FullCommand():
		runErr = runCompileCmd(dirs)
	case outputCmd.FullCommand():
		runErr = runOutputCmd(ctx, dirs)
	case runCmd.FullCommand():
		runErr = runRunCmd(ctx, dirs, env)
	case designCmd.FullCommand():
		runErr = runDesignCmd(ctx, dirs, env)
	case listCmd.FullCommand():
		runErr = runListCmd(dirs)
	case installCmd.FullCommand():
		runErr = runInstallCmd(dirs)
	case uninstallCmd.FullCommand():
		runErr = runUninstallCmd(dirs)
	}

	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(cerr.ExitCode(runErr))
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		// A second interrupt during graceful shutdown forces immediate exit
		// without preserving partial results.
		second := make(chan os.Signal, 1)
		signal.Notify(second, syscall.SIGINT, syscall.SIGTERM)
		<-second
		os.Exit(130)
	}()
	return ctx, stop
}

func overridesFromFlags(varprefixSet bool, varprefix string, delim string, formulaprefixSet bool, formulaprefix string, commentlineSet bool, commentline string, outputCmds []string) (cliapp.Overrides, error) {
	ov := cliapp.Overrides{
		VarPrefixSet:     varprefixSet,
		VarPrefix:        varprefix,
		FormulaPrefixSet: formulaprefixSet,
		FormulaPrefix:    formulaprefix,
		CommentLineSet:   commentlineSet,
		CommentLine:      commentline,
		OutputCmds:       outputCmds,
	}
	if delim != "" {
		left, right, err := cliapp.ParseDelim(delim)
		if err != nil {
			return ov, err
		}
		ov.DelimSet = true
		ov.DelimLeft, ov.DelimRight = left, right
	}
	return ov, nil
}

func runInputCmd(dirs *config.Dirs) error {
	ov, err := overridesFromFlags(*inputVarPrefix != "", *inputVarPrefix, *inputDelim, false, "", false, "", nil)
	if err != nil {
		return err
	}
	names, err := cliapp.Input(dirs, cliapp.InputOptions{InputPath: *inputPath, Model: *inputModel, Overrides: ov})
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runCompileCmd(dirs *config.Dirs) error {
	ov, err := overridesFromFlags(*compileVarpfx != "", *compileVarpfx, *compileDelim, *compileFormpfx != "", *compileFormpfx, *compileComment != "", *compileComment, *compileOutCmds)
	if err != nil {
		return err
	}
	results, err := cliapp.Compile(dirs, cliapp.CompileOptions{
		InputPath: *compileInput, InputVariables: *compileVars, Model: *compileModel, OutDir: *compileOut, Overrides: ov,
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Println(r.CaseDir)
		for _, w := range r.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", w.File, w.Message)
		}
	}
	return nil
}

func runOutputCmd(ctx context.Context, dirs *config.Dirs) error {
	ov, err := overridesFromFlags(false, "", "", false, "", false, "", *outputOutCmds)
	if err != nil {
		return err
	}
	fields, err := cliapp.Output(ctx, dirs, cliapp.OutputOptions{CaseDir: *outputCaseDir, Model: *outputModel, Overrides: ov})
	if err != nil {
		return err
	}
	for _, f := range fields {
		if f.Err != nil {
			fmt.Printf("%s=null (%s)\n", f.Name, f.Err)
			continue
		}
		fmt.Printf("%s=%v\n", f.Name, f.Value)
	}
	return nil
}

func runRunCmd(ctx context.Context, dirs *config.Dirs, env *config.Env) error {
	ov, err := overridesFromFlags(*runVarpfx != "", *runVarpfx, *runDelim, *runFormpfx != "", *runFormpfx, *runComment != "", *runComment, *runOutCmds)
	if err != nil {
		return err
	}
	bus := progress.New()
	wait := cliapp.WatchProgress(bus, os.Stderr)
	res, err := cliapp.Run(ctx, dirs, env, bus, cliapp.RunOptions{
		InputPath: *runInput, InputVariables: *runVars, Model: *runModel, Calculators: *runCalculators,
		ResultsDir: *runResultsDir, Format: *runFormat, Overrides: ov,
	})
	wait()
	if err != nil {
		return err
	}
	if err := cliapp.Render(os.Stdout, res, *runFormat); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, res.Summary)
	os.Exit(res.ExitCode)
	return nil
}

func runDesignCmd(ctx context.Context, dirs *config.Dirs, env *config.Env) error {
	algoOpts, err := cliapp.ParseAlgorithmOptions(*designAlgoOptions)
	if err != nil {
		return err
	}
	bus := progress.New()
	wait := cliapp.WatchProgress(bus, os.Stderr)
	ret, err := cliapp.Design(ctx, dirs, env, bus, cliapp.DesignOptions{
		InputPath: *designInput, InputVariables: *designVars, Model: *designModel, Calculators: *designCalculators,
		ResultsDir: *designResultsDir, Algorithm: *designAlgorithm, OutputExpression: *designOutputExpr,
		AlgorithmOptions: algoOpts, AnalysisDir: *designAnalysisDir,
	})
	wait()
	if err != nil {
		return err
	}
	fmt.Println(ret.Summary)
	return nil
}

func runListCmd(dirs *config.Dirs) error {
	res, err := cliapp.List(dirs, cliapp.ListOptions{Models: *listModels, Calculators: *listCalculators, Check: *listCheck})
	if err != nil {
		return err
	}
	for _, m := range res.Models {
		fmt.Printf("model\t%s\n", m)
	}
	for _, c := range res.Calculators {
		fmt.Printf("calculator\t%s\n", c)
	}
	for _, c := range res.Checks {
		status := "ok"
		if !c.OK {
			status = "FAIL: " + c.Issue
		}
		fmt.Printf("check\t%s\t%s\n", c.Name, status)
		if c.Diff != "" {
			fmt.Println(c.Diff)
		}
	}
	return nil
}

func runInstallCmd(dirs *config.Dirs) error {
	dest, err := cliapp.Install(dirs, cliapp.Kind(*installKind), *installName, *installSrc)
	if err != nil {
		return err
	}
	fmt.Println(dest)
	return nil
}

func runUninstallCmd(dirs *config.Dirs) error {
	return cliapp.Uninstall(dirs, cliapp.Kind(*uninstallKind), *uninstallName)
}
