// Package cliapp wires the core engine packages (casefactory, template,
// scheduler, cache, adaptive, config, resultset) into the command-line
// surface. It holds the logic every fz/fzd/fzl binary shares; cmd/fz,
// cmd/fzd, and cmd/fzl are thin kingpin front ends over it.
package cliapp

import (
	"fmt"
	"strings"
	"time"

	"github.com/fz-run/fz/internal/calculator"
	"github.com/fz-run/fz/internal/calculator/cachebackend"
	"github.com/fz-run/fz/internal/calculator/funz"
	"github.com/fz-run/fz/internal/calculator/sh"
	calcssh "github.com/fz-run/fz/internal/calculator/ssh"
	"github.com/fz-run/fz/internal/calculator/slurm"
	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/internal/model"
	"github.com/fz-run/fz/internal/scheduler"
	"github.com/fz-run/fz/pkg/cerr"
)

// BuildChain parses a `--calculator` fallback chain (one URI per slot, in
// the order given) into scheduler entries, resolving alias names against
// dirs first.
func BuildChain(dirs *config.Dirs, refs []string, modelName string, m *model.Model, env *config.Env) ([]scheduler.Entry, error) {
	if len(refs) == 0 {
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, "at least one --calculator is required", nil)
	}
	chain := make([]scheduler.Entry, 0, len(refs))
	for _, ref := range refs {
		raw, err := config.ResolveCalculator(dirs, ref, modelName)
		if err != nil {
			return nil, err
		}
		entry, err := buildEntry(raw, modelName, m, env)
		if err != nil {
			return nil, err
		}
		chain = append(chain, entry)
	}
	return chain, nil
}

func buildEntry(raw, modelName string, m *model.Model, env *config.Env) (scheduler.Entry, error) {
	uri, err := model.ParseCalculatorURI(raw)
	if err != nil {
		return scheduler.Entry{}, err
	}

	var modelTimeout time.Duration
	var envTimeout time.Duration
	if m != nil {
		modelTimeout = m.Timeout()
	}
	if env != nil {
		envTimeout = env.RunTimeout
	}
	timeout := config.EffectiveTimeout(uri.Timeout, modelTimeout, envTimeout)

	calc, err := buildCalculator(uri, modelName, m, env)
	if err != nil {
		return scheduler.Entry{}, err
	}
	return scheduler.Entry{Calculator: calc, Timeout: timeout}, nil
}

func buildCalculator(uri *model.CalculatorURI, modelName string, m *model.Model, env *config.Env) (calculator.Calculator, error) {
	switch uri.Scheme {
	case model.SchemeSh:
		return sh.New(uri.Raw, uri.Command), nil

	case model.SchemeSSH:
		autoAccept := env != nil && env.SSHAutoAcceptHostK
		return calcssh.New(uri.Raw, uri.User, uri.Host, uri.Port, uri.Password, uri.Command,
			calcssh.WithAutoAcceptHostKey(autoAccept)), nil

	case model.SchemeSlurm:
		var inner calculator.Calculator
		if uri.Host != "" {
			inner = calcssh.New(uri.Raw, uri.User, uri.Host, uri.Port, uri.Password, "")
		} else {
			inner = sh.New(uri.Raw, "")
		}
		return slurm.New(uri.Raw, uri.Partition, uri.Command, inner), nil

	case model.SchemeFunz:
		broadcast := uri.Host
		if uri.Port != "" {
			broadcast = fmt.Sprintf("%s:%s", uri.Host, uri.Port)
		}
		return funz.New(uri.Raw, broadcast, modelName, uri.Command), nil

	case model.SchemeCache:
		root, pattern := uri.Host, uri.Command
		if idx := strings.LastIndex(uri.Command, "/"); idx >= 0 {
			root = uri.Host + "/" + uri.Command[:idx]
			pattern = uri.Command[idx+1:]
		}
		return cachebackend.New(uri.Raw, root, "", pattern, m), nil

	default:
		return nil, cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("unsupported calculator scheme %q", uri.Scheme), nil)
	}
}
