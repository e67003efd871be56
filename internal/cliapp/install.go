package cliapp

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fz-run/fz/internal/config"
	"github.com/fz-run/fz/pkg/cerr"
)

// Kind is the `.fz/` subdirectory an install/uninstall operation
// targets.
type Kind string

const (
	KindModel      Kind = "model"
	KindCalculator Kind = "calculator"
	KindAlgorithm  Kind = "algorithm"
)

func subdir(k Kind) (string, error) {
	switch k {
	case KindModel:
		return "models", nil
	case KindCalculator:
		return "calculators", nil
	case KindAlgorithm:
		return "algorithms", nil
	default:
		return "", cerr.New(cerr.KindConfig, cerr.InvalidArgument, fmt.Sprintf("unknown install kind %q (want model, calculator, or algorithm)", k), nil)
	}
}

// Install registers a descriptor/plug-in file under the project `.fz/`
// directory, keyed by name, for later alias/model/algorithm
// resolution by name.
func Install(dirs *config.Dirs, kind Kind, name, srcPath string) (string, error) {
	sub, err := subdir(kind)
	if err != nil {
		return "", err
	}
	destDir := filepath.Join(dirs.Project, sub)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("create %s", destDir), err)
	}
	dest := filepath.Join(destDir, name+filepath.Ext(srcPath))

	src, err := os.Open(srcPath)
	if err != nil {
		return "", cerr.New(cerr.KindConfig, cerr.NotFound, fmt.Sprintf("open %s", srcPath), err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("create %s", dest), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("copy %s to %s", srcPath, dest), err)
	}
	return dest, nil
}

// Uninstall removes a previously installed descriptor/plug-in by name.
func Uninstall(dirs *config.Dirs, kind Kind, name string) error {
	sub, err := subdir(kind)
	if err != nil {
		return err
	}
	var finder func(string) string
	switch kind {
	case KindModel:
		finder = dirs.FindModel
	case KindCalculator:
		finder = dirs.FindCalculator
	case KindAlgorithm:
		finder = dirs.FindAlgorithm
	}
	path := finder(name)
	if path == "" {
		return cerr.New(cerr.KindConfig, cerr.NotFound, fmt.Sprintf("no %s named %q under .fz/%s", kind, name, sub), nil)
	}
	if err := os.Remove(path); err != nil {
		return cerr.New(cerr.KindFatal, cerr.Internal, fmt.Sprintf("remove %s", path), err)
	}
	return nil
}
