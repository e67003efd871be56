package clog

import (
	"github.com/fz-run/fz/pkg/cerr"
)

type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

// KindToLevel maps an error Kind to the level a run-summary log line about
// it should be emitted at. Transport/exec/timeout errors are routed through
// the fallback chain and so are usually just warnings; config and fatal
// errors stop the run and are errors.
func KindToLevel(k cerr.Kind) Level {
	switch k {
	case cerr.KindExprWarning:
		return LevelWarn
	case cerr.KindTransport, cerr.KindExec, cerr.KindTimeout:
		return LevelWarn
	case cerr.KindCancellation:
		return LevelInfo
	case cerr.KindConfig, cerr.KindTemplate, cerr.KindExtraction, cerr.KindFatal:
		return LevelError
	default:
		return LevelError
	}
}
