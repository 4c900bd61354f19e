// Package xlog centralises logging for the five recoverable/fatal
// error kinds of spec.md §7. It is a thin wrapper over logrus: the
// pipeline's recoverable kinds (IRMissing, AnalysisBudget,
// SpecMalformed) are logged as warnings and execution continues;
// ConfigError and PatchMalformed are logged as errors before the
// caller aborts.
package xlog

import (
	stderrors "errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"patchspec/internal/errors"
)

func init() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

// SetVerbose switches the logger to debug level, mirroring a CLI
// --verbose flag.
func SetVerbose(v bool) {
	if v {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// Recoverable logs one of the pipeline's non-fatal kinds (IRMissing,
// AnalysisBudget, SpecMalformed) and lets the caller continue.
func Recoverable(kind, context string, err error) {
	entry := log.WithFields(log.Fields{
		"kind":    kind,
		"context": context,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn(errors.GetErrorDescription(kind))
}

// Fatal logs one of ConfigError/PatchMalformed ahead of a non-zero
// exit; it never calls os.Exit itself, leaving that to cmd/patchspec.
// When err carries a parser diagnostic (errors.CompilerError, as
// returned by internal/patch and internal/irtext), it also renders
// the Rust-style caret diagnostic to stderr via ErrorReporter, using
// the file at context as the source the position points into.
func Fatal(kind, context string, err error) {
	entry := log.WithFields(log.Fields{
		"kind":    kind,
		"context": context,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(errors.GetErrorDescription(kind))

	var ce errors.CompilerError
	if stderrors.As(err, &ce) {
		if src, rerr := os.ReadFile(context); rerr == nil {
			fmt.Fprint(os.Stderr, errors.NewErrorReporter(context, string(src)).FormatError(ce))
		}
	}
}
