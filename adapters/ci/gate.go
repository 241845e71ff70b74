// Package ci maps pipeline results onto CI semantics: exit codes and
// delivery of a rendered report to a placement-aware sink.
package ci

import (
	"context"
	"fmt"
	"io"
	"os"

	"stackcost/core/model"
	"stackcost/internal/errors"
)

// Placement tells a sink how to place a new report relative to a
// previous one from the same pipeline
type Placement string

const (
	// PlacementReplace supersedes any previous report
	PlacementReplace Placement = "replace"

	// PlacementAppend keeps history and adds the new report
	PlacementAppend Placement = "append"
)

// Sink accepts a rendered report body
type Sink interface {
	Deliver(ctx context.Context, body string, placement Placement) error
}

// ExitCode maps an evaluation to a process exit code. Warnings fail
// the build only when failOnWarnings is set.
func ExitCode(eval model.ThresholdEvaluation, failOnWarnings bool) int {
	if !eval.Passed {
		return 1
	}
	if eval.Level == model.LevelWarning && failOnWarnings {
		return 1
	}
	return 0
}

// WriterSink delivers reports to an io.Writer (stdout in CI logs).
// Placement is irrelevant for a stream; every report is appended.
type WriterSink struct {
	W io.Writer
}

// Deliver implements Sink
func (s WriterSink) Deliver(_ context.Context, body string, _ Placement) error {
	_, err := fmt.Fprintln(s.W, body)
	return err
}

// FileSink delivers reports to a file, honoring the placement
// strategy: replace truncates, append adds a separated section.
type FileSink struct {
	Path string
}

// Deliver implements Sink
func (s FileSink) Deliver(_ context.Context, body string, placement Placement) error {
	flags := os.O_CREATE | os.O_WRONLY
	if placement == PlacementAppend {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(s.Path, flags, 0644)
	if err != nil {
		return errors.Internal("could not open report file", err)
	}
	defer f.Close()

	if placement == PlacementAppend {
		if _, err := f.WriteString("\n---\n\n"); err != nil {
			return errors.Internal("could not write report separator", err)
		}
	}
	if _, err := f.WriteString(body + "\n"); err != nil {
		return errors.Internal("could not write report", err)
	}
	return nil
}
