package template

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stackcost/core/model"
	"stackcost/internal/errors"
)

// Synthesizer materializes template documents from source by invoking
// an external synthesis command (e.g. a CDK or SAM build) that writes
// templates into an output directory. The pipeline core never manages
// the process lifecycle; it only sees "produce N templates or fail".
type Synthesizer struct {
	// Command is the synthesis executable
	Command string

	// Args are passed to the command; the source path is appended
	Args []string

	// OutputDir is where the command writes template documents
	OutputDir string

	// Timeout bounds the synthesis run. On expiry the process gets
	// SIGTERM, then SIGKILL after the grace period.
	Timeout time.Duration

	// GracePeriod between SIGTERM and SIGKILL
	GracePeriod time.Duration

	logger *zap.Logger
}

// NewSynthesizer creates a synthesizer with a 5 minute timeout and a
// 10 second kill grace period
func NewSynthesizer(command string, args []string, outputDir string, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{
		Command:     command,
		Args:        args,
		OutputDir:   outputDir,
		Timeout:     5 * time.Minute,
		GracePeriod: 10 * time.Second,
		logger:      logger,
	}
}

// Materialize runs the synthesis command against sourcePath and loads
// every template document it produced, sorted by file name.
func (s *Synthesizer) Materialize(ctx context.Context, sourcePath string) ([]model.TemplateSnapshot, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.Command, append(s.Args, sourcePath)...)
	cmd.Cancel = func() error {
		// Ask politely first; WaitDelay escalates to SIGKILL
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = s.GracePeriod

	s.logger.Info("synthesizing templates",
		zap.String("command", s.Command),
		zap.String("source", sourcePath))

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.Wrap(errors.TypeStructural, "template synthesis timed out", ctx.Err())
	}
	if err != nil {
		return nil, errors.Wrap(errors.TypeStructural,
			"template synthesis failed: "+strings.TrimSpace(string(output)), err)
	}

	return s.loadOutput()
}

func (s *Synthesizer) loadOutput() ([]model.TemplateSnapshot, error) {
	entries, err := os.ReadDir(s.OutputDir)
	if err != nil {
		return nil, errors.Wrap(errors.TypeStructural, "synthesis output directory unreadable", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, filepath.Join(s.OutputDir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, errors.Structural("synthesis produced no template documents")
	}

	snapshots := make([]model.TemplateSnapshot, 0, len(paths))
	for _, path := range paths {
		snapshot, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}
