package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stackcost/internal/errors"
)

func TestSynthesizerMaterializesOutputDir(t *testing.T) {
	outDir := t.TempDir()
	dest := filepath.Join(outDir, "stack.json")

	src := filepath.Join(t.TempDir(), "src.json")
	if err := os.WriteFile(src, []byte(jsonTemplate), 0o644); err != nil {
		t.Fatal(err)
	}

	// Stand in for a real synthesis tool: copy the source into the
	// output directory. Materialize appends the source path, which the
	// shell receives as $0.
	synth := NewSynthesizer("sh", []string{"-c", "cp \"$0\" " + dest}, outDir, nil)
	snapshots, err := synth.Materialize(context.Background(), src)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}
	if _, ok := snapshots[0]["Web"]; !ok {
		t.Errorf("synthesized template lost its resources: %v", snapshots[0])
	}
}

func TestSynthesizerCommandFailure(t *testing.T) {
	synth := NewSynthesizer("sh", []string{"-c", "echo broken >&2; exit 3"}, t.TempDir(), nil)

	_, err := synth.Materialize(context.Background(), "ignored")
	if err == nil {
		t.Fatal("a failing synthesis command must surface an error")
	}
	if !errors.IsType(err, errors.TypeStructural) {
		t.Errorf("expected a structural error, got %v", err)
	}
}

func TestSynthesizerEmptyOutputIsAnError(t *testing.T) {
	synth := NewSynthesizer("true", nil, t.TempDir(), nil)

	_, err := synth.Materialize(context.Background(), "ignored")
	if err == nil {
		t.Fatal("synthesis that produces nothing must fail")
	}
}

func TestSynthesizerTimeout(t *testing.T) {
	synth := NewSynthesizer("sleep", []string{"10"}, t.TempDir(), nil)
	synth.Timeout = 50 * time.Millisecond
	synth.GracePeriod = 100 * time.Millisecond

	start := time.Now()
	_, err := synth.Materialize(context.Background(), "ignored")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout did not stop the process promptly: %v", elapsed)
	}
}
