package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rr-lang/rr/internal/clilog"
	"github.com/rr-lang/rr/internal/config"
)

func quietLogger(t *testing.T) *clilog.Logger {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	t.Cleanup(func() {
		os.Stderr = old
		w.Close()
		io.Copy(io.Discard, r)
	})
	return clilog.New()
}

func TestCompileSingleFunctionProgram(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.rr")
	src := `fn square(x) {
		return x * x;
	}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cfg := &config.Config{OptLevel: config.O1}
	res, err := Compile(path, cfg, quietLogger(t))
	require.NoError(t, err)
	require.Contains(t, res.RSource, "square <- function(")
	require.Contains(t, res.SourceMaps, "square")
}

func TestCompileWithTopLevelStatement(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.rr")
	src := `fn double(x) {
		return x * 2;
	}
	y <- double(21);
	`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cfg := &config.Config{OptLevel: config.O1}
	res, err := Compile(path, cfg, quietLogger(t))
	require.NoError(t, err)
	require.Contains(t, res.RSource, topLevelFuncName+"()")
}

func TestCompileRejectsConstantDivisionByZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.rr")
	src := `fn bad(x) {
		return x / 0;
	}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	cfg := &config.Config{OptLevel: config.O1}
	_, err := Compile(path, cfg, quietLogger(t))
	require.Error(t, err)
}
