// Package pipeline orchestrates one compile: load the module graph,
// desugar to HIR, run Tachyon's tree-level vectorizer, lower each function
// to MIR, validate it twice (before and after MIR-level optimization, the
// same double-validation shape original_source's compiler pipeline uses),
// optimize and inline, and finally emit R text with the runtime prelude
// prepended. Every stage reports through a clilog.Logger the way the
// teacher's own CLI narrates eval runs.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/rr-lang/rr/internal/clilog"
	"github.com/rr-lang/rr/internal/codegen"
	"github.com/rr-lang/rr/internal/config"
	"github.com/rr-lang/rr/internal/errors"
	"github.com/rr-lang/rr/internal/hir"
	"github.com/rr-lang/rr/internal/mir"
	"github.com/rr-lang/rr/internal/module"
	"github.com/rr-lang/rr/internal/opt"
	"github.com/rr-lang/rr/internal/runtime"
	"github.com/rr-lang/rr/internal/safety"
)

const topLevelFuncName = "rr_top_level"

// Result is everything a caller (cmd/rr or internal/runner) needs after a
// successful compile.
type Result struct {
	RSource    string
	SourceMaps map[string][]codegen.MapEntry
	Stats      map[string]int
}

// Compile runs the full pipeline for the module rooted at entryPath.
func Compile(entryPath string, cfg *config.Config, log *clilog.Logger) (*Result, error) {
	const totalSteps = 6
	start := time.Now()

	log.Step(1, totalSteps, "Loading module graph")
	loader := module.NewLoader()
	if _, err := loader.LoadFile(entryPath); err != nil {
		return nil, err
	}
	order, err := loader.TopologicalSort()
	if err != nil {
		return nil, err
	}
	log.StepOK(fmt.Sprintf("%d module(s) loaded", len(order)))

	log.Step(2, totalSteps, "Desugaring and vectorizing")
	graph := loader.GetDependencyGraph()
	merged := &hir.Program{}
	desugarer := hir.NewDesugarer()
	for id := range graph {
		mod, err := loader.Load(id)
		if err != nil {
			return nil, err
		}
		desugared, err := desugarer.Desugar(mod.Program)
		if err != nil {
			return nil, err
		}
		merged.Funcs = append(merged.Funcs, desugared.Funcs...)
		merged.TopStmts = append(merged.TopStmts, desugared.TopStmts...)
	}
	hirOpt := hir.NewOptimizer()
	merged = hirOpt.OptimizeProgram(merged)
	log.StepOK(fmt.Sprintf("%d function(s) desugared, %d loop(s) vectorized", len(merged.Funcs), hirOpt.VectorizeHits))

	log.Step(3, totalSteps, "Lowering to MIR")
	funcs := make(map[string]*mir.Function, len(merged.Funcs)+1)
	order2 := make([]string, 0, len(merged.Funcs)+1)
	for _, fn := range merged.Funcs {
		mfn, err := mir.Build(fn.Name, fn.Params, fn.Varargs, fn.NoInline, fn.Body)
		if err != nil {
			return nil, err
		}
		funcs[fn.Name] = mfn
		order2 = append(order2, fn.Name)
	}
	if len(merged.TopStmts) > 0 {
		mfn, err := mir.Build(topLevelFuncName, nil, false, false, merged.TopStmts)
		if err != nil {
			return nil, err
		}
		funcs[topLevelFuncName] = mfn
		order2 = append(order2, topLevelFuncName)
	}
	log.StepOK(fmt.Sprintf("%d function(s) lowered", len(funcs)))

	log.Step(4, totalSteps, "Validating (pre-optimization)")
	if err := validateAll(funcs, order2); err != nil {
		return nil, err
	}
	log.StepOK("structure and runtime-safety checks passed")

	log.Step(5, totalSteps, "Optimizing (Tachyon)")
	hits := map[string]int{"vectorize": hirOpt.VectorizeHits}
	for _, fn := range funcs {
		stats := opt.Run(fn, cfg.EnableLICM)
		for pass, n := range stats.Hits {
			hits[pass] += n
		}
	}
	hits["inline"] = opt.InlineAll(funcs)
	if err := validateAll(funcs, order2); err != nil {
		return nil, fmt.Errorf("pipeline: optimizer produced invalid MIR: %w", err)
	}
	log.StepOK("Tachyon pass pipeline converged")

	log.Step(6, totalSteps, "Emitting R")
	var b strings.Builder
	if !cfg.NoRuntime {
		b.WriteString(runtime.Prelude)
		fmt.Fprintf(&b, "rr_set_source(%q)\n", entryPath)
	}
	maps := make(map[string][]codegen.MapEntry, len(order2))
	for _, name := range order2 {
		text, m := codegen.Emit(funcs[name])
		b.WriteString(text)
		b.WriteString("\n")
		maps[name] = m
	}
	if _, ok := funcs[topLevelFuncName]; ok {
		fmt.Fprintf(&b, "%s()\n", topLevelFuncName)
	}
	log.StepOK("R source generated")

	log.Pulse(time.Since(start).Milliseconds(), hits)
	return &Result{RSource: b.String(), SourceMaps: maps, Stats: hits}, nil
}

// validateAll walks functions in the pipeline's discovery order (order2
// at the call site) rather than ranging over the funcs map directly, so
// that aggregated diagnostics from a failing compile are reported in a
// deterministic order across runs instead of depending on Go's
// randomized map iteration.
func validateAll(funcs map[string]*mir.Function, order []string) error {
	agg := &errors.Aggregate{}
	for _, name := range order {
		fn := funcs[name]
		agg.Diagnostics = append(agg.Diagnostics, safety.ValidateStructure(fn).Diagnostics...)
		agg.Diagnostics = append(agg.Diagnostics, safety.ValidateRuntimeSafety(fn).Diagnostics...)
	}
	return agg.Err()
}
