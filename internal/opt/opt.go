// Package opt is the Tachyon optimizer: a small pipeline of SSA-level
// passes that run over MIR after it is built and before internal/safety
// validates it. Each pass is named after its counterpart in the original
// optimizer (SCCP, GVN, LICM, BCE-via-facts, TCO detection, DCE) and
// reports how many times it fired so internal/clilog can print a pulse
// summary.
package opt

import "github.com/rr-lang/rr/internal/mir"

// PulseStats counts how many times each pass rewrote something, keyed the
// same way internal/clilog.Pulse expects (sccp, gvn, licm, bce, tco, dce,
// inline, vectorize). "vectorize" is populated by the caller from
// internal/hir's Optimizer, since vectorization runs pre-MIR.
type PulseStats struct {
	Hits map[string]int
}

func newStats() *PulseStats { return &PulseStats{Hits: map[string]int{}} }

// Run executes every MIR-level pass over fn to a fixpoint and returns the
// per-pass hit counts. LICM only runs when licmEnabled is true, mirroring
// RR_ENABLE_LICM.
func Run(fn *mir.Function, licmEnabled bool) *PulseStats {
	stats := newStats()
	for {
		before := total(stats)
		stats.Hits["sccp"] += sccp(fn)
		stats.Hits["gvn"] += gvn(fn)
		stats.Hits["bce"] += bce(fn)
		if licmEnabled {
			stats.Hits["licm"] += licm(fn)
		}
		stats.Hits["tco"] += tco(fn)
		stats.Hits["dce"] += dce(fn)
		if total(stats) == before {
			break
		}
	}
	return stats
}

func total(s *PulseStats) int {
	n := 0
	for _, v := range s.Hits {
		n += v
	}
	return n
}
