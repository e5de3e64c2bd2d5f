// Package config centralizes RR's environment-driven compiler options
// into one explicit struct, threaded through the lowerer and pipeline
// rather than read from ambient globals at arbitrary call sites.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OptLevel is the Tachyon optimizer aggressiveness level.
type OptLevel int

const (
	O0 OptLevel = iota
	O1
	O2
)

// Config is resolved once by resolveConfig in cmd/rr/root.go and passed
// down through the pipeline. A few diagnostics switches are still read
// from the environment where they are used: RR_VERBOSE_LOG and RR_PATH by
// internal/module, NO_COLOR, RR_FORCE_COLOR and RR_VERBOSE_LOG by
// internal/clilog.
type Config struct {
	// StrictLet is read from RR_STRICT_LET. No compiler stage consults
	// it: the parser discards `let`, and assigning to an undeclared name
	// is always accepted as an implicit declaration.
	StrictLet bool

	// WarnImplicitDecl is read from RR_WARN_IMPLICIT_DECL. No compiler
	// stage consults it, so no implicit-declaration warning is emitted.
	WarnImplicitDecl bool

	// EnableLICM turns on loop-invariant code motion in the Tachyon
	// optimizer. Off by default. LICM hoists a value only when it is pure
	// and its operands are defined before the loop; a value that can trap
	// (a division, an index read) is hoisted only out of a loop whose
	// constant bounds prove it runs at least once.
	EnableLICM bool

	// RRScript overrides the Rscript binary internal/runner invokes.
	RRScript string

	// OptLevel is the default optimizer level when the CLI does not
	// override it with -O0/-O1/-O2.
	OptLevel OptLevel

	// KeepR keeps the generated .R file alongside the input instead of
	// deleting it after a `run`.
	KeepR bool

	// NoRuntime omits the runtime contract prelude from emitted output;
	// only valid when the program's MIR contains no contract calls.
	NoRuntime bool
}

// FromEnv resolves a Config from RR's environment variables, defaulting
// OptLevel to O1.
func FromEnv() *Config {
	c := &Config{
		StrictLet:        boolEnv("RR_STRICT_LET"),
		WarnImplicitDecl: boolEnv("RR_WARN_IMPLICIT_DECL"),
		EnableLICM:       boolEnv("RR_ENABLE_LICM"),
		RRScript:         envOr("RRSCRIPT", "Rscript"),
		OptLevel:         O1,
	}
	return c
}

func boolEnv(name string) bool {
	v := os.Getenv(name)
	return v == "1" || v == "true" || v == "yes"
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// projectFile is the on-disk shape of an optional rr.yaml override,
// supplementing the env-var-only surface with a project-level config.
type projectFile struct {
	SearchPaths []string `yaml:"search_paths"`
	OptLevel    *int     `yaml:"opt_level"`
	EnableLICM  *bool    `yaml:"enable_licm"`
}

// MergeProjectFile looks for rr.yaml in dir and overlays any values it
// sets onto c. Absence of the file is not an error.
func (c *Config) MergeProjectFile(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "rr.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	if pf.OptLevel != nil {
		c.OptLevel = OptLevel(*pf.OptLevel)
	}
	if pf.EnableLICM != nil {
		c.EnableLICM = *pf.EnableLICM
	}
	return pf.SearchPaths, nil
}
