package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Scope selects which fixed directory table NewLookupPaths populates.
type Scope int

const (
	ScopeSystem Scope = iota
	ScopeUser
	ScopeGlobal
)

// LookupPaths is the immutable directory table for one verb invocation
// (spec §3 "LookupPaths"). Construct with NewLookupPaths; never mutate
// after construction.
type LookupPaths struct {
	RootDir string

	SearchPath []string

	PersistentConfig string
	RuntimeConfig    string

	PersistentAttached string
	RuntimeAttached    string

	Generator      string
	GeneratorEarly string
	GeneratorLate  string
	Transient      string

	PersistentControl string
	RuntimeControl    string
}

func runtimeDirOrFallback(fallback string) string {
	if d := os.Getenv("XDG_RUNTIME_DIR"); d != "" {
		return d
	}
	return fallback
}

// NewLookupPaths populates a LookupPaths from the fixed per-scope tables,
// prefixing every entry with rootDir when set (spec §4.A).
func NewLookupPaths(scope Scope, rootDir string) (*LookupPaths, error) {
	p := func(parts ...string) string {
		joined := filepath.Join(parts...)
		if rootDir == "" {
			return joined
		}
		return filepath.Join(rootDir, joined)
	}

	lp := &LookupPaths{RootDir: rootDir}

	switch scope {
	case ScopeSystem:
		lp.SearchPath = []string{
			p("/etc/systemd/system"),
			p("/run/systemd/system"),
			p("/usr/local/lib/systemd/system"),
			p("/usr/lib/systemd/system"),
		}
		lp.PersistentConfig = p("/etc/systemd/system")
		lp.RuntimeConfig = p("/run/systemd/system")
		lp.PersistentAttached = p("/etc/systemd/system.attached")
		lp.RuntimeAttached = p("/run/systemd/system.attached")
		lp.Generator = p("/run/systemd/generator")
		lp.GeneratorEarly = p("/run/systemd/generator.early")
		lp.GeneratorLate = p("/run/systemd/generator.late")
		lp.Transient = p("/run/systemd/transient")
		lp.PersistentControl = p("/etc/systemd/system.control")
		lp.RuntimeControl = p("/run/systemd/system.control")

	case ScopeUser:
		runtime := p(runtimeDirOrFallback("/run/user/self"))
		home, _ := os.UserHomeDir()
		userConfig := p(home, ".config/systemd/user")
		lp.SearchPath = []string{
			userConfig,
			p("/etc/systemd/user"),
			filepath.Join(runtime, "systemd/user"),
			p("/run/systemd/user"),
			p("/usr/local/lib/systemd/user"),
			p("/usr/lib/systemd/user"),
		}
		lp.PersistentConfig = userConfig
		lp.RuntimeConfig = filepath.Join(runtime, "systemd/user")
		lp.PersistentAttached = filepath.Join(userConfig + ".attached")
		lp.RuntimeAttached = filepath.Join(runtime, "systemd/user.attached")
		lp.Generator = filepath.Join(runtime, "systemd/generator")
		lp.GeneratorEarly = filepath.Join(runtime, "systemd/generator.early")
		lp.GeneratorLate = filepath.Join(runtime, "systemd/generator.late")
		lp.Transient = filepath.Join(runtime, "systemd/transient")
		lp.PersistentControl = userConfig + ".control"
		lp.RuntimeControl = filepath.Join(runtime, "systemd/user.control")

	case ScopeGlobal:
		lp.SearchPath = []string{
			p("/etc/systemd/user"),
			p("/run/systemd/user"),
			p("/usr/local/lib/systemd/user"),
			p("/usr/lib/systemd/user"),
		}
		lp.PersistentConfig = p("/etc/systemd/user")
		lp.RuntimeConfig = p("/run/systemd/user")
		lp.PersistentAttached = p("/etc/systemd/user.attached")
		lp.RuntimeAttached = p("/run/systemd/user.attached")
		lp.Generator = p("/run/systemd/generator")
		lp.GeneratorEarly = p("/run/systemd/generator.early")
		lp.GeneratorLate = p("/run/systemd/generator.late")
		lp.Transient = p("/run/systemd/transient")
		lp.PersistentControl = p("/etc/systemd/user.control")
		lp.RuntimeControl = p("/run/systemd/user.control")

	default:
		return nil, newErr(ErrInvalidName, "", nil)
	}

	seen := make(map[string]bool, len(lp.SearchPath))
	for _, dir := range lp.SearchPath {
		if seen[dir] {
			return nil, newErr(ErrIO, dir, nil)
		}
		seen[dir] = true
	}

	return lp, nil
}

// SkipRoot strips RootDir from p, failing with ErrNotUnderRoot if p does
// not live under it (spec §4.A "skip_root").
func (lp *LookupPaths) SkipRoot(p string) (string, error) {
	if lp.RootDir == "" {
		return p, nil
	}
	rel, ok := cutPrefix(p, lp.RootDir)
	if !ok || (rel != "" && !strings.HasPrefix(rel, "/")) {
		return "", newErr(ErrNotUnderRoot, p, nil)
	}
	if rel == "" {
		return "/", nil
	}
	return rel, nil
}

func cutPrefix(s, prefix string) (string, bool) {
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// PathCategory is the classification assigned by Classify.
type PathCategory int

const (
	CategoryOther PathCategory = iota
	CategoryConfig
	CategoryRuntime
	CategoryGenerator
	CategoryVendorOrGenerator
)

// Classify implements spec §4.A's disjoint path-category contract. It is
// distinct from unitname.go's Classify, which classifies unit *names*.
func (lp *LookupPaths) Classify(p string) (PathCategory, error) {
	dir := filepath.Dir(p)

	if dir == lp.PersistentConfig {
		return CategoryConfig, nil
	}

	stripped, err := lp.SkipRoot(p)
	if err != nil {
		return CategoryOther, err
	}

	if dir == lp.Generator || dir == lp.GeneratorEarly || dir == lp.GeneratorLate {
		return CategoryGenerator, nil
	}

	if lp.isRuntimeDir(dir, stripped) {
		return CategoryRuntime, nil
	}

	if strings.HasPrefix(stripped, "/usr") {
		return CategoryVendorOrGenerator, nil
	}

	return CategoryOther, nil
}

// isRuntimeDir implements spec §9's dual "runtime" senses for a directory:
// either it falls under /run once root_dir is stripped, or it is itself one
// of the scope's runtime-owned directories (which needn't live under /run,
// e.g. a user-scope RuntimeConfig resolved from XDG_RUNTIME_DIR). Shared by
// Classify and state.go's symlink-location scan so both senses stay in one
// place instead of being re-derived.
//
// The generator directories are not in this family. Classify tests them
// before either runtime sense, so a path directly inside one of them is
// CategoryGenerator even though, on every real scope, it also lies under
// /run.
func (lp *LookupPaths) isRuntimeDir(dir, strippedDir string) bool {
	runtimeFamily := map[string]bool{
		lp.RuntimeConfig:   true,
		lp.RuntimeAttached: true,
		lp.Transient:       true,
		lp.RuntimeControl:  true,
	}
	return strings.HasPrefix(strippedDir, "/run") || runtimeFamily[dir]
}

// IsRuntimeDir strips root_dir from dir and reports whether it belongs to
// this scope's runtime family, per spec §9's dual senses.
func (lp *LookupPaths) IsRuntimeDir(dir string) bool {
	stripped, err := lp.SkipRoot(dir)
	if err != nil {
		return false
	}
	return lp.isRuntimeDir(dir, stripped)
}

// probeResult is one search_path directory's stat outcome for a candidate
// unit filename.
type probeResult struct {
	index int
	dir   string
	path  string
	found bool
}

// ProbeSearchPath stats dir/name across every entry of lp.SearchPath in
// parallel (read-only, so the engine's single-writer invariant over
// mutations is unaffected) and returns hits re-sorted back into declared
// search_path order, so callers see deterministic shadowing.
func (lp *LookupPaths) ProbeSearchPath(ctx context.Context, name string) ([]string, error) {
	results := make([]probeResult, len(lp.SearchPath))
	g, gctx := errgroup.WithContext(ctx)

	for i, dir := range lp.SearchPath {
		i, dir := i, dir
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			candidate := filepath.Join(dir, name)
			if _, err := os.Lstat(candidate); err == nil {
				results[i] = probeResult{index: i, dir: dir, path: candidate, found: true}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, newErr(ErrIO, name, err)
	}

	var hits []string
	for _, r := range results {
		if r.found {
			hits = append(hits, r.path)
		}
	}
	return hits, nil
}
