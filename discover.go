package main

import (
	"context"
	"os"
	"path/filepath"
)

// maxSymlinkFollows bounds the traversal in Discover (spec §4.D, §8
// invariant 3): depth exactly 64 succeeds, 65 fails SymlinkLoop.
const maxSymlinkFollows = 64

// Discover implements spec §4.D: locate name_or_path, load its [Install]
// section (folding drop-ins), and follow symlinks up to the bound,
// reifying also-expansion entries into ctx's frontier as it goes.
func Discover(ctx context.Context, ictx *InstallContext, lp *LookupPaths, nameOrPath string, flags Flags) (*InstallInfo, error) {
	name := nameOrPath
	path := ""
	if filepath.IsAbs(nameOrPath) {
		name = filepath.Base(nameOrPath)
		path = nameOrPath
	}

	info, err := ictx.Add(name, path, lp.RootDir, false)
	if err != nil {
		return nil, err
	}

	if err := traverse(ctx, ictx, lp, info, flags, 0); err != nil {
		return nil, err
	}
	ictx.Retire(info.Name)
	// A followed symlink hands the traversal on to a record named after its
	// target; walk that chain so the caller gets the record it ended on.
	for info.Type == TypeSymlink {
		next, ok := ictx.Find(filepath.Base(info.SymlinkTarget))
		if !ok || next == info {
			break
		}
		info = next
		ictx.Retire(info.Name)
	}
	return info, nil
}

func traverse(ctx context.Context, ictx *InstallContext, lp *LookupPaths, info *InstallInfo, flags Flags, depth int) error {
	if depth > maxSymlinkFollows {
		return newErr(ErrSymlinkLoop, info.Name, nil)
	}

	if info.Type == TypeUnknown {
		var err error
		if info.Path == "" {
			err = search(ctx, ictx, lp, info)
		} else {
			err = classifyAndLoad(ictx, lp, info)
		}
		if err != nil {
			return err
		}
	}

	if info.Type != TypeSymlink {
		return nil
	}

	// A symlink whose own directory is persistent_config or runtime_config
	// is user configuration, not vendor indirection: refuse to follow it
	// (spec §9 "symlink loop prevention").
	if dir := filepath.Dir(info.Path); dir == lp.PersistentConfig || dir == lp.RuntimeConfig {
		return newErr(ErrSymlinkLoop, info.Name, nil)
	}

	target := info.SymlinkTarget
	if _, err := os.Lstat(target); err != nil {
		// A dangling target is a terminal state for this record, not an error:
		// the caller's change-record layer reports IsDangling.
		return nil
	}

	targetName := filepath.Base(target)
	if targetName == info.Name {
		info.Path = target
		info.Type = TypeUnknown
		return classifyAndLoad(ictx, lp, info)
	}

	if kind, prefix, _, ut, cerr := Classify(info.Name); cerr == nil && kind == KindInstance {
		if tKind, tPrefix, _, tUt, terr := Classify(targetName); terr == nil && tKind == KindTemplate && tPrefix == prefix && tUt == ut {
			if expanded, werr := WithInstance(targetName, instancePartOrEmpty(info.Name)); werr == nil && expanded == info.Name {
				info.Path = target
				info.Type = TypeUnknown
				return classifyAndLoad(ictx, lp, info)
			}
		}
	}

	next, err := ictx.Add(targetName, target, lp.RootDir, info.Auxiliary)
	if err != nil {
		return err
	}
	return traverse(ctx, ictx, lp, next, flags, depth+1)
}

func instancePartOrEmpty(name string) string {
	inst, err := InstanceOf(name)
	if err != nil {
		return ""
	}
	return inst
}

// search probes lp.SearchPath for info.Name, falling back to the
// corresponding template name when info.Name is an instance that is not
// directly present (spec §4.D step 2.1). The probe itself is the parallel,
// read-only lp.ProbeSearchPath (golang.org/x/sync/errgroup); its hits come
// back pre-sorted into declared search_path order, so the first hit is
// still the correct shadowing winner.
func search(ctx context.Context, ictx *InstallContext, lp *LookupPaths, info *InstallInfo) error {
	hits, err := lp.ProbeSearchPath(ctx, info.Name)
	if err != nil {
		return err
	}
	if len(hits) > 0 {
		return loadCandidate(ictx, lp, info, hits[0])
	}

	kind, _, _, _, cerr := Classify(info.Name)
	if cerr == nil && kind == KindInstance {
		template, terr := TemplateOf(info.Name)
		if terr == nil {
			tHits, terr2 := lp.ProbeSearchPath(ctx, template)
			if terr2 == nil && len(tHits) > 0 {
				return loadCandidate(ictx, lp, info, tHits[0])
			}
		}
	}

	return newErr(ErrNotFound, info.Name, nil)
}

func loadCandidate(ictx *InstallContext, lp *LookupPaths, info *InstallInfo, candidate string) error {
	st, err := os.Lstat(candidate)
	if err != nil {
		return newErr(ErrIO, candidate, err)
	}
	info.Path = candidate
	return loadFile(ictx, lp, info, st.Mode()&os.ModeSymlink != 0)
}

func classifyAndLoad(ictx *InstallContext, lp *LookupPaths, info *InstallInfo) error {
	st, err := os.Lstat(info.Path)
	if err != nil {
		return newErr(ErrIO, info.Path, err)
	}
	return loadFile(ictx, lp, info, st.Mode()&os.ModeSymlink != 0)
}

func loadFile(ictx *InstallContext, lp *LookupPaths, info *InstallInfo, isSymlink bool) error {
	if isSymlink {
		target, err := os.Readlink(info.Path)
		if err != nil {
			return newErr(ErrIO, info.Path, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(info.Path), target)
		}
		if target == "/dev/null" {
			info.Type = TypeMasked
			return nil
		}
		info.Type = TypeSymlink
		info.SymlinkTarget = target
		return nil
	}

	data, err := os.ReadFile(info.Path)
	if err != nil {
		return newErr(ErrIO, info.Path, err)
	}
	if len(data) == 0 {
		info.Type = TypeMasked
		return nil
	}

	info.Type = TypeRegular

	sect, _, err := ParseInstallSection(data)
	if err != nil {
		// A ParseError is not fatal: the unit stays Regular with an empty
		// [Install] section, and the error is not reported anywhere.
		return nil
	}
	sect, _ = LoadDropins(lp.SearchPath, info.Name, sect)

	expand := func(vals []string) []string {
		out := make([]string, 0, len(vals))
		for _, v := range vals {
			exp, _ := ExpandSpecifiers(v, info.Name)
			out = append(out, exp)
		}
		return out
	}

	info.Aliases = expand(sect.Alias)
	info.WantedBy = expand(sect.WantedBy)
	info.RequiredBy = expand(sect.RequiredBy)
	info.Also = expand(sect.Also)
	if sect.DefaultInstance != "" {
		exp, _ := ExpandSpecifiers(sect.DefaultInstance, info.Name)
		info.DefaultInstance = exp
	}

	for _, also := range info.Also {
		_, _ = ictx.Add(also, "", lp.RootDir, true)
	}

	return nil
}

// DrainAlso walks the frontier until it is empty, discovering every
// transitively-reachable Also= entry (spec §4.D "Also-expansion").
func DrainAlso(ctx context.Context, ictx *InstallContext, lp *LookupPaths, flags Flags) []error {
	var errs []error
	for {
		frontier := ictx.Frontier()
		if len(frontier) == 0 {
			return errs
		}
		for _, name := range frontier {
			info, ok := ictx.Find(name)
			if !ok {
				continue
			}
			if err := traverse(ctx, ictx, lp, info, flags, 0); err != nil {
				errs = append(errs, err)
			}
			ictx.Retire(name)
		}
	}
}
