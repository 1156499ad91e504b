package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// SymlinkOutcome is create_symlink's result tag (spec §4.E).
type SymlinkOutcome int

const (
	Created SymlinkOutcome = iota
	AlreadyCorrect
	Conflict
)

// CreateSymlink implements spec §4.E's primitive: mkdir -p the parent,
// attempt the link, and on a pre-existing entry either confirm it already
// points at old or (with force) atomically replace it via a randomized
// sibling + rename. When dryRun is set, no directory, symlink, or rename
// syscall is issued; the outcome and change records describe what would
// have happened, read from the existing state of newPath only.
func CreateSymlink(old, newPath string, force, dryRun bool) (SymlinkOutcome, []ChangeRecord, error) {
	if dryRun {
		return previewSymlink(old, newPath, force)
	}

	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return Conflict, nil, newErr(ErrIO, newPath, err)
	}

	if err := unix.Symlink(old, newPath); err == nil {
		return Created, []ChangeRecord{changeSymlink(newPath, old)}, nil
	} else if err != unix.EEXIST {
		return Conflict, nil, newErr(ErrIO, newPath, err)
	}

	existing, err := os.Readlink(newPath)
	if err != nil {
		return Conflict, nil, newErr(ErrIO, newPath, err)
	}

	if samePath(existing, old, filepath.Dir(newPath)) {
		return AlreadyCorrect, nil, nil
	}

	if !force {
		return Conflict, []ChangeRecord{changeErr(newErr(ErrExists, newPath, nil))}, nil
	}

	if err := atomicReplace(old, newPath); err != nil {
		return Conflict, nil, err
	}
	return Created, []ChangeRecord{changeUnlink(newPath), changeSymlink(newPath, old)}, nil
}

// previewSymlink computes what CreateSymlink would do without writing
// anything: it reads (never creates) newPath to see whether a link already
// sits there, but issues no mkdir, symlink, unlink or rename.
func previewSymlink(old, newPath string, force bool) (SymlinkOutcome, []ChangeRecord, error) {
	existing, err := os.Readlink(newPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Created, []ChangeRecord{changeSymlink(newPath, old)}, nil
		}
		return Conflict, nil, newErr(ErrIO, newPath, err)
	}

	if samePath(existing, old, filepath.Dir(newPath)) {
		return AlreadyCorrect, nil, nil
	}

	if !force {
		return Conflict, []ChangeRecord{changeErr(newErr(ErrExists, newPath, nil))}, nil
	}

	return Created, []ChangeRecord{changeUnlink(newPath), changeSymlink(newPath, old)}, nil
}

// samePath compares a possibly-relative existing link target against old,
// both resolved relative to the directory the link lives in.
func samePath(existing, old, dir string) bool {
	if filepath.IsAbs(existing) {
		return existing == old
	}
	return filepath.Join(dir, existing) == old
}

// atomicReplace writes to a randomized sibling then renames over dest, per
// spec §9 "symlink replacement atomicity": never unlink-then-symlink.
func atomicReplace(old, dest string) error {
	dir := filepath.Dir(dest)
	sibling := filepath.Join(dir, fmt.Sprintf(".%s.%d.%d.tmp", filepath.Base(dest), os.Getpid(), rand.Int63()))

	if err := unix.Symlink(old, sibling); err != nil {
		return newErr(ErrIO, sibling, err)
	}
	if err := unix.Rename(sibling, dest); err != nil {
		_ = unix.Unlink(sibling)
		return newErr(ErrIO, dest, err)
	}
	return nil
}

// InstallAliases writes the flat and .wants/.requires aliases derived from
// an InstallInfo's Alias= list (spec §4.E "Alias symlinks").
func InstallAliases(info *InstallInfo, configPath string, force, dryRun bool) []ChangeRecord {
	var records []ChangeRecord
	sourceType, _ := TypeOf(info.Name)

	for _, alias := range info.Aliases {
		if strings.Contains(alias, "/") {
			records = append(records, installDirAlias(info, alias, configPath, force, dryRun)...)
			continue
		}

		aliasType, err := TypeOf(alias)
		if err != nil || aliasType != sourceType {
			records = append(records, changeErr(newErr(ErrInvalidName, alias, nil)))
			continue
		}
		if !allowsAlias(sourceType) {
			continue
		}

		dest := filepath.Join(configPath, alias)
		_, recs, err := CreateSymlink(info.Path, dest, force, dryRun)
		if err != nil {
			records = append(records, changeErr(err.(*InstallError)))
			continue
		}
		records = append(records, recs...)
	}
	return records
}

func installDirAlias(info *InstallInfo, alias, configPath string, force, dryRun bool) []ChangeRecord {
	parent := filepath.Dir(alias)
	leaf := filepath.Base(alias)

	if !strings.HasSuffix(parent, ".wants") && !strings.HasSuffix(parent, ".requires") {
		return []ChangeRecord{changeErr(newErr(ErrInvalidName, alias, nil))}
	}
	parentUnit := strings.TrimSuffix(strings.TrimSuffix(parent, ".wants"), ".requires")
	if !Valid(parentUnit, MaskAny) {
		return []ChangeRecord{changeErr(newErr(ErrInvalidName, alias, nil))}
	}
	if !Valid(leaf, MaskAny) {
		return []ChangeRecord{changeErr(newErr(ErrInvalidName, leaf, nil))}
	}

	dest := filepath.Join(configPath, parent, leaf)
	_, recs, err := CreateSymlink(info.Path, dest, force, dryRun)
	if err != nil {
		return []ChangeRecord{changeErr(err.(*InstallError))}
	}
	return recs
}

// InstallWantedBy / InstallRequiredBy implement spec §4.E's dependency-link
// rules, including template instance propagation.
func InstallWantedBy(info *InstallInfo, configPath string, force, ignoreAux, dryRun bool) []ChangeRecord {
	return installDependencyLinks(info, info.WantedBy, "wants", configPath, force, ignoreAux, dryRun)
}

func InstallRequiredBy(info *InstallInfo, configPath string, force, ignoreAux, dryRun bool) []ChangeRecord {
	return installDependencyLinks(info, info.RequiredBy, "requires", configPath, force, ignoreAux, dryRun)
}

func installDependencyLinks(info *InstallInfo, targets []string, suffix, configPath string, force, ignoreAux, dryRun bool) []ChangeRecord {
	var records []ChangeRecord

	kind, _, _, _, _ := Classify(info.Name)

	for _, target := range targets {
		linkName := info.Name
		sourcePath := info.Path

		if kind == KindTemplate {
			if info.DefaultInstance != "" {
				concrete, err := WithInstance(info.Name, info.DefaultInstance)
				if err != nil {
					records = append(records, changeErr(err.(*InstallError)))
					continue
				}
				linkName = concrete
			} else {
				tKind, _, tInstance, _, terr := Classify(target)
				if terr != nil || (tKind != KindInstance && tKind != KindTemplate) {
					kindErr := newErr(ErrNotATemplate, target, nil)
					if ignoreAux {
						continue
					}
					records = append(records, changeErr(kindErr))
					continue
				}
				if tInstance == "" {
					kindErr := newErr(ErrInvalidTemplateRef, target, nil)
					if ignoreAux {
						continue
					}
					records = append(records, changeErr(kindErr))
					continue
				}
				concrete, err := WithInstance(info.Name, tInstance)
				if err != nil {
					if ignoreAux {
						continue
					}
					records = append(records, changeErr(err.(*InstallError)))
					continue
				}
				linkName = concrete
			}
		}

		dest := filepath.Join(configPath, target+"."+suffix, linkName)
		_, recs, err := CreateSymlink(sourcePath, dest, force, dryRun)
		if err != nil {
			records = append(records, changeErr(err.(*InstallError)))
			continue
		}
		records = append(records, recs...)
	}
	return records
}

// InstallPlainLink creates config_path/source.name -> source.path when the
// source isn't already visible under any search_path entry (spec §4.E
// "Plain link").
func InstallPlainLink(info *InstallInfo, lp *LookupPaths, configPath string, force, dryRun bool) []ChangeRecord {
	for _, dir := range lp.SearchPath {
		if filepath.Dir(info.Path) == dir {
			return nil
		}
	}
	dest := filepath.Join(configPath, info.Name)
	_, recs, err := CreateSymlink(info.Path, dest, force, dryRun)
	if err != nil {
		return []ChangeRecord{changeErr(err.(*InstallError))}
	}
	return recs
}

// MaskUnit writes a symlink to /dev/null at configPath/name (spec §4.E
// "Masking"). No [Install] processing is performed.
func MaskUnit(name, configPath string, force, dryRun bool) ([]ChangeRecord, error) {
	dest := filepath.Join(configPath, name)
	_, recs, err := CreateSymlink("/dev/null", dest, force, dryRun)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// RemoveMarkedSymlinks walks configPath recursively, unlinking every symlink
// whose canonicalized target or basename matches an entry in marks. Removing
// a link adds its own stripped path to marks, which converges since marks
// only grows (spec §4.E "Removal"). When dryRun is set, no file is removed
// and no directory is pruned: matches are reported from a single read-only
// pass, so the reported set reflects only marks the caller already knows
// about rather than the full transitive closure a real removal would reach.
func RemoveMarkedSymlinks(lp *LookupPaths, marks map[string]bool, configPath string, dryRun bool) ([]ChangeRecord, error) {
	var records []ChangeRecord

	for {
		changedThisPass := false

		err := filepath.Walk(configPath, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if fi.Mode()&os.ModeSymlink == 0 {
				return nil
			}

			base := filepath.Base(path)
			target, rerr := os.Readlink(path)
			matched := marks[base]
			if !matched && rerr == nil {
				resolved := target
				if !filepath.IsAbs(resolved) {
					resolved = filepath.Join(filepath.Dir(path), resolved)
				}
				if marks[filepath.Base(resolved)] || marks[resolved] {
					matched = true
				}
			}
			if !matched {
				return nil
			}

			if dryRun {
				records = append(records, changeUnlink(path))
				return nil
			}

			if err := os.Remove(path); err != nil {
				return nil
			}
			records = append(records, changeUnlink(path))

			stripped, serr := lp.SkipRoot(path)
			if serr == nil && !marks[stripped] {
				marks[stripped] = true
				changedThisPass = true
			}
			return nil
		})
		if err != nil {
			return records, newErr(ErrIO, configPath, err)
		}
		if dryRun || !changedThisPass {
			break
		}
	}

	if !dryRun {
		pruneEmptyDependencyDirs(configPath)
	}
	return records, nil
}

func pruneEmptyDependencyDirs(configPath string) {
	entries, err := os.ReadDir(configPath)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".wants") && !strings.HasSuffix(name, ".requires") {
			continue
		}
		dir := filepath.Join(configPath, name)
		inner, err := os.ReadDir(dir)
		if err == nil && len(inner) == 0 {
			_ = os.Remove(dir)
		}
	}
}
