package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// UnitFileState is lookup_state's result tag (spec §4.F, §9).
type UnitFileState int

const (
	StateEnabled UnitFileState = iota
	StateEnabledRuntime
	StateLinked
	StateLinkedRuntime
	StateAlias
	StateMasked
	StateMaskedRuntime
	StateStatic
	StateDisabled
	StateIndirect
	StateGenerated
	StateTransient
	StateBad
)

func (s UnitFileState) String() string {
	switch s {
	case StateEnabled:
		return "enabled"
	case StateEnabledRuntime:
		return "enabled-runtime"
	case StateLinked:
		return "linked"
	case StateLinkedRuntime:
		return "linked-runtime"
	case StateAlias:
		return "alias"
	case StateMasked:
		return "masked"
	case StateMaskedRuntime:
		return "masked-runtime"
	case StateStatic:
		return "static"
	case StateDisabled:
		return "disabled"
	case StateIndirect:
		return "indirect"
	case StateGenerated:
		return "generated"
	case StateTransient:
		return "transient"
	default:
		return "bad"
	}
}

// LookupState implements spec §4.F: discover name, then classify per the
// ordered rule list, first match wins.
func LookupState(lp *LookupPaths, name string) (UnitFileState, error) {
	ictx := NewInstallContext()
	info, err := Discover(context.Background(), ictx, lp, name, 0)
	if err != nil {
		if IsKind(err, ErrNotFound) {
			return StateBad, nil
		}
		return StateBad, err
	}

	if info.Type == TypeMasked {
		if lp.IsRuntimeDir(filepath.Dir(info.Path)) {
			return StateMaskedRuntime, nil
		}
		return StateMasked, nil
	}

	if info.Type != TypeRegular {
		return StateBad, nil
	}

	if filepath.Base(info.Path) != info.Name {
		if inst, ierr := InstanceOf(info.Name); ierr != nil || !isInstanceOfFile(inst, filepath.Base(info.Path)) {
			return StateAlias, nil
		}
	}

	if cat, _ := lp.Classify(info.Path); cat == CategoryGenerator {
		return StateGenerated, nil
	}
	if info.Path == filepath.Join(lp.Transient, filepath.Base(info.Path)) {
		return StateTransient, nil
	}

	// Spec §4.F's rule list is ordered: try each premise in turn and return
	// on the first that holds, otherwise fall through to the next.
	scan := scanForSymlinks(lp, info)
	isInstance := false
	if kind, _, _, _, cerr := Classify(info.Name); cerr == nil && kind == KindInstance {
		isInstance = true
	}

	if scan.depHit && scan.depLocation == locationPersistent {
		return StateEnabled, nil
	}
	if scan.depHit && scan.depLocation == locationRuntime {
		if isInstance {
			return StateStatic, nil
		}
		return StateEnabledRuntime, nil
	}
	if scan.depHit && isInstance {
		return StateStatic, nil
	}
	if scan.sameNameHit && scan.sameNameLocation == locationPersistent {
		return StateLinked, nil
	}
	if scan.sameNameHit && scan.sameNameLocation == locationRuntime {
		return StateLinkedRuntime, nil
	}

	switch {
	case len(info.Aliases) > 0 || len(info.WantedBy) > 0 || len(info.RequiredBy) > 0:
		return StateDisabled, nil
	case len(info.Also) > 0:
		return StateIndirect, nil
	default:
		return StateStatic, nil
	}
}

func isInstanceOfFile(instance, fileBase string) bool {
	kind, _, fInstance, _, err := Classify(fileBase)
	return err == nil && kind == KindInstance && fInstance == instance
}

type scanLocation int

const (
	locationNone scanLocation = iota
	locationPersistent
	locationRuntime
	locationElsewhere
)

// symlinkScan separates the two kinds of hit spec §4.F cares about: a
// dependency-style hit (inside a *.wants or *.requires directory, meaning
// the unit was enabled) versus a plain same-name hit at a search_path
// directory's top level (meaning the unit was linked). Each is tracked with
// its own location, since a unit can plausibly show one kind of hit in one
// directory and the other kind in another.
type symlinkScan struct {
	depHit      bool
	depLocation scanLocation

	sameNameHit      bool
	sameNameLocation scanLocation
}

// scanForSymlinks walks lp.SearchPath in order looking for a link named by
// the unit or one of its aliases, matching by link path or link target
// (spec §4.F). locationOf classifies each search_path directory using
// lp.Classify/lp.IsRuntimeDir rather than raw equality, so a hit under a
// directory that is runtime by either of spec §9's two senses (e.g. a
// hardcoded /run entry distinct from the scope's resolved RuntimeConfig) is
// still recognized as runtime.
func scanForSymlinks(lp *LookupPaths, info *InstallInfo) symlinkScan {
	var scan symlinkScan
	candidates := append([]string{info.Name}, info.Aliases...)

	for _, dir := range lp.SearchPath {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		loc := locationOf(lp, dir)

		if !scan.sameNameHit {
			for _, e := range entries {
				if e.Type()&os.ModeSymlink == 0 {
					continue
				}
				if !matchesCandidate(e.Name(), candidates) {
					continue
				}
				scan.sameNameHit = true
				scan.sameNameLocation = loc
				break
			}
		}

		if !scan.depHit {
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				if !strings.HasSuffix(e.Name(), ".wants") && !strings.HasSuffix(e.Name(), ".requires") {
					continue
				}
				subDir := filepath.Join(dir, e.Name())
				subEntries, serr := os.ReadDir(subDir)
				if serr != nil {
					continue
				}
				if dependencyHit(subDir, subEntries, candidates, info.Path) {
					scan.depHit = true
					scan.depLocation = loc
					break
				}
			}
		}

		if scan.sameNameHit && scan.depHit {
			break
		}
	}
	return scan
}

func locationOf(lp *LookupPaths, dir string) scanLocation {
	switch {
	case dir == lp.PersistentConfig:
		return locationPersistent
	case lp.IsRuntimeDir(dir):
		return locationRuntime
	default:
		return locationElsewhere
	}
}

func matchesCandidate(name string, candidates []string) bool {
	for _, c := range candidates {
		if name == c {
			return true
		}
	}
	return false
}

func dependencyHit(dir string, entries []os.DirEntry, candidates []string, sourcePath string) bool {
	for _, e := range entries {
		if e.Type()&os.ModeSymlink == 0 {
			continue
		}
		if matchesCandidate(e.Name(), candidates) {
			return true
		}
		target, err := os.Readlink(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		if target == sourcePath {
			return true
		}
	}
	return false
}
