package main

import (
	"context"
	"os"
	"path"
	"path/filepath"
)

// Each high-level verb constructs a fresh LookupPaths + InstallContext,
// drives discovery, runs the materializer or removal pass against a single
// config path chosen by flags, and returns (count, records, error) per
// spec §4.H. A negative count signals the operation could not be started
// at all (§7); zero is "nothing to do".

// Mask implements spec §4.H "mask": write a /dev/null symlink for each name.
func Mask(lp *LookupPaths, flags Flags, names []string) (int, []ChangeRecord, error) {
	configPath := lp.ConfigPath(flags)
	var records []ChangeRecord
	count := 0

	for _, name := range names {
		if !Valid(name, MaskAny) {
			records = append(records, changeErr(newErr(ErrInvalidName, name, nil)))
			continue
		}
		recs, err := MaskUnit(name, configPath, flags.has(FlagForce), flags.has(FlagDryRun))
		if err != nil {
			records = append(records, changeErr(err.(*InstallError)))
			continue
		}
		records = append(records, recs...)
		if len(recs) > 0 {
			count++
		}
	}
	return count, records, nil
}

// Unmask implements spec §4.H "unmask": remove a mask link if present.
func Unmask(lp *LookupPaths, flags Flags, names []string) (int, []ChangeRecord, error) {
	configPath := lp.ConfigPath(flags)
	marks := make(map[string]bool, len(names))
	for _, name := range names {
		marks[name] = true
	}
	records, err := RemoveMarkedSymlinks(lp, marks, configPath, flags.has(FlagDryRun))
	if err != nil {
		return -1, nil, err
	}
	return len(records), records, nil
}

// Link implements spec §4.H "link": install a plain config symlink for each
// absolute path, without processing [Install].
func Link(lp *LookupPaths, flags Flags, paths []string) (int, []ChangeRecord, error) {
	configPath := lp.ConfigPath(flags)
	var records []ChangeRecord
	count := 0

	for _, p := range paths {
		if !filepath.IsAbs(p) {
			records = append(records, changeErr(newErr(ErrInvalidName, p, nil)))
			continue
		}
		name := filepath.Base(p)
		dest := filepath.Join(configPath, name)
		_, recs, err := CreateSymlink(p, dest, flags.has(FlagForce), flags.has(FlagDryRun))
		if err != nil {
			records = append(records, changeErr(err.(*InstallError)))
			continue
		}
		records = append(records, recs...)
		if len(recs) > 0 {
			count++
		}
	}
	return count, records, nil
}

// Enable implements spec §4.H "enable": discover each name, then materialize
// its aliases, wanted-by and required-by links, and a plain link when the
// source lives outside search_path. The Also= closure is discovered only
// after the named units are materialized; Also= units get no links.
func Enable(lp *LookupPaths, flags Flags, names []string) (int, []ChangeRecord, error) {
	ictx := NewInstallContext()
	configPath := lp.ConfigPath(flags)
	var records []ChangeRecord
	count := 0

	for _, name := range names {
		info, err := Discover(context.Background(), ictx, lp, name, flags)
		if err != nil {
			records = append(records, changeErr(err.(*InstallError)))
			continue
		}
		if info.Type == TypeMasked {
			records = append(records, changeMasked(info.Path))
			continue
		}
		if info.Type != TypeRegular {
			records = append(records, changeErr(newErr(ErrNotFound, name, nil)))
			continue
		}

		force := flags.has(FlagForce)
		ignoreAux := flags.has(FlagIgnoreAuxiliaryFailure)
		dryRun := flags.has(FlagDryRun)

		recs := InstallAliases(info, configPath, force, dryRun)
		recs = append(recs, InstallWantedBy(info, configPath, force, ignoreAux, dryRun)...)
		recs = append(recs, InstallRequiredBy(info, configPath, force, ignoreAux, dryRun)...)
		recs = append(recs, InstallPlainLink(info, lp, configPath, force, dryRun)...)
		records = append(records, recs...)
		count += countSymlinks(recs)
	}

	DrainAlso(context.Background(), ictx, lp, flags)
	return count, records, nil
}

func countSymlinks(recs []ChangeRecord) int {
	n := 0
	for _, r := range recs {
		if r.Kind == ChangeSymlink {
			n++
		}
	}
	return n
}

// Disable implements spec §4.H "disable": remove every link whose target or
// basename matches the input names.
func Disable(lp *LookupPaths, flags Flags, names []string) (int, []ChangeRecord, error) {
	configPath := lp.ConfigPath(flags)
	marks := make(map[string]bool, len(names))
	for _, name := range names {
		marks[filepath.Base(name)] = true
	}
	records, err := RemoveMarkedSymlinks(lp, marks, configPath, flags.has(FlagDryRun))
	if err != nil {
		return -1, nil, err
	}
	return len(records), records, nil
}

// Reenable implements spec §4.H "reenable": disable(basename) followed by
// enable, ignoring path components in the disable phase.
func Reenable(lp *LookupPaths, flags Flags, names []string) (int, []ChangeRecord, error) {
	basenames := make([]string, len(names))
	for i, n := range names {
		basenames[i] = filepath.Base(n)
	}

	_, disableRecs, err := Disable(lp, flags, basenames)
	if err != nil {
		return -1, nil, err
	}
	count, enableRecs, err := Enable(lp, flags, names)
	if err != nil {
		return -1, nil, err
	}
	return count, append(disableRecs, enableRecs...), nil
}

// AddDependency implements spec §4.H "add-dependency": link target.wants|
// requires/name -> source.path for each discovered name.
func AddDependency(lp *LookupPaths, flags Flags, names []string, target string, kind string) (int, []ChangeRecord, error) {
	ictx := NewInstallContext()
	configPath := lp.ConfigPath(flags)
	var records []ChangeRecord
	count := 0

	suffix := "wants"
	if kind == "requires" {
		suffix = "requires"
	}

	for _, name := range names {
		info, err := Discover(context.Background(), ictx, lp, name, flags)
		if err != nil {
			records = append(records, changeErr(err.(*InstallError)))
			continue
		}
		dest := filepath.Join(configPath, target+"."+suffix, info.Name)
		_, recs, err := CreateSymlink(info.Path, dest, flags.has(FlagForce), flags.has(FlagDryRun))
		if err != nil {
			records = append(records, changeErr(err.(*InstallError)))
			continue
		}
		records = append(records, recs...)
		count += countSymlinks(recs)
	}
	return count, records, nil
}

// SetDefault implements spec §4.H "set-default": point config_path/
// default.target at the resolved unit.
func SetDefault(lp *LookupPaths, flags Flags, name string) ([]ChangeRecord, error) {
	ictx := NewInstallContext()
	info, err := Discover(context.Background(), ictx, lp, name, flags)
	if err != nil {
		return nil, err
	}
	configPath := lp.ConfigPath(flags)
	dest := filepath.Join(configPath, "default.target")
	_, recs, err := CreateSymlink(info.Path, dest, flags.has(FlagForce), flags.has(FlagDryRun))
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// GetDefault implements spec §4.H "get-default": read config_path/
// default.target and return its basename.
func GetDefault(lp *LookupPaths, flags Flags) (string, error) {
	configPath := lp.ConfigPath(flags)
	target, err := os.Readlink(filepath.Join(configPath, "default.target"))
	if err != nil {
		return "", newErr(ErrNotFound, "default.target", err)
	}
	return filepath.Base(target), nil
}

// Preset implements spec §4.H "preset" over an explicit name list.
func Preset(lp *LookupPaths, flags Flags, names []string, mode PresetMode) (int, []ChangeRecord, error) {
	rules, _ := LoadPresetRules(presetDirs(lp))
	return runPreset(lp, flags, names, rules, mode)
}

// PresetAll implements spec §4.H "preset-all": query every discoverable
// unit name under search_path rather than an explicit list.
func PresetAll(lp *LookupPaths, flags Flags, mode PresetMode) (int, []ChangeRecord, error) {
	rules, _ := LoadPresetRules(presetDirs(lp))
	names := allUnitNames(lp)
	return runPreset(lp, flags, names, rules, mode)
}

func runPreset(lp *LookupPaths, flags Flags, names []string, rules []PresetRule, mode PresetMode) (int, []ChangeRecord, error) {
	var records []ChangeRecord
	count := 0

	var toDisable, toEnable []string
	for _, name := range names {
		decision := QueryPreset(name, rules)
		if decision.Action == PresetDisable {
			toDisable = append(toDisable, name)
		} else {
			toEnable = append(toEnable, decision.Names...)
		}
	}

	if mode == PresetFull || mode == PresetDisableOnly {
		n, recs, err := Disable(lp, flags, toDisable)
		if err != nil {
			return -1, nil, err
		}
		count += n
		records = append(records, recs...)
	}

	if mode == PresetFull || mode == PresetEnableOnly {
		n, recs, err := Enable(lp, flags, toEnable)
		if err != nil {
			return -1, nil, err
		}
		count += n
		records = append(records, recs...)
	}

	return count, records, nil
}

func presetDirs(lp *LookupPaths) []string {
	dirs := make([]string, 0, len(lp.SearchPath))
	for _, dir := range lp.SearchPath {
		dirs = append(dirs, filepath.Join(filepath.Dir(dir), "system-preset"))
	}
	return dirs
}

func allUnitNames(lp *LookupPaths) []string {
	seen := make(map[string]bool)
	var names []string
	for _, dir := range lp.SearchPath {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if !Valid(e.Name(), MaskAny) {
				continue
			}
			if !seen[e.Name()] {
				seen[e.Name()] = true
				names = append(names, e.Name())
			}
		}
	}
	return names
}

// UnitListEntry is one row of get-list's output (spec §6 "get-list").
type UnitListEntry struct {
	Name  string
	State UnitFileState
	Path  string
}

// GetList implements spec §4.H "get-list": enumerate every unit visible
// under search_path, optionally filtered by state and glob pattern.
func GetList(lp *LookupPaths, states []UnitFileState, patterns []string) ([]UnitListEntry, error) {
	var entries []UnitListEntry
	for _, name := range allUnitNames(lp) {
		if len(patterns) > 0 && !matchesAny(name, patterns) {
			continue
		}
		state, err := LookupState(lp, name)
		if err != nil {
			continue
		}
		if len(states) > 0 && !containsState(states, state) {
			continue
		}
		path := ""
		for _, dir := range lp.SearchPath {
			candidate := filepath.Join(dir, name)
			if _, err := os.Lstat(candidate); err == nil {
				path = candidate
				break
			}
		}
		entries = append(entries, UnitListEntry{Name: name, State: state, Path: path})
	}
	return entries, nil
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

func containsState(states []UnitFileState, s UnitFileState) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

// Exists implements spec §4.H "exists": whether discovery succeeds.
func Exists(lp *LookupPaths, name string) (bool, error) {
	ictx := NewInstallContext()
	_, err := Discover(context.Background(), ictx, lp, name, 0)
	if err != nil {
		if IsKind(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Revert implements spec §4.H "revert": erase drop-ins and config-scope
// copies, then garbage-collect dangling dependency links.
func Revert(lp *LookupPaths, flags Flags, names []string) (int, []ChangeRecord, error) {
	var records []ChangeRecord
	marks := make(map[string]bool, len(names))
	dryRun := flags.has(FlagDryRun)

	remove := func(p string) bool {
		if dryRun {
			return true
		}
		return os.Remove(p) == nil
	}

	for _, name := range names {
		marks[name] = true

		for _, dir := range []string{lp.PersistentConfig, lp.RuntimeConfig, lp.PersistentControl, lp.RuntimeControl, lp.Transient} {
			dropin := filepath.Join(dir, name+".d")
			if entries, err := os.ReadDir(dropin); err == nil {
				for _, e := range entries {
					p := filepath.Join(dropin, e.Name())
					if remove(p) {
						records = append(records, changeUnlink(p))
					}
				}
				if remove(dropin) {
					records = append(records, changeUnlink(dropin))
				}
			}

			vendorPath := filepath.Join(dir, name)
			if _, err := os.Lstat(vendorPath); err == nil {
				if hasVendorCopy(lp, name) {
					if remove(vendorPath) {
						records = append(records, changeUnlink(vendorPath))
					}
				}
			}
		}
	}

	recs, err := RemoveMarkedSymlinks(lp, marks, lp.PersistentConfig, dryRun)
	if err != nil {
		return -1, records, err
	}
	records = append(records, recs...)
	return len(records), records, nil
}

func hasVendorCopy(lp *LookupPaths, name string) bool {
	for _, dir := range lp.SearchPath {
		p := filepath.Join(dir, name)
		cat, err := lp.Classify(p)
		if _, serr := os.Lstat(p); err == nil && serr == nil && cat == CategoryVendorOrGenerator {
			return true
		}
	}
	return false
}

