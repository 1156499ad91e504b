package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// InstallSection is the parsed [Install] section of a unit file, before
// specifier expansion. Repeated keys (Alias=, WantedBy=, RequiredBy=, Also=)
// append across both the base file and its drop-ins; DefaultInstance= keeps
// the last non-empty value (spec §4.C, §9 "Drop-in merge").
type InstallSection struct {
	Alias           []string
	WantedBy        []string
	RequiredBy      []string
	Also            []string
	DefaultInstance string
}

// ParseInstallSection reads the [Install] section out of unit-file text.
// Every other section is accepted but discarded; unknown keys inside
// [Install] produce a warning, not an error (spec §4.C).
func ParseInstallSection(data []byte) (*InstallSection, []string, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:         true,
		AllowNonUniqueSections: true,
		SpaceBeforeInlineComment: true,
	}, data)
	if err != nil {
		return nil, nil, newErr(ErrParse, "", err)
	}

	sect, err := f.GetSection("Install")
	if err != nil {
		// No [Install] section at all is valid: empty install info.
		return &InstallSection{}, nil, nil
	}

	out := &InstallSection{}
	var warnings []string

	for _, key := range sect.Keys() {
		values := key.ValueWithShadows()
		switch key.Name() {
		case "Alias":
			out.Alias = append(out.Alias, splitAll(values)...)
		case "WantedBy":
			out.WantedBy = append(out.WantedBy, splitAll(values)...)
		case "RequiredBy":
			out.RequiredBy = append(out.RequiredBy, splitAll(values)...)
		case "Also":
			out.Also = append(out.Also, splitAll(values)...)
		case "DefaultInstance":
			for _, v := range values {
				if v != "" {
					out.DefaultInstance = v
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown [Install] key %q", key.Name()))
		}
	}

	return out, warnings, nil
}

func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(v)...)
	}
	return out
}

// MergeInstallSection folds a drop-in's [Install] section into base. Sequences
// append; DefaultInstance takes the last non-empty value. base is mutated and
// returned for chaining.
func MergeInstallSection(base *InstallSection, dropin *InstallSection) *InstallSection {
	if dropin == nil {
		return base
	}
	base.Alias = append(base.Alias, dropin.Alias...)
	base.WantedBy = append(base.WantedBy, dropin.WantedBy...)
	base.RequiredBy = append(base.RequiredBy, dropin.RequiredBy...)
	base.Also = append(base.Also, dropin.Also...)
	if dropin.DefaultInstance != "" {
		base.DefaultInstance = dropin.DefaultInstance
	}
	return base
}

// LoadDropins reads "<dir>/<unitName>.d/*.conf" drop-ins across every
// search_path entry, sorted by basename across all directories (spec §4.D),
// and folds each over base in order.
func LoadDropins(searchPath []string, unitName string, base *InstallSection) (*InstallSection, []string) {
	type dropinFile struct {
		base string
		path string
	}
	var files []dropinFile
	for _, dir := range searchPath {
		dropDir := filepath.Join(dir, unitName+".d")
		entries, err := os.ReadDir(dropDir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".conf") {
				continue
			}
			files = append(files, dropinFile{base: e.Name(), path: filepath.Join(dropDir, e.Name())})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].base < files[j].base })

	var warnings []string
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("reading drop-in %s: %v", f.path, err))
			continue
		}
		parsed, warns, err := ParseInstallSection(data)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("parsing drop-in %s: %v", f.path, err))
			continue
		}
		warnings = append(warnings, warns...)
		base = MergeInstallSection(base, parsed)
	}
	return base, warnings
}
