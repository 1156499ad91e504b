package main

import (
	"bufio"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// PresetAction is a rule's verb (spec §3 "PresetRule").
type PresetAction int

const (
	PresetEnable PresetAction = iota
	PresetDisable
)

// PresetRule is one parsed line of a .preset file.
type PresetRule struct {
	Pattern   string
	Action    PresetAction
	Instances []string
}

// PresetMode selects which half of a preset run executes (spec §4.G).
type PresetMode int

const (
	PresetFull PresetMode = iota
	PresetEnableOnly
	PresetDisableOnly
)

// PresetDecision is query's result (spec §4.G "Query").
type PresetDecision struct {
	Action PresetAction
	Names  []string // concrete unit names to enable; unused for Disable
}

// LoadPresetRules reads every *.preset file across dirs, sorted by basename
// across all directories, parsing each in declaration order.
func LoadPresetRules(dirs []string) ([]PresetRule, []string) {
	type presetFile struct {
		base string
		path string
	}
	var files []presetFile
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".preset") {
				continue
			}
			files = append(files, presetFile{base: e.Name(), path: filepath.Join(dir, e.Name())})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].base < files[j].base })

	var rules []PresetRule
	var warnings []string
	for _, f := range files {
		fileRules, warns := parsePresetFile(f.path)
		rules = append(rules, fileRules...)
		warnings = append(warnings, warns...)
	}
	return rules, warnings
}

func parsePresetFile(path string) ([]PresetRule, []string) {
	file, err := os.Open(path)
	if err != nil {
		return nil, []string{"reading preset file " + path + ": " + err.Error()}
	}
	defer file.Close()

	var rules []PresetRule
	var warnings []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			warnings = append(warnings, "malformed preset line in "+path+": "+line)
			continue
		}

		var action PresetAction
		switch fields[0] {
		case "enable":
			action = PresetEnable
		case "disable":
			action = PresetDisable
		default:
			warnings = append(warnings, "unknown preset verb in "+path+": "+line)
			continue
		}

		pattern := fields[1]
		instances := fields[2:]

		if len(instances) > 0 {
			if action != PresetEnable {
				warnings = append(warnings, "instances only allowed after enable: "+line)
				continue
			}
			kind, _, _, _, err := Classify(pattern)
			if err != nil || kind != KindTemplate {
				// spec §9 open question: ambiguous in source; here an explicit
				// ParseError rather than silently dropping the instances.
				warnings = append(warnings, "instances given for non-template pattern: "+line)
				continue
			}
		}

		rules = append(rules, PresetRule{Pattern: pattern, Action: action, Instances: instances})
	}

	return rules, warnings
}

// QueryPreset implements spec §4.G's query contract: walk rules in order,
// first match wins; absence of any match defaults to Enable([name]).
func QueryPreset(name string, rules []PresetRule) PresetDecision {
	kind, _, instance, _, _ := Classify(name)
	template, _ := TemplateOf(name)

	for _, rule := range rules {
		if kind == KindInstance && rule.Pattern == template && len(rule.Instances) > 0 {
			if containsString(rule.Instances, instance) {
				return decisionFor(rule, name)
			}
			continue
		}
		if ok, _ := path.Match(rule.Pattern, name); ok {
			return decisionFor(rule, name)
		}
	}

	return PresetDecision{Action: PresetEnable, Names: []string{name}}
}

func decisionFor(rule PresetRule, name string) PresetDecision {
	if rule.Action == PresetDisable {
		return PresetDecision{Action: PresetDisable}
	}
	if len(rule.Instances) > 0 {
		names := make([]string, 0, len(rule.Instances))
		for _, inst := range rule.Instances {
			if concrete, err := WithInstance(rule.Pattern, inst); err == nil {
				names = append(names, concrete)
			}
		}
		return PresetDecision{Action: PresetEnable, Names: names}
	}
	return PresetDecision{Action: PresetEnable, Names: []string{name}}
}

func containsString(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
