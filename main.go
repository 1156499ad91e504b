package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface structure: one command per
// high-level verb in spec.md §6, plus --root and --dry-run on every verb
// and a config sub-tree for the ambient runtime defaults.
type CLI struct {
	Mask          MaskCmd          `cmd:"" help:"Write a /dev/null mask symlink for each unit"`
	Unmask        UnmaskCmd        `cmd:"" help:"Remove a mask symlink"`
	Link          LinkCmd          `cmd:"" help:"Install a plain config symlink for an absolute unit path"`
	Enable        EnableCmd        `cmd:"" help:"Install alias/wanted-by/required-by symlinks for a unit"`
	Disable       DisableCmd       `cmd:"" help:"Remove every symlink pointing at a unit"`
	Reenable      ReenableCmd      `cmd:"" help:"disable then enable"`
	Revert        RevertCmd        `cmd:"" help:"Erase drop-ins and config-scope copies of a unit"`
	AddDependency AddDependencyCmd `cmd:"add-dependency" help:"Add a wants/requires link to a target unit"`
	SetDefault    SetDefaultCmd    `cmd:"set-default" help:"Point default.target at a unit"`
	GetDefault    GetDefaultCmd    `cmd:"get-default" help:"Print the resolved default target"`
	Preset        PresetCmd        `cmd:"" help:"Apply preset rules to the given units"`
	PresetAll     PresetAllCmd     `cmd:"preset-all" help:"Apply preset rules to every discoverable unit"`
	ListUnitFiles ListUnitFilesCmd `cmd:"list-unit-files" help:"List unit files and their state"`
	IsEnabled     IsEnabledCmd     `cmd:"is-enabled" help:"Print a unit's state; exit non-zero when it is masked, disabled, transient or bad"`
	Exists        ExistsCmd        `cmd:"" help:"Report whether a unit can be discovered"`
	Config        ConfigCmd        `cmd:"" help:"Get, set or list ambient runtime defaults"`
}

// commonFlags is embedded by every verb command for the --root/--scope/
// flag surface spec.md §6 defines, plus the supplemental --root flag.
type commonFlags struct {
	Root                   string `long:"root" help:"Root directory prefix, like systemd-install --root"`
	Scope                  string `long:"scope" help:"system, user or global"`
	Runtime                bool   `long:"runtime" help:"Write to the runtime config path instead of the persistent one"`
	Force                  bool   `long:"force" help:"Replace conflicting symlinks atomically"`
	Portable               bool   `long:"portable" help:"Write to the attached config path instead"`
	DryRun                 bool   `long:"dry-run" help:"Print what would change without writing anything"`
	IgnoreAuxiliaryFailure bool   `long:"ignore-auxiliary-failure" help:"Drop the error record for a wanted-by/required-by target a template cannot be instantiated for"`
}

func (c *commonFlags) flags() Flags {
	var f Flags
	if c.Runtime {
		f |= FlagRuntime
	}
	if c.Force {
		f |= FlagForce
	}
	if c.Portable {
		f |= FlagPortable
	}
	if c.DryRun {
		f |= FlagDryRun
	}
	if c.IgnoreAuxiliaryFailure {
		f |= FlagIgnoreAuxiliaryFailure
	}
	return f
}

func (c *commonFlags) lookupPaths() (*LookupPaths, error) {
	scope, root, err := ResolveRuntime(c.Scope, c.Root)
	if err != nil {
		return nil, err
	}
	return NewLookupPaths(scope, root)
}

func printResult(count int, records []ChangeRecord) {
	for _, r := range records {
		switch r.Kind {
		case ChangeSymlink:
			fmt.Fprintf(os.Stderr, "Created symlink %s -> %s.\n", r.Path, r.Source)
		case ChangeUnlink:
			fmt.Fprintf(os.Stderr, "Removed %s.\n", r.Path)
		case ChangeIsMasked:
			fmt.Fprintf(os.Stderr, "%s is masked.\n", r.Path)
		case ChangeIsDangling:
			fmt.Fprintf(os.Stderr, "%s is a dangling symlink.\n", r.Path)
		case ChangeDestinationNotPresent:
			fmt.Fprintf(os.Stderr, "%s: destination %s not installed.\n", r.Source, r.Path)
		case ChangeAuxiliaryFailed:
			fmt.Fprintf(os.Stderr, "Auxiliary unit %s could not be enabled.\n", r.Path)
		case ChangeError:
			fmt.Fprintf(os.Stderr, "Error: %v\n", r.Err)
		}
	}
	fmt.Fprintf(os.Stderr, "%d unit(s) processed.\n", count)
}

type MaskCmd struct {
	commonFlags
	Names []string `arg:"" help:"Unit names"`
}

func (c *MaskCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := Mask(lp, c.flags(), c.Names)
	printResult(count, records)
	return err
}

type UnmaskCmd struct {
	commonFlags
	Names []string `arg:"" help:"Unit names"`
}

func (c *UnmaskCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := Unmask(lp, c.flags(), c.Names)
	printResult(count, records)
	return err
}

type LinkCmd struct {
	commonFlags
	Paths []string `arg:"" help:"Absolute unit file paths"`
}

func (c *LinkCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := Link(lp, c.flags(), c.Paths)
	printResult(count, records)
	return err
}

type EnableCmd struct {
	commonFlags
	Names []string `arg:"" help:"Unit names"`
}

func (c *EnableCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := Enable(lp, c.flags(), c.Names)
	printResult(count, records)
	return err
}

type DisableCmd struct {
	commonFlags
	Names []string `arg:"" help:"Unit names"`
}

func (c *DisableCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := Disable(lp, c.flags(), c.Names)
	printResult(count, records)
	return err
}

type ReenableCmd struct {
	commonFlags
	Names []string `arg:"" help:"Unit names"`
}

func (c *ReenableCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := Reenable(lp, c.flags(), c.Names)
	printResult(count, records)
	return err
}

type RevertCmd struct {
	commonFlags
	Names []string `arg:"" help:"Unit names"`
}

func (c *RevertCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := Revert(lp, c.flags(), c.Names)
	printResult(count, records)
	return err
}

type AddDependencyCmd struct {
	commonFlags
	Names  []string `arg:"" help:"Unit names"`
	Target string   `long:"target" required:"" help:"Target unit to depend on"`
	Kind   string    `long:"kind" default:"wants" enum:"wants,requires" help:"wants or requires"`
}

func (c *AddDependencyCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := AddDependency(lp, c.flags(), c.Names, c.Target, c.Kind)
	printResult(count, records)
	return err
}

type SetDefaultCmd struct {
	commonFlags
	Name string `arg:"" help:"Unit name"`
}

func (c *SetDefaultCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	records, err := SetDefault(lp, c.flags(), c.Name)
	if err != nil {
		return err
	}
	printResult(len(records), records)
	return nil
}

type GetDefaultCmd struct {
	commonFlags
}

func (c *GetDefaultCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	name, err := GetDefault(lp, c.flags())
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

type PresetCmd struct {
	commonFlags
	Names []string `arg:"" help:"Unit names"`
	Mode  string   `long:"mode" default:"full" enum:"full,enable-only,disable-only" help:"Which half of the preset to apply"`
}

func (c *PresetCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := Preset(lp, c.flags(), c.Names, presetModeFromString(c.Mode))
	printResult(count, records)
	return err
}

type PresetAllCmd struct {
	commonFlags
	Mode string `long:"mode" default:"full" enum:"full,enable-only,disable-only" help:"Which half of the preset to apply"`
}

func (c *PresetAllCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	count, records, err := PresetAll(lp, c.flags(), presetModeFromString(c.Mode))
	printResult(count, records)
	return err
}

func presetModeFromString(s string) PresetMode {
	switch s {
	case "enable-only":
		return PresetEnableOnly
	case "disable-only":
		return PresetDisableOnly
	default:
		return PresetFull
	}
}

type ListUnitFilesCmd struct {
	commonFlags
	Patterns []string `arg:"" optional:"" help:"Glob patterns to filter by name"`
	State    []string `long:"state" help:"Filter by unit file state"`
}

func (c *ListUnitFilesCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	var states []UnitFileState
	for _, s := range c.State {
		states = append(states, stateFromString(s))
	}
	entries, err := GetList(lp, states, c.Patterns)
	if err != nil {
		return err
	}
	RenderUnitList(os.Stdout, entries)
	return nil
}

func stateFromString(s string) UnitFileState {
	for state := StateEnabled; state <= StateBad; state++ {
		if state.String() == s {
			return state
		}
	}
	return StateBad
}

type IsEnabledCmd struct {
	commonFlags
	Name string `arg:"" help:"Unit name"`
}

func (c *IsEnabledCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	state, err := LookupState(lp, c.Name)
	if err != nil {
		return err
	}
	fmt.Println(state.String())
	switch state {
	case StateEnabled, StateEnabledRuntime, StateStatic, StateAlias, StateIndirect, StateGenerated, StateLinked, StateLinkedRuntime:
		return nil
	default:
		os.Exit(1)
		return nil
	}
}

type ExistsCmd struct {
	commonFlags
	Name string `arg:"" help:"Unit name"`
}

func (c *ExistsCmd) Run() error {
	lp, err := c.lookupPaths()
	if err != nil {
		return err
	}
	ok, err := Exists(lp, c.Name)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	if !ok {
		os.Exit(1)
	}
	return nil
}

type ConfigCmd struct {
	Get   ConfigGetCmd   `cmd:"" help:"Print a single config value"`
	Set   ConfigSetCmd   `cmd:"" help:"Set a single config value"`
	Reset ConfigResetCmd `cmd:"" help:"Reset a single config value to its default"`
	List  ConfigListCmd  `cmd:"" help:"Print every resolved config value"`
}

type ConfigGetCmd struct {
	Key string `arg:"" help:"scope or root_dir"`
}

func (c *ConfigGetCmd) Run() error {
	v, err := GetConfigValue(c.Key)
	if err != nil {
		return err
	}
	fmt.Println(v)
	return nil
}

type ConfigSetCmd struct {
	Key   string `arg:"" help:"scope or root_dir"`
	Value string `arg:"" help:"new value"`
}

func (c *ConfigSetCmd) Run() error {
	return SetConfigValue(c.Key, c.Value)
}

type ConfigResetCmd struct {
	Key string `arg:"" help:"scope or root_dir"`
}

func (c *ConfigResetCmd) Run() error {
	return ResetConfigValue(c.Key)
}

type ConfigListCmd struct{}

func (c *ConfigListCmd) Run() error {
	values, err := ListConfigValues()
	if err != nil {
		return err
	}
	for k, v := range values {
		fmt.Printf("%s = %s\n", k, v)
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("unitctl"),
		kong.Description("Compute and materialize the unit-file symlink farm a service manager consults at boot."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
