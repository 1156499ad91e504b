package main

import "path/filepath"

// InstallFileType is InstallInfo's on-disk type (spec §3 "InstallInfo").
type InstallFileType int

const (
	TypeUnknown InstallFileType = iota
	TypeRegular
	TypeSymlink
	TypeMasked
)

// InstallInfo is one discovered unit record (spec §3 "InstallInfo").
type InstallInfo struct {
	Name string
	Path string
	Root string

	Type          InstallFileType
	SymlinkTarget string

	Aliases         []string
	WantedBy        []string
	RequiredBy      []string
	Also            []string
	DefaultInstance string

	Auxiliary bool
}

// InstallContext is the scratch space for one verb invocation (spec §3
// "InstallContext"): two keyed stores, will_process (frontier) and
// have_processed (retired). Not shared across verbs.
type InstallContext struct {
	willProcess   map[string]*InstallInfo
	haveProcessed map[string]*InstallInfo
}

// NewInstallContext returns an empty context ready for one verb's discovery.
func NewInstallContext() *InstallContext {
	return &InstallContext{
		willProcess:   make(map[string]*InstallInfo),
		haveProcessed: make(map[string]*InstallInfo),
	}
}

// Add implements spec §4.C's contract: at least one of name/path must be
// set; if only path is given, name is derived from its basename. A name
// already present in either store is returned unchanged except that
// auxiliary is ANDed with the new value.
func (c *InstallContext) Add(name, path, root string, auxiliary bool) (*InstallInfo, error) {
	if name == "" && path == "" {
		return nil, newErr(ErrInvalidName, "", nil)
	}
	if name == "" {
		name = filepath.Base(path)
	}

	if existing, ok := c.haveProcessed[name]; ok {
		existing.Auxiliary = existing.Auxiliary && auxiliary
		return existing, nil
	}
	if existing, ok := c.willProcess[name]; ok {
		existing.Auxiliary = existing.Auxiliary && auxiliary
		return existing, nil
	}

	info := &InstallInfo{
		Name:      name,
		Path:      path,
		Root:      root,
		Auxiliary: auxiliary,
	}
	c.willProcess[name] = info
	return info, nil
}

// Find looks up name in either store, preferring have_processed since a
// retired record is the settled answer.
func (c *InstallContext) Find(name string) (*InstallInfo, bool) {
	if info, ok := c.haveProcessed[name]; ok {
		return info, true
	}
	info, ok := c.willProcess[name]
	return info, ok
}

// Retire moves name from will_process to have_processed. A no-op if name
// is not in will_process (already retired, or never added).
func (c *InstallContext) Retire(name string) {
	info, ok := c.willProcess[name]
	if !ok {
		return
	}
	delete(c.willProcess, name)
	c.haveProcessed[name] = info
}

// Frontier returns the current will_process names, for drain loops that
// discover additional Also= entries mid-pass.
func (c *InstallContext) Frontier() []string {
	names := make([]string, 0, len(c.willProcess))
	for name := range c.willProcess {
		names = append(names, name)
	}
	return names
}

// Processed returns every retired record, in no particular order.
func (c *InstallContext) Processed() []*InstallInfo {
	out := make([]*InstallInfo, 0, len(c.haveProcessed))
	for _, info := range c.haveProcessed {
		out = append(out, info)
	}
	return out
}
