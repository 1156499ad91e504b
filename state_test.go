package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupStateMasked(t *testing.T) {
	root := t.TempDir()
	persistentConfig := filepath.Join(root, "etc")
	os.MkdirAll(persistentConfig, 0o755)
	os.Symlink("/dev/null", filepath.Join(persistentConfig, "net.service"))

	lp := &LookupPaths{
		SearchPath:       []string{persistentConfig},
		PersistentConfig: persistentConfig,
	}

	state, err := LookupState(lp, "net.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateMasked {
		t.Fatalf("got %v, want masked", state)
	}
}

func TestLookupStateStaticWhenNoInstallEntries(t *testing.T) {
	vendor := t.TempDir()
	writeUnit(t, vendor, "foo.service", "[Unit]\nDescription=x\n")

	lp := &LookupPaths{SearchPath: []string{vendor}, PersistentConfig: t.TempDir()}

	state, err := LookupState(lp, "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateStatic {
		t.Fatalf("got %v, want static", state)
	}
}

func TestLookupStateDisabledWhenInstallPresentButNoLinks(t *testing.T) {
	vendor := t.TempDir()
	writeUnit(t, vendor, "foo.service", "[Install]\nWantedBy=multi-user.target\n")

	lp := &LookupPaths{SearchPath: []string{vendor}, PersistentConfig: t.TempDir()}

	state, err := LookupState(lp, "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateDisabled {
		t.Fatalf("got %v, want disabled", state)
	}
}

func TestLookupStateEnabledWhenLinkedInPersistentConfig(t *testing.T) {
	vendor := t.TempDir()
	path := writeUnit(t, vendor, "foo.service", "[Install]\nWantedBy=multi-user.target\n")

	persistentConfig := t.TempDir()
	wantsDir := filepath.Join(persistentConfig, "multi-user.target.wants")
	os.MkdirAll(wantsDir, 0o755)
	os.Symlink(path, filepath.Join(wantsDir, "foo.service"))

	lp := &LookupPaths{SearchPath: []string{persistentConfig, vendor}, PersistentConfig: persistentConfig}

	state, err := LookupState(lp, "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateEnabled {
		t.Fatalf("got %v, want enabled", state)
	}
}

func TestLookupStateEnabledRuntimeWhenLinkedUnderRuntimeConfig(t *testing.T) {
	vendor := t.TempDir()
	path := writeUnit(t, vendor, "foo.service", "[Install]\nWantedBy=multi-user.target\n")

	runtimeConfig := t.TempDir()
	wantsDir := filepath.Join(runtimeConfig, "multi-user.target.wants")
	os.MkdirAll(wantsDir, 0o755)
	os.Symlink(path, filepath.Join(wantsDir, "foo.service"))

	lp := &LookupPaths{
		SearchPath:       []string{runtimeConfig, vendor},
		PersistentConfig: t.TempDir(),
		RuntimeConfig:    runtimeConfig,
	}

	state, err := LookupState(lp, "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateEnabledRuntime {
		t.Fatalf("got %v, want enabled-runtime", state)
	}
}

func TestLookupStateLinkedWhenPlainSymlinkInPersistentConfig(t *testing.T) {
	vendor := t.TempDir()
	path := writeUnit(t, vendor, "foo.service", "[Unit]\nDescription=x\n")

	persistentConfig := t.TempDir()
	os.Symlink(path, filepath.Join(persistentConfig, "foo.service"))

	lp := &LookupPaths{
		SearchPath:       []string{vendor, persistentConfig},
		PersistentConfig: persistentConfig,
	}

	state, err := LookupState(lp, "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateLinked {
		t.Fatalf("got %v, want linked", state)
	}
}

// TestLookupStateLinkedRuntimeViaSecondaryRuntimeDir exercises review comment
// (c)'s scenario directly: a search_path entry that is "runtime" only
// because it matches one of LookupPaths' runtime-family fields (here,
// RuntimeAttached), not because it equals RuntimeConfig. The old raw
// dir == lp.RuntimeConfig equality check would have classified this hit as
// "elsewhere" and missed linked-runtime entirely.
func TestLookupStateLinkedRuntimeViaSecondaryRuntimeDir(t *testing.T) {
	vendor := t.TempDir()
	path := writeUnit(t, vendor, "foo.service", "[Unit]\nDescription=x\n")

	runtimeConfig := t.TempDir()
	runtimeExtra := t.TempDir()
	os.Symlink(path, filepath.Join(runtimeExtra, "foo.service"))

	lp := &LookupPaths{
		SearchPath:       []string{vendor, runtimeExtra},
		PersistentConfig: t.TempDir(),
		RuntimeConfig:    runtimeConfig,
		RuntimeAttached:  runtimeExtra,
	}

	state, err := LookupState(lp, "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateLinkedRuntime {
		t.Fatalf("got %v, want linked-runtime", state)
	}
}

// TestLookupStateAliasForInstanceFallenBackToTemplate exercises the one path
// that actually produces StateAlias: an instance name with no unit of its
// own, resolved by Discover's search() falling back to the template. The
// resulting InstallInfo keeps the instance's Name but the template's Path,
// so filepath.Base(info.Path) disagrees with info.Name and isInstanceOfFile
// rejects the template's own basename as an instance of itself.
func TestLookupStateAliasForInstanceFallenBackToTemplate(t *testing.T) {
	vendor := t.TempDir()
	writeUnit(t, vendor, "getty@.service", "[Install]\nWantedBy=getty.target\n")

	lp := &LookupPaths{SearchPath: []string{vendor}, PersistentConfig: t.TempDir()}

	state, err := LookupState(lp, "getty@ttyS0.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateAlias {
		t.Fatalf("got %v, want alias", state)
	}
}

func TestLookupStateGeneratedForUnitUnderGeneratorDir(t *testing.T) {
	generatorDir := t.TempDir()
	writeUnit(t, generatorDir, "foo.service", "[Install]\nWantedBy=multi-user.target\n")

	lp := &LookupPaths{
		SearchPath:       []string{generatorDir},
		PersistentConfig: t.TempDir(),
		Generator:        generatorDir,
	}

	state, err := LookupState(lp, "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateGenerated {
		t.Fatalf("got %v, want generated", state)
	}
}

func TestLookupStateTransientForUnitUnderTransientDir(t *testing.T) {
	transientDir := t.TempDir()
	writeUnit(t, transientDir, "foo.service", "[Install]\n")

	lp := &LookupPaths{
		SearchPath:       []string{transientDir},
		PersistentConfig: t.TempDir(),
		Transient:        transientDir,
	}

	state, err := LookupState(lp, "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateTransient {
		t.Fatalf("got %v, want transient", state)
	}
}

func TestLookupStateBadWhenNotFound(t *testing.T) {
	lp := &LookupPaths{SearchPath: []string{t.TempDir()}, PersistentConfig: t.TempDir()}
	state, err := LookupState(lp, "missing.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != StateBad {
		t.Fatalf("got %v, want bad", state)
	}
}
