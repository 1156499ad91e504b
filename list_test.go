package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderUnitListPlainOutputForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	entries := []UnitListEntry{
		{Name: "foo.service", State: StateEnabled, Path: "/etc/systemd/system/foo.service"},
	}
	RenderUnitList(&buf, entries)

	out := buf.String()
	if !strings.Contains(out, "foo.service\tenabled\t/etc/systemd/system/foo.service") {
		t.Fatalf("got %q", out)
	}
}
