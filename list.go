package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"
)

// RenderUnitList prints entries either as an aligned table (when w is a
// terminal) or as plain tab-separated rows (when piped), mirroring
// `systemctl list-unit-files`'s own behavior switch.
func RenderUnitList(w io.Writer, entries []UnitListEntry) {
	isTerminal := false
	if f, ok := w.(*os.File); ok {
		isTerminal = term.IsTerminal(int(f.Fd()))
	}

	if !isTerminal {
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.State, e.Path)
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT FILE\tSTATE\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.State, e.Path)
	}
	fmt.Fprintf(tw, "\n%d unit files listed.\n", len(entries))
	tw.Flush()
}
