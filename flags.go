package main

// Flags is the bitset every verb accepts (spec §6 "Flags").
type Flags uint8

const (
	FlagRuntime Flags = 1 << iota
	FlagForce
	FlagPortable
	FlagDryRun
	FlagIgnoreAuxiliaryFailure
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// ConfigPath picks the single destination a verb writes to, honoring
// RUNTIME and PORTABLE (spec §4.H).
func (lp *LookupPaths) ConfigPath(flags Flags) string {
	switch {
	case flags.has(FlagPortable) && flags.has(FlagRuntime):
		return lp.RuntimeAttached
	case flags.has(FlagPortable):
		return lp.PersistentAttached
	case flags.has(FlagRuntime):
		return lp.RuntimeConfig
	default:
		return lp.PersistentConfig
	}
}
