// Copyright (c) 2020, 2025 Robert Clausecker <fuz@fuz.su>

//go:build amd64 || 386

package popcount

import "golang.org/x/sys/cpu"

var count8funcs = []count8impl{
	{count8swar, "swar", true},
	{count8table, "table", true},
	{count8bits, "bits", true},
	{count8safe, "safe", true},
}

// math/bits compiles to POPCNT guarded by a CPU check.  Without POPCNT
// it falls back to a slow software count, so prefer swar then.
var count64funcs = func() []count64impl {
	if cpu.X86.HasPOPCNT {
		return []count64impl{
			{count64bits, "bits", true},
			{count64swar, "swar", true},
			{count64safe, "safe", true},
		}
	}

	return []count64impl{
		{count64swar, "swar", true},
		{count64bits, "bits", true},
		{count64safe, "safe", true},
	}
}()

var count32funcs = func() []count32impl {
	if cpu.X86.HasPOPCNT {
		return []count32impl{
			{count32nabits, "bits", true},
			{count32naswar, "swar", true},
			{count32nasafe, "safe", true},
		}
	}

	return []count32impl{
		{count32naswar, "swar", true},
		{count32nabits, "bits", true},
		{count32nasafe, "safe", true},
	}
}()
