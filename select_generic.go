// Copyright (c) 2020, 2025 Robert Clausecker <fuz@fuz.su>

//go:build !amd64 && !386 && !arm64

package popcount

// portable variants only
var count8funcs = []count8impl{
	{count8swar, "swar", true},
	{count8table, "table", true},
	{count8bits, "bits", true},
	{count8safe, "safe", true},
}

var count64funcs = []count64impl{
	{count64swar, "swar", true},
	{count64bits, "bits", true},
	{count64safe, "safe", true},
}

var count32funcs = []count32impl{
	{count32naswar, "swar", true},
	{count32nabits, "bits", true},
	{count32nasafe, "safe", true},
}
