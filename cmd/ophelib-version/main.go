// Command ophelib-version prints the library version and whether this
// build can exercise its internal parallelism (FastMod.PowModNSquareParallel,
// LUTRandomizer.Precompute's worker pool, and the batch helpers), the
// closest Go analogue of OPHELib's `ophelib_version` binary
// (original_source/bin/ophelib_version.cpp), which printed a version
// string, git ref, and OpenMP-enabled flag.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// version is the module's release tag. There is no build-time ldflags
// injection pipeline in this repo (no CI retrieved into the example pack),
// so this is a plain constant, bumped by hand at tag time.
const version = "0.1.0"

func main() {
	fmt.Printf("ophelib %s\n", version)
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Printf("logical CPUs: %d\n", cpuid.CPU.LogicalCores)
	fmt.Printf("parallel FastMod/Randomizer/batch ops enabled: %s\n", yesNo(runtime.GOMAXPROCS(0) > 1))
	os.Exit(0)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
