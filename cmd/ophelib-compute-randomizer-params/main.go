// Command ophelib-compute-randomizer-params prints the smallest r_use such
// that log2(C(r_lut+r_use-1, r_use)) >= r_bits, the Go counterpart of
// original_source/bin/ophelib_compute_randomizer_params.cpp.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abb-iss/ophelib"
)

func main() {
	rBits := flag.Int("r-bits", 112, "required entropy of the re-randomization factor, in bits")
	rLUT := flag.Int("r-lut", 4096, "lookup table size")
	flag.Parse()

	if *rBits < 1 || *rLUT < 1 {
		fmt.Fprintln(os.Stderr, "ophelib-compute-randomizer-params: r-bits and r-lut must be positive")
		os.Exit(1)
	}

	fmt.Printf("r_bits=%d\n", *rBits)
	fmt.Printf("r_lut=%d\n", *rLUT)

	rUse := ophelib.SmallestRUse(*rBits, *rLUT)
	fmt.Printf("r_use=%d\n", rUse)
	os.Exit(0)
}
