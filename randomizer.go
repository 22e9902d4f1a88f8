package ophelib

import (
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Randomizer produces the multiplicative noise factor r^n mod n^2 used to
// re-randomize a Paillier ciphertext after encryption. Reshaped from the
// source's nested Randomizer/FastRandomizer inheritance
// (original_source/include/ophelib/paillier_fast.h) into a small
// capability interface with two concrete implementations.
type Randomizer interface {
	// Precompute performs any setup needed before GetNoise can be called.
	// DirectRandomizer's Precompute is a no-op; LUTRandomizer's fills the
	// lookup table.
	Precompute(src RandSource) error
	// GetNoise returns a fresh r^n mod n^2.
	GetNoise(src RandSource) (Int, error)
}

// DirectRandomizer draws a fresh random r of the configured bit length on
// every call and returns r^n mod n^2 directly. This is the reference
// variant's randomizer: simple, but expensive at large key sizes because
// every call performs a full modular exponentiation.
type DirectRandomizer struct {
	n, n2  Int
	fastMod *FastMod // optional
	rBits  int
}

// NewDirectRandomizer builds a DirectRandomizer for modulus n (n2 = n*n),
// optionally accelerated by fastMod when available.
func NewDirectRandomizer(n, n2 Int, fastMod *FastMod) *DirectRandomizer {
	return &DirectRandomizer{n: n, n2: n2, fastMod: fastMod, rBits: n.BitLen()}
}

func (d *DirectRandomizer) Precompute(src RandSource) error { return nil }

func (d *DirectRandomizer) GetNoise(src RandSource) (Int, error) {
	r, err := RandomNonZeroBelow(d.n, src)
	if err != nil {
		return Int{}, err
	}
	if d.fastMod != nil {
		return d.fastMod.PowModNSquare(r, d.n)
	}
	return r.PowMod(d.n, d.n2)
}

// LUTRandomizer precomputes a lookup table of L values g^(n*r_i) mod n^2
// and, on every GetNoise call, multiplies together k randomly chosen
// entries (with replacement) instead of performing a fresh exponentiation.
// Grounded on paillier_fast.h's FastRandomizer and its
// combinatorial-bound derivation of (L, k).
type LUTRandomizer struct {
	n2      Int
	gn      Int // g^n mod n^2
	lutSize int
	useCount int
	rBits   int

	mu    sync.Mutex
	table []Int
}

// NewLUTRandomizer builds a LUTRandomizer. gn must already equal
// g^n mod n2. lutSize and useCount (L and k) must satisfy
// SmallestRUse(rBits, lutSize) <= useCount for the stated entropy bound to
// hold; callers normally derive them from the supported-parameter table in
// paillier_fast.go.
func NewLUTRandomizer(gn, n2 Int, rBits, lutSize, useCount int) *LUTRandomizer {
	return &LUTRandomizer{n2: n2, gn: gn, lutSize: lutSize, useCount: useCount, rBits: rBits}
}

// Precompute fills the lookup table with lutSize entries g^(n*r_i) mod n^2
// for fresh random exponents r_i of rBits bits each, using one worker
// goroutine per available core. Each worker computes its own
// entries and appends them to the shared table under mu; didiercrunch-paillier's
// safe_prime_generator.go establishes this exact
// goroutine-computes/mutex-appends shape for a different search problem.
func (l *LUTRandomizer) Precompute(src RandSource) error {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > l.lutSize {
		workers = l.lutSize
	}
	if workers == 0 {
		l.mu.Lock()
		l.table = make([]Int, 0)
		l.mu.Unlock()
		return nil
	}

	l.mu.Lock()
	l.table = make([]Int, 0, l.lutSize)
	l.mu.Unlock()

	perWorker := l.lutSize / workers
	remainder := l.lutSize % workers

	var wg sync.WaitGroup
	var combined error
	var errMu sync.Mutex

	for w := 0; w < workers; w++ {
		count := perWorker
		if w < remainder {
			count++
		}
		if count == 0 {
			continue
		}
		wg.Add(1)
		go func(count int) {
			defer wg.Done()
			for i := 0; i < count; i++ {
				r, err := RandomBits(l.rBits, src)
				if err != nil {
					errMu.Lock()
					combined = multierror.Append(combined, err)
					errMu.Unlock()
					return
				}
				val, err := l.gn.PowMod(r, l.n2)
				if err != nil {
					errMu.Lock()
					combined = multierror.Append(combined, err)
					errMu.Unlock()
					return
				}
				l.mu.Lock()
				l.table = append(l.table, val)
				l.mu.Unlock()
			}
		}(count)
	}
	wg.Wait()

	return combined
}

// GetNoise draws useCount indices uniformly at random (with replacement)
// from the lookup table and returns their product mod n^2. Every such
// product lies in the cyclic subgroup generated by gn, so it equals
// (g^n)^R mod n^2 for some R, i.e. it is a valid re-randomization factor.
func (l *LUTRandomizer) GetNoise(src RandSource) (Int, error) {
	l.mu.Lock()
	tableLen := len(l.table)
	l.mu.Unlock()
	if tableLen == 0 {
		return Int{}, errors.WithStack(&CryptoError{Msg: "LUTRandomizer: Precompute must be called before GetNoise"})
	}

	acc := oneInt
	for i := 0; i < l.useCount; i++ {
		idxInt, err := RandomBelow(NewInt(int64(tableLen)), src)
		if err != nil {
			return Int{}, err
		}
		idx := int(idxInt.Big().Int64())
		l.mu.Lock()
		entry := l.table[idx]
		l.mu.Unlock()
		acc = acc.Mul(entry)
		acc, err = acc.Mod(l.n2)
		if err != nil {
			return Int{}, err
		}
	}
	return acc, nil
}

// SmallestRUse returns the smallest k such that
// log2(C(rLut+k-1, k)) >= rBits, i.e. the smallest number of lookup-table
// entries (drawn with replacement) whose product carries at least rBits
// bits of entropy. Grounded on
// original_source/bin/ophelib_compute_randomizer_params.cpp and
// paillier_fast.h's param_r_use_count. Computed with exact integer
// arithmetic (no floating log) since the binomial coefficients involved
// can be very large.
func SmallestRUse(rBits, rLut int) int {
	for k := 1; ; k++ {
		if log2ChooseAtLeast(rLut+k-1, k, rBits) {
			return k
		}
	}
}

// log2ChooseAtLeast reports whether log2(C(n, k)) >= bits, computed by
// comparing C(n,k) against 2^bits via exact big-integer arithmetic.
func log2ChooseAtLeast(n, k, bits int) bool {
	if k < 0 || n < 0 || k > n {
		return false
	}
	c := binomialCoefficient(n, k)
	threshold := oneInt.Lsh(uint(bits))
	return c.Cmp(threshold) >= 0
}

func binomialCoefficient(n, k int) Int {
	if k > n-k {
		k = n - k
	}
	result := oneInt
	for i := 0; i < k; i++ {
		result = result.Mul(NewInt(int64(n - i)))
		result, _ = result.Div(NewInt(int64(i + 1)))
	}
	return result
}
