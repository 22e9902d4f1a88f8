package ophelib

import (
	"sync"

	"github.com/pkg/errors"
)

// FastMod accelerates base^exp mod n^2 by reducing the computation modulo
// p^2 and q^2 independently and recombining with the Chinese Remainder
// Theorem, where n = p*q are the two secret primes of a Paillier key. This
// is the algorithm from original_source/include/ophelib/fast_mod.h,
// translated from GMP's mpz_class into the Int wrapper; the struct fields
// are held as plain unexported Int values rather than NTL's split-limb representation
// since Go's math/big already handles large moduli efficiently enough for
// a single CRT split.
type FastMod struct {
	p, q   Int
	p2, q2 Int
	n, n2  Int
}

// New builds a FastMod from the two secret primes, deriving p^2, q^2, n
// and n^2.
func New(p, q Int) (*FastMod, error) {
	if p.Cmp(q) == 0 {
		return nil, errors.WithStack(&CryptoError{Msg: "FastMod requires p != q"})
	}
	n := p.Mul(q)
	return NewPrecomputed(p, q, p.Mul(p), q.Mul(q), n, n.Mul(n)), nil
}

// NewPrecomputed builds a FastMod from fully precomputed values, saving
// CPU time when the caller already has them (e.g. a Paillier instance that
// derived n2 during key generation).
func NewPrecomputed(p, q, p2, q2, n, n2 Int) *FastMod {
	return &FastMod{p: p, q: q, p2: p2, q2: q2, n: n, n2: n2}
}

// N2 returns n^2, the modulus every ciphertext's value lives under.
func (fm *FastMod) N2() Int { return fm.n2 }

// crtCombine computes (u*s*q2 + v*r*p2) mod n2 given the Bezout
// coefficients r, s with r*p2 + s*q2 = 1.
func (fm *FastMod) crtCombine(u, v, r, s Int) (Int, error) {
	t1 := u.Mul(s).Mul(fm.q2)
	t2 := v.Mul(r).Mul(fm.p2)
	sum := t1.Add(t2)
	res, err := sum.Mod(fm.n2)
	if err != nil {
		return Int{}, err
	}
	return res, nil
}

// bezout returns (r, s) such that r*a + s*b = 1, via the extended
// Euclidean algorithm. Requires gcd(a, b) = 1.
func bezout(a, b Int) (r, s Int, err error) {
	oldR, newR := a, b
	oldS, newS := oneInt, zeroInt
	oldT, newT := zeroInt, oneInt

	for newR.Sign() != 0 {
		q, errDiv := oldR.Div(newR)
		if errDiv != nil {
			return Int{}, Int{}, errDiv
		}
		oldR, newR = newR, oldR.Sub(q.Mul(newR))
		oldS, newS = newS, oldS.Sub(q.Mul(newS))
		oldT, newT = newT, oldT.Sub(q.Mul(newT))
	}
	if oldR.Cmp(oneInt) != 0 {
		return Int{}, Int{}, errors.WithStack(&MathError{Msg: "bezout: operands are not coprime"})
	}
	return oldS, oldT, nil
}

// PowModNSquare returns base^exp mod n^2, computed by reducing modulo p^2
// and q^2 separately and recombining via CRT.
func (fm *FastMod) PowModNSquare(base, exp Int) (Int, error) {
	u, err := base.PowMod(exp, fm.p2)
	if err != nil {
		return Int{}, err
	}
	v, err := base.PowMod(exp, fm.q2)
	if err != nil {
		return Int{}, err
	}
	r, s, err := bezout(fm.p2, fm.q2)
	if err != nil {
		return Int{}, err
	}
	return fm.crtCombine(u, v, r, s)
}

// PowModNSquareParallel is identical to PowModNSquare but computes the two
// half-exponentiations on separate goroutines before the (sequential) CRT
// combination. Grounded
// on the goroutine/WaitGroup pattern in safe_prime_generator.go's
// runGenPrimeRoutine.
func (fm *FastMod) PowModNSquareParallel(base, exp Int) (Int, error) {
	var u, v Int
	var uErr, vErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		u, uErr = base.PowMod(exp, fm.p2)
	}()
	go func() {
		defer wg.Done()
		v, vErr = base.PowMod(exp, fm.q2)
	}()
	wg.Wait()

	if uErr != nil {
		return Int{}, uErr
	}
	if vErr != nil {
		return Int{}, vErr
	}

	r, s, err := bezout(fm.p2, fm.q2)
	if err != nil {
		return Int{}, err
	}
	return fm.crtCombine(u, v, r, s)
}
