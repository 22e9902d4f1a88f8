package ophelib

import (
	"math/big"

	"github.com/pkg/errors"
)

// Int is a signed arbitrary-precision integer. It is a thin wrapper around
// math/big.Int: every operation returns a fresh Int and never mutates its
// receiver or arguments, matching the immutable-value discipline the rest
// of the package relies on (a Ciphertext's data, once constructed, is never
// aliased by an in-place operation performed elsewhere).
type Int struct {
	v *big.Int
}

// NewInt wraps an int64 as an Int.
func NewInt(x int64) Int {
	return Int{v: big.NewInt(x)}
}

// NewIntFromBig wraps an existing math/big.Int. The value is copied so the
// caller's big.Int can continue to be mutated without affecting the Int.
func NewIntFromBig(x *big.Int) Int {
	return Int{v: new(big.Int).Set(x)}
}

// Big returns a copy of the underlying math/big.Int. Callers must not rely
// on this type appearing anywhere else in the public API surface.
func (a Int) Big() *big.Int {
	return new(big.Int).Set(a.v)
}

var (
	zeroInt = NewInt(0)
	oneInt  = NewInt(1)
	twoInt  = NewInt(2)
)

func (a Int) bigOrZero() *big.Int {
	if a.v == nil {
		return big.NewInt(0)
	}
	return a.v
}

func (a Int) Add(b Int) Int { return Int{new(big.Int).Add(a.bigOrZero(), b.bigOrZero())} }
func (a Int) Sub(b Int) Int { return Int{new(big.Int).Sub(a.bigOrZero(), b.bigOrZero())} }
func (a Int) Mul(b Int) Int { return Int{new(big.Int).Mul(a.bigOrZero(), b.bigOrZero())} }
func (a Int) Neg() Int      { return Int{new(big.Int).Neg(a.bigOrZero())} }

// Div is Euclidean integer division, as math/big.Int.Div: the implied
// remainder is always non-negative, so a negative dividend rounds toward
// minus infinity for a positive divisor. Fails on division by zero.
func (a Int) Div(b Int) (Int, error) {
	if b.Sign() == 0 {
		return Int{}, errors.WithStack(&MathError{Msg: "division by zero"})
	}
	return Int{new(big.Int).Div(a.bigOrZero(), b.bigOrZero())}, nil
}

// Mod returns a mod n, always non-negative for n > 0 (Euclidean modulus,
// matching math/big.Int.Mod). Fails when n == 0.
func (a Int) Mod(n Int) (Int, error) {
	if n.Sign() == 0 {
		return Int{}, errors.WithStack(&MathError{Msg: "modulo by zero"})
	}
	return Int{new(big.Int).Mod(a.bigOrZero(), n.bigOrZero())}, nil
}

func (a Int) Lsh(bits uint) Int { return Int{new(big.Int).Lsh(a.bigOrZero(), bits)} }
func (a Int) Rsh(bits uint) Int { return Int{new(big.Int).Rsh(a.bigOrZero(), bits)} }
func (a Int) And(b Int) Int     { return Int{new(big.Int).And(a.bigOrZero(), b.bigOrZero())} }

// SetBit returns a copy of a with bit i set to 0 or 1.
func (a Int) SetBit(i uint, val uint) Int {
	return Int{new(big.Int).SetBit(a.bigOrZero(), int(i), val)}
}

// BitLen returns the number of bits needed to represent a's absolute value.
// By convention size(0) = 1, matching the Integer.size_bits() documented in
// the original source.
func (a Int) BitLen() int {
	n := a.bigOrZero().BitLen()
	if n == 0 {
		return 1
	}
	return n
}

func (a Int) Cmp(b Int) int { return a.bigOrZero().Cmp(b.bigOrZero()) }
func (a Int) Sign() int     { return a.bigOrZero().Sign() }
func (a Int) IsZero() bool  { return a.Sign() == 0 }

func (a Int) Bytes() []byte       { return a.bigOrZero().Bytes() }
func (a Int) SetBytes(b []byte) Int { return Int{new(big.Int).SetBytes(b)} }

func (a Int) String() string { return a.bigOrZero().String() }

// Text returns a's value formatted in the given base, as math/big.Int.Text.
func (a Int) Text(base int) string { return a.bigOrZero().Text(base) }

// IntFromText parses a base-encoded string, as math/big.Int.SetString.
func IntFromText(s string, base int) (Int, bool) {
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return Int{}, false
	}
	return Int{v}, true
}

// Pow computes a^exp with no modulus. A negative exponent is rejected
// rather than silently returning zero; see DESIGN.md for why.
func (a Int) Pow(exp int64) (Int, error) {
	if exp < 0 {
		return Int{}, errors.WithStack(&MathError{Msg: "negative exponent in Pow"})
	}
	return Int{new(big.Int).Exp(a.bigOrZero(), big.NewInt(exp), nil)}, nil
}

// PowMod computes a^exp mod m. Fails when m == 0. A negative exponent is
// interpreted as (a^-1)^(-exp) mod m, matching math/big.Int.Exp's own
// convention when m is prime; Ciphertext.ScalarMul with a negative scalar
// goes through this method.
func (a Int) PowMod(exp, m Int) (Int, error) {
	if m.Sign() == 0 {
		return Int{}, errors.WithStack(&MathError{Msg: "modular exponentiation modulo zero"})
	}
	if exp.Sign() < 0 {
		inv, err := a.InvMod(m)
		if err != nil {
			return Int{}, err
		}
		return inv.PowMod(exp.Neg(), m)
	}
	return Int{new(big.Int).Exp(a.bigOrZero(), exp.bigOrZero(), m.bigOrZero())}, nil
}

// InvMod computes the multiplicative inverse of a modulo m. Fails if the
// inverse does not exist (a and m are not coprime).
func (a Int) InvMod(m Int) (Int, error) {
	r := new(big.Int).ModInverse(a.bigOrZero(), m.bigOrZero())
	if r == nil {
		return Int{}, errors.WithStack(&MathError{Msg: "modular inverse does not exist"})
	}
	return Int{r}, nil
}

// GCD returns the greatest common divisor of a and b (always non-negative).
func (a Int) GCD(b Int) Int {
	return Int{new(big.Int).GCD(nil, nil, new(big.Int).Abs(a.bigOrZero()), new(big.Int).Abs(b.bigOrZero()))}
}

// LCM returns the least common multiple of a and b.
func (a Int) LCM(b Int) Int {
	g := a.GCD(b)
	if g.IsZero() {
		return zeroInt
	}
	prod := new(big.Int).Mul(a.bigOrZero(), b.bigOrZero())
	return Int{new(big.Int).Div(new(big.Int).Abs(prod), g.bigOrZero())}
}

// L implements the Paillier L function: L(u, d) = (u - 1) / d, exact
// integer division.
func L(u, d Int) (Int, error) {
	return u.Sub(oneInt).Div(d)
}

// millerRabinRounds scales the number of Miller-Rabin rounds with the
// candidate's bit length, following the table in
// original_source/include/ophelib/integer.h (itself copied from OpenSSL's
// BN_prime_checks_for_size), chosen to keep the false-positive rate below
// 2^-80 for random input without over-testing large keys.
func millerRabinRounds(bitLen int) int {
	switch {
	case bitLen >= 1300:
		return 2
	case bitLen >= 850:
		return 3
	case bitLen >= 650:
		return 4
	case bitLen >= 550:
		return 5
	case bitLen >= 450:
		return 6
	case bitLen >= 400:
		return 7
	case bitLen >= 350:
		return 8
	case bitLen >= 300:
		return 9
	case bitLen >= 250:
		return 12
	case bitLen >= 200:
		return 15
	case bitLen >= 150:
		return 18
	default:
		return 27
	}
}

// IsPrime reports whether a is prime with error probability at most 2^-80,
// using Miller-Rabin with a round count scaled to a's bit length.
func (a Int) IsPrime() bool {
	rounds := millerRabinRounds(a.BitLen())
	return a.bigOrZero().ProbablyPrime(rounds)
}
