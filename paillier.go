package ophelib

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// batchInto runs fn(0..n-1) concurrently, one goroutine per index, and
// collects the results in order. A failure in one index does not stop the
// others; all errors are aggregated with go-multierror, the
// same shape LUTRandomizer.Precompute uses to fan work out across workers.
func batchInto[T any](n int, fn func(i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	var wg sync.WaitGroup
	var combined error
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := fn(i)
			if err != nil {
				mu.Lock()
				combined = multierror.Append(combined, err)
				mu.Unlock()
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	if combined != nil {
		return nil, combined
	}
	return results, nil
}

// PublicKey is the public half of a Paillier key pair.
type PublicKey struct {
	KeySizeBits int
	N           Int
	G           Int
}

// PrivateKey is the private half of a Paillier key pair. In the Reference
// variant A and ABits are zero; in the Fast variant A is a prime divisor
// of both p-1 and q-1, of exactly ABits bits. Keeping both
// variants in one struct (rather than two exported types) matches the
// original library's data model; DESIGN.md records the Open Question
// decision behind this choice.
type PrivateKey struct {
	KeySizeBits int
	ABits       int
	P, Q, A     Int
}

// IsFastVariant reports whether this key carries the structured-prime
// fields the Fast scheme requires.
func (priv PrivateKey) IsFastVariant() bool {
	return priv.ABits > 0 && priv.A.Sign() != 0
}

// KeyPair bundles a PublicKey and PrivateKey generated together.
type KeyPair struct {
	Pub  PublicKey
	Priv PrivateKey
}

// modulus is the shared, read-only-after-construction handle every
// Ciphertext produced by the same Paillier instance points to, so
// homomorphic operations never need to consult the originating instance
// again. It doubles as the FastMod handle when one is
// available. A bare Go pointer is enough reference-counting: the Go
// garbage collector keeps the modulus alive for as long as any Ciphertext
// (or the Scheme instance itself) still points to it.
type modulus struct {
	n2      Int
	fastMod *FastMod // nil for the Reference scheme
}

// Ciphertext is an encrypted Paillier plaintext. A Ciphertext constructed
// directly from a bare Int (or deserialized from the wire without calling
// AttachModulus) has no modulus reference: equality and serialization
// still work, but every homomorphic operation on it fails with a
// CryptoError.
type Ciphertext struct {
	data Int
	mod  *modulus
}

// NewCiphertext wraps a raw value with no modulus reference attached. Used
// when deserializing from the wire.
func NewCiphertext(data Int) Ciphertext {
	return Ciphertext{data: data}
}

// Data returns the raw encrypted value.
func (c Ciphertext) Data() Int { return c.data }

// HasModulus reports whether c carries a shared modulus reference and can
// therefore participate in homomorphic operations.
func (c Ciphertext) HasModulus() bool { return c.mod != nil }

// Equal compares only the raw data, never the attached modulus handle, so
// a ciphertext freshly computed and one loaded from the wire (which has no
// modulus attached) compare equal whenever their data matches.
func (c Ciphertext) Equal(other Ciphertext) bool {
	return c.data.Cmp(other.data) == 0
}

func (c Ciphertext) requireModulus() error {
	if c.mod == nil {
		return errors.WithStack(&CryptoError{Msg: "ciphertext has no modulus reference attached"})
	}
	return nil
}

func sameModulus(a, b *modulus) bool {
	return a != nil && b != nil && a.n2.Cmp(b.n2) == 0
}

// Neg returns an encryption of -m given an encryption of m: c.data^-1 mod n^2.
func (c Ciphertext) Neg() (Ciphertext, error) {
	if err := c.requireModulus(); err != nil {
		return Ciphertext{}, err
	}
	inv, err := c.data.InvMod(c.mod.n2)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{data: inv, mod: c.mod}, nil
}

// Add returns an encryption of m1+m2 given encryptions of m1 and m2:
// (c1.data * c2.data) mod n^2.
func (c Ciphertext) Add(other Ciphertext) (Ciphertext, error) {
	if err := c.requireModulus(); err != nil {
		return Ciphertext{}, err
	}
	if err := other.requireModulus(); err != nil {
		return Ciphertext{}, err
	}
	if !sameModulus(c.mod, other.mod) {
		return Ciphertext{}, errors.WithStack(&CryptoError{Msg: "ciphertexts use different moduli"})
	}
	prod := c.data.Mul(other.data)
	res, err := prod.Mod(c.mod.n2)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{data: res, mod: c.mod}, nil
}

// Sub returns an encryption of m1-m2 given encryptions of m1 and m2.
func (c Ciphertext) Sub(other Ciphertext) (Ciphertext, error) {
	negOther, err := other.Neg()
	if err != nil {
		return Ciphertext{}, err
	}
	return c.Add(negOther)
}

// ScalarMul returns an encryption of m*k given an encryption of m and a
// signed plaintext scalar k: c.data^k mod n^2, computed via FastMod when
// the ciphertext carries one.
//
// k = 0 yields a deterministic encryption of zero with no re-randomization
// applied: this is the documented behavior, not an oversight; see
// DESIGN.md's Open Question 1.
func (c Ciphertext) ScalarMul(k Int) (Ciphertext, error) {
	if err := c.requireModulus(); err != nil {
		return Ciphertext{}, err
	}
	if c.mod.fastMod != nil {
		res, err := c.mod.fastMod.PowModNSquare(c.data, k)
		if err != nil {
			return Ciphertext{}, err
		}
		return Ciphertext{data: res, mod: c.mod}, nil
	}
	res, err := c.data.PowMod(k, c.mod.n2)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{data: res, mod: c.mod}, nil
}

// Scheme is the capability every Paillier variant implements: key
// generation, encryption and decryption, plus the signed plaintext-space
// boundaries (plaintexts outside them are not rejected; they wrap, see
// mapPlaintext). This reshapes the
// source's PaillierBase -> Paillier, PaillierFast inheritance
// (OPHELib/paillier_base.h, paillier.h, paillier_fast.h) into a single
// Go interface with two concrete implementations.
type Scheme interface {
	PublicKey() PublicKey
	PrivateKey() (PrivateKey, bool)
	KeySizeBits() int
	PlaintextSizeBits() int
	PlaintextLowerBoundary() Int
	PlaintextUpperBoundary() Int
	N2() Int
	FastMod() *FastMod // nil if the scheme has none

	Encrypt(m Int, src RandSource) (Ciphertext, error)
	Decrypt(c Ciphertext) (Int, error)
}

// boundaries computes [−⌊n/2⌋, ⌊n/2⌋], the signed plaintext range every
// Scheme variant shares.
func boundaries(n Int) (posNeg, lower, upper Int) {
	posNeg = n.Rsh(1)
	return posNeg, posNeg.Neg(), posNeg
}

// mapPlaintext maps a signed plaintext m to its unsigned representative in
// [0, n): negative m becomes n+m, matching original_source's
// encrypt_no_rand/check_plaintext, which only ever test the sign of m. A
// plaintext outside [lower, upper] is not rejected: it wraps, so encrypting
// plaintxt_upper_boundary+1 decrypts back to -plaintxt_upper_boundary, per
// spec.md's documented boundary behavior.
func mapPlaintext(m, n Int) Int {
	if m.Sign() < 0 {
		return n.Add(m)
	}
	return m
}

// unmapPlaintext recovers the signed value from a decrypted unsigned
// residue in [0, n), using posNeg = ⌊n/2⌋ as the split point.
func unmapPlaintext(ret, n, posNeg Int) Int {
	if ret.Cmp(posNeg) > 0 {
		return ret.Sub(n)
	}
	return ret
}

// EncryptBatch encrypts every plaintext in ms concurrently, one goroutine
// per item, and returns the results in the same order. Errors from
// individual items are aggregated with go-multierror so a single failure
// does not hide the others; batch operations are embarrassingly
// parallel along the outer axis.
func EncryptBatch(scheme Scheme, ms []Int, src RandSource) ([]Ciphertext, error) {
	return batchInto(len(ms), func(i int) (Ciphertext, error) {
		return scheme.Encrypt(ms[i], src)
	})
}

// DecryptBatch decrypts every ciphertext in cs concurrently, one goroutine
// per item.
func DecryptBatch(scheme Scheme, cs []Ciphertext) ([]Int, error) {
	return batchInto(len(cs), func(i int) (Int, error) {
		return scheme.Decrypt(cs[i])
	})
}
