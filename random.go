package ophelib

import (
	"crypto/rand"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// RandSource is an injectable source of cryptographically secure random
// bytes. Every randomized operation in this package threads one through
// explicitly rather than reaching for a hidden process-wide singleton,
// following the didiercrunch-paillier convention (PublicKey.Encrypt,
// GetRandomNumberInMultiplicativeGroup, and GenerateSafePrime all take a
// random io.Reader argument); DefaultRandSource gives the common case a
// one-line default, seeded from OS entropy, that tests can still swap out
// for a deterministic source.
type RandSource interface {
	io.Reader
}

// syncedReader serializes access to an underlying io.Reader so the same
// source can be shared by concurrent workers without tearing reads.
type syncedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (s *syncedReader) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Read(p)
}

var defaultSource RandSource = &syncedReader{r: rand.Reader}

// DefaultRandSource returns the package's default random source, a
// mutex-guarded wrapper around crypto/rand.Reader (OS entropy pool). Safe
// for concurrent use by multiple goroutines.
func DefaultRandSource() RandSource {
	return defaultSource
}

// RandomBelow returns a uniformly random Int in [0, bound), requiring
// bound >= 2. This matches rand.Int's own contract but keeps every random
// draw in this package going through the same Int type.
func RandomBelow(bound Int, src RandSource) (Int, error) {
	if bound.Cmp(twoInt) < 0 {
		return Int{}, errors.WithStack(&ParamError{Msg: "RandomBelow requires bound >= 2"})
	}
	v, err := rand.Int(src, bound.bigOrZero())
	if err != nil {
		return Int{}, errors.WithStack(err)
	}
	return Int{v}, nil
}

// RandomNonZeroBelow returns a uniformly random Int in [1, bound), retrying
// on the (negligible-probability) zero draw. Used for Paillier's
// re-randomization factor r, which must lie in [1, n-1].
func RandomNonZeroBelow(bound Int, src RandSource) (Int, error) {
	for {
		v, err := RandomBelow(bound, src)
		if err != nil {
			return Int{}, err
		}
		if v.Sign() != 0 {
			return v, nil
		}
	}
}

// RandomInMultiplicativeGroup draws a uniformly random element of
// (Z/nZ)*, i.e. coprime to n. Modeled on didiercrunch-paillier's
// GetRandomNumberInMultiplicativeGroup, generalized to take an injectable
// RandSource instead of a bare io.Reader and to loop instead of recurse.
func RandomInMultiplicativeGroup(n Int, src RandSource) (Int, error) {
	for {
		r, err := RandomBelow(n, src)
		if err != nil {
			return Int{}, err
		}
		if r.Sign() != 0 && r.GCD(n).Cmp(oneInt) == 0 {
			return r, nil
		}
	}
}

// RandomBits returns a uniformly random Int of at most nbits bits (nbits
// >= 1). The result may be shorter than nbits if the leading random bits
// happen to be zero.
func RandomBits(nbits int, src RandSource) (Int, error) {
	if nbits < 1 {
		return Int{}, errors.WithStack(&ParamError{Msg: "RandomBits requires nbits >= 1"})
	}
	nbytes := (nbits + 7) / 8
	buf := make([]byte, nbytes)
	if _, err := io.ReadFull(src, buf); err != nil {
		return Int{}, errors.WithStack(err)
	}
	v := Int{}.SetBytes(buf)
	excess := uint(nbytes*8 - nbits)
	if excess > 0 {
		v = v.Rsh(excess)
	}
	return v, nil
}

// RandomPrime returns a uniformly random prime of exactly nbits bits
// (nbits >= 2). The top bit is forced to 1 so the result always has
// exactly nbits bits, and primality is confirmed with Int.IsPrime.
func RandomPrime(nbits int, src RandSource) (Int, error) {
	if nbits < 2 {
		return Int{}, errors.WithStack(&ParamError{Msg: "RandomPrime requires nbits >= 2"})
	}
	nbytes := (nbits + 7) / 8
	buf := make([]byte, nbytes)
	topBitIdx := uint(nbits - 1 - (nbytes-1)*8)
	for {
		if _, err := io.ReadFull(src, buf); err != nil {
			return Int{}, errors.WithStack(err)
		}
		// force the top bit of the candidate so the result is exactly
		// nbits long, and the low bit so it is odd.
		buf[0] |= 1 << topBitIdx
		buf[nbytes-1] |= 1

		cand := Int{}.SetBytes(buf)
		if cand.BitLen() == nbits && cand.IsPrime() {
			return cand, nil
		}
	}
}
