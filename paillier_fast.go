package ophelib

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// fastParam is one row of the supported (key_size_bits, a_bits, r_bits,
// r_lut, r_use) tuples, taken from the tabulation in
// original_source/include/ophelib/paillier_fast.h. insecure marks the
// 1024-bit row, which must be gated behind GenerateFast's allowInsecure
// flag.
type fastParam struct {
	keySizeBits int
	aBits       int
	rBits       int
	rLUT        int
	rUse        int
	insecure    bool
}

var fastParams = []fastParam{
	{keySizeBits: 1024, aBits: 320, rBits: 80, rLUT: 256, rUse: 15, insecure: true},
	{keySizeBits: 2048, aBits: 512, rBits: 112, rLUT: 4096, rUse: 12},
	{keySizeBits: 3072, aBits: 512, rBits: 128, rLUT: 4096, rUse: 14},
	{keySizeBits: 4096, aBits: 512, rBits: 140, rLUT: 8192, rUse: 14},
	{keySizeBits: 7680, aBits: 1024, rBits: 192, rLUT: 16384, rUse: 18},
}

// lookupFastParam finds the supported-parameter row for keySizeBits.
func lookupFastParam(keySizeBits int, allowInsecure bool) (fastParam, error) {
	for _, p := range fastParams {
		if p.keySizeBits != keySizeBits {
			continue
		}
		if p.insecure && !allowInsecure {
			return fastParam{}, errors.WithStack(&ParamError{Msg: "1024-bit Fast keys are insecure; pass allowInsecure to use them for debugging"})
		}
		return p, nil
	}
	return fastParam{}, errors.WithStack(&ParamError{Msg: "unsupported key_size_bits for the Fast scheme"})
}

// Fast implements the structured-prime Paillier variant: p and q are
// constructed so that a shared prime a divides both p-1 and q-1, shortening
// the decryption exponent, and FastMod/the lookup-table Randomizer
// accelerate modular exponentiation.
type Fast struct {
	pub   PublicKey
	priv  PrivateKey
	haveP bool

	a  Int
	mu Int

	fm *FastMod
	mod *modulus

	plaintextSizeBits int
	posNeg            Int
	lower, upper      Int

	rnd Randomizer

	zeroCiphertext Ciphertext
}

// GenerateFast generates a fresh Fast key pair for one of the supported
// key sizes. allowInsecure must be true to generate a 1024-bit key,
// which the parameter table above marks as insecure. The returned scheme
// has its randomizer table filled and its zero ciphertext cached.
func GenerateFast(keySizeBits int, allowInsecure bool, src RandSource) (*Fast, error) {
	param, err := lookupFastParam(keySizeBits, allowInsecure)
	if err != nil {
		return nil, err
	}

	a, err := RandomPrime(param.aBits, src)
	if err != nil {
		return nil, err
	}

	half := keySizeBits / 2
	cpBits := half - param.aBits
	if cpBits < 2 {
		return nil, errors.WithStack(&ParamError{Msg: "a_bits too large relative to key_size_bits"})
	}

	p, err := structuredPrimeConcurrent(context.Background(), a, cpBits, src)
	if err != nil {
		return nil, err
	}
	var q Int
	for {
		q, err = structuredPrimeConcurrent(context.Background(), a, cpBits, src)
		if err != nil {
			return nil, err
		}
		if q.Cmp(p) != 0 {
			break
		}
	}

	if p.Cmp(q) > 0 {
		p, q = q, p
	}

	n := p.Mul(q)
	if n.BitLen() != keySizeBits {
		// p*q fell short of keySizeBits: draw a fresh key.
		return GenerateFast(keySizeBits, allowInsecure, src)
	}

	lambda := p.Sub(oneInt).LCM(q.Sub(oneInt))
	lambdaOverA, err := lambda.Div(a)
	if err != nil {
		return nil, err
	}
	g, err := NewInt(2).PowMod(lambdaOverA, n)
	if err != nil {
		return nil, err
	}

	pub := PublicKey{KeySizeBits: keySizeBits, N: n, G: g}
	priv := PrivateKey{KeySizeBits: keySizeBits, ABits: param.aBits, P: p, Q: q, A: a}

	f, err := newFastFromKeys(pub, priv, true, &param)
	if err != nil {
		return nil, err
	}
	if err := f.Precompute(src); err != nil {
		return nil, err
	}
	if f.zeroCiphertext, err = f.Encrypt(zeroInt, src); err != nil {
		return nil, err
	}
	return f, nil
}

// structuredPrimeConcurrent searches for a prime of the form a*cp+1 using
// one worker goroutine per available core, racing them and cancelling the
// rest once any worker finds a candidate. Adapted from the
// context+channel+WaitGroup shape in safe_prime_generator.go's
// GenerateSafePrime/runGenPrimeRoutine, applied to the structured-prime
// search for a prime of the form a*cp+1 instead of safe-prime search.
func structuredPrimeConcurrent(ctx context.Context, a Int, cpBits int, src RandSource) (Int, error) {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	resultChan := make(chan Int, 1)
	errChan := make(chan error, workers)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				cp, err := RandomBits(cpBits, src)
				if err != nil {
					select {
					case errChan <- err:
					default:
					}
					return
				}
				if cp.BitLen() != cpBits {
					continue
				}
				cand := a.Mul(cp).Add(oneInt)
				for j := 0; j < 1<<12; j++ {
					if cand.IsPrime() {
						select {
						case resultChan <- cand:
						default:
						}
						return
					}
					cand = cand.Add(a)
					select {
					case <-ctx.Done():
						return
					default:
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(errChan)
	}()

	select {
	case r := <-resultChan:
		cancel()
		return r, nil
	case err := <-errChan:
		if err != nil {
			cancel()
			return Int{}, err
		}
		cancel()
		return Int{}, errors.WithStack(&CryptoError{Msg: "structured prime search exhausted without success"})
	}
}

// LoadFastPublic builds a Fast scheme that can encrypt and carry out
// homomorphic operations, but not decrypt, from a PublicKey alone. Without
// a known key size parameter row, r_bits/r_lut/r_use come from the
// supported row whose key size equals pub.KeySizeBits; any other key size
// is rejected with a ParamError.
func LoadFastPublic(pub PublicKey) (*Fast, error) {
	param, err := closestFastParam(pub.KeySizeBits)
	if err != nil {
		return nil, err
	}
	return newFastFromKeys(pub, PrivateKey{}, false, &param)
}

// LoadFast builds a Fast scheme with both halves of a key pair, e.g. after
// deserializing a KeyPair from the wire.
func LoadFast(pub PublicKey, priv PrivateKey) (*Fast, error) {
	if !priv.IsFastVariant() {
		return nil, errors.WithStack(&CryptoError{Msg: "PrivateKey has no structured-prime component a; not valid for the Fast scheme"})
	}
	param, err := closestFastParam(pub.KeySizeBits)
	if err != nil {
		return nil, err
	}
	param.aBits = priv.ABits
	return newFastFromKeys(pub, priv, true, &param)
}

func closestFastParam(keySizeBits int) (fastParam, error) {
	for _, p := range fastParams {
		if p.keySizeBits == keySizeBits {
			return p, nil
		}
	}
	return fastParam{}, errors.WithStack(&ParamError{Msg: "no known randomizer parameters for this key_size_bits; construct the Fast scheme with explicit parameters instead"})
}

func newFastFromKeys(pub PublicKey, priv PrivateKey, haveP bool, param *fastParam) (*Fast, error) {
	n2 := pub.N.Mul(pub.N)
	m := &modulus{n2: n2}
	posNeg, lower, upper := boundaries(pub.N)

	f := &Fast{
		pub:               pub,
		priv:              priv,
		haveP:             haveP,
		mod:               m,
		plaintextSizeBits: pub.KeySizeBits,
		posNeg:            posNeg,
		lower:             lower,
		upper:             upper,
	}

	if haveP {
		if !priv.IsFastVariant() {
			return nil, errors.WithStack(&CryptoError{Msg: "Fast scheme requires a non-zero structured-prime component a"})
		}
		fm, err := New(priv.P, priv.Q)
		if err != nil {
			return nil, err
		}
		f.fm = fm
		m.fastMod = fm

		aValue, err := fm.PowModNSquare(pub.G, priv.A)
		if err != nil {
			return nil, err
		}
		lu, err := L(aValue, pub.N)
		if err != nil {
			return nil, err
		}
		mu, err := lu.InvMod(pub.N)
		if err != nil {
			return nil, err
		}
		f.a = priv.A
		f.mu = mu
	}

	gn, err := pub.G.PowMod(pub.N, n2)
	if err != nil {
		return nil, err
	}
	f.rnd = NewLUTRandomizer(gn, n2, param.rBits, param.rLUT, param.rUse)

	f.zeroCiphertext = Ciphertext{data: NewInt(1), mod: m}

	return f, nil
}

// Precompute fills the Fast scheme's randomizer lookup table. GenerateFast
// calls it; a scheme built with LoadFast or LoadFastPublic must call it
// before Encrypt can succeed, since Encrypt does not fill an empty table.
func (f *Fast) Precompute(src RandSource) error {
	return f.rnd.Precompute(src)
}

func (f *Fast) PublicKey() PublicKey { return f.pub }

func (f *Fast) PrivateKey() (PrivateKey, bool) {
	if !f.haveP {
		return PrivateKey{}, false
	}
	return f.priv, true
}

func (f *Fast) KeySizeBits() int            { return f.pub.KeySizeBits }
func (f *Fast) PlaintextSizeBits() int      { return f.plaintextSizeBits }
func (f *Fast) PlaintextLowerBoundary() Int { return f.lower }
func (f *Fast) PlaintextUpperBoundary() Int { return f.upper }
func (f *Fast) N2() Int                     { return f.mod.n2 }
func (f *Fast) FastMod() *FastMod           { return f.fm }

// ZeroCiphertext returns the cached encryption of zero so repeated
// zero-ciphertexts avoid re-encrypting. GenerateFast caches one Encrypt(0);
// a scheme built with LoadFast or LoadFastPublic holds the unrandomized
// encryption of zero (data 1).
func (f *Fast) ZeroCiphertext() Ciphertext { return f.zeroCiphertext }

// Encrypt computes t0 = g^m mod n2 (via FastMod when a private key is
// loaded, otherwise with plain modular exponentiation) and re-randomizes
// with the lookup-table randomizer's noise.
func (f *Fast) Encrypt(m Int, src RandSource) (Ciphertext, error) {
	mapped := mapPlaintext(m, f.pub.N)
	var err error
	var t0 Int
	if f.fm != nil {
		t0, err = f.fm.PowModNSquare(f.pub.G, mapped)
	} else {
		t0, err = f.pub.G.PowMod(mapped, f.mod.n2)
	}
	if err != nil {
		return Ciphertext{}, err
	}
	noise, err := f.rnd.GetNoise(src)
	if err != nil {
		return Ciphertext{}, err
	}
	data, err := t0.Mul(noise).Mod(f.mod.n2)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{data: data, mod: f.mod}, nil
}

// Decrypt computes ret = (L(FastMod.pow_mod_n2(c, a), n) * mu) mod n and
// maps back into the signed plaintext range.
func (f *Fast) Decrypt(c Ciphertext) (Int, error) {
	if !f.haveP {
		return Int{}, errors.WithStack(&CryptoError{Msg: "Fast: no private key loaded"})
	}
	if c.mod == nil || c.mod.n2.Cmp(f.mod.n2) != 0 {
		return Int{}, errors.WithStack(&CryptoError{Msg: "ciphertext modulus does not match this key"})
	}
	cA, err := f.fm.PowModNSquare(c.data, f.a)
	if err != nil {
		return Int{}, err
	}
	lu, err := L(cA, f.pub.N)
	if err != nil {
		return Int{}, err
	}
	ret, err := lu.Mul(f.mu).Mod(f.pub.N)
	if err != nil {
		return Int{}, err
	}
	return unmapPlaintext(ret, f.pub.N, f.posNeg), nil
}

var _ Scheme = (*Fast)(nil)
