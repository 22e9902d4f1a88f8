package ophelib

import (
	"github.com/pkg/errors"
)

// Reference implements the textbook Paillier construction directly: g is a
// random element, decryption uses λ = lcm(p-1, q-1) and no FastMod
// acceleration. Modeled on CreateSecretKey/Encrypt/Decrypt
// (didiercrunch-paillier/paillier.go), generalized from the g = n+1 special
// case to a uniformly random g and from Euler's totient to
// λ = lcm(p-1, q-1).
type Reference struct {
	pub  PublicKey
	priv PrivateKey
	haveP bool

	lambda Int
	mu     Int

	n2 Int
	mod *modulus

	plaintextSizeBits int
	posNeg            Int
	lower, upper      Int

	rnd Randomizer
}

// GenerateReference generates a fresh Reference key pair of keySizeBits
// bits. keySizeBits must be even, since p and q are each
// drawn with keySizeBits/2 bits.
func GenerateReference(keySizeBits int, src RandSource) (*Reference, error) {
	if keySizeBits < 16 || keySizeBits%2 != 0 {
		return nil, errors.WithStack(&ParamError{Msg: "GenerateReference requires an even key size of at least 16 bits"})
	}
	half := keySizeBits / 2

	var p, q, n Int
	for {
		var err error
		p, err = RandomPrime(half, src)
		if err != nil {
			return nil, err
		}
		q, err = RandomPrime(half, src)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}
		if p.GCD(q).Cmp(oneInt) != 0 {
			continue
		}
		n = p.Mul(q)
		if n.BitLen() == keySizeBits {
			break
		}
	}

	g, err := RandomBits(keySizeBits*keySizeBits, src)
	if err != nil {
		return nil, err
	}

	priv := PrivateKey{KeySizeBits: keySizeBits, P: p, Q: q}
	pub := PublicKey{KeySizeBits: keySizeBits, N: n, G: g}

	return newReferenceFromKeys(pub, priv, true)
}

// LoadReferencePublic builds a Reference that can encrypt (and carry out
// homomorphic operations) but not decrypt, from a PublicKey alone.
func LoadReferencePublic(pub PublicKey) (*Reference, error) {
	return newReferenceFromKeys(pub, PrivateKey{}, false)
}

// LoadReference builds a Reference with both halves of a key pair, e.g.
// after deserializing a KeyPair from the wire.
func LoadReference(pub PublicKey, priv PrivateKey) (*Reference, error) {
	return newReferenceFromKeys(pub, priv, true)
}

func newReferenceFromKeys(pub PublicKey, priv PrivateKey, haveP bool) (*Reference, error) {
	n2 := pub.N.Mul(pub.N)
	m := &modulus{n2: n2}

	posNeg, lower, upper := boundaries(pub.N)

	r := &Reference{
		pub:               pub,
		priv:              priv,
		haveP:             haveP,
		n2:                n2,
		mod:               m,
		plaintextSizeBits: pub.KeySizeBits,
		posNeg:            posNeg,
		lower:             lower,
		upper:             upper,
		rnd:               NewDirectRandomizer(pub.N, n2, nil),
	}

	if haveP {
		if priv.P.Sign() == 0 || priv.Q.Sign() == 0 {
			return nil, errors.WithStack(&CryptoError{Msg: "Reference private key requires non-zero p and q"})
		}
		if priv.P.GCD(priv.Q).Cmp(oneInt) != 0 {
			return nil, errors.WithStack(&CryptoError{Msg: "p and q are not coprime"})
		}
		pMinus1 := priv.P.Sub(oneInt)
		qMinus1 := priv.Q.Sub(oneInt)
		lambda := pMinus1.LCM(qMinus1)

		gLambda, err := pub.G.PowMod(lambda, n2)
		if err != nil {
			return nil, err
		}
		lu, err := L(gLambda, pub.N)
		if err != nil {
			return nil, err
		}
		mu, err := lu.InvMod(pub.N)
		if err != nil {
			return nil, err
		}
		r.lambda = lambda
		r.mu = mu
	}

	return r, nil
}

func (r *Reference) PublicKey() PublicKey { return r.pub }

func (r *Reference) PrivateKey() (PrivateKey, bool) {
	if !r.haveP {
		return PrivateKey{}, false
	}
	return r.priv, true
}

func (r *Reference) KeySizeBits() int           { return r.pub.KeySizeBits }
func (r *Reference) PlaintextSizeBits() int     { return r.plaintextSizeBits }
func (r *Reference) PlaintextLowerBoundary() Int { return r.lower }
func (r *Reference) PlaintextUpperBoundary() Int { return r.upper }
func (r *Reference) N2() Int                    { return r.n2 }
func (r *Reference) FastMod() *FastMod          { return nil }

// Encrypt maps m into [0, n) if needed, computes g^m mod n2, and
// re-randomizes by multiplying in r^n mod n2 for fresh random r.
func (r *Reference) Encrypt(m Int, src RandSource) (Ciphertext, error) {
	mapped := mapPlaintext(m, r.pub.N)
	c0, err := r.pub.G.PowMod(mapped, r.n2)
	if err != nil {
		return Ciphertext{}, err
	}
	noise, err := r.rnd.GetNoise(src)
	if err != nil {
		return Ciphertext{}, err
	}
	data, err := c0.Mul(noise).Mod(r.n2)
	if err != nil {
		return Ciphertext{}, err
	}
	return Ciphertext{data: data, mod: r.mod}, nil
}

// Decrypt implements D(c) = (L(c^λ mod n², n) · μ) mod n, mapping the
// unsigned result back into the signed plaintext range.
func (r *Reference) Decrypt(c Ciphertext) (Int, error) {
	if !r.haveP {
		return Int{}, errors.WithStack(&CryptoError{Msg: "Reference: no private key loaded"})
	}
	if c.mod == nil || c.mod.n2.Cmp(r.n2) != 0 {
		return Int{}, errors.WithStack(&CryptoError{Msg: "ciphertext modulus does not match this key"})
	}
	cLambda, err := c.data.PowMod(r.lambda, r.n2)
	if err != nil {
		return Int{}, err
	}
	lu, err := L(cLambda, r.pub.N)
	if err != nil {
		return Int{}, err
	}
	ret, err := lu.Mul(r.mu).Mod(r.pub.N)
	if err != nil {
		return Int{}, err
	}
	return unmapPlaintext(ret, r.pub.N, r.posNeg), nil
}

var _ Scheme = (*Reference)(nil)
